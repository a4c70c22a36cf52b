package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spacesedan/sentilens/internal/analysis"
	"github.com/spacesedan/sentilens/internal/emotion"
	"github.com/spacesedan/sentilens/internal/keywords"
	"github.com/spacesedan/sentilens/internal/models"
	"github.com/spacesedan/sentilens/internal/relevance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAnalyzer struct {
	AnalyzeFunc func(ctx context.Context, req models.AnalysisRequest) (analysis.Result, error)
	calls       int
}

func (m *mockAnalyzer) Analyze(ctx context.Context, req models.AnalysisRequest) (analysis.Result, error) {
	m.calls++
	return m.AnalyzeFunc(ctx, req)
}

type mockHealth struct {
	healthy  bool
	failures map[string]string
}

func (m mockHealth) Healthy() bool { return m.healthy }
func (m mockHealth) Failures() map[string]string { return m.failures }

// vectorEmbedder gives "happy" texts and the term "joy" the same direction.
type vectorEmbedder struct{}

func (vectorEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		switch {
		case strings.Contains(text, "happy"), text == "joy":
			out[i] = []float32{1, 0.1, 0}
		case text == "sadness":
			out[i] = []float32{-0.5, 1, 0}
		default:
			out[i] = []float32{0.2, 0.2, 1}
		}
	}
	return out, nil
}

type logitClassifier struct{}

func (logitClassifier) Classify(_ context.Context, text string) (models.EmotionScores, error) {
	labels := []string{"joy", "sadness", "anger", "neutral"}
	logits := []float64{0.5, 0.1, 0.1, 1.0}
	if strings.Contains(text, "happy") {
		logits[0] = 4
	}
	return emotion.ToScores(labels, emotion.Softmax(logits))
}

func newTestServer(t *testing.T, a Analyzer, h HealthChecker) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(RouterConfig{
		AllowedOrigins:      []string{"*"},
		MaxRequestBodyBytes: 1 << 10,
	}, a, h))
	t.Cleanup(srv.Close)
	return srv
}

func pipelineAnalyzer() *analysis.Analyzer {
	e := vectorEmbedder{}
	return analysis.NewAnalyzer(logitClassifier{}, keywords.NewExtractor(e), relevance.NewEngine(e))
}

func post(t *testing.T, srv *httptest.Server, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/analyze", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestAnalyze_HappyScenario(t *testing.T) {
	srv := newTestServer(t, pipelineAnalyzer(), nil)

	resp, body := post(t, srv, `{"text": "I am so happy today!", "vocabulary": ["joy", "sadness"]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get(analysisIDHeader))

	emotions := body["emotions"].(map[string]interface{})
	var sum float64
	for _, v := range emotions {
		sum += v.(float64)
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	for label, v := range emotions {
		if label != "joy" {
			assert.Greater(t, emotions["joy"].(float64), v.(float64))
		}
	}

	kws := body["keywords"].([]interface{})
	assert.NotEmpty(t, kws)
	assert.LessOrEqual(t, len(kws), 10)

	terms := body["term_relevance"].([]interface{})
	require.Len(t, terms, 2)
	first := terms[0].(map[string]interface{})
	second := terms[1].(map[string]interface{})
	assert.Equal(t, "joy", first["term"])
	assert.Equal(t, "sadness", second["term"])
	assert.Greater(t, first["relevance"].(float64), second["relevance"].(float64))
}

func TestAnalyze_NoVocabulary(t *testing.T) {
	srv := newTestServer(t, pipelineAnalyzer(), nil)

	for _, body := range []string{
		`{"text": "I am so happy today!"}`,
		`{"text": "I am so happy today!", "vocabulary": []}`,
		`{"text": "I am so happy today!", "vocabulary": null}`,
	} {
		resp, decoded := post(t, srv, body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []interface{}{}, decoded["term_relevance"])
		assert.NotEmpty(t, decoded["emotions"])
	}
}

func TestAnalyze_DuplicateVocabulary(t *testing.T) {
	srv := newTestServer(t, pipelineAnalyzer(), nil)

	_, body := post(t, srv, `{"text": "happy days", "vocabulary": ["sadness", "joy", "sadness", "joy"]}`)
	terms := body["term_relevance"].([]interface{})
	require.Len(t, terms, 2)

	seen := map[string]bool{}
	prev := 2.0
	for _, raw := range terms {
		entry := raw.(map[string]interface{})
		seen[entry["term"].(string)] = true
		rel := entry["relevance"].(float64)
		assert.LessOrEqual(t, rel, prev)
		prev = rel
	}
	assert.Equal(t, map[string]bool{"joy": true, "sadness": true}, seen)
}

func TestAnalyze_Idempotent(t *testing.T) {
	srv := newTestServer(t, pipelineAnalyzer(), nil)
	input := `{"text": "I am so happy today!", "vocabulary": ["joy", "sadness"]}`

	_, first := post(t, srv, input)
	_, second := post(t, srv, input)
	assert.Equal(t, first, second)
}

// nanEmbedder breaks the "joy" vector so its similarity cannot be computed.
type nanEmbedder struct{ vectorEmbedder }

func (n nanEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out, err := n.vectorEmbedder.Embed(ctx, texts)
	for i, text := range texts {
		if text == "joy" {
			out[i] = []float32{float32(math.NaN()), 1, 0}
		}
	}
	return out, err
}

func TestAnalyze_NaNEmbeddingDegradesRelevance(t *testing.T) {
	e := nanEmbedder{}
	a := analysis.NewAnalyzer(logitClassifier{}, keywords.NewExtractor(vectorEmbedder{}), relevance.NewEngine(e))
	srv := newTestServer(t, a, nil)

	resp, body := post(t, srv, `{"text": "I am happy", "vocabulary": ["joy", "sadness"]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{}, body["term_relevance"])
	assert.NotEmpty(t, body["emotions"])

	warnings := body["warnings"].([]interface{})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "non-finite")
}

func TestAnalyze_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty text", `{"text": ""}`, msgNoText},
		{"whitespace text", `{"text": "   "}`, msgNoText},
		{"missing text", `{"vocabulary": ["joy"]}`, msgNoText},
		{"null text", `{"text": null}`, msgNoText},
		{"malformed json", `{"text": `, msgInvalidBody},
		{"wrong type", `{"text": 42}`, msgInvalidBody},
		{"not an object", `"hello"`, msgInvalidBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockAnalyzer{AnalyzeFunc: func(ctx context.Context, req models.AnalysisRequest) (analysis.Result, error) {
				return analysis.NewAnalyzer(nil, nil, nil).Analyze(ctx, req)
			}}
			srv := newTestServer(t, m, nil)

			resp, body := post(t, srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.message, body["error"])
			assert.Len(t, body, 1)
		})
	}
}

func TestAnalyze_BodyTooLarge(t *testing.T) {
	m := &mockAnalyzer{}
	srv := newTestServer(t, m, nil)

	big := `{"text": "` + strings.Repeat("a", 2048) + `"}`
	resp, body := post(t, srv, big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, msgBodyTooLarge, body["error"])
	assert.Zero(t, m.calls)
}

func TestAnalyze_InternalError(t *testing.T) {
	m := &mockAnalyzer{AnalyzeFunc: func(context.Context, models.AnalysisRequest) (analysis.Result, error) {
		return analysis.Result{ID: "abc"}, errors.New("emotion classification failed: model crashed")
	}}
	srv := newTestServer(t, m, nil)

	resp, body := post(t, srv, `{"text": "hello"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "abc", resp.Header.Get(analysisIDHeader))
	assert.Equal(t, map[string]interface{}{
		"error":          "An error occurred: emotion classification failed: model crashed",
		"emotions":       map[string]interface{}{},
		"keywords":       []interface{}{},
		"term_relevance": []interface{}{},
	}, body)
}

func TestAnalyze_PanicRecovered(t *testing.T) {
	m := &mockAnalyzer{AnalyzeFunc: func(context.Context, models.AnalysisRequest) (analysis.Result, error) {
		panic("tokenizer exploded")
	}}
	srv := newTestServer(t, m, nil)

	resp, body := post(t, srv, `{"text": "hello"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "An error occurred: tokenizer exploded", body["error"])
	assert.Equal(t, []interface{}{}, body["keywords"])
}

func TestAnalyze_CORS(t *testing.T) {
	srv := newTestServer(t, &mockAnalyzer{}, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/analyze", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Less(t, resp.StatusCode, 300)
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	t.Run("no checker", func(t *testing.T) {
		srv := newTestServer(t, &mockAnalyzer{}, nil)
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unhealthy", func(t *testing.T) {
		srv := newTestServer(t, &mockAnalyzer{}, mockHealth{
			failures: map[string]string{"embedder": "connection refused"},
		})
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		var body healthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "unavailable", body.Status)
		assert.Equal(t, "connection refused", body.Failures["embedder"])
	})
}
