package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/spacesedan/sentilens/internal/emotion"
	"github.com/spacesedan/sentilens/internal/embeddings"
	"github.com/spacesedan/sentilens/internal/models"
)

// HuggingFaceClient talks to text-embeddings-inference servers: one serving
// a sentence embedder on /embed and one serving a sequence classifier on
// /predict. Either URL may be empty when that model runs elsewhere.
type HuggingFaceClient struct {
	Client      *http.Client
	embedURL    string
	classifyURL string
	activation  emotion.Activation
}

var (
	_ embeddings.Embedder = (*HuggingFaceClient)(nil)
	_ emotion.Classifier  = (*HuggingFaceClient)(nil)
)

func NewHuggingFaceClient(embedURL, classifyURL string, timeout time.Duration, activation emotion.Activation) *HuggingFaceClient {
	slog.Info("[HuggingFaceClient] Initializing Client",
		slog.Duration("timeout", timeout),
		slog.String("embed_url", embedURL),
		slog.String("classify_url", classifyURL))

	if activation == nil {
		activation = emotion.Softmax
	}
	return &HuggingFaceClient{
		Client:      &http.Client{Timeout: timeout},
		embedURL:    embedURL,
		classifyURL: classifyURL,
		activation:  activation,
	}
}

func (h *HuggingFaceClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if h.embedURL == "" {
		return nil, fmt.Errorf("embedding endpoint not configured")
	}
	start := time.Now()

	var result models.TEIEmbedResponse
	err := h.postJSON(ctx, h.embedURL, models.TEIEmbedRequest{
		Inputs:    texts,
		Normalize: true,
		Truncate:  true,
	}, &result)
	if err != nil {
		return nil, err
	}
	if err := embeddings.CheckCount(len(texts), result); err != nil {
		return nil, err
	}

	slog.Debug("[HuggingFaceClient] Embedding request successful",
		slog.Int("inputs", len(texts)),
		slog.Duration("elapsed", time.Since(start)))
	return result, nil
}

// Classify asks for raw logits and applies the configured activation, so the
// probabilities do not depend on how the server was launched.
func (h *HuggingFaceClient) Classify(ctx context.Context, text string) (models.EmotionScores, error) {
	if h.classifyURL == "" {
		return nil, fmt.Errorf("classification endpoint not configured")
	}
	start := time.Now()

	var result models.TEIPredictResponse
	err := h.postJSON(ctx, h.classifyURL, models.TEIPredictRequest{
		Inputs:    text,
		RawScores: true,
		Truncate:  true,
	}, &result)
	if err != nil {
		return nil, err
	}

	labels := make([]string, len(result))
	logits := make([]float64, len(result))
	for i, p := range result {
		labels[i] = p.Label
		logits[i] = p.Score
	}

	scores, err := emotion.ToScores(labels, h.activation(logits))
	if err != nil {
		return nil, err
	}

	slog.Debug("[HuggingFaceClient] Classification request successful",
		slog.Int("labels", len(scores)),
		slog.Duration("elapsed", time.Since(start)))
	return scores, nil
}

// Ping checks that every configured endpoint answers GET /health.
func (h *HuggingFaceClient) Ping(ctx context.Context) error {
	for _, endpoint := range []string{h.embedURL, h.classifyURL} {
		if endpoint == "" {
			continue
		}
		healthURL, err := healthURLFor(endpoint)
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
		if err != nil {
			return fmt.Errorf("failed to build health request: %w", err)
		}
		resp, err := h.Client.Do(req)
		if err != nil {
			return fmt.Errorf("health request failed: %w", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("health check %s: %s", healthURL, errMsg(resp))
		}
	}
	return nil
}

func (h *HuggingFaceClient) postJSON(ctx context.Context, endpoint string, input interface{}, output interface{}) error {
	body, err := json.Marshal(input)
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed to marshal input",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed to build request",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := h.Client.Do(req)
	if err != nil {
		slog.Error("[HuggingFaceClient] Request failed",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed to read response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var teiErr models.TEIErrorResponse
		if json.Unmarshal(respBody, &teiErr) == nil && teiErr.Error != "" {
			return fmt.Errorf("inference server returned %d: %s", resp.StatusCode, teiErr.Error)
		}
		slog.Error("[HuggingFaceClient] Unexpected status",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			getPreview(respBody))
		return fmt.Errorf("inference server returned %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		slog.Error("[HuggingFaceClient] Failed to unmarshal response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
			getPreview(respBody),
			slog.Int("raw_response_length", len(respBody)))

		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(resp *http.Response) string {
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}

// healthURLFor maps http://host:port/embed to http://host:port/health.
func healthURLFor(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	u.Path = "/health"
	u.RawQuery = ""
	return u.String(), nil
}
