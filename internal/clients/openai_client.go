package clients

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/spacesedan/sentilens/internal/embeddings"
)

// OpenAIClient embeds text with the OpenAI embeddings API.
type OpenAIClient struct {
	Client openai.Client
	model  openai.EmbeddingModel
}

var _ embeddings.Embedder = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client that never retries: a failed call fails the
// request that made it.
func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	slog.Info("[OpenAIClient] OpenAI client initialized",
		slog.String("model", model),
		slog.Duration("timeout", timeout))

	return &OpenAIClient{
		Client: openai.NewClient(opts...),
		model:  model,
	}
}

func (o *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}
	start := time.Now()

	resp, err := o.Client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: o.model,
	})
	if err != nil {
		slog.Error("[OpenAIClient] Embedding request failed",
			slog.Int("inputs", len(texts)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vecs := make([][]float32, len(data))
	for i, d := range data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		vecs[i] = vec
	}
	if err := embeddings.CheckCount(len(texts), vecs); err != nil {
		return nil, err
	}

	slog.Debug("[OpenAIClient] Embedding request successful",
		slog.Int("inputs", len(texts)),
		slog.Duration("elapsed", time.Since(start)))
	return vecs, nil
}
