package transformers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/spacesedan/sentilens/internal/embeddings"
)

// EmbeddingPipeline produces mean-pooled, L2-normalised sentence embeddings.
type EmbeddingPipeline struct {
	pipeline *pipelines.FeatureExtractionPipeline
}

var _ embeddings.Embedder = (*EmbeddingPipeline)(nil)

func (s *Session) NewEmbeddingPipeline(modelName, onnxFile string) (*EmbeddingPipeline, error) {
	modelPath, err := s.EnsureModel(modelName, onnxFile)
	if err != nil {
		return nil, err
	}

	p, err := hugot.NewPipeline(s.session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "sentenceEmbeddingPipeline",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding pipeline: %w", err)
	}

	slog.Info("[Transformers] Embedding pipeline ready", slog.String("model", modelName))
	return &EmbeddingPipeline{pipeline: p}, nil
}

func (e *EmbeddingPipeline) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	output, err := e.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("feature extraction failed: %w", err)
	}
	if err := embeddings.CheckCount(len(texts), output.Embeddings); err != nil {
		return nil, err
	}
	return output.Embeddings, nil
}
