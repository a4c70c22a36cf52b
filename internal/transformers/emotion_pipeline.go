package transformers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/spacesedan/sentilens/internal/emotion"
	"github.com/spacesedan/sentilens/internal/models"
)

// EmotionPipeline is a text classification pipeline configured to return a
// score for every label.
type EmotionPipeline struct {
	pipeline *pipelines.TextClassificationPipeline
}

var _ emotion.Classifier = (*EmotionPipeline)(nil)

func (s *Session) NewEmotionPipeline(modelName, onnxFile, activation string) (*EmotionPipeline, error) {
	modelPath, err := s.EnsureModel(modelName, onnxFile)
	if err != nil {
		return nil, err
	}

	opts := []hugot.TextClassificationOption{pipelines.WithMultiLabel()}
	switch activation {
	case "sigmoid":
		opts = append(opts, pipelines.WithSigmoid())
	default:
		opts = append(opts, pipelines.WithSoftmax())
	}

	p, err := hugot.NewPipeline(s.session, hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "emotionClassificationPipeline",
		Options:   opts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize emotion pipeline: %w", err)
	}

	slog.Info("[Transformers] Emotion pipeline ready",
		slog.String("model", modelName),
		slog.String("activation", activation))
	return &EmotionPipeline{pipeline: p}, nil
}

// Classify runs the model once; ONNX inference is not interruptible, so ctx
// is only checked before starting.
func (e *EmotionPipeline) Classify(ctx context.Context, text string) (models.EmotionScores, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	output, err := e.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("emotion classification failed: %w", err)
	}
	if len(output.ClassificationOutputs) != 1 {
		return nil, fmt.Errorf("expected 1 classification output, got %d", len(output.ClassificationOutputs))
	}

	results := output.ClassificationOutputs[0]
	labels := make([]string, len(results))
	probs := make([]float64, len(results))
	for i, r := range results {
		labels[i] = r.Label
		probs[i] = float64(r.Score)
	}
	return emotion.ToScores(labels, probs)
}
