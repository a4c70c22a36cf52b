// Package emotion holds the emotion classifier contract and the score
// post-processing shared by its implementations.
package emotion

import (
	"context"
	"fmt"
	"math"

	"github.com/spacesedan/sentilens/internal/models"
)

// Classifier assigns a probability to every label of its taxonomy.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.EmotionScores, error)
}

// Activation turns raw logits into probabilities.
type Activation func(logits []float64) []float64

func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		maxLogit = math.Max(maxLogit, l)
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func Sigmoid(logits []float64) []float64 {
	out := make([]float64, len(logits))
	for i, l := range logits {
		out[i] = 1 / (1 + math.Exp(-l))
	}
	return out
}

// ActivationByName resolves "softmax" or "sigmoid".
func ActivationByName(name string) (Activation, error) {
	switch name {
	case "softmax":
		return Softmax, nil
	case "sigmoid":
		return Sigmoid, nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}

// ToScores pairs labels with probabilities. Duplicate labels keep the
// highest score.
func ToScores(labels []string, probs []float64) (models.EmotionScores, error) {
	if len(labels) != len(probs) {
		return nil, fmt.Errorf("got %d labels for %d scores", len(labels), len(probs))
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("classifier returned no labels")
	}

	scores := make(models.EmotionScores, len(labels))
	for i, label := range labels {
		p := probs[i]
		if math.IsNaN(p) {
			return nil, fmt.Errorf("classifier returned NaN for %q", label)
		}
		if prev, ok := scores[label]; !ok || p > prev {
			scores[label] = p
		}
	}
	return scores, nil
}
