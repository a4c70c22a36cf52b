// Package relevance scores vocabulary terms against a document by the cosine
// similarity of their embeddings.
package relevance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/spacesedan/sentilens/internal/embeddings"
	"github.com/spacesedan/sentilens/internal/models"
)

type Engine struct {
	embedder embeddings.Embedder
}

func NewEngine(e embeddings.Embedder) *Engine {
	return &Engine{embedder: e}
}

// Compute returns one entry per vocabulary term, highest relevance first,
// ties in vocabulary order. vocab is expected to be deduplicated already.
//
// An empty vocabulary returns an empty list without touching the embedder.
// Provider failures are returned as errors; callers decide whether to
// degrade.
func (e *Engine) Compute(ctx context.Context, text string, vocab []string) ([]models.TermRelevance, error) {
	if len(vocab) == 0 {
		return []models.TermRelevance{}, nil
	}

	textVec, err := embeddings.EmbedOne(ctx, e.embedder, text)
	if err != nil {
		slog.Error("[RelevanceEngine] failed to embed text", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}

	termVecs, err := e.embedder.Embed(ctx, vocab)
	if err == nil {
		err = embeddings.CheckCount(len(vocab), termVecs)
	}
	if err != nil {
		slog.Error("[RelevanceEngine] failed to embed vocabulary",
			slog.Int("terms", len(vocab)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to embed vocabulary: %w", err)
	}

	results := make([]models.TermRelevance, len(vocab))
	for i, term := range vocab {
		score, err := embeddings.CosineSimilarity(textVec, termVecs[i])
		if err != nil {
			slog.Error("[RelevanceEngine] failed to score term",
				slog.String("term", term),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to score term %q: %w", term, err)
		}
		results[i] = models.TermRelevance{Term: term, Relevance: score}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})

	slog.Debug("[RelevanceEngine] scored vocabulary", slog.Int("terms", len(results)))
	return results, nil
}
