// Package keywords ranks candidate keyphrases of a document by how close
// their embeddings sit to the document embedding.
package keywords

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/spacesedan/sentilens/internal/embeddings"
)

const (
	DefaultTopN      = 10
	DefaultBatchSize = 64
)

type Keyword struct {
	Phrase string
	Score  float64
}

type Extractor struct {
	embedder  embeddings.Embedder
	topN      int
	minN      int
	maxN      int
	batchSize int
}

type Option func(*Extractor)

func WithTopN(n int) Option {
	return func(x *Extractor) {
		if n > 0 {
			x.topN = n
		}
	}
}

// WithNgramRange sets the phrase length bounds, in tokens.
func WithNgramRange(minN, maxN int) Option {
	return func(x *Extractor) {
		if minN > 0 && maxN >= minN {
			x.minN, x.maxN = minN, maxN
		}
	}
}

// WithBatchSize caps how many candidates go into one embedding call.
func WithBatchSize(n int) Option {
	return func(x *Extractor) {
		if n > 0 {
			x.batchSize = n
		}
	}
}

func NewExtractor(e embeddings.Embedder, opts ...Option) *Extractor {
	x := &Extractor{
		embedder:  e,
		topN:      DefaultTopN,
		minN:      1,
		maxN:      2,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract returns at most topN keyphrases of text, best first. A text with
// no candidates yields an empty result without calling the embedder.
func (x *Extractor) Extract(ctx context.Context, text string) ([]Keyword, error) {
	candidates := Candidates(text, x.minN, x.maxN)
	if len(candidates) == 0 {
		slog.Debug("[KeywordExtractor] no candidate phrases")
		return []Keyword{}, nil
	}

	docVec, err := embeddings.EmbedOne(ctx, x.embedder, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed document: %w", err)
	}

	keywords := make([]Keyword, 0, len(candidates))
	for start := 0; start < len(candidates); start += x.batchSize {
		end := min(start+x.batchSize, len(candidates))
		batch := candidates[start:end]

		vecs, err := x.embedder.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to embed candidates: %w", err)
		}
		if err := embeddings.CheckCount(len(batch), vecs); err != nil {
			return nil, fmt.Errorf("failed to embed candidates: %w", err)
		}

		for i, vec := range vecs {
			score, err := embeddings.CosineSimilarity(docVec, vec)
			if err != nil {
				return nil, fmt.Errorf("failed to score %q: %w", batch[i], err)
			}
			keywords = append(keywords, Keyword{Phrase: batch[i], Score: score})
		}
	}

	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Score > keywords[j].Score
	})
	if len(keywords) > x.topN {
		keywords = keywords[:x.topN]
	}

	slog.Debug("[KeywordExtractor] ranked candidates",
		slog.Int("candidates", len(candidates)),
		slog.Int("returned", len(keywords)))
	return keywords, nil
}

// Phrases drops the scores, keeping rank order.
func Phrases(keywords []Keyword) []string {
	out := make([]string, len(keywords))
	for i, k := range keywords {
		out[i] = k.Phrase
	}
	return out
}
