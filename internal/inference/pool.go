// Package inference bounds how many model calls run at once across all
// in-flight requests.
package inference

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spacesedan/sentilens/internal/embeddings"
	"github.com/spacesedan/sentilens/internal/emotion"
	"github.com/spacesedan/sentilens/internal/models"
	"golang.org/x/sync/semaphore"
)

type Pool struct {
	sem  *semaphore.Weighted
	size int64
}

func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: int64(size)}
}

func (p *Pool) Size() int { return int(p.size) }

// Do runs fn once a slot is free. Waiting respects ctx.
func (p *Pool) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	start := time.Now()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for inference slot: %w", err)
	}
	defer p.sem.Release(1)

	if waited := time.Since(start); waited > 100*time.Millisecond {
		slog.Debug("[InferencePool] waited for slot",
			slog.String("call", name),
			slog.Duration("waited", waited))
	}
	return fn(ctx)
}

type pooledEmbedder struct {
	pool *Pool
	next embeddings.Embedder
}

// Embedder routes every Embed call through the pool.
func (p *Pool) Embedder(next embeddings.Embedder) embeddings.Embedder {
	return &pooledEmbedder{pool: p, next: next}
}

func (e *pooledEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := e.pool.Do(ctx, "embed", func(ctx context.Context) error {
		var err error
		out, err = e.next.Embed(ctx, texts)
		return err
	})
	return out, err
}

type pooledClassifier struct {
	pool *Pool
	next emotion.Classifier
}

// Classifier routes every Classify call through the pool.
func (p *Pool) Classifier(next emotion.Classifier) emotion.Classifier {
	return &pooledClassifier{pool: p, next: next}
}

func (c *pooledClassifier) Classify(ctx context.Context, text string) (models.EmotionScores, error) {
	var out models.EmotionScores
	err := c.pool.Do(ctx, "classify", func(ctx context.Context) error {
		var err error
		out, err = c.next.Classify(ctx, text)
		return err
	})
	return out, err
}
