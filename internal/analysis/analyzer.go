// Package analysis runs the emotion, keyword, relevance and sentiment stages
// for one request and assembles the combined response.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spacesedan/sentilens/internal/emotion"
	"github.com/spacesedan/sentilens/internal/keywords"
	"github.com/spacesedan/sentilens/internal/models"
	"golang.org/x/sync/errgroup"
)

// ErrEmptyText is returned when the request text is missing or blank.
var ErrEmptyText = errors.New("no text provided")

const relevanceWarning = "term relevance unavailable: "

type KeywordExtractor interface {
	Extract(ctx context.Context, text string) ([]keywords.Keyword, error)
}

type RelevanceScorer interface {
	Compute(ctx context.Context, text string, vocab []string) ([]models.TermRelevance, error)
}

type SentimentScorer interface {
	Score(text string) models.SentimentScore
}

type Cache interface {
	Get(ctx context.Context, key string) (*models.AnalysisResponse, bool, error)
	Set(ctx context.Context, key string, resp models.AnalysisResponse) error
}

type Publisher interface {
	Publish(ctx context.Context, ev models.AnalysisEvent) error
}

type Analyzer struct {
	classifier emotion.Classifier
	extractor  KeywordExtractor
	relevance  RelevanceScorer
	sentiment  SentimentScorer
	cache      Cache
	publisher  Publisher
	now        func() time.Time
}

type Option func(*Analyzer)

func WithSentiment(s SentimentScorer) Option {
	return func(a *Analyzer) { a.sentiment = s }
}

func WithCache(c Cache) Option {
	return func(a *Analyzer) { a.cache = c }
}

func WithPublisher(p Publisher) Option {
	return func(a *Analyzer) { a.publisher = p }
}

func NewAnalyzer(c emotion.Classifier, x KeywordExtractor, r RelevanceScorer, opts ...Option) *Analyzer {
	a := &Analyzer{
		classifier: c,
		extractor:  x,
		relevance:  r,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type Result struct {
	ID       string
	Response models.AnalysisResponse
	Cached   bool
}

// Analyze validates req and runs every stage. Emotion or keyword failures
// fail the whole analysis; a relevance failure leaves term_relevance empty
// and adds a warning.
func (a *Analyzer) Analyze(ctx context.Context, req models.AnalysisRequest) (Result, error) {
	text := req.TextValue()
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyText
	}

	id := uuid.NewString()
	vocab := Dedupe(req.Vocabulary)
	slog.Debug("[Analyzer] received vocabulary",
		slog.String("analysis_id", id),
		slog.Any("vocabulary", req.Vocabulary),
		slog.Any("deduped", vocab))

	key := CacheKey(text, vocab)
	if cached, ok := a.lookup(ctx, key); ok {
		slog.Info("[Analyzer] served from cache", slog.String("analysis_id", id))
		res := Result{ID: id, Response: *cached, Cached: true}
		a.publish(ctx, res, text, vocab)
		return res, nil
	}

	start := time.Now()
	resp := models.EmptyAnalysisResponse()
	var relevanceErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scores, err := a.classifier.Classify(gctx, text)
		if err != nil {
			return fmt.Errorf("emotion classification failed: %w", err)
		}
		resp.Emotions = scores
		return nil
	})
	g.Go(func() error {
		kws, err := a.extractor.Extract(gctx, text)
		if err != nil {
			return fmt.Errorf("keyword extraction failed: %w", err)
		}
		resp.Keywords = keywords.Phrases(kws)
		return nil
	})
	g.Go(func() error {
		terms, err := a.relevance.Compute(gctx, text, vocab)
		if err != nil {
			relevanceErr = err
			return nil
		}
		resp.TermRelevance = terms
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.Error("[Analyzer] analysis failed",
			slog.String("analysis_id", id),
			slog.String("error", err.Error()))
		return Result{ID: id}, err
	}

	if relevanceErr != nil {
		slog.Warn("[Analyzer] term relevance degraded to empty",
			slog.String("analysis_id", id),
			slog.String("error", relevanceErr.Error()))
		resp.TermRelevance = []models.TermRelevance{}
		resp.Warnings = append(resp.Warnings, relevanceWarning+relevanceErr.Error())
	}
	if a.sentiment != nil {
		score := a.sentiment.Score(text)
		resp.Sentiment = &score
	}
	normalize(&resp)

	slog.Info("[Analyzer] analysis complete",
		slog.String("analysis_id", id),
		slog.Int("emotions", len(resp.Emotions)),
		slog.Int("keywords", len(resp.Keywords)),
		slog.Int("terms", len(resp.TermRelevance)),
		slog.Duration("elapsed", time.Since(start)))
	slog.Debug("[Analyzer] term relevance", slog.Any("term_relevance", resp.TermRelevance))

	res := Result{ID: id, Response: resp}
	if len(resp.Warnings) == 0 {
		a.store(ctx, key, resp)
	}
	a.publish(ctx, res, text, vocab)
	return res, nil
}

func (a *Analyzer) lookup(ctx context.Context, key string) (*models.AnalysisResponse, bool) {
	if a.cache == nil {
		return nil, false
	}
	resp, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("[Analyzer] cache lookup failed", slog.String("error", err.Error()))
		return nil, false
	}
	if !ok || resp == nil {
		return nil, false
	}
	normalize(resp)
	return resp, true
}

func (a *Analyzer) store(ctx context.Context, key string, resp models.AnalysisResponse) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(ctx, key, resp); err != nil {
		slog.Warn("[Analyzer] cache store failed", slog.String("error", err.Error()))
	}
}

func (a *Analyzer) publish(ctx context.Context, res Result, text string, vocab []string) {
	if a.publisher == nil {
		return
	}
	ev := models.AnalysisEvent{
		AnalysisID: res.ID,
		AnalyzedAt: a.now().UTC(),
		Cached:     res.Cached,
		Text:       text,
		Vocabulary: vocab,
		Result:     res.Response,
	}
	if err := a.publisher.Publish(ctx, ev); err != nil {
		slog.Warn("[Analyzer] failed to publish analysis event",
			slog.String("analysis_id", res.ID),
			slog.String("error", err.Error()))
	}
}

// normalize replaces nil collections so they encode as {} and [].
func normalize(resp *models.AnalysisResponse) {
	if resp.Emotions == nil {
		resp.Emotions = models.EmotionScores{}
	}
	if resp.Keywords == nil {
		resp.Keywords = []string{}
	}
	if resp.TermRelevance == nil {
		resp.TermRelevance = []models.TermRelevance{}
	}
}
