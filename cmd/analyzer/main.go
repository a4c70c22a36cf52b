package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacesedan/sentilens/config"
	"github.com/spacesedan/sentilens/internal/analysis"
	"github.com/spacesedan/sentilens/internal/api"
	"github.com/spacesedan/sentilens/internal/clients"
	"github.com/spacesedan/sentilens/internal/clients/kafka_client"
	"github.com/spacesedan/sentilens/internal/embeddings"
	"github.com/spacesedan/sentilens/internal/emotion"
	"github.com/spacesedan/sentilens/internal/inference"
	"github.com/spacesedan/sentilens/internal/keywords"
	"github.com/spacesedan/sentilens/internal/logging"
	"github.com/spacesedan/sentilens/internal/monitoring"
	"github.com/spacesedan/sentilens/internal/relevance"
	"github.com/spacesedan/sentilens/internal/sentiment"
	"github.com/spacesedan/sentilens/internal/transformers"
)

const shutdownTimeout = 10 * time.Second

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("[Main] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("[Main] Analyzer stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	activation, err := emotion.ActivationByName(cfg.EmotionActivation)
	if err != nil {
		return err
	}

	var session *transformers.Session
	if cfg.NeedsONNXSession() {
		session, err = transformers.NewSession(cfg.ModelDir, cfg.OnnxLibraryPath)
		if err != nil {
			return err
		}
		defer session.Destroy()
	}

	var tei *clients.HuggingFaceClient
	if cfg.EmbeddingProvider == config.EmbeddingProviderTEI || cfg.EmotionProvider == config.EmotionProviderTEI {
		embedURL, classifyURL := "", ""
		if cfg.EmbeddingProvider == config.EmbeddingProviderTEI {
			embedURL = cfg.TEIEmbedURL
		}
		if cfg.EmotionProvider == config.EmotionProviderTEI {
			classifyURL = cfg.TEIClassifyURL
		}
		tei = clients.NewHuggingFaceClient(embedURL, classifyURL, cfg.InferenceTimeout, activation)
	}

	var embedder embeddings.Embedder
	switch cfg.EmbeddingProvider {
	case config.EmbeddingProviderONNX:
		if embedder, err = session.NewEmbeddingPipeline(cfg.EmbeddingModel, cfg.EmbeddingOnnxFile); err != nil {
			return err
		}
	case config.EmbeddingProviderOpenAI:
		openai := clients.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIEmbeddingModel, cfg.InferenceTimeout)
		embedder = embeddings.NewRateLimited(openai, cfg.EmbeddingRateLimit)
	case config.EmbeddingProviderTEI:
		embedder = embeddings.NewRateLimited(tei, cfg.EmbeddingRateLimit)
	}

	var classifier emotion.Classifier
	switch cfg.EmotionProvider {
	case config.EmotionProviderONNX:
		if classifier, err = session.NewEmotionPipeline(cfg.EmotionModel, cfg.EmotionOnnxFile, cfg.EmotionActivation); err != nil {
			return err
		}
	case config.EmotionProviderTEI:
		classifier = tei
	}

	pool := inference.NewPool(cfg.InferenceConcurrency)
	embedder = pool.Embedder(embedder)
	classifier = pool.Classifier(classifier)

	slog.Info("[Main] Models ready",
		slog.String("embedding_provider", cfg.EmbeddingProvider),
		slog.String("emotion_provider", cfg.EmotionProvider),
		slog.Int("inference_slots", pool.Size()))

	opts := []analysis.Option{analysis.WithSentiment(sentiment.NewAnalyzer())}
	probes := map[string]monitoring.Probe{
		"embedder": func(ctx context.Context) error {
			_, err := embeddings.EmbedOne(ctx, embedder, "healthcheck")
			return err
		},
	}
	if tei != nil {
		probes["tei"] = tei.Ping
	}

	if cfg.ValkeyAddress != "" {
		cache, err := clients.NewValkeyClient(ctx, clients.ValkeyOptions{
			Address:  cfg.ValkeyAddress,
			Password: cfg.ValkeyPassword,
			UseTLS:   cfg.ValkeyTLS,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			slog.Warn("[Main] Result cache disabled", slog.String("error", err.Error()))
		} else {
			defer cache.Close()
			opts = append(opts, analysis.WithCache(cache))
			probes["cache"] = cache.Ping
		}
	}

	if cfg.KafkaBroker != "" {
		publisher, err := kafka_client.NewAnalysisPublisher(kafka_client.KafkaConfig{
			Broker: cfg.KafkaBroker,
			Topic:  cfg.KafkaAnalysisTopic,
		})
		if err != nil {
			slog.Warn("[Main] Analysis events disabled", slog.String("error", err.Error()))
		} else {
			defer publisher.Close()
			opts = append(opts, analysis.WithPublisher(publisher))
		}
	}

	analyzer := analysis.NewAnalyzer(classifier, keywords.NewExtractor(embedder, keywords.WithTopN(cfg.KeywordTopN)),
		relevance.NewEngine(embedder), opts...)

	monitor := monitoring.NewHealthMonitor(cfg.HealthCheckInterval, probes)
	go monitor.Run(ctx)

	router := api.NewRouter(api.RouterConfig{
		AllowedOrigins:      cfg.CORSAllowedOrigins,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	}, analyzer, monitor)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("[Main] Listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("[Main] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("[Main] Server stopped")
	return nil
}
