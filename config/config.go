package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EmbeddingProviderONNX   = "onnx"
	EmbeddingProviderOpenAI = "openai"
	EmbeddingProviderTEI    = "tei"

	EmotionProviderONNX = "onnx"
	EmotionProviderTEI  = "tei"

	EmotionActivationSoftmax = "softmax"
	EmotionActivationSigmoid = "sigmoid"
)

// Config holds everything the analyzer binary reads from the environment.
type Config struct {
	Env      string
	Host     string
	Port     string
	LogLevel string

	CORSAllowedOrigins  []string
	MaxRequestBodyBytes int64

	ModelDir        string
	OnnxLibraryPath string

	EmbeddingProvider  string
	EmbeddingModel     string
	EmbeddingOnnxFile  string
	EmbeddingRateLimit float64

	EmotionProvider   string
	EmotionModel      string
	EmotionOnnxFile   string
	EmotionActivation string

	TEIEmbedURL    string
	TEIClassifyURL string

	OpenAIAPIKey         string
	OpenAIBaseURL        string
	OpenAIEmbeddingModel string

	KeywordTopN int

	InferenceConcurrency int
	InferenceTimeout     time.Duration

	ValkeyAddress  string
	ValkeyPassword string
	ValkeyTLS      bool
	CacheTTL       time.Duration

	KafkaBroker         string
	KafkaAnalysisTopic  string
	HealthCheckInterval time.Duration
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return value, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return value, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load builds a Config from the environment, applying defaults and
// rejecting combinations the analyzer cannot start with.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("APP_ENV", "dev"),
		Host:     getEnv("HOST", "0.0.0.0"),
		Port:     getEnv("PORT", "5001"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		ModelDir:        getEnv("MODEL_DIR", "./models"),
		OnnxLibraryPath: os.Getenv("ONNX_LIBRARY_PATH"),

		EmbeddingProvider: strings.ToLower(getEnv("EMBEDDING_PROVIDER", EmbeddingProviderONNX)),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "sentence-transformers/all-MiniLM-L6-v2"),
		EmbeddingOnnxFile: getEnv("EMBEDDING_ONNX_FILE", "onnx/model.onnx"),

		EmotionProvider:   strings.ToLower(getEnv("EMOTION_PROVIDER", EmotionProviderONNX)),
		EmotionModel:      getEnv("EMOTION_MODEL", "SamLowe/roberta-base-go_emotions-onnx"),
		EmotionOnnxFile:   getEnv("EMOTION_ONNX_FILE", "onnx/model.onnx"),
		EmotionActivation: strings.ToLower(getEnv("EMOTION_ACTIVATION", EmotionActivationSoftmax)),

		TEIEmbedURL:    os.Getenv("TEI_EMBED_URL"),
		TEIClassifyURL: os.Getenv("TEI_CLASSIFY_URL"),

		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:        os.Getenv("OPENAI_BASE_URL"),
		OpenAIEmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),

		ValkeyAddress:  os.Getenv("VALKEY_INIT_ADDRESS"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
		ValkeyTLS:      os.Getenv("VALKEY_TLS") == "true",

		KafkaBroker:        os.Getenv("KAFKA_BROKER"),
		KafkaAnalysisTopic: getEnv("KAFKA_TOPIC_ANALYSIS_RESULTS", "text-analysis-results"),
	}

	maxBody, err := getEnvAsInt("MAX_REQUEST_BODY_BYTES", 1<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxRequestBodyBytes = int64(maxBody)

	if cfg.EmbeddingRateLimit, err = getEnvAsFloat("EMBEDDING_RATE_LIMIT", 0); err != nil {
		return nil, err
	}
	if cfg.KeywordTopN, err = getEnvAsInt("KEYWORD_TOP_N", 10); err != nil {
		return nil, err
	}
	if cfg.InferenceConcurrency, err = getEnvAsInt("INFERENCE_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.InferenceTimeout, err = getEnvAsDuration("INFERENCE_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getEnvAsDuration("CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.HealthCheckInterval, err = getEnvAsDuration("HEALTHCHECK_INTERVAL", 15*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.KeywordTopN <= 0 {
		return errors.New("KEYWORD_TOP_N must be a positive integer")
	}
	if c.InferenceConcurrency <= 0 {
		return errors.New("INFERENCE_CONCURRENCY must be a positive integer")
	}
	if c.EmbeddingRateLimit < 0 {
		return errors.New("EMBEDDING_RATE_LIMIT must not be negative")
	}

	switch c.EmbeddingProvider {
	case EmbeddingProviderONNX:
	case EmbeddingProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required when EMBEDDING_PROVIDER=openai")
		}
	case EmbeddingProviderTEI:
		if c.TEIEmbedURL == "" {
			return errors.New("TEI_EMBED_URL is required when EMBEDDING_PROVIDER=tei")
		}
	default:
		return fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider)
	}

	switch c.EmotionProvider {
	case EmotionProviderONNX:
	case EmotionProviderTEI:
		if c.TEIClassifyURL == "" {
			return errors.New("TEI_CLASSIFY_URL is required when EMOTION_PROVIDER=tei")
		}
	default:
		return fmt.Errorf("unknown EMOTION_PROVIDER %q", c.EmotionProvider)
	}

	switch c.EmotionActivation {
	case EmotionActivationSoftmax, EmotionActivationSigmoid:
	default:
		return fmt.Errorf("unknown EMOTION_ACTIVATION %q", c.EmotionActivation)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// NeedsONNXSession reports whether any model runs in-process.
func (c *Config) NeedsONNXSession() bool {
	return c.EmbeddingProvider == EmbeddingProviderONNX || c.EmotionProvider == EmotionProviderONNX
}
