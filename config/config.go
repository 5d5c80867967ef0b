package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Polyglot TTS API
	BaseURL        string
	MaxWait        time.Duration // default: 5400s
	RequestTimeout time.Duration // per submit/status call, default: 60s
	OutputDir      string        // default: "."

	// Gateway
	Port string // default: 8080

	// Cache
	RedisAddr string // optional, enables submission rate limiting

	// Rate Limiting
	SubmitRateLimitCPM int64 // characters per minute per client, default: 20000

	// Observability
	OTELExporterType     string // "none", "stdout" or "otlp"
	OTELExporterEndpoint string // default: "localhost:4317"
	LogLevel             string
}

func Load() (*Config, error) {
	// Load .env file if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		BaseURL:              strings.TrimRight(os.Getenv("TTS_BASE_URL"), "/"),
		OutputDir:            getEnv("TTS_OUTPUT_DIR", "."),
		Port:                 getEnv("PORT", "8080"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		OTELExporterType:     getEnv("OTEL_EXPORTER_TYPE", "none"),
		OTELExporterEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}

	maxWait, err := getSeconds("TTS_MAX_WAIT_SECONDS", 5400)
	if err != nil {
		return nil, err
	}
	cfg.MaxWait = maxWait

	timeout, err := getSeconds("TTS_HTTP_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout = timeout

	cpmStr := getEnv("SUBMIT_RATE_LIMIT_CPM", "20000")
	cpm, err := strconv.ParseInt(cpmStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SUBMIT_RATE_LIMIT_CPM: %w", err)
	}
	cfg.SubmitRateLimitCPM = cpm

	// Validation
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("TTS_BASE_URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("TTS_BASE_URL must be an absolute URL, got %q", cfg.BaseURL)
	}
	switch cfg.OTELExporterType {
	case "none", "stdout", "otlp":
	default:
		return nil, fmt.Errorf("invalid OTEL_EXPORTER_TYPE %q", cfg.OTELExporterType)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSeconds(key string, fallback int) (time.Duration, error) {
	s := getEnv(key, strconv.Itoa(fallback))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return time.Duration(n) * time.Second, nil
}
