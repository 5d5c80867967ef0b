package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/vnmchuo/polyglot-tts/config"
	"github.com/vnmchuo/polyglot-tts/internal/lifecycle"
	"github.com/vnmchuo/polyglot-tts/internal/log"
	"github.com/vnmchuo/polyglot-tts/internal/polyglot"
	"github.com/vnmchuo/polyglot-tts/internal/server"
	"github.com/vnmchuo/polyglot-tts/internal/telemetry"
	"github.com/vnmchuo/polyglot-tts/pkg/ratelimit"
)

var version = "dev"

func main() {
	log.Configure(log.Config{Level: os.Getenv("LOG_LEVEL"), Service: "polyglot-tts-gateway"})
	logger := log.WithComponent("main")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// 2. Init telemetry
	shutdownTracer, err := telemetry.InitTracer("polyglot-tts-gateway", version, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init tracer")
	}
	defer shutdownTracer()

	// 3. Connect Redis (optional)
	var limiter *ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Msg("failed to ping redis")
		}
		limiter = ratelimit.NewLimiter(rdb, cfg.SubmitRateLimitCPM)
		logger.Info().Str("addr", cfg.RedisAddr).Int64("chars_per_minute", cfg.SubmitRateLimitCPM).Msg("submission rate limiting enabled")
	}

	// 4. Init Polyglot client and runner
	client := polyglot.New(polyglot.Options{
		BaseURL:        cfg.BaseURL,
		OutputDir:      cfg.OutputDir,
		RequestTimeout: cfg.RequestTimeout,
	})
	tracer := otel.GetTracerProvider().Tracer("polyglot-tts")
	runner := lifecycle.NewRunner(client, cfg.MaxWait, tracer)

	// 5. Init router
	handler := server.NewHandler(runner, client, limiter)
	router := server.NewRouter(handler)

	// 6. Graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, "gateway"),
		ReadHeaderTimeout: 10 * time.Second,
		// Jobs stream progress for up to the poll ceiling.
		WriteTimeout: cfg.MaxWait + 5*time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info().Str("port", cfg.Port).Str("base_url", cfg.BaseURL).Msg("Polyglot TTS gateway starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-quit
	logger.Info().Msg("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return
	}
	logger.Info().Msg("Server stopped")
}
