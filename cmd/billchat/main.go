package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/civicworks/billchat/internal/chat"
	"github.com/civicworks/billchat/internal/config"
	"github.com/civicworks/billchat/internal/govinfo"
	"github.com/civicworks/billchat/internal/llm"
	"github.com/civicworks/billchat/internal/ratelimit"
	"github.com/civicworks/billchat/internal/retry"
	"github.com/civicworks/billchat/internal/semantic"
	"github.com/civicworks/billchat/internal/telemetry"
	"github.com/civicworks/billchat/internal/tools"
)

var version = "dev"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	flag.Parse()

	logLevel := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load configuration; missing credentials are fatal here, not at first use.
	loader := config.NewLoader(*configDir, logger)
	if err := loader.Load(); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := logLevel.UnmarshalText([]byte(loader.Config().Telemetry.LogLevel)); err != nil {
		logLevel.Set(slog.LevelInfo)
	}

	if err := loader.Watch(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	cfg := loader.Config()
	metrics := telemetry.NewMetrics()

	// Connect to Redis for rate limiting. Unreachable Redis fails open.
	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis not reachable (rate limiting fails open)", "error", err)
			rdb = nil
		} else {
			logger.Info("redis connected")
		}
	}
	limiter := ratelimit.NewLimiter(rdb)

	modelClient := llm.NewClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, &http.Client{})
	govClient := govinfo.NewClient(cfg.GovInfo.BaseURL, cfg.GovInfo.APIKey, cfg.GovInfo.Timeout, &http.Client{})

	registry := tools.NewRegistry()
	if err := tools.RegisterBillTools(registry, govClient); err != nil {
		logger.Error("failed to register bill tools", "error", err)
		os.Exit(1)
	}

	// Semantic search registers only when a database is configured.
	if cfg.Database.Configured() {
		dbPool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()

		if err := dbPool.Ping(context.Background()); err != nil {
			logger.Warn("database not reachable (semantic search disabled)", "error", err)
		} else {
			store := semantic.NewStore(dbPool, modelClient, semantic.Options{
				EmbeddingModel: cfg.OpenAI.EmbeddingModel,
				MatchThreshold: cfg.Semantic.MatchThreshold,
				MatchCount:     cfg.Semantic.MatchCount,
				Policy: retry.Policy{
					MaxRetries:   cfg.Retry.MaxRetries,
					InitialDelay: cfg.Retry.InitialDelay,
					MaxDelay:     cfg.Retry.MaxDelay,
				},
				OnRetry: func() { metrics.RecordRetry("bills") },
			})
			if err := tools.RegisterSemanticSearch(registry, store); err != nil {
				logger.Error("failed to register semantic search", "error", err)
				os.Exit(1)
			}
			logger.Info("semantic search enabled")
		}
	}

	loop := chat.NewLoop(modelClient, registry, cfg.OpenAI.Model, cfg.OpenAI.Temperature, cfg.Chat.MaxToolRounds, metrics)
	handler := chat.NewHandler(loop, loader.Config, metrics)

	quota := func() ratelimit.Quota {
		c := loader.Config()
		return ratelimit.Quota{Max: c.RateLimit.Max, Window: c.RateLimit.Window}
	}

	// Router setup
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)

	r.Get("/healthz", healthHandler)
	r.Get("/api/suggestions", handler.Suggestions)

	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(limiter, quota, metrics))
		r.Post("/api/chat", handler.Chat)
	})

	// Metrics listener on its own port
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Telemetry.MetricsPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics listener failed", "error", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("billchat starting", "addr", addr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("billchat stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": version,
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

func generateRequestID() string {
	now := time.Now()
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("req_%d_%s", now.UnixMilli(), hex.EncodeToString(b))
}
