package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ragstudio/embedgate/internal/config"
	"github.com/ragstudio/embedgate/internal/db"
	dbRedis "github.com/ragstudio/embedgate/internal/db/redis"
	"github.com/ragstudio/embedgate/internal/domain"
	"github.com/ragstudio/embedgate/internal/fallback"
	logpkg "github.com/ragstudio/embedgate/internal/logger"
	"github.com/ragstudio/embedgate/internal/metrics"
	budgetrepo "github.com/ragstudio/embedgate/internal/repository/budget"
	"github.com/ragstudio/embedgate/internal/repository/embcache"
	chiTransport "github.com/ragstudio/embedgate/internal/transport/chi"
	openaiEmb "github.com/ragstudio/embedgate/internal/transport/openai"
	embeddinguc "github.com/ragstudio/embedgate/internal/usecase/embedding"
	gatewayuc "github.com/ragstudio/embedgate/internal/usecase/gateway"
	healthuc "github.com/ragstudio/embedgate/internal/usecase/health"
	rerankuc "github.com/ragstudio/embedgate/internal/usecase/rerank"
	"github.com/ragstudio/embedgate/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting embedgate API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("gateway_mode", cfg.Gateway.Mode),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	// Create the key-value store for embedding cache and budget counters.
	// Driver "none" runs without one: no cache, in-memory budget only.
	var store db.Store
	switch cfg.Cache.Driver {
	case "redis", "valkey":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
	case "none":
		logger.Info("Running without a cache store")
	default:
		logger.Fatal("Unknown cache driver", zap.String("driver", cfg.Cache.Driver))
	}

	ctx := context.Background()
	if store != nil {
		defer store.Close()
		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to cache store")
	}

	// Register gateway metrics explicitly (no init())
	metrics.RegisterGatewayMetrics()

	provCfg := cfg.Embedding.Provider

	// Single BudgetTracker shared by the primary embedding path.
	var budget *embeddinguc.BudgetTracker
	budgetCfg := provCfg.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if budgetCfg.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		budget = embeddinguc.NewBudgetTracker(
			provCfg.Name, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		)
		// Connect persistence — loads current counters from the store.
		if store != nil {
			budgetStore := budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour)
			budget.WithStore(ctx, budgetStore)
		}
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var budgetChecker embeddinguc.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	// Primary path: openai -> cache -> instrumented. Absent entirely when no
	// API key is configured; the gateway then forces fallback_only.
	var primaryEmbedder gatewayuc.Embedder
	var primaryReranker gatewayuc.Reranker
	var providerChecker healthuc.ProviderChecker
	primaryModel := ""
	if provCfg.APIKey != "" {
		primaryModel = provCfg.Model
		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     provCfg.APIKey,
			BaseURL:    provCfg.BaseURL,
			Model:      provCfg.Model,
			Dimensions: provCfg.Dimensions,
			Provider:   provCfg.Name,
			Logger:     logger,
		})
		providerChecker = base

		var embedder domain.Embedder = base
		if store != nil {
			ttl := time.Duration(cfg.Cache.EmbeddingTTLSec) * time.Second
			embedder = embcache.New(base, store, ttl, metrics.EmbeddingCacheTotal, logger)
		}

		instrumented := embeddinguc.NewInstrumentedEmbedder(
			embedder, provCfg.Name, provCfg.Model, budgetChecker, logger,
		)
		primaryEmbedder = instrumented
		primaryReranker = rerankuc.NewCosineReranker(instrumented, provCfg.Name, logger)

		logger.Info("Primary embedder created",
			zap.String("provider", provCfg.Name),
			zap.String("model", provCfg.Model),
			zap.Int("dimensions", provCfg.Dimensions),
		)
	} else {
		logger.Info("No provider API key configured, serving fallback only")
	}

	gateway := gatewayuc.New(
		gatewayuc.Mode(cfg.Gateway.Mode),
		primaryEmbedder, primaryReranker, primaryModel,
		fallback.NewEmbedder(), fallback.NewReranker(), fallback.ModelName,
		logger,
	)

	// Health service: both components optional, fallback always reports ok.
	var storePinger healthuc.StorePinger
	if store != nil {
		storePinger = store
	}
	healthSvc := healthuc.New(storePinger, providerChecker)

	// Create chi server
	server := chiTransport.NewServer(gateway, healthSvc, provCfg.Dimensions, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
