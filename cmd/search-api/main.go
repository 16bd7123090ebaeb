// cmd/search-api/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"amlak-search/internal/common/auth"
	"amlak-search/internal/common/config"
	"amlak-search/internal/common/database"
	"amlak-search/internal/common/logger"
	"amlak-search/internal/common/observability"
	"amlak-search/internal/httpapi"
	"amlak-search/internal/search/backend"
	"amlak-search/internal/search/cache"
	"amlak-search/internal/search/orchestrator"
	"amlak-search/internal/search/suggest"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting search API...",
		zap.String("environment", cfg.App.Environment),
		zap.String("index", cfg.Search.Index),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	// --- Elasticsearch with retry ---
	var es *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return es.Ping()
	}, 10, 2*time.Second, zapLog, "Elasticsearch initialization")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	client := backend.NewESClient(es.Client, cfg.Search.Index, log)

	// --- Redis suggestion cache, optional ---
	var suggestionCache suggest.Cache
	if cfg.Search.SuggestionCacheTTL > 0 {
		redisClient, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			zapLog.Warn("redis init failed, suggestions run uncached", zap.Error(err))
		} else {
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			if err := redisClient.Ping(pingCtx); err != nil {
				zapLog.Warn("redis unreachable, suggestions run uncached", zap.Error(err))
			} else {
				defer redisClient.Close()
				ttl := time.Duration(cfg.Search.SuggestionCacheTTL) * time.Second
				suggestionCache = cache.NewSuggestionCache(redisClient.Client, ttl, log)
				zapLog.Info("Redis suggestion cache enabled", zap.Duration("ttl", ttl))
			}
			cancel()
		}
	}

	engine := suggest.NewEngine(client, suggestionCache, suggest.Config{
		MaxSuggestions:  cfg.Search.MaxSuggestions,
		FanoutTimeout:   time.Duration(cfg.Search.SuggestionTimeout) * time.Millisecond,
		DefaultLocation: cfg.Search.DefaultLocation,
	}, log)

	orch := orchestrator.New(client, backend.SearchOptions{
		Timeout:    time.Duration(cfg.Search.SearchTimeout) * time.Millisecond,
		MaxRetries: cfg.Search.MaxRetries,
	}, log)

	var sessions auth.SessionProvider = auth.AllowAll{}
	if cfg.Auth.Enabled {
		sessions = auth.NewIntrospectClient(cfg.Auth.IntrospectURL, time.Duration(cfg.Auth.Timeout)*time.Millisecond)
		zapLog.Info("session introspection enabled", zap.String("url", cfg.Auth.IntrospectURL))
	}

	api := httpapi.NewServer(orch, engine, sessions, obs, log)

	// Prometheus scrape endpoint on its own port
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Metrics server listening on :9090")
		if err := http.ListenAndServe(":9090", mux); err != nil && err != http.ErrServerClosed {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("Search API listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	zapLog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("Search API stopped")
}
