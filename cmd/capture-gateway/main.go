// Command capture-gateway serves the incomplete-order capture API: the
// persistence backend for storefront abandoned-checkout capture.
package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/brightbasket/capture/pkg/api"
	"github.com/brightbasket/capture/pkg/config"
	"github.com/brightbasket/capture/pkg/observability"
	"github.com/brightbasket/capture/pkg/record"
	"github.com/brightbasket/capture/pkg/session"
)

func main() {
	cfg := config.Load()

	logger := observability.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if name := os.Getenv("CAPTURE_PROFILE"); name != "" {
		profile, err := config.LoadProfile(envOr("CAPTURE_PROFILES_DIR", "profiles"), name)
		if err != nil {
			log.Fatalf("failed to load capture profile: %v", err)
		}
		profile.Apply(cfg)
		logger.Info("capture profile applied", "profile", profile.Name)
	}

	store, closeDB, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open record store: %v", err)
	}
	defer closeDB()

	metrics, err := observability.NewMetrics(nil)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	sessions := openSessionKV(cfg, logger)
	settings := api.Settings{
		DebounceWindow: cfg.DebounceWindow,
		BeaconEndpoint: cfg.BeaconEndpoint,
	}
	svc, err := api.NewService(store, sessions, settings, logger, metrics)
	if err != nil {
		log.Fatalf("failed to build capture service: %v", err)
	}

	limiter := api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	handler := svc.Routes([]byte(cfg.TriageJWTSecret), limiter)

	mux := http.NewServeMux()
	mux.Handle("/v1/captures", handler)
	mux.Handle("/v1/captures/", handler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("capture gateway listening", "addr", server.Addr, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// openStore selects the record backend from configuration.
func openStore(cfg *config.Config) (record.Store, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		return record.NewMemoryStore(), func() {}, nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(context.Background()); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return record.NewPostgresStore(db), func() { _ = db.Close() }, nil
	default: // sqlite
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, err := record.NewSQLiteStore(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil
	}
}

// openSessionKV selects where server-held session identifiers live: Redis
// when configured (multi-node storefronts), process memory otherwise.
func openSessionKV(cfg *config.Config, logger *slog.Logger) session.KV {
	if cfg.RedisAddr != "" {
		logger.Info("session identifiers held in redis", "addr", cfg.RedisAddr)
		return session.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}
	return session.NewMemory()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
