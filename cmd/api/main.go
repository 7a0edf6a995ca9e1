package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/bryanwahyu/decision-ledger/internal/application"
	appscans "github.com/bryanwahyu/decision-ledger/internal/application/scans"
	"github.com/bryanwahyu/decision-ledger/internal/bootstrap"
	"github.com/bryanwahyu/decision-ledger/internal/config"
	"github.com/bryanwahyu/decision-ledger/internal/infra/db/kvstore"
	"github.com/bryanwahyu/decision-ledger/internal/infra/httpserver"
	"github.com/bryanwahyu/decision-ledger/internal/logging"
	"github.com/bryanwahyu/decision-ledger/internal/middleware"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Component:  "api",
		FilePath:   cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer logging.Shutdown()

	ctx := context.Background()

	// connect store
	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("store connect error")
	}
	defer store.Close()

	aiWiring, err := bootstrap.NewAI(cfg, false)
	if err != nil {
		log.Fatal().Err(err).Msg("ai init error")
	}

	metrics := middleware.NewMetrics()

	// init service
	svc := &appscans.Service{
		Repo:      kvstore.NewScanRepository(store.KV),
		Resolved:  kvstore.NewResolvedRepository(store.KV),
		AI:        aiWiring.Service,
		Metrics:   metrics,
		Clock:     application.SystemClock{},
		Currency:  cfg.AI.Currency,
		MaxRows:   cfg.AI.MaxRows,
		MaxTokens: cfg.AI.MaxTokens,
	}

	// init minio
	arts, err := bootstrap.NewArtifacts(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("minio init error")
	}
	if arts != nil {
		svc.Artifacts = arts
	}

	health := map[string]middleware.HealthChecker{}
	if store.DB != nil {
		health["store"] = &middleware.DatabaseHealthChecker{DB: store.DB}
	}
	if aiWiring.Prober != nil {
		health["ai"] = middleware.Optional{HealthChecker: middleware.CheckerFunc(aiWiring.Prober.Ping)}
	}

	handler := httpserver.NewRouter(svc, httpserver.Options{
		APIKey:      cfg.Server.APIKey,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit:   cfg.Server.RateLimit,
		MaxUploadMB: cfg.Server.MaxUploadMB,
		Metrics:     metrics,
		Health:      health,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Info().Str("addr", addr).Str("store", cfg.Store.Driver).Str("ai_mode", cfg.AI.Mode).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
