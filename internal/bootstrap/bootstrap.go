// Package bootstrap builds the adapters named by the config, shared by the
// API server and the CLI.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	appai "github.com/bryanwahyu/decision-ledger/internal/application/ai"
	"github.com/bryanwahyu/decision-ledger/internal/config"
	"github.com/bryanwahyu/decision-ledger/internal/domain/ai"
	"github.com/bryanwahyu/decision-ledger/internal/domain/kv"
	"github.com/bryanwahyu/decision-ledger/internal/infra/ai/demo"
	"github.com/bryanwahyu/decision-ledger/internal/infra/ai/openai"
	"github.com/bryanwahyu/decision-ledger/internal/infra/db/memory"
	mysqlp "github.com/bryanwahyu/decision-ledger/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/decision-ledger/internal/infra/db/postgres"
	sqlitep "github.com/bryanwahyu/decision-ledger/internal/infra/db/sqlite"
	minioStore "github.com/bryanwahyu/decision-ledger/internal/infra/storage"
)

// Store is the opened KV backend. DB is nil for the memory driver.
type Store struct {
	KV kv.Store
	DB *sql.DB
}

func (s Store) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// OpenStore connects the configured driver.
func OpenStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return Store{KV: memory.NewKV()}, nil
	case "sqlite", "":
		db, err := sqlitep.Connect(ctx, cfg.SQLitePath())
		if err != nil {
			return Store{}, fmt.Errorf("sqlite connect: %w", err)
		}
		return Store{KV: sqlitep.NewKVRepository(db), DB: db}, nil
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return Store{}, fmt.Errorf("mysql connect: %w", err)
		}
		return Store{KV: mysqlp.NewKVRepository(db), DB: db}, nil
	case "postgres":
		db, err := pgp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return Store{}, fmt.Errorf("postgres connect: %w", err)
		}
		return Store{KV: pgp.NewKVRepository(db), DB: db}, nil
	}
	return Store{}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// AI wires the live client (when a key is set) and the demo client behind
// one dispatcher. forceDemo overrides the configured mode.
type AI struct {
	Service *appai.Service
	Prober  ai.Prober // nil without a key
}

func NewAI(cfg *config.Config, forceDemo bool) (AI, error) {
	mode, err := ai.ParseMode(cfg.AI.Mode)
	if err != nil {
		return AI{}, err
	}
	if forceDemo {
		mode = ai.ModeDemo
	}

	var live ai.Client
	var prober ai.Prober
	if cfg.AI.APIKey != "" {
		c := openai.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL)
		c.MaxTokens = cfg.AI.MaxTokens
		live, prober = c, c
	} else if mode == ai.ModeLive {
		return AI{}, fmt.Errorf("ai mode live needs LEDGER_OPENAI_API_KEY")
	}

	svc := appai.NewService(live, demo.NewClient(20*time.Millisecond), prober, mode)
	return AI{Service: svc, Prober: prober}, nil
}

// NewArtifacts returns nil when MinIO is disabled.
func NewArtifacts(ctx context.Context, cfg *config.Config) (*minioStore.Store, error) {
	if !cfg.Minio.Enabled {
		return nil, nil
	}
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		return nil, fmt.Errorf("minio init: %w", err)
	}
	if cfg.Minio.Prefix != "" {
		store = store.WithPrefix(cfg.Minio.Prefix)
	}
	log.Info().Str("bucket", cfg.Minio.BucketName).Msg("artifact archive enabled")
	return store, nil
}
