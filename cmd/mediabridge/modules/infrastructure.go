package modules

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"

	"github.com/mediabridge/mediabridge/internal/boot"
	"github.com/mediabridge/mediabridge/internal/config"
	"github.com/mediabridge/mediabridge/internal/db"
	"github.com/mediabridge/mediabridge/internal/logger"
	"github.com/mediabridge/mediabridge/internal/storage"
	"github.com/mediabridge/mediabridge/internal/storage/localfs"
)

var InfraModule = fx.Module(
	"infra",
	fx.Provide(
		provideConfig,
		provideLogger,
		boot.ProvideRuntimeConfig,
		provideDBConn,
		fx.Annotate(provideStorage, fx.As(new(storage.Provider))),
	),
)

// ---------------------------------------------------------------------------
// infrastructure providers
// ---------------------------------------------------------------------------

func provideConfig(path ConfigPath) (config.Config, error) {
	cfg, err := config.Load(string(path))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideStorage(rc *boot.RuntimeConfig, cfg config.Config) (*localfs.Provider, error) {
	provider, err := localfs.New(rc.StorageRoot, cfg.Storage.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return provider, nil
}
