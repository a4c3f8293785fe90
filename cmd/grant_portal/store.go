package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonathan/grant-portal/internal/config"
	"github.com/jonathan/grant-portal/internal/db"
	"github.com/jonathan/grant-portal/internal/db/memdb"
	"github.com/jonathan/grant-portal/internal/db/migrations"
	"github.com/jonathan/grant-portal/internal/grants"
	"github.com/jonathan/grant-portal/internal/observability"
	"github.com/jonathan/grant-portal/internal/profile"
	"github.com/jonathan/grant-portal/internal/server"
)

// store is everything the API needs from persistence. Both the PostgreSQL
// and in-memory stores satisfy it.
type store interface {
	server.UserStore
	grants.Store
	profile.Store
	Ping(ctx context.Context) error
	SetUserRole(ctx context.Context, email string, role db.Role) (bool, error)
}

var (
	_ store = (*db.DB)(nil)
	_ store = (*memdb.Store)(nil)
)

// openStore connects to PostgreSQL, migrating first when configured to.
// The returned close func releases the pool.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store, func(), error) {
	database, err := connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := migrations.Up(ctx, database.Pool(), logger); err != nil {
			database.Close()
			return nil, nil, err
		}
	}
	return database, database.Close, nil
}

func connect(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return db.Connect(ctx, cfg.DatabaseURL)
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	return logger, nil
}

// dbEnv is what one-shot database commands run against.
type dbEnv struct {
	db     *db.DB
	logger *slog.Logger
}
