// Package migrations embeds the SQL schema and applies it with goose.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// FS holds the embedded migration files.
//
//go:embed *.sql
var FS embed.FS

func setup(logger *slog.Logger) error {
	goose.SetBaseFS(FS)
	goose.SetLogger(&slogAdapter{logger: logger})
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// Up applies all pending migrations through a database/sql handle borrowed
// from the pool.
func Up(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	if err := setup(logger); err != nil {
		return err
	}
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Status logs the applied state of every migration.
func Status(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	if err := setup(logger); err != nil {
		return err
	}
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	if err := goose.StatusContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	return nil
}

// slogAdapter routes goose output through slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Printf(format string, v ...interface{}) {
	a.logger.Info(fmt.Sprintf(format, v...), slog.String("component", "migrations"))
}

func (a *slogAdapter) Fatalf(format string, v ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, v...), slog.String("component", "migrations"))
}
