package repository

import (
	"context"
	"embed"
	"fmt"
	"time"

	"auction-house/utils"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const connectRetries = 5

// ConnectPostgres opens a pgx pool and waits until the database answers a ping
func ConnectPostgres(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("repository: create pool: %w", err)
	}

	for attempt := 1; attempt <= connectRetries; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			utils.Info("database connection established", map[string]any{"attempt": attempt})
			return pool, nil
		}

		wait := time.Duration(attempt) * 200 * time.Millisecond
		utils.Warn("database ping failed, retrying", map[string]any{
			"attempt":      attempt,
			"max_attempts": connectRetries,
			"wait":         wait.String(),
			"error":        err.Error(),
		})
		if attempt < connectRetries {
			select {
			case <-ctx.Done():
				pool.Close()
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	pool.Close()
	return nil, fmt.Errorf("repository: database unreachable after %d attempts: %w", connectRetries, err)
}

// RunMigrations applies the embedded schema migrations
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("repository: set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("repository: apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		utils.Warn("could not determine migration version", map[string]any{"error": err.Error()})
		return nil
	}
	utils.Info("database migrations applied", map[string]any{"version": version})
	return nil
}
