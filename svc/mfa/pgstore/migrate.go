package pgstore

import (
	"context"
	"embed"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/mfakit/pkg/pg"
)

// Migrations holds the schema of every table the store uses.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Migrate applies the embedded migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, Migrations, "migrations", cfg, log)
}
