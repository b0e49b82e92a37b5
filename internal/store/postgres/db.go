package postgres

import (
	"context"
	_ "embed"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schema string

// MustOpen connects the purchase store and applies the idempotent schema.
// There is no degraded mode without the transaction ledger, so any failure
// here aborts boot.
func MustOpen(ctx context.Context, dsn string) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("purchase store connect failed")
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("purchase store unreachable")
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatal().Err(err).Msg("purchase store schema apply failed")
	}
	log.Info().Msg("purchase store ready")
	return pool
}
