package migrations

import (
	"context"

	"kraken-tools/internal/storage/postgres"
)

// RunPostgresMigrations applies every embedded file as a single
// simple-protocol Exec, which pgx allows to carry several statements.
// Files use IF NOT EXISTS so reruns are harmless.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	return apply(ctx, PostgresFS, "postgres", func(ctx context.Context, m Migration) error {
		_, err := pool.Exec(ctx, m.SQL)
		return err
	})
}
