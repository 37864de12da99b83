package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/schema.sql
var schemaSQL string

const schemaVersion = 1

// Migrate applies the embedded schema. Every statement is idempotent, so it
// runs on each start; the version row records when it was first applied.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	return NewTransactor(pool).WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO schema_version (version) VALUES ($1) ON CONFLICT (version) DO NOTHING`,
			schemaVersion,
		)
		if err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	})
}
