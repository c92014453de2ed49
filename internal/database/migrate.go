package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
)

//go:embed schema/schema.sql
var schemaSQL string

// Migrate applies the embedded idempotent schema. Every statement uses
// IF NOT EXISTS, so running it against an up-to-date store is a no-op.
func (db *DB) Migrate(ctx context.Context) error {
	slog.Info("applying database schema")
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	slog.Info("database schema applied")
	return nil
}
