package database

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateGINIndexes creates full-text search GIN indexes for PostgreSQL.
// These indexes enable efficient full-text search on the run's serialized
// result payload and source descriptor.
func CreateGINIndexes(ctx context.Context, db *sql.DB) error {
	// GIN index for result-payload full-text search
	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_evaluation_runs_result_gin
		ON evaluation_runs USING gin(to_tsvector('english', result_json))`)
	if err != nil {
		return fmt.Errorf("failed to create result_json GIN index: %w", err)
	}

	// GIN index for source-descriptor full-text search
	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_evaluation_runs_source_gin
		ON evaluation_runs USING gin(to_tsvector('english', COALESCE(source_descriptor, '')))`)
	if err != nil {
		return fmt.Errorf("failed to create source_descriptor GIN index: %w", err)
	}

	return nil
}
