package db

import (
	"context"
	"fmt"
)

// MigrationState is the row golang-migrate keeps in schema_migrations
type MigrationState struct {
	Version uint `db:"version"`
	Dirty   bool `db:"dirty"`
}

// GetCurrentVersion returns the applied schema version
func (db *DB) GetCurrentVersion(ctx context.Context) (MigrationState, error) {
	var state MigrationState
	query := `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`

	if err := db.GetContext(ctx, &state, query); err != nil {
		return state, fmt.Errorf("failed to get current version: %w", err)
	}

	return state, nil
}
