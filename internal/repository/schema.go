package repository

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis;`,
	`CREATE TABLE IF NOT EXISTS sitters (
		id                 BIGSERIAL PRIMARY KEY,
		title              TEXT NOT NULL DEFAULT '',
		address            TEXT,
		city               TEXT,
		available          BOOLEAN NOT NULL DEFAULT true,
		location           geometry(Point, 4326),
		geocoding_attempts INTEGER NOT NULL DEFAULT 0,
		geocoding_error    TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS sitters_location_gix ON sitters USING GIST ((location::geography));`,
}

// EnsureSchema creates the sitters table and its spatial index when they are missing.
// It is safe to call on every start.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	r.log.InfoContext(ctx, "Database schema is up to date")

	return nil
}
