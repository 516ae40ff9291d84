package storage

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL,
		total_articles     INTEGER NOT NULL DEFAULT 0,
		completed_articles INTEGER NOT NULL DEFAULT 0,
		status             TEXT NOT NULL,
		created_at         TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS articles (
		id               TEXT PRIMARY KEY,
		project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		from_url         TEXT NOT NULL,
		to_url           TEXT NOT NULL,
		main_kw          TEXT NOT NULL,
		order_index      INTEGER NOT NULL,
		html_content     TEXT,
		status           TEXT NOT NULL,
		analysis_results TEXT,
		processing_time  DOUBLE PRECISION,
		created_at       TEXT NOT NULL,
		UNIQUE (project_id, order_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_project_status ON articles (project_id, status)`,
}

// Migrate creates the tables when they do not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.run.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
