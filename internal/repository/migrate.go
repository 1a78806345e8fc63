package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

// Tables are keyed by generated ids and reference each other by string only;
// referential integrity is kept by the application.
func schema(d string) []string {
	ts := "TIMESTAMP"
	if d == dialect.Postgres {
		ts = "TIMESTAMPTZ"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS media (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			file_path TEXT NOT NULL,
			media_kind TEXT NOT NULL,
			status TEXT NOT NULL,
			content_type TEXT NOT NULL DEFAULT '',
			export_formats TEXT NOT NULL DEFAULT '[]',
			error_message TEXT,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transcripts (
			id TEXT PRIMARY KEY,
			media_id TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			raw_text TEXT NOT NULL,
			refined_text TEXT NOT NULL,
			segments TEXT NOT NULL DEFAULT '[]',
			language TEXT NOT NULL DEFAULT '',
			visual_context TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS transcripts_media_id ON transcripts (media_id)`,
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			transcript_id TEXT NOT NULL,
			media_id TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			content_type TEXT NOT NULL,
			generation_params TEXT NOT NULL DEFAULT '{}',
			status TEXT NOT NULL,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS notes_media_id ON notes (media_id)`,
		`CREATE TABLE IF NOT EXISTS exports (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			note_id TEXT NOT NULL,
			format TEXT NOT NULL,
			file_path TEXT NOT NULL,
			file_size BIGINT NOT NULL,
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS exports_note_id ON exports (note_id)`,
		`CREATE INDEX IF NOT EXISTS exports_file_path ON exports (file_path)`,
	}
}

// Migrate creates the tables when missing. It is safe to run on every start.
func Migrate(ctx context.Context, d *DB) error {
	for _, stmt := range schema(d.Dialect) {
		if _, err := d.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", dbErr(err))
		}
	}
	return nil
}
