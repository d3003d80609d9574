package database

import (
	"context"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id   TEXT PRIMARY KEY,
		name VARCHAR(128) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id      TEXT PRIMARY KEY,
		key     VARCHAR(128) NOT NULL UNIQUE,
		team_id TEXT NOT NULL REFERENCES teams (id)
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id             TEXT PRIMARY KEY,
		team_id        TEXT NOT NULL REFERENCES teams (id),
		author_name    VARCHAR(128) NOT NULL,
		content        TEXT NOT NULL,
		tags           TEXT[] NOT NULL DEFAULT '{}',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		parent_post_id TEXT,
		deleted        BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_team_live
		ON posts (team_id, deleted, created_at DESC)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id      TEXT PRIMARY KEY,
		key     TEXT NOT NULL UNIQUE,
		team_id TEXT NOT NULL REFERENCES teams (id)
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id             TEXT PRIMARY KEY,
		team_id        TEXT NOT NULL REFERENCES teams (id),
		author_name    TEXT NOT NULL,
		content        TEXT NOT NULL,
		tags           TEXT NOT NULL DEFAULT '[]',
		created_at     INTEGER NOT NULL,
		parent_post_id TEXT,
		deleted        INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_team_live
		ON posts (team_id, deleted, created_at DESC)`,
}

// Migrate creates any missing tables and indexes. It is safe to run on every
// start.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range db.schema() {
		if err := db.exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

func (db *DB) schema() []string {
	if db.driver == DriverPostgres {
		return postgresSchema
	}
	return sqliteSchema
}

func (db *DB) exec(ctx context.Context, stmt string) error {
	if db.pool != nil {
		_, err := db.pool.Exec(ctx, stmt)
		return err
	}
	_, err := db.sqlDB.ExecContext(ctx, stmt)
	return err
}
