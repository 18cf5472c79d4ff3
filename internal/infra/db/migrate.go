package db

import (
	"database/sql"
	"fmt"
)

// postgresSchema creates the article store. Tags and aliases are TEXT[] so
// alias lookups can use a GIN index.
var postgresSchema = []string{`
CREATE TABLE IF NOT EXISTS articles (
    channel_id   TEXT NOT NULL,
    slug         TEXT NOT NULL,
    title        TEXT NOT NULL DEFAULT '',
    content      TEXT NOT NULL DEFAULT '',
    excerpt      TEXT NOT NULL DEFAULT '',
    author       TEXT NOT NULL DEFAULT '',
    category     TEXT NOT NULL DEFAULT '',
    tags         TEXT[] NOT NULL DEFAULT '{}',
    aliases      TEXT[] NOT NULL DEFAULT '{}',
    image        TEXT NOT NULL DEFAULT '',
    image_alt    TEXT NOT NULL DEFAULT '',
    featured     BOOLEAN NOT NULL DEFAULT FALSE,
    status       TEXT NOT NULL DEFAULT 'published',
    source_name  TEXT NOT NULL DEFAULT '',
    published_at TIMESTAMPTZ NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (channel_id, slug),
    CONSTRAINT chk_articles_status CHECK (status IN ('draft', 'published'))
)`,
	// listing order within a channel
	`CREATE INDEX IF NOT EXISTS idx_articles_channel_published ON articles(channel_id, published_at DESC, slug)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_channel_category ON articles(channel_id, lower(category))`,
	`CREATE INDEX IF NOT EXISTS idx_articles_aliases ON articles USING gin(aliases)`,
}

// postgresSearchIndexes need pg_trgm. They speed up ILIKE search and are
// skipped when the extension is not available.
var postgresSearchIndexes = []string{
	`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
	`CREATE INDEX IF NOT EXISTS idx_articles_title_trgm ON articles USING gin(title gin_trgm_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_excerpt_trgm ON articles USING gin(excerpt gin_trgm_ops)`,
}

// sqliteSchema mirrors postgresSchema. Tags and aliases are JSON arrays.
var sqliteSchema = []string{`
CREATE TABLE IF NOT EXISTS articles (
    channel_id   TEXT NOT NULL,
    slug         TEXT NOT NULL,
    title        TEXT NOT NULL DEFAULT '',
    content      TEXT NOT NULL DEFAULT '',
    excerpt      TEXT NOT NULL DEFAULT '',
    author       TEXT NOT NULL DEFAULT '',
    category     TEXT NOT NULL DEFAULT '',
    tags         TEXT NOT NULL DEFAULT '[]',
    aliases      TEXT NOT NULL DEFAULT '[]',
    image        TEXT NOT NULL DEFAULT '',
    image_alt    TEXT NOT NULL DEFAULT '',
    featured     BOOLEAN NOT NULL DEFAULT 0,
    status       TEXT NOT NULL DEFAULT 'published' CHECK (status IN ('draft', 'published')),
    source_name  TEXT NOT NULL DEFAULT '',
    published_at TIMESTAMP NOT NULL,
    created_at   TIMESTAMP NOT NULL,
    updated_at   TIMESTAMP NOT NULL,
    PRIMARY KEY (channel_id, slug)
)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_channel_published ON articles(channel_id, published_at DESC, slug)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_channel_category ON articles(channel_id, category)`,
}

// MigrateUp creates the schema for driver. It is idempotent.
func MigrateUp(db *sql.DB, driver string) error {
	switch driver {
	case DriverPostgres:
		for _, stmt := range postgresSchema {
			if _, err := db.Exec(stmt); err != nil {
				return err
			}
		}
		for _, stmt := range postgresSearchIndexes {
			// pg_trgm may be missing or require superuser; search still works without it.
			_, _ = db.Exec(stmt)
		}
		return nil
	case DriverSQLite:
		for _, stmt := range sqliteSchema {
			if _, err := db.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("migrate: %w: %q", ErrUnsupportedDriver, driver)
	}
}

// MigrateDown drops the article store. Use with caution: all articles are lost.
func MigrateDown(db *sql.DB) error {
	_, err := db.Exec(`DROP TABLE IF EXISTS articles`)
	return err
}
