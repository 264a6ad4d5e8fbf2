// SPDX-License-Identifier: MIT

// Package store persists videos and their segment lists in SQLite. It is
// the sole mutable shared state in the process; every mutation goes through
// the transactional contracts in this package.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver
)

// SQLiteConfig defines standard SQLite operational parameters.
type SQLiteConfig struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultSQLiteConfig returns the recommended pool configuration.
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 25,
	}
}

// OpenSQLite initializes a SQLite connection pool with mandatory PRAGMAs.
// The PRAGMAs ride in the DSN so they apply to every connection in the
// pool: WAL for concurrent readers, busy_timeout so writers queue instead
// of failing, foreign_keys for the segments cascade.
func OpenSQLite(path string, cfg SQLiteConfig) (*sql.DB, error) {
	path = strings.TrimPrefix(path, "file:")
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS videos (
	id         TEXT PRIMARY KEY,
	owner_key  TEXT NOT NULL,
	source_path TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_videos_owner_key ON videos(owner_key);

CREATE TABLE IF NOT EXISTS segments (
	video_id TEXT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
	id       INTEGER NOT NULL,
	start_s  REAL NOT NULL CHECK (start_s >= 0),
	end_s    REAL NOT NULL CHECK (end_s > start_s),
	text     TEXT NOT NULL,
	PRIMARY KEY (video_id, id)
);
CREATE INDEX IF NOT EXISTS idx_segments_video_start ON segments(video_id, start_s);
`

// Migrate creates the schema if it does not exist yet.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: migrate failed: %w", err)
	}
	return nil
}
