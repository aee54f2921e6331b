package store

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    author TEXT NOT NULL,
    author_fullname TEXT,
    content TEXT NOT NULL,
    created_at TEXT,
    url TEXT,
    platform TEXT DEFAULT 'X',
    likes INTEGER DEFAULT 0,
    retweets INTEGER DEFAULT 0,
    replies INTEGER DEFAULT 0,
    quotes INTEGER DEFAULT 0,
    referenced_urls TEXT,
    media_urls TEXT,
    link_excerpt TEXT,
    rank_score REAL,
    rank_reason TEXT,
    report_id TEXT,
    collected_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS reports (
    id TEXT PRIMARY KEY,
    date TEXT NOT NULL,
    title TEXT,
    analysis TEXT,
    summary TEXT,
    trends TEXT,
    post_count INTEGER DEFAULT 0,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_posts_report ON posts(report_id);
CREATE INDEX IF NOT EXISTS idx_posts_collected ON posts(collected_at);
CREATE INDEX IF NOT EXISTS idx_reports_date ON reports(date);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
