package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database and runs migrations.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer, many readers.
	conn.SetMaxOpenConns(1)

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they do not exist.
func migrate(conn *sql.DB) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS players (
		id                TEXT PRIMARY KEY,
		handle            TEXT UNIQUE NOT NULL,
		display_name      TEXT NOT NULL DEFAULT '',
		signup_complete   INTEGER NOT NULL DEFAULT 0,
		game_mode         TEXT NOT NULL DEFAULT 'regular',
		max_giftees       INTEGER NOT NULL DEFAULT 1,
		giftee_count      INTEGER NOT NULL DEFAULT 0,
		giftee_for_count  INTEGER NOT NULL DEFAULT 0,
		capacity_status   TEXT NOT NULL DEFAULT 'can_have_more',
		recent_post_count INTEGER NOT NULL DEFAULT 0,
		created_at        DATETIME NOT NULL,
		updated_at        DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_players_capacity_status ON players(capacity_status);
	CREATE INDEX IF NOT EXISTS idx_players_signup_complete ON players(signup_complete);

	CREATE TABLE IF NOT EXISTS matches (
		id             TEXT PRIMARY KEY,
		santa_id       TEXT NOT NULL REFERENCES players(id),
		giftee_id      TEXT NOT NULL REFERENCES players(id),
		status         TEXT NOT NULL DEFAULT 'draft',
		super_santa    INTEGER NOT NULL DEFAULT 0,
		invalid_player INTEGER NOT NULL DEFAULT 0,
		followup       TEXT NOT NULL DEFAULT '',
		deactivated_at DATETIME,
		contacted_at   DATETIME,
		created_at     DATETIME NOT NULL,
		updated_at     DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(status);
	CREATE INDEX IF NOT EXISTS idx_matches_santa_id ON matches(santa_id);
	CREATE INDEX IF NOT EXISTS idx_matches_giftee_id ON matches(giftee_id);
	CREATE INDEX IF NOT EXISTS idx_matches_deactivated_at ON matches(deactivated_at);
	`
	_, err := conn.Exec(ddl)
	return err
}
