// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no C compiler, no CGo, and the same
// binary works everywhere Go does. Tests use ":memory:" databases.
//
// DELETION POLICIES:
// The relational rules of the domain live in the schema, not in Go code:
//
//	tracks.user_id     ON DELETE CASCADE   (an account takes its tracks with it)
//	comments.track_id  ON DELETE CASCADE
//	comments.user_id   ON DELETE SET NULL  (comments survive their author)
//	likes.*            ON DELETE CASCADE
//	follows.*          ON DELETE CASCADE
//
// SQLite only honours these when PRAGMA foreign_keys is ON, which New enables.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool. Each entity has its own store type
// (UserDB, TrackDB, ...) sharing the same pool; get them via the accessors.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/vocalcollab.db" → file-based database (persistent)
//   - ":memory:"            → in-memory database (tests)
//
// ONE CONNECTION:
// PRAGMA foreign_keys is per-connection, and every connection to ":memory:"
// opens a brand new empty database. Capping the pool at one connection keeps
// both coherent and serializes writers, which SQLite does anyway.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn adds connection pragmas for file databases so a reconnect keeps them.
func dsn(dbPath string) string {
	if dbPath == ":memory:" || strings.HasPrefix(dbPath, "file:") {
		return dbPath
	}
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Users() *UserDB       { return &UserDB{conn: db.conn} }
func (db *DB) Tracks() *TrackDB     { return &TrackDB{conn: db.conn} }
func (db *DB) Comments() *CommentDB { return &CommentDB{conn: db.conn} }
func (db *DB) Likes() *LikeDB       { return &LikeDB{conn: db.conn} }
func (db *DB) Follows() *FollowDB   { return &FollowDB{conn: db.conn} }

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it safe to run
// on every start.
func (db *DB) migrate() error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				username      TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				date_joined   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`},
		{"tracks", `
			CREATE TABLE IF NOT EXISTS tracks (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				title        TEXT NOT NULL DEFAULT '' CHECK (length(title) <= 100),
				description  TEXT NOT NULL DEFAULT '',
				audio_file   TEXT NOT NULL,
				cover_image  TEXT,
				tags         TEXT NOT NULL,
				created_time DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id      INTEGER REFERENCES users(id) ON DELETE CASCADE
			);
			CREATE INDEX IF NOT EXISTS idx_tracks_created_time ON tracks(created_time);
			CREATE INDEX IF NOT EXISTS idx_tracks_user_id ON tracks(user_id);`},
		{"comments", `
			CREATE TABLE IF NOT EXISTS comments (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				track_id   INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
				user_id    INTEGER REFERENCES users(id) ON DELETE SET NULL,
				content    TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_comments_track_id ON comments(track_id);`},
		{"likes", `
			CREATE TABLE IF NOT EXISTS likes (
				id       INTEGER PRIMARY KEY AUTOINCREMENT,
				track_id INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
				user_id  INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				UNIQUE (track_id, user_id)
			);`},
		{"follows", `
			CREATE TABLE IF NOT EXISTS follows (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				follower_id  INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				following_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (follower_id, following_id)
			);
			CREATE INDEX IF NOT EXISTS idx_follows_following_id ON follows(following_id);`},
	}

	for _, s := range stmts {
		if _, err := db.conn.Exec(s.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", s.name, err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is SQLite rejecting a duplicate
// value for a UNIQUE column or constraint.
func isUniqueViolation(err error) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	// Code() may be the extended code (SQLITE_CONSTRAINT_UNIQUE); the low
	// byte is always the primary code.
	if sqlErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	return strings.Contains(sqlErr.Error(), "UNIQUE")
}

// rowsScanner is the part of *sql.Row and *sql.Rows the scan helpers need.
type rowsScanner interface {
	Scan(dest ...any) error
}
