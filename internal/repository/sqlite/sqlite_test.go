package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/vocalcollab/internal/model"
)

// newTestDB opens a fresh in-memory database for one test.
// t.Cleanup closes it when the test (and its subtests) finish.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, PasswordHash: "$2a$04$not-a-real-hash"}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %q: %v", username, err)
	}
	return user
}

func createTestTrack(t *testing.T, db *DB, title string, owner *model.User) *model.Track {
	t.Helper()
	track := &model.Track{
		Title:     title,
		AudioFile: "https://cdn.example.com/audio/" + title + ".mp3",
		Tags:      "demo,test",
	}
	if owner != nil {
		track.UserID = &owner.ID
	}
	if err := db.Tracks().Create(context.Background(), track); err != nil {
		t.Fatalf("failed to create test track %q: %v", title, err)
	}
	return track
}

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}

func TestNew_ForeignKeysEnabled(t *testing.T) {
	db := newTestDB(t)

	var on int
	if err := db.conn.QueryRow(`PRAGMA foreign_keys`).Scan(&on); err != nil {
		t.Fatalf("reading PRAGMA foreign_keys: %v", err)
	}
	if on != 1 {
		t.Errorf("foreign_keys = %d, want 1", on)
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{":memory:", ":memory:"},
		{"file:test.db?mode=ro", "file:test.db?mode=ro"},
		{"data/app.db", "file:data/app.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
	}
	for _, tt := range tests {
		if got := dsn(tt.in); got != tt.want {
			t.Errorf("dsn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
