package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/vocalcollab/internal/apperror"
	"github.com/sakif/vocalcollab/internal/model"
	"github.com/sakif/vocalcollab/internal/repository"
)

func TestTrackCreate(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice")

	cover := "covers/abc.png"
	track := &model.Track{
		Title:       "Demo",
		Description: "first take",
		AudioFile:   "audio/abc.mp3",
		CoverImage:  &cover,
		Tags:        "rock,demo",
		UserID:      &owner.ID,
	}
	if err := db.Tracks().Create(context.Background(), track); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if track.ID == 0 {
		t.Error("Create() did not set track.ID")
	}
	if track.CreatedTime.IsZero() {
		t.Error("Create() did not set track.CreatedTime")
	}

	found, err := db.Tracks().GetByID(context.Background(), track.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Username == nil || *found.Username != "alice" {
		t.Errorf("Username = %v, want alice", found.Username)
	}
	if found.CoverImage == nil || *found.CoverImage != cover {
		t.Errorf("CoverImage = %v, want %q", found.CoverImage, cover)
	}
	if found.Tags != "rock,demo" {
		t.Errorf("Tags = %q, want %q", found.Tags, "rock,demo")
	}
}

func TestTrackCreate_Anonymous(t *testing.T) {
	db := newTestDB(t)
	track := createTestTrack(t, db, "anon", nil)

	found, err := db.Tracks().GetByID(context.Background(), track.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.UserID != nil || found.Username != nil {
		t.Errorf("anonymous track has owner %v/%v, want nil", found.UserID, found.Username)
	}
	if found.CoverImage != nil {
		t.Errorf("CoverImage = %q, want nil", *found.CoverImage)
	}
}

func TestTrackCreate_TitleTooLongRejectedBySchema(t *testing.T) {
	db := newTestDB(t)
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	err := db.Tracks().Create(context.Background(), &model.Track{
		Title: string(long), AudioFile: "a.mp3", Tags: "x",
	})
	if err == nil {
		t.Fatal("Create() should fail the title length CHECK")
	}
}

func TestTrackGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Tracks().GetByID(context.Background(), 404)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

// TestTrackList_NewestFirst: a track created before another appears after it.
func TestTrackList_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	first := createTestTrack(t, db, "first", nil)
	second := createTestTrack(t, db, "second", nil)
	third := createTestTrack(t, db, "third", nil)

	tracks, err := db.Tracks().List(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("List() returned %d tracks, want 3", len(tracks))
	}
	wantOrder := []int64{third.ID, second.ID, first.ID}
	for i, want := range wantOrder {
		if tracks[i].ID != want {
			t.Errorf("tracks[%d].ID = %d, want %d", i, tracks[i].ID, want)
		}
	}
}

func TestTrackList_Pagination(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 5; i++ {
		createTestTrack(t, db, "t", nil)
	}

	page, err := db.Tracks().List(context.Background(), repository.ListOptions{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page) != 1 {
		t.Errorf("last page has %d items, want 1", len(page))
	}
}

func TestTrackListByUsername(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	createTestTrack(t, db, "a1", alice)
	createTestTrack(t, db, "b1", bob)
	a2 := createTestTrack(t, db, "a2", alice)

	tracks, err := db.Tracks().ListByUsername(context.Background(), "alice", repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListByUsername() error = %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("ListByUsername() returned %d tracks, want 2", len(tracks))
	}
	if tracks[0].ID != a2.ID {
		t.Errorf("newest track first: got id %d, want %d", tracks[0].ID, a2.ID)
	}

	none, err := db.Tracks().ListByUsername(context.Background(), "ghost", repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListByUsername(ghost) error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListByUsername(ghost) returned %d tracks, want 0", len(none))
	}
}
