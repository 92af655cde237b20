package model

import "time"

// Track is an uploaded audio item.
//
// AudioFile and CoverImage hold media references: either an absolute URL the
// client supplied or a key inside the media store. The handler layer turns
// references into retrieval URLs (see media.Resolver).
//
// UserID is a pointer because anonymous uploads are allowed: a nil owner is
// stored as NULL. Username is not a column; the repository fills it from a
// JOIN on users so the owner's display name can be rendered without a
// second query.
type Track struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	AudioFile   string    `db:"audio_file"`
	CoverImage  *string   `db:"cover_image"`
	Tags        string    `db:"tags"` // comma-separated
	CreatedTime time.Time `db:"created_time"`
	UserID      *int64    `db:"user_id"`
	Username    *string   `db:"-"`
}
