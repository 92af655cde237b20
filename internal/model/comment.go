package model

import "time"

// Comment belongs to one Track and, optionally, one User.
// When the author's account is deleted the row survives with UserID = nil.
type Comment struct {
	ID        int64
	TrackID   int64
	UserID    *int64
	Username  *string // filled from a JOIN, nil for anonymous or orphaned comments
	Content   string
	CreatedAt time.Time
}
