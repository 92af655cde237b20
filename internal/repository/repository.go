// Package repository declares the storage interfaces the service layer
// depends on. internal/repository/sqlite provides the implementation.
package repository

import (
	"context"
	"errors"

	"github.com/sakif/vocalcollab/internal/model"
)

// ErrDuplicate is returned when an insert violates a UNIQUE constraint.
// Services translate it into a user-facing apperror.Conflict.
var ErrDuplicate = errors.New("duplicate key")

// ListOptions bounds a list query. A zero Limit means "no limit".
type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Delete(ctx context.Context, id int64) error
}

type TrackRepository interface {
	Create(ctx context.Context, track *model.Track) error
	GetByID(ctx context.Context, id int64) (*model.Track, error)
	List(ctx context.Context, opts ListOptions) ([]model.Track, error)
	ListByUsername(ctx context.Context, username string, opts ListOptions) ([]model.Track, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id int64) (*model.Comment, error)
	ListByTrack(ctx context.Context, trackID int64) ([]model.Comment, error)
	Delete(ctx context.Context, id int64) error
}

type LikeRepository interface {
	// Create returns ErrDuplicate when the (track, user) pair already exists.
	Create(ctx context.Context, like *model.Like) error
	Count(ctx context.Context, trackID int64) (int, error)
}

type FollowRepository interface {
	// Toggle removes the follower→following edge if it exists and creates it
	// otherwise, atomically. It reports the resulting state; when the edge
	// was created the new Follow is returned as well.
	Toggle(ctx context.Context, followerID, followingID int64) (following bool, follow *model.Follow, err error)
	Exists(ctx context.Context, followerID, followingID int64) (bool, error)
	ListFollowers(ctx context.Context, userID int64) ([]model.UserBrief, error)
	ListFollowing(ctx context.Context, userID int64) ([]model.UserBrief, error)
}
