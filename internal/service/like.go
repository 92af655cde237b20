package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/vocalcollab/internal/apperror"
	"github.com/sakif/vocalcollab/internal/model"
	"github.com/sakif/vocalcollab/internal/repository"
)

// LikeService records likes. There is no unlike.
type LikeService struct {
	likes  repository.LikeRepository
	tracks repository.TrackRepository
	logger *slog.Logger
}

func NewLikeService(likes repository.LikeRepository, tracks repository.TrackRepository, logger *slog.Logger) *LikeService {
	return &LikeService{
		likes:  likes,
		tracks: tracks,
		logger: logger,
	}
}

// Like records that caller likes the track.
//
// WHY NOT CHECK FIRST?
// "SELECT, then INSERT if absent" has a race: two concurrent requests can
// both see no row. Inserting and letting the UNIQUE(track_id, user_id)
// constraint reject the second one is correct under any interleaving.
func (s *LikeService) Like(ctx context.Context, caller *model.User, trackID int64) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if _, err := s.tracks.GetByID(ctx, trackID); err != nil {
		return err
	}

	err := s.likes.Create(ctx, &model.Like{TrackID: trackID, UserID: caller.ID})
	if errors.Is(err, repository.ErrDuplicate) {
		return apperror.Conflict("", "You already liked this track.")
	}
	if err != nil {
		return fmt.Errorf("liking track %d: %w", trackID, err)
	}

	s.logger.Info("track liked",
		slog.Int64("track_id", trackID),
		slog.String("by", caller.Username),
	)
	return nil
}

// Count returns how many users like the track.
func (s *LikeService) Count(ctx context.Context, trackID int64) (int, error) {
	if _, err := s.tracks.GetByID(ctx, trackID); err != nil {
		return 0, err
	}
	return s.likes.Count(ctx, trackID)
}
