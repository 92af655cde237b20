package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/vocalcollab/internal/model"
	"github.com/sakif/vocalcollab/internal/repository"
)

// CommentService handles comments on tracks.
type CommentService struct {
	comments repository.CommentRepository
	tracks   repository.TrackRepository
	logger   *slog.Logger
}

func NewCommentService(comments repository.CommentRepository, tracks repository.TrackRepository, logger *slog.Logger) *CommentService {
	return &CommentService{
		comments: comments,
		tracks:   tracks,
		logger:   logger,
	}
}

// List returns a track's comments, newest first. An unknown track simply
// has no comments.
func (s *CommentService) List(ctx context.Context, trackID int64) ([]model.Comment, error) {
	comments, err := s.comments.ListByTrack(ctx, trackID)
	if err != nil {
		return nil, fmt.Errorf("listing comments of track %d: %w", trackID, err)
	}
	return comments, nil
}

// Create adds a comment to an existing track. Anonymous comments are
// allowed; blank content is allowed too.
func (s *CommentService) Create(ctx context.Context, caller *model.User, trackID int64, content string) (*model.Comment, error) {
	// The track is checked first so a missing one is a 404, not a
	// foreign key failure.
	if _, err := s.tracks.GetByID(ctx, trackID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		TrackID: trackID,
		Content: strings.TrimSpace(content),
	}
	if caller != nil {
		comment.UserID = &caller.ID
		comment.Username = &caller.Username
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("creating comment on track %d: %w", trackID, err)
	}

	s.logger.Info("comment created",
		slog.Int64("comment_id", comment.ID),
		slog.Int64("track_id", trackID),
	)
	return comment, nil
}

// Delete removes a comment. Any authenticated caller may delete any comment;
// there is no ownership check.
// TODO: restrict deletion to the comment's author.
func (s *CommentService) Delete(ctx context.Context, caller *model.User, id int64) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return err
	}

	author := "anonymous"
	if comment.Username != nil {
		author = *comment.Username
	}
	s.logger.Info("comment deleted",
		slog.Int64("comment_id", id),
		slog.Int64("track_id", comment.TrackID),
		slog.String("author", author),
		slog.String("by", caller.Username),
	)
	return nil
}
