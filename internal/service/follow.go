package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/vocalcollab/internal/apperror"
	"github.com/sakif/vocalcollab/internal/model"
	"github.com/sakif/vocalcollab/internal/repository"
)

// FollowService manages the directed follow graph between users.
type FollowService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
	logger  *slog.Logger
}

func NewFollowService(follows repository.FollowRepository, users repository.UserRepository, logger *slog.Logger) *FollowService {
	return &FollowService{
		follows: follows,
		users:   users,
		logger:  logger,
	}
}

// ToggleResult is the state after a toggle. Follow is set only when the
// edge was just created.
type ToggleResult struct {
	Following bool
	Follow    *model.Follow
}

// Toggle makes caller follow username, or unfollow if already following.
// The flip happens inside one storage transaction, so two concurrent
// toggles never leave duplicate rows.
func (s *FollowService) Toggle(ctx context.Context, caller *model.User, username string) (*ToggleResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == caller.ID {
		return nil, apperror.InvalidOperation("You cannot follow yourself.")
	}

	following, follow, err := s.follows.Toggle(ctx, caller.ID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("toggling follow %s→%s: %w", caller.Username, target.Username, err)
	}

	s.logger.Info("follow toggled",
		slog.String("follower", caller.Username),
		slog.String("following", target.Username),
		slog.Bool("is_following", following),
	)
	return &ToggleResult{Following: following, Follow: follow}, nil
}

// IsFollowing reports whether caller follows username.
func (s *FollowService) IsFollowing(ctx context.Context, caller *model.User, username string) (bool, error) {
	if err := requireCaller(caller); err != nil {
		return false, err
	}
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return s.follows.Exists(ctx, caller.ID, target.ID)
}

// Followers lists the users following username.
func (s *FollowService) Followers(ctx context.Context, username string) ([]model.UserBrief, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.follows.ListFollowers(ctx, user.ID)
}

// Following lists the users username follows.
func (s *FollowService) Following(ctx context.Context, username string) ([]model.UserBrief, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.follows.ListFollowing(ctx, user.ID)
}
