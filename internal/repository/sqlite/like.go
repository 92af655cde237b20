package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/vocalcollab/internal/model"
	"github.com/sakif/vocalcollab/internal/repository"
)

var _ repository.LikeRepository = (*LikeDB)(nil)

// LikeDB stores likes.
type LikeDB struct {
	conn *sql.DB
}

// Create inserts a like. There is no existence pre-check: the UNIQUE
// (track_id, user_id) constraint is the single source of truth, so two
// concurrent requests cannot both succeed.
func (s *LikeDB) Create(ctx context.Context, like *model.Like) error {
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO likes (track_id, user_id) VALUES (?, ?)`,
		like.TrackID, like.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlite: liking track %d: %w", like.TrackID, repository.ErrDuplicate)
		}
		return fmt.Errorf("sqlite: liking track %d: %w", like.TrackID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading like id: %w", err)
	}
	like.ID = id
	return nil
}

// Count returns how many users liked a track.
func (s *LikeDB) Count(ctx context.Context, trackID int64) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE track_id = ?`, trackID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting likes for track %d: %w", trackID, err)
	}
	return n, nil
}
