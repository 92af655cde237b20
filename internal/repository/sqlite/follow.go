package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/vocalcollab/internal/model"
	"github.com/sakif/vocalcollab/internal/repository"
)

var _ repository.FollowRepository = (*FollowDB)(nil)

// FollowDB stores follow edges.
type FollowDB struct {
	conn *sql.DB
}

// Toggle flips the follower→following edge inside one transaction.
//
// It deletes first: if a row went away the caller was following and now is
// not. Otherwise it inserts. A UNIQUE violation on that insert means another
// request created the edge between our DELETE and INSERT; the pair is
// following either way, so that is reported as success rather than an error.
func (s *FollowDB) Toggle(ctx context.Context, followerID, followingID int64) (bool, *model.Follow, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, nil, fmt.Errorf("sqlite: beginning follow toggle: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND following_id = ?`,
		followerID, followingID,
	)
	if err != nil {
		return false, nil, fmt.Errorf("sqlite: removing follow %d→%d: %w", followerID, followingID, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if removed > 0 {
		if err := tx.Commit(); err != nil {
			return false, nil, fmt.Errorf("sqlite: committing unfollow: %w", err)
		}
		return false, nil, nil
	}

	createdAt := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO follows (follower_id, following_id, created_at) VALUES (?, ?, ?)`,
		followerID, followingID, createdAt,
	)
	// With a one-connection pool the transaction already serializes toggles,
	// so this branch only matters if the pool is ever widened.
	if err != nil && !isUniqueViolation(err) {
		return false, nil, fmt.Errorf("sqlite: creating follow %d→%d: %w", followerID, followingID, err)
	}

	follow, err := getFollow(ctx, tx, followerID, followingID)
	if err != nil {
		return false, nil, err
	}
	if err := tx.Commit(); err != nil {
		return false, nil, fmt.Errorf("sqlite: committing follow: %w", err)
	}
	return true, follow, nil
}

// getFollow loads an edge with both endpoints' usernames.
func getFollow(ctx context.Context, tx *sql.Tx, followerID, followingID int64) (*model.Follow, error) {
	var f model.Follow
	err := tx.QueryRowContext(ctx,
		`SELECT f.id, a.id, a.username, b.id, b.username, f.created_at
		 FROM follows f
		 JOIN users a ON a.id = f.follower_id
		 JOIN users b ON b.id = f.following_id
		 WHERE f.follower_id = ? AND f.following_id = ?`,
		followerID, followingID,
	).Scan(
		&f.ID,
		&f.Follower.ID, &f.Follower.Username,
		&f.Following.ID, &f.Following.Username,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading follow %d→%d: %w", followerID, followingID, err)
	}
	return &f, nil
}

func (s *FollowDB) Exists(ctx context.Context, followerID, followingID int64) (bool, error) {
	var exists bool
	err := s.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = ? AND following_id = ?)`,
		followerID, followingID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow %d→%d: %w", followerID, followingID, err)
	}
	return exists, nil
}

// ListFollowers returns the users who follow userID, oldest edge first.
func (s *FollowDB) ListFollowers(ctx context.Context, userID int64) ([]model.UserBrief, error) {
	return s.listUsers(ctx,
		`SELECT u.id, u.username FROM follows f
		 JOIN users u ON u.id = f.follower_id
		 WHERE f.following_id = ?
		 ORDER BY f.created_at, f.id`, userID)
}

// ListFollowing returns the users userID follows, oldest edge first.
func (s *FollowDB) ListFollowing(ctx context.Context, userID int64) ([]model.UserBrief, error) {
	return s.listUsers(ctx,
		`SELECT u.id, u.username FROM follows f
		 JOIN users u ON u.id = f.following_id
		 WHERE f.follower_id = ?
		 ORDER BY f.created_at, f.id`, userID)
}

func (s *FollowDB) listUsers(ctx context.Context, query string, userID int64) ([]model.UserBrief, error) {
	rows, err := s.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing follow edges for user %d: %w", userID, err)
	}
	defer rows.Close()

	users := make([]model.UserBrief, 0)
	for rows.Next() {
		var u model.UserBrief
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}
