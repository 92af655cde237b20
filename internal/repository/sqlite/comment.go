package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/vocalcollab/internal/apperror"
	"github.com/sakif/vocalcollab/internal/model"
	"github.com/sakif/vocalcollab/internal/repository"
)

var _ repository.CommentRepository = (*CommentDB)(nil)

// CommentDB stores comments.
type CommentDB struct {
	conn *sql.DB
}

const commentColumns = `
	SELECT c.id, c.track_id, c.user_id, u.username, c.content, c.created_at
	FROM comments c
	LEFT JOIN users u ON u.id = c.user_id`

func (s *CommentDB) Create(ctx context.Context, comment *model.Comment) error {
	comment.CreatedAt = time.Now().UTC()

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO comments (track_id, user_id, content, created_at) VALUES (?, ?, ?, ?)`,
		comment.TrackID,
		comment.UserID,
		comment.Content,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating comment on track %d: %w", comment.TrackID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading comment id: %w", err)
	}
	comment.ID = id
	return nil
}

func (s *CommentDB) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	row := s.conn.QueryRowContext(ctx, commentColumns+` WHERE c.id = ?`, id)
	comment, err := scanComment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("comment", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting comment %d: %w", id, err)
	}
	return comment, nil
}

// ListByTrack returns a track's comments newest first.
func (s *CommentDB) ListByTrack(ctx context.Context, trackID int64) ([]model.Comment, error) {
	rows, err := s.conn.QueryContext(ctx,
		commentColumns+` WHERE c.track_id = ? ORDER BY c.created_at DESC, c.id DESC`, trackID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for track %d: %w", trackID, err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return comments, nil
}

func (s *CommentDB) Delete(ctx context.Context, id int64) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("comment", strconv.FormatInt(id, 10))
	}
	return nil
}

func scanComment(row rowsScanner) (*model.Comment, error) {
	var c model.Comment
	if err := row.Scan(&c.ID, &c.TrackID, &c.UserID, &c.Username, &c.Content, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
