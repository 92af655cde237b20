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

var _ repository.TrackRepository = (*TrackDB)(nil)

// TrackDB stores tracks.
type TrackDB struct {
	conn *sql.DB
}

// trackColumns is shared by every SELECT so scanTrack always sees the same
// column order. The LEFT JOIN keeps anonymous tracks (user_id IS NULL).
const trackColumns = `
	SELECT t.id, t.title, t.description, t.audio_file, t.cover_image, t.tags,
	       t.created_time, t.user_id, u.username
	FROM tracks t
	LEFT JOIN users u ON u.id = t.user_id`

// Create inserts a track and fills in ID and CreatedTime.
// created_time is set here and never updated afterwards.
func (s *TrackDB) Create(ctx context.Context, track *model.Track) error {
	track.CreatedTime = time.Now().UTC()

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO tracks (title, description, audio_file, cover_image, tags, created_time, user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		track.Title,
		track.Description,
		track.AudioFile,
		track.CoverImage,
		track.Tags,
		track.CreatedTime,
		track.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating track: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading track id: %w", err)
	}
	track.ID = id
	return nil
}

// GetByID retrieves a single track, including its owner's username.
func (s *TrackDB) GetByID(ctx context.Context, id int64) (*model.Track, error) {
	row := s.conn.QueryRowContext(ctx, trackColumns+` WHERE t.id = ?`, id)
	track, err := scanTrack(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("track", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting track %d: %w", id, err)
	}
	return track, nil
}

// List returns tracks newest first. The id tiebreak keeps the order stable
// for tracks created within the same clock tick.
func (s *TrackDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Track, error) {
	limit, offset := bounds(opts)
	rows, err := s.conn.QueryContext(ctx,
		trackColumns+` ORDER BY t.created_time DESC, t.id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tracks: %w", err)
	}
	return collectTracks(rows)
}

// ListByUsername returns the tracks owned by username, newest first.
// An unknown username simply matches nothing.
func (s *TrackDB) ListByUsername(ctx context.Context, username string, opts repository.ListOptions) ([]model.Track, error) {
	limit, offset := bounds(opts)
	rows, err := s.conn.QueryContext(ctx,
		trackColumns+` WHERE u.username = ? ORDER BY t.created_time DESC, t.id DESC LIMIT ? OFFSET ?`,
		username, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tracks for %q: %w", username, err)
	}
	return collectTracks(rows)
}

func collectTracks(rows *sql.Rows) ([]model.Track, error) {
	defer rows.Close()

	tracks := make([]model.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning track row: %w", err)
		}
		tracks = append(tracks, *track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tracks: %w", err)
	}
	return tracks, nil
}

func scanTrack(row rowsScanner) (*model.Track, error) {
	var t model.Track
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.AudioFile, &t.CoverImage, &t.Tags,
		&t.CreatedTime, &t.UserID, &t.Username,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// bounds converts ListOptions into LIMIT/OFFSET values.
// In SQLite a negative LIMIT means "no limit".
func bounds(opts repository.ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = -1
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
