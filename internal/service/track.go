package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sakif/vocalcollab/internal/apperror"
	"github.com/sakif/vocalcollab/internal/media"
	"github.com/sakif/vocalcollab/internal/model"
	"github.com/sakif/vocalcollab/internal/repository"
)

const MaxTitleLength = 100

// Upload is a file received from the client. Body must be seekable
// because cover images are inspected before they're stored.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

// CreateTrackInput carries a new track. Each media field is either an
// upload or an absolute URL; an upload wins if both are present.
type CreateTrackInput struct {
	Title       string
	Description string
	Tags        string

	Audio    *Upload
	AudioURL string

	Cover    *Upload
	CoverURL string
}

// TrackService handles track uploads and listings.
type TrackService struct {
	tracks repository.TrackRepository
	store  media.Store
	logger *slog.Logger
}

func NewTrackService(tracks repository.TrackRepository, store media.Store, logger *slog.Logger) *TrackService {
	return &TrackService{
		tracks: tracks,
		store:  store,
		logger: logger,
	}
}

// Create validates the input, stores the media, and inserts the track.
// The owner is the caller, or nobody for an anonymous upload.
//
// ORDER OF OPERATIONS:
//  1. Validate everything, including the cover's pixel size. Nothing has
//     been written yet, so a rejected request leaves no trace.
//  2. Upload media files.
//  3. Insert the row. If that fails, delete what step 2 uploaded.
func (s *TrackService) Create(ctx context.Context, caller *model.User, in CreateTrackInput) (*model.Track, error) {
	track := &model.Track{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Tags:        strings.TrimSpace(in.Tags),
	}
	if caller != nil {
		track.UserID = &caller.ID
		track.Username = &caller.Username
	}

	if err := s.validate(track, &in); err != nil {
		return nil, err
	}

	var uploaded []string
	cleanup := func() {
		for _, key := range uploaded {
			// The request context may already be cancelled; cleanup must still run.
			if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
				s.logger.Warn("failed to remove orphaned media",
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	if in.Audio != nil {
		key, err := s.save(ctx, media.KindAudio, in.Audio)
		if err != nil {
			return nil, err
		}
		uploaded = append(uploaded, key)
		track.AudioFile = key
	} else {
		track.AudioFile = in.AudioURL
	}

	if in.Cover != nil {
		key, err := s.save(ctx, media.KindCover, in.Cover)
		if err != nil {
			cleanup()
			return nil, err
		}
		uploaded = append(uploaded, key)
		track.CoverImage = &key
	} else if in.CoverURL != "" {
		cover := in.CoverURL
		track.CoverImage = &cover
	}

	if err := s.tracks.Create(ctx, track); err != nil {
		cleanup()
		s.logger.Error("failed to create track",
			slog.String("title", track.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating track: %w", err)
	}

	attrs := []any{slog.Int64("track_id", track.ID), slog.String("title", track.Title)}
	if caller != nil {
		attrs = append(attrs, slog.String("owner", caller.Username))
	}
	s.logger.Info("track created", attrs...)

	return track, nil
}

func (s *TrackService) validate(track *model.Track, in *CreateTrackInput) error {
	if track.Tags == "" {
		return apperror.ValidationFailed("tags", "This field is required.")
	}
	if utf8.RuneCountInString(track.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("Ensure this field has no more than %d characters.", MaxTitleLength))
	}

	switch {
	case in.Audio != nil:
		if !isAudioContentType(in.Audio.ContentType) {
			return apperror.ValidationFailed("audio_file",
				fmt.Sprintf("Unsupported audio content type %q.", in.Audio.ContentType))
		}
	case in.AudioURL != "":
		if !media.IsAbsoluteURL(in.AudioURL) {
			return apperror.ValidationFailed("audio_file", "Enter a valid URL or upload a file.")
		}
	default:
		return apperror.ValidationFailed("audio_file", "No file was submitted.")
	}

	switch {
	case in.Cover != nil:
		if _, err := media.CheckCoverImage(in.Cover.Body); err != nil {
			switch {
			case errors.Is(err, media.ErrCoverTooLarge):
				return apperror.ValidationFailed("cover_image",
					fmt.Sprintf("The picture size can not be bigger than %d x %d.", media.MaxCoverWidth, media.MaxCoverHeight))
			case errors.Is(err, media.ErrNotAnImage):
				return apperror.ValidationFailed("cover_image",
					"Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
			default:
				return fmt.Errorf("checking cover image: %w", err)
			}
		}
	case in.CoverURL != "":
		if !media.IsAbsoluteURL(in.CoverURL) {
			return apperror.ValidationFailed("cover_image", "Enter a valid URL or upload a file.")
		}
	}
	return nil
}

func (s *TrackService) save(ctx context.Context, kind string, up *Upload) (string, error) {
	key := media.NewKey(kind, up.Filename)
	if err := s.store.Save(ctx, key, up.ContentType, up.Body, up.Size); err != nil {
		s.logger.Error("failed to store media",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("storing %s: %w", kind, err)
	}
	return key, nil
}

// isAudioContentType accepts audio/*, video/* (many containers such as
// mp4 and webm carry audio-only tracks) and application/octet-stream.
// A missing content type is treated as octet-stream.
func isAudioContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "audio/") ||
		strings.HasPrefix(mediaType, "video/") ||
		mediaType == "application/octet-stream"
}

// Get returns one track. Returns apperror.ErrNotFound if it doesn't exist.
func (s *TrackService) Get(ctx context.Context, id int64) (*model.Track, error) {
	return s.tracks.GetByID(ctx, id)
}

// List returns all tracks, newest first.
func (s *TrackService) List(ctx context.Context, limit, offset int) ([]model.Track, error) {
	tracks, err := s.tracks.List(ctx, listOptions(limit, offset))
	if err != nil {
		return nil, fmt.Errorf("listing tracks: %w", err)
	}
	return tracks, nil
}

// ListByUser returns the tracks owned by username, newest first. An
// unknown username yields an empty list rather than an error.
func (s *TrackService) ListByUser(ctx context.Context, username string, limit, offset int) ([]model.Track, error) {
	tracks, err := s.tracks.ListByUsername(ctx, username, listOptions(limit, offset))
	if err != nil {
		return nil, fmt.Errorf("listing tracks of %s: %w", strconv.Quote(username), err)
	}
	return tracks, nil
}
