package media

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders for image.DecodeConfig
	_ "image/jpeg"
	_ "image/png"
	"io"
)

// Cover art larger than this is refused.
const (
	MaxCoverWidth  = 1146
	MaxCoverHeight = 717
)

var (
	ErrNotAnImage    = errors.New("media: not a jpeg, png or gif image")
	ErrCoverTooLarge = errors.New("media: cover image exceeds the maximum dimensions")
)

// CheckCoverImage reads just the image header from r, checks the
// dimensions, and rewinds r so it can be uploaded afterwards.
func CheckCoverImage(r io.ReadSeeker) (image.Config, error) {
	cfg, format, err := image.DecodeConfig(r)
	if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil {
		return image.Config{}, fmt.Errorf("media: rewinding cover image: %w", seekErr)
	}
	if err != nil || format == "" {
		return image.Config{}, ErrNotAnImage
	}
	if cfg.Width > MaxCoverWidth || cfg.Height > MaxCoverHeight {
		return cfg, ErrCoverTooLarge
	}
	return cfg, nil
}
