// Package media stores uploaded audio and cover art and turns stored
// references into URLs clients can fetch.
//
// MEDIA REFERENCES:
// A track's audio_file and cover_image columns hold a "reference", which is
// one of two things:
//   - an absolute http(s) URL the client supplied (the file lives elsewhere)
//   - a key inside our Store, such as "audio/cq2mk1r3a0ge8ee1lqp0.mp3"
//
// The database never stores a full URL for our own objects, so moving the
// bucket or changing PUBLIC_BASE_URL doesn't require rewriting rows.
package media

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/rs/xid"
)

// Store is an object store for media files.
//
// Two implementations exist: LocalStore (files on disk, served by this
// process) and MinioStore (any S3-compatible bucket).
type Store interface {
	// Save writes size bytes from r under key. size may be -1 when unknown.
	Save(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public retrieval URL for key.
	URL(key string) string
}

// Kinds of media, used as key prefixes.
const (
	KindAudio = "audio"
	KindCover = "covers"
)

// NewKey returns a fresh storage key for an upload of the given kind,
// keeping the extension of the client's filename.
//
// WHY XID?
// xids are globally unique without coordination, 20 characters, URL-safe,
// and sort by creation time, so a bucket listing reads oldest first.
func NewKey(kind, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, `\`, "/"))))
	if !validExt(ext) {
		ext = ""
	}
	return kind + "/" + xid.New().String() + ext
}

// validExt accepts short alphanumeric extensions only, so a crafted
// filename can't smuggle path characters into a key.
func validExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 {
		return false
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// IsAbsoluteURL reports whether ref is an http(s) URL rather than a key.
func IsAbsoluteURL(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Resolver renders stored references as retrieval URLs.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// URL resolves ref. Absolute URLs pass through unchanged, keys go through
// the store, and an empty reference yields nil (rendered as JSON null).
func (r *Resolver) URL(ref string) *string {
	if ref == "" {
		return nil
	}
	if IsAbsoluteURL(ref) {
		return &ref
	}
	u := r.store.URL(ref)
	return &u
}

// URLPtr is URL for nullable columns.
func (r *Resolver) URLPtr(ref *string) *string {
	if ref == nil {
		return nil
	}
	return r.URL(*ref)
}
