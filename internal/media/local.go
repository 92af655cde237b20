package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// MediaPrefix is the URL path under which LocalStore files are served.
const MediaPrefix = "/media/"

// LocalStore keeps media files in a directory on disk. It is the
// development backend: the API server serves the files itself.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates dir if needed. baseURL is the public origin of this
// server, e.g. "http://localhost:8080".
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: creating %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes to a temporary file first and renames it into place, so a
// reader never sees a half-written object.
func (s *LocalStore) Save(ctx context.Context, key, _ string, r io.Reader, _ int64) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("media: creating directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("media: creating temp file for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := io.Copy(tmp, readerWithContext{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		return fmt.Errorf("media: writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("media: closing %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("media: storing %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("media: deleting %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) URL(key string) string {
	return s.baseURL + MediaPrefix + key
}

// Handler serves stored files. Mount it at MediaPrefix.
//
// Only regular files are served. Anything else, directories included, goes
// to notFound (http.NotFound when nil), so the upload keys inside a
// directory are never listed.
func (s *LocalStore) Handler(notFound http.Handler) http.Handler {
	if notFound == nil {
		notFound = http.NotFoundHandler()
	}
	files := http.FileServer(http.Dir(s.dir))
	return http.StripPrefix(MediaPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.isFile(r.URL.Path) {
			notFound.ServeHTTP(w, r)
			return
		}
		files.ServeHTTP(w, r)
	}))
}

// isFile reports whether urlPath names a regular file inside dir.
func (s *LocalStore) isFile(urlPath string) bool {
	if strings.HasSuffix(urlPath, "/") {
		return false
	}
	p, err := s.path(strings.TrimPrefix(path.Clean("/"+urlPath), "/"))
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// path maps key to a file inside dir and rejects keys that would escape it.
func (s *LocalStore) path(key string) (string, error) {
	if key == "" || !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", fmt.Errorf("media: invalid key %q", key)
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)), nil
}

// readerWithContext stops a copy once ctx is cancelled, e.g. when the
// client disconnects halfway through an upload.
type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (r readerWithContext) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
