package media

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		filename string
		wantExt  string
	}{
		{"keeps extension", KindAudio, "My Song.MP3", ".mp3"},
		{"windows path", KindCover, `C:\pics\cover.png`, ".png"},
		{"no extension", KindAudio, "recording", ""},
		{"hostile extension", KindAudio, "x.mp3/../../etc", ""},
		{"overlong extension", KindAudio, "x.abcdefghij", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewKey(tt.kind, tt.filename)
			assert.True(t, strings.HasPrefix(key, tt.kind+"/"), "key %q has wrong prefix", key)
			assert.True(t, strings.HasSuffix(key, tt.wantExt), "key %q should end with %q", key, tt.wantExt)
			assert.NotContains(t, key, "..")
			// kind + "/" + 20-char xid + ext
			assert.Len(t, key, len(tt.kind)+1+20+len(tt.wantExt))
		})
	}

	assert.NotEqual(t, NewKey(KindAudio, "a.mp3"), NewKey(KindAudio, "a.mp3"))
}

func TestIsAbsoluteURL(t *testing.T) {
	assert.True(t, IsAbsoluteURL("https://cdn.example.com/a.mp3"))
	assert.True(t, IsAbsoluteURL("http://localhost:8080/media/audio/x.mp3"))
	assert.False(t, IsAbsoluteURL("audio/x.mp3"))
	assert.False(t, IsAbsoluteURL("ftp://example.com/a.mp3"))
	assert.False(t, IsAbsoluteURL("https:///nohost"))
	assert.False(t, IsAbsoluteURL(""))
}

// stubStore only answers URL.
type stubStore struct{}

func (stubStore) Save(context.Context, string, string, io.Reader, int64) error { return nil }
func (stubStore) Delete(context.Context, string) error                         { return nil }
func (stubStore) URL(key string) string                                        { return "https://media.test/" + key }

func TestResolver(t *testing.T) {
	r := NewResolver(stubStore{})

	assert.Nil(t, r.URL(""))
	assert.Nil(t, r.URLPtr(nil))

	external := "https://cdn.example.com/a.mp3"
	require.NotNil(t, r.URL(external))
	assert.Equal(t, external, *r.URL(external), "absolute URLs pass through")

	key := "covers/abc.png"
	require.NotNil(t, r.URLPtr(&key))
	assert.Equal(t, "https://media.test/covers/abc.png", *r.URLPtr(&key))
}
