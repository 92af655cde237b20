package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment can't
// leak into a test. t.Setenv restores the old values afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DB_PATH", "JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"PUBLIC_BASE_URL", "MEDIA_BACKEND", "MEDIA_DIR", "MAX_UPLOAD_BYTES",
		"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET",
		"MINIO_USE_SSL", "MINIO_REGION", "MINIO_PUBLIC_URL",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
	} {
		t.Setenv(k, "")
	}
}

// load reads an empty env file so a developer's .env is ignored.
func load(t *testing.T) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empty.env")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return Load(path)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "data/vocalcollab.db", cfg.DBPath)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "http://localhost:8080", cfg.PublicBaseURL)
	assert.Equal(t, MediaLocal, cfg.MediaBackend)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "vocalcollab", cfg.Minio.Bucket)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("ACCESS_TOKEN_TTL", "90s")
	t.Setenv("PUBLIC_BASE_URL", "https://audio.example.com/")
	t.Setenv("MEDIA_BACKEND", "MINIO")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_ACCESS_KEY", "key")
	t.Setenv("MINIO_SECRET_KEY", "secret")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.AccessTokenTTL)
	assert.Equal(t, "https://audio.example.com", cfg.PublicBaseURL, "trailing slash is trimmed")
	assert.Equal(t, MediaMinio, cfg.MediaBackend)
	assert.True(t, cfg.Minio.UseSSL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, and
	// t.Setenv("") counts as set, so unset the one the file provides.
	os.Unsetenv("DB_PATH")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_PATH=/tmp/from-file.db\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("DB_PATH") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-file.db", cfg.DBPath)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "typo.env"))
	assert.ErrorIs(t, err, fs.ErrNotExist, "a file named explicitly must exist")

	// The implicit .env is optional.
	t.Chdir(t.TempDir())
	_, err = Load()
	assert.NoError(t, err)
}

func TestLoad_ReportsEveryMalformedValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")
	t.Setenv("REFRESH_TOKEN_TTL", "forever")
	t.Setenv("MINIO_USE_SSL", "maybe")

	_, err := load(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "REFRESH_TOKEN_TTL")
	assert.Contains(t, err.Error(), "MINIO_USE_SSL")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port: 8080, DBPath: "x.db", JWTSecret: "0123456789abcdef",
			AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour,
			PublicBaseURL: "http://localhost:8080", MediaBackend: MediaLocal,
			MediaDir: "media", MaxUploadBytes: 1, LogFormat: "text",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET is required"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "at least 16"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "PORT"},
		{"relative base url", func(c *Config) { c.PublicBaseURL = "/media" }, "PUBLIC_BASE_URL"},
		{"unknown backend", func(c *Config) { c.MediaBackend = "s3" }, "MEDIA_BACKEND"},
		{"minio without credentials", func(c *Config) { c.MediaBackend = MediaMinio; c.Minio.Bucket = "b" }, "MINIO_ENDPOINT"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
