// Package config loads the server configuration from the environment.
//
// WHY ENV VARS (plus an optional .env)?
// Twelve-factor style: the same binary runs in dev, CI and production and
// only the environment changes. godotenv lets developers keep their local
// settings in a .env file without exporting anything; it never overrides a
// variable that is already set, so real environment values always win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Media backends accepted by MEDIA_BACKEND.
const (
	MediaLocal = "local"
	MediaMinio = "minio"
)

// Config is the full runtime configuration.
type Config struct {
	Port   int
	DBPath string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// PublicBaseURL prefixes locally stored media, e.g. http://localhost:8080.
	PublicBaseURL  string
	MediaBackend   string
	MediaDir       string
	MaxUploadBytes int64

	Minio MinioConfig

	LogLevel  string
	LogFormat string
	LogFile   string
}

// MinioConfig holds the S3-compatible object store settings.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	// PublicURL overrides the scheme://endpoint prefix of object URLs,
	// e.g. when the bucket sits behind a CDN.
	PublicURL string
}

// Load reads the given env files, or an optional ".env" when none are
// given, and then the environment. Only the implicit ".env" may be missing;
// a file named explicitly must exist. Parse errors are collected so one run
// reports all of them.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: reading .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("config: reading env file: %w", err)
	}

	p := &parser{}
	port := p.int("PORT", 8080)

	cfg := &Config{
		Port:   port,
		DBPath: getEnv("DB_PATH", "data/vocalcollab.db"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  p.duration("ACCESS_TOKEN_TTL", 5*time.Minute),
		RefreshTokenTTL: p.duration("REFRESH_TOKEN_TTL", 24*time.Hour),

		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
		MediaBackend:   strings.ToLower(getEnv("MEDIA_BACKEND", MediaLocal)),
		MediaDir:       getEnv("MEDIA_DIR", "data/media"),
		MaxUploadBytes: int64(p.int("MAX_UPLOAD_BYTES", 50<<20)),

		Minio: MinioConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "vocalcollab"),
			UseSSL:    p.bool("MINIO_USE_SSL", false),
			Region:    os.Getenv("MINIO_REGION"),
			PublicURL: strings.TrimRight(os.Getenv("MINIO_PUBLIC_URL"), "/"),
		},

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LogFile:   os.Getenv("LOG_FILE"),
	}

	if len(p.errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(p.errs...))
	}
	return cfg, nil
}

// Validate reports settings that parse but cannot work.
// The migrate command skips it since it needs nothing but DB_PATH.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH must not be empty"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required (try: openssl rand -hex 32)"))
	} else if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if u, err := url.Parse(c.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL %q must be an absolute URL", c.PublicBaseURL))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}

	switch c.MediaBackend {
	case MediaLocal:
		if c.MediaDir == "" {
			errs = append(errs, errors.New("MEDIA_DIR must not be empty"))
		}
	case MediaMinio:
		if c.Minio.Endpoint == "" || c.Minio.AccessKey == "" || c.Minio.SecretKey == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for the minio backend"))
		}
		if c.Minio.Bucket == "" {
			errs = append(errs, errors.New("MINIO_BUCKET must not be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("MEDIA_BACKEND %q is not one of %q, %q", c.MediaBackend, MediaLocal, MediaMinio))
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not text or json", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr is the listen address for net/http.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// parser reads typed variables and remembers every malformed one.
type parser struct {
	errs []error
}

func (p *parser) int(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s=%q is not an integer", key, raw))
		return fallback
	}
	return v
}

func (p *parser) bool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s=%q is not a boolean", key, raw))
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s=%q is not a duration (e.g. 5m, 24h)", key, raw))
		return fallback
	}
	return v
}
