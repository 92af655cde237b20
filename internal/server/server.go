// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects storage, services,
// handlers and middleware, and decides which URL maps to which handler and
// which routes need a logged-in caller.
//
// WHY SEPARATE FROM main.go?
// Tests build a complete server with New and drive it through Handler()
// without opening a port, and the CLI's migrate/deleteuser commands reuse
// the same packages without starting HTTP at all.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config
//	  → sqlite.DB (+ media.Store)
//	  → services (Auth, Track, Comment, Like, Follow)
//	  → handlers
//	  → chi routes
//
// This is the "composition root" pattern: every dependency is built here
// and nowhere else.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/vocalcollab/internal/auth"
	"github.com/sakif/vocalcollab/internal/config"
	"github.com/sakif/vocalcollab/internal/handler"
	"github.com/sakif/vocalcollab/internal/media"
	"github.com/sakif/vocalcollab/internal/middleware"
	sqliteRepo "github.com/sakif/vocalcollab/internal/repository/sqlite"
	"github.com/sakif/vocalcollab/internal/service"
)

// shutdownTimeout is how long in-flight requests get to finish.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. Start closes it on the way out;
// callers that never Start (tests) call Close.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB

	store        media.Store
	mediaHandler http.Handler // nil unless media is served from disk

	passwords *auth.PasswordService
}

// Option customizes a Server before its routes are built.
type Option func(*Server)

// WithPasswordService replaces the bcrypt settings. Tests pass a low-cost
// service so registering a user doesn't take a quarter second.
func WithPasswordService(p *auth.PasswordService) Option {
	return func(s *Server) { s.passwords = p }
}

// New creates a Server from cfg: it opens the database (running
// migrations), connects the media store, and builds the router.
//
// IMPORT ALIAS:
// repository/sqlite is imported as sqliteRepo so it can't be mistaken for
// the modernc.org/sqlite driver.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		passwords: auth.NewPasswordService(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.openMediaStore(ctx); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.DBPath); cfg.DBPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s.db = db

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// openMediaStore picks the backend named by MEDIA_BACKEND.
func (s *Server) openMediaStore(ctx context.Context) error {
	switch s.config.MediaBackend {
	case config.MediaMinio:
		m := s.config.Minio
		store, err := media.NewMinioStore(ctx, media.MinioOptions{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			UseSSL:    m.UseSSL,
			Region:    m.Region,
			PublicURL: m.PublicURL,
		}, s.logger)
		if err != nil {
			return fmt.Errorf("connecting media store: %w", err)
		}
		s.store = store

	case config.MediaLocal, "":
		store, err := media.NewLocalStore(s.config.MediaDir, s.config.PublicBaseURL)
		if err != nil {
			return fmt.Errorf("opening media directory: %w", err)
		}
		s.store = store
		s.mediaHandler = store.Handler(http.HandlerFunc(handler.NotFound))

	default:
		return fmt.Errorf("unknown media backend %q", s.config.MediaBackend)
	}
	return nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE (every API route also answers under /api):
//
//	POST   /register/                      → create account
//	POST   /token/  (alias /login/)        → access + refresh token
//	POST   /token/refresh/                 → new access token
//	GET    /tracks/                        → list tracks, newest first
//	POST   /tracks/                        → upload a track (multipart or JSON)
//	GET    /tracks/{id}/                   → one track
//	GET    /tracks/{id}/comments/          → comments on a track
//	POST   /tracks/{id}/comments/          → add a comment
//	POST   /tracks/{id}/like/              → like a track            [auth]
//	GET    /tracks/{id}/likes/             → like count
//	DELETE /comments/{id}/                 → delete a comment        [auth]
//	GET    /users/{username}/tracks/       → a user's tracks
//	POST   /users/{username}/follow/       → follow / unfollow       [auth]
//	GET    /users/{username}/is_following/ → follow status           [auth]
//	GET    /users/{username}/followers/    → who follows them
//	GET    /users/{username}/following/    → whom they follow
//	GET    /media/*                        → stored files (local backend)
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added:
//  1. RequestID assigns a unique ID to each request (for tracing)
//  2. RealIP extracts the client IP from proxy headers
//  3. Logger logs each request with timing info and the request ID
//  4. Recoverer catches panics and returns 500 instead of crashing; it
//     sits inside Logger so a recovered panic is still logged as a 500
//  5. StripSlashes makes "/tracks" and "/tracks/" the same route
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.AccessTokenTTL, s.config.RefreshTokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	// === DEPENDENCY CHAIN ===
	// The handlers never touch the database directly and the services never
	// touch HTTP.
	users := s.db.Users()
	tracks := s.db.Tracks()

	authService := service.NewAuthService(users, tokens, s.passwords, s.logger)
	trackService := service.NewTrackService(tracks, s.store, s.logger)
	commentService := service.NewCommentService(s.db.Comments(), tracks, s.logger)
	likeService := service.NewLikeService(s.db.Likes(), tracks, s.logger)
	followService := service.NewFollowService(s.db.Follows(), users, s.logger)

	resolver := media.NewResolver(s.store)
	api := routes{
		auth:     handler.NewAuthHandler(authService, s.logger),
		tracks:   handler.NewTrackHandler(trackService, resolver, s.config.MaxUploadBytes, s.logger),
		comments: handler.NewCommentHandler(commentService, s.logger),
		likes:    handler.NewLikeHandler(likeService, s.logger),
		follows:  handler.NewFollowHandler(followService, s.logger),
		optional: auth.OptionalAuth(tokens, users),
		required: auth.RequireAuth(tokens, users),
	}

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.StripSlashes)

	s.router.NotFound(handler.NotFound)
	s.router.MethodNotAllowed(handler.MethodNotAllowed)

	// === Media Files ===
	if s.mediaHandler != nil {
		s.router.Handle(media.MediaPrefix+"*", s.mediaHandler)
	}

	// === API Routes ===
	s.router.Group(api.mount)
	s.router.Route("/api", api.mount)

	return nil
}

// routes holds the handlers so the same table can be mounted twice.
type routes struct {
	auth     *handler.AuthHandler
	tracks   *handler.TrackHandler
	comments *handler.CommentHandler
	likes    *handler.LikeHandler
	follows  *handler.FollowHandler

	optional func(http.Handler) http.Handler
	required func(http.Handler) http.Handler
}

func (rt routes) mount(r chi.Router) {
	r.Post("/register", rt.auth.HandleRegister)
	r.Post("/token", rt.auth.HandleToken)
	r.Post("/login", rt.auth.HandleToken)
	r.Post("/token/refresh", rt.auth.HandleRefresh)

	// Public routes: anonymous callers are fine, a valid token attaches
	// its user (e.g. as the owner of an uploaded track).
	r.Group(func(r chi.Router) {
		r.Use(rt.optional)

		r.Get("/tracks", rt.tracks.HandleList)
		r.Post("/tracks", rt.tracks.HandleCreate)
		r.Get("/tracks/{id}", rt.tracks.HandleGet)
		r.Get("/tracks/{id}/comments", rt.comments.HandleList)
		r.Post("/tracks/{id}/comments", rt.comments.HandleCreate)
		r.Get("/tracks/{id}/likes", rt.likes.HandleCount)

		r.Get("/users/{username}/tracks", rt.tracks.HandleListByUser)
		r.Get("/users/{username}/followers", rt.follows.HandleFollowers)
		r.Get("/users/{username}/following", rt.follows.HandleFollowing)
	})

	// Protected routes: 401 without a valid access token.
	r.Group(func(r chi.Router) {
		r.Use(rt.required)

		r.Delete("/comments/{id}", rt.comments.HandleDelete)
		r.Post("/tracks/{id}/like", rt.likes.HandleLike)
		r.Post("/users/{username}/follow", rt.follows.HandleToggle)
		r.Get("/users/{username}/is_following", rt.follows.HandleIsFollowing)
	})
}

// Handler exposes the router, for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it itself.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests (uploads included) to finish
//  3. Close the database connection (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.Close()

	// Uploads of up to MAX_UPLOAD_BYTES must fit in the read timeout, so it
	// is far more generous than a JSON-only API would need.
	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", s.config.PublicBaseURL),
			slog.String("database", s.config.DBPath),
			slog.String("media_backend", s.config.MediaBackend),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
