package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sakif/vocalcollab/internal/apperror"
	"github.com/sakif/vocalcollab/internal/auth"
	"github.com/sakif/vocalcollab/internal/config"
	"github.com/sakif/vocalcollab/internal/logging"
	sqliteRepo "github.com/sakif/vocalcollab/internal/repository/sqlite"
	"github.com/sakif/vocalcollab/internal/server"
	"github.com/sakif/vocalcollab/internal/service"
)

// env is what every command needs before it does its own work.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	var envFile string

	// setup loads the configuration and builds the logger. Only serve needs
	// the full Validate; migrate and deleteuser work without a JWT secret.
	setup := func(validate bool) (*env, error) {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		cfg, err := config.Load(files...)
		if err != nil {
			return nil, err
		}
		if validate {
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
		}

		logger, closer, err := logging.New(logging.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			File:   cfg.LogFile,
		})
		if err != nil {
			return nil, err
		}
		return &env{cfg: cfg, logger: logger, closer: closer}, nil
	}

	serve := func(cmd *cobra.Command, args []string) error {
		e, err := setup(true)
		if err != nil {
			return err
		}
		defer e.closer.Close()

		// The context only bounds startup (bucket checks); Start handles
		// SIGINT/SIGTERM itself once the server is listening.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		srv, err := server.New(ctx, e.cfg, e.logger)
		stop()
		if err != nil {
			e.logger.Error("failed to create server", slog.String("error", err.Error()))
			return err
		}
		return srv.Start()
	}

	root := &cobra.Command{
		Use:          "vocalcollab",
		Short:        "vocalcollab is an API for sharing and discussing audio tracks.",
		SilenceUsage: true,
		RunE:         serve,
		Args:         cobra.NoArgs,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "read settings from this file instead of .env")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE:  serve,
	})

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(false)
			if err != nil {
				return err
			}
			defer e.closer.Close()

			db, err := openDB(e.cfg.DBPath)
			if err != nil {
				return err
			}
			if err := db.Close(); err != nil {
				return fmt.Errorf("closing database: %w", err)
			}
			e.logger.Info("schema is up to date", slog.String("database", e.cfg.DBPath))
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "deleteuser <username>",
		Short: "Delete an account together with its tracks, likes and follows",
		Long: `Delete an account together with its tracks, likes and follows.

Comments the user wrote are kept and show no author afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(false)
			if err != nil {
				return err
			}
			defer e.closer.Close()

			db, err := openDB(e.cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			// Deleting needs neither tokens nor password hashing.
			accounts := service.NewAuthService(db.Users(), nil, auth.NewPasswordService(), e.logger)
			if err := accounts.DeleteUser(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					return fmt.Errorf("no user named %q", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %q\n", args[0])
			return nil
		},
	})

	return root
}

// openDB opens (and migrates) the database, creating its directory first.
func openDB(path string) (*sqliteRepo.DB, error) {
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}
	db, err := sqliteRepo.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}
