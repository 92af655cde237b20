package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sakif/vocalcollab/internal/apperror"
	"github.com/sakif/vocalcollab/internal/auth"
	"github.com/sakif/vocalcollab/internal/model"
	"github.com/sakif/vocalcollab/internal/repository"
)

const MaxUsernameLength = 150

const (
	msgBadCredentials = "No active account found with the given credentials"
	msgBadRefresh     = "Token is invalid or expired"
)

// AuthService handles registration and token issuance.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// TokenPair is what a successful login returns.
type TokenPair struct {
	Access  string
	Refresh string
}

// Register validates the credentials and creates the account. The password
// is only ever stored as a bcrypt hash.
//
// Duplicate usernames are caught by the UNIQUE constraint rather than a
// lookup first, so two concurrent registrations can't both succeed.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "This field is required.")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("Ensure this field has no more than %d bytes.", auth.MaxPasswordBytes))
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("username", "A user with that username already exists.")
		}
		return nil, fmt.Errorf("service/auth: creating user %q: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login checks the credentials and issues an access/refresh pair.
// An unknown username and a wrong password produce the same error so the
// response doesn't reveal which accounts exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	if username == "" {
		return nil, apperror.ValidationFailed("username", "This field is required.")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "This field is required.")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(msgBadCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login failed", slog.String("username", username))
			return nil, apperror.Unauthorized(msgBadCredentials)
		}
		return nil, fmt.Errorf("service/auth: verifying password for %q: %w", username, err)
	}

	access, err := s.tokens.GenerateAccess(user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}
	refresh, err := s.tokens.GenerateRefresh(user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh trades a valid refresh token for a new access token. The user
// is reloaded so a deleted account can't keep minting tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperror.ValidationFailed("refresh", "This field is required.")
	}

	claims, err := s.tokens.Validate(refreshToken, auth.RefreshToken)
	if err != nil {
		return "", apperror.Unauthorized(msgBadRefresh)
	}
	id, err := claims.UserID()
	if err != nil {
		return "", apperror.Unauthorized(msgBadRefresh)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.Unauthorized(msgBadRefresh)
		}
		return "", fmt.Errorf("service/auth: loading user %d: %w", id, err)
	}

	access, err := s.tokens.GenerateAccess(user)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return access, nil
}

// DeleteUser removes an account. Its tracks, likes and follow edges go with
// it; its comments stay with no author.
func (s *AuthService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("service/auth: deleting user %q: %w", username, err)
	}
	s.logger.Info("user deleted",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return nil
}

// validateUsername enforces: required, at most 150 characters, and only
// letters, digits and @ . + - _.
func validateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return apperror.ValidationFailed("username", "This field is required.")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return apperror.ValidationFailed("username",
			fmt.Sprintf("Ensure this field has no more than %d characters.", MaxUsernameLength))
	}
	for _, r := range username {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("@.+-_", r) {
			continue
		}
		return apperror.ValidationFailed("username",
			"Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	return nil
}
