// Package auth issues and checks the credentials of the API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Client registers with POST /register/ (username + password)
//  2. Client exchanges credentials at POST /token/ for an access/refresh pair
//  3. Client sends "Authorization: Bearer <access>" on every call
//  4. Middleware validates the token, loads the user, and puts it in the
//     request context
//  5. When the access token expires the client trades its refresh token for
//     a new one at POST /token/refresh/
//
// WHY TWO TOKENS?
// Access tokens are short-lived (minutes) so a leaked one is useless soon.
// Refresh tokens live longer but are only ever accepted by the refresh
// endpoint. The "token_type" claim keeps one from being used as the other.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:  {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"7","username":"alice","token_type":"access","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/sakif/vocalcollab/internal/model"
)

const issuer = "vocalcollab"

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// TokenService handles JWT creation and validation.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a TokenService with the given secret and lifetimes.
// Example secret: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// Claims is the JWT payload.
//
// "sub" holds the user id. The username rides along so a client can show
// who is logged in without an extra request.
type Claims struct {
	Username  string    `json:"username"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID parses the numeric user id out of the subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("auth: token subject %q is not a user id", c.Subject)
	}
	return id, nil
}

// GenerateAccess issues a short-lived access token for user.
func (s *TokenService) GenerateAccess(user *model.User) (string, error) {
	return s.generate(user, AccessToken, s.accessTTL)
}

// GenerateRefresh issues a refresh token for user.
func (s *TokenService) GenerateRefresh(user *model.User) (string, error) {
	return s.generate(user, RefreshToken, s.refreshTTL)
}

// generate signs a token of the given type that expires d from now.
// A negative d produces an already expired token, which tests rely on.
func (s *TokenService) generate(user *model.User, typ TokenType, d time.Duration) (string, error) {
	if user == nil {
		return "", errors.New("auth: cannot issue a token without a user")
	}
	now := time.Now()

	c := Claims{
		Username:  user.Username,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti makes every token unique even when two are minted for the
			// same user in the same second.
			ID:        xid.New().String(),
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing %s token: %w", typ, err)
	}
	return signed, nil
}

// Validate parses and verifies a JWT string and checks it is of type want.
//
// VALIDATION CHECKS:
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired
//   - Issuer is "vocalcollab"
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//   - token_type matches want, so a refresh token cannot open the API
func (s *TokenService) Validate(tokenStr string, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.TokenType != want {
		return nil, fmt.Errorf("auth: expected %s token, got %q", want, c.TokenType)
	}
	if _, err := c.UserID(); err != nil {
		return nil, err
	}
	return c, nil
}
