package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/vocalcollab/internal/apperror"
	"github.com/sakif/vocalcollab/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. A package-private type means
// only THIS package can create the key, so no other package can read or
// shadow the caller stored in the context.
type contextKey string

const callerKey contextKey = "caller"

const (
	msgNoCredentials = "Authentication credentials were not provided."
	msgInvalidToken  = "Given token not valid."
)

// errInvalidToken marks a credential that can never authenticate: bad
// signature, wrong type, expired, or a user that no longer exists.
var errInvalidToken = errors.New("auth: invalid credentials")

// UserLookup loads the account a token belongs to.
// repository.UserRepository satisfies it.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads "Authorization: Bearer <jwt>", validates the access token, loads
// the user from storage, and stores it in the request context. A missing
// header, a bad token, or a token whose user no longer exists answers 401
// and stops the chain. A storage failure while loading the user is a 500.
//
// MIDDLEWARE PATTERN IN GO:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... before ...
//	        next.ServeHTTP(w, r)
//	        // ... after ...
//	    })
//	}
func RequireAuth(tokens *TokenService, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, msgNoCredentials)
				return
			}

			user, err := resolveUser(r.Context(), raw, tokens, users)
			if errors.Is(err, errInvalidToken) {
				writeUnauthorized(w, msgInvalidToken)
				return
			}
			if err != nil {
				writeInternalError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), user)))
		})
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// the request through as anonymous when the token is invalid. Public routes
// that record an owner when one is known (track upload, comments) use it.
// A storage failure is still a 500: guessing "anonymous" would store an
// upload without its owner.
func OptionalAuth(tokens *TokenService, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw, ok := bearerToken(r); ok {
				user, err := resolveUser(r.Context(), raw, tokens, users)
				switch {
				case err == nil:
					r = r.WithContext(WithCaller(r.Context(), user))
				case !errors.Is(err, errInvalidToken):
					writeInternalError(w, r, err)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CallerFromContext returns the authenticated user, or nil for an
// anonymous request.
//
// Usage in handlers:
//
//	caller := auth.CallerFromContext(r.Context())
//	track, err := h.tracks.Create(ctx, caller, input)
func CallerFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(callerKey).(*model.User)
	return user
}

// WithCaller returns a copy of ctx carrying user.
func WithCaller(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, callerKey, user)
}

// bearerToken extracts the token from "Authorization: Bearer <jwt>".
// The scheme is case-insensitive; anything else counts as no credentials.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// resolveUser returns errInvalidToken for anything the client got wrong and
// the storage error as-is otherwise.
func resolveUser(ctx context.Context, raw string, tokens *TokenService, users UserLookup) (*model.User, error) {
	claims, err := tokens.Validate(raw, AccessToken)
	if err != nil {
		return nil, errInvalidToken
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, errInvalidToken
	}
	user, err := users.GetByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, errInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// writeInternalError logs err and answers with the API's generic 500 body.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "loading authenticated user failed", slog.String("error", err.Error()))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"detail": "An internal error occurred"})
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
