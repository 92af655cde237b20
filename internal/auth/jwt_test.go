package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/sakif/vocalcollab/internal/model"
)

var alice = &model.User{ID: 7, Username: "alice"}

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!", 5*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// =========================================================================
// CONSTRUCTION
// =========================================================================

func TestNewTokenService_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		access  time.Duration
		refresh time.Duration
	}{
		{"short secret", "short", time.Minute, time.Hour},
		{"zero access ttl", "this-is-16-chars", 0, time.Hour},
		{"negative refresh ttl", "this-is-16-chars", time.Minute, -time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTokenService(tt.secret, tt.access, tt.refresh); err == nil {
				t.Fatal("NewTokenService() should have failed")
			}
		})
	}
}

// =========================================================================
// GENERATE / VALIDATE
// =========================================================================

func TestAccessToken_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateAccess(alice)
	if err != nil {
		t.Fatalf("GenerateAccess() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token doesn't look like a JWT: %q", token)
	}

	claims, err := ts.Validate(token, AccessToken)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID() error = %v", err)
	}
	if id != alice.ID {
		t.Errorf("UserID() = %d, want %d", id, alice.ID)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want alice", claims.Username)
	}
	if claims.Issuer != "vocalcollab" {
		t.Errorf("Issuer = %q, want vocalcollab", claims.Issuer)
	}
	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time); ttl != 5*time.Minute {
		t.Errorf("access lifetime = %v, want 5m", ttl)
	}
}

func TestRefreshToken_LivesLonger(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateRefresh(alice)
	if err != nil {
		t.Fatalf("GenerateRefresh() error = %v", err)
	}
	claims, err := ts.Validate(token, RefreshToken)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time); ttl != 24*time.Hour {
		t.Errorf("refresh lifetime = %v, want 24h", ttl)
	}
}

// A refresh token must never open the API, and an access token must never
// mint new ones.
func TestValidate_TokenTypeMustMatch(t *testing.T) {
	ts := newTestTokenService(t)

	access, _ := ts.GenerateAccess(alice)
	refresh, _ := ts.GenerateRefresh(alice)

	if _, err := ts.Validate(refresh, AccessToken); err == nil {
		t.Error("refresh token accepted as access token")
	}
	if _, err := ts.Validate(access, RefreshToken); err == nil {
		t.Error("access token accepted as refresh token")
	}
}

func TestGenerate_TokensAreUnique(t *testing.T) {
	ts := newTestTokenService(t)

	t1, _ := ts.GenerateAccess(alice)
	t2, _ := ts.GenerateAccess(alice)
	if t1 == t2 {
		t.Error("two tokens for the same user in the same second are identical")
	}
}

func TestGenerate_NilUser(t *testing.T) {
	ts := newTestTokenService(t)
	if _, err := ts.GenerateAccess(nil); err == nil {
		t.Fatal("GenerateAccess(nil) should fail")
	}
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t)
	other, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!", time.Minute, time.Hour)

	expired, err := ts.generate(alice, AccessToken, -time.Second)
	if err != nil {
		t.Fatalf("generate() error = %v", err)
	}
	valid, _ := ts.GenerateAccess(alice)
	foreign, _ := other.GenerateAccess(alice)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"tampered signature", valid[:len(valid)-3] + "xxx"},
		{"signed with another secret", foreign},
		{"empty", ""},
		{"garbage", "not.a.jwt.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ts.Validate(tt.token, AccessToken); err == nil {
				t.Fatal("Validate() should have failed")
			}
		})
	}
}

func TestClaimsUserID_BadSubject(t *testing.T) {
	for _, sub := range []string{"", "abc", "0", "-3"} {
		c := &Claims{}
		c.Subject = sub
		if _, err := c.UserID(); err == nil {
			t.Errorf("UserID() with subject %q should fail", sub)
		}
	}
}
