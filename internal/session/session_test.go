package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	m, err := NewManager([]byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Error("NewManager() with empty secret succeeded")
	}
	if _, err := NewManager([]byte("s"), 0); err == nil {
		t.Error("NewManager() with zero ttl succeeded")
	}
}

func TestIssueAndParse(t *testing.T) {
	m := newTestManager(t)

	token, expires, err := m.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if strings.Contains(token, "alice") {
		t.Error("token contains the plain username")
	}
	if time.Until(expires) <= 59*time.Minute {
		t.Errorf("expires = %v, want about an hour from now", expires)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.Name() != "alice" {
		t.Errorf("Name() = %q, want alice", claims.Name())
	}
	if claims.ID == "" {
		t.Error("token has no ID")
	}
	if r := m.Remaining(claims); r <= 0 || r > time.Hour {
		t.Errorf("Remaining() = %v", r)
	}

	other, _, err := m.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	otherClaims, err := m.Parse(other)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if otherClaims.ID == claims.ID {
		t.Error("two tokens share an ID")
	}
}

func TestIssueRequiresName(t *testing.T) {
	m := newTestManager(t)
	if _, _, err := m.Issue("  "); err == nil {
		t.Error("Issue() with blank name succeeded")
	}
}

func TestParseRejects(t *testing.T) {
	m := newTestManager(t)
	valid, _, err := m.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	other, err := NewManager([]byte("other-secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	forged, _, err := other.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	expired := newTestManager(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := expired.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "alice",
		"jti": "x",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"tampered", valid[:len(valid)-2] + "xx"},
		{"wrong secret", forged},
		{"expired", stale},
		{"alg none", unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}
	b, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}
	if len(a) != 32 {
		t.Errorf("len = %d, want 32", len(a))
	}
	if string(a) == string(b) {
		t.Error("GenerateSecret() returned the same bytes twice")
	}
}
