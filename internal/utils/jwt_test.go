package utils

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "unit-test-secret"

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tok, err := NewToken(testSecret, 42, "admin", TokenTypeAccess, time.Hour)
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	claims, err := ParseToken(testSecret, tok.Raw, TokenTypeAccess)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("subject: got %d, want 42", claims.UserID)
	}
	if claims.Role != "admin" {
		t.Fatalf("role: got %q, want admin", claims.Role)
	}
	if !claims.ExpiresAt.After(time.Now()) {
		t.Fatalf("expiry should be in the future")
	}
}

func TestParseToken_WrongType(t *testing.T) {
	t.Parallel()

	access, err := NewToken(testSecret, 7, "user", TokenTypeAccess, time.Hour)
	if err != nil {
		t.Fatalf("NewToken access: %v", err)
	}
	refresh, err := NewToken(testSecret, 7, "user", TokenTypeRefresh, time.Hour)
	if err != nil {
		t.Fatalf("NewToken refresh: %v", err)
	}

	if _, err := ParseToken(testSecret, access.Raw, TokenTypeRefresh); !errors.Is(err, ErrTokenWrongType) {
		t.Fatalf("access token on refresh path: got %v, want ErrTokenWrongType", err)
	}
	if _, err := ParseToken(testSecret, refresh.Raw, TokenTypeAccess); !errors.Is(err, ErrTokenWrongType) {
		t.Fatalf("refresh token on access path: got %v, want ErrTokenWrongType", err)
	}
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	tok, err := NewToken(testSecret, 7, "user", TokenTypeAccess, -time.Minute)
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	if _, err := ParseToken(testSecret, tok.Raw, TokenTypeAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
}

func TestParseToken_Malformed(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"garbage":     "not.a.jwt",
		"empty":       "",
		"two-parts":   "abc.def",
		"whitespace":  "   ",
		"json-header": `{"alg":"none"}`,
	}
	for name, raw := range cases {
		if _, err := ParseToken(testSecret, raw, TokenTypeAccess); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("%s: got %v, want ErrTokenMalformed", name, err)
		}
	}
}

func TestParseToken_TamperedSignature(t *testing.T) {
	t.Parallel()

	tok, err := NewToken(testSecret, 7, "user", TokenTypeAccess, time.Hour)
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}

	// Flip the last signature character.
	raw := tok.Raw
	last := raw[len(raw)-1]
	repl := byte('A')
	if last == 'A' {
		repl = 'B'
	}
	tampered := raw[:len(raw)-1] + string(repl)
	if _, err := ParseToken(testSecret, tampered, TokenTypeAccess); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("tampered signature: got %v, want ErrTokenMalformed", err)
	}

	if _, err := ParseToken("a-different-secret", raw, TokenTypeAccess); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("wrong secret: got %v, want ErrTokenMalformed", err)
	}
}

func TestHashToken(t *testing.T) {
	t.Parallel()

	h1 := HashToken("some-refresh-token")
	h2 := HashToken("some-refresh-token")
	if h1 != h2 {
		t.Fatalf("hash must be deterministic")
	}
	if len(h1) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(h1))
	}
	if strings.Contains(h1, "some-refresh-token") {
		t.Fatalf("hash leaks the raw token")
	}
	if HashToken("other") == h1 {
		t.Fatalf("different inputs should not collide")
	}
}
