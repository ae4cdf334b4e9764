// Package utils provides the token codec and password hashing helpers
// shared by the service and middleware layers.
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type discriminators.  Every issued JWT carries one in its "typ"
// claim so a refresh token can never be replayed as an access token or
// vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Codec verification failures.  Callers need to tell these apart to map
// them onto the right HTTP status (expired vs structurally invalid).
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenWrongType = errors.New("token type mismatch")
)

// TokenClaims is the claim set signed into every token: subject (user
// id), role, type discriminator, issued-at and expiry.
type TokenClaims struct {
	Role string `json:"role"`
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Token is a signed JWT string together with its expiry, returned to
// callers so responses can expose when the credential lapses.
type Token struct {
	Raw string    // the serialized JWT
	Exp time.Time // UTC expiration time
}

// TokenClaimsOut is the verified view of a parsed token.  The subject
// has been decoded into a numeric user id; the role string is passed
// through untouched for the caller to validate against its enum.
type TokenClaimsOut struct {
	UserID    uint64
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewToken builds and signs an HS256 JWT for a user.  The token type
// and TTL are parameters so the same codec serves both access and
// refresh issuance; call sites never hardcode either.
func NewToken(secret string, userID uint64, role, typ string, ttl time.Duration) (Token, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := TokenClaims{
		Role: role,
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return Token{}, err
	}
	return Token{Raw: signed, Exp: exp}, nil
}

// ParseToken verifies signature and expiry of a raw token and demands
// the given type discriminator.  It fails with exactly one of
// ErrTokenExpired, ErrTokenWrongType or ErrTokenMalformed; anything not
// recognizably expired collapses to malformed so callers never leak
// parser internals.
func ParseToken(secret, raw, wantTyp string) (TokenClaimsOut, error) {
	var claims TokenClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC; an attacker
		// must not be able to pick the verification algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenMalformed
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaimsOut{}, ErrTokenExpired
		}
		return TokenClaimsOut{}, ErrTokenMalformed
	}
	if !tok.Valid {
		return TokenClaimsOut{}, ErrTokenMalformed
	}
	if claims.Type != wantTyp {
		return TokenClaimsOut{}, ErrTokenWrongType
	}
	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || uid == 0 {
		return TokenClaimsOut{}, ErrTokenMalformed
	}
	out := TokenClaimsOut{UserID: uid, Role: claims.Role}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// HashToken returns the SHA-256 hash of a raw token string as hex.
// Only the hash is stored in the database, so a leaked table cannot be
// used to replay sessions.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
