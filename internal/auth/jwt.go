// Package auth verifies bearer tokens issued by the account service and
// carries the caller's identity through request contexts.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var ErrUnauthorized = errors.New("unauthorized")

// Claims is what the match service reads from an access token. The account
// service puts the user id in "userId"; "sub" is accepted as a fallback.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify returns the caller's user id for a valid token.
func (v *Verifier) Verify(raw string) (string, error) {
	if len(v.secret) == 0 || strings.TrimSpace(raw) == "" {
		return "", ErrUnauthorized
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || token == nil || !token.Valid {
		return "", ErrUnauthorized
	}

	userID := strings.TrimSpace(claims.UserID)
	if userID == "" {
		userID = strings.TrimSpace(claims.Subject)
	}
	if userID == "" {
		return "", ErrUnauthorized
	}
	return userID, nil
}

// Sign issues a token for userID. Used by the seed tool and tests.
func (v *Verifier) Sign(userID string, ttl time.Duration) (string, error) {
	if len(v.secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	now := v.now().UTC()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

type contextKey struct{}

// WithIdentity stores the authenticated user id on ctx.
func WithIdentity(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// IdentityFromContext returns the user id stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}
