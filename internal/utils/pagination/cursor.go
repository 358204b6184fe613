package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidToken is returned by Decode for tokens it did not produce.
var ErrInvalidToken = errors.New("invalid pagination token")

// DefaultPageSize is used when a caller does not ask for a specific size.
const DefaultPageSize = 20

// MaxPageSize bounds caller supplied sizes.
const MaxPageSize = 100

// Cursor is the opaque pagination state we encode/decode.
// ActorID + CreatedUnix (in millis) establish a stable keyset position.
type Cursor struct {
	ActorID     string `json:"actor_id"`
	CreatedUnix int64  `json:"created_unix,omitempty"`
}

// IsZero reports whether the cursor points at the first page.
func (c Cursor) IsZero() bool {
	return c.ActorID == "" || c.CreatedUnix == 0
}

// CreatedAt returns the cursor timestamp.
func (c Cursor) CreatedAt() time.Time {
	return time.UnixMilli(c.CreatedUnix).UTC()
}

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 string into a Cursor.
// Empty token → empty cursor (first page).
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidToken
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, ErrInvalidToken
	}
	return c, nil
}

// ClampLimit maps a requested page size into [1, MaxPageSize].
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultPageSize
	case n > MaxPageSize:
		return MaxPageSize
	default:
		return n
	}
}
