package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size used when the caller does not set one.
	DefaultLimit = 25
	// MaxLimit caps how many rows a single page may request.
	MaxLimit = 100
)

// Params carries cursor pagination inputs through controllers and services.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor identifies the last row of the previous page. Ordering is
// (created_at DESC, id DESC), so the id breaks ties between rows created in
// the same instant.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps the requested limit into [1, MaxLimit], substituting
// DefaultLimit for zero or negative values.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer returns the normalized limit plus one row, which the caller
// uses to detect whether another page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// Encode serializes a cursor into an opaque base64 token.
func Encode(c Cursor) string {
	raw := fmt.Sprintf("%s|%s", c.CreatedAt.UTC().Format(time.RFC3339Nano), c.ID)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// Decode parses a cursor token. An empty token yields a nil cursor, meaning
// start from the first page.
func Decode(token string) (*Cursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: ts, ID: id}, nil
}

// Trim drops the buffer row fetched by LimitWithBuffer. It returns the page
// capped at limit and whether a following page exists.
func Trim[T any](rows []T, limit int) ([]T, bool) {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return rows, false
	}
	return rows[:limit], true
}
