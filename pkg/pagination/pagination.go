// Package pagination implements keyset paging over rows ordered by
// (timestamp DESC, id DESC).
package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// ErrInvalidCursor is returned for cursors this package did not produce.
var ErrInvalidCursor = errors.New("invalid cursor")

// Params is what a list endpoint reads from ?limit= and ?cursor=.
type Params struct {
	Limit  int
	Cursor string
}

// Page is one slice of results plus the cursor for the next slice, if any.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// Cursor points at the last row of a page.
type Cursor struct {
	At time.Time
	ID uuid.UUID
}

// NormalizeLimit maps a missing limit to DefaultLimit and caps at MaxLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer is the row count to fetch: one extra row tells BuildPage
// whether another page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// BuildPage trims rows fetched with LimitWithBuffer down to limit, converts
// them, and sets NextCursor from the last kept row when rows were left over.
func BuildPage[R, T any](rows []R, limit int, cursorOf func(R) Cursor, convert func(R) T) *Page[T] {
	limit = NormalizeLimit(limit)
	page := &Page[T]{}
	if len(rows) > limit {
		rows = rows[:limit]
		page.NextCursor = EncodeCursor(cursorOf(rows[len(rows)-1]))
	}
	page.Items = make([]T, 0, len(rows))
	for _, row := range rows {
		page.Items = append(page.Items, convert(row))
	}
	return page
}

// EncodeCursor renders "<unix nanos>.<uuid>" as unpadded URL-safe base64.
func EncodeCursor(c Cursor) string {
	raw := strconv.FormatInt(c.At.UnixNano(), 10) + "." + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor returns nil for a blank value, meaning "first page".
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	nanos, id, ok := strings.Cut(string(decoded), ".")
	if !ok {
		return nil, ErrInvalidCursor
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp: %v", ErrInvalidCursor, err)
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %v", ErrInvalidCursor, err)
	}
	return &Cursor{At: time.Unix(0, n).UTC(), ID: parsedID}, nil
}
