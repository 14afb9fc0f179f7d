package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is a keyset position: the (created_at, id) of the last row served.
// Rows are listed newest first, so the next page holds rows strictly older.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Encode renders the cursor as an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw := strconv.FormatInt(c.CreatedAt.UTC().UnixNano(), 10) + "." + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor decodes a token produced by Encode. A blank token means first
// page and yields nil.
func ParseCursor(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	nanos, id, ok := strings.Cut(string(decoded), ".")
	if !ok {
		return nil, ErrInvalidCursor
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &Cursor{CreatedAt: time.Unix(0, n).UTC(), ID: parsedID}, nil
}

// NormalizeLimit clamps limit into [1, MaxLimit], using DefaultLimit when unset.
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

// LimitWithBuffer asks for one extra row so the caller can tell whether a
// next page exists without counting.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// TrimPage cuts rows fetched with LimitWithBuffer back to the page size and
// returns the cursor of the last kept row when more rows remain.
func TrimPage[T any](rows []T, limit int, position func(T) Cursor) ([]T, *Cursor) {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return rows, nil
	}
	rows = rows[:limit]
	next := position(rows[limit-1])
	return rows, &next
}

// PageParams is numbered paging for order listings, where the caller needs
// a total.
type PageParams struct {
	Page     int
	PageSize int
}

func (p PageParams) Normalize() PageParams {
	p.Page = max(p.Page, 1)
	p.PageSize = NormalizeLimit(p.PageSize)
	return p
}

func (p PageParams) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// TotalPages is ceil(total / pageSize), zero for an empty result.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 {
		return 0
	}
	size := int64(NormalizeLimit(pageSize))
	return int((total + size - 1) / size)
}
