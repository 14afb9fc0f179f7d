package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 30, 0, 123456789, time.FixedZone("WIB", 7*3600))
	c := Cursor{CreatedAt: at, ID: uuid.New()}

	token := c.Encode()
	assert.NotContains(t, token, "=")

	parsed, err := ParseCursor(token)
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.True(t, parsed.CreatedAt.Equal(at))
	assert.Equal(t, c.ID, parsed.ID)
}

func TestParseCursorBlankIsFirstPage(t *testing.T) {
	parsed, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, parsed)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	enc := base64.RawURLEncoding.EncodeToString
	for _, token := range []string{
		"%%%",
		enc([]byte("no-separator")),
		enc([]byte("abc." + uuid.NewString())),
		enc([]byte("1700000000.not-a-uuid")),
	} {
		_, err := ParseCursor(token)
		assert.ErrorIs(t, err, ErrInvalidCursor, token)
	}
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-4))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	assert.Equal(t, 8, LimitWithBuffer(7))
}

type row struct {
	at time.Time
	id uuid.UUID
}

func TestTrimPage(t *testing.T) {
	base := time.Now().UTC()
	rows := make([]row, 4)
	for i := range rows {
		rows[i] = row{at: base.Add(-time.Duration(i) * time.Minute), id: uuid.New()}
	}
	position := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page, next := TrimPage(rows, 3, position)
	require.Len(t, page, 3)
	require.NotNil(t, next)
	assert.Equal(t, rows[2].id, next.ID)

	page, next = TrimPage(rows[:3], 3, position)
	assert.Len(t, page, 3)
	assert.Nil(t, next)
}

func TestPageParams(t *testing.T) {
	p := PageParams{Page: 0, PageSize: 500}.Normalize()
	assert.Equal(t, PageParams{Page: 1, PageSize: MaxLimit}, p)
	assert.Equal(t, 40, PageParams{Page: 3, PageSize: 20}.Offset())

	assert.Equal(t, 0, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
}
