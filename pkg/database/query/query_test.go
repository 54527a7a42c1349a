package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginateQuery(t *testing.T) {
	base := "SELECT * FROM t WHERE (owner = $1)"

	for _, tc := range []struct {
		cursor    Cursor
		limit     uint64
		direction Ordering
		query     string
		args      []interface{}
	}{
		{
			direction: Ascending,
			query:     base + " ORDER BY id ASC",
			args:      []interface{}{"o"},
		},
		{
			cursor:    ToCursor(10),
			limit:     5,
			direction: Ascending,
			query:     base + " AND id > $2 ORDER BY id ASC LIMIT $3",
			args:      []interface{}{"o", uint64(10), uint64(5)},
		},
		{
			cursor:    ToCursor(10),
			direction: Descending,
			query:     base + " AND id < $2 ORDER BY id DESC",
			args:      []interface{}{"o", uint64(10)},
		},
		{
			cursor:    EmptyCursor,
			limit:     7,
			direction: Descending,
			query:     base + " ORDER BY id DESC LIMIT $2",
			args:      []interface{}{"o", uint64(7)},
		},
	} {
		query, args := PaginateQuery(base, []interface{}{"o"}, tc.cursor, tc.limit, tc.direction)
		assert.Equal(t, tc.query, query)
		assert.Equal(t, tc.args, args)
	}
}

func TestCursor(t *testing.T) {
	assert.EqualValues(t, 0, EmptyCursor.ToUint64())
	assert.EqualValues(t, 42, ToCursor(42).ToUint64())

	assert.True(t, Ascending.After(5, nil))
	assert.True(t, Ascending.After(5, ToCursor(4)))
	assert.False(t, Ascending.After(4, ToCursor(4)))
	assert.True(t, Descending.After(3, ToCursor(4)))
	assert.False(t, Descending.After(5, ToCursor(4)))

	assert.Equal(t, "asc", Ascending.String())
	assert.Equal(t, "desc", Descending.String())
}
