package pagination

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageTrimsExtraRow(t *testing.T) {
	rows := []int{1, 2, 3}

	page, info := Page(rows, 2, func(v int) Cursor { return Cursor{ID: strconv.Itoa(v)} })

	assert.Equal(t, []int{1, 2}, page)
	require.True(t, info.HasMore)

	cursor, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, "2", cursor.ID)
}

func TestPageWithoutMore(t *testing.T) {
	page, info := Page([]int{1}, 2, func(v int) Cursor { return Cursor{} })

	assert.Equal(t, []int{1}, page)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestSizeClamps(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Size())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Size())
	assert.Equal(t, 10, Pagination{PageSize: 10}.Size())
}
