package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 20, 5},
	}

	for _, tc := range cases {
		p := List(nil, tc.total, 1, tc.limit)
		assert.Equal(t, tc.want, p.Pagination.TotalPages, "total=%d limit=%d", tc.total, tc.limit)
	}
}

func TestEnvelopes(t *testing.T) {
	ok := Success(map[string]string{"id": "1"})
	assert.True(t, ok.Success)
	assert.Empty(t, ok.Error)

	fail := Error("Доступ запрещен")
	assert.False(t, fail.Success)
	assert.Equal(t, "Доступ запрещен", fail.Error)
	assert.Nil(t, fail.Data)
}
