package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name       string
		page       int
		limit      int
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", 0, 0, 1, DefaultLimit, 0},
		{"negative page", -3, 10, 1, 10, 0},
		{"limit capped", 1, 1000, 1, MaxLimit, 0},
		{"second page", 2, 20, 2, 20, 20},
		{"normal", 3, 50, 3, 50, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Normalize(tc.page, tc.limit)
			assert.Equal(t, tc.wantPage, p.Page)
			assert.Equal(t, tc.wantLimit, p.Limit)
			assert.Equal(t, tc.wantOffset, p.Offset)
		})
	}
}
