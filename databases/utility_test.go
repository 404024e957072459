package databases

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		page      int
		wantLimit int64
		wantSkip  int64
	}{
		{"first page", 10, 1, 10, 0},
		{"third page", 10, 3, 10, 20},
		{"defaults", 0, 0, DefaultPageSize, 0},
		{"negative page", 5, -2, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Paginate(tt.limit, tt.page)
			assert.Equal(t, tt.wantLimit, *opts.Limit)
			assert.Equal(t, tt.wantSkip, *opts.Skip)
		})
	}
}
