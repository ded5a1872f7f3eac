package safeconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckedSubInt64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b int64
		want int64
		ok   bool
	}{
		{name: "positive", a: 10, b: 3, want: 7, ok: true},
		{name: "to_zero", a: 3, b: 3, want: 0, ok: true},
		{name: "below_zero", a: 2, b: 3, want: -1, ok: true},
		{name: "min_overflow", a: math.MinInt64, b: 1, want: 0, ok: false},
		{name: "max_overflow", a: math.MaxInt64, b: -1, want: 0, ok: false},
		{name: "min_exact", a: math.MinInt64 + 1, b: 1, want: math.MinInt64, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := CheckedSubInt64(tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
