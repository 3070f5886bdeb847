package tlsf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFfsFls(t *testing.T) {
	tests := []struct {
		w       uint32
		wantFfs int
		wantFls int
	}{
		{0, -1, -1},
		{1, 0, 0},
		{2, 1, 1},
		{3, 0, 1},
		{1 << 31, 31, 31},
		{0x80000001, 0, 31},
		{0x0f0f0f0f, 0, 27},
	}
	for _, tt := range tests {
		require.Equal(t, tt.wantFfs, ffs(tt.w), "ffs(%#x)", tt.w)
		require.Equal(t, tt.wantFls, fls(tt.w), "fls(%#x)", tt.w)
	}
}

func TestFlsSize(t *testing.T) {
	tests := []struct {
		size uint64
		want int
	}{
		{0, -1},
		{1, 0},
		{1 << 32, 32},
		{1<<32 + 1, 32},
		{1 << 40, 40},
		{(1 << 40) - 1, 39},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, flsSize(tt.size), "flsSize(%#x)", tt.size)
	}
}
