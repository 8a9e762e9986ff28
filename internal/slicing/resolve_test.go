package slicing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Ranges(t *testing.T) {
	tests := []struct {
		expr      string
		n         int
		wantStart int
		wantStep  int
		wantCount int
	}{
		{":", 5, 0, 1, 5},
		{"1:3", 5, 1, 1, 2},
		{"1:", 5, 1, 1, 4},
		{":-1", 5, 0, 1, 4},
		{"-2:", 5, 3, 1, 2},
		{"::2", 5, 0, 2, 3},
		{"::-1", 5, 4, -1, 5},
		{"3:0:-1", 5, 3, -1, 3},
		{"10:20", 5, 5, 1, 0},
		{"-100:100", 5, 0, 1, 5},
		{"4:1", 5, 4, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			idx, err := Parse(tt.expr)
			require.NoError(t, err)
			sel, err := idx.Resolve([]int{tt.n})
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, sel.Count[0])
			if tt.wantCount > 0 {
				assert.Equal(t, tt.wantStart, sel.Start[0])
				assert.Equal(t, tt.wantStep, sel.Step[0])
			}
			assert.True(t, sel.Keep[0])
		})
	}
}

func TestResolve_IntDropsAxis(t *testing.T) {
	idx, err := Parse("-1")
	require.NoError(t, err)
	sel, err := idx.Resolve([]int{4, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, sel.Start[0])
	assert.False(t, sel.Keep[0])
	assert.Equal(t, []int{3}, sel.Shape())
}

func TestResolve_Ellipsis(t *testing.T) {
	idx, err := Parse("..., 0:2")
	require.NoError(t, err)
	sel, err := idx.Resolve([]int{4, 3, 5})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 3, 2}, sel.Shape())
}

func TestResolve_Errors(t *testing.T) {
	idx, err := Parse("5")
	require.NoError(t, err)
	_, err = idx.Resolve([]int{4, 3})
	assert.ErrorContains(t, err, "out of bounds")

	idx, err = Parse(":,:,:")
	require.NoError(t, err)
	_, err = idx.Resolve([]int{4, 3})
	assert.ErrorContains(t, err, "too many indices")
}
