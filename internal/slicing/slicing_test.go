package slicing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestParse_Empty(t *testing.T) {
	for _, expr := range []string{"", "   ", "\t"} {
		idx, err := Parse(expr)
		require.NoError(t, err)
		assert.Empty(t, idx)
		assert.True(t, idx.IsIdentity())
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want Index
	}{
		{"single int", "2", Index{{Kind: KindInt, Value: 2}}},
		{"negative int", "-1", Index{{Kind: KindInt, Value: -1}}},
		{"full range", ":", Index{{Kind: KindRange}}},
		{"range", "10:20", Index{{Kind: KindRange, Start: intp(10), Stop: intp(20)}}},
		{"range with step", "1:9:2", Index{{Kind: KindRange, Start: intp(1), Stop: intp(9), Step: intp(2)}}},
		{"step only", "::-1", Index{{Kind: KindRange, Step: intp(-1)}}},
		{"two axes", "10:20, :", Index{
			{Kind: KindRange, Start: intp(10), Stop: intp(20)},
			{Kind: KindRange},
		}},
		{"brackets", "[1:3, 0]", Index{
			{Kind: KindRange, Start: intp(1), Stop: intp(3)},
			{Kind: KindInt, Value: 0},
		}},
		{"ellipsis", "..., 2", Index{{Kind: KindEllipsis}, {Kind: KindInt, Value: 2}}},
		{"empty item", "1:3,", Index{{Kind: KindRange, Start: intp(1), Stop: intp(3)}, {Kind: KindRange}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"letters", "a:b"},
		{"float", "1.5"},
		{"too many colons", "1:2:3:4"},
		{"zero step", "::0"},
		{"two ellipses", "...,..."},
		{"unbalanced bracket", "[1:2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.expr)
			require.Error(t, err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "want *ParseError, got %T", err)
			assert.Equal(t, tt.expr, pe.Expr)
		})
	}
}

func TestIndex_String(t *testing.T) {
	idx, err := Parse("[ 1:3 , ::2, -1, ... ]")
	require.NoError(t, err)
	assert.Equal(t, "1:3, ::2, -1, ...", idx.String())

	again, err := Parse(idx.String())
	require.NoError(t, err)
	assert.Equal(t, idx, again)
}

func TestIndex_IsIdentity(t *testing.T) {
	for expr, want := range map[string]bool{
		":, :":   true,
		"...":    true,
		"::1":    true,
		"0":      false,
		"1:":     false,
		"::-1":   false,
		"..., :": true,
	} {
		idx, err := Parse(expr)
		require.NoError(t, err)
		assert.Equal(t, want, idx.IsIdentity(), expr)
	}
}
