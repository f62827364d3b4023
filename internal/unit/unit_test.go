package unit

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeApply(t *testing.T) {
	input := "def f():\n    '''doc'''\n    return 1  # ok"

	assert.Equal(t, "def f():\n    \n    return 1", ModeAll.Apply(input))
	assert.Equal(t, "def f():\n    '''doc'''\n    return 1", ModeHashOnly.Apply(input))
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, ModeHashOnly, ModeFor(true))
	assert.Equal(t, ModeAll, ModeFor(false))
	assert.Equal(t, "hash-only", ModeHashOnly.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
}

func TestTransform(t *testing.T) {
	units := []Unit{
		{ID: "0", Text: "# header\nx = 1  # one"},
		{ID: "1", Text: "y = 2"},
	}

	results := Transform(ModeAll, units)
	require.Len(t, results, 2)

	assert.Equal(t, Result{ID: "0", Text: "x = 1", Changed: true, LinesRemoved: 1}, results[0])
	assert.Equal(t, Result{ID: "1", Text: "y = 2", Changed: false, LinesRemoved: 0}, results[1])
}

func TestTransformConcurrentMatchesTransform(t *testing.T) {
	units := make([]Unit, 50)
	for i := range units {
		units[i] = Unit{ID: fmt.Sprint(i), Text: fmt.Sprintf("# cell %d\nv%d = %d  # value", i, i, i)}
	}

	for _, limit := range []int{0, 1, 4} {
		t.Run(fmt.Sprintf("limit %d", limit), func(t *testing.T) {
			got, err := TransformConcurrent(context.Background(), ModeHashOnly, units, limit)
			require.NoError(t, err)
			assert.Equal(t, Transform(ModeHashOnly, units), got)
		})
	}
}

func TestTransformConcurrentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TransformConcurrent(ctx, ModeAll, []Unit{{ID: "0", Text: "x"}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name     string
		texts    []string
		expected string
	}{
		{name: "none", texts: nil, expected: ""},
		{name: "single", texts: []string{"a = 1"}, expected: "a = 1"},
		{
			name:     "banner between units in order",
			texts:    []string{"a = 1", "b = 2", "c = 3"},
			expected: "a = 1\n\n# ---- New Cell ----\n\nb = 2\n\n# ---- New Cell ----\n\nc = 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Join(tt.texts))
		})
	}
}

func TestTexts(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Texts([]Result{{Text: "a"}, {Text: "b"}}))
}
