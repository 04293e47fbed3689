package classify

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySajikDong(t *testing.T) {
	l := DefaultLadder()
	got := l.Classify(0.19, 0.02, 1)
	assert.Equal(t, l.ColorsA()[3], got)
	assert.Equal(t, "hsl(220, 100%, 60%)", got)
}

func TestClassifyBoundaries(t *testing.T) {
	l := DefaultLadder()
	for _, m := range []float64{1, 2.5, 0.4} {
		for i, th := range l.Thresholds() {
			v := th * m
			idx, ok := l.Bucket(v, m)
			require.True(t, ok)
			assert.Equal(t, i, idx, "v=%v m=%v", v, m)
			if i == 0 {
				continue
			}
			assert.Equal(t, l.ColorsA()[i], l.Classify(v, 0, m))
			assert.Equal(t, l.ColorsB()[i], l.Classify(0, v, m))

			below := math.Nextafter(v, math.Inf(-1))
			assert.Equal(t, l.ColorsA()[i-1], l.Classify(below, 0, m), "just below T[%d]*%v", i, m)
		}
	}
}

func TestClassifyLastBucketOpenEnded(t *testing.T) {
	l := DefaultLadder()
	assert.Equal(t, l.ColorsB()[5], l.Classify(0.1, 0.99, 1))
	assert.Equal(t, l.ColorsA()[5], l.Classify(0.9, 0.1, 2.5))
}

func TestClassifyTieIsNeutral(t *testing.T) {
	l := DefaultLadder()
	for _, m := range []float64{1, 2.5} {
		assert.Equal(t, Neutral, l.Classify(0.3, 0.3, m))
	}
	custom, err := NewLadder([]float64{0, 0.5}, []string{"a0", "a1"}, []string{"b0", "b1"}, "#eee")
	require.NoError(t, err)
	assert.Equal(t, "#eee", custom.Classify(0.3, 0.3, 1))
}

func TestClassifyBadInputIsNeutral(t *testing.T) {
	l := DefaultLadder()
	nan := math.NaN()
	assert.Equal(t, Neutral, l.Classify(nan, 0.2, 1))
	assert.Equal(t, Neutral, l.Classify(0.2, nan, 1))
	assert.Equal(t, Neutral, l.Classify(math.Inf(1), 0.2, 1))
	assert.Equal(t, Neutral, l.Classify(0.2, 0.1, 0))
	assert.Equal(t, Neutral, l.Classify(0.2, 0.1, nan))
	// 负值主导：低于 T[0]
	assert.Equal(t, Neutral, l.Classify(-0.1, -0.2, 1))
}

func TestNewLadderErrors(t *testing.T) {
	cases := []struct {
		name string
		th   []float64
		a, b []string
		want error
	}{
		{"empty", nil, nil, nil, ErrEmptyLadder},
		{"mismatch", []float64{0, 0.1}, []string{"x"}, []string{"x", "y"}, ErrLengthMismatch},
		{"descending", []float64{0, 0.2, 0.1}, HSLRamp(1, 3), HSLRamp(2, 3), ErrNotAscending},
		{"duplicate", []float64{0, 0.1, 0.1}, HSLRamp(1, 3), HSLRamp(2, 3), ErrNotAscending},
		{"base", []float64{0.05, 0.1}, HSLRamp(1, 2), HSLRamp(2, 2), ErrBaseNotZero},
		{"nan", []float64{0, math.NaN()}, HSLRamp(1, 2), HSLRamp(2, 2), ErrBadThreshold},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewLadder(c.th, c.a, c.b, "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, c.want), "got %v", err)
		})
	}
}

func TestHSLRamp(t *testing.T) {
	assert.Equal(t, []string{"hsl(0, 100%, 90%)", "hsl(0, 100%, 80%)", "hsl(0, 100%, 70%)"}, HSLRamp(0, 3))
}

func TestLegend(t *testing.T) {
	l := DefaultLadder()
	rows := l.Legend(2.5)
	require.Len(t, rows, 5)
	labels := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = r.Label
	}
	assert.Equal(t, []string{"12%", "25%", "37%", "50%", "62%"}, labels)
	assert.Equal(t, l.ColorsA()[1], rows[0].ColorA)
	assert.Equal(t, l.ColorsB()[5], rows[4].ColorB)

	rows = l.Legend(1)
	assert.Equal(t, "15%", rows[2].Label)
}

func TestClassifyOKWhenRampContainsNeutral(t *testing.T) {
	l, err := NewLadder([]float64{0, 0.1}, []string{"grey", "blue"}, []string{"grey", "red"}, "")
	require.NoError(t, err)

	c, ok := l.ClassifyOK(0.05, 0.01, 1)
	assert.True(t, ok, "bucket 0 colour equals the neutral string but is a real classification")
	assert.Equal(t, "grey", c)

	c, ok = l.ClassifyOK(0.2, 0.2, 1)
	assert.False(t, ok)
	assert.Equal(t, "grey", c)

	_, ok = l.ClassifyOK(0.2, 0.1, 0)
	assert.False(t, ok)
	assert.Equal(t, "blue", l.Classify(0.2, 0.1, 1))
}
