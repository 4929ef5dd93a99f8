package grading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultScalePartitionsWithoutGapsOrOverlaps(t *testing.T) {
	scale := DefaultScale()

	// Walk the full [0,100] range at 0.01 resolution: every value must land in
	// exactly one band.
	for i := 0; i <= 10000; i++ {
		p := float64(i) / 100
		matches := 0
		for _, band := range scale.Bands() {
			if p >= band.MinPercentage-1e-9 && p <= band.MaxPercentage+1e-9 {
				matches++
			}
		}
		require.Equal(t, 1, matches, "percentage %.2f matched %d bands", p, matches)
	}
}

func TestLookupBoundaries(t *testing.T) {
	scale := DefaultScale()

	cases := []struct {
		percentage float64
		letter     string
	}{
		{100, "A+"},
		{97, "A+"},
		{96.99, "A"},
		{90, "A-"},
		{89.99, "B+"},
		{87, "B+"},
		{60, "D-"},
		{59.99, "F"},
		{0, "F"},
	}

	for _, tc := range cases {
		band := scale.Lookup(tc.percentage)
		require.Equal(t, tc.letter, band.Letter, "percentage %.2f", tc.percentage)
	}
}

func TestLookupClampsOutOfRangeValues(t *testing.T) {
	scale := DefaultScale()

	require.Equal(t, "F", scale.Lookup(-5).Letter)
	require.Equal(t, "A+", scale.Lookup(104.2).Letter)
	require.Equal(t, "F", scale.Lookup(math.NaN()).Letter)
}

func TestRound2HalfUp(t *testing.T) {
	require.Equal(t, 87.0, Round2(87.0))
	require.Equal(t, 66.67, Round2(200.0/3.0))
	require.Equal(t, 0.13, Round2(0.125))
	require.Equal(t, 33.33, Round2(100.0/3.0))
}

func TestPercentageDerivation(t *testing.T) {
	require.Equal(t, 87.0, Percentage(87, 100))
	require.Equal(t, "B+", DefaultScale().Lookup(Percentage(87, 100)).Letter)
	require.Equal(t, 100.0, Percentage(50, 50))
	require.Equal(t, 0.0, Percentage(0, 80))
}
