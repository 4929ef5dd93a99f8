package grading

import "math"

// Band maps one contiguous percentage range to a letter grade and GPA value.
// Boundaries are inclusive per band; adjacent bands abut at 0.01 resolution.
type Band struct {
	MinPercentage float64
	MaxPercentage float64
	Letter        string
	GPA           float64
}

// Scale is the ordered percentage-to-letter lookup table. Bands run highest
// first and partition [0,100] with no gaps or overlaps.
type Scale struct {
	bands []Band
}

// DefaultScale returns the standard thirteen-band scale used across the system.
// It is loaded once at startup and injected; consumers never redefine it.
func DefaultScale() Scale {
	return Scale{bands: []Band{
		{MinPercentage: 97, MaxPercentage: 100, Letter: "A+", GPA: 4.0},
		{MinPercentage: 93, MaxPercentage: 96.99, Letter: "A", GPA: 4.0},
		{MinPercentage: 90, MaxPercentage: 92.99, Letter: "A-", GPA: 3.7},
		{MinPercentage: 87, MaxPercentage: 89.99, Letter: "B+", GPA: 3.3},
		{MinPercentage: 83, MaxPercentage: 86.99, Letter: "B", GPA: 3.0},
		{MinPercentage: 80, MaxPercentage: 82.99, Letter: "B-", GPA: 2.7},
		{MinPercentage: 77, MaxPercentage: 79.99, Letter: "C+", GPA: 2.3},
		{MinPercentage: 73, MaxPercentage: 76.99, Letter: "C", GPA: 2.0},
		{MinPercentage: 70, MaxPercentage: 72.99, Letter: "C-", GPA: 1.7},
		{MinPercentage: 67, MaxPercentage: 69.99, Letter: "D+", GPA: 1.3},
		{MinPercentage: 63, MaxPercentage: 66.99, Letter: "D", GPA: 1.0},
		{MinPercentage: 60, MaxPercentage: 62.99, Letter: "D-", GPA: 0.7},
		{MinPercentage: 0, MaxPercentage: 59.99, Letter: "F", GPA: 0.0},
	}}
}

// Bands exposes a copy of the band table, highest band first.
func (s Scale) Bands() []Band {
	out := make([]Band, len(s.bands))
	copy(out, s.bands)
	return out
}

// Lookup maps a percentage to its band. Values outside [0,100] are clamped to
// the boundary bands so rounding artifacts from score division never error.
// NaN and a table miss both fall through to the lowest band.
func (s Scale) Lookup(percentage float64) Band {
	if len(s.bands) == 0 {
		return Band{Letter: "F"}
	}

	if math.IsNaN(percentage) {
		return s.bands[len(s.bands)-1]
	}
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	for _, band := range s.bands {
		if percentage >= band.MinPercentage && percentage <= band.MaxPercentage {
			return band
		}
	}

	return s.bands[len(s.bands)-1]
}

// Round2 rounds to the nearest 0.01, half away from zero.
func Round2(value float64) float64 {
	return math.Floor(value*100+0.5) / 100
}

// Percentage computes the rounded percentage for a score pair.
// Callers validate maxScore > 0 before reaching this point.
func Percentage(score, maxScore float64) float64 {
	return Round2(100 * score / maxScore)
}
