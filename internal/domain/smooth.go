package domain

import "math"

// DefaultSmoothingWindow is the trailing moving-average width in
// observations. Seven observations cancel day-of-week reporting effects.
const DefaultSmoothingWindow = 7

// Smooth computes the trailing moving average of values. The value at
// position i is the arithmetic mean of positions [i-window+1, i] when all of
// them exist; earlier positions are NaN. Insufficient history is an explicit
// undefined value, never zero and never a partial average. The output has
// the same length and date alignment as the input.
//
// Smooth sees exactly one region's series; callers must never concatenate
// regions, so the window restarts per region by construction. The window
// must be positive (config validation enforces this). Runs in O(n) via a
// running sum.
func Smooth(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}
