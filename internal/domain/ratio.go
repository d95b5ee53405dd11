package domain

import (
	"math"
	"time"
)

// Default analysis bounds: peak activity is established before October 2020,
// recent activity within the window between then and early February 2021.
var (
	DefaultPeakCutoff   = time.Date(2020, time.October, 1, 0, 0, 0, 0, time.UTC)
	DefaultRecentCutoff = time.Date(2021, time.February, 6, 0, 0, 0, 0, time.UTC)
)

// DefaultRecentSpan is how many trailing positions of the comparison window
// feed the recent average, mirroring the smoothing window width.
const DefaultRecentSpan = 7

// Windows bounds the peak-ratio analysis. The peak is taken strictly before
// PeakBefore; the comparison window is strictly between RecentAfter and
// RecentBefore; RecentSpan caps how many of its trailing positions are
// averaged.
type Windows struct {
	PeakBefore   time.Time
	RecentAfter  time.Time
	RecentBefore time.Time
	RecentSpan   int
}

// DefaultWindows returns the standard analysis bounds.
func DefaultWindows() Windows {
	return Windows{
		PeakBefore:   DefaultPeakCutoff,
		RecentAfter:  DefaultPeakCutoff,
		RecentBefore: DefaultRecentCutoff,
		RecentSpan:   DefaultRecentSpan,
	}
}

// Ratio is recent smoothed activity relative to the historical smoothed
// peak. Value carries the safe-division policy: 0 when the peak is zero or
// undefined, or the recent average is undefined. Defined distinguishes a
// true zero (data present, no activity) from insufficient history; persisted
// output carries Value only, so both cases write 0.
type Ratio struct {
	Value   float64
	Defined bool
}

// PeakRatio computes recent÷peak for one region. smoothed must align
// index-for-index with days (see Smooth); NaN entries are excluded from
// both the peak and the recent average.
//
// The peak is the maximum defined smoothed value dated strictly before
// w.PeakBefore. The recent average is the mean of the defined values among
// the last w.RecentSpan chronological positions whose dates fall strictly
// between w.RecentAfter and w.RecentBefore. That is a positional tail of
// the date-filtered subsequence, not a date-range recomputation; when fewer
// positions exist, the mean is over however many there are.
func PeakRatio(days []Day, smoothed []float64, w Windows) Ratio {
	peak, peakOK := peakValue(days, smoothed, w.PeakBefore)
	recent, recentOK := recentAverage(days, smoothed, w)

	if !peakOK || !recentOK || peak == 0 {
		return Ratio{Value: 0, Defined: peakOK && recentOK}
	}
	return Ratio{Value: recent / peak, Defined: true}
}

// peakValue finds the maximum defined smoothed value before the cutoff.
// The found flag is false when no defined value exists in the window.
func peakValue(days []Day, smoothed []float64, before time.Time) (float64, bool) {
	var peak float64
	var found bool
	for i, d := range days {
		if !d.Date.Before(before) || math.IsNaN(smoothed[i]) {
			continue
		}
		if !found || smoothed[i] > peak {
			peak = smoothed[i]
			found = true
		}
	}
	return peak, found
}

// recentAverage means the defined values among the trailing RecentSpan
// positions of the comparison window. days are date-sorted, so positional
// order is chronological order.
func recentAverage(days []Day, smoothed []float64, w Windows) (float64, bool) {
	var window []int
	for i, d := range days {
		if d.Date.After(w.RecentAfter) && d.Date.Before(w.RecentBefore) {
			window = append(window, i)
		}
	}
	if len(window) > w.RecentSpan {
		window = window[len(window)-w.RecentSpan:]
	}

	var sum float64
	var n int
	for _, i := range window {
		if math.IsNaN(smoothed[i]) {
			continue
		}
		sum += smoothed[i]
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
