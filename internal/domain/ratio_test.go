package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func daysOn(dates ...string) []Day {
	out := make([]Day, len(dates))
	for i, s := range dates {
		out[i] = Day{Date: mustDate(s)}
	}
	return out
}

func TestPeakRatio_CumulativeToRatioScenario(t *testing.T) {
	// Region with cumulative counts [0,10,10,40] over four days, smoothed
	// with a window of two, peak taken from the first two days and the
	// recent average from the last position of days three and four.
	rows := []RawRecord{
		rec("X", "X County", "X State", "2020-03-01", "0"),
		rec("X", "X County", "X State", "2020-03-02", "10"),
		rec("X", "X County", "X State", "2020-03-03", "10"),
		rec("X", "X County", "X State", "2020-03-04", "40"),
	}

	roster, err := Normalize(rows)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	require.Equal(t, []float64{0, 10, 0, 30}, increments(roster[0]))

	identity := RuleSet{Name: "reported", Default: 1}
	smoothed := Smooth(identity.Apply(roster[0].Days), 2)

	require.True(t, math.IsNaN(smoothed[0]))
	require.Equal(t, []float64{5, 5, 15}, smoothed[1:])

	got := PeakRatio(roster[0].Days, smoothed, Windows{
		PeakBefore:   mustDate("2020-03-03"),
		RecentAfter:  mustDate("2020-03-02"),
		RecentBefore: mustDate("2020-03-05"),
		RecentSpan:   1,
	})

	assert.Equal(t, 3.0, got.Value, "peak 5, recent 15")
	assert.True(t, got.Defined)
}

func TestPeakRatio_ZeroVarianceIsZeroNotError(t *testing.T) {
	days := daysOn("2020-03-01", "2020-03-02", "2020-10-15", "2020-10-16")
	smoothed := []float64{0, 0, 0, 0}

	got := PeakRatio(days, smoothed, Windows{
		PeakBefore:   DefaultPeakCutoff,
		RecentAfter:  DefaultPeakCutoff,
		RecentBefore: DefaultRecentCutoff,
		RecentSpan:   7,
	})

	assert.Equal(t, 0.0, got.Value)
	assert.True(t, got.Defined, "peak and recent both present, just zero")
}

func TestPeakRatio_EmptyComparisonWindow(t *testing.T) {
	// All observations predate the comparison window: present in output with
	// ratio 0, flagged as insufficient history.
	days := daysOn("2020-03-01", "2020-03-02", "2020-03-03")
	smoothed := []float64{1, 2, 3}

	got := PeakRatio(days, smoothed, DefaultWindows())

	assert.Equal(t, 0.0, got.Value)
	assert.False(t, got.Defined)
}

func TestPeakRatio_UndefinedPeak(t *testing.T) {
	// Only undefined values before the cutoff.
	days := daysOn("2020-03-01", "2020-03-02", "2020-11-01", "2020-11-02")
	smoothed := []float64{math.NaN(), math.NaN(), 4, 6}

	got := PeakRatio(days, smoothed, DefaultWindows())

	assert.Equal(t, 0.0, got.Value)
	assert.False(t, got.Defined)
}

func TestPeakRatio_ZeroPeakWithRecentActivity(t *testing.T) {
	days := daysOn("2020-03-01", "2020-11-01")
	smoothed := []float64{0, 8}

	got := PeakRatio(days, smoothed, DefaultWindows())

	assert.Equal(t, 0.0, got.Value, "safe division: zero peak never divides")
	assert.True(t, got.Defined)
}

func TestPeakRatio_ExcludesUndefinedFromPeak(t *testing.T) {
	days := daysOn("2020-03-01", "2020-03-02", "2020-03-03", "2020-11-01")
	smoothed := []float64{math.NaN(), 2, 6, 3}

	got := PeakRatio(days, smoothed, DefaultWindows())

	assert.InDelta(t, 0.5, got.Value, 1e-12, "peak is 6, recent is 3")
	assert.True(t, got.Defined)
}

func TestPeakRatio_RecentUsesTrailingPositions(t *testing.T) {
	// Ten positions inside the comparison window; only the last seven count.
	dates := []string{
		"2020-10-10", "2020-10-11", "2020-10-12", "2020-10-13", "2020-10-14",
		"2020-10-15", "2020-10-16", "2020-10-17", "2020-10-18", "2020-10-19",
	}
	days := append(daysOn("2020-05-01"), daysOn(dates...)...)
	smoothed := append([]float64{10}, []float64{100, 100, 100, 7, 7, 7, 7, 7, 7, 7}...)

	got := PeakRatio(days, smoothed, DefaultWindows())

	// The three leading 100s fall outside the trailing seven positions.
	assert.InDelta(t, 0.7, got.Value, 1e-12)
	assert.True(t, got.Defined)
}

func TestPeakRatio_FewerPositionsThanSpan(t *testing.T) {
	days := daysOn("2020-05-01", "2020-10-10", "2020-10-11")
	smoothed := []float64{10, 4, 6}

	got := PeakRatio(days, smoothed, DefaultWindows())

	assert.InDelta(t, 0.5, got.Value, 1e-12, "mean of the two available positions")
	assert.True(t, got.Defined)
}

func TestPeakRatio_ExcludesUndefinedFromRecent(t *testing.T) {
	days := daysOn("2020-05-01", "2020-10-10", "2020-10-11", "2020-10-12")
	smoothed := []float64{10, math.NaN(), math.NaN(), 5}

	got := PeakRatio(days, smoothed, DefaultWindows())

	assert.InDelta(t, 0.5, got.Value, 1e-12, "undefined entries drop out of the mean")
	assert.True(t, got.Defined)
}

func TestPeakRatio_WindowBoundsAreStrict(t *testing.T) {
	// Observations exactly on the cutoffs belong to neither window.
	days := daysOn("2020-09-30", "2020-10-01", "2020-10-02", "2021-02-06")
	smoothed := []float64{2, 100, 8, 100}

	got := PeakRatio(days, smoothed, DefaultWindows())

	assert.InDelta(t, 4.0, got.Value, 1e-12, "peak 2 from 09-30, recent 8 from 10-02")
	assert.True(t, got.Defined)
}

func TestPeakRatio_NoObservationsAtAll(t *testing.T) {
	got := PeakRatio(nil, nil, DefaultWindows())

	assert.Equal(t, 0.0, got.Value)
	assert.False(t, got.Defined)
}
