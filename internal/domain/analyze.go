package domain

// AnalyzeSeries computes one peak ratio per rule set for a region series:
// recalibrate the increments, smooth, then take the recent-to-peak ratio.
// Every rule set sees the same grouped series, so a region's days are never
// re-bucketed between hypotheses.
func AnalyzeSeries(s RegionSeries, variants []RuleSet, window int, w Windows) ResultRow {
	row := ResultRow{
		Region:  s.Region,
		Ratios:  make([]float64, len(variants)),
		Defined: make([]bool, len(variants)),
	}
	for i, rs := range variants {
		adjusted := rs.Apply(s.Days)
		smoothed := Smooth(adjusted, window)
		ratio := PeakRatio(s.Days, smoothed, w)

		row.Ratios[i] = ratio.Value
		row.Defined[i] = ratio.Defined
	}
	return row
}
