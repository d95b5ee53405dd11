package pipeline

import (
	"github.com/salvir1/covid-undercount/internal/domain"
)

// analyzeRegion runs the full variant sweep for one region and records the
// per-variant outcome metrics.
func (p *Pipeline) analyzeRegion(s domain.RegionSeries) domain.ResultRow {
	row := domain.AnalyzeSeries(s, p.variants, p.window, p.windows)
	for i, rs := range p.variants {
		p.metrics.RatiosComputed.WithLabelValues(rs.Name).Inc()
		if !row.Defined[i] {
			p.metrics.RatiosUndefined.WithLabelValues(rs.Name).Inc()
		}
	}
	return row
}

func variantNames(variants []domain.RuleSet) []string {
	names := make([]string, len(variants))
	for i, rs := range variants {
		names[i] = rs.Name
	}
	return names
}
