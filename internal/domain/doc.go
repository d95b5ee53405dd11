// Package domain models cumulative COVID-19 case-count time series and the
// undercount analysis derived from them.
//
// # Data Source
//
// Case counts originate from daily cumulative tallies published per US
// county, canonically the New York Times us-counties.csv dataset
// (https://github.com/nytimes/covid-19-data). Each row reports the total
// confirmed cases for one region on one date. The feed adapter fetches and
// decodes the table; this package only sees parsed rows.
//
// # Data Conventions
//
// Region identity:
//
//	A region is keyed by its FIPS code; the county name and state are
//	carried metadata. Rows for different regions may be interleaved in the
//	source table. A region is never merged with or split from another.
//
// Cumulative counts:
//
//	Counts are running totals, so daily activity is the first difference of
//	consecutive observations within one region. The first observation of a
//	region has no prior value and gets an incremental value of 0. Dates may
//	have gaps (reporting pauses); the difference is taken between
//	consecutive observations, not consecutive calendar days.
//
//	Counties occasionally revise totals downward after reclassifying cases.
//	The resulting negative increment is preserved, not clamped, so
//	downstream consumers can detect correction artifacts.
//
//	A missing or unparseable count coerces to 0 rather than dropping the
//	row; dropping would pair up the neighboring observations and fabricate
//	a spurious increment.
//
// Undercount correction:
//
//	Early-pandemic confirmed counts understate true infections because test
//	availability was poor. A correction hypothesis is an ordered set of
//	date-tiered multipliers (larger multipliers for earlier periods) plus a
//	mandatory default, applied to the raw incremental series. See [RuleSet].
//
// Smoothing:
//
//	Day-of-week reporting effects are removed with a trailing 7-observation
//	moving average. Positions with insufficient history hold NaN, the
//	explicit "undefined" sentinel: never zero, never a partial average.
//	See [Smooth].
//
// Peak ratio:
//
//	The summary statistic per region and hypothesis is recent smoothed
//	activity divided by the historical smoothed peak: the peak is taken
//	before a reference cutoff (default 2020-10-01), the recent average over
//	the trailing positions of a later comparison window (default ending
//	2021-02-06). Division is safe: a zero or undefined peak, or an
//	undefined recent average, yields 0. See [PeakRatio].
package domain
