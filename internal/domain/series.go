package domain

import "time"

// DateLayout is the calendar-date format used by the input and output tables.
const DateLayout = "2006-01-02"

// Region identifies the unit of aggregation for case counts, a US county in
// the canonical dataset. Key is the identity (FIPS code); Name and Group
// (state) are carried metadata, never used for grouping.
type Region struct {
	Key   string `json:"region_key"`
	Name  string `json:"region_name"`
	Group string `json:"region_group"`
}

// RawRecord is one input row as read from the feed or a file, before any
// validation. All fields are strings; Normalize coerces and validates them.
type RawRecord struct {
	RegionKey   string
	RegionName  string
	RegionGroup string
	Date        string
	Cumulative  string
}

// Day is one validated observation for a region. Incremental is the first
// difference of Cumulative over consecutive observations; the first
// observation of a region is fixed to 0.
type Day struct {
	Date        time.Time
	Cumulative  float64
	Incremental float64
}

// RegionSeries owns one region's observations, sorted ascending by date.
// No computation may read another region's Days.
type RegionSeries struct {
	Region Region
	Days   []Day
}
