package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Normalize converts raw cumulative rows into per-region incremental series
// in a single grouped pass: rows are bucketed by region key, each bucket is
// sorted by date, and incremental values are derived from consecutive
// observations within that region only.
//
// Region key and date are required. A row missing either, or carrying an
// unparseable date, fails the whole ingestion with ErrMalformedRow; there is
// no partial ingestion. A missing or unparseable cumulative count coerces to
// 0 rather than dropping the row. The first incremental value of every
// region is exactly 0; a cumulative decrease yields a negative increment
// that is preserved.
//
// The returned roster is sorted ascending by region key and is the explicit
// input to downstream computation; nothing is stored as package state. The
// input slice is not mutated.
func Normalize(rows []RawRecord) ([]RegionSeries, error) {
	buckets := make(map[string]*RegionSeries)

	for i, row := range rows {
		key := strings.TrimSpace(row.RegionKey)
		if key == "" {
			return nil, fmt.Errorf("row %d: missing region key: %w", i+1, ErrMalformedRow)
		}
		dateStr := strings.TrimSpace(row.Date)
		if dateStr == "" {
			return nil, fmt.Errorf("row %d: missing date: %w", i+1, ErrMalformedRow)
		}
		date, err := time.Parse(DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("row %d: unparseable date %q: %w", i+1, dateStr, ErrMalformedRow)
		}

		series, ok := buckets[key]
		if !ok {
			series = &RegionSeries{Region: Region{Key: key}}
			buckets[key] = series
		}
		// Metadata is carried, not validated: first non-empty value wins.
		if series.Region.Name == "" {
			series.Region.Name = strings.TrimSpace(row.RegionName)
		}
		if series.Region.Group == "" {
			series.Region.Group = strings.TrimSpace(row.RegionGroup)
		}

		series.Days = append(series.Days, Day{
			Date:       date,
			Cumulative: parseFloatOrZero(row.Cumulative),
		})
	}

	roster := make([]RegionSeries, 0, len(buckets))
	for _, series := range buckets {
		sort.Slice(series.Days, func(i, j int) bool {
			return series.Days[i].Date.Before(series.Days[j].Date)
		})
		for i := range series.Days {
			if i == 0 {
				series.Days[i].Incremental = 0
				continue
			}
			series.Days[i].Incremental = series.Days[i].Cumulative - series.Days[i-1].Cumulative
		}
		roster = append(roster, *series)
	}

	sort.Slice(roster, func(i, j int) bool {
		return roster[i].Region.Key < roster[j].Region.Key
	})
	return roster, nil
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
// The source data has reporting gaps; missing counts default, never drop.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
