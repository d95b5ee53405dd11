package domain

import "time"

// ResultRow holds one region's ratio per variant, aligned index-for-index
// with the parent table's Variants. Defined records whether each ratio had
// sufficient history; the persisted value is 0 either way.
type ResultRow struct {
	Region  Region
	Ratios  []float64
	Defined []bool
}

// ResultTable is the rectangular output of a pipeline run: one row per
// region sorted by region key, one ratio column per variant in configured
// order. Pure output; never mutated after assembly.
type ResultTable struct {
	Variants    []string
	Rows        []ResultRow
	GeneratedAt time.Time
}

// NewResultTable stamps an assembled table. Rows must already be sorted by
// region key with Ratios aligned to variants.
func NewResultTable(variants []string, rows []ResultRow) ResultTable {
	return ResultTable{
		Variants:    variants,
		Rows:        rows,
		GeneratedAt: clock.Now(),
	}
}

// RatioMap flattens one variant's column into a region-key lookup.
// Returns nil for an unknown variant.
func (t ResultTable) RatioMap(variant string) map[string]float64 {
	col := t.variantIndex(variant)
	if col < 0 {
		return nil
	}
	m := make(map[string]float64, len(t.Rows))
	for _, row := range t.Rows {
		m[row.Region.Key] = row.Ratios[col]
	}
	return m
}

// UndefinedCounts reports, per variant, how many regions had insufficient
// history for a defined ratio.
func (t ResultTable) UndefinedCounts() map[string]int {
	counts := make(map[string]int, len(t.Variants))
	for _, v := range t.Variants {
		counts[v] = 0
	}
	for _, row := range t.Rows {
		for col, defined := range row.Defined {
			if !defined {
				counts[t.Variants[col]]++
			}
		}
	}
	return counts
}

func (t ResultTable) variantIndex(variant string) int {
	for i, v := range t.Variants {
		if v == variant {
			return i
		}
	}
	return -1
}
