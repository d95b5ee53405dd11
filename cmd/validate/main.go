// Command validate recomputes the undercount ratio table from a cumulative
// case file and checks a previously written result table against it: series
// integrity, region coverage, per-variant ratio parity, and structural
// invariants of the output.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -cases data/mock/cases.csv \
//	  -results data/mock/expected_ratios.csv
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/salvir1/covid-undercount/internal/adapter/table"
	"github.com/salvir1/covid-undercount/internal/config"
	"github.com/salvir1/covid-undercount/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	cases := flag.String("cases", "", "path to the cumulative case CSV or XLSX file")
	results := flag.String("results", "", "path to the ratio table to validate")
	variantsPath := flag.String("variants", "", "optional variants YAML; built-ins are used when empty")
	flag.Parse()

	if *cases == "" || *results == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*cases, *results, *variantsPath); code != 0 {
		os.Exit(code)
	}
}

func run(casesPath, resultsPath, variantsPath string) int {
	fmt.Println("=== Undercount Ratio Validation ===")
	fmt.Println()

	rows, err := table.ReadCasesFile(casesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load cases: %v\n", err)
		return 1
	}

	variants := config.DefaultVariants()
	if variantsPath != "" {
		variants, err = config.LoadVariants(variantsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load variants: %v\n", err)
			return 1
		}
	}

	series, err := domain.Normalize(rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: normalize cases: %v\n", err)
		return 1
	}

	got, err := table.ReadResults(resultsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load results: %v\n", err)
		return 1
	}

	expected := recompute(series, variants)

	phases := []*phase{
		validateSeries(series),
		validateCoverage(expected, got),
		validateParity(expected, got),
		validateInvariants(got),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d case rows, %d regions, %d variants, %d result rows\n",
		len(rows), len(series), len(expected.Variants), len(got.Rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// recompute rebuilds the ratio table with the same domain transforms the
// pipeline runs, using the default windows and smoothing width.
func recompute(series []domain.RegionSeries, variants []domain.RuleSet) domain.ResultTable {
	names := make([]string, len(variants))
	for i, rs := range variants {
		names[i] = rs.Name
	}

	rows := make([]domain.ResultRow, len(series))
	for i, s := range series {
		rows[i] = domain.AnalyzeSeries(s, variants, domain.DefaultSmoothingWindow, domain.DefaultWindows())
	}
	return domain.NewResultTable(names, rows)
}

// ── Phase 1: Series Integrity ──
// Checks the normalized series for the shape the analysis relies on.

func validateSeries(series []domain.RegionSeries) *phase {
	p := &phase{name: "Phase 1: Series Integrity (cases)"}

	for _, s := range series {
		if len(s.Days) == 0 {
			p.errorf("region %s: no observations", s.Region.Key)
			continue
		}
		if s.Days[0].Incremental != 0 {
			p.errorf("region %s: first increment is %g, want 0", s.Region.Key, s.Days[0].Incremental)
		}
		for i := 1; i < len(s.Days); i++ {
			prev, cur := s.Days[i-1], s.Days[i]
			if !prev.Date.Before(cur.Date) {
				p.errorf("region %s: dates not strictly increasing at %s",
					s.Region.Key, cur.Date.Format(domain.DateLayout))
			}
			if got := cur.Cumulative - prev.Cumulative; !floatEq(cur.Incremental, got) {
				p.errorf("region %s %s: increment %g does not match cumulative delta %g",
					s.Region.Key, cur.Date.Format(domain.DateLayout), cur.Incremental, got)
			}
		}
	}
	return p
}

// ── Phase 2: Region Coverage ──
// Every normalized region appears in the results exactly once, and the
// variant columns match the configured rule sets in order.

func validateCoverage(expected, got domain.ResultTable) *phase {
	p := &phase{name: "Phase 2: Region Coverage (results)"}

	if len(expected.Variants) != len(got.Variants) {
		p.errorf("variant count: expected %d, got %d", len(expected.Variants), len(got.Variants))
	}
	for i := range expected.Variants {
		if i >= len(got.Variants) {
			break
		}
		if expected.Variants[i] != got.Variants[i] {
			p.errorf("variant %d: expected %q, got %q", i, expected.Variants[i], got.Variants[i])
		}
	}

	gotKeys := map[string]int{}
	for _, row := range got.Rows {
		gotKeys[row.Region.Key]++
	}
	for _, row := range expected.Rows {
		switch gotKeys[row.Region.Key] {
		case 0:
			p.errorf("region %s missing from results", row.Region.Key)
		case 1:
		default:
			p.errorf("region %s appears %d times in results", row.Region.Key, gotKeys[row.Region.Key])
		}
	}

	expectedKeys := map[string]bool{}
	for _, row := range expected.Rows {
		expectedKeys[row.Region.Key] = true
	}
	for _, row := range got.Rows {
		if !expectedKeys[row.Region.Key] {
			p.errorf("region %s in results but not in the case file", row.Region.Key)
		}
	}
	return p
}

// ── Phase 3: Ratio Parity ──
// Recomputed ratios must match the persisted ones per region and variant.

func validateParity(expected, got domain.ResultTable) *phase {
	p := &phase{name: "Phase 3: Ratio Parity (recompute)"}

	gotByKey := map[string]domain.ResultRow{}
	for _, row := range got.Rows {
		gotByKey[row.Region.Key] = row
	}

	for _, want := range expected.Rows {
		have, ok := gotByKey[want.Region.Key]
		if !ok || len(have.Ratios) != len(want.Ratios) {
			continue // coverage phase reports these
		}
		for i, variant := range expected.Variants {
			if !floatEq(want.Ratios[i], have.Ratios[i]) {
				p.errorf("region %s variant %s: expected %g, got %g",
					want.Region.Key, variant, want.Ratios[i], have.Ratios[i])
			}
		}
	}
	return p
}

// ── Phase 4: Output Invariants ──
// Structural checks on the persisted table itself.

func validateInvariants(got domain.ResultTable) *phase {
	p := &phase{name: "Phase 4: Output Invariants (results)"}

	keys := make([]string, len(got.Rows))
	for i, row := range got.Rows {
		keys[i] = row.Region.Key

		if row.Region.Key == "" {
			p.errorf("row %d: empty region key", i)
		}
		for j, v := range row.Ratios {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				p.errorf("region %s variant %s: ratio is %g, must be finite",
					row.Region.Key, got.Variants[j], v)
			}
		}
	}

	if !sort.StringsAreSorted(keys) {
		p.errorf("result rows are not sorted by region key")
	}
	return p
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
