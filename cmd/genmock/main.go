// Command genmock generates a synthetic cumulative case fixture plus the
// matching expected ratio table. It runs the actual domain transforms so the
// expected output tracks real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/cases.csv \
//	  -results-out data/mock/expected_ratios.csv \
//	  -regions 12 -days 420 -seed 1
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/salvir1/covid-undercount/internal/adapter/table"
	"github.com/salvir1/covid-undercount/internal/config"
	"github.com/salvir1/covid-undercount/internal/domain"
)

// startDate matches the first report date in the upstream county feed, so
// generated fixtures cover both the peak and the recent-activity windows.
var startDate = time.Date(2020, time.January, 21, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the cumulative case CSV fixture")
	resultsOut := flag.String("results-out", "", "optional output path for the expected ratio table")
	regions := flag.Int("regions", 12, "number of synthetic regions")
	days := flag.Int("days", 420, "days of history per region")
	seed := flag.Int64("seed", 1, "random seed; a fixed seed reproduces the fixture exactly")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	// Fix the clock for a reproducible GeneratedAt stamp.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2021, time.February, 6, 12, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewSource(*seed))
	rows, stats := generate(rng, *regions, *days)

	if err := writeCases(*out, rows); err != nil {
		return fmt.Errorf("writing case fixture: %w", err)
	}
	log.Printf("wrote case fixture: %s (%d rows)", *out, len(rows))

	expected, err := computeExpected(rows)
	if err != nil {
		return fmt.Errorf("computing expected ratios: %w", err)
	}

	if *resultsOut != "" {
		if err := table.WriteResults(*resultsOut, expected); err != nil {
			return fmt.Errorf("writing expected ratios: %w", err)
		}
		log.Printf("wrote expected ratios: %s (%d regions)", *resultsOut, len(expected.Rows))
	}

	printStats(rows, stats, expected)
	return nil
}

type genStats struct {
	missingCells int
	corrections  int
}

// generate builds cumulative series with a spring 2020 wave and a larger
// winter wave, plus the reporting artifacts the normalizer has to absorb:
// blank count cells and occasional downward revisions.
func generate(rng *rand.Rand, regions, days int) ([]domain.RawRecord, genStats) {
	groups := []string{"Washington", "Delaware", "Ohio", "Texas"}

	var rows []domain.RawRecord
	var stats genStats

	for r := 0; r < regions; r++ {
		key := fmt.Sprintf("%05d", 10001+r*37)
		name := fmt.Sprintf("Region %02d", r+1)
		group := groups[r%len(groups)]

		springPeak := 50 + rng.Float64()*450
		winterPeak := springPeak * (0.5 + rng.Float64()*3)

		cumulative := 0.0
		for d := 0; d < days; d++ {
			date := startDate.AddDate(0, 0, d)

			daily := wave(float64(d), 75, 18, springPeak) + wave(float64(d), 330, 28, winterPeak)
			daily += rng.Float64() * daily * 0.2
			cumulative += daily

			cell := strconv.Itoa(int(cumulative))
			switch {
			case rng.Float64() < 0.02:
				cell = "" // reporting gap, coerced to zero downstream
				stats.missingCells++
			case rng.Float64() < 0.01:
				cell = strconv.Itoa(int(cumulative * 0.97)) // downward revision
				stats.corrections++
			}

			rows = append(rows, domain.RawRecord{
				RegionKey:   key,
				RegionName:  name,
				RegionGroup: group,
				Date:        date.Format(domain.DateLayout),
				Cumulative:  cell,
			})
		}
	}
	return rows, stats
}

// wave is a Gaussian bump of the given peak height centered on a day offset.
func wave(day, center, width, peak float64) float64 {
	x := (day - center) / width
	return peak * math.Exp(-x*x)
}

// computeExpected runs the same domain transforms the pipeline runs, with
// the built-in variants and default windows.
func computeExpected(rows []domain.RawRecord) (domain.ResultTable, error) {
	series, err := domain.Normalize(rows)
	if err != nil {
		return domain.ResultTable{}, err
	}

	variants := config.DefaultVariants()
	windows := domain.DefaultWindows()

	names := make([]string, len(variants))
	for i, rs := range variants {
		names[i] = rs.Name
	}

	resultRows := make([]domain.ResultRow, len(series))
	for i, s := range series {
		resultRows[i] = domain.AnalyzeSeries(s, variants, domain.DefaultSmoothingWindow, windows)
	}

	return domain.NewResultTable(names, resultRows), nil
}

func writeCases(path string, rows []domain.RawRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"region_key", "region_name", "region_group", "date", "cumulative_count"}); err != nil {
		f.Close()
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.RegionKey, r.RegionName, r.RegionGroup, r.Date, r.Cumulative}); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printStats(rows []domain.RawRecord, stats genStats, expected domain.ResultTable) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Rows: %d (regions=%d, missing cells=%d, corrections=%d)\n",
		len(rows), len(expected.Rows), stats.missingCells, stats.corrections)

	undefined := expected.UndefinedCounts()
	for i, variant := range expected.Variants {
		max := 0.0
		maxKey := ""
		for _, row := range expected.Rows {
			if row.Ratios[i] > max {
				max = row.Ratios[i]
				maxKey = row.Region.Key
			}
		}
		fmt.Printf("Variant %s: undefined=%d, max ratio=%.4f (region %s)\n",
			variant, undefined[variant], max, maxKey)
	}

	if len(expected.Rows) > 0 {
		first := expected.Rows[0]
		fmt.Printf("\nFirst region %s (%s, %s):\n", first.Region.Key, first.Region.Name, first.Region.Group)
		for i, variant := range expected.Variants {
			fmt.Printf("  %s: %.6f (defined=%t)\n", variant, first.Ratios[i], first.Defined[i])
		}
	}
	fmt.Printf("\nGeneratedAt: %s\n", expected.GeneratedAt.Format(time.RFC3339))
}
