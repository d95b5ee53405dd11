package domain

import (
	"fmt"
	"strings"
	"time"
)

// Tier maps dates strictly before its threshold to a multiplier. Tiers are
// evaluated in order; the first match wins.
type Tier struct {
	Before     time.Time
	Multiplier float64
}

// RuleSet is one undercount-correction hypothesis: an ordered set of
// date-tiered multipliers plus a mandatory default covering every remaining
// date. The identity hypothesis is a RuleSet with no tiers and Default 1.
//
// Rule sets always apply to the raw incremental values; they never compound
// on each other.
type RuleSet struct {
	Name    string
	Tiers   []Tier
	Default float64
}

// Validate checks structural soundness before any region is processed: a
// non-empty name, positive multipliers, strictly ascending thresholds, and
// a positive default. A missing default is ErrRuleCoverageGap, since some
// date would otherwise be left without a multiplier.
func (r RuleSet) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule set: missing name")
	}
	for i, t := range r.Tiers {
		if t.Before.IsZero() {
			return fmt.Errorf("rule set %q: tier %d: missing threshold date", r.Name, i)
		}
		if t.Multiplier <= 0 {
			return fmt.Errorf("rule set %q: tier %d: multiplier must be positive, got %g", r.Name, i, t.Multiplier)
		}
		if i > 0 && !r.Tiers[i-1].Before.Before(t.Before) {
			return fmt.Errorf("rule set %q: tier %d: thresholds must be strictly ascending", r.Name, i)
		}
	}
	if r.Default <= 0 {
		return fmt.Errorf("rule set %q: missing default multiplier: %w", r.Name, ErrRuleCoverageGap)
	}
	return nil
}

// MultiplierFor returns the multiplier for a date: the first tier whose
// threshold is strictly after the date, falling through to the default.
// A date exactly on a threshold belongs to the following tier. Validate
// guarantees the default exists, so every date is covered.
func (r RuleSet) MultiplierFor(date time.Time) float64 {
	for _, t := range r.Tiers {
		if date.Before(t.Before) {
			return t.Multiplier
		}
	}
	return r.Default
}

// Apply returns a new slice holding each day's raw incremental value scaled
// by its date's multiplier. The input is not mutated.
func (r RuleSet) Apply(days []Day) []float64 {
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = d.Incremental * r.MultiplierFor(d.Date)
	}
	return out
}
