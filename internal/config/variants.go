package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/salvir1/covid-undercount/internal/domain"
)

// VariantFile is the YAML schema for recalibration hypotheses:
//
//	variants:
//	  - name: undercount-low
//	    tiers:
//	      - before: 2020-06-01
//	        multiplier: 5
//	    default: 2
type VariantFile struct {
	Variants []VariantSpec `yaml:"variants" validate:"required,min=1,dive"`
}

// VariantSpec is one named rule set in the file.
type VariantSpec struct {
	Name    string     `yaml:"name" validate:"required"`
	Tiers   []TierSpec `yaml:"tiers" validate:"dive"`
	Default float64    `yaml:"default"`
}

// TierSpec applies a multiplier to dates strictly before the threshold.
type TierSpec struct {
	Before     string  `yaml:"before" validate:"required"`
	Multiplier float64 `yaml:"multiplier"`
}

// DefaultVariants returns the built-in hypotheses: reported counts as-is,
// plus a low and a high undercount correction. Both corrections assume
// testing missed a larger share of infections before June 2020 than after.
func DefaultVariants() []domain.RuleSet {
	widespreadTesting := time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)
	return []domain.RuleSet{
		{Name: "reported", Default: 1},
		{
			Name:    "undercount-low",
			Tiers:   []domain.Tier{{Before: widespreadTesting, Multiplier: 5}},
			Default: 2,
		},
		{
			Name:    "undercount-high",
			Tiers:   []domain.Tier{{Before: widespreadTesting, Multiplier: 10}},
			Default: 4,
		},
	}
}

// LoadVariants reads a YAML rule-set file and validates every hypothesis.
// A rule set without a default multiplier fails with ErrRuleCoverageGap
// here, before any region is processed.
func LoadVariants(path string) ([]domain.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variants file: %w", err)
	}

	var file VariantFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse variants file %s: %w", path, err)
	}
	if err := validate.Struct(file); err != nil {
		return nil, fmt.Errorf("validate variants file %s: %w", path, err)
	}

	rules := make([]domain.RuleSet, 0, len(file.Variants))
	seen := make(map[string]bool, len(file.Variants))
	for _, spec := range file.Variants {
		rs, err := spec.toRuleSet()
		if err != nil {
			return nil, err
		}
		if seen[rs.Name] {
			return nil, fmt.Errorf("variants file %s: duplicate variant %q", path, rs.Name)
		}
		seen[rs.Name] = true
		if err := rs.Validate(); err != nil {
			return nil, fmt.Errorf("variants file %s: %w", path, err)
		}
		rules = append(rules, rs)
	}
	return rules, nil
}

func (s VariantSpec) toRuleSet() (domain.RuleSet, error) {
	tiers := make([]domain.Tier, 0, len(s.Tiers))
	for i, t := range s.Tiers {
		before, err := time.Parse(domain.DateLayout, strings.TrimSpace(t.Before))
		if err != nil {
			return domain.RuleSet{}, fmt.Errorf("variant %q: tier %d: parse threshold %q: %w", s.Name, i, t.Before, err)
		}
		tiers = append(tiers, domain.Tier{Before: before, Multiplier: t.Multiplier})
	}
	return domain.RuleSet{Name: s.Name, Tiers: tiers, Default: s.Default}, nil
}
