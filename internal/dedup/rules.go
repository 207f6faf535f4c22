// Package dedup implements the duplicate matcher and merge engine: a
// rule-based weighted similarity scorer over lead pairs, an account scanner,
// a field-level merge executor, and a batch auto-resolver.
package dedup

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadscope/internal/model"
)

// MatchType selects the comparison algorithm a rule applies.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchFuzzy    MatchType = "fuzzy"
	MatchPhonetic MatchType = "phonetic"
	MatchDomain   MatchType = "domain"
)

// Rule is one configured similarity test. A rule fires when its result
// meets Threshold; firing rules contribute result*Weight to the pair score.
type Rule struct {
	Name      string        `yaml:"name"`
	Fields    []model.Field `yaml:"fields"`
	Type      MatchType     `yaml:"type"`
	Threshold float64       `yaml:"threshold"`
	Weight    float64       `yaml:"weight"`
	Enabled   bool          `yaml:"enabled"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:      "Exact Email",
			Fields:    []model.Field{model.FieldContactEmail},
			Type:      MatchExact,
			Threshold: 1.0,
			Weight:    0.40,
			Enabled:   true,
		},
		{
			Name:      "Exact Phone",
			Fields:    []model.Field{model.FieldContactPhone},
			Type:      MatchExact,
			Threshold: 1.0,
			Weight:    0.30,
			Enabled:   true,
		},
		{
			Name:      "Company Domain",
			Fields:    []model.Field{model.FieldWebsite},
			Type:      MatchDomain,
			Threshold: 0.9,
			Weight:    0.25,
			Enabled:   true,
		},
		{
			Name:      "Fuzzy Name+Company",
			Fields:    []model.Field{model.FieldContactName, model.FieldCompanyName},
			Type:      MatchFuzzy,
			Threshold: 0.85,
			Weight:    0.20,
			Enabled:   true,
		},
		{
			Name:      "LinkedIn Exact",
			Fields:    []model.Field{model.FieldLinkedInURL},
			Type:      MatchExact,
			Threshold: 1.0,
			Weight:    0.35,
			Enabled:   true,
		},
	}
}

// ruleFile is the on-disk YAML shape for a custom rule set.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a rule set from a YAML file and validates it.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dedup: read rules %s", path)
	}

	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, eris.Wrapf(err, "dedup: parse rules %s", path)
	}
	if len(rf.Rules) == 0 {
		return nil, eris.Errorf("dedup: rules file %s defines no rules", path)
	}

	if err := ValidateRules(rf.Rules); err != nil {
		return nil, err
	}
	return rf.Rules, nil
}

// ValidateRules checks that a rule set is internally consistent.
func ValidateRules(rules []Rule) error {
	var errs []string

	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			errs = append(errs, fmt.Sprintf("rule %d: name is required", i))
		} else if seen[r.Name] {
			errs = append(errs, fmt.Sprintf("rule %q: duplicate name", r.Name))
		}
		seen[r.Name] = true

		switch r.Type {
		case MatchExact, MatchFuzzy, MatchPhonetic, MatchDomain:
		default:
			errs = append(errs, fmt.Sprintf("rule %q: unknown match type %q", r.Name, r.Type))
		}

		if len(r.Fields) == 0 {
			errs = append(errs, fmt.Sprintf("rule %q: at least one field is required", r.Name))
		}
		for _, f := range r.Fields {
			if !model.KnownField(f) {
				errs = append(errs, fmt.Sprintf("rule %q: unknown field %q", r.Name, f))
			}
		}

		if r.Threshold < 0 || r.Threshold > 1 {
			errs = append(errs, fmt.Sprintf("rule %q: threshold must be in [0,1]", r.Name))
		}
		if r.Weight < 0 {
			errs = append(errs, fmt.Sprintf("rule %q: weight must be >= 0", r.Name))
		}
	}

	enabledWeight := 0.0
	for _, r := range rules {
		if r.Enabled {
			enabledWeight += r.Weight
		}
	}
	if enabledWeight <= 0 {
		errs = append(errs, "enabled rule weights must sum to > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("dedup: rule validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
