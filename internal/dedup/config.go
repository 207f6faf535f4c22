package dedup

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscope/internal/config"
)

// DefaultConfig returns a config.DedupConfig with the built-in thresholds.
func DefaultConfig() config.DedupConfig {
	return config.DedupConfig{
		CandidateThreshold: 0.70,
		ReviewThreshold:    0.85,
		AutoMergeThreshold: 0.95,
		PhoneticScore:      0.9,
		MaxLeads:           10_000,
	}
}

// ValidateConfig checks that a DedupConfig is internally consistent.
func ValidateConfig(c config.DedupConfig) error {
	var errs []string

	thresholds := map[string]float64{
		"candidate_threshold":  c.CandidateThreshold,
		"review_threshold":     c.ReviewThreshold,
		"auto_merge_threshold": c.AutoMergeThreshold,
		"phonetic_score":       c.PhoneticScore,
	}
	for name, v := range thresholds {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("%s must be in [0,1]", name))
		}
	}

	// Thresholds must be ordered: candidate <= review <= auto-merge.
	if c.ReviewThreshold < c.CandidateThreshold {
		errs = append(errs, "review_threshold must be >= candidate_threshold")
	}
	if c.AutoMergeThreshold < c.ReviewThreshold {
		errs = append(errs, "auto_merge_threshold must be >= review_threshold")
	}

	if c.MaxLeads <= 0 {
		errs = append(errs, "max_leads must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("dedup: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
