package dedup

import (
	"github.com/sells-group/leadscope/internal/config"
	"github.com/sells-group/leadscope/internal/model"
	"github.com/sells-group/leadscope/pkg/similarity"
)

// Resolution is the suggested handling for a duplicate candidate.
type Resolution string

const (
	// ResolutionMerge marks a candidate confident enough to auto-merge.
	ResolutionMerge Resolution = "merge"
	// ResolutionManualReview marks a candidate needing a human decision.
	ResolutionManualReview Resolution = "manual_review"
	// ResolutionKeepOriginal is the conservative default for mid-confidence
	// matches: nothing happens without explicit user action.
	ResolutionKeepOriginal Resolution = "keep_original"
)

// MatchResult is the outcome of scoring one lead pair.
type MatchResult struct {
	Score        float64  `json:"score"`
	MatchedRules []string `json:"matched_rules"`
	Confidence   float64  `json:"confidence"`
}

// Candidate pairs two leads suspected to represent the same entity. It is a
// scan artifact, never persisted.
type Candidate struct {
	Lead           model.Lead    `json:"lead"`
	Duplicate      model.Lead    `json:"duplicate"`
	MatchScore     float64       `json:"match_score"`
	MatchedRules   []string      `json:"matched_rules"`
	ConflictFields []model.Field `json:"conflict_fields"`
	Resolution     Resolution    `json:"suggested_resolution"`
	Confidence     float64       `json:"confidence"`
}

// Matcher scores lead pairs against a fixed rule set. It holds only
// immutable configuration and is safe for concurrent use.
type Matcher struct {
	rules []Rule
	cfg   config.DedupConfig
}

// NewMatcher creates a Matcher with the given rules and thresholds.
func NewMatcher(rules []Rule, cfg config.DedupConfig) *Matcher {
	return &Matcher{rules: rules, cfg: cfg}
}

// Score computes the normalized weighted similarity between two leads.
// Deterministic and symmetric; a pair with no enabled rules scores 0.
func (m *Matcher) Score(a, b *model.Lead) MatchResult {
	var (
		accumulated float64
		totalWeight float64
		matched     []string
		enabled     int
	)

	for _, r := range m.rules {
		if !r.Enabled {
			continue
		}
		enabled++
		// Every enabled rule contributes its weight to the denominator,
		// whether or not it fires.
		totalWeight += r.Weight

		result := m.evalRule(r, a, b)
		if result >= r.Threshold {
			accumulated += result * r.Weight
			matched = append(matched, r.Name)
		}
	}

	res := MatchResult{MatchedRules: matched}
	if totalWeight > 0 {
		res.Score = accumulated / totalWeight
	}
	if enabled > 0 {
		res.Confidence = float64(len(matched)) / float64(enabled)
	}
	return res
}

// Candidate builds a full duplicate candidate for a scored pair, or nil when
// the pair scores below the candidate threshold.
func (m *Matcher) Candidate(a, b *model.Lead) *Candidate {
	res := m.Score(a, b)
	if res.Score < m.cfg.CandidateThreshold {
		return nil
	}
	return &Candidate{
		Lead:           *a,
		Duplicate:      *b,
		MatchScore:     res.Score,
		MatchedRules:   res.MatchedRules,
		ConflictFields: conflictFields(a, b),
		Resolution:     m.resolution(res.Score),
		Confidence:     res.Confidence,
	}
}

// resolution maps a score to a suggested resolution. Scores between the
// candidate and review thresholds deliberately resolve to keep_original.
func (m *Matcher) resolution(score float64) Resolution {
	switch {
	case score >= m.cfg.AutoMergeThreshold:
		return ResolutionMerge
	case score >= m.cfg.ReviewThreshold:
		return ResolutionManualReview
	default:
		return ResolutionKeepOriginal
	}
}

// evalRule applies a rule's algorithm over its configured field pairs and
// returns a result in [0,1]. Absent values compare as empty strings.
func (m *Matcher) evalRule(r Rule, a, b *model.Lead) float64 {
	switch r.Type {
	case MatchExact:
		for _, f := range r.Fields {
			va := similarity.Normalize(a.Value(f))
			vb := similarity.Normalize(b.Value(f))
			if va != "" && va == vb {
				return 1.0
			}
		}
		return 0

	case MatchFuzzy:
		best := 0.0
		for _, f := range r.Fields {
			va := similarity.Normalize(a.Value(f))
			vb := similarity.Normalize(b.Value(f))
			if s := similarity.Score(va, vb); s > best {
				best = s
			}
		}
		return best

	case MatchPhonetic:
		for _, f := range r.Fields {
			ka := similarity.PhoneticKey(a.Value(f))
			kb := similarity.PhoneticKey(b.Value(f))
			if ka != "" && ka == kb {
				return m.cfg.PhoneticScore
			}
		}
		return 0

	case MatchDomain:
		for _, f := range r.Fields {
			da := similarity.NormalizeDomain(a.Value(f))
			db := similarity.NormalizeDomain(b.Value(f))
			if da != "" && da == db {
				return 1.0
			}
		}
		return 0
	}
	return 0
}

// conflictFields lists the merge fields where both leads carry differing
// non-empty values.
func conflictFields(a, b *model.Lead) []model.Field {
	var conflicts []model.Field
	for _, f := range model.MergeFields() {
		va, vb := a.Value(f), b.Value(f)
		if va != "" && vb != "" && va != vb {
			conflicts = append(conflicts, f)
		}
	}
	return conflicts
}
