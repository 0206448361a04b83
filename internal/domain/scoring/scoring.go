// Package scoring defines the machine-computed quality and compliance
// evaluations attached to generated content: the Brand Fidelity Score and
// the Linter Result. Both are parsed strictly at the ingestion boundary —
// a malformed score is rejected, never silently defaulted.
package scoring

import (
	"encoding/json"
	"fmt"

	"github.com/brandloom/brandloom/internal/domain"
)

// DefaultPassThreshold is the documented default cutoff on the overall
// fidelity score below which content requires human review.
const DefaultPassThreshold = 0.8

// BrandFidelityScore measures how well generated content matches a brand's
// defined voice, style and compliance rules. All sub-scores are in [0, 1].
type BrandFidelityScore struct {
	Overall           float64  `json:"overall"`
	ToneAlignment     float64  `json:"tone_alignment"`
	TerminologyMatch  float64  `json:"terminology_match"`
	Compliance        float64  `json:"compliance"`
	CTAFit            float64  `json:"cta_fit"`
	PlatformFit       float64  `json:"platform_fit"`
	Passed            bool     `json:"passed"`
	Issues            []string `json:"issues"`
	RegenerationCount int      `json:"regeneration_count"`
}

// LinterResult is the outcome of the automated safety/compliance check.
// Blocked is a hard safety violation: it forces Passed to false and the
// item can never be auto-approved, regardless of fidelity score.
type LinterResult struct {
	Passed             bool     `json:"passed"`
	ToxicityScore      float64  `json:"toxicity_score"`
	Blocked            bool     `json:"blocked"`
	NeedsHumanReview   bool     `json:"needs_human_review"`
	FixesApplied       []string `json:"fixes_applied"`
	BannedPhrases      []string `json:"banned_phrases"`
	BannedClaims       []string `json:"banned_claims"`
	MissingDisclaimers []string `json:"missing_disclaimers"`
	PIIDetected        []string `json:"pii_detected"`
	CompetitorMentions []string `json:"competitor_mentions"`
	PlatformViolations []string `json:"platform_violations"`
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

// ParseFidelityScore decodes and validates a raw fidelity score payload.
// The Passed flag is normalized against the given threshold rather than
// trusted from the wire, so the invariant passed == (overall >= threshold)
// holds for every score that enters the pipeline.
func ParseFidelityScore(raw json.RawMessage, threshold float64) (*BrandFidelityScore, error) {
	if threshold <= 0 {
		threshold = DefaultPassThreshold
	}

	var s BrandFidelityScore
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: decode fidelity score: %v", domain.ErrValidation, err)
	}

	for name, v := range map[string]float64{
		"overall":           s.Overall,
		"tone_alignment":    s.ToneAlignment,
		"terminology_match": s.TerminologyMatch,
		"compliance":        s.Compliance,
		"cta_fit":           s.CTAFit,
		"platform_fit":      s.PlatformFit,
	} {
		if !inUnitRange(v) {
			return nil, fmt.Errorf("%w: fidelity score %s out of range: %v", domain.ErrValidation, name, v)
		}
	}
	if s.RegenerationCount < 0 {
		return nil, fmt.Errorf("%w: regeneration_count must be >= 0", domain.ErrValidation)
	}

	s.Passed = s.Overall >= threshold
	if s.Issues == nil {
		s.Issues = []string{}
	}
	return &s, nil
}

// ParseLinterResult decodes and validates a raw linter payload.
// A blocked result is normalized to passed == false.
func ParseLinterResult(raw json.RawMessage) (*LinterResult, error) {
	var l LinterResult
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("%w: decode linter result: %v", domain.ErrValidation, err)
	}

	if !inUnitRange(l.ToxicityScore) {
		return nil, fmt.Errorf("%w: toxicity_score out of range: %v", domain.ErrValidation, l.ToxicityScore)
	}

	if l.Blocked {
		l.Passed = false
	}
	return &l, nil
}

// FindingCount returns the total number of category findings in the result.
func (l *LinterResult) FindingCount() int {
	return len(l.BannedPhrases) + len(l.BannedClaims) + len(l.MissingDisclaimers) +
		len(l.PIIDetected) + len(l.CompetitorMentions) + len(l.PlatformViolations)
}
