// Package reviewitem defines the domain types for the content review queue:
// the ReviewItem awaiting a human decision, the generator result envelope it
// is parsed from, and the immutable ReviewDecision recorded on approve/reject.
package reviewitem

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/brandloom/brandloom/internal/domain"
	"github.com/brandloom/brandloom/internal/domain/scoring"
)

// AgentKind identifies which generator produced the content. Informational
// for routing UI only; never consulted by gating logic.
type AgentKind string

const (
	AgentCopyGeneration   AgentKind = "copy_generation"
	AgentDesignGeneration AgentKind = "design_generation"
	AgentAdvisory         AgentKind = "advisory"
)

// Valid reports whether k is a known agent kind.
func (k AgentKind) Valid() bool {
	switch k {
	case AgentCopyGeneration, AgentDesignGeneration, AgentAdvisory:
		return true
	}
	return false
}

// Outcome is the terminal decision recorded for a review item.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

// ReviewItem is one unit of generated content awaiting an approve/reject
// decision. It exists in the queue store from enqueue until exactly one
// terminal decision is recorded, at which point it is removed (not
// soft-marked), so the active queue always equals "truly pending".
type ReviewItem struct {
	ID               string                      `json:"id"`
	BrandID          string                      `json:"brand_id"`
	AgentKind        AgentKind                   `json:"agent_kind"`
	Input            json.RawMessage             `json:"input,omitempty"`
	Output           json.RawMessage             `json:"output,omitempty"`
	FidelityScore    *scoring.BrandFidelityScore `json:"fidelity_score,omitempty"`
	ComplianceResult *scoring.LinterResult       `json:"compliance_result,omitempty"`
	GenerationError  string                      `json:"generation_error,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
}

// Validate checks structural invariants of an item before enqueue.
func (it *ReviewItem) Validate() error {
	if it.ID == "" {
		return fmt.Errorf("%w: item id is required", domain.ErrValidation)
	}
	if it.BrandID == "" {
		return fmt.Errorf("%w: brand id is required", domain.ErrValidation)
	}
	if it.AgentKind != "" && !it.AgentKind.Valid() {
		return fmt.Errorf("%w: unknown agent kind %q", domain.ErrValidation, it.AgentKind)
	}
	if len(it.Output) == 0 && it.GenerationError == "" {
		return fmt.Errorf("%w: item has neither output nor generation error", domain.ErrValidation)
	}
	return nil
}

// GeneratorResult is the envelope produced by the upstream generator.
// Scores arrive as raw JSON and are parsed strictly; the pipeline treats
// input and output as opaque payloads.
type GeneratorResult struct {
	ID            string          `json:"id,omitempty"`
	AgentKind     AgentKind       `json:"agent_kind"`
	Input         json.RawMessage `json:"input,omitempty"`
	Output        json.RawMessage `json:"output,omitempty"`
	BFS           json.RawMessage `json:"bfs,omitempty"`
	LinterResults json.RawMessage `json:"linter_results,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// ParseResult converts a generator envelope into a ReviewItem. A malformed
// fidelity score or linter result is treated as absent — unscored content
// falls through to human review, which is the safe default — and the reason
// is returned in warnings so the caller can log it. Structural problems with
// the item itself return an error.
func ParseResult(brandID string, res *GeneratorResult, threshold float64) (item *ReviewItem, warnings []string, err error) {
	it := &ReviewItem{
		ID:              res.ID,
		BrandID:         brandID,
		AgentKind:       res.AgentKind,
		Input:           res.Input,
		Output:          res.Output,
		GenerationError: res.Error,
	}

	if len(res.BFS) > 0 {
		bfs, perr := scoring.ParseFidelityScore(res.BFS, threshold)
		if perr != nil {
			warnings = append(warnings, fmt.Sprintf("fidelity score discarded: %v", perr))
		} else {
			it.FidelityScore = bfs
		}
	}
	if len(res.LinterResults) > 0 {
		lr, perr := scoring.ParseLinterResult(res.LinterResults)
		if perr != nil {
			warnings = append(warnings, fmt.Sprintf("linter result discarded: %v", perr))
		} else {
			it.ComplianceResult = lr
		}
	}

	return it, warnings, nil
}

// ReviewDecision is the immutable record of a terminal decision. Created
// once, appended to the brand's audit log, never mutated.
type ReviewDecision struct {
	ID            string    `json:"id"`
	ItemID        string    `json:"item_id"`
	BrandID       string    `json:"brand_id"`
	Outcome       Outcome   `json:"outcome"`
	Disposition   string    `json:"disposition"`
	ReviewerID    string    `json:"reviewer_id"`
	ReviewerNotes string    `json:"reviewer_notes,omitempty"`
	DecidedAt     time.Time `json:"decided_at"`
}
