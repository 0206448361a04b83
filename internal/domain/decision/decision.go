// Package decision implements the pure classification logic that gates what
// a reviewer may do with a queued item. It never mutates state and performs
// no I/O; the approval service consults it on every decision so the safety
// gate cannot be bypassed by a UI click.
package decision

import (
	"github.com/brandloom/brandloom/internal/domain/reviewitem"
	"github.com/brandloom/brandloom/internal/domain/scoring"
)

// Disposition classifies what decisions are permitted for a review item.
type Disposition string

const (
	// AutoApprovable content passed every gate and may be approved without
	// a human looking at it.
	AutoApprovable Disposition = "auto_approvable"
	// NeedsHumanReview content must be looked at; a human may approve or reject.
	NeedsHumanReview Disposition = "needs_human_review"
	// Blocked content carries a hard safety violation and can only be rejected.
	Blocked Disposition = "blocked"
)

// Classify computes an item's disposition from its scores. First match wins:
//
//  1. linter blocked                  -> Blocked
//  2. linter flagged for human review -> NeedsHumanReview
//  3. fidelity overall below cutoff   -> NeedsHumanReview
//  4. no fidelity score at all        -> NeedsHumanReview (unscored content
//     is never auto-approved)
//  5. otherwise                       -> AutoApprovable
//
// A non-positive threshold falls back to the documented default.
func Classify(item *reviewitem.ReviewItem, threshold float64) Disposition {
	if threshold <= 0 {
		threshold = scoring.DefaultPassThreshold
	}

	if lr := item.ComplianceResult; lr != nil {
		if lr.Blocked {
			return Blocked
		}
		if lr.NeedsHumanReview {
			return NeedsHumanReview
		}
	}

	bfs := item.FidelityScore
	if bfs == nil {
		return NeedsHumanReview
	}
	if bfs.Overall < threshold {
		return NeedsHumanReview
	}
	return AutoApprovable
}

// CanOverride reports whether a human reviewer may record the requested
// outcome for an item with the given disposition. Rejection is always
// permitted; approval is permitted unless the item is Blocked.
func CanOverride(d Disposition, outcome reviewitem.Outcome) bool {
	if outcome == reviewitem.OutcomeRejected {
		return true
	}
	return d != Blocked
}

// CanApprove applies CanOverride plus the generation-failure policy: an item
// whose generator failed outright cannot be approved under the same id —
// replacement content must be re-enqueued as a new item.
func CanApprove(item *reviewitem.ReviewItem, d Disposition) bool {
	if item.GenerationError != "" {
		return false
	}
	return CanOverride(d, reviewitem.OutcomeApproved)
}
