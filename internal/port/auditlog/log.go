// Package auditlog defines the port for the append-only decision audit log.
package auditlog

import (
	"context"

	"github.com/brandloom/brandloom/internal/domain/reviewitem"
)

// Log records review decisions per brand. Decisions are immutable once
// appended; there is no update or delete.
type Log interface {
	// Append persists a decision record.
	Append(ctx context.Context, dec *reviewitem.ReviewDecision) error

	// ListByBrand returns a brand's decisions, most recent first.
	ListByBrand(ctx context.Context, brandID string) ([]reviewitem.ReviewDecision, error)
}
