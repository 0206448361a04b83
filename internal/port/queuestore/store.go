// Package queuestore defines the port for the authoritative review queue.
package queuestore

import (
	"context"

	"github.com/brandloom/brandloom/internal/domain/reviewitem"
)

// Store owns the set of pending review items for each brand. Items live in
// the store from enqueue until exactly one terminal decision removes them.
// All operations may block on I/O; callers apply per-call timeouts via ctx.
type Store interface {
	// Enqueue adds a new item. Returns domain.ErrDuplicateItem if the id
	// is already present.
	Enqueue(ctx context.Context, item *reviewitem.ReviewItem) error

	// List returns the brand's pending items in insertion order (oldest
	// first). An empty queue is a nil or empty slice, never an error.
	List(ctx context.Context, brandID string) ([]reviewitem.ReviewItem, error)

	// Get returns the item or domain.ErrNotFound.
	Get(ctx context.Context, itemID string) (*reviewitem.ReviewItem, error)

	// Remove deletes the item if present. Removing an absent item is a
	// no-op returning removed=false, which makes decision handling
	// idempotent under retry.
	Remove(ctx context.Context, itemID string) (removed bool, err error)

	// Decide atomically removes the item and records the decision in the
	// audit log. removed=false means another caller decided first; the
	// decision is NOT recorded in that case. The remove must be a single
	// conditional delete — two concurrent Decide calls for the same item
	// yield exactly one removed=true.
	Decide(ctx context.Context, itemID string, dec *reviewitem.ReviewDecision) (removed bool, err error)
}
