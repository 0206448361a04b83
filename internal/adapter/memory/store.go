// Package memory implements the queue store and audit log ports in process
// memory. Used by tests and single-node development; production deployments
// use the postgres adapter.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/brandloom/brandloom/internal/domain"
	"github.com/brandloom/brandloom/internal/domain/reviewitem"
)

type entry struct {
	item reviewitem.ReviewItem
	seq  uint64
}

// Store holds pending items and decision records behind a single mutex, so
// Decide is naturally atomic: the delete and the audit append happen under
// one critical section.
type Store struct {
	mu        sync.RWMutex
	items     map[string]entry
	decisions map[string][]reviewitem.ReviewDecision
	nextSeq   uint64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		items:     make(map[string]entry),
		decisions: make(map[string][]reviewitem.ReviewDecision),
	}
}

// Enqueue adds a pending item, rejecting duplicate ids.
func (s *Store) Enqueue(_ context.Context, item *reviewitem.ReviewItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; ok {
		return fmt.Errorf("enqueue item %s: %w", item.ID, domain.ErrDuplicateItem)
	}
	s.nextSeq++
	s.items[item.ID] = entry{item: *item, seq: s.nextSeq}
	return nil
}

// List returns a brand's pending items in insertion order.
func (s *Store) List(_ context.Context, brandID string) ([]reviewitem.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []entry
	for _, e := range s.items {
		if e.item.BrandID == brandID {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	items := make([]reviewitem.ReviewItem, len(matched))
	for i, e := range matched {
		items[i] = e.item
	}
	return items, nil
}

// Get returns the item or domain.ErrNotFound.
func (s *Store) Get(_ context.Context, itemID string) (*reviewitem.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[itemID]
	if !ok {
		return nil, fmt.Errorf("get item %s: %w", itemID, domain.ErrNotFound)
	}
	it := e.item
	return &it, nil
}

// Remove deletes the item if present; removing an absent item is a no-op.
func (s *Store) Remove(_ context.Context, itemID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return false, nil
	}
	delete(s.items, itemID)
	return true, nil
}

// Decide removes the item and records the decision atomically.
func (s *Store) Decide(_ context.Context, itemID string, dec *reviewitem.ReviewDecision) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return false, nil
	}
	delete(s.items, itemID)
	s.decisions[dec.BrandID] = append(s.decisions[dec.BrandID], *dec)
	return true, nil
}

// Append records a decision without touching the queue.
func (s *Store) Append(_ context.Context, dec *reviewitem.ReviewDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decisions[dec.BrandID] = append(s.decisions[dec.BrandID], *dec)
	return nil
}

// ListByBrand returns a brand's decisions, most recent first.
func (s *Store) ListByBrand(_ context.Context, brandID string) ([]reviewitem.ReviewDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recorded := s.decisions[brandID]
	out := make([]reviewitem.ReviewDecision, len(recorded))
	for i, d := range recorded {
		out[len(recorded)-1-i] = d
	}
	return out, nil
}
