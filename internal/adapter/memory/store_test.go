package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brandloom/brandloom/internal/domain"
	"github.com/brandloom/brandloom/internal/domain/reviewitem"
)

func newItem(id, brand string) *reviewitem.ReviewItem {
	return &reviewitem.ReviewItem{
		ID:        id,
		BrandID:   brand,
		Output:    json.RawMessage(`{}`),
		CreatedAt: time.Now().UTC(),
	}
}

func TestEnqueueDuplicate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.Enqueue(ctx, newItem("a", "brand-1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Enqueue(ctx, newItem("a", "brand-1")); !errors.Is(err, domain.ErrDuplicateItem) {
		t.Errorf("expected ErrDuplicateItem, got %v", err)
	}
}

func TestListInsertionOrder(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	for i := range 5 {
		id := fmt.Sprintf("item-%d", i)
		if err := s.Enqueue(ctx, newItem(id, "brand-1")); err != nil {
			t.Fatal(err)
		}
	}
	// A second brand's items must not leak in.
	if err := s.Enqueue(ctx, newItem("other", "brand-2")); err != nil {
		t.Fatal(err)
	}

	items, err := s.List(ctx, "brand-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(items))
	}
	for i, it := range items {
		if want := fmt.Sprintf("item-%d", i); it.ID != want {
			t.Errorf("position %d: got %s, want %s (FIFO violated)", i, it.ID, want)
		}
	}
}

func TestRemoveIdempotent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.Enqueue(ctx, newItem("a", "brand-1")); err != nil {
		t.Fatal(err)
	}

	removed, err := s.Remove(ctx, "a")
	if err != nil || !removed {
		t.Fatalf("first remove: removed=%v err=%v", removed, err)
	}
	removed, err = s.Remove(ctx, "a")
	if err != nil || removed {
		t.Fatalf("second remove should be a no-op: removed=%v err=%v", removed, err)
	}
}

func TestDecideExactlyOnce(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.Enqueue(ctx, newItem("a", "brand-1")); err != nil {
		t.Fatal(err)
	}

	const callers = 16
	var wins int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			dec := &reviewitem.ReviewDecision{
				ID:        fmt.Sprintf("dec-%d", n),
				ItemID:    "a",
				BrandID:   "brand-1",
				Outcome:   reviewitem.OutcomeApproved,
				DecidedAt: time.Now().UTC(),
			}
			removed, err := s.Decide(ctx, "a", dec)
			if err != nil {
				t.Error(err)
				return
			}
			if removed {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one winner, got %d", wins)
	}
	decs, err := s.ListByBrand(ctx, "brand-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(decs) != 1 {
		t.Errorf("expected exactly one audit record, got %d", len(decs))
	}
}
