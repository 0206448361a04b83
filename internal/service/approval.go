package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/brandloom/brandloom/internal/adapter/otel"
	"github.com/brandloom/brandloom/internal/adapter/ws"
	"github.com/brandloom/brandloom/internal/domain"
	"github.com/brandloom/brandloom/internal/domain/decision"
	"github.com/brandloom/brandloom/internal/domain/reviewitem"
	"github.com/brandloom/brandloom/internal/middleware"
	"github.com/brandloom/brandloom/internal/port/broadcast"
	"github.com/brandloom/brandloom/internal/port/cache"
	"github.com/brandloom/brandloom/internal/port/messagequeue"
	"github.com/brandloom/brandloom/internal/port/queuestore"
)

// ApprovalService records terminal approve/reject decisions. The safety gate
// is re-evaluated server-side on every call; the disposition a client saw
// when it rendered the queue is never trusted.
type ApprovalService struct {
	store     queuestore.Store
	cache     cache.Cache
	mq        messagequeue.Queue
	hub       broadcast.Broadcaster
	metrics   *otel.Metrics
	threshold passThreshold
}

// NewApprovalService creates an ApprovalService. cache, mq, hub, and metrics
// may be nil; the corresponding side effects are skipped.
func NewApprovalService(store queuestore.Store, c cache.Cache, mq messagequeue.Queue, hub broadcast.Broadcaster, m *otel.Metrics, threshold float64) *ApprovalService {
	s := &ApprovalService{
		store:   store,
		cache:   c,
		mq:      mq,
		hub:     hub,
		metrics: m,
	}
	s.threshold.Store(threshold)
	return s
}

// SetThreshold swaps the pass threshold used by the server-side approval
// gate re-check.
func (s *ApprovalService) SetThreshold(v float64) {
	s.threshold.Store(v)
}

// Approve records an approval for the item. Returns domain.ErrApprovalForbidden
// when the item is blocked or its generation failed, and domain.ErrNotFound
// when the item is absent or was already decided by a concurrent call.
func (s *ApprovalService) Approve(ctx context.Context, itemID, reviewerID, notes string) (*reviewitem.ReviewDecision, error) {
	return s.decide(ctx, itemID, reviewerID, notes, reviewitem.OutcomeApproved)
}

// Reject records a rejection for the item. Rejection is permitted for every
// disposition, including blocked content.
func (s *ApprovalService) Reject(ctx context.Context, itemID, reviewerID, notes string) (*reviewitem.ReviewDecision, error) {
	return s.decide(ctx, itemID, reviewerID, notes, reviewitem.OutcomeRejected)
}

func (s *ApprovalService) decide(ctx context.Context, itemID, reviewerID, notes string, outcome reviewitem.Outcome) (*reviewitem.ReviewDecision, error) {
	if reviewerID == "" {
		return nil, fmt.Errorf("%w: reviewer id is required", domain.ErrValidation)
	}

	ctx, span := otel.StartDecisionSpan(ctx, itemID, string(outcome))
	defer span.End()

	item, err := s.store.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}

	d := decision.Classify(item, s.threshold.Load())
	if outcome == reviewitem.OutcomeApproved && !decision.CanApprove(item, d) {
		if s.metrics != nil {
			s.metrics.BlockedApprovals.Add(ctx, 1)
		}
		slog.Warn("approval refused",
			"item_id", itemID,
			"brand_id", item.BrandID,
			"disposition", d,
			"reviewer_id", reviewerID,
		)
		return nil, fmt.Errorf("item %s cannot be approved: %w", itemID, domain.ErrApprovalForbidden)
	}

	dec := &reviewitem.ReviewDecision{
		ID:            uuid.NewString(),
		ItemID:        itemID,
		BrandID:       item.BrandID,
		Outcome:       outcome,
		Disposition:   string(d),
		ReviewerID:    reviewerID,
		ReviewerNotes: notes,
		DecidedAt:     time.Now().UTC(),
	}

	removed, err := s.store.Decide(ctx, itemID, dec)
	if err != nil {
		return nil, fmt.Errorf("record decision for item %s: %w", itemID, err)
	}
	if !removed {
		// Lost the race: another reviewer decided between Get and Decide.
		return nil, fmt.Errorf("item %s already decided: %w", itemID, domain.ErrNotFound)
	}

	s.afterDecision(ctx, item, dec)
	return dec, nil
}

func (s *ApprovalService) afterDecision(ctx context.Context, item *reviewitem.ReviewItem, dec *reviewitem.ReviewDecision) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, queueCacheKey(ctx, item.BrandID)); err != nil {
			slog.Warn("queue snapshot invalidation failed", "brand_id", item.BrandID, "error", err)
		}
	}

	if s.mq != nil {
		if data, err := json.Marshal(dec); err == nil {
			if perr := s.mq.Publish(ctx, messagequeue.SubjectReviewDecided, data); perr != nil {
				slog.Error("publish decision event failed", "item_id", dec.ItemID, "error", perr)
			}
		}
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, middleware.TenantIDFromContext(ctx), ws.EventReviewDecided, ws.ReviewDecidedEvent{
			ItemID:     dec.ItemID,
			BrandID:    dec.BrandID,
			Outcome:    string(dec.Outcome),
			ReviewerID: dec.ReviewerID,
		})
	}

	if s.metrics != nil {
		switch dec.Outcome {
		case reviewitem.OutcomeApproved:
			s.metrics.ReviewsApproved.Add(ctx, 1)
		case reviewitem.OutcomeRejected:
			s.metrics.ReviewsRejected.Add(ctx, 1)
		}
		if !item.CreatedAt.IsZero() {
			s.metrics.QueueWait.Record(ctx, dec.DecidedAt.Sub(item.CreatedAt).Seconds())
		}
	}

	slog.Info("review decision recorded",
		"item_id", dec.ItemID,
		"brand_id", dec.BrandID,
		"outcome", dec.Outcome,
		"disposition", dec.Disposition,
		"reviewer_id", dec.ReviewerID,
	)
}
