// Package service implements the application services that sit between the
// HTTP adapter and the ports: queue ingestion, approval decisions, and the
// multi-brand dashboard aggregator.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"
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

// QueueEntry is a pending review item together with its computed disposition.
// The disposition is derived on read, never stored, so a threshold change
// takes effect immediately.
type QueueEntry struct {
	reviewitem.ReviewItem
	Disposition decision.Disposition `json:"disposition"`
}

// passThreshold holds the fidelity pass threshold behind an atomic so a
// config reload can swap it while readers classify concurrently.
type passThreshold struct {
	bits atomic.Uint64
}

func (p *passThreshold) Store(v float64) { p.bits.Store(math.Float64bits(v)) }
func (p *passThreshold) Load() float64   { return math.Float64frombits(p.bits.Load()) }

// QueueService ingests generator results onto per-brand review queues and
// serves queue reads.
type QueueService struct {
	store     queuestore.Store
	cache     cache.Cache
	mq        messagequeue.Queue
	hub       broadcast.Broadcaster
	metrics   *otel.Metrics
	threshold passThreshold
}

// NewQueueService creates a QueueService. cache, mq, hub, and metrics may be
// nil; the corresponding side effects are skipped.
func NewQueueService(store queuestore.Store, c cache.Cache, mq messagequeue.Queue, hub broadcast.Broadcaster, m *otel.Metrics, threshold float64) *QueueService {
	s := &QueueService{
		store:   store,
		cache:   c,
		mq:      mq,
		hub:     hub,
		metrics: m,
	}
	s.threshold.Store(threshold)
	return s
}

// SetThreshold swaps the pass threshold. Dispositions are derived on read,
// so the new value applies to every subsequent classification.
func (s *QueueService) SetThreshold(v float64) {
	s.threshold.Store(v)
}

// queueCacheKey builds the snapshot cache key for a brand, scoped by tenant.
func queueCacheKey(ctx context.Context, brandID string) string {
	return "queue:" + middleware.TenantIDFromContext(ctx) + ":" + brandID
}

// Ingest parses a generator result, enqueues it for review, and fans out the
// enqueue event. Malformed scores are discarded with a logged warning, which
// leaves the item unscored and therefore routed to human review. Returns
// domain.ErrDuplicateItem when the item id is already queued.
func (s *QueueService) Ingest(ctx context.Context, brandID string, res *reviewitem.GeneratorResult) (*reviewitem.ReviewItem, error) {
	item, warnings, err := reviewitem.ParseResult(brandID, res, s.threshold.Load())
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		slog.Warn("generator result score discarded", "brand_id", brandID, "item_id", item.ID, "reason", w)
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = time.Now().UTC()

	if err := item.Validate(); err != nil {
		return nil, err
	}

	ctx, span := otel.StartIngestSpan(ctx, item.ID, brandID, string(item.AgentKind))
	defer span.End()

	if err := s.store.Enqueue(ctx, item); err != nil {
		if s.metrics != nil && isDuplicate(err) {
			s.metrics.DuplicateEnqueues.Add(ctx, 1)
		}
		return nil, err
	}

	d := decision.Classify(item, s.threshold.Load())
	s.invalidateSnapshot(ctx, brandID)

	if s.mq != nil {
		if data, merr := json.Marshal(item); merr == nil {
			if perr := s.mq.Publish(ctx, messagequeue.SubjectReviewEnqueued, data); perr != nil {
				slog.Error("publish enqueue event failed", "item_id", item.ID, "error", perr)
			}
		}
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, middleware.TenantIDFromContext(ctx), ws.EventReviewEnqueued, ws.ReviewEnqueuedEvent{
			ItemID:      item.ID,
			BrandID:     brandID,
			AgentKind:   string(item.AgentKind),
			Disposition: string(d),
		})
	}
	if s.metrics != nil {
		s.metrics.ReviewsEnqueued.Add(ctx, 1)
	}

	slog.Info("review item enqueued",
		"item_id", item.ID,
		"brand_id", brandID,
		"agent_kind", item.AgentKind,
		"disposition", d,
	)
	return item, nil
}

// HandleGenerated is the message handler for generator completion messages
// on reviews.generated.{brandId}. The brand is taken from the subject.
func (s *QueueService) HandleGenerated(ctx context.Context, subject string, data []byte) error {
	brandID := strings.TrimPrefix(subject, messagequeue.SubjectReviewGenerated+".")
	if brandID == "" || brandID == subject {
		return fmt.Errorf("%w: subject %q carries no brand id", domain.ErrValidation, subject)
	}

	var res reviewitem.GeneratorResult
	if err := json.Unmarshal(data, &res); err != nil {
		return fmt.Errorf("%w: decode generator result: %v", domain.ErrValidation, err)
	}

	_, err := s.Ingest(ctx, brandID, &res)
	if err != nil && isDuplicate(err) {
		// Redelivered message; the item is already queued.
		slog.Debug("duplicate generator message ignored", "brand_id", brandID, "item_id", res.ID)
		return nil
	}
	return err
}

// ListQueue returns a brand's pending items in FIFO order, each annotated
// with its disposition. Store failures surface as domain.ErrUpstreamUnavailable
// so callers can distinguish "queue empty" from "queue unreachable".
func (s *QueueService) ListQueue(ctx context.Context, brandID string) ([]QueueEntry, error) {
	items, err := s.store.List(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("%w: list queue for brand %s: %v", domain.ErrUpstreamUnavailable, brandID, err)
	}

	entries := make([]QueueEntry, 0, len(items))
	for i := range items {
		entries = append(entries, QueueEntry{
			ReviewItem:  items[i],
			Disposition: decision.Classify(&items[i], s.threshold.Load()),
		})
	}
	return entries, nil
}

// GetItem returns a single pending item with its disposition.
func (s *QueueService) GetItem(ctx context.Context, itemID string) (*QueueEntry, error) {
	item, err := s.store.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &QueueEntry{
		ReviewItem:  *item,
		Disposition: decision.Classify(item, s.threshold.Load()),
	}, nil
}

func (s *QueueService) invalidateSnapshot(ctx context.Context, brandID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, queueCacheKey(ctx, brandID)); err != nil {
		slog.Warn("queue snapshot invalidation failed", "brand_id", brandID, "error", err)
	}
}

func isDuplicate(err error) bool {
	return errors.Is(err, domain.ErrDuplicateItem)
}
