package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/brandloom/brandloom/internal/adapter/otel"
	"github.com/brandloom/brandloom/internal/fetchpool"
	"github.com/brandloom/brandloom/internal/port/cache"
	"github.com/brandloom/brandloom/internal/resilience"
)

// BrandQueue is one brand's slice of the aggregated dashboard view. A failed
// fetch carries the error message and a nil item list; the other brands'
// results are unaffected.
type BrandQueue struct {
	BrandID string       `json:"brand_id"`
	Items   []QueueEntry `json:"items"`
	Error   string       `json:"error,omitempty"`
}

// DashboardService aggregates review queues across many brands for the
// unified dashboard. Fetches fan out concurrently through a bounded pool,
// each guarded by a per-brand circuit breaker and timeout, with short-lived
// snapshots cached between requests.
type DashboardService struct {
	queues       *QueueService
	cache        cache.Cache
	pool         *fetchpool.Pool
	breakers     *resilience.Group
	metrics      *otel.Metrics
	fetchTimeout time.Duration
	snapshotTTL  time.Duration
}

// NewDashboardService creates a DashboardService. cache and metrics may be
// nil; pool may be nil to disable the concurrency bound.
func NewDashboardService(queues *QueueService, c cache.Cache, pool *fetchpool.Pool, breakers *resilience.Group, m *otel.Metrics, fetchTimeout, snapshotTTL time.Duration) *DashboardService {
	return &DashboardService{
		queues:       queues,
		cache:        c,
		pool:         pool,
		breakers:     breakers,
		metrics:      m,
		fetchTimeout: fetchTimeout,
		snapshotTTL:  snapshotTTL,
	}
}

// ListAcrossBrands fetches every requested brand's queue concurrently and
// returns one BrandQueue per distinct brand, in request order. A brand whose
// fetch fails is reported inline; the call as a whole only errors when the
// request context is done.
func (s *DashboardService) ListAcrossBrands(ctx context.Context, brandIDs []string) ([]BrandQueue, error) {
	brandIDs = dedupe(brandIDs)

	ctx, span := otel.StartDashboardSpan(ctx, len(brandIDs))
	defer span.End()

	results := make([]BrandQueue, len(brandIDs))
	var wg sync.WaitGroup
	for i, brandID := range brandIDs {
		wg.Add(1)
		go func(i int, brandID string) {
			defer wg.Done()
			results[i] = s.fetchBrand(ctx, brandID)
		}(i, brandID)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *DashboardService) fetchBrand(ctx context.Context, brandID string) BrandQueue {
	if entries, ok := s.cachedSnapshot(ctx, brandID); ok {
		return BrandQueue{BrandID: brandID, Items: entries}
	}

	var entries []QueueEntry
	err := s.pool.Run(ctx, func() error {
		return s.breakers.Get(brandID).Execute(func() error {
			fetchCtx := ctx
			if s.fetchTimeout > 0 {
				var cancel context.CancelFunc
				fetchCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
				defer cancel()
			}
			var lerr error
			entries, lerr = s.queues.ListQueue(fetchCtx, brandID)
			return lerr
		})
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.PartialFailures.Add(ctx, 1)
		}
		slog.Warn("brand queue fetch failed", "brand_id", brandID, "error", err)
		return BrandQueue{BrandID: brandID, Error: err.Error()}
	}

	s.storeSnapshot(ctx, brandID, entries)
	return BrandQueue{BrandID: brandID, Items: orEmptyEntries(entries)}
}

func (s *DashboardService) cachedSnapshot(ctx context.Context, brandID string) ([]QueueEntry, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, queueCacheKey(ctx, brandID))
	if err != nil {
		slog.Warn("queue snapshot read failed", "brand_id", brandID, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var entries []QueueEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("queue snapshot decode failed", "brand_id", brandID, "error", err)
		return nil, false
	}
	return entries, true
}

func (s *DashboardService) storeSnapshot(ctx context.Context, brandID string, entries []QueueEntry) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(orEmptyEntries(entries))
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, queueCacheKey(ctx, brandID), data, s.snapshotTTL); err != nil {
		slog.Warn("queue snapshot write failed", "brand_id", brandID, "error", err)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func orEmptyEntries(entries []QueueEntry) []QueueEntry {
	if entries == nil {
		return []QueueEntry{}
	}
	return entries
}
