package postgres

import (
	"context"
	"fmt"

	"github.com/brandloom/brandloom/internal/domain/reviewitem"
)

// Append inserts a decision record outside a Decide transaction. Used by
// backfill tooling; the approval path goes through Store.Decide.
func (s *Store) Append(ctx context.Context, dec *reviewitem.ReviewDecision) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO review_decisions
		 (id, tenant_id, item_id, brand_id, outcome, disposition, reviewer_id, reviewer_notes, decided_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		dec.ID, tenantFromCtx(ctx), dec.ItemID, dec.BrandID, string(dec.Outcome),
		dec.Disposition, dec.ReviewerID, dec.ReviewerNotes, dec.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("append decision for item %s: %w", dec.ItemID, err)
	}
	return nil
}

// ListByBrand returns a brand's decision trail, most recent first.
func (s *Store) ListByBrand(ctx context.Context, brandID string) ([]reviewitem.ReviewDecision, error) {
	const q = `SELECT id, item_id, brand_id, outcome, disposition,
		reviewer_id, reviewer_notes, decided_at
		FROM review_decisions WHERE brand_id = $1 AND tenant_id = $2
		ORDER BY decided_at DESC`
	rows, err := s.pool.Query(ctx, q, brandID, tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list decisions for brand %s: %w", brandID, err)
	}
	defer rows.Close()

	var decisions []reviewitem.ReviewDecision
	for rows.Next() {
		var d reviewitem.ReviewDecision
		if err := rows.Scan(
			&d.ID, &d.ItemID, &d.BrandID, &d.Outcome, &d.Disposition,
			&d.ReviewerID, &d.ReviewerNotes, &d.DecidedAt,
		); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	return orEmpty(decisions), rows.Err()
}
