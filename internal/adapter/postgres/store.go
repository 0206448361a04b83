package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brandloom/brandloom/internal/domain/reviewitem"
	"github.com/brandloom/brandloom/internal/domain/scoring"
)

// Store implements queuestore.Store and auditlog.Log using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Enqueue inserts a pending review item. The primary key on id turns a
// duplicate enqueue into domain.ErrDuplicateItem.
func (s *Store) Enqueue(ctx context.Context, item *reviewitem.ReviewItem) error {
	fidelity, compliance, err := marshalScores(item)
	if err != nil {
		return err
	}

	const q = `INSERT INTO review_items
		(id, tenant_id, brand_id, agent_kind, input, output,
		 fidelity_score, compliance_result, generation_error, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err = s.pool.Exec(ctx, q,
		item.ID, tenantFromCtx(ctx), item.BrandID, string(item.AgentKind),
		rawOrNull(item.Input), rawOrNull(item.Output),
		fidelity, compliance, item.GenerationError, item.CreatedAt,
	)
	if err != nil {
		return duplicateWrap(err, "enqueue item %s", item.ID)
	}
	return nil
}

// itemColumns is the SELECT column list for review_items queries.
const itemColumns = `id, brand_id, agent_kind, input, output,
	fidelity_score, compliance_result, generation_error, created_at`

// scanItem scans a row into a ReviewItem, decoding the jsonb score columns.
func scanItem(scanner interface{ Scan(dest ...any) error }, it *reviewitem.ReviewItem) error {
	var fidelity, compliance []byte
	if err := scanner.Scan(
		&it.ID, &it.BrandID, &it.AgentKind, &it.Input, &it.Output,
		&fidelity, &compliance, &it.GenerationError, &it.CreatedAt,
	); err != nil {
		return err
	}

	if len(fidelity) > 0 {
		it.FidelityScore = &scoring.BrandFidelityScore{}
		if err := json.Unmarshal(fidelity, it.FidelityScore); err != nil {
			return fmt.Errorf("decode fidelity score for %s: %w", it.ID, err)
		}
	}
	if len(compliance) > 0 {
		it.ComplianceResult = &scoring.LinterResult{}
		if err := json.Unmarshal(compliance, it.ComplianceResult); err != nil {
			return fmt.Errorf("decode compliance result for %s: %w", it.ID, err)
		}
	}
	return nil
}

// List returns a brand's pending items, oldest first. Ordering uses the
// bigserial position column so it stays stable under clock skew.
func (s *Store) List(ctx context.Context, brandID string) ([]reviewitem.ReviewItem, error) {
	q := fmt.Sprintf(`SELECT %s FROM review_items
		WHERE brand_id = $1 AND tenant_id = $2 ORDER BY position ASC`, itemColumns)
	rows, err := s.pool.Query(ctx, q, brandID, tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list queue for brand %s: %w", brandID, err)
	}
	defer rows.Close()

	var items []reviewitem.ReviewItem
	for rows.Next() {
		var it reviewitem.ReviewItem
		if err := scanItem(rows, &it); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Get retrieves a pending item by id.
func (s *Store) Get(ctx context.Context, itemID string) (*reviewitem.ReviewItem, error) {
	q := fmt.Sprintf(`SELECT %s FROM review_items
		WHERE id = $1 AND tenant_id = $2`, itemColumns)
	it := &reviewitem.ReviewItem{}
	if err := scanItem(s.pool.QueryRow(ctx, q, itemID, tenantFromCtx(ctx)), it); err != nil {
		return nil, notFoundWrap(err, "get item %s", itemID)
	}
	return it, nil
}

// Remove deletes the item if present. A single conditional DELETE; the
// removed flag comes from the affected row count, so concurrent removals
// of the same id resolve to exactly one winner.
func (s *Store) Remove(ctx context.Context, itemID string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM review_items WHERE id = $1 AND tenant_id = $2`,
		itemID, tenantFromCtx(ctx))
	if err != nil {
		return false, fmt.Errorf("remove item %s: %w", itemID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Decide removes the item and appends the decision record in one
// transaction. The audit row is only written when this caller won the
// delete, so the at-most-once decision invariant holds end to end.
func (s *Store) Decide(ctx context.Context, itemID string, dec *reviewitem.ReviewDecision) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin decide %s: %w", itemID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tid := tenantFromCtx(ctx)
	tag, err := tx.Exec(ctx,
		`DELETE FROM review_items WHERE id = $1 AND tenant_id = $2`, itemID, tid)
	if err != nil {
		return false, fmt.Errorf("decide delete %s: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO review_decisions
		 (id, tenant_id, item_id, brand_id, outcome, disposition, reviewer_id, reviewer_notes, decided_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		dec.ID, tid, dec.ItemID, dec.BrandID, string(dec.Outcome),
		dec.Disposition, dec.ReviewerID, dec.ReviewerNotes, dec.DecidedAt,
	)
	if err != nil {
		return false, fmt.Errorf("decide audit append %s: %w", itemID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("decide commit %s: %w", itemID, err)
	}
	return true, nil
}

func marshalScores(item *reviewitem.ReviewItem) (fidelity, compliance []byte, err error) {
	if item.FidelityScore != nil {
		fidelity, err = json.Marshal(item.FidelityScore)
		if err != nil {
			return nil, nil, fmt.Errorf("encode fidelity score: %w", err)
		}
	}
	if item.ComplianceResult != nil {
		compliance, err = json.Marshal(item.ComplianceResult)
		if err != nil {
			return nil, nil, fmt.Errorf("encode compliance result: %w", err)
		}
	}
	return fidelity, compliance, nil
}

// rawOrNull maps empty raw JSON to SQL NULL.
func rawOrNull(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
