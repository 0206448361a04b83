package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/brandloom/brandloom/internal/domain/reviewitem"
	"github.com/brandloom/brandloom/internal/port/auditlog"
	"github.com/brandloom/brandloom/internal/service"
)

const headerReviewerID = "X-Reviewer-ID"

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Queues    *service.QueueService
	Approvals *service.ApprovalService
	Dashboard *service.DashboardService
	Audit     auditlog.Log
}

// decisionRequest is the optional body on approve/reject calls.
type decisionRequest struct {
	Notes string `json:"reviewer_notes"`
}

type queueResponse struct {
	Success bool                 `json:"success"`
	BrandID string               `json:"brand_id"`
	Items   []service.QueueEntry `json:"items"`
}

type itemResponse struct {
	Success bool                `json:"success"`
	Item    *service.QueueEntry `json:"item"`
}

type decisionResponse struct {
	Success  bool                       `json:"success"`
	Decision *reviewitem.ReviewDecision `json:"decision"`
}

type dashboardResponse struct {
	Success bool                 `json:"success"`
	Brands  []service.BrandQueue `json:"brands"`
}

type auditResponse struct {
	Success   bool                        `json:"success"`
	BrandID   string                      `json:"brand_id"`
	Decisions []reviewitem.ReviewDecision `json:"decisions"`
}

type enqueueResponse struct {
	Success bool                   `json:"success"`
	Item    *reviewitem.ReviewItem `json:"item"`
}

// GetQueue returns a brand's pending review items in FIFO order.
func (h *Handlers) GetQueue(w http.ResponseWriter, r *http.Request) {
	brandID := urlParam(r, "brandId")
	if !requireField(w, brandID, "brand id") {
		return
	}

	entries, err := h.Queues.ListQueue(r.Context(), brandID)
	if err != nil {
		writeDomainError(w, err, "queue not found")
		return
	}
	writeJSON(w, http.StatusOK, queueResponse{Success: true, BrandID: brandID, Items: entries})
}

// GetItem returns a single pending review item.
func (h *Handlers) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID := urlParam(r, "itemId")
	if !requireField(w, itemID, "item id") {
		return
	}

	entry, err := h.Queues.GetItem(r.Context(), itemID)
	if err != nil {
		writeDomainError(w, err, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{Success: true, Item: entry})
}

// ApproveItem records an approval. The reviewer is identified by the
// X-Reviewer-ID header; the optional body carries reviewer notes.
func (h *Handlers) ApproveItem(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Approvals.Approve)
}

// RejectItem records a rejection. Permitted for every item, including
// blocked content.
func (h *Handlers) RejectItem(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Approvals.Reject)
}

type decideFunc func(ctx context.Context, itemID, reviewerID, notes string) (*reviewitem.ReviewDecision, error)

func (h *Handlers) decide(w http.ResponseWriter, r *http.Request, fn decideFunc) {
	itemID := urlParam(r, "itemId")
	if !requireField(w, itemID, "item id") {
		return
	}
	reviewerID := r.Header.Get(headerReviewerID)
	if !requireField(w, reviewerID, headerReviewerID+" header") {
		return
	}

	var req decisionRequest
	if r.ContentLength > 0 {
		var ok bool
		if req, ok = readJSON[decisionRequest](w, r); !ok {
			return
		}
	}

	dec, err := fn(r.Context(), itemID, reviewerID, req.Notes)
	if err != nil {
		writeDomainError(w, err, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, decisionResponse{Success: true, Decision: dec})
}

// GetDashboard aggregates queues across the brands named in the comma
// separated "brands" query parameter. Brands whose fetch fails are reported
// inline; the response is 200 as long as the request itself is valid.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("brands")
	if !requireField(w, raw, "brands query parameter") {
		return
	}
	brandIDs := strings.Split(raw, ",")

	brands, err := h.Dashboard.ListAcrossBrands(r.Context(), brandIDs)
	if err != nil {
		writeDomainError(w, err, "dashboard unavailable")
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{Success: true, Brands: brands})
}

// GetAuditTrail returns a brand's decision history, most recent first.
func (h *Handlers) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	brandID := urlParam(r, "brandId")
	if !requireField(w, brandID, "brand id") {
		return
	}

	decisions, err := h.Audit.ListByBrand(r.Context(), brandID)
	if err != nil {
		writeDomainError(w, err, "audit log not found")
		return
	}
	writeJSON(w, http.StatusOK, auditResponse{Success: true, BrandID: brandID, Decisions: decisions})
}

// EnqueueItem is the HMAC-verified generator callback that pushes a finished
// result onto a brand's review queue.
func (h *Handlers) EnqueueItem(w http.ResponseWriter, r *http.Request) {
	brandID := urlParam(r, "brandId")
	if !requireField(w, brandID, "brand id") {
		return
	}

	res, ok := readJSON[reviewitem.GeneratorResult](w, r)
	if !ok {
		return
	}

	item, err := h.Queues.Ingest(r.Context(), brandID, &res)
	if err != nil {
		writeDomainError(w, err, "brand not found")
		return
	}
	writeJSON(w, http.StatusCreated, enqueueResponse{Success: true, Item: item})
}
