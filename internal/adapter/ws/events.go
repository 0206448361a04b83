package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventReviewEnqueued = "review.enqueued"
	EventReviewDecided  = "review.decided"
)

// ReviewEnqueuedEvent is broadcast when a new item lands on a review queue.
type ReviewEnqueuedEvent struct {
	ItemID      string `json:"item_id"`
	BrandID     string `json:"brand_id"`
	AgentKind   string `json:"agent_kind"`
	Disposition string `json:"disposition"`
}

// ReviewDecidedEvent is broadcast when a reviewer approves or rejects an item.
type ReviewDecidedEvent struct {
	ItemID     string `json:"item_id"`
	BrandID    string `json:"brand_id"`
	Outcome    string `json:"outcome"`
	ReviewerID string `json:"reviewer_id,omitempty"`
}

// BroadcastEvent marshals a typed event and broadcasts it to the tenant's
// connected clients.
func (h *Hub) BroadcastEvent(ctx context.Context, tenantID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.BroadcastToTenant(ctx, tenantID, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
