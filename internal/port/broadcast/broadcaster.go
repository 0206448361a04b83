// Package broadcast defines the port for broadcasting real-time events to connected clients.
package broadcast

import "context"

// Broadcaster sends real-time events to a tenant's connected dashboard clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to all clients of the given tenant.
	BroadcastEvent(ctx context.Context, tenantID, eventType string, payload any)
}
