package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/brandloom/brandloom/internal/config"
	"github.com/brandloom/brandloom/internal/middleware"
)

// MountRoutes registers the review pipeline API on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, webhookCfg config.Webhook) {
	r.Route("/api/agents/review", func(r chi.Router) {
		// Reviewer-facing surface.
		r.Get("/queue/{brandId}", h.GetQueue)
		r.Get("/item/{itemId}", h.GetItem)
		r.Post("/approve/{itemId}", h.ApproveItem)
		r.Post("/reject/{itemId}", h.RejectItem)
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/audit/{brandId}", h.GetAuditTrail)

		// Generator callback (HMAC-signed, outside reviewer auth).
		r.With(middleware.WebhookHMAC(webhookCfg.GeneratorSecret, "X-Brandloom-Signature")).
			Post("/enqueue/{brandId}", h.EnqueueItem)
	})
}
