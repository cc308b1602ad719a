package soldmishttp

import "github.com/go-chi/chi/v5"

// MountRoutes registers the sold-MIS reporting endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/summary", h.handleSummary)
	r.Get("/breakdown", h.handleBreakdown)
	r.Get("/unit", h.handleUnit)
	r.Get("/payments", h.handlePayments)
	r.Get("/receivables", h.handleReceivables)
	r.Get("/bookings", h.handleBookings)
}
