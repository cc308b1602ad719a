// Package soldmishttp exposes the sold-MIS reporting operations over HTTP.
package soldmishttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/forestscape/soldmis/internal/platform/httpx"
	"github.com/forestscape/soldmis/internal/soldmis"
)

// ReportService defines the reporting contract used by the handler.
type ReportService interface {
	Summary(ctx context.Context, req soldmis.ReportRequest) (*soldmis.SummaryResponse, error)
	Breakdown(ctx context.Context, req soldmis.BreakdownRequest) (*soldmis.BreakdownResponse, error)
	Unit(ctx context.Context, req soldmis.UnitRequest) (*soldmis.UnitResponse, error)
	Payments(ctx context.Context, req soldmis.ReportRequest) (*soldmis.PaymentsResponse, error)
	Receivables(ctx context.Context, req soldmis.ReceivablesRequest) (*soldmis.ReceivablesResponse, error)
	Bookings(ctx context.Context, req soldmis.BookingsRequest) (*soldmis.BookingsResponse, error)
}

// Handler coordinates HTTP requests for the sold-MIS reports.
type Handler struct {
	logger  *slog.Logger
	service ReportService
}

// NewHandler constructs the reporting HTTP handler.
func NewHandler(logger *slog.Logger, service ReportService) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Summary(r.Context(), reportRequest(r.URL.Query()))
	if err != nil {
		h.respondError(w, "summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := soldmis.BreakdownRequest{
		ReportRequest: reportRequest(query),
		GroupBy:       strings.TrimSpace(query.Get("group_by")),
	}
	resp, err := h.service.Breakdown(r.Context(), req)
	if err != nil {
		h.respondError(w, "breakdown", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUnit(w http.ResponseWriter, r *http.Request) {
	req := soldmis.UnitRequest{UnitNo: strings.TrimSpace(r.URL.Query().Get("unit_no"))}
	resp, err := h.service.Unit(r.Context(), req)
	if err != nil {
		h.respondError(w, "unit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePayments(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Payments(r.Context(), reportRequest(r.URL.Query()))
	if err != nil {
		h.respondError(w, "payments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReceivables(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := parseLimit(query)
	if err != nil {
		h.respondError(w, "receivables", err)
		return
	}
	minReceivable, err := parseMinReceivable(query)
	if err != nil {
		h.respondError(w, "receivables", err)
		return
	}
	req := soldmis.ReceivablesRequest{
		ReportRequest: reportRequest(query),
		MinReceivable: minReceivable,
		Limit:         limit,
	}
	resp, err := h.service.Receivables(r.Context(), req)
	if err != nil {
		h.respondError(w, "receivables", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := parseLimit(query)
	if err != nil {
		h.respondError(w, "bookings", err)
		return
	}
	req := soldmis.BookingsRequest{
		ReportRequest: reportRequest(query),
		SoldOnly:      parseSoldOnly(query),
		Limit:         limit,
	}
	resp, err := h.service.Bookings(r.Context(), req)
	if err != nil {
		h.respondError(w, "bookings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil && httpx.StatusForError(err) >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

// reportRequest extracts the shared date range and recognized filters.
func reportRequest(query url.Values) soldmis.ReportRequest {
	filters := soldmis.Filters{}
	for _, name := range soldmis.FilterParams() {
		if value := strings.TrimSpace(query.Get(name)); value != "" {
			filters[name] = value
		}
	}
	return soldmis.ReportRequest{
		From:    strings.TrimSpace(query.Get("from")),
		To:      strings.TrimSpace(query.Get("to")),
		Filters: filters,
	}
}

func parseLimit(query url.Values) (int, error) {
	raw := strings.TrimSpace(query.Get("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit must be an integer between 1 and 1000", httpx.ErrInvalidParameter)
	}
	return n, nil
}

func parseMinReceivable(query url.Values) (float64, error) {
	raw := strings.TrimSpace(query.Get("min_receivable"))
	if raw == "" {
		return 1, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: min_receivable must be a number", httpx.ErrInvalidParameter)
	}
	return v, nil
}

// parseSoldOnly defaults to true to match the master sheet: only SOLD rows
// count as bookings unless the caller opts out.
func parseSoldOnly(query url.Values) bool {
	raw := strings.ToLower(strings.TrimSpace(query.Get("sold_only")))
	if raw == "" {
		return true
	}
	switch raw {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
