package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/platform/httpx"
	"github.com/sobri3195/WarungWA/internal/services"
)

// ReportHandlers serves read-only aggregates over a shop's orders.
type ReportHandlers struct {
	reports services.ReportingService
}

func NewReportHandlers(reports services.ReportingService) *ReportHandlers {
	return &ReportHandlers{reports: reports}
}

func (h *ReportHandlers) Routes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
	r.Get("/orders-by-status", h.OrdersByStatus)
	r.Get("/daily-revenue", h.DailyRevenue)
	r.Get("/revenue-series", h.RevenueSeries)
	r.Get("/top-products", h.TopProducts)
}

type dashboardPayload struct {
	TotalOrders     int64 `json:"total_orders"`
	TotalRevenue    int64 `json:"total_revenue"`
	PendingPayments int64 `json:"pending_payments"`
	ActiveCustomers int64 `json:"active_customers"`
}

type revenuePointPayload struct {
	Day     string `json:"day"`
	Revenue int64  `json:"revenue"`
	Orders  int64  `json:"orders"`
}

type productSalesPayload struct {
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	Revenue     int64  `json:"revenue"`
}

func (h *ReportHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	stats, err := h.reports.Dashboard(r.Context(), identity.ShopID)
	if err != nil {
		writeReportError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, dashboardPayload{
		TotalOrders:     stats.TotalOrders,
		TotalRevenue:    stats.TotalRevenue,
		PendingPayments: stats.PendingPayments,
		ActiveCustomers: stats.ActiveCustomers,
	})
}

func (h *ReportHandlers) OrdersByStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	pager, err := parsePagination(r)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	status := domain.OrderStatus(r.URL.Query().Get("status"))
	page, err := h.reports.OrdersByStatus(r.Context(), identity.ShopID, status, pager)
	if err != nil {
		writeReportError(r, w, err)
		return
	}
	response := orderListPayload{Orders: make([]orderPayload, 0, len(page.Items)), NextPageToken: page.NextPageToken}
	for _, order := range page.Items {
		response.Orders = append(response.Orders, toOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, response)
}

// DailyRevenue reports completed-order revenue for one calendar day (UTC).
func (h *ReportHandlers) DailyRevenue(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	day, err := parseTimeParam(r.URL.Query().Get("day"))
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "day must be RFC3339", http.StatusBadRequest))
		return
	}
	point, err := h.reports.DailyRevenue(r.Context(), identity.ShopID, day)
	if err != nil {
		writeReportError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toRevenuePointPayload(point))
}

func (h *ReportHandlers) RevenueSeries(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "days must be an integer", http.StatusBadRequest))
			return
		}
		days = parsed
	}
	series, err := h.reports.RevenueSeries(r.Context(), identity.ShopID, days)
	if err != nil {
		writeReportError(r, w, err)
		return
	}
	points := make([]revenuePointPayload, 0, len(series))
	for _, point := range series {
		points = append(points, toRevenuePointPayload(point))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"series": points})
}

func (h *ReportHandlers) TopProducts(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	cmd := services.TopProductsQuery{ShopID: identity.ShopID}
	query := r.URL.Query()
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "limit must be an integer", http.StatusBadRequest))
			return
		}
		cmd.Limit = limit
	}
	if raw := query.Get("since"); raw != "" {
		since, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "since must be RFC3339", http.StatusBadRequest))
			return
		}
		cmd.Since = &since
	}
	products, err := h.reports.TopProducts(r.Context(), cmd)
	if err != nil {
		writeReportError(r, w, err)
		return
	}
	payload := make([]productSalesPayload, 0, len(products))
	for _, product := range products {
		payload = append(payload, productSalesPayload{
			ProductName: product.ProductName,
			Quantity:    product.Quantity,
			Revenue:     product.Revenue,
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": payload})
}

func toRevenuePointPayload(point domain.DailyRevenuePoint) revenuePointPayload {
	return revenuePointPayload{
		Day:     point.Day.UTC().Format("2006-01-02"),
		Revenue: point.Revenue,
		Orders:  point.Orders,
	}
}

func writeReportError(r *http.Request, w http.ResponseWriter, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrReportingInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
