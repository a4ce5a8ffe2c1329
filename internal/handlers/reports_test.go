package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/services"
)

type stubReportingService struct {
	dashboardFn   func(context.Context, string) (services.DashboardStats, error)
	byStatusFn    func(context.Context, string, services.OrderStatus, services.Pagination) (domain.CursorPage[services.Order], error)
	dailyFn       func(context.Context, string, time.Time) (services.DailyRevenuePoint, error)
	seriesFn      func(context.Context, string, int) ([]services.DailyRevenuePoint, error)
	topProductsFn func(context.Context, services.TopProductsQuery) ([]services.ProductSales, error)
}

func (s *stubReportingService) Dashboard(ctx context.Context, shopID string) (services.DashboardStats, error) {
	if s.dashboardFn != nil {
		return s.dashboardFn(ctx, shopID)
	}
	return services.DashboardStats{}, errors.New("not implemented")
}

func (s *stubReportingService) OrdersByStatus(ctx context.Context, shopID string, status services.OrderStatus, pager services.Pagination) (domain.CursorPage[services.Order], error) {
	if s.byStatusFn != nil {
		return s.byStatusFn(ctx, shopID, status, pager)
	}
	return domain.CursorPage[services.Order]{}, nil
}

func (s *stubReportingService) DailyRevenue(ctx context.Context, shopID string, day time.Time) (services.DailyRevenuePoint, error) {
	if s.dailyFn != nil {
		return s.dailyFn(ctx, shopID, day)
	}
	return services.DailyRevenuePoint{}, errors.New("not implemented")
}

func (s *stubReportingService) RevenueSeries(ctx context.Context, shopID string, days int) ([]services.DailyRevenuePoint, error) {
	if s.seriesFn != nil {
		return s.seriesFn(ctx, shopID, days)
	}
	return nil, errors.New("not implemented")
}

func (s *stubReportingService) TopProducts(ctx context.Context, cmd services.TopProductsQuery) ([]services.ProductSales, error) {
	if s.topProductsFn != nil {
		return s.topProductsFn(ctx, cmd)
	}
	return nil, errors.New("not implemented")
}

func newReportRouter(service services.ReportingService) chi.Router {
	handler := NewReportHandlers(service)
	router := chi.NewRouter()
	router.Route("/reports", handler.Routes)
	return router
}

func TestReportHandlersDashboard(t *testing.T) {
	service := &stubReportingService{
		dashboardFn: func(ctx context.Context, shopID string) (services.DashboardStats, error) {
			if shopID != "shop-1" {
				t.Fatalf("expected shop-1, got %s", shopID)
			}
			return services.DashboardStats{
				TotalOrders:     12,
				TotalRevenue:    350000,
				PendingPayments: 3,
				ActiveCustomers: 8,
			}, nil
		},
	}
	router := newReportRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/reports/dashboard", nil)
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp dashboardPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.TotalRevenue != 350000 || resp.PendingPayments != 3 {
		t.Fatalf("unexpected dashboard payload: %#v", resp)
	}
}

func TestReportHandlersDailyRevenueRequiresDay(t *testing.T) {
	router := newReportRouter(&stubReportingService{})

	req := httptest.NewRequest(http.MethodGet, "/reports/daily-revenue", nil)
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestReportHandlersDailyRevenueFormatsDay(t *testing.T) {
	service := &stubReportingService{
		dailyFn: func(ctx context.Context, shopID string, day time.Time) (services.DailyRevenuePoint, error) {
			return services.DailyRevenuePoint{
				Day:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
				Revenue: 55000,
				Orders:  2,
			}, nil
		},
	}
	router := newReportRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/reports/daily-revenue?day=2025-06-10T00:00:00Z", nil)
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp revenuePointPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Day != "2025-06-10" || resp.Revenue != 55000 {
		t.Fatalf("unexpected revenue point: %#v", resp)
	}
}

func TestReportHandlersOrdersByStatusRejectsUnknown(t *testing.T) {
	service := &stubReportingService{
		byStatusFn: func(ctx context.Context, shopID string, status services.OrderStatus, pager services.Pagination) (domain.CursorPage[services.Order], error) {
			return domain.CursorPage[services.Order]{}, fmt.Errorf("%w: unknown status %q", services.ErrReportingInvalidInput, status)
		},
	}
	router := newReportRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/reports/orders-by-status?status=DELIVERED", nil)
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestReportHandlersTopProductsParsesQuery(t *testing.T) {
	var captured services.TopProductsQuery
	service := &stubReportingService{
		topProductsFn: func(ctx context.Context, cmd services.TopProductsQuery) ([]services.ProductSales, error) {
			captured = cmd
			return []services.ProductSales{
				{ProductName: "Nasi Goreng", Quantity: 6, Revenue: 90000},
				{ProductName: "Es Teh", Quantity: 3, Revenue: 15000},
			}, nil
		},
	}
	router := newReportRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/reports/top-products?limit=2&since=2025-06-01T00:00:00Z", nil)
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.Limit != 2 {
		t.Fatalf("expected limit 2, got %d", captured.Limit)
	}
	expectedSince := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if captured.Since == nil || !captured.Since.Equal(expectedSince) {
		t.Fatalf("unexpected since: %#v", captured.Since)
	}
	var resp struct {
		Products []productSalesPayload `json:"products"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Products) != 2 || resp.Products[0].ProductName != "Nasi Goreng" {
		t.Fatalf("unexpected products: %#v", resp.Products)
	}
}

func TestReportHandlersRevenueSeriesForwardsDays(t *testing.T) {
	var capturedDays int
	service := &stubReportingService{
		seriesFn: func(ctx context.Context, shopID string, days int) ([]services.DailyRevenuePoint, error) {
			capturedDays = days
			return []services.DailyRevenuePoint{}, nil
		},
	}
	router := newReportRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/reports/revenue-series?days=14", nil)
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if capturedDays != 14 {
		t.Fatalf("expected 14 days, got %d", capturedDays)
	}
}
