package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/repositories"
)

const defaultTopProductsLimit = 5

// ErrReportingInvalidInput signals the caller provided invalid data.
var ErrReportingInvalidInput = errors.New("reporting: invalid input")

// ReportingServiceDeps bundles collaborators for the reporting service.
type ReportingServiceDeps struct {
	Orders    repositories.OrderRepository
	Items     repositories.OrderItemRepository
	Customers repositories.CustomerRepository
	Clock     func() time.Time
}

var _ ReportingService = (*reportingService)(nil)

type reportingService struct {
	orders    repositories.OrderRepository
	items     repositories.OrderItemRepository
	customers repositories.CustomerRepository
	clock     func() time.Time
}

// NewReportingService wires dependencies into a concrete ReportingService
// implementation.
func NewReportingService(deps ReportingServiceDeps) (ReportingService, error) {
	if deps.Orders == nil {
		return nil, errors.New("reporting service: order repository is required")
	}
	if deps.Items == nil {
		return nil, errors.New("reporting service: order item repository is required")
	}
	if deps.Customers == nil {
		return nil, errors.New("reporting service: customer repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &reportingService{
		orders:    deps.Orders,
		items:     deps.Items,
		customers: deps.Customers,
		clock:     func() time.Time { return clock().UTC() },
	}, nil
}

// Dashboard summarises a shop at a glance: order volume, realised revenue
// from completed orders, orders still waiting on money, and customer count.
func (s *reportingService) Dashboard(ctx context.Context, shopID string) (DashboardStats, error) {
	shopID = strings.TrimSpace(shopID)
	if shopID == "" {
		return DashboardStats{}, fmt.Errorf("%w: shop id is required", ErrReportingInvalidInput)
	}

	orders, err := s.orders.ListAll(ctx, repositories.OrderListFilter{ShopID: shopID})
	if err != nil {
		return DashboardStats{}, err
	}

	stats := DashboardStats{TotalOrders: int64(len(orders))}
	for _, order := range orders {
		if order.Status == domain.OrderStatusCompleted {
			stats.TotalRevenue += order.Total
		}
		if order.PaymentStatus != domain.PaymentStatusPaid && order.Status != domain.OrderStatusCancelled {
			stats.PendingPayments++
		}
	}

	active, err := s.customers.CountActive(ctx, shopID)
	if err != nil {
		return DashboardStats{}, err
	}
	stats.ActiveCustomers = active

	return stats, nil
}

func (s *reportingService) OrdersByStatus(ctx context.Context, shopID string, status OrderStatus, pager Pagination) (domain.CursorPage[Order], error) {
	shopID = strings.TrimSpace(shopID)
	if shopID == "" {
		return domain.CursorPage[Order]{}, fmt.Errorf("%w: shop id is required", ErrReportingInvalidInput)
	}
	if !slices.Contains(knownOrderStatuses, string(status)) {
		return domain.CursorPage[Order]{}, fmt.Errorf("%w: unknown status %q", ErrReportingInvalidInput, status)
	}
	return s.orders.List(ctx, repositories.OrderListFilter{
		ShopID:     shopID,
		Status:     []OrderStatus{status},
		Pagination: pager,
	})
}

// DailyRevenue sums completed-order totals for the calendar day containing
// the probed instant, using the half-open window [dayStart, nextDayStart).
func (s *reportingService) DailyRevenue(ctx context.Context, shopID string, day time.Time) (DailyRevenuePoint, error) {
	shopID = strings.TrimSpace(shopID)
	if shopID == "" {
		return DailyRevenuePoint{}, fmt.Errorf("%w: shop id is required", ErrReportingInvalidInput)
	}
	if day.IsZero() {
		day = s.clock()
	}

	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	orders, err := s.completedOrdersBetween(ctx, shopID, start, end)
	if err != nil {
		return DailyRevenuePoint{}, err
	}

	point := DailyRevenuePoint{Day: start}
	for _, order := range orders {
		point.Revenue += order.Total
		point.Orders++
	}
	return point, nil
}

// RevenueSeries returns one point per calendar day covering the trailing
// window that ends today, oldest day first. Days without completed orders
// appear with zero revenue so a chart axis stays continuous.
func (s *reportingService) RevenueSeries(ctx context.Context, shopID string, days int) ([]DailyRevenuePoint, error) {
	shopID = strings.TrimSpace(shopID)
	if shopID == "" {
		return nil, fmt.Errorf("%w: shop id is required", ErrReportingInvalidInput)
	}
	if days <= 0 {
		days = 7
	}

	today := s.clock().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(days - 1))
	end := today.Add(24 * time.Hour)

	orders, err := s.completedOrdersBetween(ctx, shopID, start, end)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]*DailyRevenuePoint, days)
	series := make([]DailyRevenuePoint, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		series = append(series, DailyRevenuePoint{Day: day})
		byDay[day] = &series[len(series)-1]
	}
	for _, order := range orders {
		day := order.CreatedAt.UTC().Truncate(24 * time.Hour)
		if point, ok := byDay[day]; ok {
			point.Revenue += order.Total
			point.Orders++
		}
	}
	return series, nil
}

// TopProducts ranks products by quantity sold across completed orders,
// optionally limited to orders created at or after cmd.Since. Ties break on
// revenue, then name, so the ranking is stable.
func (s *reportingService) TopProducts(ctx context.Context, cmd TopProductsQuery) ([]ProductSales, error) {
	shopID := strings.TrimSpace(cmd.ShopID)
	if shopID == "" {
		return nil, fmt.Errorf("%w: shop id is required", ErrReportingInvalidInput)
	}
	limit := cmd.Limit
	if limit <= 0 {
		limit = defaultTopProductsLimit
	}

	filter := repositories.OrderListFilter{
		ShopID: shopID,
		Status: []OrderStatus{domain.OrderStatusCompleted},
	}
	if cmd.Since != nil {
		since := cmd.Since.UTC()
		filter.DateRange.From = &since
	}
	orders, err := s.orders.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]*ProductSales)
	for _, order := range orders {
		items, err := s.items.ListByOrder(ctx, shopID, order.ID)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			entry, ok := totals[item.ProductName]
			if !ok {
				entry = &ProductSales{ProductName: item.ProductName}
				totals[item.ProductName] = entry
			}
			entry.Quantity += item.Quantity
			entry.Revenue += item.Subtotal
		}
	}

	ranked := make([]ProductSales, 0, len(totals))
	for _, entry := range totals {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Quantity != ranked[j].Quantity {
			return ranked[i].Quantity > ranked[j].Quantity
		}
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return ranked[i].ProductName < ranked[j].ProductName
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (s *reportingService) completedOrdersBetween(ctx context.Context, shopID string, from, to time.Time) ([]Order, error) {
	filter := repositories.OrderListFilter{
		ShopID: shopID,
		Status: []OrderStatus{domain.OrderStatusCompleted},
	}
	filter.DateRange.From = &from
	filter.DateRange.To = &to
	return s.orders.ListAll(ctx, filter)
}
