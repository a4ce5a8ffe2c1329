package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/platform/session"
	"github.com/sobri3195/WarungWA/internal/services"
)

type stubOrderService struct {
	createFn     func(context.Context, services.CreateOrderCommand) (services.Order, error)
	getFn        func(context.Context, services.OrderQuery, services.OrderReadOptions) (services.Order, error)
	listFn       func(context.Context, services.OrderListFilter) (domain.CursorPage[services.Order], error)
	updateFn     func(context.Context, services.UpdateOrderFieldsCommand) (services.Order, error)
	replaceFn    func(context.Context, services.ReplaceOrderItemsCommand) (services.Order, error)
	transitionFn func(context.Context, services.OrderStatusTransitionCommand) (services.Order, error)
	paymentFn    func(context.Context, services.RecordPaymentCommand) (services.Order, error)
	deleteFn     func(context.Context, services.DeleteOrderCommand) error
	historyFn    func(context.Context, services.OrderQuery) ([]services.StatusChange, error)
	paymentsFn   func(context.Context, services.OrderQuery) ([]services.Payment, error)
}

func (s *stubOrderService) Create(ctx context.Context, cmd services.CreateOrderCommand) (services.Order, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) Get(ctx context.Context, query services.OrderQuery, opts services.OrderReadOptions) (services.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, query, opts)
	}
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) List(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[services.Order]{}, nil
}

func (s *stubOrderService) UpdateFields(ctx context.Context, cmd services.UpdateOrderFieldsCommand) (services.Order, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) ReplaceItems(ctx context.Context, cmd services.ReplaceOrderItemsCommand) (services.Order, error) {
	if s.replaceFn != nil {
		return s.replaceFn(ctx, cmd)
	}
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) TransitionStatus(ctx context.Context, cmd services.OrderStatusTransitionCommand) (services.Order, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, cmd)
	}
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) RecordPayment(ctx context.Context, cmd services.RecordPaymentCommand) (services.Order, error) {
	if s.paymentFn != nil {
		return s.paymentFn(ctx, cmd)
	}
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) Delete(ctx context.Context, cmd services.DeleteOrderCommand) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, cmd)
	}
	return errors.New("not implemented")
}

func (s *stubOrderService) StatusHistory(ctx context.Context, query services.OrderQuery) ([]services.StatusChange, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, query)
	}
	return nil, errors.New("not implemented")
}

func (s *stubOrderService) Payments(ctx context.Context, query services.OrderQuery) ([]services.Payment, error) {
	if s.paymentsFn != nil {
		return s.paymentsFn(ctx, query)
	}
	return nil, errors.New("not implemented")
}

func newOrderRouter(service services.OrderService) chi.Router {
	handler := NewOrderHandlers(service)
	router := chi.NewRouter()
	router.Route("/orders", handler.Routes)
	return router
}

func withShopIdentity(req *http.Request, shopID string) *http.Request {
	return req.WithContext(session.WithIdentity(req.Context(), &session.Identity{
		ShopID: shopID,
		Actor:  "owner",
		Role:   session.RoleOwner,
	}))
}

func TestOrderHandlersCreateSuccess(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	var captured services.CreateOrderCommand
	service := &stubOrderService{
		createFn: func(ctx context.Context, cmd services.CreateOrderCommand) (services.Order, error) {
			captured = cmd
			return services.Order{
				ID:            "order-1",
				OrderNumber:   "WA-2025-000042",
				CustomerName:  "Budi",
				CustomerPhone: "628123456789",
				Status:        domain.OrderStatusNew,
				PaymentStatus: domain.PaymentStatusUnpaid,
				Priority:      domain.OrderPriorityNormal,
				Subtotal:      30000,
				ShippingCost:  10000,
				Discount:      5000,
				Total:         35000,
				CreatedAt:     now,
				UpdatedAt:     now,
			}, nil
		},
	}
	router := newOrderRouter(service)

	body := `{"customer_id":"cust-1","items":[{"product_id":"prod-1","variant_id":"var-1","quantity":2}],"shipping_cost":10000,"discount":5000,"payment_method":"TRANSFER"}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.ShopID != "shop-1" {
		t.Fatalf("expected shop-1 scope, got %s", captured.ShopID)
	}
	if captured.CustomerID != "cust-1" {
		t.Fatalf("expected customer cust-1, got %s", captured.CustomerID)
	}
	if len(captured.Items) != 1 || captured.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %#v", captured.Items)
	}
	if captured.PaymentMethod != domain.PaymentMethodTransfer {
		t.Fatalf("expected TRANSFER, got %s", captured.PaymentMethod)
	}

	var resp orderPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.OrderNumber != "WA-2025-000042" {
		t.Fatalf("expected order number WA-2025-000042, got %s", resp.OrderNumber)
	}
	if resp.Total != 35000 {
		t.Fatalf("expected total 35000, got %d", resp.Total)
	}
}

func TestOrderHandlersCreateForwardsWalkInContact(t *testing.T) {
	var captured services.CreateOrderCommand
	service := &stubOrderService{
		createFn: func(ctx context.Context, cmd services.CreateOrderCommand) (services.Order, error) {
			captured = cmd
			return services.Order{ID: "order-1", CustomerName: cmd.CustomerName}, nil
		},
	}
	router := newOrderRouter(service)

	body := `{"customer_name":"Ibu Sari","customer_phone":"628111222333","items":[{"product_id":"prod-1","quantity":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.CustomerID != "" {
		t.Fatalf("expected no customer id, got %s", captured.CustomerID)
	}
	if captured.CustomerName != "Ibu Sari" || captured.CustomerPhone != "628111222333" {
		t.Fatalf("contact details not forwarded: %#v", captured)
	}
}

func TestOrderHandlersCreateRequiresShopHeader(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"customer_id":"cust-1"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "shop_required") {
		t.Fatalf("expected shop_required error, got %s", rr.Body.String())
	}
}

func TestOrderHandlersCreateRejectsEmptyBody(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(""))
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderHandlersCreateMapsInvalidInput(t *testing.T) {
	service := &stubOrderService{
		createFn: func(ctx context.Context, cmd services.CreateOrderCommand) (services.Order, error) {
			return services.Order{}, fmt.Errorf("%w: order requires at least one item", services.ErrOrderInvalidInput)
		},
	}
	router := newOrderRouter(service)
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"customer_id":"cust-1","items":[]}`))
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderHandlersListParsesFilters(t *testing.T) {
	var captured services.OrderListFilter
	service := &stubOrderService{
		listFn: func(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error) {
			captured = filter
			return domain.CursorPage[services.Order]{
				Items:         []services.Order{{ID: "order-1", Status: domain.OrderStatusNew}},
				NextPageToken: "tok-next",
			}, nil
		},
	}
	router := newOrderRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/orders?status=NEW,CONFIRMED&payment_status=UNPAID&page_size=10&page_token=tok123&from=2025-06-01T00:00:00Z", nil)
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.ShopID != "shop-1" {
		t.Fatalf("expected shop-1 scope, got %s", captured.ShopID)
	}
	if len(captured.Status) != 2 || captured.Status[0] != domain.OrderStatusNew {
		t.Fatalf("unexpected status filter: %#v", captured.Status)
	}
	if len(captured.PaymentStatus) != 1 || captured.PaymentStatus[0] != domain.PaymentStatusUnpaid {
		t.Fatalf("unexpected payment status filter: %#v", captured.PaymentStatus)
	}
	if captured.Pagination.PageSize != 10 || captured.Pagination.PageToken != "tok123" {
		t.Fatalf("unexpected pagination: %#v", captured.Pagination)
	}
	expectedFrom := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if captured.DateRange.From == nil || !captured.DateRange.From.Equal(expectedFrom) {
		t.Fatalf("unexpected date range: %#v", captured.DateRange.From)
	}

	var resp orderListPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Orders) != 1 || resp.NextPageToken != "tok-next" {
		t.Fatalf("unexpected list response: %#v", resp)
	}
}

func TestOrderHandlersListClampsPageSize(t *testing.T) {
	var captured services.OrderListFilter
	service := &stubOrderService{
		listFn: func(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error) {
			captured = filter
			return domain.CursorPage[services.Order]{}, nil
		},
	}
	router := newOrderRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/orders?page_size=5000", nil)
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.Pagination.PageSize != maxPageSize {
		t.Fatalf("expected page size clamped to %d, got %d", maxPageSize, captured.Pagination.PageSize)
	}
}

func TestOrderHandlersGetIncludesItems(t *testing.T) {
	var capturedOpts services.OrderReadOptions
	service := &stubOrderService{
		getFn: func(ctx context.Context, query services.OrderQuery, opts services.OrderReadOptions) (services.Order, error) {
			capturedOpts = opts
			return services.Order{
				ID: "order-1",
				Items: []domain.OrderItem{
					{ID: "item-1", ProductName: "Nasi Goreng", UnitPrice: 15000, Quantity: 2, Subtotal: 30000},
				},
			}, nil
		},
	}
	router := newOrderRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/orders/order-1?include_items=true", nil)
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !capturedOpts.IncludeItems {
		t.Fatalf("expected include_items to propagate")
	}
	var resp orderPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ProductName != "Nasi Goreng" {
		t.Fatalf("unexpected items: %#v", resp.Items)
	}
}

func TestOrderHandlersGetMapsNotFound(t *testing.T) {
	service := &stubOrderService{
		getFn: func(ctx context.Context, query services.OrderQuery, opts services.OrderReadOptions) (services.Order, error) {
			return services.Order{}, fmt.Errorf("%w: order missing", services.ErrOrderNotFound)
		},
	}
	router := newOrderRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/orders/missing", nil)
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestOrderHandlersTransitionMapsInvalidState(t *testing.T) {
	service := &stubOrderService{
		transitionFn: func(ctx context.Context, cmd services.OrderStatusTransitionCommand) (services.Order, error) {
			return services.Order{}, fmt.Errorf("%w: NEW -> SHIPPED", services.ErrOrderInvalidState)
		},
	}
	router := newOrderRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/orders/order-1/status", strings.NewReader(`{"status":"SHIPPED"}`))
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "order_invalid_state") {
		t.Fatalf("expected order_invalid_state code, got %s", rr.Body.String())
	}
}

func TestOrderHandlersTransitionPassesCommand(t *testing.T) {
	var captured services.OrderStatusTransitionCommand
	service := &stubOrderService{
		transitionFn: func(ctx context.Context, cmd services.OrderStatusTransitionCommand) (services.Order, error) {
			captured = cmd
			return services.Order{ID: "order-1", Status: domain.OrderStatusConfirmed}, nil
		},
	}
	router := newOrderRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/orders/order-1/status", strings.NewReader(`{"status":"CONFIRMED","note":"sudah dibayar"}`))
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.OrderID != "order-1" || captured.TargetStatus != domain.OrderStatusConfirmed {
		t.Fatalf("unexpected command: %#v", captured)
	}
	if captured.Note != "sudah dibayar" {
		t.Fatalf("expected note to propagate, got %q", captured.Note)
	}
}

func TestOrderHandlersUpdateFieldsForwardsPointers(t *testing.T) {
	var captured services.UpdateOrderFieldsCommand
	service := &stubOrderService{
		updateFn: func(ctx context.Context, cmd services.UpdateOrderFieldsCommand) (services.Order, error) {
			captured = cmd
			return services.Order{ID: "order-1"}, nil
		},
	}
	router := newOrderRouter(service)

	req := httptest.NewRequest(http.MethodPatch, "/orders/order-1", strings.NewReader(`{"shipping_cost":20000,"notes":"kirim sore","payment_status":"PAID"}`))
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.ShippingCost == nil || *captured.ShippingCost != 20000 {
		t.Fatalf("expected shipping cost pointer 20000, got %#v", captured.ShippingCost)
	}
	if captured.Notes == nil || *captured.Notes != "kirim sore" {
		t.Fatalf("expected notes pointer, got %#v", captured.Notes)
	}
	if captured.PaymentStatus == nil || *captured.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("expected payment status pointer PAID, got %#v", captured.PaymentStatus)
	}
	if captured.Discount != nil {
		t.Fatalf("expected absent discount to stay nil, got %#v", captured.Discount)
	}
}

func TestOrderHandlersRecordPaymentParsesPaidAt(t *testing.T) {
	var captured services.RecordPaymentCommand
	service := &stubOrderService{
		paymentFn: func(ctx context.Context, cmd services.RecordPaymentCommand) (services.Order, error) {
			captured = cmd
			return services.Order{ID: "order-1", PaymentStatus: domain.PaymentStatusDownPayment}, nil
		},
	}
	router := newOrderRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/orders/order-1/payments", strings.NewReader(`{"amount":10000,"method":"CASH","paid_at":"2025-06-10T09:00:00Z"}`))
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.Amount != 10000 || captured.Method != domain.PaymentMethodCash {
		t.Fatalf("unexpected payment command: %#v", captured)
	}
	expected := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	if captured.PaidAt == nil || !captured.PaidAt.Equal(expected) {
		t.Fatalf("expected paid_at %s, got %#v", expected, captured.PaidAt)
	}
}

func TestOrderHandlersDeleteReturnsNoContent(t *testing.T) {
	var captured services.DeleteOrderCommand
	service := &stubOrderService{
		deleteFn: func(ctx context.Context, cmd services.DeleteOrderCommand) error {
			captured = cmd
			return nil
		},
	}
	router := newOrderRouter(service)

	req := httptest.NewRequest(http.MethodDelete, "/orders/order-1", nil)
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if captured.OrderID != "order-1" || captured.ShopID != "shop-1" {
		t.Fatalf("unexpected delete command: %#v", captured)
	}
}

func TestOrderHandlersStatusHistorySerialisesSeedEntry(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	service := &stubOrderService{
		historyFn: func(ctx context.Context, query services.OrderQuery) ([]services.StatusChange, error) {
			return []services.StatusChange{
				{ID: "hist-2", OrderID: "order-1", FromStatus: domain.OrderStatusNew, ToStatus: domain.OrderStatusConfirmed, Actor: "owner", CreatedAt: now.Add(time.Hour)},
				{ID: "hist-1", OrderID: "order-1", ToStatus: domain.OrderStatusNew, Actor: "owner", CreatedAt: now},
			}, nil
		},
	}
	router := newOrderRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/orders/order-1/history", nil)
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp struct {
		History []statusChangePayload `json:"history"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.History) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(resp.History))
	}
	if resp.History[0].FromStatus != "NEW" || resp.History[0].ToStatus != "CONFIRMED" {
		t.Fatalf("expected the latest change first: %#v", resp.History[0])
	}
	if resp.History[1].FromStatus != "" || resp.History[1].ToStatus != "NEW" {
		t.Fatalf("unexpected seed entry: %#v", resp.History[1])
	}
}
