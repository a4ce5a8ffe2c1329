package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/platform/httpx"
	"github.com/sobri3195/WarungWA/internal/services"
)

// OrderHandlers serves the order lifecycle endpoints.
type OrderHandlers struct {
	orders services.OrderService
}

func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes registers order endpoints on the supplied router group.
func (h *OrderHandlers) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{orderID}", h.Get)
	r.Patch("/{orderID}", h.UpdateFields)
	r.Delete("/{orderID}", h.Delete)
	r.Put("/{orderID}/items", h.ReplaceItems)
	r.Post("/{orderID}/status", h.TransitionStatus)
	r.Get("/{orderID}/history", h.StatusHistory)
	r.Post("/{orderID}/payments", h.RecordPayment)
	r.Get("/{orderID}/payments", h.Payments)
}

type orderItemInputPayload struct {
	ProductID         string `json:"product_id"`
	VariantID         string `json:"variant_id,omitempty"`
	Quantity          int64  `json:"quantity"`
	UnitPriceOverride *int64 `json:"unit_price_override,omitempty"`
}

type createOrderPayload struct {
	CustomerID      string                  `json:"customer_id,omitempty"`
	CustomerName    string                  `json:"customer_name,omitempty"`
	CustomerPhone   string                  `json:"customer_phone,omitempty"`
	CustomerAddress string                  `json:"customer_address,omitempty"`
	Items           []orderItemInputPayload `json:"items"`
	ShippingCost    int64                   `json:"shipping_cost"`
	Discount        int64                   `json:"discount"`
	PaymentMethod   string                  `json:"payment_method,omitempty"`
	Priority        string                  `json:"priority,omitempty"`
	Notes           string                  `json:"notes,omitempty"`
}

type updateOrderFieldsPayload struct {
	CustomerName    *string `json:"customer_name,omitempty"`
	CustomerPhone   *string `json:"customer_phone,omitempty"`
	CustomerAddress *string `json:"customer_address,omitempty"`
	ShippingCost    *int64  `json:"shipping_cost,omitempty"`
	Discount        *int64  `json:"discount,omitempty"`
	PaymentMethod   *string `json:"payment_method,omitempty"`
	PaymentStatus   *string `json:"payment_status,omitempty"`
	Priority        *string `json:"priority,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

type replaceOrderItemsPayload struct {
	Items []orderItemInputPayload `json:"items"`
}

type transitionStatusPayload struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

type recordPaymentPayload struct {
	Amount    int64  `json:"amount"`
	Method    string `json:"method,omitempty"`
	Reference string `json:"reference,omitempty"`
	Note      string `json:"note,omitempty"`
	PaidAt    string `json:"paid_at,omitempty"`
}

type orderItemPayload struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	VariantID   string `json:"variant_id,omitempty"`
	ProductName string `json:"product_name"`
	VariantName string `json:"variant_name,omitempty"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int64  `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
}

type orderPayload struct {
	ID              string             `json:"id"`
	OrderNumber     string             `json:"order_number"`
	CustomerID      string             `json:"customer_id"`
	CustomerName    string             `json:"customer_name"`
	CustomerPhone   string             `json:"customer_phone"`
	CustomerAddress string             `json:"customer_address,omitempty"`
	Status          string             `json:"status"`
	PaymentStatus   string             `json:"payment_status"`
	PaymentMethod   string             `json:"payment_method,omitempty"`
	Priority        string             `json:"priority"`
	Items           []orderItemPayload `json:"items,omitempty"`
	Subtotal        int64              `json:"subtotal"`
	ShippingCost    int64              `json:"shipping_cost"`
	Discount        int64              `json:"discount"`
	Total           int64              `json:"total"`
	Notes           string             `json:"notes,omitempty"`
	CreatedAt       string             `json:"created_at"`
	UpdatedAt       string             `json:"updated_at"`
}

type orderListPayload struct {
	Orders        []orderPayload `json:"orders"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

type statusChangePayload struct {
	ID         string `json:"id"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status"`
	Actor      string `json:"actor"`
	Note       string `json:"note,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type paymentPayload struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Method    string `json:"method,omitempty"`
	Reference string `json:"reference,omitempty"`
	Note      string `json:"note,omitempty"`
	PaidAt    string `json:"paid_at"`
	CreatedAt string `json:"created_at"`
}

func (h *OrderHandlers) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var payload createOrderPayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeOrderBodyError(w, r, err)
		return
	}

	cmd := services.CreateOrderCommand{
		ShopID:          identity.ShopID,
		CustomerID:      payload.CustomerID,
		CustomerName:    payload.CustomerName,
		CustomerPhone:   payload.CustomerPhone,
		CustomerAddress: payload.CustomerAddress,
		Items:           toOrderItemInputs(payload.Items),
		ShippingCost:    payload.ShippingCost,
		Discount:        payload.Discount,
		PaymentMethod:   domain.PaymentMethod(payload.PaymentMethod),
		Priority:        domain.OrderPriority(payload.Priority),
		Notes:           payload.Notes,
		Actor:           identity.Actor,
	}
	order, err := h.orders.Create(r.Context(), cmd)
	if err != nil {
		writeOrderError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, toOrderPayload(order))
}

func (h *OrderHandlers) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	query := services.OrderQuery{ShopID: identity.ShopID, OrderID: chi.URLParam(r, "orderID")}
	opts := services.OrderReadOptions{IncludeItems: r.URL.Query().Get("include_items") == "true"}
	order, err := h.orders.Get(r.Context(), query, opts)
	if err != nil {
		writeOrderError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toOrderPayload(order))
}

func (h *OrderHandlers) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	pager, err := parsePagination(r)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	filter := services.OrderListFilter{ShopID: identity.ShopID, Pagination: pager}
	query := r.URL.Query()
	for _, status := range parseFilterValues(query.Get("status")) {
		filter.Status = append(filter.Status, domain.OrderStatus(status))
	}
	for _, status := range parseFilterValues(query.Get("payment_status")) {
		filter.PaymentStatus = append(filter.PaymentStatus, domain.PaymentStatus(status))
	}
	if raw := query.Get("from"); raw != "" {
		from, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "from must be RFC3339", http.StatusBadRequest))
			return
		}
		filter.DateRange.From = &from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "to must be RFC3339", http.StatusBadRequest))
			return
		}
		filter.DateRange.To = &to
	}

	page, err := h.orders.List(r.Context(), filter)
	if err != nil {
		writeOrderError(r, w, err)
		return
	}
	response := orderListPayload{Orders: make([]orderPayload, 0, len(page.Items)), NextPageToken: page.NextPageToken}
	for _, order := range page.Items {
		response.Orders = append(response.Orders, toOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, response)
}

func (h *OrderHandlers) UpdateFields(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var payload updateOrderFieldsPayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeOrderBodyError(w, r, err)
		return
	}

	cmd := services.UpdateOrderFieldsCommand{
		ShopID:          identity.ShopID,
		OrderID:         chi.URLParam(r, "orderID"),
		CustomerName:    payload.CustomerName,
		CustomerPhone:   payload.CustomerPhone,
		CustomerAddress: payload.CustomerAddress,
		ShippingCost:    payload.ShippingCost,
		Discount:        payload.Discount,
		Notes:           payload.Notes,
		Actor:           identity.Actor,
	}
	if payload.PaymentMethod != nil {
		method := domain.PaymentMethod(*payload.PaymentMethod)
		cmd.PaymentMethod = &method
	}
	if payload.PaymentStatus != nil {
		status := domain.PaymentStatus(*payload.PaymentStatus)
		cmd.PaymentStatus = &status
	}
	if payload.Priority != nil {
		priority := domain.OrderPriority(*payload.Priority)
		cmd.Priority = &priority
	}

	order, err := h.orders.UpdateFields(r.Context(), cmd)
	if err != nil {
		writeOrderError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toOrderPayload(order))
}

func (h *OrderHandlers) ReplaceItems(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var payload replaceOrderItemsPayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeOrderBodyError(w, r, err)
		return
	}

	cmd := services.ReplaceOrderItemsCommand{
		ShopID:  identity.ShopID,
		OrderID: chi.URLParam(r, "orderID"),
		Items:   toOrderItemInputs(payload.Items),
		Actor:   identity.Actor,
	}
	order, err := h.orders.ReplaceItems(r.Context(), cmd)
	if err != nil {
		writeOrderError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toOrderPayload(order))
}

func (h *OrderHandlers) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var payload transitionStatusPayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeOrderBodyError(w, r, err)
		return
	}

	cmd := services.OrderStatusTransitionCommand{
		ShopID:       identity.ShopID,
		OrderID:      chi.URLParam(r, "orderID"),
		TargetStatus: domain.OrderStatus(payload.Status),
		Note:         payload.Note,
		Actor:        identity.Actor,
	}
	order, err := h.orders.TransitionStatus(r.Context(), cmd)
	if err != nil {
		writeOrderError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toOrderPayload(order))
}

func (h *OrderHandlers) RecordPayment(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var payload recordPaymentPayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeOrderBodyError(w, r, err)
		return
	}

	cmd := services.RecordPaymentCommand{
		ShopID:    identity.ShopID,
		OrderID:   chi.URLParam(r, "orderID"),
		Amount:    payload.Amount,
		Method:    domain.PaymentMethod(payload.Method),
		Reference: payload.Reference,
		Note:      payload.Note,
		Actor:     identity.Actor,
	}
	if strings.TrimSpace(payload.PaidAt) != "" {
		paidAt, err := parseTimeParam(payload.PaidAt)
		if err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "paid_at must be RFC3339", http.StatusBadRequest))
			return
		}
		cmd.PaidAt = &paidAt
	}

	order, err := h.orders.RecordPayment(r.Context(), cmd)
	if err != nil {
		writeOrderError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toOrderPayload(order))
}

func (h *OrderHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	cmd := services.DeleteOrderCommand{
		ShopID:  identity.ShopID,
		OrderID: chi.URLParam(r, "orderID"),
		Actor:   identity.Actor,
	}
	if err := h.orders.Delete(r.Context(), cmd); err != nil {
		writeOrderError(r, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandlers) StatusHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	query := services.OrderQuery{ShopID: identity.ShopID, OrderID: chi.URLParam(r, "orderID")}
	history, err := h.orders.StatusHistory(r.Context(), query)
	if err != nil {
		writeOrderError(r, w, err)
		return
	}
	payload := make([]statusChangePayload, 0, len(history))
	for _, change := range history {
		payload = append(payload, statusChangePayload{
			ID:         change.ID,
			FromStatus: string(change.FromStatus),
			ToStatus:   string(change.ToStatus),
			Actor:      change.Actor,
			Note:       change.Note,
			CreatedAt:  formatTime(change.CreatedAt),
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"history": payload})
}

func (h *OrderHandlers) Payments(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	query := services.OrderQuery{ShopID: identity.ShopID, OrderID: chi.URLParam(r, "orderID")}
	payments, err := h.orders.Payments(r.Context(), query)
	if err != nil {
		writeOrderError(r, w, err)
		return
	}
	payload := make([]paymentPayload, 0, len(payments))
	for _, payment := range payments {
		payload = append(payload, paymentPayload{
			ID:        payment.ID,
			OrderID:   payment.OrderID,
			Amount:    payment.Amount,
			Method:    string(payment.Method),
			Reference: payment.Reference,
			Note:      payment.Note,
			PaidAt:    formatTime(payment.PaidAt),
			CreatedAt: formatTime(payment.CreatedAt),
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"payments": payload})
}

func toOrderItemInputs(items []orderItemInputPayload) []services.OrderItemInput {
	inputs := make([]services.OrderItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, services.OrderItemInput{
			ProductID:         item.ProductID,
			VariantID:         item.VariantID,
			Quantity:          item.Quantity,
			UnitPriceOverride: item.UnitPriceOverride,
		})
	}
	return inputs
}

func toOrderPayload(order domain.Order) orderPayload {
	payload := orderPayload{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		CustomerAddress: order.CustomerAddress,
		Status:          string(order.Status),
		PaymentStatus:   string(order.PaymentStatus),
		PaymentMethod:   string(order.PaymentMethod),
		Priority:        string(order.Priority),
		Subtotal:        order.Subtotal,
		ShippingCost:    order.ShippingCost,
		Discount:        order.Discount,
		Total:           order.Total,
		Notes:           order.Notes,
		CreatedAt:       formatTime(order.CreatedAt),
		UpdatedAt:       formatTime(order.UpdatedAt),
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, orderItemPayload{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			VariantName: item.VariantName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
		})
	}
	return payload
}

func parseFilterValues(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func writeOrderBodyError(w http.ResponseWriter, r *http.Request, err error) {
	message := "invalid request body"
	switch {
	case errors.Is(err, errEmptyBody):
		message = "request body is required"
	case errors.Is(err, errBodyTooLarge):
		message = "request body too large"
	}
	httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", message, http.StatusBadRequest))
}

func writeOrderError(r *http.Request, w http.ResponseWriter, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("order_invalid_state", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("order_conflict", "order was modified concurrently", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
