package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/platform/httpx"
	"github.com/sobri3195/WarungWA/internal/services"
)

// CustomerHandlers serves the shop's buyer book.
type CustomerHandlers struct {
	customers services.CustomerService
}

func NewCustomerHandlers(customers services.CustomerService) *CustomerHandlers {
	return &CustomerHandlers{customers: customers}
}

func (h *CustomerHandlers) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{customerID}", h.Get)
	r.Put("/{customerID}", h.Update)
	r.Delete("/{customerID}", h.Delete)
}

type customerPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address,omitempty"`
	Level     string `json:"level"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type upsertCustomerPayload struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
	Level   string `json:"level,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

type customerListPayload struct {
	Customers     []customerPayload `json:"customers"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

func (h *CustomerHandlers) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var payload upsertCustomerPayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeOrderBodyError(w, r, err)
		return
	}
	customer, err := h.customers.Create(r.Context(), services.UpsertCustomerCommand{
		ShopID:  identity.ShopID,
		Name:    payload.Name,
		Phone:   payload.Phone,
		Address: payload.Address,
		Level:   domain.CustomerLevel(payload.Level),
		Notes:   payload.Notes,
		Actor:   identity.Actor,
	})
	if err != nil {
		writeCustomerError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, toCustomerPayload(customer))
}

func (h *CustomerHandlers) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var payload upsertCustomerPayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeOrderBodyError(w, r, err)
		return
	}
	customer, err := h.customers.Update(r.Context(), services.UpsertCustomerCommand{
		ShopID:     identity.ShopID,
		CustomerID: chi.URLParam(r, "customerID"),
		Name:       payload.Name,
		Phone:      payload.Phone,
		Address:    payload.Address,
		Level:      domain.CustomerLevel(payload.Level),
		Notes:      payload.Notes,
		Actor:      identity.Actor,
	})
	if err != nil {
		writeCustomerError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toCustomerPayload(customer))
}

func (h *CustomerHandlers) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	customer, err := h.customers.Get(r.Context(), identity.ShopID, chi.URLParam(r, "customerID"))
	if err != nil {
		writeCustomerError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toCustomerPayload(customer))
}

func (h *CustomerHandlers) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	pager, err := parsePagination(r)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	filter := services.CustomerListFilter{
		ShopID:     identity.ShopID,
		Search:     r.URL.Query().Get("search"),
		Pagination: pager,
	}
	for _, level := range parseFilterValues(r.URL.Query().Get("level")) {
		filter.Level = append(filter.Level, domain.CustomerLevel(level))
	}
	page, err := h.customers.List(r.Context(), filter)
	if err != nil {
		writeCustomerError(r, w, err)
		return
	}
	response := customerListPayload{Customers: make([]customerPayload, 0, len(page.Items)), NextPageToken: page.NextPageToken}
	for _, customer := range page.Items {
		response.Customers = append(response.Customers, toCustomerPayload(customer))
	}
	writeJSONResponse(w, http.StatusOK, response)
}

func (h *CustomerHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if err := h.customers.Delete(r.Context(), identity.ShopID, chi.URLParam(r, "customerID"), identity.Actor); err != nil {
		writeCustomerError(r, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toCustomerPayload(customer domain.Customer) customerPayload {
	return customerPayload{
		ID:        customer.ID,
		Name:      customer.Name,
		Phone:     customer.Phone,
		Address:   customer.Address,
		Level:     string(customer.Level),
		Notes:     customer.Notes,
		CreatedAt: formatTime(customer.CreatedAt),
		UpdatedAt: formatTime(customer.UpdatedAt),
	}
}

func writeCustomerError(r *http.Request, w http.ResponseWriter, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrCustomerInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCustomerNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("customer_not_found", "customer not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCustomerConflict):
		httpx.WriteError(ctx, w, httpx.NewError("customer_conflict", "customer was modified concurrently", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
