package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/platform/httpx"
	"github.com/sobri3195/WarungWA/internal/services"
)

// ShopHandlers serves tenant settings. Creation takes an explicit shop id in
// the body; reads and updates resolve the shop from the session scope.
type ShopHandlers struct {
	shops services.ShopService
}

func NewShopHandlers(shops services.ShopService) *ShopHandlers {
	return &ShopHandlers{shops: shops}
}

func (h *ShopHandlers) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/me", h.Get)
	r.Put("/me", h.Update)
}

type operatingHoursPayload struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

type shopPayload struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	Phone            string                `json:"phone"`
	Address          string                `json:"address,omitempty"`
	OperatingHours   operatingHoursPayload `json:"operating_hours"`
	AutoReplyMessage string                `json:"auto_reply_message,omitempty"`
	CreatedAt        string                `json:"created_at"`
	UpdatedAt        string                `json:"updated_at"`
}

type upsertShopPayload struct {
	ID               string                `json:"id,omitempty"`
	Name             string                `json:"name"`
	Phone            string                `json:"phone"`
	Address          string                `json:"address,omitempty"`
	OperatingHours   operatingHoursPayload `json:"operating_hours"`
	AutoReplyMessage string                `json:"auto_reply_message,omitempty"`
}

func (h *ShopHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var payload upsertShopPayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeOrderBodyError(w, r, err)
		return
	}
	shop, err := h.shops.Create(r.Context(), services.UpsertShopCommand{
		ShopID:  payload.ID,
		Name:    payload.Name,
		Phone:   payload.Phone,
		Address: payload.Address,
		OperatingHours: domain.OperatingHours{
			Open:  payload.OperatingHours.Open,
			Close: payload.OperatingHours.Close,
		},
		AutoReplyMessage: payload.AutoReplyMessage,
	})
	if err != nil {
		writeShopError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, toShopPayload(shop))
}

func (h *ShopHandlers) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	shop, err := h.shops.Get(r.Context(), identity.ShopID)
	if err != nil {
		writeShopError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toShopPayload(shop))
}

func (h *ShopHandlers) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var payload upsertShopPayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeOrderBodyError(w, r, err)
		return
	}
	shop, err := h.shops.Update(r.Context(), services.UpsertShopCommand{
		ShopID:  identity.ShopID,
		Name:    payload.Name,
		Phone:   payload.Phone,
		Address: payload.Address,
		OperatingHours: domain.OperatingHours{
			Open:  payload.OperatingHours.Open,
			Close: payload.OperatingHours.Close,
		},
		AutoReplyMessage: payload.AutoReplyMessage,
		Actor:            identity.Actor,
	})
	if err != nil {
		writeShopError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toShopPayload(shop))
}

func toShopPayload(shop domain.Shop) shopPayload {
	return shopPayload{
		ID:      shop.ID,
		Name:    shop.Name,
		Phone:   shop.Phone,
		Address: shop.Address,
		OperatingHours: operatingHoursPayload{
			Open:  shop.OperatingHours.Open,
			Close: shop.OperatingHours.Close,
		},
		AutoReplyMessage: shop.AutoReplyMessage,
		CreatedAt:        formatTime(shop.CreatedAt),
		UpdatedAt:        formatTime(shop.UpdatedAt),
	}
}

func writeShopError(r *http.Request, w http.ResponseWriter, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrShopInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrShopNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("shop_not_found", "shop not found", http.StatusNotFound))
	case errors.Is(err, services.ErrShopConflict):
		httpx.WriteError(ctx, w, httpx.NewError("shop_conflict", "shop was modified concurrently", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
