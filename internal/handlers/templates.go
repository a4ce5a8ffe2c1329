package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/platform/httpx"
	"github.com/sobri3195/WarungWA/internal/services"
)

// TemplateHandlers serves WhatsApp message templates: CRUD, rendering a
// template against an order, and the auto-reply probe.
type TemplateHandlers struct {
	templates services.TemplateService
}

func NewTemplateHandlers(templates services.TemplateService) *TemplateHandlers {
	return &TemplateHandlers{templates: templates}
}

func (h *TemplateHandlers) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/auto-reply", h.AutoReply)
	r.Get("/{templateID}", h.Get)
	r.Put("/{templateID}", h.Update)
	r.Delete("/{templateID}", h.Delete)
	r.Post("/{templateID}/render", h.Render)
}

type templatePayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type upsertTemplatePayload struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

type templateListPayload struct {
	Templates     []templatePayload `json:"templates"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

type renderTemplatePayload struct {
	OrderID string `json:"order_id"`
}

type renderedMessagePayload struct {
	Body         string `json:"body"`
	WhatsAppLink string `json:"whatsapp_link"`
}

type autoReplyPayload struct {
	OutsideHours bool   `json:"outside_hours"`
	Message      string `json:"message,omitempty"`
}

func (h *TemplateHandlers) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var payload upsertTemplatePayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeOrderBodyError(w, r, err)
		return
	}
	template, err := h.templates.Create(r.Context(), services.UpsertTemplateCommand{
		ShopID: identity.ShopID,
		Name:   payload.Name,
		Body:   payload.Body,
		Actor:  identity.Actor,
	})
	if err != nil {
		writeTemplateError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, toTemplatePayload(template))
}

func (h *TemplateHandlers) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var payload upsertTemplatePayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeOrderBodyError(w, r, err)
		return
	}
	template, err := h.templates.Update(r.Context(), services.UpsertTemplateCommand{
		ShopID:     identity.ShopID,
		TemplateID: chi.URLParam(r, "templateID"),
		Name:       payload.Name,
		Body:       payload.Body,
		Actor:      identity.Actor,
	})
	if err != nil {
		writeTemplateError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toTemplatePayload(template))
}

func (h *TemplateHandlers) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	template, err := h.templates.Get(r.Context(), identity.ShopID, chi.URLParam(r, "templateID"))
	if err != nil {
		writeTemplateError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toTemplatePayload(template))
}

func (h *TemplateHandlers) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	pager, err := parsePagination(r)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	page, err := h.templates.List(r.Context(), identity.ShopID, pager)
	if err != nil {
		writeTemplateError(r, w, err)
		return
	}
	response := templateListPayload{Templates: make([]templatePayload, 0, len(page.Items)), NextPageToken: page.NextPageToken}
	for _, template := range page.Items {
		response.Templates = append(response.Templates, toTemplatePayload(template))
	}
	writeJSONResponse(w, http.StatusOK, response)
}

func (h *TemplateHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if err := h.templates.Delete(r.Context(), identity.ShopID, chi.URLParam(r, "templateID"), identity.Actor); err != nil {
		writeTemplateError(r, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Render applies a template to an order and returns the message body plus a
// wa.me link targeting the order's customer.
func (h *TemplateHandlers) Render(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var payload renderTemplatePayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeOrderBodyError(w, r, err)
		return
	}
	rendered, err := h.templates.RenderForOrder(r.Context(), services.RenderTemplateCommand{
		ShopID:     identity.ShopID,
		TemplateID: chi.URLParam(r, "templateID"),
		OrderID:    payload.OrderID,
	})
	if err != nil {
		writeTemplateError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, renderedMessagePayload{
		Body:         rendered.Body,
		WhatsAppLink: rendered.WhatsAppLink,
	})
}

// AutoReply probes whether the shop is outside operating hours at the given
// instant (defaults to now) and returns the auto-reply body when it is.
func (h *TemplateHandlers) AutoReply(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var at time.Time
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "at must be RFC3339", http.StatusBadRequest))
			return
		}
		at = parsed
	}
	result, err := h.templates.AutoReply(r.Context(), identity.ShopID, at)
	if err != nil {
		writeTemplateError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, autoReplyPayload{
		OutsideHours: result.OutsideHours,
		Message:      result.Message,
	})
}

func toTemplatePayload(template domain.MessageTemplate) templatePayload {
	return templatePayload{
		ID:        template.ID,
		Name:      template.Name,
		Body:      template.Body,
		CreatedAt: formatTime(template.CreatedAt),
		UpdatedAt: formatTime(template.UpdatedAt),
	}
}

func writeTemplateError(r *http.Request, w http.ResponseWriter, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrTemplateInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrTemplateNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("template_not_found", "template not found", http.StatusNotFound))
	case errors.Is(err, services.ErrTemplateConflict):
		httpx.WriteError(ctx, w, httpx.NewError("template_conflict", "template was modified concurrently", http.StatusConflict))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrShopNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("shop_not_found", "shop not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
