package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/platform/httpx"
	"github.com/sobri3195/WarungWA/internal/services"
)

// ReminderHandlers serves follow-up reminders tied to orders.
type ReminderHandlers struct {
	reminders services.ReminderService
}

func NewReminderHandlers(reminders services.ReminderService) *ReminderHandlers {
	return &ReminderHandlers{reminders: reminders}
}

func (h *ReminderHandlers) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/due", h.ListDue)
	r.Get("/{reminderID}", h.Get)
	r.Post("/{reminderID}/done", h.MarkDone)
}

type createReminderPayload struct {
	OrderID string `json:"order_id"`
	Message string `json:"message"`
	DueAt   string `json:"due_at"`
}

type reminderPayload struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id,omitempty"`
	Message    string `json:"message"`
	DueAt      string `json:"due_at"`
	Done       bool   `json:"done"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type reminderListPayload struct {
	Reminders     []reminderPayload `json:"reminders"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

func (h *ReminderHandlers) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var payload createReminderPayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeOrderBodyError(w, r, err)
		return
	}
	var dueAt time.Time
	if strings.TrimSpace(payload.DueAt) != "" {
		parsed, err := parseTimeParam(payload.DueAt)
		if err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "due_at must be RFC3339", http.StatusBadRequest))
			return
		}
		dueAt = parsed
	}
	reminder, err := h.reminders.Create(r.Context(), services.CreateReminderCommand{
		ShopID:  identity.ShopID,
		OrderID: payload.OrderID,
		Message: payload.Message,
		DueAt:   dueAt,
		Actor:   identity.Actor,
	})
	if err != nil {
		writeReminderError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, toReminderPayload(reminder))
}

func (h *ReminderHandlers) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	reminder, err := h.reminders.Get(r.Context(), identity.ShopID, chi.URLParam(r, "reminderID"))
	if err != nil {
		writeReminderError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toReminderPayload(reminder))
}

// ListDue returns open reminders due at or before the probe time, newest
// deadline last. Without a before parameter the probe time is now.
func (h *ReminderHandlers) ListDue(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	pager, err := parsePagination(r)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	cmd := services.ListDueRemindersCommand{ShopID: identity.ShopID, Pagination: pager}
	if raw := r.URL.Query().Get("before"); raw != "" {
		before, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "before must be RFC3339", http.StatusBadRequest))
			return
		}
		cmd.Before = before
	}
	page, err := h.reminders.ListDue(r.Context(), cmd)
	if err != nil {
		writeReminderError(r, w, err)
		return
	}
	response := reminderListPayload{Reminders: make([]reminderPayload, 0, len(page.Items)), NextPageToken: page.NextPageToken}
	for _, reminder := range page.Items {
		response.Reminders = append(response.Reminders, toReminderPayload(reminder))
	}
	writeJSONResponse(w, http.StatusOK, response)
}

func (h *ReminderHandlers) MarkDone(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	reminder, err := h.reminders.MarkDone(r.Context(), identity.ShopID, chi.URLParam(r, "reminderID"), identity.Actor)
	if err != nil {
		writeReminderError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toReminderPayload(reminder))
}

func toReminderPayload(reminder domain.Reminder) reminderPayload {
	return reminderPayload{
		ID:         reminder.ID,
		OrderID:    reminder.OrderID,
		CustomerID: reminder.CustomerID,
		Message:    reminder.Message,
		DueAt:      formatTime(reminder.DueAt),
		Done:       reminder.Done,
		CreatedAt:  formatTime(reminder.CreatedAt),
		UpdatedAt:  formatTime(reminder.UpdatedAt),
	}
}

func writeReminderError(r *http.Request, w http.ResponseWriter, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrReminderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrReminderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("reminder_not_found", "reminder not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
