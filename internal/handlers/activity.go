package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/platform/httpx"
	"github.com/sobri3195/WarungWA/internal/services"
)

// ActivityHandlers serves the read side of the activity log.
type ActivityHandlers struct {
	activity services.ActivityLogService
}

func NewActivityHandlers(activity services.ActivityLogService) *ActivityHandlers {
	return &ActivityHandlers{activity: activity}
}

func (h *ActivityHandlers) Routes(r chi.Router) {
	r.Get("/", h.List)
}

type activityEntryPayload struct {
	ID         string `json:"id"`
	Actor      string `json:"actor"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type,omitempty"`
	EntityID   string `json:"entity_id,omitempty"`
	Details    string `json:"details,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type activityListPayload struct {
	Entries       []activityEntryPayload `json:"entries"`
	NextPageToken string                 `json:"next_page_token,omitempty"`
}

func (h *ActivityHandlers) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	pager, err := parsePagination(r)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	query := r.URL.Query()
	filter := services.ActivityListFilter{
		ShopID:     identity.ShopID,
		EntityType: query.Get("entity_type"),
		EntityID:   query.Get("entity_id"),
		Actor:      query.Get("actor"),
		Pagination: pager,
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

	page, err := h.activity.List(r.Context(), filter)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
		return
	}
	response := activityListPayload{Entries: make([]activityEntryPayload, 0, len(page.Items)), NextPageToken: page.NextPageToken}
	for _, entry := range page.Items {
		response.Entries = append(response.Entries, toActivityEntryPayload(entry))
	}
	writeJSONResponse(w, http.StatusOK, response)
}

func toActivityEntryPayload(entry domain.ActivityLogEntry) activityEntryPayload {
	return activityEntryPayload{
		ID:         entry.ID,
		Actor:      entry.Actor,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    entry.Details,
		CreatedAt:  formatTime(entry.CreatedAt),
	}
}
