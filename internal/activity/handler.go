package activity

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Nbras002/MHV-PS/internal/platform/httpx"
	"github.com/Nbras002/MHV-PS/internal/shared"
)

// Handler manages activity log endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers activity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listActivity)
	r.Post("/", h.recordActivity)
}

type entryView struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

func toEntryView(e Entry) entryView {
	return entryView{
		ID:        e.ID,
		UserID:    e.UserID,
		Name:      e.Name,
		Username:  e.Username,
		Action:    e.Action,
		Details:   e.Details,
		Timestamp: e.Timestamp,
		IP:        e.IP,
		UserAgent: e.UserAgent,
	}
}

func (h *Handler) listActivity(w http.ResponseWriter, r *http.Request) {
	callerID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	q := r.URL.Query()
	filter := Filter{
		Username: q.Get("username"),
		Action:   q.Get("action"),
	}
	if raw := q.Get("page"); raw != "" {
		filter.Page, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("per_page"); raw != "" {
		filter.PerPage, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filter.From = t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filter.To = t.Add(24*time.Hour - time.Nanosecond)
		}
	}

	result, err := h.service.List(r.Context(), callerID, filter)
	if err != nil {
		h.logger.Error("list activity", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	views := make([]entryView, 0, len(result.Entries))
	for _, e := range result.Entries {
		views = append(views, toEntryView(e))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries":    views,
		"pagination": result.Paging,
	})
}

type recordPayload struct {
	UserID  uuid.UUID `json:"user_id"`
	Action  string    `json:"action"`
	Details string    `json:"details"`
}

func (h *Handler) recordActivity(w http.ResponseWriter, r *http.Request) {
	callerID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var payload recordPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}
	if payload.UserID == uuid.Nil {
		payload.UserID = callerID
	}
	entry, err := h.service.Record(r.Context(), callerID, RecordInput{
		UserID:    payload.UserID,
		Action:    payload.Action,
		Details:   payload.Details,
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryView(entry))
}
