package permits

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Nbras002/MHV-PS/internal/platform/httpx"
	"github.com/Nbras002/MHV-PS/internal/shared"
)

// Handler manages permit endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers permit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPermits)
	r.Post("/", h.createPermit)
	r.Get("/export", h.exportPermits)
	r.Get("/{id}", h.getPermit)
	r.Put("/{id}", h.updatePermit)
	r.Delete("/{id}", h.deletePermit)
	r.Post("/{id}/close", h.closePermit)
	r.Post("/{id}/reopen", h.reopenPermit)
}

type permitPayload struct {
	PermitNumber string     `json:"permit_number" validate:"required"`
	Date         string     `json:"date" validate:"required"`
	Region       string     `json:"region" validate:"required"`
	Location     string     `json:"location"`
	CarrierName  string     `json:"carrier_name"`
	CarrierID    string     `json:"carrier_id"`
	RequestType  string     `json:"request_type" validate:"required"`
	VehiclePlate string     `json:"vehicle_plate"`
	Materials    []Material `json:"materials"`
	CanReopen    *bool      `json:"can_reopen,omitempty"`
}

type permitView struct {
	ID           uuid.UUID  `json:"id"`
	PermitNumber string     `json:"permit_number"`
	Date         string     `json:"date"`
	Region       string     `json:"region"`
	Location     string     `json:"location"`
	CarrierName  string     `json:"carrier_name"`
	CarrierID    string     `json:"carrier_id"`
	RequestType  string     `json:"request_type"`
	VehiclePlate string     `json:"vehicle_plate"`
	Materials    []Material `json:"materials"`
	Status       string     `json:"status"`
	ClosedBy     *uuid.UUID `json:"closed_by,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	ClosedByName string     `json:"closed_by_name,omitempty"`
	CanReopen    bool       `json:"can_reopen"`
	CreatedBy    uuid.UUID  `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toPermitView(p Permit) permitView {
	status := "open"
	if p.Closed() {
		status = "closed"
	}
	return permitView{
		ID:           p.ID,
		PermitNumber: p.PermitNumber,
		Date:         p.Date.Format("2006-01-02"),
		Region:       p.Region,
		Location:     p.Location,
		CarrierName:  p.CarrierName,
		CarrierID:    p.CarrierID,
		RequestType:  string(p.RequestType),
		VehiclePlate: p.VehiclePlate,
		Materials:    p.Materials,
		Status:       status,
		ClosedBy:     p.ClosedBy,
		ClosedAt:     p.ClosedAt,
		ClosedByName: p.ClosedByName,
		CanReopen:    p.CanReopen,
		CreatedBy:    p.CreatedBy,
		CreatedAt:    p.CreatedAt,
	}
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (PermitInput, bool) {
	var payload permitPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", "")
		return PermitInput{}, false
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return PermitInput{}, false
	}
	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		httpx.FieldProblem(w, http.StatusUnprocessableEntity, "Validation failed", "date", "must be formatted YYYY-MM-DD")
		return PermitInput{}, false
	}
	return PermitInput{
		PermitNumber: payload.PermitNumber,
		Date:         date,
		Region:       payload.Region,
		Location:     payload.Location,
		CarrierName:  payload.CarrierName,
		CarrierID:    payload.CarrierID,
		RequestType:  payload.RequestType,
		VehiclePlate: payload.VehiclePlate,
		Materials:    payload.Materials,
		CanReopen:    payload.CanReopen,
	}, true
}

func listOptions(r *http.Request) ListOptions {
	q := r.URL.Query()
	return ListOptions{
		Region:      q.Get("region"),
		RequestType: q.Get("request_type"),
		OpenOnly:    q.Get("status") == "open",
		ClosedOnly:  q.Get("status") == "closed",
	}
}

func (h *Handler) listPermits(w http.ResponseWriter, r *http.Request) {
	callerID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	list, err := h.service.List(r.Context(), callerID, listOptions(r))
	if err != nil {
		h.logger.Error("list permits", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	views := make([]permitView, 0, len(list))
	for _, p := range list {
		views = append(views, toPermitView(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permits": views})
}

func (h *Handler) createPermit(w http.ResponseWriter, r *http.Request) {
	callerID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	permit, err := h.service.Create(r.Context(), callerID, in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPermitView(permit))
}

func (h *Handler) getPermit(w http.ResponseWriter, r *http.Request) {
	callerID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not found", "")
		return
	}
	permit, err := h.service.Get(r.Context(), callerID, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermitView(permit))
}

func (h *Handler) updatePermit(w http.ResponseWriter, r *http.Request) {
	callerID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not found", "")
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	permit, err := h.service.Update(r.Context(), callerID, id, in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermitView(permit))
}

func (h *Handler) deletePermit(w http.ResponseWriter, r *http.Request) {
	callerID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not found", "")
		return
	}
	if err := h.service.Delete(r.Context(), callerID, id); err != nil {
		httpx.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) closePermit(w http.ResponseWriter, r *http.Request) {
	callerID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not found", "")
		return
	}
	permit, err := h.service.Close(r.Context(), callerID, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermitView(permit))
}

func (h *Handler) reopenPermit(w http.ResponseWriter, r *http.Request) {
	callerID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not found", "")
		return
	}
	permit, err := h.service.Reopen(r.Context(), callerID, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermitView(permit))
}

func (h *Handler) exportPermits(w http.ResponseWriter, r *http.Request) {
	callerID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	data, err := h.service.ExportCSV(r.Context(), callerID, listOptions(r))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="permits.csv"`)
	_, _ = w.Write(data)
}
