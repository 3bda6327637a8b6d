package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Nbras002/MHV-PS/internal/platform/httpx"
	"github.com/Nbras002/MHV-PS/internal/shared"
)

// Handler manages role-permission endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listRoles)
	r.Get("/{role}", h.getRole)
	r.Put("/{role}", h.setRole)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.CurrentUserID(r.Context()); !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	list, err := h.service.ListRolePermissions(r.Context())
	if err != nil {
		h.logger.Error("list role permissions", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": list})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.CurrentUserID(r.Context()); !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	role, err := ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not found", "")
		return
	}
	caps, err := h.service.GetCapabilities(r.Context(), role)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, RolePermission{Role: role, Capabilities: caps})
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	callerID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	role, err := ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not found", "")
		return
	}
	var caps Capabilities
	if err := httpx.DecodeJSON(r, &caps); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}
	if err := h.service.SetCapabilities(r.Context(), callerID, role, caps); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, RolePermission{Role: role, Capabilities: caps})
}
