package users

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Nbras002/MHV-PS/internal/platform/httpx"
	"github.com/Nbras002/MHV-PS/internal/rbac"
	"github.com/Nbras002/MHV-PS/internal/shared"
)

// Handler manages user directory endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/", h.createUser)
	r.Get("/{id}", h.getUser)
	r.Put("/{id}", h.updateUser)
	r.Delete("/{id}", h.deleteUser)
}

type userPayload struct {
	Username  string   `json:"username" validate:"required,min=3"`
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"omitempty,min=8"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Regions   []string `json:"regions"`
	Role      string   `json:"role"`
	// Raw so an explicit null (clear the override) is distinguishable from
	// an absent key (keep).
	Permissions json.RawMessage `json:"permissions,omitempty"`
}

// decodeOverride interprets the permissions payload: absent keeps, null
// clears, an object replaces.
func decodeOverride(raw json.RawMessage) (caps *rbac.Capabilities, clear bool, err error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	if string(raw) == "null" {
		return nil, true, nil
	}
	var decoded rbac.Capabilities
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, false, err
	}
	return &decoded, false, nil
}

type userView struct {
	ID          uuid.UUID          `json:"id"`
	Username    string             `json:"username"`
	Email       string             `json:"email"`
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
	Regions     []string           `json:"regions"`
	Role        string             `json:"role"`
	Permissions *rbac.Capabilities `json:"permissions,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	LastLogin   *time.Time         `json:"last_login,omitempty"`
}

func toView(user User) userView {
	return userView{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Regions:     user.Regions,
		Role:        string(user.Role),
		Permissions: user.Permissions,
		CreatedAt:   user.CreatedAt,
		LastLogin:   user.LastLogin,
	}
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	callerID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	list, err := h.service.ListUsers(r.Context(), callerID)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	views := make([]userView, 0, len(list))
	for _, user := range list {
		views = append(views, toView(user))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": views})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
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
	user, err := h.service.GetUser(r.Context(), callerID, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(user))
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	callerID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var payload userPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}
	if payload.Password == "" {
		httpx.FieldProblem(w, http.StatusUnprocessableEntity, "Validation failed", "password", "is required")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}
	override, _, err := decodeOverride(payload.Permissions)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}
	user, err := h.service.CreateUser(r.Context(), callerID, CreateUserInput{
		Username:    payload.Username,
		Email:       payload.Email,
		Password:    payload.Password,
		FirstName:   payload.FirstName,
		LastName:    payload.LastName,
		Regions:     payload.Regions,
		Role:        payload.Role,
		Permissions: override,
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(user))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
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
	var payload userPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}
	override, clear, err := decodeOverride(payload.Permissions)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}
	user, err := h.service.UpdateUser(r.Context(), callerID, id, UpdateUserInput{
		Username:         payload.Username,
		Email:            payload.Email,
		Password:         payload.Password,
		FirstName:        payload.FirstName,
		LastName:         payload.LastName,
		Regions:          payload.Regions,
		Role:             payload.Role,
		Permissions:      override,
		ClearPermissions: clear,
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(user))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
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
	if err := h.service.DeleteUser(r.Context(), callerID, id); err != nil {
		httpx.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
