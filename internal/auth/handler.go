package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/Nbras002/MHV-PS/internal/activity"
	"github.com/Nbras002/MHV-PS/internal/authz"
	"github.com/Nbras002/MHV-PS/internal/platform/httpx"
	"github.com/Nbras002/MHV-PS/internal/rbac"
	"github.com/Nbras002/MHV-PS/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	guard          *authz.Guard
	activity       *activity.Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard *authz.Guard, activitySvc *activity.Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		guard:          guard,
		activity:       activitySvc,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/session", h.showSession)
	r.With(httprate.LimitByIP(10, time.Minute)).Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginPayload struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
}

type sessionView struct {
	ID           string            `json:"id"`
	Username     string            `json:"username"`
	Name         string            `json:"name"`
	Role         string            `json:"role"`
	Regions      []string          `json:"regions"`
	Permissions  rbac.Capabilities `json:"permissions"`
	CSRFToken    string            `json:"csrf_token"`
	SessionTTL   string            `json:"session_ttl"`
	LastLoginUTC *time.Time        `json:"last_login,omitempty"`
}

// showSession returns the current caller profile with a CSRF token. For
// anonymous sessions only the token is returned, so clients can log in.
func (h *Handler) showSession(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFrom(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal server error", "")
		return
	}
	token, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("ensure csrf token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal server error", "")
		return
	}

	callerID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.JSON(w, http.StatusOK, map[string]any{"csrf_token": token})
		return
	}
	caller, err := h.guard.ResolveCaller(r.Context(), callerID)
	if err != nil {
		// Stale session referencing a deleted account.
		h.sessionManager.Destroy(sess)
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	httpx.JSON(w, http.StatusOK, sessionView{
		ID:          caller.ID.String(),
		Username:    caller.Username,
		Name:        caller.Name,
		Role:        string(caller.Role),
		Regions:     caller.Regions,
		Permissions: caller.Capabilities,
		CSRFToken:   token,
		SessionTTL:  h.sessionManager.TTL().String(),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFrom(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal server error", "")
		return
	}
	var payload loginPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Invalid credentials", "")
		return
	}

	account, err := h.service.Authenticate(r.Context(), payload.Username, payload.Password)
	if err != nil {
		h.logger.Warn("login failed", slog.String("username", payload.Username))
		httpx.Error(w, shared.ErrInvalidCredentials)
		return
	}

	sess.SetUser(account.ID.String())
	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, account.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Error("register session", slog.Any("error", err))
	}
	if _, err := h.activity.Record(r.Context(), account.ID, activity.RecordInput{
		UserID:    account.ID,
		Action:    "login",
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}); err != nil {
		h.logger.Warn("record login activity", slog.Any("error", err))
	}

	caller, err := h.guard.ResolveCaller(r.Context(), account.ID)
	if err != nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal server error", "")
		return
	}
	token, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	httpx.JSON(w, http.StatusOK, sessionView{
		ID:           caller.ID.String(),
		Username:     caller.Username,
		Name:         caller.Name,
		Role:         string(caller.Role),
		Regions:      caller.Regions,
		Permissions:  caller.Capabilities,
		CSRFToken:    token,
		SessionTTL:   h.sessionManager.TTL().String(),
		LastLoginUTC: account.LastLogin,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFrom(r.Context())
	if sess == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if callerID, ok := shared.CurrentUserID(r.Context()); ok {
		if _, err := h.activity.Record(r.Context(), callerID, activity.RecordInput{
			UserID:    callerID,
			Action:    "logout",
			IP:        r.RemoteAddr,
			UserAgent: r.UserAgent(),
		}); err != nil {
			h.logger.Warn("record logout activity", slog.Any("error", err))
		}
	}
	if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
		h.logger.Warn("remove session record", slog.Any("error", err))
	}
	h.sessionManager.Destroy(sess)
	w.WriteHeader(http.StatusNoContent)
}
