package auth

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

// MountSessionRoutes registers the session probe.
func (h *Handler) MountSessionRoutes(r chi.Router) {
	r.Get("/", h.showSession)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.RespondError(w, fmt.Errorf("session missing"))
		return
	}
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	principal, creds, err := h.service.Authenticate(r.Context(), req)
	if err != nil {
		h.logger.Info("login refused", slog.String("email", req.Email), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	sess.SignIn(principal, creds.Token, creds.ExpiresAt)
	sess.Delete(shared.CSRFSessionKey)
	h.logger.Info("login", slog.String("user_id", principal.UserID), slog.String("role", principal.Role))
	h.respondSession(w, sess)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if p, ok := sess.Principal(); ok {
			h.logger.Info("logout", slog.String("user_id", p.UserID))
		}
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) showSession(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, fmt.Errorf("session missing"))
		return
	}
	h.respondSession(w, sess)
}

func (h *Handler) respondSession(w http.ResponseWriter, sess *shared.Session) {
	token, err := h.csrfManager.EnsureToken(sess)
	if err != nil {
		h.logger.Error("csrf token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	view := SessionView{CSRFToken: token}
	if p, ok := sess.Principal(); ok {
		view.SignedIn = true
		view.User = &p
		if _, exp := sess.Token(); !exp.IsZero() {
			view.ExpiresAt = &exp
		}
	}
	httpx.JSON(w, http.StatusOK, view)
}
