package sales

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/rbac"
	"github.com/fruitline/fruitline/internal/shared"
)

// Binder returns a Gateway carrying the caller's upstream credentials.
type Binder func(r *http.Request) (Gateway, error)

// Handler exposes sale endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	bind    Binder
	rbac    rbac.Middleware
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service, bind Binder, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, bind: bind, rbac: rbac}
}

// MountRoutes registers sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.POSRoles...))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.SaleEditRole...))
		r.Put("/{id}", h.update)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	gw, err := h.bind(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	f := Filter{
		Search:        q.Get("search"),
		PaymentStatus: PaymentStatus(q.Get("paymentStatus")),
		Date:          q.Get("date"),
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		httpx.RespondError(w, fmt.Errorf("%w: unknown payment status %q", httpx.ErrValidation, f.PaymentStatus))
		return
	}
	list, err := h.service.List(r.Context(), gw, f)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sales": list})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	gw, err := h.bind(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var sale Sale
	if err := httpx.DecodeJSON(r, &sale); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	updated, err := h.service.Update(r.Context(), gw, actor, chi.URLParam(r, "id"), sale)
	if err != nil {
		h.logger.Warn("update sale", slog.String("sale_id", chi.URLParam(r, "id")), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}
