package pos

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/rbac"
	"github.com/fruitline/fruitline/internal/shared"
)

// IdempotencyHeader carries the client's checkout key.
const IdempotencyHeader = "Idempotency-Key"

// Binder returns a Gateway carrying the caller's upstream credentials.
type Binder func(r *http.Request) (Gateway, error)

// Handler exposes the POS endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	bind    Binder
	rbac    rbac.Middleware
}

// NewHandler builds the POS handler.
func NewHandler(logger *slog.Logger, service *Service, bind Binder, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, bind: bind, rbac: rbac}
}

// MountRoutes registers POS routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.POSRoles...))
		r.Get("/cart", h.view)
		r.Delete("/cart", h.clear)
		r.Post("/cart/items", h.add)
		r.Put("/cart/items/{productID}", h.setQuantity)
		r.Post("/cart/items/{productID}/decrement", h.decrement)
		r.Delete("/cart/items/{productID}", h.remove)
		r.Post("/checkout", h.checkout)
	})
}

type addRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func sessionID(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess.ID
	}
	return ""
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context(), sessionID(r))
	if err != nil {
		h.fail(w, "view cart", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	gw, err := h.bind(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req addRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	view, err := h.service.Add(r.Context(), gw, sessionID(r), req.ProductID, req.Quantity)
	if err != nil {
		h.fail(w, "add to cart", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	view, err := h.service.SetQuantity(r.Context(), sessionID(r), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		h.fail(w, "set cart quantity", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) decrement(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Decrement(r.Context(), sessionID(r), chi.URLParam(r, "productID"))
	if err != nil {
		h.fail(w, "decrement cart line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Remove(r.Context(), sessionID(r), chi.URLParam(r, "productID"))
	if err != nil {
		h.fail(w, "remove cart line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), sessionID(r)); err != nil {
		h.fail(w, "clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	gw, err := h.bind(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CheckoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	receipt, err := h.service.Checkout(r.Context(), gw, actor, sessionID(r), req, r.Header.Get(IdempotencyHeader))
	if err != nil {
		h.fail(w, "checkout", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, receipt)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
