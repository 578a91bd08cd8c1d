package dispatch

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

// Handler exposes trip endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	bind    Binder
	rbac    rbac.Middleware
}

// NewHandler builds the trip handler.
func NewHandler(logger *slog.Logger, service *Service, bind Binder, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, bind: bind, rbac: rbac}
}

// MountRoutes registers trip routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.TripRoles...))
		r.Get("/", h.board)
		r.Get("/form", h.form)
		r.Post("/", h.create)
		r.Post("/items", h.previewItems)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
		r.Post("/{id}/items", h.previewTripItems)
		r.Put("/{id}/products", h.replaceProducts)
		r.Post("/{id}/{event:start|complete|cancel}", h.transition)
	})
}

type itemsRequest struct {
	DispatchItems []DispatchItem `json:"dispatchItems"`
	Rows          []ScratchRow   `json:"rows"`
}

type transitionRequest struct {
	Confirm bool `json:"confirm"`
}

func (h *Handler) board(w http.ResponseWriter, r *http.Request) {
	gw, ok := h.gateway(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	f := Filter{Search: q.Get("search"), Status: Status(q.Get("status")), Date: q.Get("date")}
	if f.Status != "" && !f.Status.Valid() {
		httpx.RespondError(w, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, f.Status))
		return
	}
	board, err := h.service.Board(r.Context(), gw, f)
	if err != nil {
		h.fail(w, "trip board", err)
		return
	}
	httpx.JSON(w, http.StatusOK, board)
}

func (h *Handler) form(w http.ResponseWriter, r *http.Request) {
	gw, ok := h.gateway(w, r)
	if !ok {
		return
	}
	data, err := h.service.FormData(r.Context(), gw, r.URL.Query().Get("id"))
	if err != nil {
		h.fail(w, "trip form", err)
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	gw, ok := h.gateway(w, r)
	if !ok {
		return
	}
	row, err := h.service.Trip(r.Context(), gw, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "trip detail", err)
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	gw, ok := h.gateway(w, r)
	if !ok {
		return
	}
	var req TripRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	board, err := h.service.Create(r.Context(), gw, actor, req)
	if err != nil {
		h.fail(w, "create trip", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, board)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	gw, ok := h.gateway(w, r)
	if !ok {
		return
	}
	var req TripRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	board, err := h.service.Update(r.Context(), gw, actor, chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, "update trip", err)
		return
	}
	httpx.JSON(w, http.StatusOK, board)
}

func (h *Handler) previewItems(w http.ResponseWriter, r *http.Request) {
	gw, ok := h.gateway(w, r)
	if !ok {
		return
	}
	var req itemsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	preview, err := h.service.PreviewItems(r.Context(), gw, req.DispatchItems, req.Rows)
	if err != nil {
		h.fail(w, "preview dispatch items", err)
		return
	}
	httpx.JSON(w, http.StatusOK, preview)
}

func (h *Handler) previewTripItems(w http.ResponseWriter, r *http.Request) {
	gw, ok := h.gateway(w, r)
	if !ok {
		return
	}
	var req itemsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	preview, err := h.service.PreviewTripItems(r.Context(), gw, chi.URLParam(r, "id"), req.DispatchItems, req.Rows)
	if err != nil {
		h.fail(w, "preview trip items", err)
		return
	}
	httpx.JSON(w, http.StatusOK, preview)
}

func (h *Handler) replaceProducts(w http.ResponseWriter, r *http.Request) {
	gw, ok := h.gateway(w, r)
	if !ok {
		return
	}
	var changes ProductChanges
	if err := httpx.DecodeJSON(r, &changes); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	trip, err := h.service.ReplaceProducts(r.Context(), gw, actor, chi.URLParam(r, "id"), changes)
	if err != nil {
		h.fail(w, "replace trip products", err)
		return
	}
	httpx.JSON(w, http.StatusOK, trip)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	event, ok := ParseEvent(chi.URLParam(r, "event"))
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	gw, ok := h.gateway(w, r)
	if !ok {
		return
	}
	var req transitionRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	board, err := h.service.TransitionByID(r.Context(), gw, actor, chi.URLParam(r, "id"), event, req.Confirm)
	if err != nil {
		h.fail(w, "trip "+string(event), err)
		return
	}
	httpx.JSON(w, http.StatusOK, board)
}

func (h *Handler) gateway(w http.ResponseWriter, r *http.Request) (Gateway, bool) {
	gw, err := h.bind(r)
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	return gw, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
