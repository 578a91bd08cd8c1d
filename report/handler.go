package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fruitline/fruitline/internal/dispatch"
	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/rbac"
)

// TripSource loads one trip.
type TripSource interface {
	GetTrip(ctx context.Context, id string) (dispatch.Trip, error)
}

// PDFRenderer converts HTML to PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, filename, html string) ([]byte, error)
}

// Binder returns a TripSource carrying the caller's upstream credentials.
type Binder func(r *http.Request) (TripSource, error)

// Handler serves trip sheets.
type Handler struct {
	renderer *Renderer
	pdf      PDFRenderer
	bind     Binder
	rbac     rbac.Middleware
	logger   *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(renderer *Renderer, pdf PDFRenderer, bind Binder, rbac rbac.Middleware, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{renderer: renderer, pdf: pdf, bind: bind, rbac: rbac, logger: logger}
}

// MountRoutes registers report routes under the trips router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.TripRoles...)).Get("/{id}/sheet", h.sheet)
}

func (h *Handler) sheet(w http.ResponseWriter, r *http.Request) {
	src, err := h.bind(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	trip, err := src.GetTrip(r.Context(), id)
	if err != nil {
		h.logger.Warn("trip sheet load", slog.String("trip_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	html, err := h.renderer.HTML(trip)
	if err != nil {
		h.logger.Error("trip sheet render", slog.String("trip_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(html))
	case "pdf":
		filename := fmt.Sprintf("trip-%s.pdf", id)
		pdf, err := h.pdf.RenderHTML(r.Context(), filename, html)
		if err != nil {
			h.logger.Warn("trip sheet pdf", slog.String("trip_id", id), slog.Any("error", err))
			if errors.Is(err, ErrRendererUnavailable) {
				httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
				return
			}
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUpstream, err))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pdf)
	default:
		httpx.RespondError(w, fmt.Errorf("%w: unknown format %q", httpx.ErrValidation, r.URL.Query().Get("format")))
	}
}
