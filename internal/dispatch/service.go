package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/reference"
	"github.com/fruitline/fruitline/internal/shared"
)

var (
	// ErrConfirmationRequired is returned when a status change was not confirmed.
	ErrConfirmationRequired = fmt.Errorf("%w: status change must be confirmed", httpx.ErrValidation)
	// ErrNotEditable is returned when editing a trip that already left planning.
	ErrNotEditable = fmt.Errorf("%w: only planned trips can be edited", httpx.ErrConflict)
)

// Gateway is the upstream surface used by the trip workflow.
type Gateway interface {
	reference.Source
	ListTrips(ctx context.Context) ([]Trip, error)
	GetTrip(ctx context.Context, id string) (Trip, error)
	CreateTrip(ctx context.Context, req TripRequest) (Trip, error)
	UpdateTrip(ctx context.Context, id string, req TripRequest) (Trip, error)
	UpdateTripStatus(ctx context.Context, id string, status Status) (Trip, error)
	ReplaceTripProducts(ctx context.Context, id string, items []DispatchItem) (Trip, error)
}

// Auditor records trip changes.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Observer receives transition outcomes.
type Observer interface {
	ObserveTransition(event string, err error)
}

// FormData feeds the create/edit form.
type FormData struct {
	Reference reference.Data `json:"reference"`
	Trip      *TripRequest   `json:"trip,omitempty"`
}

// ItemsPreview is the result of promoting scratch rows.
type ItemsPreview struct {
	Items      []DispatchItem `json:"dispatchItems"`
	TotalValue float64        `json:"totalValue"`
	TotalItems int            `json:"totalItems"`
}

// Service coordinates trip operations. Upstream access is passed per call so
// each request carries its own credentials.
type Service struct {
	loader   *reference.Loader
	audit    Auditor
	observer Observer
	logger   *slog.Logger
}

// NewService constructs the trip service.
func NewService(loader *reference.Loader, audit Auditor, observer Observer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loader == nil {
		loader = reference.NewLoader(logger)
	}
	return &Service{loader: loader, audit: audit, observer: observer, logger: logger}
}

// Board fetches every trip and builds the filtered board.
func (s *Service) Board(ctx context.Context, gw Gateway, f Filter) (Board, error) {
	trips, err := gw.ListTrips(ctx)
	if err != nil {
		return Board{}, fmt.Errorf("list trips: %w", err)
	}
	return BuildBoard(trips, f), nil
}

// Trip returns one trip with its actions.
func (s *Service) Trip(ctx context.Context, gw Gateway, id string) (BoardRow, error) {
	trip, err := gw.GetTrip(ctx, id)
	if err != nil {
		return BoardRow{}, fmt.Errorf("get trip %s: %w", id, err)
	}
	return BoardRow{Trip: trip, Actions: trip.Status.Actions()}, nil
}

// FormData loads reference lists and, when id is set, the trip to edit.
func (s *Service) FormData(ctx context.Context, gw Gateway, id string) (FormData, error) {
	data := FormData{Reference: s.loader.Load(ctx, gw)}
	if id == "" {
		return data, nil
	}
	trip, err := gw.GetTrip(ctx, id)
	if err != nil {
		return FormData{}, fmt.Errorf("get trip %s: %w", id, err)
	}
	if !trip.Status.CanEdit() {
		return FormData{}, ErrNotEditable
	}
	req := FormFromTrip(trip)
	data.Trip = &req
	return data, nil
}

// PreviewItems promotes scratch rows against the current product list.
func (s *Service) PreviewItems(ctx context.Context, gw Gateway, items []DispatchItem, rows []ScratchRow) (ItemsPreview, error) {
	products, err := s.loader.Products(ctx, gw)
	if err != nil {
		return ItemsPreview{}, fmt.Errorf("list products: %w", err)
	}
	merged := AddToDispatch(items, rows, reference.IndexProducts(products))
	value, count := RecomputeAll(merged)
	return ItemsPreview{Items: merged, TotalValue: value, TotalItems: count}, nil
}

// PreviewTripItems promotes scratch rows onto an existing trip. Unsaved form
// items take precedence; without them the trip's stored items are the base.
func (s *Service) PreviewTripItems(ctx context.Context, gw Gateway, id string, items []DispatchItem, rows []ScratchRow) (ItemsPreview, error) {
	trip, err := gw.GetTrip(ctx, id)
	if err != nil {
		return ItemsPreview{}, fmt.Errorf("get trip %s: %w", id, err)
	}
	if !trip.Status.CanManageProducts() {
		return ItemsPreview{}, ErrProductsLocked
	}
	if len(items) == 0 {
		items = trip.DispatchItems
	}
	return s.PreviewItems(ctx, gw, items, rows)
}

// Create validates and submits a new trip, then returns the refreshed board.
func (s *Service) Create(ctx context.Context, gw Gateway, actor shared.Principal, req TripRequest) (Board, error) {
	if err := ValidateTrip(req); err != nil {
		return Board{}, err
	}
	req.Recompute()
	trip, err := gw.CreateTrip(ctx, req)
	if err != nil {
		return Board{}, fmt.Errorf("create trip: %w", err)
	}
	s.record(ctx, actor, "trip.create", trip.ID, map[string]any{
		"total_value": req.TotalValue,
		"total_items": req.TotalItems,
	})
	return s.Board(ctx, gw, Filter{})
}

// Update validates and replaces a planned trip, then returns the refreshed board.
func (s *Service) Update(ctx context.Context, gw Gateway, actor shared.Principal, id string, req TripRequest) (Board, error) {
	if err := ValidateTrip(req); err != nil {
		return Board{}, err
	}
	current, err := gw.GetTrip(ctx, id)
	if err != nil {
		return Board{}, fmt.Errorf("get trip %s: %w", id, err)
	}
	if !current.Status.CanEdit() {
		return Board{}, ErrNotEditable
	}
	req.Recompute()
	if _, err := gw.UpdateTrip(ctx, id, req); err != nil {
		return Board{}, fmt.Errorf("update trip %s: %w", id, err)
	}
	s.record(ctx, actor, "trip.update", id, map[string]any{
		"total_value": req.TotalValue,
		"total_items": req.TotalItems,
	})
	return s.Board(ctx, gw, Filter{})
}

// ReplaceProducts applies product manager changes and replaces the trip's
// item list upstream. The upstream trip is returned.
func (s *Service) ReplaceProducts(ctx context.Context, gw Gateway, actor shared.Principal, id string, changes ProductChanges) (Trip, error) {
	trip, err := gw.GetTrip(ctx, id)
	if err != nil {
		return Trip{}, fmt.Errorf("get trip %s: %w", id, err)
	}
	if !trip.Status.CanManageProducts() {
		return Trip{}, ErrProductsLocked
	}
	var products map[string]reference.Product
	if trip.Status == StatusInProgress || len(changes.Add) > 0 {
		list, err := s.loader.Products(ctx, gw)
		if err != nil {
			return Trip{}, fmt.Errorf("list products: %w", err)
		}
		products = reference.IndexProducts(list)
	}
	items, err := ApplyProductChanges(trip, changes, products)
	if err != nil {
		return Trip{}, err
	}
	updated, err := gw.ReplaceTripProducts(ctx, id, items)
	if err != nil {
		return Trip{}, fmt.Errorf("replace trip %s products: %w", id, err)
	}
	value, count := Totals(items)
	s.record(ctx, actor, "trip.products", id, map[string]any{
		"lines":       len(items),
		"total_value": value,
		"total_items": count,
	})
	return updated, nil
}

// TransitionByID loads the trip and applies event to it.
func (s *Service) TransitionByID(ctx context.Context, gw Gateway, actor shared.Principal, id string, event Event, confirmed bool) (Board, error) {
	if !confirmed {
		return Board{}, ErrConfirmationRequired
	}
	trip, err := gw.GetTrip(ctx, id)
	if err != nil {
		return Board{}, fmt.Errorf("get trip %s: %w", id, err)
	}
	return s.Transition(ctx, gw, actor, trip, event, confirmed)
}

// Transition requests a status change for trip. The transition table is
// checked against the given snapshot before anything is sent; the upstream
// remains the authority. On success the board is refetched.
func (s *Service) Transition(ctx context.Context, gw Gateway, actor shared.Principal, trip Trip, event Event, confirmed bool) (board Board, err error) {
	defer func() {
		if s.observer != nil {
			s.observer.ObserveTransition(string(event), err)
		}
	}()
	if !confirmed {
		return Board{}, ErrConfirmationRequired
	}
	next, err := Next(trip.Status, event)
	if err != nil {
		return Board{}, fmt.Errorf("%w: %w", httpx.ErrConflict, err)
	}
	if _, err := gw.UpdateTripStatus(ctx, trip.ID, next); err != nil {
		return Board{}, fmt.Errorf("%s trip %s: %w", event, trip.ID, err)
	}
	s.record(ctx, actor, "trip."+string(event), trip.ID, map[string]any{
		"from": trip.Status,
		"to":   next,
	})
	return s.Board(ctx, gw, Filter{})
}

func (s *Service) record(ctx context.Context, actor shared.Principal, action, id string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "truck_trip",
		EntityID: id,
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit trip change", slog.String("action", action), slog.String("trip_id", id), slog.Any("error", err))
	}
}
