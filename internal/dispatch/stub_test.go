package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fruitline/fruitline/internal/reference"
	"github.com/fruitline/fruitline/internal/shared"
)

type stubGateway struct {
	mu       sync.Mutex
	trips    map[string]Trip
	products []reference.Product
	calls    []string
	statusTo []Status
	replaced []DispatchItem
	created  *TripRequest
	updated  *TripRequest
	failWith error
}

func newStubGateway(trips ...Trip) *stubGateway {
	g := &stubGateway{trips: map[string]Trip{}}
	for _, t := range trips {
		g.trips[t.ID] = t
	}
	return g
}

func (g *stubGateway) log(call string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
}

func (g *stubGateway) ListTrucks(context.Context) ([]reference.Truck, error) {
	g.log("GET /trucks")
	return []reference.Truck{{ID: "t1", VehicleNumber: "KA-01-1234"}}, nil
}

func (g *stubGateway) ListRoutes(context.Context) ([]reference.Route, error) {
	g.log("GET /routes")
	return nil, errors.New("routes down")
}

func (g *stubGateway) ListStaff(_ context.Context, role string) ([]reference.Staff, error) {
	g.log("GET /staff?role=" + role)
	return []reference.Staff{{ID: role, Name: role, Role: role}}, nil
}

func (g *stubGateway) ListProducts(context.Context) ([]reference.Product, error) {
	g.log("GET /products")
	return g.products, nil
}

func (g *stubGateway) ListTrips(context.Context) ([]Trip, error) {
	g.log("GET /truck-trips")
	out := make([]Trip, 0, len(g.trips))
	for _, t := range g.trips {
		out = append(out, t)
	}
	return out, nil
}

func (g *stubGateway) GetTrip(_ context.Context, id string) (Trip, error) {
	g.log("GET /truck-trips/" + id)
	t, ok := g.trips[id]
	if !ok {
		return Trip{}, fmt.Errorf("trip %s: not found", id)
	}
	return t, nil
}

func (g *stubGateway) CreateTrip(_ context.Context, req TripRequest) (Trip, error) {
	g.log("POST /truck-trips")
	if g.failWith != nil {
		return Trip{}, g.failWith
	}
	g.created = &req
	t := Trip{ID: "new", Status: StatusPlanned, DispatchItems: req.DispatchItems, TotalValue: req.TotalValue, TotalItems: req.TotalItems}
	g.trips[t.ID] = t
	return t, nil
}

func (g *stubGateway) UpdateTrip(_ context.Context, id string, req TripRequest) (Trip, error) {
	g.log("PUT /truck-trips/" + id)
	g.updated = &req
	return g.trips[id], nil
}

func (g *stubGateway) UpdateTripStatus(_ context.Context, id string, status Status) (Trip, error) {
	g.log("PATCH /truck-trips/" + id + "/status")
	if g.failWith != nil {
		return Trip{}, g.failWith
	}
	g.statusTo = append(g.statusTo, status)
	t := g.trips[id]
	t.Status = status
	g.trips[id] = t
	return t, nil
}

func (g *stubGateway) ReplaceTripProducts(_ context.Context, id string, items []DispatchItem) (Trip, error) {
	g.log("PATCH /truck-trips/" + id + "/products")
	g.replaced = items
	t := g.trips[id]
	t.DispatchItems = items
	t.Recompute()
	g.trips[id] = t
	return t, nil
}

func (g *stubGateway) called(call string) bool {
	for _, c := range g.calls {
		if c == call {
			return true
		}
	}
	return false
}

type stubAuditor struct {
	logs []shared.AuditLog
}

func (a *stubAuditor) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type stubObserver struct {
	events []string
	errs   []error
}

func (o *stubObserver) ObserveTransition(event string, err error) {
	o.events = append(o.events, event)
	o.errs = append(o.errs, err)
}
