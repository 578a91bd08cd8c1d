package upstream

import (
	"context"
	"net/http"

	"github.com/fruitline/fruitline/internal/dispatch"
)

// ListTrips returns every truck trip.
func (c *Client) ListTrips(ctx context.Context) ([]dispatch.Trip, error) {
	var trips []dispatch.Trip
	if err := c.do(ctx, http.MethodGet, "/truck-trips", nil, nil, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// GetTrip returns one truck trip.
func (c *Client) GetTrip(ctx context.Context, id string) (dispatch.Trip, error) {
	var trip dispatch.Trip
	err := c.do(ctx, http.MethodGet, "/truck-trips/"+escape(id), nil, nil, &trip)
	return trip, err
}

// CreateTrip posts a new trip document.
func (c *Client) CreateTrip(ctx context.Context, req dispatch.TripRequest) (dispatch.Trip, error) {
	var trip dispatch.Trip
	err := c.do(ctx, http.MethodPost, "/truck-trips", nil, req, &trip)
	return trip, err
}

// UpdateTrip replaces a trip document.
func (c *Client) UpdateTrip(ctx context.Context, id string, req dispatch.TripRequest) (dispatch.Trip, error) {
	var trip dispatch.Trip
	err := c.do(ctx, http.MethodPut, "/truck-trips/"+escape(id), nil, req, &trip)
	return trip, err
}

type statusBody struct {
	Status dispatch.Status `json:"status"`
}

// UpdateTripStatus requests a status change.
func (c *Client) UpdateTripStatus(ctx context.Context, id string, status dispatch.Status) (dispatch.Trip, error) {
	var trip dispatch.Trip
	err := c.do(ctx, http.MethodPatch, "/truck-trips/"+escape(id)+"/status", nil, statusBody{Status: status}, &trip)
	return trip, err
}

type productsBody struct {
	DispatchItems []dispatch.DispatchItem `json:"dispatchItems"`
}

// ReplaceTripProducts replaces the whole dispatch item list of a trip.
func (c *Client) ReplaceTripProducts(ctx context.Context, id string, items []dispatch.DispatchItem) (dispatch.Trip, error) {
	var trip dispatch.Trip
	err := c.do(ctx, http.MethodPatch, "/truck-trips/"+escape(id)+"/products", nil, productsBody{DispatchItems: items}, &trip)
	return trip, err
}
