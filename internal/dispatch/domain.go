// Package dispatch implements the truck trip workflow: the board, the
// create/edit form, the product manager and status transitions.
package dispatch

// DispatchItem is one product line of a trip. TotalCost is always derived.
type DispatchItem struct {
	ProductID   string  `json:"productId" validate:"required"`
	ProductName string  `json:"productName,omitempty"`
	Quantity    int     `json:"quantity" validate:"gt=0"`
	CostPrice   float64 `json:"costPrice" validate:"gt=0"`
	TotalCost   float64 `json:"totalCost"`
}

// Recompute sets TotalCost from quantity and cost price.
func (d *DispatchItem) Recompute() {
	d.TotalCost = float64(d.Quantity) * d.CostPrice
}

// Trip is the upstream truck trip document.
type Trip struct {
	ID            string         `json:"_id"`
	TruckID       string         `json:"truckId"`
	VehicleNumber string         `json:"vehicleNumber,omitempty"`
	RouteID       string         `json:"routeId"`
	RouteName     string         `json:"routeName,omitempty"`
	DriverID      string         `json:"driverId"`
	DriverName    string         `json:"driverName,omitempty"`
	SalespersonID string         `json:"salespersonId,omitempty"`
	HelperID      string         `json:"helperId,omitempty"`
	TripDate      string         `json:"tripDate"`
	StartTime     string         `json:"startTime"`
	StartLocation string         `json:"startLocation"`
	Status        Status         `json:"status"`
	DispatchItems []DispatchItem `json:"dispatchItems"`
	TotalValue    float64        `json:"totalValue"`
	TotalItems    int            `json:"totalItems"`
	Notes         string         `json:"notes,omitempty"`
}

// TripRequest is the create/update document sent upstream.
type TripRequest struct {
	TruckID       string         `json:"truckId" validate:"required"`
	RouteID       string         `json:"routeId" validate:"required"`
	DriverID      string         `json:"driverId" validate:"required"`
	SalespersonID string         `json:"salespersonId,omitempty"`
	HelperID      string         `json:"helperId,omitempty"`
	TripDate      string         `json:"tripDate" validate:"required,datetime=2006-01-02"`
	StartTime     string         `json:"startTime" validate:"required,datetime=15:04"`
	StartLocation string         `json:"startLocation" validate:"required"`
	DispatchItems []DispatchItem `json:"dispatchItems" validate:"min=1,dive"`
	TotalValue    float64        `json:"totalValue"`
	TotalItems    int            `json:"totalItems"`
	Notes         string         `json:"notes,omitempty"`
}

// Totals returns the aggregate value and item count of items.
func Totals(items []DispatchItem) (value float64, count int) {
	for _, item := range items {
		value += float64(item.Quantity) * item.CostPrice
		count += item.Quantity
	}
	return value, count
}

// RecomputeAll refreshes every line total and returns the aggregates.
func RecomputeAll(items []DispatchItem) (float64, int) {
	for i := range items {
		items[i].Recompute()
	}
	return Totals(items)
}

// Recompute refreshes line totals and aggregates in place.
func (r *TripRequest) Recompute() {
	r.TotalValue, r.TotalItems = RecomputeAll(r.DispatchItems)
}

// Recompute refreshes line totals and aggregates in place.
func (t *Trip) Recompute() {
	t.TotalValue, t.TotalItems = RecomputeAll(t.DispatchItems)
}
