package dispatch

import (
	"github.com/fruitline/fruitline/internal/reference"
	"github.com/fruitline/fruitline/internal/shared"
)

// ScratchRow is an uncommitted product selection.
type ScratchRow struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// AddToDispatch promotes valid scratch rows into committed lines appended to
// items. The cost price is frozen from the product's selling price. Rows with
// no product, an unknown product, a non-positive quantity or a non-positive
// price are dropped without error.
func AddToDispatch(items []DispatchItem, rows []ScratchRow, products map[string]reference.Product) []DispatchItem {
	out := make([]DispatchItem, len(items), len(items)+len(rows))
	copy(out, items)
	for _, row := range rows {
		if row.ProductID == "" || row.Quantity <= 0 {
			continue
		}
		p, ok := products[row.ProductID]
		if !ok || p.SellingPrice <= 0 {
			continue
		}
		item := DispatchItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    row.Quantity,
			CostPrice:   p.SellingPrice,
		}
		item.Recompute()
		out = append(out, item)
	}
	return out
}

// FormFromTrip pre-populates an edit form from an existing trip. Items are
// copied so edits do not alias the trip.
func FormFromTrip(t Trip) TripRequest {
	items := make([]DispatchItem, len(t.DispatchItems))
	copy(items, t.DispatchItems)
	req := TripRequest{
		TruckID:       t.TruckID,
		RouteID:       t.RouteID,
		DriverID:      t.DriverID,
		SalespersonID: t.SalespersonID,
		HelperID:      t.HelperID,
		TripDate:      tripDay(t.TripDate),
		StartTime:     t.StartTime,
		StartLocation: t.StartLocation,
		DispatchItems: items,
		Notes:         t.Notes,
	}
	req.Recompute()
	return req
}

// ValidateTrip checks the form before anything is sent upstream. All
// failures are reported together.
func ValidateTrip(req TripRequest) error {
	ve := shared.NewValidationError()
	if err := shared.ValidateStruct(ve, req); err != nil {
		return err
	}
	if len(req.DispatchItems) == 0 {
		ve.Fields["dispatchItems"] = "at least one dispatch item is required"
	}
	return ve.Err()
}
