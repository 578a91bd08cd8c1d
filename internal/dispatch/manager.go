package dispatch

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/reference"
	"github.com/fruitline/fruitline/internal/shared"
)

var (
	// ErrProductsLocked is returned for trips that are completed or cancelled.
	ErrProductsLocked = fmt.Errorf("%w: products can only be managed on planned or in-progress trips", httpx.ErrConflict)
	// ErrStockUnknown is returned when stock must be checked but no product list was read.
	ErrStockUnknown = fmt.Errorf("%w: current stock unavailable", httpx.ErrUpstream)
	// ErrNoLines is returned when the edit would leave the trip empty.
	ErrNoLines = errors.New("at least one dispatch item is required")
)

// InsufficientStockError names the line that asks for more than is on hand.
type InsufficientStockError struct {
	Product   string
	Required  int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Product, e.Required, e.Available)
}

// ProblemStatus maps the error to 422.
func (e *InsufficientStockError) ProblemStatus() int {
	return http.StatusUnprocessableEntity
}

// LineEdit changes the quantity of an existing line. Price cannot be edited.
type LineEdit struct {
	Index    int `json:"index"`
	Quantity int `json:"quantity"`
}

// ProductChanges is the product manager submission.
type ProductChanges struct {
	Edits  []LineEdit   `json:"edits,omitempty"`
	Remove []int        `json:"remove,omitempty"`
	Add    []ScratchRow `json:"add,omitempty"`
}

// ApplyProductChanges builds the full replacement item list for trip. Stock
// is checked only while the trip is in progress; planned trips accept any
// positive quantity.
func ApplyProductChanges(trip Trip, changes ProductChanges, products map[string]reference.Product) ([]DispatchItem, error) {
	if !trip.Status.CanManageProducts() {
		return nil, ErrProductsLocked
	}

	ve := shared.NewValidationError()
	items := make([]DispatchItem, len(trip.DispatchItems))
	copy(items, trip.DispatchItems)
	for _, edit := range changes.Edits {
		if edit.Index < 0 || edit.Index >= len(items) {
			ve.Add(fmt.Sprintf("edits[%d]", edit.Index), fmt.Sprintf("line %d does not exist", edit.Index+1))
			continue
		}
		items[edit.Index].Quantity = edit.Quantity
	}
	if len(changes.Remove) > 0 {
		drop := make(map[int]bool, len(changes.Remove))
		for _, idx := range changes.Remove {
			drop[idx] = true
		}
		kept := items[:0]
		for i, item := range items {
			if !drop[i] {
				kept = append(kept, item)
			}
		}
		items = kept
	}
	items = AddToDispatch(items, changes.Add, products)

	if len(items) == 0 {
		ve.Add("dispatchItems", ErrNoLines.Error())
	}
	for i := range items {
		if items[i].Quantity <= 0 {
			ve.Add(fmt.Sprintf("dispatchItems[%d].quantity", i), fmt.Sprintf("%s: quantity must be positive", lineName(items[i])))
		}
		items[i].Recompute()
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	if trip.Status == StatusInProgress {
		if err := checkStock(trip.DispatchItems, items, products); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// checkStock compares every line with current stock. A product the catalogue
// no longer lists cannot be checked; its lines are accepted as long as the
// trip does not ask for more of it than it already carries.
func checkStock(before, items []DispatchItem, products map[string]reference.Product) error {
	if products == nil {
		return ErrStockUnknown
	}
	carried := make(map[string]int, len(before))
	for _, item := range before {
		carried[item.ProductID] += item.Quantity
	}
	wanted := make(map[string]int, len(items))
	for _, item := range items {
		wanted[item.ProductID] += item.Quantity
	}

	ve := shared.NewValidationError()
	for i, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			if wanted[item.ProductID] > carried[item.ProductID] {
				ve.Add(fmt.Sprintf("dispatchItems[%d].productId", i), fmt.Sprintf("%s is no longer listed; its quantity cannot be raised", lineName(item)))
			}
			continue
		}
		if item.Quantity > p.CurrentStock {
			name := p.Name
			if name == "" {
				name = lineName(item)
			}
			return &InsufficientStockError{Product: name, Required: item.Quantity, Available: p.CurrentStock}
		}
	}
	return ve.Err()
}

func lineName(item DispatchItem) string {
	if item.ProductName != "" {
		return item.ProductName
	}
	return item.ProductID
}
