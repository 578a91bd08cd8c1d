// Package pos implements the mobile point-of-sale cart and checkout.
package pos

import (
	"fmt"

	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/reference"
)

var (
	// ErrExceedsStock is returned when a cart line would ask for more than the last-fetched stock.
	ErrExceedsStock = fmt.Errorf("%w: quantity exceeds available stock", httpx.ErrConflict)
	// ErrProductUnavailable is returned for inactive or out-of-stock products.
	ErrProductUnavailable = fmt.Errorf("%w: product is not available for sale", httpx.ErrConflict)
	// ErrLineNotFound is returned when the product is not in the cart.
	ErrLineNotFound = fmt.Errorf("%w: product not in cart", httpx.ErrNotFound)
	// ErrEmptyCart is returned when checking out an empty cart.
	ErrEmptyCart = fmt.Errorf("%w: cart is empty", httpx.ErrValidation)
	// ErrInvalidQuantity is returned for non-positive quantities.
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be positive", httpx.ErrValidation)
)

// CartLine pairs a product snapshot with a quantity.
type CartLine struct {
	Product   reference.Product `json:"product"`
	Quantity  int               `json:"quantity"`
	LineTotal float64           `json:"lineTotal"`
}

func (l *CartLine) recompute() {
	l.LineTotal = float64(l.Quantity) * l.Product.SellingPrice
}

// Cart is the operator's pending sale.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// CartView is a cart with its totals.
type CartView struct {
	Lines       []CartLine `json:"lines"`
	TotalAmount float64    `json:"totalAmount"`
	TotalItems  int        `json:"totalItems"`
}

func (c *Cart) find(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// Add puts qty of p in the cart, incrementing an existing line. The line's
// product snapshot is refreshed from p.
func (c *Cart) Add(p reference.Product, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if !p.Sellable() {
		return fmt.Errorf("%w: %s", ErrProductUnavailable, p.Name)
	}
	idx := c.find(p.ID)
	current := 0
	if idx >= 0 {
		current = c.Lines[idx].Quantity
	}
	if current+qty > p.CurrentStock {
		return fmt.Errorf("%w: %s has %d in stock", ErrExceedsStock, p.Name, p.CurrentStock)
	}
	if idx < 0 {
		c.Lines = append(c.Lines, CartLine{Product: p})
		idx = len(c.Lines) - 1
	}
	c.Lines[idx].Product = p
	c.Lines[idx].Quantity = current + qty
	c.Lines[idx].recompute()
	return nil
}

// Decrement lowers a line by one, removing it at zero.
func (c *Cart) Decrement(productID string) error {
	idx := c.find(productID)
	if idx < 0 {
		return ErrLineNotFound
	}
	if c.Lines[idx].Quantity <= 1 {
		c.removeAt(idx)
		return nil
	}
	c.Lines[idx].Quantity--
	c.Lines[idx].recompute()
	return nil
}

// SetQuantity replaces a line's quantity. Zero removes the line.
func (c *Cart) SetQuantity(productID string, qty int) error {
	idx := c.find(productID)
	if idx < 0 {
		return ErrLineNotFound
	}
	switch {
	case qty < 0:
		return ErrInvalidQuantity
	case qty == 0:
		c.removeAt(idx)
		return nil
	case qty > c.Lines[idx].Product.CurrentStock:
		return fmt.Errorf("%w: %s has %d in stock", ErrExceedsStock, c.Lines[idx].Product.Name, c.Lines[idx].Product.CurrentStock)
	}
	c.Lines[idx].Quantity = qty
	c.Lines[idx].recompute()
	return nil
}

// Remove drops a line.
func (c *Cart) Remove(productID string) error {
	idx := c.find(productID)
	if idx < 0 {
		return ErrLineNotFound
	}
	c.removeAt(idx)
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = nil
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Totals returns the amount due and the number of items.
func (c *Cart) Totals() (amount float64, items int) {
	for _, l := range c.Lines {
		amount += float64(l.Quantity) * l.Product.SellingPrice
		items += l.Quantity
	}
	return amount, items
}

// View returns the cart with totals.
func (c *Cart) View() CartView {
	amount, items := c.Totals()
	lines := c.Lines
	if lines == nil {
		lines = []CartLine{}
	}
	return CartView{Lines: lines, TotalAmount: amount, TotalItems: items}
}

func (c *Cart) removeAt(idx int) {
	c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
}
