package upstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fruitline/fruitline/internal/reference"
)

// ListTrucks returns the fleet.
func (c *Client) ListTrucks(ctx context.Context) ([]reference.Truck, error) {
	var out []reference.Truck
	err := c.do(ctx, http.MethodGet, "/trucks", nil, nil, &out)
	return out, err
}

// ListRoutes returns delivery routes.
func (c *Client) ListRoutes(ctx context.Context) ([]reference.Route, error) {
	var out []reference.Route
	err := c.do(ctx, http.MethodGet, "/routes", nil, nil, &out)
	return out, err
}

// ListStaff returns staff with the given role.
func (c *Client) ListStaff(ctx context.Context, role string) ([]reference.Staff, error) {
	var out []reference.Staff
	var q url.Values
	if role != "" {
		q = url.Values{"role": []string{role}}
	}
	err := c.do(ctx, http.MethodGet, "/staff", q, nil, &out)
	return out, err
}

// ListProducts returns the product catalogue with current stock.
func (c *Client) ListProducts(ctx context.Context) ([]reference.Product, error) {
	var out []reference.Product
	err := c.do(ctx, http.MethodGet, "/products", nil, nil, &out)
	return out, err
}

type stockBody struct {
	Quantity  int    `json:"quantity"`
	Operation string `json:"operation"`
}

// AdjustStock asks the upstream to add or subtract stock.
func (c *Client) AdjustStock(ctx context.Context, productID string, quantity int, operation string) error {
	return c.do(ctx, http.MethodPatch, "/products/"+escape(productID)+"/stock", nil, stockBody{Quantity: quantity, Operation: operation}, nil)
}
