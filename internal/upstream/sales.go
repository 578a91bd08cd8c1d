package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fruitline/fruitline/internal/sales"
)

// ListSales returns recorded sales.
func (c *Client) ListSales(ctx context.Context) ([]sales.Sale, error) {
	var out []sales.Sale
	err := c.do(ctx, http.MethodGet, "/sales", nil, nil, &out)
	return out, err
}

// CreateSale records one sale.
func (c *Client) CreateSale(ctx context.Context, sale sales.Sale) (sales.Sale, error) {
	var out sales.Sale
	err := c.do(ctx, http.MethodPost, "/sales", nil, sale, &out)
	return out, err
}

// UpdateSale replaces a sale.
func (c *Client) UpdateSale(ctx context.Context, id string, sale sales.Sale) (sales.Sale, error) {
	var out sales.Sale
	err := c.do(ctx, http.MethodPut, "/sales/"+escape(id), nil, sale, &out)
	return out, err
}

// DeleteSale removes a sale.
func (c *Client) DeleteSale(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sales/"+escape(id), nil, nil, nil)
}

type batchBody struct {
	Sales []sales.Sale `json:"sales"`
}

type batchRejection struct {
	Message  string              `json:"message"`
	Failures []sales.LineFailure `json:"failures"`
}

// CreateSalesBatch records every sale in one all-or-nothing call. An
// upstream without the endpoint yields sales.ErrBatchUnsupported; a batch
// refused with 409 or 422 yields *sales.BatchRejectedError. Other statuses
// come back as *APIError.
func (c *Client) CreateSalesBatch(ctx context.Context, list []sales.Sale) ([]sales.Sale, error) {
	var out batchBody
	err := c.do(ctx, http.MethodPost, "/sales/batch", nil, batchBody{Sales: list}, &out)
	if err == nil {
		return out.Sales, nil
	}
	if IsStatus(err, http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented) {
		return nil, sales.ErrBatchUnsupported
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusConflict || apiErr.Status == http.StatusUnprocessableEntity) {
		var rej batchRejection
		if jsonErr := json.Unmarshal(apiErr.Body, &rej); jsonErr == nil {
			return nil, &sales.BatchRejectedError{Message: apiErr.Message, Failures: rej.Failures}
		}
		return nil, &sales.BatchRejectedError{Message: apiErr.Message}
	}
	return nil, err
}
