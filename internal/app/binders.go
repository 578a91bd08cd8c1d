package app

import (
	"fmt"
	"net/http"

	"github.com/fruitline/fruitline/internal/dispatch"
	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/pos"
	"github.com/fruitline/fruitline/internal/sales"
	"github.com/fruitline/fruitline/internal/shared"
	"github.com/fruitline/fruitline/internal/upstream"
	"github.com/fruitline/fruitline/report"
)

// Binders hand each request an upstream client carrying the credentials
// stored in its session.
type Binders struct {
	client *upstream.Client
}

// NewBinders wraps the shared upstream client.
func NewBinders(client *upstream.Client) Binders {
	return Binders{client: client}
}

// Client returns the upstream client bound to the request's session.
func (b Binders) Client(r *http.Request) (*upstream.Client, error) {
	sess := shared.SessionFromContext(r.Context())
	if _, ok := sess.Principal(); !ok {
		return nil, fmt.Errorf("%w: %v", httpx.ErrUnauthorized, shared.ErrNotSignedIn)
	}
	token, exp := sess.Token()
	return b.client.With(upstream.Credentials{Token: token, ExpiresAt: exp}), nil
}

// Trips binds dispatch handlers.
func (b Binders) Trips(r *http.Request) (dispatch.Gateway, error) {
	c, err := b.Client(r)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// POS binds cart and checkout handlers.
func (b Binders) POS(r *http.Request) (pos.Gateway, error) {
	c, err := b.Client(r)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Sales binds sale handlers.
func (b Binders) Sales(r *http.Request) (sales.Gateway, error) {
	c, err := b.Client(r)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Sheets binds the trip sheet handler.
func (b Binders) Sheets(r *http.Request) (report.TripSource, error) {
	c, err := b.Client(r)
	if err != nil {
		return nil, err
	}
	return c, nil
}
