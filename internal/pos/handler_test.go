package pos

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fruitline/fruitline/internal/rbac"
	"github.com/fruitline/fruitline/internal/reference"
	"github.com/fruitline/fruitline/internal/shared"
)

func newPOSRouter(t *testing.T, gw *recordingGateway) http.Handler {
	t.Helper()
	store, _ := newTestStore(t)
	svc := NewService(store, NewCheckout(CheckoutConfig{Mode: ModeSequential}), nil)
	h := NewHandler(nil, svc, func(*http.Request) (Gateway, error) { return gw, nil }, rbac.Middleware{})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := &shared.Session{ID: "till-1"}
			sess.SignIn(cashier, "tok", time.Now().Add(time.Hour))
			sess.ID = "till-1"
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	r.Route("/api/pos", h.MountRoutes)
	return r
}

func call(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, CartView) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var view CartView
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	}
	return rec, view
}

func TestPOSCartFlow(t *testing.T) {
	gw := &recordingGateway{products: []reference.Product{oranges, bananas}}
	router := newPOSRouter(t, gw)

	_, view := call(t, router, http.MethodPost, "/api/pos/cart/items", `{"productId":"p-or"}`)
	require.Len(t, view.Lines, 1)
	_, view = call(t, router, http.MethodPost, "/api/pos/cart/items", `{"productId":"p-or","quantity":1}`)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)

	_, view = call(t, router, http.MethodPost, "/api/pos/cart/items", `{"productId":"p-ba","quantity":3}`)
	assert.Equal(t, 270.0, view.TotalAmount)
	assert.Equal(t, 5, view.TotalItems)

	rec, _ := call(t, router, http.MethodPost, "/api/pos/cart/items", `{"productId":"p-ba","quantity":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = call(t, router, http.MethodPost, "/api/pos/cart/items", `{"productId":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, view = call(t, router, http.MethodPost, "/api/pos/cart/items/p-or/decrement", "")
	assert.Equal(t, 1, view.Lines[0].Quantity)
	_, view = call(t, router, http.MethodPost, "/api/pos/cart/items/p-or/decrement", "")
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "p-ba", view.Lines[0].Product.ID)
}

func TestPOSCheckoutClearsCart(t *testing.T) {
	gw := &recordingGateway{products: []reference.Product{oranges, bananas}}
	router := newPOSRouter(t, gw)

	call(t, router, http.MethodPost, "/api/pos/cart/items", `{"productId":"p-or","quantity":2}`)
	call(t, router, http.MethodPost, "/api/pos/cart/items", `{"productId":"p-ba","quantity":3}`)
	gw.calls = nil

	rec, _ := call(t, router, http.MethodPost, "/api/pos/checkout", `{"paymentMode":"cash"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var receipt Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.Equal(t, 270.0, receipt.TotalAmount)
	assert.Len(t, gw.calls, 4)

	_, view := call(t, router, http.MethodGet, "/api/pos/cart", "")
	assert.Empty(t, view.Lines)

	rec, _ = call(t, router, http.MethodPost, "/api/pos/checkout", `{"paymentMode":"cash"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
