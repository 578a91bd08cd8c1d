package dispatch

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
	"github.com/fruitline/fruitline/internal/shared"
)

func newTestRouter(gw *stubGateway, role string) http.Handler {
	h := NewHandler(nil, newTestService(nil, nil), func(*http.Request) (Gateway, error) { return gw, nil }, rbac.Middleware{})
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := &shared.Session{ID: "s1"}
			if role != "" {
				sess.SignIn(shared.Principal{UserID: "u1", Name: "Meera", Role: role}, "tok", time.Now().Add(time.Hour))
			}
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	r.Route("/api/trips", h.MountRoutes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerBoard(t *testing.T) {
	gw := newStubGateway(boardTrips()...)
	rec := do(t, newTestRouter(gw, rbac.RoleDispatcher), http.MethodGet, "/api/trips/?search=ravi&status=planned", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var board Board
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board.Rows, 1)
	assert.Equal(t, "1", board.Rows[0].Trip.ID)
	assert.Equal(t, 4, board.Total)

	rec = do(t, newTestRouter(gw, rbac.RoleDispatcher), http.MethodGet, "/api/trips/?status=loading", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerRequiresTripRole(t *testing.T) {
	gw := newStubGateway()
	assert.Equal(t, http.StatusUnauthorized, do(t, newTestRouter(gw, ""), http.MethodGet, "/api/trips/", "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, newTestRouter(gw, rbac.RoleSalesperson), http.MethodGet, "/api/trips/", "").Code)
	assert.Empty(t, gw.calls)
}

func TestHandlerCreateValidation(t *testing.T) {
	gw := newStubGateway()
	rec := do(t, newTestRouter(gw, rbac.RoleManager), http.MethodPost, "/api/trips/", `{"truckId":"t1","dispatchItems":[]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var problem struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Contains(t, problem.Errors, "driverId")
	assert.Contains(t, problem.Errors, "dispatchItems")
	assert.Empty(t, gw.calls)
}

func TestHandlerTransition(t *testing.T) {
	gw := newStubGateway(Trip{ID: "x", Status: StatusPlanned})
	router := newTestRouter(gw, rbac.RoleDispatcher)

	rec := do(t, router, http.MethodPost, "/api/trips/x/start", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, gw.calls)

	rec = do(t, router, http.MethodPost, "/api/trips/x/complete", `{"confirm":true}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, gw.called("PATCH /truck-trips/x/status"))

	rec = do(t, router, http.MethodPost, "/api/trips/x/start", `{"confirm":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []Status{StatusInProgress}, gw.statusTo)

	rec = do(t, router, http.MethodPost, "/api/trips/x/archive", `{"confirm":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerReplaceProductsInsufficientStock(t *testing.T) {
	gw := newStubGateway(managedTrip(StatusInProgress))
	gw.products = stockList()
	rec := do(t, newTestRouter(gw, rbac.RoleDispatcher), http.MethodPut, "/api/trips/trip1/products", `{"edits":[{"index":0,"quantity":8}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient stock for Fresh Oranges: requested 8, available 6")
	assert.False(t, gw.called("PATCH /truck-trips/trip1/products"))
}

func TestHandlerPreviewTripItemsStartsFromStoredItems(t *testing.T) {
	gw := newStubGateway(managedTrip(StatusPlanned), Trip{ID: "done", Status: StatusCompleted})
	gw.products = stockList()
	router := newTestRouter(gw, rbac.RoleDispatcher)

	rec := do(t, router, http.MethodPost, "/api/trips/trip1/items", `{"rows":[{"productId":"p2","quantity":4}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var preview ItemsPreview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	require.Len(t, preview.Items, 3)
	assert.Equal(t, "p1", preview.Items[0].ProductID)
	assert.Equal(t, 4, preview.Items[2].Quantity)
	assert.Equal(t, 11, preview.TotalItems)
	assert.Equal(t, 600.0, preview.TotalValue)

	rec = do(t, router, http.MethodPost, "/api/trips/done/items", `{"rows":[{"productId":"p2","quantity":1}]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
