package pos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/reference"
	"github.com/fruitline/fruitline/internal/sales"
	"github.com/fruitline/fruitline/internal/shared"
)

type recordingGateway struct {
	calls       []string
	products    []reference.Product
	batchErr    error
	failCreate  map[string]error
	failDelete  map[string]error
	failStock   map[string]error
	nextSaleID  int
	batchSubmit []sales.Sale
}

func (g *recordingGateway) ListProducts(context.Context) ([]reference.Product, error) {
	g.calls = append(g.calls, "GET /products")
	return g.products, nil
}

func (g *recordingGateway) CreateSalesBatch(_ context.Context, list []sales.Sale) ([]sales.Sale, error) {
	g.calls = append(g.calls, "POST /sales/batch")
	if g.batchErr != nil {
		return nil, g.batchErr
	}
	g.batchSubmit = list
	out := make([]sales.Sale, len(list))
	for i, s := range list {
		g.nextSaleID++
		s.ID = fmt.Sprintf("s%d", g.nextSaleID)
		out[i] = s
	}
	return out, nil
}

func (g *recordingGateway) CreateSale(_ context.Context, sale sales.Sale) (sales.Sale, error) {
	g.calls = append(g.calls, "POST /sales "+sale.ProductID)
	if err := g.failCreate[sale.ProductID]; err != nil {
		return sales.Sale{}, err
	}
	g.nextSaleID++
	sale.ID = fmt.Sprintf("s%d", g.nextSaleID)
	return sale, nil
}

func (g *recordingGateway) DeleteSale(_ context.Context, id string) error {
	g.calls = append(g.calls, "DELETE /sales/"+id)
	return g.failDelete[id]
}

func (g *recordingGateway) AdjustStock(_ context.Context, productID string, quantity int, operation string) error {
	g.calls = append(g.calls, fmt.Sprintf("PATCH /products/%s/stock %s %d", productID, operation, quantity))
	return g.failStock[productID]
}

type queueStub struct {
	queued []string
	err    error
}

func (q *queueStub) CompensateSale(_ context.Context, saleID, _ string) error {
	if q.err != nil {
		return q.err
	}
	q.queued = append(q.queued, saleID)
	return nil
}

type idemStub struct {
	keys      map[string]bool
	completed map[string]string
	audits    []shared.AuditLog
	deleted   []string
}

func newIdemStub() *idemStub {
	return &idemStub{keys: map[string]bool{}, completed: map[string]string{}}
}

func (s *idemStub) CheckAndInsert(_ context.Context, key, _ string) error {
	if s.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	s.keys[key] = true
	return nil
}

func (s *idemStub) Complete(_ context.Context, key, ref string, audit shared.AuditLog) error {
	s.completed[key] = ref
	s.audits = append(s.audits, audit)
	return nil
}

func (s *idemStub) Delete(_ context.Context, key string) error {
	delete(s.keys, key)
	s.deleted = append(s.deleted, key)
	return nil
}

type observerStub struct {
	modes         []string
	errs          []error
	compensations map[string]int
}

func (o *observerStub) ObserveCheckout(mode string, err error) {
	o.modes = append(o.modes, mode)
	o.errs = append(o.errs, err)
}

func (o *observerStub) ObserveCompensation(path string, count int) {
	if o.compensations == nil {
		o.compensations = map[string]int{}
	}
	o.compensations[path] += count
}

var cashier = shared.Principal{UserID: "u9", Role: "salesperson"}

func sampleCart(t *testing.T) Cart {
	t.Helper()
	var cart Cart
	require.NoError(t, cart.Add(oranges, 2))
	require.NoError(t, cart.Add(bananas, 3))
	return cart
}

func TestCheckoutSequentialIssuesCreatesThenDecrements(t *testing.T) {
	gw := &recordingGateway{}
	co := NewCheckout(CheckoutConfig{Mode: ModeSequential})

	receipt, err := co.Run(context.Background(), gw, cashier, sampleCart(t), CheckoutRequest{PaymentMode: sales.PaymentCash}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"POST /sales p-or",
		"POST /sales p-ba",
		"PATCH /products/p-or/stock subtract 2",
		"PATCH /products/p-ba/stock subtract 3",
	}, gw.calls)
	assert.Equal(t, 270.0, receipt.TotalAmount)
	assert.Equal(t, 5, receipt.TotalItems)
	require.Len(t, receipt.Sales, 2)
	assert.Equal(t, 120.0, receipt.Sales[0].TotalAmount)
	assert.Equal(t, sales.PaymentPaid, receipt.Sales[0].PaymentStatus)
	assert.Empty(t, receipt.Warnings)
}

func TestCheckoutBatchIsSingleCall(t *testing.T) {
	gw := &recordingGateway{}
	obs := &observerStub{}
	co := NewCheckout(CheckoutConfig{Mode: ModeBatch, Observer: obs})

	receipt, err := co.Run(context.Background(), gw, cashier, sampleCart(t), CheckoutRequest{PaymentMode: sales.PaymentUPI, PaymentStatus: sales.PaymentPending}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"POST /sales/batch"}, gw.calls)
	assert.Equal(t, ModeBatch, receipt.Mode)
	require.Len(t, gw.batchSubmit, 2)
	assert.Equal(t, sales.PaymentPending, gw.batchSubmit[1].PaymentStatus)
	assert.Equal(t, 150.0, gw.batchSubmit[1].TotalAmount)
	assert.Equal(t, []string{ModeBatch}, obs.modes)
}

func TestCheckoutBatchRejectionCreatesNothing(t *testing.T) {
	gw := &recordingGateway{batchErr: &sales.BatchRejectedError{Failures: []sales.LineFailure{{Index: 1, ProductID: "p-ba", Message: "insufficient stock"}}}}
	co := NewCheckout(CheckoutConfig{})

	_, err := co.Run(context.Background(), gw, cashier, sampleCart(t), CheckoutRequest{PaymentMode: sales.PaymentCard}, "")
	var rejected *sales.BatchRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, []string{"POST /sales/batch"}, gw.calls)
}

func TestCheckoutFallsBackWhenBatchUnsupported(t *testing.T) {
	gw := &recordingGateway{batchErr: sales.ErrBatchUnsupported}
	obs := &observerStub{}
	co := NewCheckout(CheckoutConfig{Observer: obs})

	receipt, err := co.Run(context.Background(), gw, cashier, sampleCart(t), CheckoutRequest{PaymentMode: sales.PaymentCash}, "")
	require.NoError(t, err)
	assert.Equal(t, ModeSequential, receipt.Mode)
	assert.Equal(t, []string{
		"POST /sales/batch",
		"POST /sales p-or",
		"POST /sales p-ba",
		"PATCH /products/p-or/stock subtract 2",
		"PATCH /products/p-ba/stock subtract 3",
	}, gw.calls)
	assert.Equal(t, []string{ModeSequential}, obs.modes)
}

func TestCheckoutSequentialStopsAtFailingLine(t *testing.T) {
	grapes := reference.Product{ID: "p-gr", Name: "Grapes", SellingPrice: 90, CurrentStock: 9, IsActive: true}
	apples := reference.Product{ID: "p-ap", Name: "Apples", SellingPrice: 120, CurrentStock: 9, IsActive: true}
	var cart Cart
	for _, p := range []reference.Product{oranges, bananas, grapes, apples} {
		require.NoError(t, cart.Add(p, 1))
	}
	gw := &recordingGateway{
		failCreate: map[string]error{"p-gr": errors.New("product inactive")},
		failDelete: map[string]error{"s1": errors.New("timeout")},
	}
	queue := &queueStub{}
	obs := &observerStub{}
	co := NewCheckout(CheckoutConfig{Mode: ModeSequential, Compensator: queue, Observer: obs})

	_, err := co.Run(context.Background(), gw, cashier, cart, CheckoutRequest{PaymentMode: sales.PaymentCash}, "")

	var partial *PartialCheckoutError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "Grapes", partial.Product)
	assert.Equal(t, 3, partial.Line)
	assert.Equal(t, 2, partial.Created)
	assert.Equal(t, 1, partial.Compensated)
	assert.Equal(t, 1, partial.Pending)
	assert.Contains(t, err.Error(), "Grapes")
	assert.Equal(t, http.StatusBadGateway, partial.ProblemStatus())

	assert.Equal(t, []string{
		"POST /sales p-or",
		"POST /sales p-ba",
		"POST /sales p-gr",
		"DELETE /sales/s2",
		"DELETE /sales/s1",
	}, gw.calls, "later lines are never sent and no stock is touched")
	assert.Equal(t, []string{"s1"}, queue.queued)
	assert.Equal(t, map[string]int{"inline": 1, "queued": 1}, obs.compensations)
}

func TestCheckoutStockDecrementFailureOnlyWarns(t *testing.T) {
	gw := &recordingGateway{failStock: map[string]error{"p-or": errors.New("stock service down")}}
	co := NewCheckout(CheckoutConfig{Mode: ModeSequential})

	receipt, err := co.Run(context.Background(), gw, cashier, sampleCart(t), CheckoutRequest{PaymentMode: sales.PaymentCash}, "")
	require.NoError(t, err)
	require.Len(t, receipt.Warnings, 1)
	assert.Contains(t, receipt.Warnings[0], "Fresh Oranges")
	assert.Contains(t, gw.calls, "PATCH /products/p-ba/stock subtract 3")
	assert.Len(t, receipt.Sales, 2)
}

func TestCheckoutValidation(t *testing.T) {
	gw := &recordingGateway{}
	co := NewCheckout(CheckoutConfig{})

	_, err := co.Run(context.Background(), gw, cashier, Cart{}, CheckoutRequest{PaymentMode: sales.PaymentCash}, "")
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = co.Run(context.Background(), gw, cashier, sampleCart(t), CheckoutRequest{PaymentMode: "cheque"}, "")
	var fe httpx.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.FieldErrors(), "paymentMode")

	_, err = co.Run(context.Background(), gw, cashier, sampleCart(t), CheckoutRequest{PaymentMode: sales.PaymentCash, PaymentStatus: "later"}, "")
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.FieldErrors(), "paymentStatus")

	stale := sampleCart(t)
	stale.Lines[1].Quantity = 4
	_, err = co.Run(context.Background(), gw, cashier, stale, CheckoutRequest{PaymentMode: sales.PaymentCash}, "")
	assert.ErrorIs(t, err, ErrExceedsStock)
	assert.Contains(t, err.Error(), "Bananas requested 4, available 3")

	assert.Empty(t, gw.calls)
}

func TestCheckoutIdempotency(t *testing.T) {
	idem := newIdemStub()
	co := NewCheckout(CheckoutConfig{Idempotency: idem})

	gw := &recordingGateway{}
	_, err := co.Run(context.Background(), gw, cashier, sampleCart(t), CheckoutRequest{PaymentMode: sales.PaymentCash}, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "s1,s2", idem.completed["u9:key-1"])
	require.Len(t, idem.audits, 1)
	assert.Equal(t, "pos.checkout", idem.audits[0].Action)
	assert.Equal(t, "u9", idem.audits[0].ActorID)

	_, err = co.Run(context.Background(), gw, cashier, sampleCart(t), CheckoutRequest{PaymentMode: sales.PaymentCash}, "key-1")
	assert.ErrorIs(t, err, ErrDuplicateCheckout)
	assert.ErrorIs(t, err, httpx.ErrConflict)
	assert.Equal(t, []string{"POST /sales/batch"}, gw.calls)

	failing := &recordingGateway{batchErr: &sales.BatchRejectedError{Message: "no"}}
	_, err = co.Run(context.Background(), failing, cashier, sampleCart(t), CheckoutRequest{PaymentMode: sales.PaymentCash}, "key-2")
	require.Error(t, err)
	assert.Equal(t, []string{"u9:key-2"}, idem.deleted)
	assert.False(t, idem.keys["u9:key-2"], "failed checkout releases the key")
}

func TestCheckoutIdempotencyKeysArePerOperator(t *testing.T) {
	idem := newIdemStub()
	co := NewCheckout(CheckoutConfig{Idempotency: idem})
	other := shared.Principal{UserID: "u12", Role: "salesperson"}

	_, err := co.Run(context.Background(), &recordingGateway{}, cashier, sampleCart(t), CheckoutRequest{PaymentMode: sales.PaymentCash}, "till-key")
	require.NoError(t, err)
	_, err = co.Run(context.Background(), &recordingGateway{}, other, sampleCart(t), CheckoutRequest{PaymentMode: sales.PaymentCard}, "till-key")
	require.NoError(t, err)

	assert.Contains(t, idem.completed, "u9:till-key")
	assert.Contains(t, idem.completed, "u12:till-key")
}

func TestCheckoutExpiredTokenAnswersUnauthorized(t *testing.T) {
	gw := &recordingGateway{failCreate: map[string]error{
		"p-or": fmt.Errorf("%w: upstream session expired", httpx.ErrUnauthorized),
	}}
	co := NewCheckout(CheckoutConfig{Mode: ModeSequential})

	_, err := co.Run(context.Background(), gw, cashier, sampleCart(t), CheckoutRequest{PaymentMode: sales.PaymentCash}, "")
	var partial *PartialCheckoutError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, http.StatusUnauthorized, partial.ProblemStatus())

	rec := httptest.NewRecorder()
	httpx.RespondError(rec, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, []string{"POST /sales p-or"}, gw.calls)
}
