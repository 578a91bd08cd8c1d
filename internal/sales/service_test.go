package sales

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/shared"
)

type stubGateway struct {
	sales   []Sale
	updated *Sale
	err     error
}

func (s *stubGateway) ListSales(context.Context) ([]Sale, error) {
	return s.sales, s.err
}

func (s *stubGateway) UpdateSale(_ context.Context, id string, sale Sale) (Sale, error) {
	if s.err != nil {
		return Sale{}, s.err
	}
	sent := sale
	s.updated = &sent
	sale.ID = id
	return sale, nil
}

type stubAuditor struct {
	logs []shared.AuditLog
}

func (a *stubAuditor) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func TestListFilters(t *testing.T) {
	gw := &stubGateway{sales: []Sale{
		{ID: "1", ProductName: "Bananas", CustomerName: "Asha", PaymentStatus: PaymentPaid, SaleDate: "2026-10-01T09:00:00Z"},
		{ID: "2", ProductName: "Fresh Oranges", PaymentStatus: PaymentPending, SaleDate: "2026-10-02T09:00:00Z"},
		{ID: "3", ProductName: "Orange juice", PaymentStatus: PaymentPaid, SaleDate: "2026-10-02T10:00:00Z"},
	}}
	svc := NewService(nil, nil)

	got, err := svc.List(context.Background(), gw, Filter{Search: "orange"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.List(context.Background(), gw, Filter{Search: "orange", PaymentStatus: PaymentPaid, Date: "2026-10-02"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)
}

func TestUpdateValidatesBeforeCallingUpstream(t *testing.T) {
	gw := &stubGateway{}
	svc := NewService(nil, nil)

	_, err := svc.Update(context.Background(), gw, shared.Principal{}, "s1", Sale{ProductID: "p1", Quantity: 0, UnitPrice: 10, PaymentMode: "cheque"})
	var fe httpx.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.FieldErrors(), "quantity")
	assert.Contains(t, fe.FieldErrors(), "paymentMode")
	assert.Nil(t, gw.updated)

	_, err = svc.Update(context.Background(), gw, shared.Principal{}, "", Sale{})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateSendsFullReplacement(t *testing.T) {
	gw := &stubGateway{}
	audit := &stubAuditor{}
	svc := NewService(audit, nil)

	got, err := svc.Update(context.Background(), gw, shared.Principal{UserID: "u1"}, "s1", Sale{
		ID: "ignored", ProductID: "p1", Quantity: 3, UnitPrice: 50, PaymentMode: PaymentUPI,
	})
	require.NoError(t, err)
	require.NotNil(t, gw.updated)
	assert.Empty(t, gw.updated.ID)
	assert.Equal(t, 150.0, gw.updated.TotalAmount)
	assert.Equal(t, PaymentPaid, gw.updated.PaymentStatus)
	assert.Equal(t, "s1", got.ID)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "sale.update", audit.logs[0].Action)
	assert.Equal(t, "u1", audit.logs[0].ActorID)
}

func TestBatchRejectedErrorMessage(t *testing.T) {
	err := &BatchRejectedError{Failures: []LineFailure{{Index: 1, ProductID: "p2", Message: "insufficient stock"}}}
	assert.Equal(t, "sale batch rejected: line 2 (p2): insufficient stock", err.Error())
	assert.Equal(t, 409, err.ProblemStatus())
	assert.True(t, PaymentUPI.Valid())
	assert.False(t, PaymentMode("cheque").Valid())
}
