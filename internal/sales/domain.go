// Package sales holds the sale record, the payment enums and sale editing.
package sales

import (
	"errors"
	"fmt"
	"strings"
)

// PaymentMode is how the customer paid.
type PaymentMode string

const (
	PaymentCash   PaymentMode = "cash"
	PaymentCard   PaymentMode = "card"
	PaymentUPI    PaymentMode = "upi"
	PaymentCredit PaymentMode = "credit"
)

// Valid reports whether m is a known mode.
func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentCredit:
		return true
	}
	return false
}

// PaymentStatus tracks settlement of a sale.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
)

// Valid reports whether s is a known status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentPartial:
		return true
	}
	return false
}

// Sale is one product sold to one customer.
type Sale struct {
	ID            string        `json:"_id,omitempty"`
	ProductID     string        `json:"productId" validate:"required"`
	ProductName   string        `json:"productName,omitempty"`
	Quantity      int           `json:"quantity" validate:"gt=0"`
	UnitPrice     float64       `json:"unitPrice" validate:"gt=0"`
	TotalAmount   float64       `json:"totalAmount"`
	PaymentMode   PaymentMode   `json:"paymentMode" validate:"required,oneof=cash card upi credit"`
	PaymentStatus PaymentStatus `json:"paymentStatus" validate:"required,oneof=paid pending partial"`
	CustomerName  string        `json:"customerName,omitempty" validate:"max=120"`
	CustomerPhone string        `json:"customerPhone,omitempty" validate:"max=20"`
	SaleDate      string        `json:"saleDate,omitempty"`
}

// Recompute derives the total from quantity and unit price.
func (s *Sale) Recompute() {
	s.TotalAmount = float64(s.Quantity) * s.UnitPrice
}

// ErrBatchUnsupported is returned by a gateway whose upstream has no batch endpoint.
var ErrBatchUnsupported = errors.New("batch sale endpoint not available")

// LineFailure describes why one line of a batch was refused.
type LineFailure struct {
	Index     int    `json:"index"`
	ProductID string `json:"productId"`
	Message   string `json:"message"`
}

// BatchRejectedError reports that an all-or-nothing batch was refused. No sale was created.
type BatchRejectedError struct {
	Message  string
	Failures []LineFailure
}

func (e *BatchRejectedError) Error() string {
	if len(e.Failures) == 0 {
		if e.Message != "" {
			return "sale batch rejected: " + e.Message
		}
		return "sale batch rejected"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("line %d (%s): %s", f.Index+1, f.ProductID, f.Message))
	}
	return "sale batch rejected: " + strings.Join(parts, "; ")
}

// ProblemStatus maps the rejection to 409 Conflict.
func (e *BatchRejectedError) ProblemStatus() int {
	return 409
}
