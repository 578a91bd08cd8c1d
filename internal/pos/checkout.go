package pos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/reference"
	"github.com/fruitline/fruitline/internal/sales"
	"github.com/fruitline/fruitline/internal/shared"
)

// Checkout modes.
const (
	ModeBatch      = "batch"
	ModeSequential = "sequential"
)

const stockSubtract = "subtract"

// ErrDuplicateCheckout is returned when an Idempotency-Key was already used.
var ErrDuplicateCheckout = fmt.Errorf("%w: checkout already submitted", httpx.ErrConflict)

// Gateway is the upstream surface used by the POS.
type Gateway interface {
	ListProducts(ctx context.Context) ([]reference.Product, error)
	CreateSalesBatch(ctx context.Context, list []sales.Sale) ([]sales.Sale, error)
	CreateSale(ctx context.Context, sale sales.Sale) (sales.Sale, error)
	DeleteSale(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, productID string, quantity int, operation string) error
}

// Compensator retries sale deletions in the background.
type Compensator interface {
	CompensateSale(ctx context.Context, saleID, reason string) error
}

// Idempotency guards a checkout against resubmission.
type Idempotency interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Complete(ctx context.Context, key, ref string, audit shared.AuditLog) error
	Delete(ctx context.Context, key string) error
}

// Auditor records checkouts submitted without an idempotency key.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Observer receives checkout outcomes.
type Observer interface {
	ObserveCheckout(mode string, err error)
	ObserveCompensation(path string, count int)
}

// CheckoutRequest carries payment details for the whole cart.
type CheckoutRequest struct {
	PaymentMode   sales.PaymentMode   `json:"paymentMode" validate:"required,oneof=cash card upi credit"`
	PaymentStatus sales.PaymentStatus `json:"paymentStatus" validate:"omitempty,oneof=paid pending partial"`
	CustomerName  string              `json:"customerName,omitempty" validate:"max=120"`
	CustomerPhone string              `json:"customerPhone,omitempty" validate:"max=20"`
}

// Receipt describes a completed checkout.
type Receipt struct {
	Mode        string       `json:"mode"`
	Sales       []sales.Sale `json:"sales"`
	TotalAmount float64      `json:"totalAmount"`
	TotalItems  int          `json:"totalItems"`
	Warnings    []string     `json:"warnings,omitempty"`
}

// PartialCheckoutError reports a sequential checkout that stopped at one line.
// Sales created before it were deleted again; Pending counts deletions handed
// to the background worker.
type PartialCheckoutError struct {
	Product     string
	Line        int
	Created     int
	Compensated int
	Pending     int
	Err         error
}

func (e *PartialCheckoutError) Error() string {
	return fmt.Sprintf("checkout failed at %s (line %d): %v", e.Product, e.Line, e.Err)
}

func (e *PartialCheckoutError) Unwrap() error {
	return e.Err
}

// ProblemStatus maps the failure to 502 unless the upstream refused the line
// itself. A rejected token stays a 401 so the session is torn down.
func (e *PartialCheckoutError) ProblemStatus() int {
	if errors.Is(e.Err, httpx.ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	var status httpx.StatusError
	if errors.As(e.Err, &status) {
		return status.ProblemStatus()
	}
	return http.StatusBadGateway
}

// Checkout turns a cart into sales.
type Checkout struct {
	mode        string
	compensator Compensator
	idempotency Idempotency
	audit       Auditor
	observer    Observer
	logger      *slog.Logger
	now         func() time.Time
}

// CheckoutConfig wires Checkout dependencies.
type CheckoutConfig struct {
	Mode        string
	Compensator Compensator
	Idempotency Idempotency
	Audit       Auditor
	Observer    Observer
	Logger      *slog.Logger
}

// NewCheckout constructs a Checkout.
func NewCheckout(cfg CheckoutConfig) *Checkout {
	mode := cfg.Mode
	if mode != ModeSequential {
		mode = ModeBatch
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Checkout{
		mode:        mode,
		compensator: cfg.Compensator,
		idempotency: cfg.Idempotency,
		audit:       cfg.Audit,
		observer:    cfg.Observer,
		logger:      logger,
		now:         time.Now,
	}
}

// Validate checks the cart against its cached stock and the payment details.
func Validate(cart Cart, req *CheckoutRequest) error {
	if cart.Empty() {
		return ErrEmptyCart
	}
	if req.PaymentStatus == "" {
		req.PaymentStatus = sales.PaymentPaid
	}
	ve := shared.NewValidationError()
	if err := shared.ValidateStruct(ve, req); err != nil {
		return err
	}
	if err := ve.Err(); err != nil {
		return err
	}
	for _, line := range cart.Lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidQuantity, line.Product.Name)
		}
		if line.Quantity > line.Product.CurrentStock {
			return fmt.Errorf("%w: %s requested %d, available %d", ErrExceedsStock, line.Product.Name, line.Quantity, line.Product.CurrentStock)
		}
	}
	return nil
}

// Run validates and submits cart. key, when set, is claimed per operator
// before any sale is sent and released again if the checkout fails.
func (c *Checkout) Run(ctx context.Context, gw Gateway, actor shared.Principal, cart Cart, req CheckoutRequest, key string) (receipt Receipt, err error) {
	mode := c.mode
	defer func() {
		if c.observer != nil {
			c.observer.ObserveCheckout(mode, err)
		}
	}()

	if err := Validate(cart, &req); err != nil {
		return Receipt{}, err
	}

	if key != "" {
		key = scopedKey(actor, key)
	}
	if key != "" && c.idempotency != nil {
		if err := c.idempotency.CheckAndInsert(ctx, key, "pos.checkout"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return Receipt{}, ErrDuplicateCheckout
			}
			return Receipt{}, fmt.Errorf("claim idempotency key: %w", err)
		}
		defer func() {
			if err == nil {
				return
			}
			if delErr := c.idempotency.Delete(context.WithoutCancel(ctx), key); delErr != nil {
				c.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", delErr))
			}
		}()
	}

	list := c.buildSales(cart, req)
	amount, items := cart.Totals()
	receipt = Receipt{Mode: mode, TotalAmount: amount, TotalItems: items}

	if mode == ModeBatch {
		created, batchErr := gw.CreateSalesBatch(ctx, list)
		switch {
		case batchErr == nil:
			receipt.Sales = created
		case errors.Is(batchErr, sales.ErrBatchUnsupported):
			c.logger.Info("batch sale endpoint unavailable, falling back to sequential checkout")
			mode = ModeSequential
			receipt.Mode = mode
		default:
			return Receipt{}, fmt.Errorf("submit sale batch: %w", batchErr)
		}
	}
	if mode == ModeSequential {
		created, warnings, seqErr := c.sequential(ctx, gw, cart, list)
		if seqErr != nil {
			return Receipt{}, seqErr
		}
		receipt.Sales = created
		receipt.Warnings = warnings
	}

	c.finish(ctx, actor, key, receipt)
	return receipt, nil
}

// scopedKey namespaces a client key by operator so tills that reuse keys do
// not collide.
func scopedKey(actor shared.Principal, key string) string {
	return actor.UserID + ":" + key
}

func (c *Checkout) buildSales(cart Cart, req CheckoutRequest) []sales.Sale {
	date := c.now().UTC().Format(time.RFC3339)
	list := make([]sales.Sale, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		sale := sales.Sale{
			ProductID:     line.Product.ID,
			ProductName:   line.Product.Name,
			Quantity:      line.Quantity,
			UnitPrice:     line.Product.SellingPrice,
			PaymentMode:   req.PaymentMode,
			PaymentStatus: req.PaymentStatus,
			CustomerName:  strings.TrimSpace(req.CustomerName),
			CustomerPhone: strings.TrimSpace(req.CustomerPhone),
			SaleDate:      date,
		}
		sale.Recompute()
		list = append(list, sale)
	}
	return list
}

// sequential creates one sale per line in order, then decrements stock per
// line. A failed sale stops the first phase and compensates the sales already
// created; a failed decrement only produces a warning.
func (c *Checkout) sequential(ctx context.Context, gw Gateway, cart Cart, list []sales.Sale) ([]sales.Sale, []string, error) {
	created := make([]sales.Sale, 0, len(list))
	for i, sale := range list {
		out, err := gw.CreateSale(ctx, sale)
		if err != nil {
			compensated, pending := c.compensate(ctx, gw, created, sale.ProductName)
			return nil, nil, &PartialCheckoutError{
				Product:     sale.ProductName,
				Line:        i + 1,
				Created:     len(created),
				Compensated: compensated,
				Pending:     pending,
				Err:         err,
			}
		}
		created = append(created, out)
	}

	var warnings []string
	for _, line := range cart.Lines {
		if err := gw.AdjustStock(ctx, line.Product.ID, line.Quantity, stockSubtract); err != nil {
			c.logger.Warn("stock decrement failed",
				slog.String("product_id", line.Product.ID),
				slog.Int("quantity", line.Quantity),
				slog.Any("error", err))
			warnings = append(warnings, fmt.Sprintf("stock for %s was not reduced: %v", line.Product.Name, err))
		}
	}
	return created, warnings, nil
}

// compensate deletes created sales in reverse order. Deletions that fail are
// queued for the worker.
func (c *Checkout) compensate(ctx context.Context, gw Gateway, created []sales.Sale, failedProduct string) (inline, queued int) {
	reason := "checkout aborted at " + failedProduct
	ctx = context.WithoutCancel(ctx)
	for i := len(created) - 1; i >= 0; i-- {
		id := created[i].ID
		if id == "" {
			c.logger.Error("created sale has no id, cannot compensate", slog.String("product_id", created[i].ProductID))
			continue
		}
		err := gw.DeleteSale(ctx, id)
		if err == nil {
			inline++
			continue
		}
		c.logger.Warn("compensating sale delete failed", slog.String("sale_id", id), slog.Any("error", err))
		if c.compensator == nil {
			continue
		}
		if qErr := c.compensator.CompensateSale(ctx, id, reason); qErr != nil {
			c.logger.Error("enqueue sale compensation", slog.String("sale_id", id), slog.Any("error", qErr))
			continue
		}
		queued++
	}
	if c.observer != nil {
		c.observer.ObserveCompensation("inline", inline)
		c.observer.ObserveCompensation("queued", queued)
	}
	return inline, queued
}

func (c *Checkout) finish(ctx context.Context, actor shared.Principal, key string, receipt Receipt) {
	ids := make([]string, 0, len(receipt.Sales))
	for _, s := range receipt.Sales {
		ids = append(ids, s.ID)
	}
	ref := strings.Join(ids, ",")
	entry := shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   "pos.checkout",
		Entity:   "sale",
		EntityID: ref,
		Meta: map[string]any{
			"mode":         receipt.Mode,
			"total_amount": receipt.TotalAmount,
			"total_items":  receipt.TotalItems,
			"warnings":     len(receipt.Warnings),
		},
	}
	if entry.EntityID == "" {
		entry.EntityID = "unknown"
	}
	ctx = context.WithoutCancel(ctx)
	if key != "" && c.idempotency != nil {
		if err := c.idempotency.Complete(ctx, key, ref, entry); err != nil {
			c.logger.Warn("complete idempotency key", slog.String("key", key), slog.Any("error", err))
		}
		return
	}
	if c.audit != nil {
		if err := c.audit.Record(ctx, entry); err != nil {
			c.logger.Warn("audit checkout", slog.Any("error", err))
		}
	}
}
