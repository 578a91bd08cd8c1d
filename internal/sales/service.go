package sales

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/shared"
)

// Gateway is the upstream sale surface.
type Gateway interface {
	ListSales(ctx context.Context) ([]Sale, error)
	UpdateSale(ctx context.Context, id string, sale Sale) (Sale, error)
}

// Auditor records sale edits.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Filter narrows the sale list.
type Filter struct {
	Search        string
	PaymentStatus PaymentStatus
	Date          string
}

// Service implements sale listing and editing.
type Service struct {
	audit  Auditor
	logger *slog.Logger
}

// NewService constructs the service.
func NewService(audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{audit: audit, logger: logger}
}

// List fetches sales and applies the filter locally.
func (s *Service) List(ctx context.Context, gw Gateway, f Filter) ([]Sale, error) {
	all, err := gw.ListSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Sale, 0, len(all))
	for _, sale := range all {
		if search != "" &&
			!strings.Contains(strings.ToLower(sale.ProductName), search) &&
			!strings.Contains(strings.ToLower(sale.CustomerName), search) &&
			!strings.Contains(sale.CustomerPhone, search) {
			continue
		}
		if f.PaymentStatus != "" && sale.PaymentStatus != f.PaymentStatus {
			continue
		}
		if f.Date != "" && !strings.HasPrefix(sale.SaleDate, f.Date) {
			continue
		}
		out = append(out, sale)
	}
	return out, nil
}

// Update replaces every editable field of a sale.
func (s *Service) Update(ctx context.Context, gw Gateway, actor shared.Principal, id string, sale Sale) (Sale, error) {
	if strings.TrimSpace(id) == "" {
		return Sale{}, fmt.Errorf("%w: sale id required", httpx.ErrValidation)
	}
	if sale.PaymentStatus == "" {
		sale.PaymentStatus = PaymentPaid
	}
	ve := shared.NewValidationError()
	if err := shared.ValidateStruct(ve, sale); err != nil {
		return Sale{}, err
	}
	if err := ve.Err(); err != nil {
		return Sale{}, err
	}
	sale.ID = ""
	sale.Recompute()

	updated, err := gw.UpdateSale(ctx, id, sale)
	if err != nil {
		return Sale{}, fmt.Errorf("update sale %s: %w", id, err)
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.UserID,
			Action:   "sale.update",
			Entity:   "sale",
			EntityID: id,
			Meta: map[string]any{
				"quantity":     sale.Quantity,
				"total_amount": sale.TotalAmount,
				"payment_mode": sale.PaymentMode,
			},
		}); err != nil {
			s.logger.Warn("audit sale update", slog.String("sale_id", id), slog.Any("error", err))
		}
	}
	return updated, nil
}
