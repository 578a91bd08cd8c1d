package pos

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/shared"
)

// Service owns the cart lifecycle of one session.
type Service struct {
	store    *CartStore
	checkout *Checkout
	logger   *slog.Logger
}

// NewService constructs the POS service.
func NewService(store *CartStore, checkout *Checkout, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, checkout: checkout, logger: logger}
}

// View returns the session's cart.
func (s *Service) View(ctx context.Context, sessionID string) (CartView, error) {
	cart, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return CartView{}, fmt.Errorf("load cart: %w", err)
	}
	return cart.View(), nil
}

// Add puts qty of a product in the cart using a fresh product snapshot.
func (s *Service) Add(ctx context.Context, gw Gateway, sessionID, productID string, qty int) (CartView, error) {
	products, err := gw.ListProducts(ctx)
	if err != nil {
		return CartView{}, fmt.Errorf("list products: %w", err)
	}
	idx := -1
	for i := range products {
		if products[i].ID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return CartView{}, fmt.Errorf("%w: product %s", httpx.ErrNotFound, productID)
	}
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		return c.Add(products[idx], qty)
	})
}

// Decrement lowers a line by one.
func (s *Service) Decrement(ctx context.Context, sessionID, productID string) (CartView, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		return c.Decrement(productID)
	})
}

// SetQuantity replaces a line's quantity.
func (s *Service) SetQuantity(ctx context.Context, sessionID, productID string, qty int) (CartView, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		return c.SetQuantity(productID, qty)
	})
}

// Remove drops a line.
func (s *Service) Remove(ctx context.Context, sessionID, productID string) (CartView, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		return c.Remove(productID)
	})
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.store.Clear(ctx, sessionID)
}

// Checkout submits the cart and clears it on success.
func (s *Service) Checkout(ctx context.Context, gw Gateway, actor shared.Principal, sessionID string, req CheckoutRequest, key string) (Receipt, error) {
	cart, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return Receipt{}, fmt.Errorf("load cart: %w", err)
	}
	receipt, err := s.checkout.Run(ctx, gw, actor, cart, req, key)
	if err != nil {
		return Receipt{}, err
	}
	if err := s.store.Clear(context.WithoutCancel(ctx), sessionID); err != nil {
		s.logger.Warn("clear cart after checkout", slog.Any("error", err))
	}
	return receipt, nil
}

func (s *Service) mutate(ctx context.Context, sessionID string, fn func(*Cart) error) (CartView, error) {
	cart, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return CartView{}, fmt.Errorf("load cart: %w", err)
	}
	if err := fn(&cart); err != nil {
		return CartView{}, err
	}
	if err := s.store.Save(ctx, sessionID, cart); err != nil {
		return CartView{}, fmt.Errorf("save cart: %w", err)
	}
	return cart.View(), nil
}
