package pos

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CartStore keeps one cart per session in Redis.
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartStore constructs the store.
func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

// Load returns the session's cart, empty if none was stored or it expired.
func (s *CartStore) Load(ctx context.Context, sessionID string) (Cart, error) {
	raw, err := s.client.Get(ctx, cartKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{}, nil
		}
		return Cart{}, err
	}
	var cart Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// Save stores the cart and refreshes its TTL. An empty cart is deleted.
func (s *CartStore) Save(ctx context.Context, sessionID string, cart Cart) error {
	if cart.Empty() {
		return s.Clear(ctx, sessionID)
	}
	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cartKey(sessionID), raw, s.ttl).Err()
}

// Clear removes the session's cart.
func (s *CartStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func cartKey(sessionID string) string {
	return "fruitline:cart:" + sessionID
}
