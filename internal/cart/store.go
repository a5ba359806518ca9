// AngelaMos | 2026
// store.go

package cart

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/storefront/internal/core"
)

const MaxQuantity = 99

// Item is one cart line as stored: a product and how many of it.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Store keeps each user's cart as a redis hash of product id to quantity.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func cartKey(userID string) string {
	return core.RedisKey("cart", userID)
}

func (s *Store) Items(ctx context.Context, userID string) ([]Item, error) {
	raw, err := s.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}

	items := make([]Item, 0, len(raw))
	for productID, v := range raw {
		qty, err := strconv.Atoi(v)
		if err != nil || qty <= 0 {
			continue
		}
		items = append(items, Item{ProductID: productID, Quantity: qty})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].ProductID < items[j].ProductID
	})
	return items, nil
}

// SetQuantity replaces the quantity of a line. Zero removes it.
func (s *Store) SetQuantity(
	ctx context.Context,
	userID, productID string,
	quantity int,
) error {
	if quantity < 0 || quantity > MaxQuantity {
		return fmt.Errorf("set cart quantity %d: %w", quantity, core.ErrInvalidInput)
	}

	key := cartKey(userID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if quantity == 0 {
			pipe.HDel(ctx, key, productID)
		} else {
			pipe.HSet(ctx, key, productID, quantity)
		}
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
