// internal/domain/cart/redis_store.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 5

// RedisStore keeps each cart in a hash keyed by product ID and publishes
// a snapshot after every mutation
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new Redis backed cart store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

func eventsChannel(userID string) string {
	return fmt.Sprintf("cart:events:%s", userID)
}

// Get retrieves the cart lines for a user
func (s *RedisStore) Get(ctx context.Context, userID string) ([]CartItem, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	fields, err := s.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user cart: %w", err)
	}
	return decodeLines(userID, fields)
}

// Add creates the line or increments its quantity
func (s *RedisStore) Add(ctx context.Context, userID string, item CartItem) error {
	if err := validateAdd(userID, item); err != nil {
		return err
	}

	key := cartKey(userID)
	err := s.atomically(ctx, key, func(tx *redis.Tx) error {
		now := time.Now().UTC()
		line := item
		line.ID = 0
		line.UserID = userID
		line.CreatedAt = now

		existing, err := s.readLine(ctx, tx, key, item.ProductID)
		if err != nil && !errors.Is(err, ErrItemNotFound) {
			return err
		}
		if existing != nil {
			line.Quantity += existing.Quantity
			line.CreatedAt = existing.CreatedAt
		}
		line.UpdatedAt = now

		return s.writeLine(ctx, tx, key, line)
	})
	if err != nil {
		return fmt.Errorf("failed to add item to cart: %w", err)
	}

	s.publish(ctx, userID)
	return nil
}

// Update sets the quantity of an existing line
func (s *RedisStore) Update(ctx context.Context, userID, productID string, quantity int) error {
	if err := validateLine(userID, productID); err != nil {
		return err
	}
	if quantity <= 0 {
		return s.Remove(ctx, userID, productID)
	}

	key := cartKey(userID)
	err := s.atomically(ctx, key, func(tx *redis.Tx) error {
		line, err := s.readLine(ctx, tx, key, productID)
		if err != nil {
			return err
		}
		line.Quantity = quantity
		line.UpdatedAt = time.Now().UTC()
		return s.writeLine(ctx, tx, key, *line)
	})
	if errors.Is(err, ErrItemNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}

	s.publish(ctx, userID)
	return nil
}

// Remove deletes a line; removing an absent line is not an error
func (s *RedisStore) Remove(ctx context.Context, userID, productID string) error {
	if err := validateLine(userID, productID); err != nil {
		return err
	}

	if err := s.client.HDel(ctx, cartKey(userID), productID).Err(); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	s.publish(ctx, userID)
	return nil
}

// Clear removes all lines for a user
func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUserID
	}

	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	s.publish(ctx, userID)
	return nil
}

// Watch streams the current cart and then every later snapshot until ctx is done
func (s *RedisStore) Watch(ctx context.Context, userID string) (<-chan []CartItem, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	pubsub := s.client.Subscribe(ctx, eventsChannel(userID))
	// Wait for confirmation so no mutation slips between the snapshot and the subscription
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to cart events: %w", err)
	}

	initial, err := s.Get(ctx, userID)
	if err != nil {
		pubsub.Close()
		return nil, err
	}

	out := make(chan []CartItem, 1)
	out <- initial

	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var items []CartItem
				if err := json.Unmarshal([]byte(msg.Payload), &items); err != nil {
					continue
				}
				select {
				case out <- items:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// atomically runs fn under WATCH and retries when another writer touched the key
func (s *RedisStore) atomically(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, fn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("cart %s: too many concurrent updates", key)
}

func (s *RedisStore) readLine(ctx context.Context, tx *redis.Tx, key, productID string) (*CartItem, error) {
	raw, err := tx.HGet(ctx, key, productID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}

	var line CartItem
	if err := json.Unmarshal([]byte(raw), &line); err != nil {
		return nil, fmt.Errorf("corrupt cart line %s: %w", productID, err)
	}
	return &line, nil
}

func (s *RedisStore) writeLine(ctx context.Context, tx *redis.Tx, key string, line CartItem) error {
	data, err := json.Marshal(line)
	if err != nil {
		return err
	}

	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, line.ProductID, data)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	return err
}

// publish is best effort; watchers resync on their next event
func (s *RedisStore) publish(ctx context.Context, userID string) {
	items, err := s.Get(ctx, userID)
	if err != nil {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	s.client.Publish(ctx, eventsChannel(userID), data)
}

func decodeLines(userID string, fields map[string]string) ([]CartItem, error) {
	items := make([]CartItem, 0, len(fields))
	for productID, raw := range fields {
		var line CartItem
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			return nil, fmt.Errorf("corrupt cart line %s: %w", productID, err)
		}
		line.UserID = userID
		line.ProductID = productID
		items = append(items, line)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ProductID < items[j].ProductID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}
