package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adriajofre19/nidees-artplastic/internal/domain"
	apperrors "github.com/adriajofre19/nidees-artplastic/pkg/errors"
)

const (
	keyPrefix      = "cart:"
	guardKeyPrefix = "checkout:inflight:"
)

// saveIfVersionScript performs a compare-and-set on the cart's version field.
// KEYS[1] = cart key, ARGV[1] = expected version, ARGV[2] = new cart JSON,
// ARGV[3] = TTL in milliseconds. Returns 1 on success, 0 on version conflict.
var saveIfVersionScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
local expected = tonumber(ARGV[1])
if current == false then
	if expected ~= 0 then
		return 0
	end
else
	local cart = cjson.decode(current)
	if cart.version ~= expected then
		return 0
	end
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// CartRepository implements repository.CartRepository using Redis, with the
// checkout in-flight guard alongside.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository creates a new Redis-backed cart repository.
func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cart by session ID from Redis.
func (r *CartRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	key := keyPrefix + sessionID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("cart", sessionID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	return &cart, nil
}

// Save persists a cart to Redis with the configured TTL.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	key := keyPrefix + cart.SessionID

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}

	return nil
}

// SaveIfVersion atomically persists the cart if the stored version still
// matches expectedVersion (0 when the cart must not exist yet). The version
// is incremented as part of the write. Returns false on a version conflict.
func (r *CartRepository) SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error) {
	key := keyPrefix + cart.SessionID

	next := *cart
	next.Version = expectedVersion + 1

	data, err := json.Marshal(&next)
	if err != nil {
		return false, fmt.Errorf("marshal cart: %w", err)
	}

	res, err := saveIfVersionScript.Run(ctx, r.client,
		[]string{key},
		expectedVersion, string(data), r.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis cas cart: %w", err)
	}
	if res == 0 {
		return false, nil
	}

	cart.Version = next.Version
	return true, nil
}

// Delete removes a cart from Redis by session ID.
func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	key := keyPrefix + sessionID

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}

	return nil
}

// Acquire claims the checkout in-flight slot for the session via SETNX.
// Returns false if a submission is already pending.
func (r *CartRepository) Acquire(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	key := guardKeyPrefix + sessionID

	ok, err := r.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx checkout guard: %w", err)
	}

	return ok, nil
}

// Release frees the checkout in-flight slot. Releasing an unclaimed slot is a no-op.
func (r *CartRepository) Release(ctx context.Context, sessionID string) error {
	key := guardKeyPrefix + sessionID

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del checkout guard: %w", err)
	}

	return nil
}
