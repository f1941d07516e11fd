package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var (
	ErrCacheMiss   = errors.New("cache miss")
	ErrLockTimeout = errors.New("timed out waiting for lock")
)

const (
	trackingPrefix = "tracking:"
	lockPrefix     = "lock:order:"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type Client struct {
	rdb *redis.Client
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Tracking view cache
func (c *Client) SetTracking(ctx context.Context, orderNumber string, view interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal tracking view: %w", err)
	}
	return c.rdb.Set(ctx, trackingPrefix+orderNumber, jsonData, ttl).Err()
}

// SetTrackingIfAbsent only fills an empty slot so a reader never replaces a
// view written by a newer commit.
func (c *Client) SetTrackingIfAbsent(ctx context.Context, orderNumber string, view interface{}, ttl time.Duration) (bool, error) {
	jsonData, err := json.Marshal(view)
	if err != nil {
		return false, fmt.Errorf("failed to marshal tracking view: %w", err)
	}
	return c.rdb.SetNX(ctx, trackingPrefix+orderNumber, jsonData, ttl).Result()
}

func (c *Client) GetTracking(ctx context.Context, orderNumber string, dest interface{}) error {
	val, err := c.rdb.Get(ctx, trackingPrefix+orderNumber).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get tracking view: %w", err)
	}
	return json.Unmarshal(val, dest)
}

func (c *Client) DeleteTracking(ctx context.Context, orderNumber string) error {
	return c.rdb.Del(ctx, trackingPrefix+orderNumber).Err()
}

// OrderLock is a per-order mutex shared by every replica.
type OrderLock struct {
	client     *Client
	ttl        time.Duration
	retryDelay time.Duration
}

func NewOrderLock(client *Client, ttl time.Duration) *OrderLock {
	return &OrderLock{client: client, ttl: ttl, retryDelay: 25 * time.Millisecond}
}

// Lock blocks until the order's lock is acquired or ctx is done. The lock
// expires after ttl even if the holder dies.
func (l *OrderLock) Lock(ctx context.Context, orderNumber string) (func(), error) {
	key := lockPrefix + orderNumber
	token := uuid.NewString()

	for {
		ok, err := l.client.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire order lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, orderNumber)
		case <-time.After(l.retryDelay):
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		releaseScript.Run(releaseCtx, l.client.rdb, []string{key}, token)
	}, nil
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
