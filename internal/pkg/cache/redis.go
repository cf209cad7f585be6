package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

// DefaultRedisKey holds the snapshot when no key is configured.
const DefaultRedisKey = "ncaaf:gamelines"

// Redis shares the entry between replicas. The key carries a Redis TTL and
// captured_at is checked again on read so the injected clock decides expiry.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	clock  Clock
}

// NewRedisFromURL connects to a redis:// URL and checks the connection.
func NewRedisFromURL(url, key string, ttl time.Duration, clock Clock) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedis(client, key, ttl, clock), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, key string, ttl time.Duration, clock Clock) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	if clock == nil {
		clock = time.Now
	}
	return &Redis{client: client, key: key, ttl: ttl, clock: clock}
}

func (r *Redis) Get(ctx context.Context) (Entry, bool, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to get cache entry: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if !fresh(e, r.ttl, r.clock()) {
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (r *Redis) Put(ctx context.Context, cycleID string, snapshot models.Snapshot) error {
	if r.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(Entry{CapturedAt: r.clock(), CycleID: cycleID, Snapshot: snapshot})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	return r.client.Set(ctx, r.key, data, r.ttl).Err()
}

// Close closes the connection with Redis
func (r *Redis) Close() error {
	return r.client.Close()
}
