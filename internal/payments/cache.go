package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/paydesk/internal/models"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "paydesk:payment:"

// DefaultCacheTTL is how long a cached payment is served without a source read.
const DefaultCacheTTL = 5 * time.Minute

// NewRedisClient connects to the redis URL and checks it answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// CachedSource is a read-through redis cache in front of another Source.
// Unknown references are not cached. Cache failures fall back to the source.
type CachedSource struct {
	next   Source
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedSource wraps next with a redis cache. ttl <= 0 uses DefaultCacheTTL.
func NewCachedSource(next Source, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *CachedSource) GetPayment(ctx context.Context, reference string) (*models.Payment, error) {
	key := cacheKeyPrefix + reference

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p models.Payment
		jsonErr := json.Unmarshal(raw, &p)
		if jsonErr == nil {
			return &p, nil
		}
		c.logger.Warn("discarding corrupt cached payment", "reference", reference, "error", jsonErr)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("payment cache read failed", "reference", reference, "error", err)
	}

	payment, err := c.next.GetPayment(ctx, reference)
	if err != nil || payment == nil {
		return payment, err
	}

	if encoded, err := json.Marshal(payment); err == nil {
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.Warn("payment cache write failed", "reference", reference, "error", err)
		}
	}
	return payment, nil
}

// Invalidate drops cached entries for the given references.
func (c *CachedSource) Invalidate(ctx context.Context, references ...string) error {
	if len(references) == 0 {
		return nil
	}
	keys := make([]string, len(references))
	for i, ref := range references {
		keys[i] = cacheKeyPrefix + ref
	}
	return c.client.Del(ctx, keys...).Err()
}
