package storagetier

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Default timeouts for Redis operations.
const (
	DefaultRedisOpTimeout = 3 * time.Second

	redisScanBatch = 100
)

// RedisTier adapts a Redis client to the Tier contract, for deployments
// that embed the flow manager server-side and want flow state shared across
// instances. Expiry remains payload-driven: the store sweeps by the
// record's own expiresAt, so no Redis TTL is set.
type RedisTier struct {
	name      Name
	client    redis.UniversalClient
	opTimeout time.Duration
}

// NewRedisTier wraps client as a storage tier. An empty name defaults to
// Persistent; a zero opTimeout defaults to DefaultRedisOpTimeout.
func NewRedisTier(client redis.UniversalClient, name Name, opTimeout time.Duration) *RedisTier {
	if name == "" {
		name = Persistent
	}
	if opTimeout <= 0 {
		opTimeout = DefaultRedisOpTimeout
	}
	return &RedisTier{name: name, client: client, opTimeout: opTimeout}
}

// Name implements Tier.
func (r *RedisTier) Name() Name {
	return r.name
}

func (r *RedisTier) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.opTimeout)
}

// SetItem implements Tier.
func (r *RedisTier) SetItem(key, value string) error {
	ctx, cancel := r.opContext()
	defer cancel()

	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return errors.Wrap(err, "[RedisTier.SetItem] set")
	}
	return nil
}

// GetItem implements Tier.
func (r *RedisTier) GetItem(key string) (string, bool, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	value, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "[RedisTier.GetItem] get")
	}
	return value, true, nil
}

// RemoveItem implements Tier.
func (r *RedisTier) RemoveItem(key string) error {
	ctx, cancel := r.opContext()
	defer cancel()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, "[RedisTier.RemoveItem] del")
	}
	return nil
}

// Keys implements Tier. Uses SCAN rather than KEYS to stay friendly to
// shared Redis deployments.
func (r *RedisTier) Keys(prefix string) ([]string, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	var keys []string
	iter := r.client.Scan(ctx, 0, prefix+"*", redisScanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "[RedisTier.Keys] scan")
	}
	return keys, nil
}

// Available implements Tier. Probes connectivity with a ping.
func (r *RedisTier) Available() bool {
	if r.client == nil {
		return false
	}
	ctx, cancel := r.opContext()
	defer cancel()

	return r.client.Ping(ctx).Err() == nil
}
