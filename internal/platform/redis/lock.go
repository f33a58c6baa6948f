package redis

import (
	"context"
	"time"
)

// TryLock acquires a best-effort lease on key for ttl. Returns false when
// another holder has it. Used by the scheduler so horizontally scaled
// replicas don't sweep concurrently; the sweep itself stays idempotent, so
// a lost or expired lease is a performance matter, not a correctness one.
func (c *Client) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.SetNX(ctx, key, "1", ttl).Result()
}

// Unlock releases the lease.
func (c *Client) Unlock(ctx context.Context, key string) error {
	return c.Del(ctx, key).Err()
}
