package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CheckAndCountRateLimit counts a hit against a fixed window for the given
// caller/action pair and reports whether the caller is still within the
// limit. A nil client disables limiting.
func CheckAndCountRateLimit(ctx context.Context, rdb *redis.Client, caller, action string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return true, nil
	}

	key := fmt.Sprintf("rate_limit:%s:%s", action, caller)

	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	if count == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= int64(limit), nil
}

// ClearRateLimit resets the caller's window, used by tests and admin paths.
func ClearRateLimit(ctx context.Context, rdb *redis.Client, caller, action string) error {
	if rdb == nil {
		return nil
	}
	key := fmt.Sprintf("rate_limit:%s:%s", action, caller)
	_, err := rdb.Del(ctx, key).Result()
	return err
}
