package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/atm-simulator/internal/logger"
)

// PINAttemptCacheRepository counts failed PIN entries per account number in Redis
type PINAttemptCacheRepository struct {
	client *redis.Client
	exp    time.Duration // lockout window, refreshed on every failure
}

// NewPINAttemptCacheRepository creates a new repository instance
func NewPINAttemptCacheRepository(client *redis.Client, expiration time.Duration) *PINAttemptCacheRepository {
	return &PINAttemptCacheRepository{
		client: client,
		exp:    expiration,
	}
}

func pinAttemptKey(accountNumber string) string {
	return fmt.Sprintf("pin_attempts:%s", accountNumber)
}

// GetFailedAttempts returns the current number of failed attempts.
func (r *PINAttemptCacheRepository) GetFailedAttempts(ctx context.Context, accountNumber string) (int64, error) {
	key := pinAttemptKey(accountNumber)

	n, err := r.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		n, err = 0, nil
	}

	logger.Log.Infow(
		"key", key,
		"result", n,
		"error", err,
	)

	return n, err
}

// IncrementFailedAttempts records one more failure and returns the new count.
func (r *PINAttemptCacheRepository) IncrementFailedAttempts(ctx context.Context, accountNumber string) (int64, error) {
	key := pinAttemptKey(accountNumber)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, r.exp)
		return nil
	})

	var n int64
	if err == nil {
		n = incr.Val()
	}

	logger.Log.Infow(
		"key", key,
		"result", n,
		"error", err,
	)

	return n, err
}

// ResetFailedAttempts clears the counter after a successful login.
func (r *PINAttemptCacheRepository) ResetFailedAttempts(ctx context.Context, accountNumber string) error {
	key := pinAttemptKey(accountNumber)
	err := r.client.Del(ctx, key).Err()

	logger.Log.Infow(
		"key", key,
		"result", "deleted",
		"error", err,
	)

	return err
}
