package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/homestead/marketplace-api/internal/core/domain"
)

const (
	submissionTTL    = 10 * time.Minute
	resetThrottleTTL = time.Minute
)

// SubmissionGuard rejects a repeated listing submission while the first one
// is in flight or within submissionTTL of its success.
// Key format: submit:<user_id>:<idempotency_key>
type SubmissionGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSubmissionGuard(client *redis.Client) *SubmissionGuard {
	return &SubmissionGuard{client: client, ttl: submissionTTL}
}

// Acquire reports whether the caller now owns the key.
func (g *SubmissionGuard) Acquire(ctx context.Context, userID, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, submitKey(userID, key), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("submission guard: %w", err)
	}
	return ok, nil
}

func (g *SubmissionGuard) Release(ctx context.Context, userID, key string) error {
	return g.client.Del(ctx, submitKey(userID, key)).Err()
}

func submitKey(userID, key string) string {
	return fmt.Sprintf("submit:%s:%s", userID, key)
}

// ResetThrottle allows one password-reset email per address per minute.
// Key format: reset:<email>
type ResetThrottle struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResetThrottle(client *redis.Client) *ResetThrottle {
	return &ResetThrottle{client: client, ttl: resetThrottleTTL}
}

func (t *ResetThrottle) AllowReset(ctx context.Context, email string) (bool, error) {
	ok, err := t.client.SetNX(ctx, "reset:"+domain.NormalizeEmail(email), "1", t.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reset throttle: %w", err)
	}
	return ok, nil
}
