package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestSubmissionGuard_AcquireRelease(t *testing.T) {
	client, mr := setupTestRedis(t)
	g := NewSubmissionGuard(client)
	ctx := context.Background()

	ok, err := g.Acquire(ctx, "u1", "form-1")
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if !mr.Exists("submit:u1:form-1") {
		t.Fatalf("expected key submit:u1:form-1")
	}
	if ttl := mr.TTL("submit:u1:form-1"); ttl != submissionTTL {
		t.Fatalf("ttl = %v, want %v", ttl, submissionTTL)
	}

	ok, err = g.Acquire(ctx, "u1", "form-1")
	if err != nil || ok {
		t.Fatalf("second acquire should fail: ok=%v err=%v", ok, err)
	}

	// Keys are scoped per user.
	if ok, _ := g.Acquire(ctx, "u2", "form-1"); !ok {
		t.Fatalf("other user should acquire the same key")
	}

	if err := g.Release(ctx, "u1", "form-1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if ok, _ := g.Acquire(ctx, "u1", "form-1"); !ok {
		t.Fatalf("acquire after release should succeed")
	}
}

func TestSubmissionGuard_Expiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	g := NewSubmissionGuard(client)
	ctx := context.Background()

	if ok, _ := g.Acquire(ctx, "u1", "k"); !ok {
		t.Fatalf("acquire failed")
	}
	mr.FastForward(submissionTTL + time.Second)
	if ok, _ := g.Acquire(ctx, "u1", "k"); !ok {
		t.Fatalf("acquire after expiry should succeed")
	}
}

func TestResetThrottle(t *testing.T) {
	client, mr := setupTestRedis(t)
	th := NewResetThrottle(client)
	ctx := context.Background()

	if ok, err := th.AllowReset(ctx, "Jane@Example.com"); err != nil || !ok {
		t.Fatalf("first reset: ok=%v err=%v", ok, err)
	}
	if ok, _ := th.AllowReset(ctx, "jane@example.com"); ok {
		t.Fatalf("second reset within a minute should be throttled")
	}

	mr.FastForward(resetThrottleTTL + time.Second)
	if ok, _ := th.AllowReset(ctx, "jane@example.com"); !ok {
		t.Fatalf("reset after window should be allowed")
	}
}

func TestResetThrottle_Unavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	th := NewResetThrottle(client)
	mr.Close()

	if _, err := th.AllowReset(context.Background(), "a@example.com"); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}
