package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/ghuser/budgetly/pkg/config"
)

func newTestConfig(url string) *config.Config {
	return &config.Config{
		RedisURL: url,
	}
}

func TestNewRedisClient_EmptyURLIsDisabled(t *testing.T) {
	for _, url := range []string{"", "   "} {
		rc, err := NewRedisClient(context.Background(), newTestConfig(url))
		if !errors.Is(err, ErrDisabled) {
			t.Fatalf("url %q: expected ErrDisabled, got %v", url, err)
		}
		if rc != nil {
			t.Fatalf("url %q: expected nil client", url)
		}
	}
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), newTestConfig("not-a-valid-url"))
	if err == nil {
		t.Fatal("expected error for invalid URL, got nil")
	}
	if errors.Is(err, ErrDisabled) {
		t.Fatal("a malformed URL must not be reported as disabled")
	}
}

// An unreachable cache fails within the connect timeout rather than
// holding up notifier startup.
func TestNewRedisClient_UnreachableHostFailsFast(t *testing.T) {
	start := time.Now()
	_, err := NewRedisClient(context.Background(), newTestConfig("redis://localhost:19999"))
	if err == nil {
		t.Fatal("expected error when Redis is unreachable, got nil")
	}
	if elapsed := time.Since(start); elapsed > 2*connectTimeout {
		t.Fatalf("connect took %s", elapsed)
	}
}

func TestRedisClient_CloseNil(t *testing.T) {
	var rc *RedisClient
	if err := rc.Close(); err != nil {
		t.Fatalf("Close on nil client: %v", err)
	}
}

// Integration tests, skipped unless REDIS_URL is set.
func TestRedisIntegration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set; skipping integration tests")
	}

	rc, err := NewRedisClient(context.Background(), newTestConfig(redisURL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close() //nolint:errcheck

	if err := rc.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	opts := rc.Client().Options()
	if opts.PoolSize != 4 || opts.MaxRetries != 1 {
		t.Fatalf("unexpected pool settings: size=%d retries=%d", opts.PoolSize, opts.MaxRetries)
	}
}
