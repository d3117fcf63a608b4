//go:build integration

// Package testutil provides helpers for tests that need a live Redis.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisAddr returns the address of the test Redis server, taken from
// ROUTEAUDIT_TEST_REDIS_ADDR, or "" when unset.
func RedisAddr() string {
	return os.Getenv("ROUTEAUDIT_TEST_REDIS_ADDR")
}

// SkipIfNoRedis skips the test if the test Redis server is not reachable.
func SkipIfNoRedis(t *testing.T) string {
	t.Helper()

	addr := RedisAddr()
	if addr == "" {
		t.Skip("test Redis not available: set ROUTEAUDIT_TEST_REDIS_ADDR")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("test Redis not reachable at %s: %v", addr, err)
	}
	return addr
}
