//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/go-redis/redis/v8"
)

// SeedRedis loads a JSON seed file into a specific Redis database.
// The JSON format is: { "TABLE": { "key": { "field": "value", ... }, ... }, ... }
// Each entry becomes a Redis hash at key "TABLE|key" with the given fields.
func SeedRedis(t *testing.T, addr string, db int, seedFile string) {
	t.Helper()

	data, err := os.ReadFile(seedFile)
	if err != nil {
		t.Fatalf("reading seed file %s: %v", seedFile, err)
	}

	var tables map[string]map[string]map[string]string
	if err := json.Unmarshal(data, &tables); err != nil {
		t.Fatalf("parsing seed file %s: %v", seedFile, err)
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	defer client.Close()

	ctx := context.Background()

	for table, entries := range tables {
		for key, fields := range entries {
			redisKey := table + "|" + key
			args := make([]interface{}, 0, len(fields)*2)
			for k, v := range fields {
				args = append(args, k, v)
			}
			if len(args) == 0 {
				args = append(args, "NULL", "NULL")
			}
			if err := client.HSet(ctx, redisKey, args...).Err(); err != nil {
				t.Fatalf("seeding %s: %v", redisKey, err)
			}
		}
	}
}

// FlushDB flushes a specific Redis database.
func FlushDB(t *testing.T, addr string, db int) {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	defer client.Close()

	if err := client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flushing DB %d: %v", db, err)
	}
}
