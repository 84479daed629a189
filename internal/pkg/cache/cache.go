package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rabbithole-social/rabbithole/internal/pkg/env"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// SetupCache connects to the Redis server named by CACHE_HOST/CACHE_PORT.
// A failed ping is logged but not fatal, the app degrades to uncached reads.
func SetupCache() {
	client = redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s",
			env.GetEnv("CACHE_HOST", "localhost"),
			env.GetEnv("CACHE_PORT", "6379")),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Printf("Warning: could not connect to Redis cache: %v", err)
	} else {
		log.Printf("Connected to Redis cache at %s", client.Options().Addr)
	}
}

// SetClient overrides the cache client; used by tests with miniredis.
func SetClient(c *redis.Client) {
	client = c
}

func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

func Set(key string, value interface{}, expiration time.Duration) error {
	return GetClient().Set(ctx, key, value, expiration).Err()
}

func Get(key string) (string, error) {
	return GetClient().Get(ctx, key).Result()
}

func GetInt(key string) (int, error) {
	return GetClient().Get(ctx, key).Int()
}

func Delete(key string) error {
	return GetClient().Del(ctx, key).Err()
}
