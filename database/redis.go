package database

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis opens the Redis client used for session persistence.
// Redis being down is not fatal: the session layer degrades to cache
// misses, so this only logs and returns the client either way.
func ConnectRedis() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  Redis not reachable at %s: %v (sessions will not persist)", addr, err)
	} else {
		log.Println("✅ Redis connected successfully!")
	}

	return rdb
}
