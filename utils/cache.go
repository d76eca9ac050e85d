// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"villamar/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CheckoutCacheClient holds in-flight checkout sessions.
	CheckoutCacheClient *redis.Client
	// LockCacheClient is the dedicated client for per-session execution locks.
	LockCacheClient *redis.Client
)

// InitCheckoutCache initializes the Redis client backing checkout sessions.
func InitCheckoutCache() {
	CheckoutCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCheckoutDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := CheckoutCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Checkout): %v", err)
	}
}

// GetCheckoutCacheClient returns the checkout session client.
func GetCheckoutCacheClient() *redis.Client {
	if CheckoutCacheClient == nil {
		InitCheckoutCache()
	}
	return CheckoutCacheClient
}

// InitLockCache initializes the Redis client used for execution locks.
func InitLockCache() {
	LockCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisLockDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := LockCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Locks): %v", err)
	}
}

// GetLockCacheClient returns the Redis client for execution locks.
func GetLockCacheClient() *redis.Client {
	if LockCacheClient == nil {
		InitLockCache()
	}
	return LockCacheClient
}

// InitRedis eagerly initializes all Redis clients at startup.
func InitRedis() {
	InitCheckoutCache()
	InitLockCache()
}
