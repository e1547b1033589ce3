package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lpg-backend/internal/config"
)

var client *redis.Client

// Init initializes the Redis connection. The backend degrades gracefully when
// Redis is unreachable: every helper below becomes a no-op miss.
func Init(cfg *config.Config) error {
	if cfg.Redis.Host == "" {
		return fmt.Errorf("redis not configured")
	}

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client (nil when degraded).
func GetClient() *redis.Client {
	return client
}

func outstandingKey(adminID, customerID int) string {
	return fmt.Sprintf("billing:outstanding:%d:%d", adminID, customerID)
}

// GetCustomerOutstanding returns the cached outstanding-balance JSON for a
// customer if present.
func GetCustomerOutstanding(ctx context.Context, adminID, customerID int) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, outstandingKey(adminID, customerID)).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// CacheCustomerOutstanding caches a customer's outstanding balance for 5 minutes.
func CacheCustomerOutstanding(ctx context.Context, adminID, customerID int, data []byte) {
	if client == nil {
		return
	}
	client.Set(ctx, outstandingKey(adminID, customerID), data, 5*time.Minute)
}

// InvalidateCustomerOutstanding drops the cached balance after any bill or
// payment mutation touching the customer.
func InvalidateCustomerOutstanding(ctx context.Context, adminID, customerID int) {
	if client == nil {
		return
	}
	client.Del(ctx, outstandingKey(adminID, customerID))
}
