package repositories

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// DeviceTokenStore is the subset of UserRepository that manages push tokens.
type DeviceTokenStore interface {
	SetDeviceToken(ctx context.Context, userID, token string) error
	DeviceToken(ctx context.Context, userID string) (string, error)
	ForgetDeviceToken(ctx context.Context, userID, token string) error
}

// RedisTokenCache is a read-through Redis cache in front of a DeviceTokenStore.
// Redis errors are logged and the backing store is used instead; the store
// stays the source of truth.
type RedisTokenCache struct {
	client    *redis.Client
	store     DeviceTokenStore
	keyPrefix string
	ttl       time.Duration
}

// NewRedisTokenCache creates a cache over store.
func NewRedisTokenCache(client *redis.Client, store DeviceTokenStore, ttl time.Duration) *RedisTokenCache {
	return &RedisTokenCache{
		client:    client,
		store:     store,
		keyPrefix: "bazaar:device_token:",
		ttl:       ttl,
	}
}

// NewRedisClient parses redisURL and checks the connection.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (c *RedisTokenCache) key(userID string) string {
	return c.keyPrefix + userID
}

// DeviceToken returns the cached token, loading and caching it on a miss.
func (c *RedisTokenCache) DeviceToken(ctx context.Context, userID string) (string, error) {
	token, err := c.client.Get(ctx, c.key(userID)).Result()
	switch {
	case err == nil:
		return token, nil
	case !errors.Is(err, redis.Nil):
		log.Printf("Warning: device token cache read failed for user %s: %v", userID, err)
	}

	token, err = c.store.DeviceToken(ctx, userID)
	if err != nil {
		return "", err
	}
	if token != "" {
		if err := c.client.Set(ctx, c.key(userID), token, c.ttl).Err(); err != nil {
			log.Printf("Warning: device token cache write failed for user %s: %v", userID, err)
		}
	}
	return token, nil
}

// SetDeviceToken writes through to the store and refreshes the cache entry.
func (c *RedisTokenCache) SetDeviceToken(ctx context.Context, userID, token string) error {
	if err := c.store.SetDeviceToken(ctx, userID, token); err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(userID), token, c.ttl).Err(); err != nil {
		log.Printf("Warning: device token cache write failed for user %s: %v", userID, err)
		c.evict(ctx, userID)
	}
	return nil
}

// ForgetDeviceToken clears the token in the store and evicts the cache entry.
func (c *RedisTokenCache) ForgetDeviceToken(ctx context.Context, userID, token string) error {
	if err := c.store.ForgetDeviceToken(ctx, userID, token); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func (c *RedisTokenCache) evict(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		log.Printf("Warning: device token cache eviction failed for user %s: %v", userID, err)
	}
}
