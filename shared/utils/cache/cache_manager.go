package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"pressgrid-backend/shared/config"
)

// CacheManager wraps the Redis client behind a small get/set/delete surface.
// The client is injected at construction so tests can point it at an
// in-memory server; nothing in here is a process-wide singleton.
type CacheManager struct {
	client *redis.Client
}

var (
	// DefaultTTL bounds read-through entries. Invalidation-on-write is the
	// primary consistency mechanism; TTL expiry is the backstop.
	DefaultTTL = 10 * time.Minute

	// APIKeySnapshotTTL bounds how stale an organization-by-key snapshot
	// may be after a plan change.
	APIKeySnapshotTTL = 5 * time.Minute

	// opTimeout caps every round-trip to Redis.
	opTimeout = 2 * time.Second
)

// NewCacheManager creates a cache manager around an existing Redis client
func NewCacheManager(client *redis.Client) *CacheManager {
	return &CacheManager{client: client}
}

// NewRedisClient builds a Redis client from the shared configuration
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	redisDB, err := strconv.Atoi(cfg.RedisDB)
	if err != nil {
		log.Printf("❌ Invalid Redis DB number: %s, using default 0", cfg.RedisDB)
		redisDB = 0
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       redisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	log.Printf("✅ Redis connected - %s:%s DB:%d", cfg.RedisHost, cfg.RedisPort, redisDB)
	return client, nil
}

// Cache key templates. Tenant-scoped data is always namespaced by
// organization id so two organizations sharing a slug never collide.

// APIKeyLookupKey caches the organization snapshot behind a bearer token
func APIKeyLookupKey(token string) string {
	return fmt.Sprintf("org:apikey:%s", token)
}

// PostKey caches one post detail view
func PostKey(orgID uuid.UUID, slug string) string {
	return fmt.Sprintf("post:%s:%s", orgID, slug)
}

// FeaturedPostsKey caches the featured posts listing
func FeaturedPostsKey(orgID uuid.UUID) string {
	return fmt.Sprintf("featured_posts:%s", orgID)
}

// CategoriesKey caches the category listing
func CategoriesKey(orgID uuid.UUID) string {
	return fmt.Sprintf("categories:%s", orgID)
}

// CategoryKey caches one category detail view
func CategoryKey(orgID uuid.UUID, slug string) string {
	return fmt.Sprintf("category:%s:%s", orgID, slug)
}

// PostCommentsKey caches a post's comment listing
func PostCommentsKey(postID uuid.UUID) string {
	return fmt.Sprintf("post_comments:%s", postID)
}

// GetJSON loads and unmarshals a cached entry into dest. A missing key,
// a Redis error or a corrupt entry all report a miss. Cache trouble must
// never surface as a request failure on the read path.
func (cm *CacheManager) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if cm == nil || cm.client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	result, err := cm.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("❌ Cache read error for %s: %v", key, err)
		}
		return false
	}

	if err := json.Unmarshal([]byte(result), dest); err != nil {
		log.Printf("❌ Failed to unmarshal cache entry %s: %v", key, err)
		return false
	}

	return true
}

// SetJSON marshals value and stores it under key with the given TTL
func (cm *CacheManager) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if cm == nil || cm.client == nil {
		return fmt.Errorf("cache manager not initialized")
	}

	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := cm.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %v", err)
	}

	return nil
}

// Delete removes the given keys. Used by the invalidation discipline; a
// failed delete is an error the mutation path must see before it responds.
func (cm *CacheManager) Delete(ctx context.Context, keys ...string) error {
	if cm == nil || cm.client == nil {
		return fmt.Errorf("cache manager not initialized")
	}
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := cm.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %v", err)
	}

	log.Printf("🗑️  Cache invalidated: %d key(s)", len(keys))
	return nil
}

// Publish sends a message on a Redis channel (quota alerts)
func (cm *CacheManager) Publish(ctx context.Context, channel string, payload interface{}) error {
	if cm == nil || cm.client == nil {
		return fmt.Errorf("cache manager not initialized")
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal alert payload: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return cm.client.Publish(ctx, channel, jsonData).Err()
}

// Subscribe opens a subscription on a Redis channel
func (cm *CacheManager) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return cm.client.Subscribe(ctx, channel)
}

// Close closes the underlying Redis connection
func (cm *CacheManager) Close() error {
	if cm != nil && cm.client != nil {
		return cm.client.Close()
	}
	return nil
}
