package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // Cached values are stored as JSON
	"errors"        // Miss detection
	"fmt"           // Error wrapping
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// decodeCached turns a Redis reply into dest. A miss reports found=false with no error;
// a value that is present but unreadable reports found=true with the decode error.
func decodeCached(key string, val string, err error, dest any) (bool, error) {
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cache %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return true, fmt.Errorf("decode cache %s: %w", key, err)
	}
	return true, nil
}

// GetCache loads the JSON value stored under key into dest
func GetCache(ctx context.Context, rdb redis.Cmdable, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result()
	return decodeCached(key, val, err, dest)
}

// SetCache stores value as JSON under key for ttl
func SetCache(ctx context.Context, rdb redis.Cmdable, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", key, err)
	}
	return rdb.Set(ctx, key, payload, ttl).Err()
}

// GetCacheField loads one field of a cached hash into dest
func GetCacheField(ctx context.Context, rdb redis.Cmdable, key, field string, dest any) (bool, error) {
	val, err := rdb.HGet(ctx, key, field).Result()
	return decodeCached(key+"#"+field, val, err, dest)
}

// SetCacheField stores one field of a hash; the TTL applies to the whole hash so a
// single DeleteCache drops every variant cached under key
func SetCacheField(ctx context.Context, rdb redis.Cmdable, key, field string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache %s#%s: %w", key, field, err)
	}
	pipe := rdb.TxPipeline()
	pipe.HSet(ctx, key, field, payload)
	pipe.Expire(ctx, key, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// DeleteCache drops key and everything stored under it
func DeleteCache(ctx context.Context, rdb redis.Cmdable, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}
