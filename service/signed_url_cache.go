package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/config"
	"github.com/redis/go-redis/v9"
)

const signedURLKeyPrefix = "vault:signed_url:"

// SignedURLCache 缓存签名地址，避免同一对象在有效期内重复签名
type SignedURLCache interface {
	Get(ctx context.Context, objectPath string) (string, bool, error)
	Set(ctx context.Context, objectPath, signedURL string) error
	// MaxAge 是条目在缓存中最长的存活时间
	MaxAge() time.Duration
}

type RedisSignedURLCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisSignedURLCache redis 未启用时返回 nil
func NewRedisSignedURLCache() *RedisSignedURLCache {
	if config.RedisClient == nil {
		return nil
	}
	ttl := 50 * time.Minute
	if config.AppConfig != nil && config.AppConfig.Redis.SignedURLTTLSeconds > 0 {
		ttl = time.Duration(config.AppConfig.Redis.SignedURLTTLSeconds) * time.Second
	}
	return &RedisSignedURLCache{Client: config.RedisClient, TTL: ttl}
}

func (c *RedisSignedURLCache) MaxAge() time.Duration {
	if c == nil {
		return 0
	}
	return c.TTL
}

func (c *RedisSignedURLCache) Get(ctx context.Context, objectPath string) (string, bool, error) {
	if c == nil || c.Client == nil {
		return "", false, nil
	}
	value, err := c.Client.Get(ctx, signedURLKeyPrefix+objectPath).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get signed url from redis failed: %w", err)
	}
	return value, true, nil
}

func (c *RedisSignedURLCache) Set(ctx context.Context, objectPath, signedURL string) error {
	if c == nil || c.Client == nil {
		return nil
	}
	if err := c.Client.Set(ctx, signedURLKeyPrefix+objectPath, signedURL, c.TTL).Err(); err != nil {
		return fmt.Errorf("set signed url to redis failed: %w", err)
	}
	return nil
}
