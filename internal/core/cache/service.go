package cache

import (
	"context"
	"errors"
	"fmt"

	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/metrics"
	"recipe-finder/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "recipe-finder:"

// Service Redis 快取服務
type Service struct {
	client *redis.Client
	config *config.CacheConfig
}

// NewService 創建 Redis 快取服務
func NewService(cfg *config.CacheConfig) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newServiceWithClient(client, cfg), nil
}

func newServiceWithClient(client *redis.Client, cfg *config.CacheConfig) *Service {
	return &Service{
		client: client,
		config: cfg,
	}
}

// Get 獲取緩存
func (s *Service) Get(ctx context.Context, namespace, key string) (string, error) {
	data, err := s.client.Get(ctx, s.generateKey(namespace, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheLookups.WithLabelValues(namespace, "miss").Inc()
			common.LogCacheMiss(namespace)
			return "", common.ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}

	metrics.CacheLookups.WithLabelValues(namespace, "hit").Inc()
	common.LogCacheHit(namespace)
	return data, nil
}

// Set 設置緩存
func (s *Service) Set(ctx context.Context, namespace, key, value string) error {
	if err := s.client.Set(ctx, s.generateKey(namespace, key), value, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Purge 以 SCAN 刪除命名空間下所有鍵
func (s *Service) Purge(ctx context.Context, namespace string) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+namespace+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

// Close 關閉連線
func (s *Service) Close() error {
	return s.client.Close()
}

// generateKey 生成緩存鍵
func (s *Service) generateKey(namespace, key string) string {
	return redisKeyPrefix + entryKey(namespace, key)
}
