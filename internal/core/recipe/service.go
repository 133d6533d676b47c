package recipe

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"recipe-finder/internal/core/cache"
	"recipe-finder/internal/pkg/common"

	"go.uber.org/zap"
)

const searchCacheNamespace = "search"

// Service 食譜服務共用的快取存取，快取為 nil 時全部略過
type Service struct {
	cache cache.Cache
	// generation 每次清除後遞增，舊世代的寫入不會再被讀到
	generation atomic.Uint64
}

// NewService 創建新的食譜服務基礎結構
func NewService(c cache.Cache) *Service {
	return &Service{cache: c}
}

// getCacheKey 生成緩存鍵
func (s *Service) getCacheKey(prefix string, data string) string {
	return fmt.Sprintf("%s:%s", prefix, data)
}

// getFromCache 從緩存獲取數據
func (s *Service) getFromCache(ctx context.Context, namespace, key string) (string, bool) {
	if s == nil || s.cache == nil {
		return "", false
	}
	value, err := s.cache.Get(ctx, namespace, key)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("讀取快取失敗", zap.String("namespace", namespace), zap.Error(err))
		}
		return "", false
	}
	return value, true
}

// setToCache 將數據存入緩存，失敗只記錄
func (s *Service) setToCache(ctx context.Context, namespace, key, value string) {
	if s == nil || s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, namespace, key, value); err != nil {
		common.LogWarn("寫入快取失敗", zap.String("namespace", namespace), zap.Error(err))
	}
}

// cacheGeneration 目前快取世代
func (s *Service) cacheGeneration() uint64 {
	if s == nil {
		return 0
	}
	return s.generation.Load()
}

// purgeCache 先遞增世代再清除命名空間
func (s *Service) purgeCache(ctx context.Context, namespace string) {
	if s == nil {
		return
	}
	s.generation.Add(1)
	cache.Purge(ctx, s.cache, namespace)
}
