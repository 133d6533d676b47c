package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"

	"go.uber.org/zap"
)

// Cache 搜尋結果快取；Get 未命中時回傳 common.ErrCacheMiss
type Cache interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
	// Purge 清除整個命名空間
	Purge(ctx context.Context, namespace string) error
	Close() error
}

// New 依設定建立快取；停用時回傳 nil
func New(cfg *config.Config) (Cache, error) {
	if !cfg.Cache.Enabled {
		common.LogInfo("Cache disabled")
		return nil, nil
	}

	switch cfg.Cache.Backend {
	case "redis":
		svc, err := NewService(&cfg.Cache)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return NewManager(cfg), nil
	}
}

// hashString 計算字符串的 SHA-256 哈希值
func hashString(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}

func entryKey(namespace, key string) string {
	return namespace + ":" + hashString(key)
}

// Purge 清除命名空間，快取為 nil 時不做事
func Purge(ctx context.Context, c Cache, namespace string) {
	if c == nil {
		return
	}
	if err := c.Purge(ctx, namespace); err != nil {
		common.LogWarn("快取清除失敗",
			zap.String("namespace", namespace),
			zap.Error(err),
		)
	}
}
