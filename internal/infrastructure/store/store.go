// Package store 以 BadgerDB 保存食材、食譜、食譜食材、轉址與收藏。
//
// 鍵空間仿照關聯式資料表，每種資料一個前綴，並以額外的索引鍵提供唯一性與 O(1) 查詢：
//
//	ingredient:{id}                          食材
//	ingredient_name:{lower(name)}            名稱唯一索引 -> id
//	recipe:{id}                              食譜（不含食材明細）
//	recipe_slug:{slug}                       slug 唯一索引 -> id
//	recipe_ingredient:{recipe_id}:{ing_id}   食譜食材明細
//	redirect:{old_slug}                      轉址
//	redirect_recipe:{recipe_id}:{old_slug}   每個食譜的轉址列表
//	redirect_target:{new_slug}:{old_slug}    依目標 slug 查轉址
//	favorite:{user_id}:{recipe_id}           收藏
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	ingredientPrefix       = "ingredient:"
	ingredientNamePrefix   = "ingredient_name:"
	recipePrefix           = "recipe:"
	recipeSlugPrefix       = "recipe_slug:"
	recipeIngredientPrefix = "recipe_ingredient:"
	redirectPrefix         = "redirect:"
	redirectRecipePrefix   = "redirect_recipe:"
	redirectTargetPrefix   = "redirect_target:"
	favoritePrefix         = "favorite:"

	ingredientSeqKey = "seq:ingredient"
	recipeSeqKey     = "seq:recipe"

	// 樂觀交易衝突時的最大重試次數
	maxTxnAttempts = 3
)

var (
	// ErrDuplicate 唯一鍵已存在
	ErrDuplicate = errors.New("duplicate key")
	// ErrClosed 資料庫已關閉
	ErrClosed = errors.New("store is closed")
)

// Store BadgerDB 儲存實例
type Store struct {
	db       *badger.DB
	stopGC   chan struct{}
	stopOnce sync.Once
}

// Open 開啟資料庫
func Open(cfg config.StoreConfig) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		opts = badger.DefaultOptions(absPath)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	s := &Store{db: db, stopGC: make(chan struct{})}
	if !cfg.InMemory && cfg.GCInterval > 0 {
		s.startGCRoutine(cfg.GCInterval)
	}

	common.LogInfo("BadgerDB opened",
		zap.Bool("in_memory", cfg.InMemory),
		zap.String("path", cfg.Path),
	)
	return s, nil
}

// OpenInMemory 開啟記憶體資料庫，供測試與工具使用
func OpenInMemory() (*Store, error) {
	return Open(config.StoreConfig{InMemory: true})
}

// Close 關閉資料庫
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopGC) })
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping 確認資料庫可用
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

// startGCRoutine 定期執行 value log GC
func (s *Store) startGCRoutine(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopGC:
				return
			case <-ticker.C:
				if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
					common.LogError("BadgerDB GC error", zap.Error(err))
				}
			}
		}
	}()
	common.LogInfo("Started BadgerDB GC routine", zap.Duration("interval", interval))
}

// view 執行唯讀交易
func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return ErrClosed
	}
	return s.db.View(fn)
}

// update 執行讀寫交易，遇到 badger.ErrConflict 時整筆重跑
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 1; attempt <= maxTxnAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if s.db.IsClosed() {
			return ErrClosed
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		common.LogWarn("交易衝突，重試",
			zap.Int("attempt", attempt),
		)
	}
	return fmt.Errorf("transaction aborted after %d attempts: %w", maxTxnAttempts, err)
}

// getJSON 讀取並解析 JSON 值；鍵不存在時回傳 (false, nil)
func getJSON(txn *badger.Txn, key string, v interface{}) (bool, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	}); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// setJSON 序列化並寫入
func setJSON(txn *badger.Txn, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := txn.Set([]byte(key), data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// getID 讀取索引鍵指向的 id
func getID(txn *badger.Txn, key string) (int64, bool, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get %s: %w", key, err)
	}
	var id int64
	err = item.Value(func(val []byte) error {
		id, err = strconv.ParseInt(string(val), 10, 64)
		return err
	})
	if err != nil {
		return 0, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return id, true, nil
}

func setID(txn *badger.Txn, key string, id int64) error {
	return txn.Set([]byte(key), []byte(strconv.FormatInt(id, 10)))
}

// nextID 在同一交易中遞增序號
func nextID(txn *badger.Txn, seqKey string) (int64, error) {
	current, _, err := getID(txn, seqKey)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := setID(txn, seqKey, next); err != nil {
		return 0, fmt.Errorf("set %s: %w", seqKey, err)
	}
	return next, nil
}

// iteratePrefix 逐一處理前綴下的鍵值
func iteratePrefix(txn *badger.Txn, prefix string, fn func(key, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)
		if err := item.Value(func(val []byte) error {
			return fn(key, val)
		}); err != nil {
			return err
		}
	}
	return nil
}

// listKeys 只列出鍵，不讀值
func listKeys(txn *badger.Txn, prefix string) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys []string
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, string(it.Item().Key()))
	}
	return keys, nil
}

func idKey(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}
