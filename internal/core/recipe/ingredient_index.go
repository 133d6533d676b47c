package recipe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/metrics"
	"recipe-finder/internal/pkg/common"

	"github.com/agnivade/levenshtein"
	"github.com/hbollon/go-edlib"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	nameWeight  = 1.0
	aliasWeight = 0.8
)

// indexEntry 一筆已正規化的食材
type indexEntry struct {
	ingredient common.Ingredient
	name       string
	aliases    []string
}

// indexSnapshot 建好後不再變動
type indexSnapshot struct {
	entries []indexEntry
}

// IngredientIndex 食材模糊索引；第一次查詢時建立，之後重複使用直到 Rebuild
type IngredientIndex struct {
	source   IngredientSource
	cfg      config.IndexConfig
	snapshot atomic.Pointer[indexSnapshot]
	group    singleflight.Group
}

// NewIngredientIndex 建立索引（延遲建置）
func NewIngredientIndex(source IngredientSource, cfg config.IndexConfig) *IngredientIndex {
	return &IngredientIndex{source: source, cfg: cfg}
}

// Ready 索引是否已建立
func (x *IngredientIndex) Ready() bool {
	return x.snapshot.Load() != nil
}

// Query 以模糊比對查詢食材，最佳者在前
func (x *IngredientIndex) Query(ctx context.Context, q string) ([]IngredientSuggestion, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	if utf8.RuneCountInString(q) < x.cfg.MinQueryLength {
		return []IngredientSuggestion{}, nil
	}

	snap, err := x.ensure(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]IngredientSuggestion, 0, x.cfg.MaxResults)
	for _, e := range snap.entries {
		score, ok := x.scoreEntry(q, e)
		if !ok || score >= x.cfg.MaxScore {
			continue
		}
		results = append(results, IngredientSuggestion{
			ID:    e.ingredient.ID,
			Name:  e.ingredient.Name,
			Score: score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return strings.ToLower(results[i].Name) < strings.ToLower(results[j].Name)
	})
	if len(results) > x.cfg.MaxResults {
		results = results[:x.cfg.MaxResults]
	}
	return results, nil
}

// Rebuild 重新讀取食材並替換索引
func (x *IngredientIndex) Rebuild(ctx context.Context) (int, error) {
	v, err, _ := x.group.Do("rebuild", func() (interface{}, error) {
		snap, err := x.build(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		x.snapshot.Store(snap)
		return snap, nil
	})
	if err != nil {
		return 0, err
	}
	return len(v.(*indexSnapshot).entries), nil
}

// ensure 確保索引已建立，同時間的呼叫共用同一次建置
func (x *IngredientIndex) ensure(ctx context.Context) (*indexSnapshot, error) {
	if snap := x.snapshot.Load(); snap != nil {
		return snap, nil
	}

	v, err, _ := x.group.Do("build", func() (interface{}, error) {
		if snap := x.snapshot.Load(); snap != nil {
			return snap, nil
		}
		snap, err := x.build(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		x.snapshot.CompareAndSwap(nil, snap)
		return x.snapshot.Load(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*indexSnapshot), nil
}

func (x *IngredientIndex) build(ctx context.Context) (*indexSnapshot, error) {
	ingredients, err := x.source.ListIngredients(ctx)
	if err != nil {
		metrics.RecordIndexBuild(0, err)
		return nil, fmt.Errorf("failed to load ingredients: %w", err)
	}

	entries := make([]indexEntry, 0, len(ingredients))
	for _, ing := range ingredients {
		e := indexEntry{
			ingredient: ing,
			name:       strings.ToLower(strings.TrimSpace(ing.Name)),
		}
		for _, alias := range ing.Aliases {
			if a := strings.ToLower(strings.TrimSpace(alias)); a != "" {
				e.aliases = append(e.aliases, a)
			}
		}
		entries = append(entries, e)
	}

	metrics.RecordIndexBuild(len(entries), nil)
	common.LogInfo("食材索引已建立", zap.Int("ingredients", len(entries)))
	return &indexSnapshot{entries: entries}, nil
}

// scoreEntry 取名稱與別名中最佳的加權分數
func (x *IngredientIndex) scoreEntry(q string, e indexEntry) (float64, bool) {
	best, matched := 1.0, false

	if raw := fieldScore(q, e.name); raw <= x.cfg.MatchThreshold {
		best, matched = weighted(raw, nameWeight), true
	}
	for _, alias := range e.aliases {
		raw := fieldScore(q, alias)
		if raw > x.cfg.MatchThreshold {
			continue
		}
		if s := weighted(raw, aliasWeight); s < best {
			best, matched = s, true
		}
	}
	return best, matched
}

func weighted(raw, weight float64) float64 {
	return 1 - (1-raw)*weight
}

// fieldScore 0 為完全相同，1 為毫無關係
func fieldScore(q, value string) float64 {
	if value == "" {
		return 1
	}
	if q == value {
		return 0
	}

	qLen := float64(utf8.RuneCountInString(q))
	vLen := float64(utf8.RuneCountInString(value))
	best := 1.0

	// 部分字詞
	if strings.Contains(value, q) {
		best = 0.05 + 0.25*(1-qLen/vLen)
	}

	// 錯字：與整個值及其中每個字詞比較
	candidates := append([]string{value}, tokenize(value)...)
	for _, c := range candidates {
		if s := 1 - similarity(q, c); s < best {
			best = s
		}
	}

	// 縮寫式的子序列，例如 "chkn"
	if best > 0.1 && qLen <= vLen {
		if matches := fuzzy.Find(q, []string{value}); len(matches) > 0 {
			if s := 0.1 + 0.5*(1-qLen/vLen); s < best {
				best = s
			}
		}
	}
	return best
}

// similarity 取 Jaro-Winkler 與正規化 Levenshtein 較高者
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	jw := float64(edlib.JaroWinklerSimilarity(a, b))

	maxLen := utf8.RuneCountInString(a)
	if lb := utf8.RuneCountInString(b); lb > maxLen {
		maxLen = lb
	}
	lev := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)

	if jw > lev {
		return jw
	}
	return lev
}

func tokenize(s string) []string {
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == ',' || r == '/'
	})
	if len(tokens) == 1 {
		return nil
	}
	return tokens
}
