package recipe

import (
	"context"
	"sort"
	"strings"

	"recipe-finder/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ResultAssembler 附上食材明細並計算分頁資訊
type ResultAssembler struct {
	repo RecipeRepository
}

// NewResultAssembler 創建結果組裝器
func NewResultAssembler(repo RecipeRepository) *ResultAssembler {
	return &ResultAssembler{repo: repo}
}

// Assemble page 為已分頁的完全符合結果，total 為分頁前的總數
// 任一組明細查詢失敗時結果標記為 Degraded
func (a *ResultAssembler) Assemble(ctx context.Context, page, almost []common.Recipe, total, offset int) *SearchResult {
	result := &SearchResult{TotalCount: total}
	var pageDegraded, almostDegraded bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result.Recipes, pageDegraded = a.attachLineItems(gctx, page)
		return nil
	})
	g.Go(func() error {
		result.AlmostMatches, almostDegraded = a.attachLineItems(gctx, almost)
		return nil
	})
	_ = g.Wait()

	result.Degraded = pageDegraded || almostDegraded
	result.HasMore = offset+len(result.Recipes) < total
	return result
}

// attachLineItems 查詢失敗時每個食譜得到空列表，並回傳 true
func (a *ResultAssembler) attachLineItems(ctx context.Context, recipes []common.Recipe) ([]common.Recipe, bool) {
	out := make([]common.Recipe, len(recipes))
	copy(out, recipes)
	if len(out) == 0 {
		return out, false
	}

	ids := make([]int64, len(out))
	for i, r := range out {
		ids[i] = r.ID
	}

	// 查詢明細
	items, err := a.repo.LineItemsFor(ctx, ids)
	degraded := err != nil
	if degraded {
		common.LogDegraded("recipe_line_items", err, zap.Int("recipes", len(ids)))
		items = nil
	}

	for i := range out {
		list := make([]common.RecipeIngredient, 0, len(items[out[i].ID]))
		list = append(list, items[out[i].ID]...)
		sortLineItems(list)
		out[i].Ingredients = list
	}
	return out, degraded
}

// sortLineItems 必需在前，其次分類 dry<wet<seasoning<other、display_order、名稱
func sortLineItems(items []common.RecipeIngredient) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.IsOptional != b.IsOptional {
			return !a.IsOptional
		}
		ai, bi := ingredientOf(a), ingredientOf(b)
		if ai.Category.Rank() != bi.Category.Rank() {
			return ai.Category.Rank() < bi.Category.Rank()
		}
		if ai.DisplayOrder != bi.DisplayOrder {
			return ai.DisplayOrder < bi.DisplayOrder
		}
		return strings.ToLower(ai.Name) < strings.ToLower(bi.Name)
	})
}

func ingredientOf(item common.RecipeIngredient) common.Ingredient {
	if item.Ingredient == nil {
		return common.Ingredient{}
	}
	return *item.Ingredient
}

// paginate 依 limit/offset 切出一頁
func paginate(recipes []common.Recipe, limit, offset int) []common.Recipe {
	if offset >= len(recipes) {
		return []common.Recipe{}
	}
	end := offset + limit
	if end > len(recipes) {
		end = len(recipes)
	}
	return recipes[offset:end]
}
