package recipe

import (
	"context"

	"recipe-finder/internal/pkg/common"
)

// IngredientSource 建立食材索引所需的資料來源
type IngredientSource interface {
	ListIngredients(ctx context.Context) ([]common.Ingredient, error)
}

// RecipeRepository 搜尋所需的唯讀資料存取
type RecipeRepository interface {
	ListRecipes(ctx context.Context) ([]common.Recipe, error)
	LineItems(ctx context.Context) (map[int64][]common.RecipeIngredient, error)
	LineItemsFor(ctx context.Context, recipeIDs []int64) (map[int64][]common.RecipeIngredient, error)
	FavoriteRecipeIDs(ctx context.Context, userID int64) (map[int64]bool, error)
	RecipeBySlug(ctx context.Context, slug string) (*common.Recipe, error)
}

// RedirectRepository 改名與轉址所需的資料存取
type RedirectRepository interface {
	ListRecipes(ctx context.Context) ([]common.Recipe, error)
	RecipeBySlug(ctx context.Context, slug string) (*common.Recipe, error)
	ResolveRedirect(ctx context.Context, slug string) (*common.RecipeRedirect, error)
	RedirectsForRecipe(ctx context.Context, recipeID int64) ([]common.RecipeRedirect, error)
	ListRedirects(ctx context.Context) ([]common.RecipeRedirect, error)
	// RunInTx 在單一讀寫交易中執行 fn；fn 回傳錯誤時整筆捨棄
	RunInTx(ctx context.Context, fn func(tx RenameTx) error) error
}

// RenameTx 改名交易內可用的操作，讀取皆看得到同一交易先前的寫入
type RenameTx interface {
	RecipeBySlug(slug string) (*common.Recipe, error)
	RedirectByOldSlug(slug string) (*common.RecipeRedirect, error)
	HasRedirectTarget(slug string) (bool, error)
	RedirectsForRecipe(recipeID int64) ([]common.RecipeRedirect, error)
	// PutRedirect 寫入轉址；prevNewSlug 為原本指向的 slug（新增時為空字串）
	PutRedirect(r common.RecipeRedirect, prevNewSlug string) error
	// PutRecipe 寫入食譜並在 slug 改變時更新 slug 索引
	PutRecipe(r common.Recipe, prevSlug string) error
}
