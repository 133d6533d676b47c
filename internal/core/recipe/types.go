package recipe

import (
	"time"

	"recipe-finder/internal/pkg/common"
)

// SearchRequest 食材搜尋請求
type SearchRequest struct {
	Ingredients []string
	Filters     common.SearchFilters
	// UserID 為 0 代表未登入，favorites_only 不生效
	UserID int64
	Limit  int
	Offset int
}

// SearchResult 搜尋結果
type SearchResult struct {
	Recipes       []common.Recipe `json:"recipes"`
	AlmostMatches []common.Recipe `json:"almost_matches"`
	TotalCount    int             `json:"total_count"`
	HasMore       bool            `json:"has_more"`
	// Degraded 資料庫讀取失敗時以空結果或空明細回應，不寫入快取
	Degraded bool `json:"-"`
}

func emptyResult() *SearchResult {
	return &SearchResult{
		Recipes:       []common.Recipe{},
		AlmostMatches: []common.Recipe{},
	}
}

// IngredientSuggestion 食材建議
type IngredientSuggestion struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"-"`
}

// RenameRequest 改名請求
type RenameRequest struct {
	CurrentSlug string
	Title       string
	Slug        string
}

// RenameResult 改名結果
type RenameResult struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Slug            string  `json:"slug"`
	RedirectCreated bool    `json:"redirectCreated"`
	OldSlug         *string `json:"oldSlug"`
}

// RedirectCheck 轉址檢查結果
type RedirectCheck struct {
	Redirect bool   `json:"redirect"`
	OldSlug  string `json:"oldSlug,omitempty"`
	NewSlug  string `json:"newSlug,omitempty"`
	Slug     string `json:"slug,omitempty"`
}

// RecipeDetail 管理端食譜詳情
type RecipeDetail struct {
	Recipe    common.Recipe           `json:"recipe"`
	Redirects []common.RecipeRedirect `json:"redirects"`
}

// AdminStats 管理端統計
type AdminStats struct {
	TotalRecipes    int                     `json:"totalRecipes"`
	TotalRedirects  int                     `json:"totalRedirects"`
	RecentUpdates   []RecentUpdate          `json:"recentUpdates"`
	RecentRedirects []common.RecipeRedirect `json:"recentRedirects"`
}

// RecentUpdate 最近更新的食譜
type RecentUpdate struct {
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	UpdatedAt time.Time `json:"updated_at"`
}
