package common

import (
	"sort"
	"strings"
	"time"
)

// IngredientCategory 食材分類，只用於顯示排序
type IngredientCategory string

const (
	CategoryDry       IngredientCategory = "dry"
	CategoryWet       IngredientCategory = "wet"
	CategorySeasoning IngredientCategory = "seasoning"
	CategoryOther     IngredientCategory = "other"
)

// Rank 排序權重 dry < wet < seasoning < other
func (c IngredientCategory) Rank() int {
	switch c {
	case CategoryDry:
		return 1
	case CategoryWet:
		return 2
	case CategorySeasoning:
		return 3
	default:
		return 4
	}
}

// MessinessLevel 髒亂程度
type MessinessLevel string

const (
	MessinessClean    MessinessLevel = "clean"
	MessinessModerate MessinessLevel = "moderate"
	MessinessMessy    MessinessLevel = "messy"
)

// Valid 是否為已知的髒亂程度
func (m MessinessLevel) Valid() bool {
	switch m {
	case MessinessClean, MessinessModerate, MessinessMessy:
		return true
	}
	return false
}

// Ingredient 標準食材
type Ingredient struct {
	ID           int64              `json:"id" yaml:"id"`
	Name         string             `json:"name" yaml:"name"`
	Aliases      []string           `json:"aliases" yaml:"aliases"`
	Category     IngredientCategory `json:"category" yaml:"category"`
	DisplayOrder int                `json:"display_order" yaml:"display_order"`
	CreatedAt    time.Time          `json:"created_at" yaml:"-"`
}

// Recipe 食譜
type Recipe struct {
	ID                      int64              `json:"id"`
	Title                   string             `json:"title"`
	Slug                    string             `json:"slug"`
	Description             string             `json:"description,omitempty"`
	Instructions            string             `json:"instructions"`
	PrepTime                int                `json:"prep_time,omitempty"`
	CookTime                int                `json:"cook_time,omitempty"`
	TotalTime               int                `json:"total_time,omitempty"`
	Servings                int                `json:"servings,omitempty"`
	PortionsToddler         int                `json:"portions_toddler,omitempty"`
	IsFingerFood            bool               `json:"is_finger_food"`
	IsUtensilFood           bool               `json:"is_utensil_food"`
	MessinessLevel          MessinessLevel     `json:"messiness_level"`
	IsFreezerFriendly       bool               `json:"is_freezer_friendly"`
	IsFoodProcessorFriendly bool               `json:"is_food_processor_friendly"`
	StorageInstructions     string             `json:"storage_instructions,omitempty"`
	ReheatingInstructions   string             `json:"reheating_instructions,omitempty"`
	ImageURL                string             `json:"image_url,omitempty"`
	MetaDescription         string             `json:"meta_description,omitempty"`
	CreatedAt               time.Time          `json:"created_at"`
	UpdatedAt               time.Time          `json:"updated_at"`
	Ingredients             []RecipeIngredient `json:"ingredients"`
}

// RecipeIngredient 食譜與食材的關聯
type RecipeIngredient struct {
	RecipeID     int64       `json:"recipe_id"`
	IngredientID int64       `json:"ingredient_id"`
	Amount       string      `json:"amount,omitempty"`
	Unit         string      `json:"unit,omitempty"`
	Notes        string      `json:"notes,omitempty"`
	IsOptional   bool        `json:"is_optional"`
	Ingredient   *Ingredient `json:"ingredient,omitempty"`
}

// RecipeRedirect 舊 slug 到目前 slug 的永久轉址
type RecipeRedirect struct {
	OldSlug     string    `json:"old_slug"`
	NewSlug     string    `json:"new_slug"`
	RecipeID    int64     `json:"recipe_id"`
	RecipeTitle string    `json:"recipe_title,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SearchFilters 搜尋條件，nil/空值代表未啟用
type SearchFilters struct {
	IsFingerFood            bool             `json:"is_finger_food,omitempty"`
	IsUtensilFood           bool             `json:"is_utensil_food,omitempty"`
	MessinessLevel          []MessinessLevel `json:"messiness_level,omitempty"`
	IsFreezerFriendly       bool             `json:"is_freezer_friendly,omitempty"`
	IsFoodProcessorFriendly bool             `json:"is_food_processor_friendly,omitempty"`
	FavoritesOnly           bool             `json:"favorites_only,omitempty"`
}

// Active 是否有任何條件被啟用
func (f SearchFilters) Active() bool {
	return f.IsFingerFood || f.IsUtensilFood || len(f.MessinessLevel) > 0 ||
		f.IsFreezerFriendly || f.IsFoodProcessorFriendly || f.FavoritesOnly
}

// Key 產生穩定的快取鍵片段
func (f SearchFilters) Key() string {
	var sb strings.Builder
	flag := func(name string, on bool) {
		if on {
			sb.WriteString(name)
			sb.WriteByte(';')
		}
	}
	flag("finger", f.IsFingerFood)
	flag("utensil", f.IsUtensilFood)
	flag("freezer", f.IsFreezerFriendly)
	flag("processor", f.IsFoodProcessorFriendly)
	flag("favorites", f.FavoritesOnly)
	if len(f.MessinessLevel) > 0 {
		levels := make([]string, len(f.MessinessLevel))
		for i, l := range f.MessinessLevel {
			levels[i] = string(l)
		}
		sort.Strings(levels)
		sb.WriteString("mess=" + strings.Join(levels, ","))
	}
	return sb.String()
}
