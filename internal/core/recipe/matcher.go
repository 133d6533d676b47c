package recipe

import (
	"sort"
	"strings"

	"recipe-finder/internal/pkg/common"
)

// NormalizeTerms 去除空白、轉小寫、去重，保留原本順序
func NormalizeTerms(raw []string) []string {
	terms := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		terms = append(terms, t)
	}
	return terms
}

// ingredientMatcher 每個請求編譯一次的食材比對條件：
// 食材名稱（小寫）包含某個搜尋詞即視為符合
type ingredientMatcher struct {
	terms []string
}

func compileMatcher(terms []string) *ingredientMatcher {
	return &ingredientMatcher{terms: terms}
}

// covering 標記符合此食材名稱的搜尋詞，回傳是否有任一符合
func (m *ingredientMatcher) covering(name string, hit []bool) bool {
	name = strings.ToLower(name)
	found := false
	for i, t := range m.terms {
		if strings.Contains(name, t) {
			hit[i] = true
			found = true
		}
	}
	return found
}

// matchStats 單一食譜的比對結果
type matchStats struct {
	required     int
	matched      int
	termsCovered bool
}

func (s matchStats) missing() int {
	return s.required - s.matched
}

// exact 必需食材全部被搜尋詞涵蓋，且每個搜尋詞都對應到至少一項必需食材
func (s matchStats) exact() bool {
	return s.required > 0 && s.matched == s.required && s.termsCovered
}

func (m *ingredientMatcher) evaluate(items []common.RecipeIngredient, excludeOptional bool) matchStats {
	var stats matchStats
	hit := make([]bool, len(m.terms))

	// 同一食材重複出現只算一次
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if item.Ingredient == nil || seen[item.IngredientID] {
			continue
		}
		if excludeOptional && item.IsOptional {
			continue
		}
		seen[item.IngredientID] = true
		stats.required++
		if m.covering(item.Ingredient.Name, hit) {
			stats.matched++
		}
	}

	stats.termsCovered = true
	for _, h := range hit {
		if !h {
			stats.termsCovered = false
			break
		}
	}
	return stats
}

// FilterSet 套用搜尋條件（AND）
type FilterSet struct {
	filters   common.SearchFilters
	favorites map[int64]bool
	// favorites_only 需要使用者身分才生效
	favoritesActive bool
}

// NewFilterSet userID 為 0 時 favorites_only 不生效
func NewFilterSet(filters common.SearchFilters, favorites map[int64]bool, userID int64) FilterSet {
	return FilterSet{
		filters:         filters,
		favorites:       favorites,
		favoritesActive: filters.FavoritesOnly && userID > 0,
	}
}

func (f FilterSet) allows(r common.Recipe) bool {
	fl := f.filters

	// 手抓與餐具任一符合即可
	switch {
	case fl.IsFingerFood && fl.IsUtensilFood:
		if !r.IsFingerFood && !r.IsUtensilFood {
			return false
		}
	case fl.IsFingerFood:
		if !r.IsFingerFood {
			return false
		}
	case fl.IsUtensilFood:
		if !r.IsUtensilFood {
			return false
		}
	}

	if len(fl.MessinessLevel) > 0 {
		found := false
		for _, level := range fl.MessinessLevel {
			if r.MessinessLevel == level {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if fl.IsFreezerFriendly && !r.IsFreezerFriendly {
		return false
	}
	if fl.IsFoodProcessorFriendly && !r.IsFoodProcessorFriendly {
		return false
	}
	if f.favoritesActive && !f.favorites[r.ID] {
		return false
	}
	return true
}

// MatchEngine 計算完全符合與差一點符合的食譜
type MatchEngine struct {
	excludeOptional bool
	almostLimit     int
}

// NewMatchEngine excludeOptional 為 true 時選用食材不列入必需食材
func NewMatchEngine(excludeOptional bool, almostLimit int) *MatchEngine {
	return &MatchEngine{excludeOptional: excludeOptional, almostLimit: almostLimit}
}

type scoredRecipe struct {
	recipe common.Recipe
	stats  matchStats
}

// Match 回傳 (exact, almost)，兩者互斥；terms 需先經 NormalizeTerms
func (e *MatchEngine) Match(recipes []common.Recipe, lineItems map[int64][]common.RecipeIngredient, terms []string, filters FilterSet) ([]common.Recipe, []common.Recipe) {
	matcher := compileMatcher(terms)
	allowAlmost := len(terms) >= 2
	minMatched := len(terms) - 1
	if minMatched < 1 {
		minMatched = 1
	}

	var exact, almost []scoredRecipe
	for _, r := range recipes {
		if !filters.allows(r) {
			continue
		}
		stats := matcher.evaluate(lineItems[r.ID], e.excludeOptional)
		switch {
		case stats.exact():
			exact = append(exact, scoredRecipe{recipe: r, stats: stats})
		case allowAlmost && stats.matched >= minMatched && stats.missing() >= 1 && stats.missing() <= 2:
			almost = append(almost, scoredRecipe{recipe: r, stats: stats})
		}
	}

	sort.SliceStable(almost, func(i, j int) bool {
		a, b := almost[i], almost[j]
		if a.stats.missing() != b.stats.missing() {
			return a.stats.missing() < b.stats.missing()
		}
		if a.stats.matched != b.stats.matched {
			return a.stats.matched > b.stats.matched
		}
		return newerFirst(a.recipe, b.recipe)
	})
	if len(almost) > e.almostLimit {
		almost = almost[:e.almostLimit]
	}

	almostRecipes := make([]common.Recipe, 0, len(almost))
	almostIDs := make(map[int64]bool, len(almost))
	for _, s := range almost {
		almostRecipes = append(almostRecipes, s.recipe)
		almostIDs[s.recipe.ID] = true
	}

	exactRecipes := make([]common.Recipe, 0, len(exact))
	for _, s := range exact {
		if !almostIDs[s.recipe.ID] {
			exactRecipes = append(exactRecipes, s.recipe)
		}
	}
	sortByRecency(exactRecipes)

	return exactRecipes, almostRecipes
}

// Filter 只套用搜尋條件，依新舊排序
func (e *MatchEngine) Filter(recipes []common.Recipe, filters FilterSet) []common.Recipe {
	out := make([]common.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if filters.allows(r) {
			out = append(out, r)
		}
	}
	sortByRecency(out)
	return out
}

func newerFirst(a, b common.Recipe) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func sortByRecency(recipes []common.Recipe) {
	sort.SliceStable(recipes, func(i, j int) bool {
		return newerFirst(recipes[i], recipes[j])
	})
}
