package recipe

import (
	"context"
	"strconv"
	"strings"
	"time"

	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/metrics"
	"recipe-finder/internal/pkg/common"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// RecipeService 食材搜尋服務
// --------------------------------------------------
type RecipeService struct {
	*Service
	repo      RecipeRepository
	engine    *MatchEngine
	assembler *ResultAssembler
	cfg       config.SearchConfig
}

// NewRecipeService 創建新的食材搜尋服務
func NewRecipeService(base *Service, repo RecipeRepository, cfg config.SearchConfig) *RecipeService {
	return &RecipeService{
		Service:   base,
		repo:      repo,
		engine:    NewMatchEngine(cfg.ExcludeOptional, cfg.AlmostMatchLimit),
		assembler: NewResultAssembler(repo),
		cfg:       cfg,
	}
}

// NormalizePage limit 預設值並限制在 [1, max]，offset 最小為 0
func (s *RecipeService) NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Search 依食材與條件搜尋；資料庫失敗時回傳標記為 Degraded 的空結果
func (s *RecipeService) Search(ctx context.Context, req SearchRequest) *SearchResult {
	start := time.Now()
	defer func() { metrics.SearchDuration.Observe(time.Since(start).Seconds()) }()

	terms := NormalizeTerms(req.Ingredients)
	limit, offset := s.NormalizePage(req.Limit, req.Offset)

	cacheKey := s.searchCacheKey(terms, req.Filters, req.UserID, limit, offset)
	if cached, ok := s.getFromCache(ctx, searchCacheNamespace, cacheKey); ok {
		var result SearchResult
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return &result
		}
	}

	result, err := s.search(ctx, terms, req.Filters, req.UserID, limit, offset)
	if err != nil {
		metrics.SearchDegraded.WithLabelValues("search").Inc()
		common.LogDegraded("recipe_search", err,
			zap.Strings("ingredients", terms),
			zap.String("filters", req.Filters.Key()),
		)
		degraded := emptyResult()
		degraded.Degraded = true
		return degraded
	}

	// 食材明細降級的結果不寫入快取
	if result.Degraded {
		metrics.SearchDegraded.WithLabelValues("line_items").Inc()
		return result
	}

	if data, err := json.Marshal(result); err == nil {
		s.setToCache(ctx, searchCacheNamespace, cacheKey, string(data))
	}
	return result
}

// List 最新食譜列表
func (s *RecipeService) List(ctx context.Context, limit, offset int) *SearchResult {
	return s.Search(ctx, SearchRequest{Limit: limit, Offset: offset})
}

func (s *RecipeService) search(ctx context.Context, terms []string, filters common.SearchFilters, userID int64, limit, offset int) (*SearchResult, error) {
	recipes, err := s.repo.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}

	var favorites map[int64]bool
	if filters.FavoritesOnly && userID > 0 {
		favorites, err = s.repo.FavoriteRecipeIDs(ctx, userID)
		if err != nil {
			return nil, err
		}
	}
	fs := NewFilterSet(filters, favorites, userID)

	if len(terms) == 0 {
		path := "fast"
		if filters.Active() {
			path = "filtered"
		}
		metrics.SearchRequests.WithLabelValues(path).Inc()

		matching := s.engine.Filter(recipes, fs)
		page := paginate(matching, limit, offset)
		return s.assembler.Assemble(ctx, page, nil, len(matching), offset), nil
	}

	metrics.SearchRequests.WithLabelValues("match").Inc()
	lineItems, err := s.repo.LineItems(ctx)
	if err != nil {
		return nil, err
	}

	exact, almost := s.engine.Match(recipes, lineItems, terms, fs)
	page := paginate(exact, limit, offset)

	common.LogDebug("食材搜尋完成",
		zap.Strings("ingredients", terms),
		zap.Int("exact", len(exact)),
		zap.Int("almost", len(almost)),
	)
	return s.assembler.Assemble(ctx, page, almost, len(exact), offset), nil
}

// Get 依目前 slug 取得含食材明細的食譜；不存在時回傳 (nil, nil)
func (s *RecipeService) Get(ctx context.Context, slug string) (*common.Recipe, error) {
	r, err := s.repo.RecipeBySlug(ctx, slug)
	if err != nil {
		return nil, common.NewInternalError("failed to load recipe", err)
	}
	if r == nil {
		return nil, nil
	}
	enriched, _ := s.assembler.attachLineItems(ctx, []common.Recipe{*r})
	return &enriched[0], nil
}

// InvalidateSearchCache 清除搜尋快取
func (s *RecipeService) InvalidateSearchCache(ctx context.Context) {
	s.purgeCache(ctx, searchCacheNamespace)
}

func (s *RecipeService) searchCacheKey(terms []string, filters common.SearchFilters, userID int64, limit, offset int) string {
	parts := []string{
		strings.Join(terms, ","),
		filters.Key(),
		strconv.FormatInt(userID, 10),
		strconv.Itoa(limit),
		strconv.Itoa(offset),
		// 世代不同的鍵互不相見，清除前開始的搜尋寫不回新世代
		"g" + strconv.FormatUint(s.cacheGeneration(), 10),
	}
	return s.getCacheKey("recipes", strings.Join(parts, "|"))
}
