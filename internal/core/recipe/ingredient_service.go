package recipe

import (
	"context"

	"recipe-finder/internal/metrics"
	"recipe-finder/internal/pkg/common"

	"go.uber.org/zap"
)

// IngredientService 食材建議服務
type IngredientService struct {
	index *IngredientIndex
}

// NewIngredientService 創建新的食材建議服務
func NewIngredientService(index *IngredientIndex) *IngredientService {
	return &IngredientService{index: index}
}

// Suggest 回傳模糊比對的食材建議；索引無法建立時回傳空列表
func (s *IngredientService) Suggest(ctx context.Context, q string) []IngredientSuggestion {
	results, err := s.index.Query(ctx, q)
	if err != nil {
		metrics.SearchDegraded.WithLabelValues("suggest").Inc()
		common.LogDegraded("ingredient_suggest", err, zap.String("q", q))
		return []IngredientSuggestion{}
	}
	return results
}

// Reindex 重建食材索引
func (s *IngredientService) Reindex(ctx context.Context) (int, error) {
	count, err := s.index.Rebuild(ctx)
	if err != nil {
		return 0, common.NewInternalError("failed to rebuild ingredient index", err)
	}
	common.LogInfo("食材索引已重建", zap.Int("ingredients", count))
	return count, nil
}
