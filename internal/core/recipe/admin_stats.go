package recipe

import (
	"context"
	"sort"

	"recipe-finder/internal/pkg/common"
)

const recentStatsLimit = 10

// Stats 食譜與轉址數量，以及最近的更新與轉址
func (s *RedirectService) Stats(ctx context.Context) (*AdminStats, error) {
	recipes, err := s.repo.ListRecipes(ctx)
	if err != nil {
		return nil, common.NewInternalError("failed to fetch admin statistics", err)
	}
	redirects, err := s.repo.ListRedirects(ctx)
	if err != nil {
		return nil, common.NewInternalError("failed to fetch admin statistics", err)
	}

	sort.SliceStable(recipes, func(i, j int) bool {
		return recipes[i].UpdatedAt.After(recipes[j].UpdatedAt)
	})

	stats := &AdminStats{
		TotalRecipes:    len(recipes),
		TotalRedirects:  len(redirects),
		RecentUpdates:   make([]RecentUpdate, 0, recentStatsLimit),
		RecentRedirects: redirects,
	}
	for i := 0; i < len(recipes) && i < recentStatsLimit; i++ {
		stats.RecentUpdates = append(stats.RecentUpdates, RecentUpdate{
			Title:     recipes[i].Title,
			Slug:      recipes[i].Slug,
			UpdatedAt: recipes[i].UpdatedAt,
		})
	}
	if len(stats.RecentRedirects) > recentStatsLimit {
		stats.RecentRedirects = stats.RecentRedirects[:recentStatsLimit]
	}
	if stats.RecentRedirects == nil {
		stats.RecentRedirects = []common.RecipeRedirect{}
	}
	return stats, nil
}
