package recipe

import (
	"net/http"
	"net/url"

	recipeService "recipe-finder/internal/core/recipe"
	"recipe-finder/internal/metrics"
	"recipe-finder/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 食譜搜尋與公開頁面
type Handler struct {
	recipes   *recipeService.RecipeService
	redirects *recipeService.RedirectService
}

// NewHandler 創建新的食譜處理程序
func NewHandler(recipes *recipeService.RecipeService, redirects *recipeService.RedirectService) *Handler {
	return &Handler{
		recipes:   recipes,
		redirects: redirects,
	}
}

// HandleSearch 依食材與條件搜尋食譜
func (h *Handler) HandleSearch(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	req := recipeService.SearchRequest{
		Ingredients: queryTerms(c, "ingredients"),
		Filters:     filters,
		UserID:      userID(c),
		Limit:       queryInt(c, "limit"),
		Offset:      queryInt(c, "offset"),
	}

	result := h.recipes.Search(c.Request.Context(), req)
	if result.Degraded {
		common.LogWarn("搜尋結果降級",
			zap.String("request_id", common.RequestID(c)),
			zap.Strings("ingredients", req.Ingredients),
		)
	}

	c.JSON(http.StatusOK, result)
}

// HandleList 最新食譜分頁列表
func (h *Handler) HandleList(c *gin.Context) {
	result := h.recipes.List(c.Request.Context(), queryInt(c, "limit"), queryInt(c, "offset"))
	c.JSON(http.StatusOK, result)
}

// HandleRecipePage 以 slug 取得食譜，舊 slug 永久轉址到目前 slug
func (h *Handler) HandleRecipePage(c *gin.Context) {
	slug := c.Param("slug")
	ctx := c.Request.Context()

	r, err := h.recipes.Get(ctx, slug)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if r != nil {
		c.JSON(http.StatusOK, r)
		return
	}

	redirect, err := h.redirects.Resolve(ctx, slug)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if redirect == nil {
		common.RespondError(c, common.NewNotFoundError("Recipe not found"))
		return
	}

	target := "/recipes/" + url.PathEscape(redirect.NewSlug)
	if c.Request.URL.RawQuery != "" {
		target += "?" + c.Request.URL.RawQuery
	}
	metrics.RedirectsServed.Inc()
	common.LogInfo("舊 slug 轉址",
		zap.String("old_slug", slug),
		zap.String("new_slug", redirect.NewSlug),
	)
	c.Redirect(http.StatusMovedPermanently, target)
}

// HandleRedirectCheck 查詢 slug 是否為舊網址
func (h *Handler) HandleRedirectCheck(c *gin.Context) {
	check, err := h.redirects.Check(c.Request.Context(), c.Query("slug"))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}
