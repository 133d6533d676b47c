package admin

import (
	"net/http"

	"recipe-finder/internal/core/recipe"
	"recipe-finder/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UpdateRecipeRequest 食譜改名請求，slug 省略時由標題產生
type UpdateRecipeRequest struct {
	Title string `json:"title" binding:"required,max=200"`
	Slug  string `json:"slug" binding:"omitempty,max=200,slug"`
}

// UpdateRecipeResponse 改名響應
type UpdateRecipeResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Data    *recipe.RenameResult `json:"data"`
}

// RecipeDetailResponse 管理端食譜詳情
type RecipeDetailResponse struct {
	Success bool                 `json:"success"`
	Data    *recipe.RecipeDetail `json:"data"`
}

// RedirectListResponse 轉址列表
type RedirectListResponse struct {
	Redirects []common.RecipeRedirect `json:"redirects"`
	Total     int                     `json:"total"`
}

// ReindexResponse 重建索引結果
type ReindexResponse struct {
	Status      string `json:"status"`
	Ingredients int    `json:"ingredients"`
}

// Handler 管理端處理程序
type Handler struct {
	redirectService   *recipe.RedirectService
	ingredientService *recipe.IngredientService
}

// NewHandler 創建管理端處理程序
func NewHandler(redirectService *recipe.RedirectService, ingredientService *recipe.IngredientService) *Handler {
	return &Handler{
		redirectService:   redirectService,
		ingredientService: ingredientService,
	}
}

// HandleUpdateRecipe 改名並保留舊網址
func (h *Handler) HandleUpdateRecipe(c *gin.Context) {
	requestID := common.RequestID(c)
	currentSlug := c.Param("slug")
	if currentSlug == "" {
		common.RespondError(c, common.NewValidationError("Slug parameter is required"))
		return
	}

	var req UpdateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		common.RespondError(c, bindingError(err))
		return
	}

	result, err := h.redirectService.Rename(c.Request.Context(), recipe.RenameRequest{
		CurrentSlug: currentSlug,
		Title:       req.Title,
		Slug:        req.Slug,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.LogInfo("食譜已更新",
		zap.String("request_id", requestID),
		zap.Int64("recipe_id", result.ID),
		zap.String("slug", result.Slug),
		zap.Bool("redirect_created", result.RedirectCreated),
	)

	c.JSON(http.StatusOK, UpdateRecipeResponse{
		Success: true,
		Message: "Recipe updated successfully",
		Data:    result,
	})
}

// HandleGetRecipe 食譜與其轉址
func (h *Handler) HandleGetRecipe(c *gin.Context) {
	detail, err := h.redirectService.Detail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, RecipeDetailResponse{Success: true, Data: detail})
}

// HandleListRedirects 所有轉址
func (h *Handler) HandleListRedirects(c *gin.Context) {
	redirects, err := h.redirectService.ListRedirects(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if redirects == nil {
		redirects = []common.RecipeRedirect{}
	}
	c.JSON(http.StatusOK, RedirectListResponse{Redirects: redirects, Total: len(redirects)})
}

// HandleStats 管理端統計
func (h *Handler) HandleStats(c *gin.Context) {
	stats, err := h.redirectService.Stats(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HandleReindex 重建食材模糊索引
func (h *Handler) HandleReindex(c *gin.Context) {
	count, err := h.ingredientService.Reindex(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.LogInfo("食材索引已重建", zap.Int("ingredients", count))
	c.JSON(http.StatusOK, ReindexResponse{Status: "ok", Ingredients: count})
}
