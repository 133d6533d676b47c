package recipe

import (
	"net/http"

	recipeService "recipe-finder/internal/core/recipe"

	"github.com/gin-gonic/gin"
)

// IngredientSuggestionsResponse 食材建議響應
type IngredientSuggestionsResponse struct {
	Ingredients []recipeService.IngredientSuggestion `json:"ingredients"`
}

// HandleIngredientSuggestions 食材名稱模糊建議，查詢失敗時回傳空陣列
func HandleIngredientSuggestions(ingredientService *recipeService.IngredientService) gin.HandlerFunc {
	return func(c *gin.Context) {
		suggestions := ingredientService.Suggest(c.Request.Context(), c.Query("q"))
		c.JSON(http.StatusOK, IngredientSuggestionsResponse{Ingredients: suggestions})
	}
}
