package recipe

import (
	"strconv"
	"strings"

	"recipe-finder/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// userIDHeader 由前端閘道帶入的使用者 ID，只用於 favorites_only
const userIDHeader = "X-User-ID"

// splitTerms 以逗號切割並去除空白
func splitTerms(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// queryTerms 同時接受 ?ingredients=a,b 與重複的 ?ingredients=a&ingredients=b
func queryTerms(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		out = append(out, splitTerms(v)...)
	}
	return out
}

// queryBool 只有明確的 true/1 才算啟用
func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return err == nil && v
}

// queryInt 無法解析時回傳 0，交由服務層套用預設值
func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return v
}

// parseFilters 解析搜尋條件
func parseFilters(c *gin.Context) (common.SearchFilters, error) {
	filters := common.SearchFilters{
		IsFingerFood:            queryBool(c, "is_finger_food"),
		IsUtensilFood:           queryBool(c, "is_utensil_food"),
		IsFreezerFriendly:       queryBool(c, "is_freezer_friendly"),
		IsFoodProcessorFriendly: queryBool(c, "is_food_processor_friendly"),
		FavoritesOnly:           queryBool(c, "favorites_only"),
	}
	for _, raw := range queryTerms(c, "messiness_level") {
		level := common.MessinessLevel(strings.ToLower(raw))
		if !level.Valid() {
			return filters, common.NewValidationError("Invalid messiness level: " + raw)
		}
		filters.MessinessLevel = append(filters.MessinessLevel, level)
	}
	return filters, nil
}

// userID 未帶或格式錯誤時視為未登入
func userID(c *gin.Context) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(c.GetHeader(userIDHeader)), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
