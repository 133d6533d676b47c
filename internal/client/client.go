package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"recipe-finder/internal/core/recipe"
	"recipe-finder/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// APIError 伺服器回傳的錯誤
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// SearchParams 搜尋參數
type SearchParams struct {
	Ingredients []string
	Filters     common.SearchFilters
	UserID      int64
	Limit       int
	Offset      int
}

// RedirectList 轉址列表
type RedirectList struct {
	Redirects []common.RecipeRedirect `json:"redirects"`
	Total     int                     `json:"total"`
}

// Client recipe-finder HTTP 客戶端
type Client struct {
	client *resty.Client
}

// New 創建客戶端
func New(baseURL string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "recipectl")
	client.JSONMarshal = json.Marshal
	client.JSONUnmarshal = json.Unmarshal

	return &Client{client: client}
}

// Search 依食材搜尋食譜
func (c *Client) Search(ctx context.Context, p SearchParams) (*recipe.SearchResult, error) {
	q := url.Values{}
	if len(p.Ingredients) > 0 {
		q.Set("ingredients", strings.Join(p.Ingredients, ","))
	}
	setFlag := func(key string, on bool) {
		if on {
			q.Set(key, "true")
		}
	}
	setFlag("is_finger_food", p.Filters.IsFingerFood)
	setFlag("is_utensil_food", p.Filters.IsUtensilFood)
	setFlag("is_freezer_friendly", p.Filters.IsFreezerFriendly)
	setFlag("is_food_processor_friendly", p.Filters.IsFoodProcessorFriendly)
	setFlag("favorites_only", p.Filters.FavoritesOnly)
	if len(p.Filters.MessinessLevel) > 0 {
		levels := make([]string, len(p.Filters.MessinessLevel))
		for i, l := range p.Filters.MessinessLevel {
			levels[i] = string(l)
		}
		q.Set("messiness_level", strings.Join(levels, ","))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}

	req := c.client.R().SetContext(ctx).SetQueryParamsFromValues(q)
	if p.UserID > 0 {
		req.SetHeader("X-User-ID", strconv.FormatInt(p.UserID, 10))
	}

	var result recipe.SearchResult
	if err := c.do(req.SetResult(&result), "GET", "/api/search/recipes"); err != nil {
		return nil, err
	}
	return &result, nil
}

// Suggest 食材名稱建議
func (c *Client) Suggest(ctx context.Context, q string) ([]recipe.IngredientSuggestion, error) {
	var result struct {
		Ingredients []recipe.IngredientSuggestion `json:"ingredients"`
	}
	req := c.client.R().SetContext(ctx).SetQueryParam("q", q).SetResult(&result)
	if err := c.do(req, "GET", "/api/search/ingredients"); err != nil {
		return nil, err
	}
	return result.Ingredients, nil
}

// Rename 改名；newSlug 為空時由伺服器依標題產生
func (c *Client) Rename(ctx context.Context, currentSlug, title, newSlug string) (*recipe.RenameResult, error) {
	body := map[string]string{"title": title}
	if newSlug != "" {
		body["slug"] = newSlug
	}

	var result struct {
		Success bool                 `json:"success"`
		Message string               `json:"message"`
		Data    *recipe.RenameResult `json:"data"`
	}
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&result)
	if err := c.do(req, "PUT", "/api/admin/recipes/"+url.PathEscape(currentSlug)); err != nil {
		return nil, err
	}
	if result.Data == nil {
		return nil, fmt.Errorf("empty rename response")
	}
	return result.Data, nil
}

// CheckRedirect 查詢 slug 是否已轉址
func (c *Client) CheckRedirect(ctx context.Context, slug string) (*recipe.RedirectCheck, error) {
	var result recipe.RedirectCheck
	req := c.client.R().SetContext(ctx).SetQueryParam("slug", slug).SetResult(&result)
	if err := c.do(req, "GET", "/api/redirects/check"); err != nil {
		return nil, err
	}
	return &result, nil
}

// Redirects 所有轉址
func (c *Client) Redirects(ctx context.Context) (*RedirectList, error) {
	var result RedirectList
	req := c.client.R().SetContext(ctx).SetResult(&result)
	if err := c.do(req, "GET", "/api/admin/redirects"); err != nil {
		return nil, err
	}
	return &result, nil
}

// Stats 管理端統計
func (c *Client) Stats(ctx context.Context) (*recipe.AdminStats, error) {
	var result recipe.AdminStats
	req := c.client.R().SetContext(ctx).SetResult(&result)
	if err := c.do(req, "GET", "/api/admin/stats"); err != nil {
		return nil, err
	}
	return &result, nil
}

// Reindex 重建食材索引，回傳索引中的食材數
func (c *Client) Reindex(ctx context.Context) (int, error) {
	var result struct {
		Status      string `json:"status"`
		Ingredients int    `json:"ingredients"`
	}
	req := c.client.R().SetContext(ctx).SetResult(&result)
	if err := c.do(req, "POST", "/api/admin/ingredients/reindex"); err != nil {
		return 0, err
	}
	return result.Ingredients, nil
}

func (c *Client) do(req *resty.Request, method, path string) error {
	var apiErr common.ErrorResponse
	resp, err := req.SetError(&apiErr).Execute(method, path)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", path, err)
	}
	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return &APIError{Status: resp.StatusCode(), Code: apiErr.Code, Message: msg}
	}
	return nil
}
