package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/infrastructure/store"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routerSeed = `
ingredients:
  - name: Rice
    category: dry
  - name: Egg
    category: wet
  - name: Carrot
  - name: Chicken
recipes:
  - title: Egg Fried Rice
    slug: egg-fried-rice
    is_finger_food: true
    messiness_level: moderate
    created_at: 2024-01-01T00:00:00Z
    ingredients:
      - name: rice
      - name: egg
  - title: Veggie Rice
    slug: veggie-rice
    is_utensil_food: true
    messiness_level: clean
    created_at: 2024-01-02T00:00:00Z
    ingredients:
      - name: rice
      - name: egg
      - name: carrot
  - title: Chicken Rice
    slug: chicken-rice
    messiness_level: messy
    created_at: 2024-01-03T00:00:00Z
    ingredients:
      - name: chicken
      - name: rice
`

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	seed, err := store.ParseSeed([]byte(routerSeed))
	require.NoError(t, err)
	require.NoError(t, st.Seed(context.Background(), seed))

	cfg := config.Default()
	router, err := SetupRouter(cfg, st, nil)
	require.NoError(t, err)
	return router
}

func do(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type searchBody struct {
	Recipes []struct {
		Title       string `json:"title"`
		Slug        string `json:"slug"`
		Ingredients []struct {
			Ingredient struct {
				Name string `json:"name"`
			} `json:"ingredient"`
		} `json:"ingredients"`
	} `json:"recipes"`
	AlmostMatches []struct {
		Title string `json:"title"`
	} `json:"almost_matches"`
	TotalCount int  `json:"total_count"`
	HasMore    bool `json:"has_more"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestSearchRecipesEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/search/recipes?ingredients=rice,%20Egg", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body searchBody
	decode(t, w, &body)
	require.Len(t, body.Recipes, 1)
	assert.Equal(t, "Egg Fried Rice", body.Recipes[0].Title)
	assert.Len(t, body.Recipes[0].Ingredients, 2)
	require.Len(t, body.AlmostMatches, 2)
	assert.Equal(t, "Veggie Rice", body.AlmostMatches[0].Title)
	assert.Equal(t, "Chicken Rice", body.AlmostMatches[1].Title)
	assert.Equal(t, 1, body.TotalCount)
	assert.False(t, body.HasMore)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSearchRecipesFiltersAndPaging(t *testing.T) {
	router := newTestRouter(t)

	var body searchBody
	w := do(router, http.MethodGet, "/api/search/recipes?messiness_level=clean,messy&limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	assert.Equal(t, 2, body.TotalCount)
	assert.True(t, body.HasMore)
	require.Len(t, body.Recipes, 1)
	assert.Equal(t, "Chicken Rice", body.Recipes[0].Title)

	body = searchBody{}
	w = do(router, http.MethodGet, "/api/search/recipes?is_finger_food=true&is_utensil_food=1", "")
	decode(t, w, &body)
	assert.Equal(t, 2, body.TotalCount)

	w = do(router, http.MethodGet, "/api/search/recipes?messiness_level=sticky", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errBody errorBody
	decode(t, w, &errBody)
	assert.Equal(t, "VALIDATION_ERROR", errBody.Code)
}

func TestListRecipesEndpoint(t *testing.T) {
	router := newTestRouter(t)

	var body searchBody
	w := do(router, http.MethodGet, "/api/recipes?limit=2&offset=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	assert.Equal(t, 3, body.TotalCount)
	assert.False(t, body.HasMore)
	require.Len(t, body.Recipes, 2)
	assert.Equal(t, "Veggie Rice", body.Recipes[0].Title)
}

func TestIngredientSuggestionsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	var body struct {
		Ingredients []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"ingredients"`
	}
	w := do(router, http.MethodGet, "/api/search/ingredients?q=chiken", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	require.NotEmpty(t, body.Ingredients)
	assert.Equal(t, "Chicken", body.Ingredients[0].Name)

	w = do(router, http.MethodGet, "/api/search/ingredients?q=c", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ingredients":[]}`, w.Body.String())
}

func TestRenameAndRedirectFlow(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodPut, "/api/admin/recipes/egg-fried-rice", `{"title":"Toddler Egg Rice","slug":"toddler-egg-rice"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    struct {
			ID              int64   `json:"id"`
			Title           string  `json:"title"`
			Slug            string  `json:"slug"`
			RedirectCreated bool    `json:"redirectCreated"`
			OldSlug         *string `json:"oldSlug"`
		} `json:"data"`
	}
	decode(t, w, &res)
	assert.True(t, res.Success)
	assert.Equal(t, "Recipe updated successfully", res.Message)
	assert.Equal(t, "toddler-egg-rice", res.Data.Slug)
	assert.True(t, res.Data.RedirectCreated)
	require.NotNil(t, res.Data.OldSlug)
	assert.Equal(t, "egg-fried-rice", *res.Data.OldSlug)

	// 舊網址保留查詢字串 301 到新網址
	w = do(router, http.MethodGet, "/recipes/egg-fried-rice?ref=share", "")
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/recipes/toddler-egg-rice?ref=share", w.Header().Get("Location"))

	w = do(router, http.MethodGet, "/recipes/toddler-egg-rice", "")
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Title       string        `json:"title"`
		Ingredients []interface{} `json:"ingredients"`
	}
	decode(t, w, &page)
	assert.Equal(t, "Toddler Egg Rice", page.Title)
	assert.Len(t, page.Ingredients, 2)

	w = do(router, http.MethodGet, "/api/redirects/check?slug=egg-fried-rice", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"redirect":true,"oldSlug":"egg-fried-rice","newSlug":"toddler-egg-rice"}`, w.Body.String())

	w = do(router, http.MethodGet, "/api/redirects/check?slug=veggie-rice", "")
	assert.JSONEq(t, `{"redirect":false,"slug":"veggie-rice"}`, w.Body.String())

	w = do(router, http.MethodGet, "/api/admin/recipes/toddler-egg-rice", "")
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Success bool `json:"success"`
		Data    struct {
			Recipe struct {
				Slug string `json:"slug"`
			} `json:"recipe"`
			Redirects []struct {
				OldSlug string `json:"old_slug"`
				NewSlug string `json:"new_slug"`
			} `json:"redirects"`
		} `json:"data"`
	}
	decode(t, w, &detail)
	assert.True(t, detail.Success)
	require.Len(t, detail.Data.Redirects, 1)
	assert.Equal(t, "egg-fried-rice", detail.Data.Redirects[0].OldSlug)

	var list struct {
		Redirects []struct {
			RecipeTitle string `json:"recipe_title"`
		} `json:"redirects"`
		Total int `json:"total"`
	}
	w = do(router, http.MethodGet, "/api/admin/redirects", "")
	decode(t, w, &list)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, "Toddler Egg Rice", list.Redirects[0].RecipeTitle)

	var stats struct {
		TotalRecipes   int `json:"totalRecipes"`
		TotalRedirects int `json:"totalRedirects"`
	}
	w = do(router, http.MethodGet, "/api/admin/stats", "")
	decode(t, w, &stats)
	assert.Equal(t, 3, stats.TotalRecipes)
	assert.Equal(t, 1, stats.TotalRedirects)
}

func TestRenameErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name     string
		slug     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"missing title", "veggie-rice", `{"slug":"x"}`, http.StatusBadRequest, "Recipe title is required"},
		{"bad slug", "veggie-rice", `{"title":"X","slug":"Bad Slug"}`, http.StatusBadRequest, "Slug can only contain lowercase letters, numbers, and hyphens"},
		{"malformed json", "veggie-rice", `{"title":`, http.StatusBadRequest, "Invalid request format"},
		{"taken slug", "veggie-rice", `{"title":"X","slug":"chicken-rice"}`, http.StatusConflict, `Slug "chicken-rice" is already used by recipe: "Chicken Rice"`},
		{"unknown recipe", "nope", `{"title":"X","slug":"x"}`, http.StatusNotFound, "Recipe not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPut, "/api/admin/recipes/"+tt.slug, tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			var body errorBody
			decode(t, w, &body)
			assert.Equal(t, tt.wantErr, body.Error)
		})
	}
}

func TestRenameDuplicateSubmissionRejected(t *testing.T) {
	router := newTestRouter(t)
	body := `{"title":"Veggie Rice Bowl","slug":"veggie-rice-bowl"}`

	w := do(router, http.MethodPut, "/api/admin/recipes/veggie-rice", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPut, "/api/admin/recipes/veggie-rice", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRedirectCheckRequiresSlug(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/redirects/check", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body errorBody
	decode(t, w, &body)
	assert.Equal(t, "Slug parameter is required", body.Error)
}

func TestRecipePageNotFound(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodGet, "/recipes/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	var body errorBody
	decode(t, w, &body)
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestReindexEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/admin/ingredients/reindex", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","ingredients":4}`, w.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health", "/ready", "/live"} {
		w := do(router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	do(router, http.MethodGet, "/api/recipes", "")
	w := do(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "api_requests_total")
}

func TestReadinessFailsWhenStoreClosed(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	router, err := SetupRouter(config.Default(), st, nil)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	w := do(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
