package recipe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngredientSource struct {
	mu          sync.Mutex
	ingredients []common.Ingredient
	err         error
	delay       time.Duration
	calls       atomic.Int32
}

func (f *fakeIngredientSource) ListIngredients(ctx context.Context) ([]common.Ingredient, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]common.Ingredient, len(f.ingredients))
	copy(out, f.ingredients)
	return out, nil
}

func (f *fakeIngredientSource) set(ingredients []common.Ingredient, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ingredients = ingredients
	f.err = err
}

func testIndexConfig() config.IndexConfig {
	return config.Default().Index
}

func pantry() []common.Ingredient {
	return []common.Ingredient{
		{ID: 1, Name: "Chicken"},
		{ID: 2, Name: "Chickpea", Aliases: []string{"garbanzo bean"}},
		{ID: 3, Name: "Rice", Aliases: []string{"white rice"}},
		{ID: 4, Name: "Egg"},
		{ID: 5, Name: "Carrot"},
		{ID: 6, Name: "Sweet Potato", Aliases: []string{"yam"}},
	}
}

func names(s []IngredientSuggestion) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.Name
	}
	return out
}

func TestIndexTypoFindsChicken(t *testing.T) {
	src := &fakeIngredientSource{ingredients: pantry()}
	idx := NewIngredientIndex(src, testIndexConfig())

	results, err := idx.Query(context.Background(), "chiken")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Chicken", results[0].Name)
	for _, r := range results {
		assert.Less(t, r.Score, 0.6)
	}
}

func TestIndexShortQueryDoesNotBuild(t *testing.T) {
	src := &fakeIngredientSource{ingredients: pantry()}
	idx := NewIngredientIndex(src, testIndexConfig())

	for _, q := range []string{"", "c", "  c  "} {
		results, err := idx.Query(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.NotNil(t, results)
	}
	assert.Equal(t, int32(0), src.calls.Load())
	assert.False(t, idx.Ready())
}

func TestIndexPartialWordsAndAliases(t *testing.T) {
	src := &fakeIngredientSource{ingredients: pantry()}
	idx := NewIngredientIndex(src, testIndexConfig())
	ctx := context.Background()

	results, err := idx.Query(ctx, "pota")
	require.NoError(t, err)
	assert.Contains(t, names(results), "Sweet Potato")

	results, err = idx.Query(ctx, "garbanzo")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Chickpea", results[0].Name)
	// 別名權重 0.8，分數不會是 0
	assert.Greater(t, results[0].Score, 0.0)

	results, err = idx.Query(ctx, "RICE")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Rice", results[0].Name)
	assert.Equal(t, 0.0, results[0].Score)

	results, err = idx.Query(ctx, "zzzz")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndexMaxResults(t *testing.T) {
	var many []common.Ingredient
	for i := 0; i < 15; i++ {
		many = append(many, common.Ingredient{ID: int64(i + 1), Name: "bean " + string(rune('a'+i))})
	}
	src := &fakeIngredientSource{ingredients: many}
	idx := NewIngredientIndex(src, testIndexConfig())

	results, err := idx.Query(context.Background(), "bean")
	require.NoError(t, err)
	assert.Len(t, results, 10)
	// 同分時依名稱排序
	assert.Equal(t, "bean a", results[0].Name)
}

func TestIndexConcurrentFirstUseBuildsOnce(t *testing.T) {
	src := &fakeIngredientSource{ingredients: pantry(), delay: 20 * time.Millisecond}
	idx := NewIngredientIndex(src, testIndexConfig())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := idx.Query(context.Background(), "egg")
			assert.NoError(t, err)
			assert.NotEmpty(t, results)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	assert.True(t, idx.Ready())
}

func TestIndexBuildFailureRetries(t *testing.T) {
	src := &fakeIngredientSource{err: errors.New("connection refused")}
	idx := NewIngredientIndex(src, testIndexConfig())
	ctx := context.Background()

	_, err := idx.Query(ctx, "egg")
	assert.Error(t, err)
	assert.False(t, idx.Ready())

	src.set(pantry(), nil)
	results, err := idx.Query(ctx, "egg")
	require.NoError(t, err)
	assert.Equal(t, []string{"Egg"}, names(results)[:1])
}

func TestIndexStaleUntilRebuild(t *testing.T) {
	src := &fakeIngredientSource{ingredients: pantry()}
	idx := NewIngredientIndex(src, testIndexConfig())
	ctx := context.Background()

	results, err := idx.Query(ctx, "tofu")
	require.NoError(t, err)
	assert.Empty(t, results)

	src.set(append(pantry(), common.Ingredient{ID: 7, Name: "Tofu"}), nil)

	results, err = idx.Query(ctx, "tofu")
	require.NoError(t, err)
	assert.Empty(t, results)

	count, err := idx.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	results, err = idx.Query(ctx, "tofu")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tofu"}, names(results))
}

func TestIngredientServiceDegradesToEmpty(t *testing.T) {
	src := &fakeIngredientSource{err: errors.New("store unavailable")}
	svc := NewIngredientService(NewIngredientIndex(src, testIndexConfig()))

	results := svc.Suggest(context.Background(), "egg")
	assert.NotNil(t, results)
	assert.Empty(t, results)

	_, err := svc.Reindex(context.Background())
	assert.True(t, common.IsInternalError(err))
}

func TestFieldScore(t *testing.T) {
	assert.Equal(t, 0.0, fieldScore("rice", "rice"))
	assert.Less(t, fieldScore("chick", "chicken"), 0.3)
	assert.Less(t, fieldScore("chiken", "chicken"), 0.3)
	assert.Less(t, fieldScore("potato", "sweet potato"), 0.3)
	assert.Greater(t, fieldScore("zzzz", "carrot"), 0.3)
	assert.Equal(t, 1.0, fieldScore("rice", ""))
}
