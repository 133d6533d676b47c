package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"recipe-finder/internal/core/recipe"
	"recipe-finder/internal/pkg/common"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

const testSeed = `
ingredients:
  - name: Rice
    aliases: [white rice]
    category: dry
    display_order: 1
  - name: Egg
    category: wet
    display_order: 2
  - name: Carrot
    category: other
recipes:
  - title: Egg Fried Rice
    slug: egg-fried-rice
    is_finger_food: true
    messiness_level: messy
    created_at: 2024-01-01T00:00:00Z
    ingredients:
      - name: rice
        amount: "1"
        unit: cup
      - name: egg
  - title: Veggie Rice
    slug: veggie-rice
    created_at: 2024-02-01T00:00:00Z
    ingredients:
      - name: rice
      - name: egg
      - name: carrot
        optional: true
`

func seedTestStore(t *testing.T, s *Store) {
	t.Helper()
	seed, err := ParseSeed([]byte(testSeed))
	require.NoError(t, err)
	require.NoError(t, s.Seed(context.Background(), seed))
}

func TestCreateIngredientUniqueName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ing := common.Ingredient{Name: " Chicken "}
	require.NoError(t, s.CreateIngredient(ctx, &ing))
	assert.Equal(t, int64(1), ing.ID)
	assert.Equal(t, "Chicken", ing.Name)
	assert.Equal(t, common.CategoryOther, ing.Category)
	assert.NotNil(t, ing.Aliases)

	dup := common.Ingredient{Name: "chicken"}
	err := s.CreateIngredient(ctx, &dup)
	assert.True(t, errors.Is(err, ErrDuplicate))

	found, err := s.IngredientByName(ctx, "CHICKEN")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, ing.ID, found.ID)

	missing, err := s.IngredientByName(ctx, "tofu")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSeedAndLineItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTestStore(t, s)

	ingredients, err := s.ListIngredients(ctx)
	require.NoError(t, err)
	assert.Len(t, ingredients, 3)

	recipes, err := s.ListRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, recipes, 2)

	r, err := s.RecipeBySlug(ctx, "veggie-rice")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "Veggie Rice", r.Title)
	assert.Equal(t, common.MessinessModerate, r.MessinessLevel)

	all, err := s.LineItems(ctx)
	require.NoError(t, err)
	assert.Len(t, all[r.ID], 3)

	some, err := s.LineItemsFor(ctx, []int64{r.ID})
	require.NoError(t, err)
	require.Len(t, some, 1)
	for _, item := range some[r.ID] {
		require.NotNil(t, item.Ingredient)
		assert.Equal(t, r.ID, item.RecipeID)
		if item.Ingredient.Name == "Carrot" {
			assert.True(t, item.IsOptional)
		}
	}

	count, err := s.CountRecipes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCreateRecipeDuplicateSlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTestStore(t, s)

	r := common.Recipe{Title: "Another", Slug: "egg-fried-rice"}
	err := s.CreateRecipe(ctx, &r, nil)
	assert.True(t, errors.Is(err, ErrDuplicate))

	bad := common.Recipe{Title: "Bad", Slug: "bad"}
	err = s.CreateRecipe(ctx, &bad, []common.RecipeIngredient{{IngredientID: 99}})
	assert.Error(t, err)

	// 失敗的交易不留下任何資料
	got, err := s.RecipeBySlug(ctx, "bad")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSeedFromFileSkipsWhenPopulated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSeed), 0o644))

	require.NoError(t, s.SeedFromFile(ctx, path))
	require.NoError(t, s.SeedFromFile(ctx, path))

	count, err := s.CountRecipes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Error(t, s.SeedFromFile(ctx, filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestRenameTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTestStore(t, s)

	now := time.Now().UTC()
	err := s.RunInTx(ctx, func(tx recipe.RenameTx) error {
		r, err := tx.RecipeBySlug("egg-fried-rice")
		require.NoError(t, err)
		require.NotNil(t, r)

		require.NoError(t, tx.PutRedirect(common.RecipeRedirect{
			OldSlug: "egg-fried-rice", NewSlug: "fried-rice", RecipeID: r.ID, CreatedAt: now,
		}, ""))
		r.Title = "Fried Rice"
		prev := r.Slug
		r.Slug = "fried-rice"
		require.NoError(t, tx.PutRecipe(*r, prev))

		// 交易內可讀到自己的寫入
		moved, err := tx.RecipeBySlug("fried-rice")
		require.NoError(t, err)
		assert.NotNil(t, moved)
		has, err := tx.HasRedirectTarget("fried-rice")
		require.NoError(t, err)
		assert.True(t, has)
		return nil
	})
	require.NoError(t, err)

	old, err := s.RecipeBySlug(ctx, "egg-fried-rice")
	require.NoError(t, err)
	assert.Nil(t, old)

	redirect, err := s.ResolveRedirect(ctx, "egg-fried-rice")
	require.NoError(t, err)
	require.NotNil(t, redirect)
	assert.Equal(t, "fried-rice", redirect.NewSlug)

	// 重新指向後舊的 target 索引被移除
	err = s.RunInTx(ctx, func(tx recipe.RenameTx) error {
		r := *redirect
		r.NewSlug = "rice-bowl"
		return tx.PutRedirect(r, redirect.NewSlug)
	})
	require.NoError(t, err)
	err = s.RunInTx(ctx, func(tx recipe.RenameTx) error {
		has, err := tx.HasRedirectTarget("fried-rice")
		require.NoError(t, err)
		assert.False(t, has)
		has, err = tx.HasRedirectTarget("rice-bowl")
		require.NoError(t, err)
		assert.True(t, has)
		return nil
	})
	require.NoError(t, err)

	list, err := s.ListRedirects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Fried Rice", list[0].RecipeTitle)

	forRecipe, err := s.RedirectsForRecipe(ctx, redirect.RecipeID)
	require.NoError(t, err)
	assert.Len(t, forRecipe, 1)
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTestStore(t, s)

	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(tx recipe.RenameTx) error {
		r, err := tx.RecipeBySlug("veggie-rice")
		if err != nil {
			return err
		}
		r.Slug = "changed"
		if err := tx.PutRecipe(*r, "veggie-rice"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	r, err := s.RecipeBySlug(ctx, "veggie-rice")
	require.NoError(t, err)
	assert.NotNil(t, r)
	changed, err := s.RecipeBySlug(ctx, "changed")
	require.NoError(t, err)
	assert.Nil(t, changed)
}

func TestFavorites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTestStore(t, s)

	r, err := s.RecipeBySlug(ctx, "egg-fried-rice")
	require.NoError(t, err)
	require.NoError(t, s.AddFavorite(ctx, 7, r.ID))
	assert.Error(t, s.AddFavorite(ctx, 7, 999))

	ids, err := s.FavoriteRecipeIDs(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{r.ID: true}, ids)

	none, err := s.FavoriteRecipeIDs(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClosedStore(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Ping(context.Background()), ErrClosed)
	_, err = s.ListRecipes(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBundledSeedFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedFromFile(ctx, filepath.Join("..", "..", "..", "data", "seed.yaml")))

	count, err := s.CountRecipes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	ingredients, err := s.ListIngredients(ctx)
	require.NoError(t, err)
	assert.Len(t, ingredients, 17)

	r, err := s.RecipeBySlug(ctx, "egg-fried-rice")
	require.NoError(t, err)
	require.NotNil(t, r)
	items, err := s.LineItemsFor(ctx, []int64{r.ID})
	require.NoError(t, err)
	assert.Len(t, items[r.ID], 5)
}

// conflictOnce 讀取 key 後由另一筆交易寫入同一 key，使本交易提交時衝突
func conflictOnce(t *testing.T, s *Store, txn *badger.Txn, key string) {
	t.Helper()
	_, err := txn.Get([]byte(key))
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		require.NoError(t, err)
	}
	require.NoError(t, s.db.Update(func(other *badger.Txn) error {
		return other.Set([]byte(key), []byte("other"))
	}))
}

func TestUpdateRetriesOnConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	attempts := 0
	err := s.update(ctx, func(txn *badger.Txn) error {
		attempts++
		if attempts == 1 {
			conflictOnce(t, s, txn, "test:contended")
		}
		return txn.Set([]byte("test:result"), []byte("done"))
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	var value string
	require.NoError(t, s.view(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("test:result"))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		value = string(val)
		return err
	}))
	assert.Equal(t, "done", value)
}

func TestUpdateGivesUpAfterMaxAttempts(t *testing.T) {
	s := newTestStore(t)

	attempts := 0
	err := s.update(context.Background(), func(txn *badger.Txn) error {
		attempts++
		conflictOnce(t, s, txn, "test:contended")
		return txn.Set([]byte("test:result"), []byte("done"))
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, badger.ErrConflict)
	assert.Equal(t, maxTxnAttempts, attempts)
}
