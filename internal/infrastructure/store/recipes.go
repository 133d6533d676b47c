package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"recipe-finder/internal/pkg/common"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

func recipeIngredientKey(recipeID, ingredientID int64) string {
	return fmt.Sprintf("%s%d:%d", recipeIngredientPrefix, recipeID, ingredientID)
}

func favoriteKey(userID, recipeID int64) string {
	return fmt.Sprintf("%s%d:%d", favoritePrefix, userID, recipeID)
}

// CreateRecipe 新增食譜與其食材明細；slug 必須未被使用
func (s *Store) CreateRecipe(ctx context.Context, recipe *common.Recipe, items []common.RecipeIngredient) error {
	if strings.TrimSpace(recipe.Slug) == "" || strings.TrimSpace(recipe.Title) == "" {
		return fmt.Errorf("recipe title and slug are required")
	}

	return s.update(ctx, func(txn *badger.Txn) error {
		if _, exists, err := getID(txn, recipeSlugPrefix+recipe.Slug); err != nil {
			return err
		} else if exists {
			return fmt.Errorf("recipe slug %q: %w", recipe.Slug, ErrDuplicate)
		}

		id, err := nextID(txn, recipeSeqKey)
		if err != nil {
			return err
		}

		record := *recipe
		record.ID = id
		record.Ingredients = nil
		if record.CreatedAt.IsZero() {
			record.CreatedAt = time.Now().UTC()
		}
		if record.UpdatedAt.IsZero() {
			record.UpdatedAt = record.CreatedAt
		}

		if err := setJSON(txn, idKey(recipePrefix, id), record); err != nil {
			return err
		}
		if err := setID(txn, recipeSlugPrefix+record.Slug, id); err != nil {
			return fmt.Errorf("set recipe slug index: %w", err)
		}

		for _, item := range items {
			var ing common.Ingredient
			ok, err := getJSON(txn, idKey(ingredientPrefix, item.IngredientID), &ing)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("recipe %q references unknown ingredient %d", record.Slug, item.IngredientID)
			}
			item.RecipeID = id
			item.Ingredient = nil
			if err := setJSON(txn, recipeIngredientKey(id, item.IngredientID), item); err != nil {
				return err
			}
		}

		*recipe = record
		return nil
	})
}

// ListRecipes 列出所有食譜（不含食材明細）
func (s *Store) ListRecipes(ctx context.Context) ([]common.Recipe, error) {
	var recipes []common.Recipe
	err := s.view(ctx, func(txn *badger.Txn) error {
		return iteratePrefix(txn, recipePrefix, func(_, val []byte) error {
			var r common.Recipe
			if err := json.Unmarshal(val, &r); err != nil {
				return fmt.Errorf("decode recipe: %w", err)
			}
			recipes = append(recipes, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

// CountRecipes 食譜總數
func (s *Store) CountRecipes(ctx context.Context) (int, error) {
	count := 0
	err := s.view(ctx, func(txn *badger.Txn) error {
		keys, err := listKeys(txn, recipePrefix)
		count = len(keys)
		return err
	})
	return count, err
}

// RecipeBySlug 依目前 slug 取得食譜；不存在時回傳 (nil, nil)
func (s *Store) RecipeBySlug(ctx context.Context, slug string) (*common.Recipe, error) {
	var found *common.Recipe
	err := s.view(ctx, func(txn *badger.Txn) error {
		r, err := recipeBySlug(txn, slug)
		found = r
		return err
	})
	return found, err
}

func recipeBySlug(txn *badger.Txn, slug string) (*common.Recipe, error) {
	id, ok, err := getID(txn, recipeSlugPrefix+slug)
	if err != nil || !ok {
		return nil, err
	}
	var r common.Recipe
	ok, err = getJSON(txn, idKey(recipePrefix, id), &r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("slug index %q points at missing recipe %d", slug, id)
	}
	return &r, nil
}

// LineItems 取得所有食譜的食材明細並附上食材資料
func (s *Store) LineItems(ctx context.Context) (map[int64][]common.RecipeIngredient, error) {
	return s.lineItems(ctx, recipeIngredientPrefix)
}

// LineItemsFor 取得指定食譜的食材明細並附上食材資料
func (s *Store) LineItemsFor(ctx context.Context, recipeIDs []int64) (map[int64][]common.RecipeIngredient, error) {
	result := make(map[int64][]common.RecipeIngredient, len(recipeIDs))
	for _, id := range recipeIDs {
		items, err := s.lineItems(ctx, recipeIngredientPrefix+strconv.FormatInt(id, 10)+":")
		if err != nil {
			return nil, err
		}
		if list, ok := items[id]; ok {
			result[id] = list
		}
	}
	return result, nil
}

func (s *Store) lineItems(ctx context.Context, prefix string) (map[int64][]common.RecipeIngredient, error) {
	result := make(map[int64][]common.RecipeIngredient)
	err := s.view(ctx, func(txn *badger.Txn) error {
		var items []common.RecipeIngredient
		if err := iteratePrefix(txn, prefix, func(_, val []byte) error {
			var item common.RecipeIngredient
			if err := json.Unmarshal(val, &item); err != nil {
				return fmt.Errorf("decode recipe ingredient: %w", err)
			}
			items = append(items, item)
			return nil
		}); err != nil {
			return err
		}

		// 依食材 id 快取，避免重複讀取
		ingredients := make(map[int64]*common.Ingredient)
		for _, item := range items {
			ing, ok := ingredients[item.IngredientID]
			if !ok {
				var loaded common.Ingredient
				found, err := getJSON(txn, idKey(ingredientPrefix, item.IngredientID), &loaded)
				if err != nil {
					return err
				}
				if found {
					ing = &loaded
				}
				ingredients[item.IngredientID] = ing
			}
			if ing == nil {
				continue
			}
			item.Ingredient = ing
			result[item.RecipeID] = append(result[item.RecipeID], item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddFavorite 加入收藏
func (s *Store) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		if ok, err := getJSON(txn, idKey(recipePrefix, recipeID), &common.Recipe{}); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("recipe %d not found", recipeID)
		}
		return txn.Set([]byte(favoriteKey(userID, recipeID)), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}

// FavoriteRecipeIDs 使用者收藏的食譜 id
func (s *Store) FavoriteRecipeIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	ids := make(map[int64]bool)
	prefix := favoritePrefix + strconv.FormatInt(userID, 10) + ":"
	err := s.view(ctx, func(txn *badger.Txn) error {
		keys, err := listKeys(txn, prefix)
		if err != nil {
			return err
		}
		for _, key := range keys {
			id, err := strconv.ParseInt(strings.TrimPrefix(key, prefix), 10, 64)
			if err != nil {
				return fmt.Errorf("decode favorite key %q: %w", key, err)
			}
			ids[id] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
