package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recipe-finder/internal/pkg/common"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

func ingredientNameKey(name string) string {
	return ingredientNamePrefix + strings.ToLower(strings.TrimSpace(name))
}

// CreateIngredient 新增食材，名稱不分大小寫唯一
func (s *Store) CreateIngredient(ctx context.Context, ing *common.Ingredient) error {
	name := strings.TrimSpace(ing.Name)
	if name == "" {
		return fmt.Errorf("ingredient name is required")
	}

	return s.update(ctx, func(txn *badger.Txn) error {
		if _, exists, err := getID(txn, ingredientNameKey(name)); err != nil {
			return err
		} else if exists {
			return fmt.Errorf("ingredient %q: %w", name, ErrDuplicate)
		}

		id, err := nextID(txn, ingredientSeqKey)
		if err != nil {
			return err
		}

		record := *ing
		record.ID = id
		record.Name = name
		if record.Aliases == nil {
			record.Aliases = []string{}
		}
		if record.Category == "" {
			record.Category = common.CategoryOther
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = time.Now().UTC()
		}

		if err := setJSON(txn, idKey(ingredientPrefix, id), record); err != nil {
			return err
		}
		if err := setID(txn, ingredientNameKey(name), id); err != nil {
			return fmt.Errorf("set ingredient name index: %w", err)
		}

		*ing = record
		return nil
	})
}

// ListIngredients 列出所有食材
func (s *Store) ListIngredients(ctx context.Context) ([]common.Ingredient, error) {
	var ingredients []common.Ingredient
	err := s.view(ctx, func(txn *badger.Txn) error {
		return iteratePrefix(txn, ingredientPrefix, func(_, val []byte) error {
			var ing common.Ingredient
			if err := json.Unmarshal(val, &ing); err != nil {
				return fmt.Errorf("decode ingredient: %w", err)
			}
			ingredients = append(ingredients, ing)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ingredients, nil
}

// IngredientByName 依名稱（不分大小寫）取得食材
func (s *Store) IngredientByName(ctx context.Context, name string) (*common.Ingredient, error) {
	var found *common.Ingredient
	err := s.view(ctx, func(txn *badger.Txn) error {
		id, ok, err := getID(txn, ingredientNameKey(name))
		if err != nil || !ok {
			return err
		}
		var ing common.Ingredient
		if ok, err := getJSON(txn, idKey(ingredientPrefix, id), &ing); err != nil || !ok {
			return err
		}
		found = &ing
		return nil
	})
	return found, err
}
