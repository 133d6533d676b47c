package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"recipe-finder/internal/core/recipe"
	"recipe-finder/internal/pkg/common"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

func redirectKey(oldSlug string) string {
	return redirectPrefix + oldSlug
}

func redirectRecipeKey(recipeID int64, oldSlug string) string {
	return redirectRecipePrefix + strconv.FormatInt(recipeID, 10) + ":" + oldSlug
}

func redirectTargetKey(newSlug, oldSlug string) string {
	return redirectTargetPrefix + newSlug + ":" + oldSlug
}

// ResolveRedirect 以舊 slug 查詢轉址；不存在時回傳 (nil, nil)
func (s *Store) ResolveRedirect(ctx context.Context, slug string) (*common.RecipeRedirect, error) {
	var found *common.RecipeRedirect
	err := s.view(ctx, func(txn *badger.Txn) error {
		r, err := redirectByOldSlug(txn, slug)
		found = r
		return err
	})
	return found, err
}

// RedirectsForRecipe 列出食譜的所有轉址，新到舊
func (s *Store) RedirectsForRecipe(ctx context.Context, recipeID int64) ([]common.RecipeRedirect, error) {
	var redirects []common.RecipeRedirect
	err := s.view(ctx, func(txn *badger.Txn) error {
		list, err := redirectsForRecipe(txn, recipeID)
		redirects = list
		return err
	})
	if err != nil {
		return nil, err
	}
	sortRedirects(redirects)
	return redirects, nil
}

// ListRedirects 列出所有轉址並附上食譜標題，新到舊
func (s *Store) ListRedirects(ctx context.Context) ([]common.RecipeRedirect, error) {
	redirects := []common.RecipeRedirect{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		titles := make(map[int64]string)
		return iteratePrefix(txn, redirectPrefix, func(_, val []byte) error {
			var r common.RecipeRedirect
			if err := json.Unmarshal(val, &r); err != nil {
				return fmt.Errorf("decode redirect: %w", err)
			}
			title, ok := titles[r.RecipeID]
			if !ok {
				var owner common.Recipe
				if _, err := getJSON(txn, idKey(recipePrefix, r.RecipeID), &owner); err != nil {
					return err
				}
				title = owner.Title
				titles[r.RecipeID] = title
			}
			r.RecipeTitle = title
			redirects = append(redirects, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortRedirects(redirects)
	return redirects, nil
}

// RunInTx 在單一讀寫交易中執行改名；衝突時整筆重跑
func (s *Store) RunInTx(ctx context.Context, fn func(tx recipe.RenameTx) error) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return fn(&renameTx{txn: txn})
	})
}

func sortRedirects(redirects []common.RecipeRedirect) {
	sort.SliceStable(redirects, func(i, j int) bool {
		if !redirects[i].CreatedAt.Equal(redirects[j].CreatedAt) {
			return redirects[i].CreatedAt.After(redirects[j].CreatedAt)
		}
		return redirects[i].OldSlug < redirects[j].OldSlug
	})
}

func redirectByOldSlug(txn *badger.Txn, slug string) (*common.RecipeRedirect, error) {
	var r common.RecipeRedirect
	ok, err := getJSON(txn, redirectKey(slug), &r)
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

func redirectsForRecipe(txn *badger.Txn, recipeID int64) ([]common.RecipeRedirect, error) {
	prefix := redirectRecipePrefix + strconv.FormatInt(recipeID, 10) + ":"
	keys, err := listKeys(txn, prefix)
	if err != nil {
		return nil, err
	}

	redirects := make([]common.RecipeRedirect, 0, len(keys))
	for _, key := range keys {
		oldSlug := key[len(prefix):]
		r, err := redirectByOldSlug(txn, oldSlug)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, fmt.Errorf("redirect index %q has no redirect row", key)
		}
		redirects = append(redirects, *r)
	}
	return redirects, nil
}

// renameTx 以 badger 交易實作 recipe.RenameTx
type renameTx struct {
	txn *badger.Txn
}

func (t *renameTx) RecipeBySlug(slug string) (*common.Recipe, error) {
	return recipeBySlug(t.txn, slug)
}

func (t *renameTx) RedirectByOldSlug(slug string) (*common.RecipeRedirect, error) {
	return redirectByOldSlug(t.txn, slug)
}

func (t *renameTx) HasRedirectTarget(slug string) (bool, error) {
	keys, err := listKeys(t.txn, redirectTargetPrefix+slug+":")
	if err != nil {
		return false, err
	}
	return len(keys) > 0, nil
}

func (t *renameTx) RedirectsForRecipe(recipeID int64) ([]common.RecipeRedirect, error) {
	return redirectsForRecipe(t.txn, recipeID)
}

func (t *renameTx) PutRedirect(r common.RecipeRedirect, prevNewSlug string) error {
	r.RecipeTitle = ""
	if err := setJSON(t.txn, redirectKey(r.OldSlug), r); err != nil {
		return err
	}
	if prevNewSlug != "" && prevNewSlug != r.NewSlug {
		if err := t.txn.Delete([]byte(redirectTargetKey(prevNewSlug, r.OldSlug))); err != nil {
			return fmt.Errorf("delete redirect target: %w", err)
		}
	}
	if err := t.txn.Set([]byte(redirectTargetKey(r.NewSlug, r.OldSlug)), []byte{}); err != nil {
		return fmt.Errorf("set redirect target: %w", err)
	}
	if err := t.txn.Set([]byte(redirectRecipeKey(r.RecipeID, r.OldSlug)), []byte{}); err != nil {
		return fmt.Errorf("set redirect recipe index: %w", err)
	}
	return nil
}

func (t *renameTx) PutRecipe(r common.Recipe, prevSlug string) error {
	r.Ingredients = nil
	if err := setJSON(t.txn, idKey(recipePrefix, r.ID), r); err != nil {
		return err
	}
	if prevSlug == r.Slug {
		return nil
	}
	if prevSlug != "" {
		if err := t.txn.Delete([]byte(recipeSlugPrefix + prevSlug)); err != nil {
			return fmt.Errorf("delete recipe slug index: %w", err)
		}
	}
	if err := setID(t.txn, recipeSlugPrefix+r.Slug, r.ID); err != nil {
		return fmt.Errorf("set recipe slug index: %w", err)
	}
	return nil
}
