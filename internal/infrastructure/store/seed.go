package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"recipe-finder/internal/pkg/common"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedData 種子檔內容
type SeedData struct {
	Ingredients []SeedIngredient `yaml:"ingredients"`
	Recipes     []SeedRecipe     `yaml:"recipes"`
}

// SeedIngredient 種子食材
type SeedIngredient struct {
	Name         string   `yaml:"name"`
	Aliases      []string `yaml:"aliases"`
	Category     string   `yaml:"category"`
	DisplayOrder int      `yaml:"display_order"`
}

// SeedRecipe 種子食譜
type SeedRecipe struct {
	Title                   string         `yaml:"title"`
	Slug                    string         `yaml:"slug"`
	Description             string         `yaml:"description"`
	Instructions            string         `yaml:"instructions"`
	PrepTime                int            `yaml:"prep_time"`
	CookTime                int            `yaml:"cook_time"`
	TotalTime               int            `yaml:"total_time"`
	Servings                int            `yaml:"servings"`
	PortionsToddler         int            `yaml:"portions_toddler"`
	IsFingerFood            bool           `yaml:"is_finger_food"`
	IsUtensilFood           bool           `yaml:"is_utensil_food"`
	MessinessLevel          string         `yaml:"messiness_level"`
	IsFreezerFriendly       bool           `yaml:"is_freezer_friendly"`
	IsFoodProcessorFriendly bool           `yaml:"is_food_processor_friendly"`
	StorageInstructions     string         `yaml:"storage_instructions"`
	ReheatingInstructions   string         `yaml:"reheating_instructions"`
	ImageURL                string         `yaml:"image_url"`
	MetaDescription         string         `yaml:"meta_description"`
	CreatedAt               time.Time      `yaml:"created_at"`
	Ingredients             []SeedLineItem `yaml:"ingredients"`
}

// SeedLineItem 種子食譜食材；name 對應 SeedIngredient.Name（不分大小寫）
type SeedLineItem struct {
	Name     string `yaml:"name"`
	Amount   string `yaml:"amount"`
	Unit     string `yaml:"unit"`
	Notes    string `yaml:"notes"`
	Optional bool   `yaml:"optional"`
}

// ParseSeed 解析 YAML 種子資料
func ParseSeed(data []byte) (*SeedData, error) {
	var seed SeedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	return &seed, nil
}

// SeedFromFile 讀取種子檔並在資料庫沒有食譜時匯入
func (s *Store) SeedFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	seed, err := ParseSeed(data)
	if err != nil {
		return err
	}

	count, err := s.CountRecipes(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		common.LogInfo("資料庫已有食譜，略過種子匯入", zap.Int("recipes", count))
		return nil
	}

	return s.Seed(ctx, seed)
}

// Seed 匯入種子資料；已存在的食材沿用原本的 id
func (s *Store) Seed(ctx context.Context, seed *SeedData) error {
	for _, si := range seed.Ingredients {
		ing := common.Ingredient{
			Name:         si.Name,
			Aliases:      si.Aliases,
			Category:     common.IngredientCategory(si.Category),
			DisplayOrder: si.DisplayOrder,
		}
		if err := s.CreateIngredient(ctx, &ing); err != nil && !errors.Is(err, ErrDuplicate) {
			return fmt.Errorf("seed ingredient %q: %w", si.Name, err)
		}
	}

	for _, sr := range seed.Recipes {
		items := make([]common.RecipeIngredient, 0, len(sr.Ingredients))
		for _, li := range sr.Ingredients {
			ing, err := s.IngredientByName(ctx, li.Name)
			if err != nil {
				return err
			}
			if ing == nil {
				return fmt.Errorf("seed recipe %q references unknown ingredient %q", sr.Slug, li.Name)
			}
			items = append(items, common.RecipeIngredient{
				IngredientID: ing.ID,
				Amount:       li.Amount,
				Unit:         li.Unit,
				Notes:        li.Notes,
				IsOptional:   li.Optional,
			})
		}

		messiness := common.MessinessLevel(sr.MessinessLevel)
		if messiness == "" {
			messiness = common.MessinessModerate
		}
		r := common.Recipe{
			Title:                   sr.Title,
			Slug:                    sr.Slug,
			Description:             sr.Description,
			Instructions:            sr.Instructions,
			PrepTime:                sr.PrepTime,
			CookTime:                sr.CookTime,
			TotalTime:               sr.TotalTime,
			Servings:                sr.Servings,
			PortionsToddler:         sr.PortionsToddler,
			IsFingerFood:            sr.IsFingerFood,
			IsUtensilFood:           sr.IsUtensilFood,
			MessinessLevel:          messiness,
			IsFreezerFriendly:       sr.IsFreezerFriendly,
			IsFoodProcessorFriendly: sr.IsFoodProcessorFriendly,
			StorageInstructions:     sr.StorageInstructions,
			ReheatingInstructions:   sr.ReheatingInstructions,
			ImageURL:                sr.ImageURL,
			MetaDescription:         sr.MetaDescription,
			CreatedAt:               sr.CreatedAt,
		}
		if err := s.CreateRecipe(ctx, &r, items); err != nil {
			return fmt.Errorf("seed recipe %q: %w", sr.Slug, err)
		}
	}

	common.LogInfo("種子資料已匯入",
		zap.Int("ingredients", len(seed.Ingredients)),
		zap.Int("recipes", len(seed.Recipes)),
	)
	return nil
}
