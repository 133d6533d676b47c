package recipe

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"recipe-finder/internal/metrics"
	"recipe-finder/internal/pkg/common"

	"go.uber.org/zap"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidSlug slug 只能包含小寫字母、數字與連字號
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// Slugify 由標題產生 slug
func Slugify(title string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			sb.WriteRune(r)
			dash = false
		case r == '\'':
			// "Mom's" -> "moms"
		default:
			if !dash && sb.Len() > 0 {
				sb.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

// RedirectService 食譜改名與舊網址轉址
type RedirectService struct {
	*Service
	repo RedirectRepository
	now  func() time.Time
}

// NewRedirectService 創建改名服務
func NewRedirectService(base *Service, repo RedirectRepository) *RedirectService {
	return &RedirectService{
		Service: base,
		repo:    repo,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Rename 在單一交易中更新標題與 slug，並讓所有舊 slug 直接指向新的 slug
func (s *RedirectService) Rename(ctx context.Context, req RenameRequest) (*RenameResult, error) {
	result, err := s.rename(ctx, req)
	metrics.RecipeRenames.WithLabelValues(renameOutcome(err)).Inc()
	if err != nil {
		if common.IsInternalError(err) {
			common.LogError("食譜改名失敗",
				zap.String("current_slug", req.CurrentSlug),
				zap.Error(err),
			)
		}
		return nil, err
	}

	common.LogInfo("食譜已改名",
		zap.Int64("recipe_id", result.ID),
		zap.String("slug", result.Slug),
		zap.Bool("redirect_created", result.RedirectCreated),
	)
	// 搜尋結果內含標題與 slug
	s.purgeCache(ctx, searchCacheNamespace)
	return result, nil
}

func (s *RedirectService) rename(ctx context.Context, req RenameRequest) (*RenameResult, error) {
	title := strings.TrimSpace(req.Title)
	slug := strings.TrimSpace(req.Slug)
	if slug == "" && title != "" {
		slug = Slugify(title)
	}

	if title == "" {
		return nil, common.NewValidationError("Recipe title is required")
	}
	if slug == "" {
		return nil, common.NewValidationError("Recipe slug is required")
	}
	if !ValidSlug(slug) {
		return nil, common.NewValidationError("Slug can only contain lowercase letters, numbers, and hyphens")
	}

	var result *RenameResult
	err := s.repo.RunInTx(ctx, func(tx RenameTx) error {
		// 衝突重試時整段重跑
		result = nil

		r, err := tx.RecipeBySlug(req.CurrentSlug)
		if err != nil {
			return common.NewInternalError("failed to load recipe", err)
		}
		if r == nil {
			return common.NewNotFoundError("Recipe not found")
		}

		owner, err := tx.RecipeBySlug(slug)
		if err != nil {
			return common.NewInternalError("failed to check slug", err)
		}
		if owner != nil && owner.ID != r.ID {
			return common.NewConflictError(fmt.Sprintf("Slug %q is already used by recipe: %q", slug, owner.Title))
		}

		prevSlug := r.Slug
		changed := slug != prevSlug
		now := s.now()

		if changed {
			if err := checkRedirectCollision(tx, slug); err != nil {
				return err
			}
			if err := collapseRedirects(tx, r.ID, prevSlug, slug, now); err != nil {
				return err
			}
		}

		r.Title = title
		r.Slug = slug
		r.UpdatedAt = now
		if err := tx.PutRecipe(*r, prevSlug); err != nil {
			return common.NewInternalError("failed to update recipe", err)
		}

		result = &RenameResult{
			ID:              r.ID,
			Title:           title,
			Slug:            slug,
			RedirectCreated: changed,
		}
		if changed {
			result.OldSlug = &prevSlug
		}
		return nil
	})
	if err != nil {
		if _, ok := common.AsCustomError(err); !ok {
			return nil, common.NewInternalError("rename transaction failed", err)
		}
		return nil, err
	}
	return result, nil
}

// checkRedirectCollision 新 slug 不可出現在任何轉址的兩端
func checkRedirectCollision(tx RenameTx, slug string) error {
	existing, err := tx.RedirectByOldSlug(slug)
	if err != nil {
		return common.NewInternalError("failed to check redirects", err)
	}
	if existing != nil {
		return common.NewConflictError(fmt.Sprintf("Slug %q conflicts with existing redirects", slug))
	}
	targeted, err := tx.HasRedirectTarget(slug)
	if err != nil {
		return common.NewInternalError("failed to check redirects", err)
	}
	if targeted {
		return common.NewConflictError(fmt.Sprintf("Slug %q conflicts with existing redirects", slug))
	}
	return nil
}

// collapseRedirects 所有舊 slug 改為直接指向 newSlug，必要時新增 current -> newSlug
func collapseRedirects(tx RenameTx, recipeID int64, currentSlug, newSlug string, now time.Time) error {
	redirects, err := tx.RedirectsForRecipe(recipeID)
	if err != nil {
		return common.NewInternalError("failed to load redirects", err)
	}

	hasCurrent := false
	for _, rd := range redirects {
		if rd.OldSlug == currentSlug {
			hasCurrent = true
		}
		prev := rd.NewSlug
		rd.NewSlug = newSlug
		if err := tx.PutRedirect(rd, prev); err != nil {
			return common.NewInternalError("failed to update redirect", err)
		}
	}

	if hasCurrent {
		return nil
	}
	if err := tx.PutRedirect(common.RecipeRedirect{
		OldSlug:   currentSlug,
		NewSlug:   newSlug,
		RecipeID:  recipeID,
		CreatedAt: now,
	}, ""); err != nil {
		return common.NewInternalError("failed to create redirect", err)
	}
	return nil
}

func renameOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case common.IsValidationError(err):
		return "validation"
	case common.IsNotFoundError(err):
		return "not_found"
	case common.IsConflictError(err):
		return "conflict"
	default:
		return "internal"
	}
}

// Resolve 以舊 slug 查詢轉址；不存在時回傳 (nil, nil)
func (s *RedirectService) Resolve(ctx context.Context, slug string) (*common.RecipeRedirect, error) {
	r, err := s.repo.ResolveRedirect(ctx, slug)
	if err != nil {
		return nil, common.NewInternalError("failed to resolve redirect", err)
	}
	return r, nil
}

// Check 轉址檢查
func (s *RedirectService) Check(ctx context.Context, slug string) (*RedirectCheck, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, common.NewValidationError("Slug parameter is required")
	}
	r, err := s.Resolve(ctx, slug)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return &RedirectCheck{Redirect: false, Slug: slug}, nil
	}
	return &RedirectCheck{Redirect: true, OldSlug: slug, NewSlug: r.NewSlug}, nil
}

// Detail 管理端食譜詳情與其轉址（新到舊）
func (s *RedirectService) Detail(ctx context.Context, slug string) (*RecipeDetail, error) {
	r, err := s.repo.RecipeBySlug(ctx, slug)
	if err != nil {
		return nil, common.NewInternalError("failed to load recipe", err)
	}
	if r == nil {
		return nil, common.NewNotFoundError("Recipe not found")
	}

	redirects, err := s.repo.RedirectsForRecipe(ctx, r.ID)
	if err != nil {
		return nil, common.NewInternalError("failed to load redirects", err)
	}
	if redirects == nil {
		redirects = []common.RecipeRedirect{}
	}
	if r.Ingredients == nil {
		r.Ingredients = []common.RecipeIngredient{}
	}
	return &RecipeDetail{Recipe: *r, Redirects: redirects}, nil
}

// ListRedirects 所有轉址（新到舊）
func (s *RedirectService) ListRedirects(ctx context.Context) ([]common.RecipeRedirect, error) {
	redirects, err := s.repo.ListRedirects(ctx)
	if err != nil {
		return nil, common.NewInternalError("failed to list redirects", err)
	}
	return redirects, nil
}
