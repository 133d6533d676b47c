package admin

import (
	"errors"
	"sync"

	"recipe-finder/internal/core/recipe"
	"recipe-finder/internal/pkg/common"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	registerOnce sync.Once
	// registerErr 首次註冊的結果，之後每次呼叫都回傳它
	registerErr error
)

// RegisterValidators 在 gin 的 validator 上註冊 slug 規則
func RegisterValidators() error {
	registerOnce.Do(func() {
		registerErr = registerSlugValidation(binding.Validator.Engine())
	})
	return registerErr
}

func registerSlugValidation(engine any) error {
	v, ok := engine.(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	return v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return recipe.ValidSlug(fl.Field().String())
	})
}

// fieldMessages 欄位驗證失敗時的使用者訊息
var fieldMessages = map[string]string{
	"Title.required": "Recipe title is required",
	"Title.max":      "Recipe title is too long",
	"Slug.slug":      "Slug can only contain lowercase letters, numbers, and hyphens",
	"Slug.max":       "Slug is too long",
}

// bindingError 將 binding 錯誤轉為驗證錯誤
func bindingError(err error) *common.CustomError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if msg, ok := fieldMessages[fe.StructField()+"."+fe.Tag()]; ok {
			return common.NewValidationError(msg)
		}
		return common.NewValidationError("Invalid field: " + fe.Field())
	}
	return common.NewValidationError("Invalid request format")
}
