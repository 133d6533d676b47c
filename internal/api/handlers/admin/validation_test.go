package admin

import (
	"errors"
	"sync"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugValidation(t *testing.T) {
	require.NoError(t, RegisterValidators())
	require.NoError(t, RegisterValidators())

	tests := []struct {
		name    string
		req     UpdateRecipeRequest
		wantMsg string
	}{
		{"valid", UpdateRecipeRequest{Title: "Egg Rice", Slug: "egg-rice"}, ""},
		{"slug omitted", UpdateRecipeRequest{Title: "Egg Rice"}, ""},
		{"missing title", UpdateRecipeRequest{Slug: "egg-rice"}, "Recipe title is required"},
		{"uppercase slug", UpdateRecipeRequest{Title: "Egg Rice", Slug: "Egg-Rice"}, "Slug can only contain lowercase letters, numbers, and hyphens"},
		{"underscore slug", UpdateRecipeRequest{Title: "Egg Rice", Slug: "egg_rice"}, "Slug can only contain lowercase letters, numbers, and hyphens"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tt.req)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, bindingError(err).Message)
		})
	}
}

func TestBindingErrorFallback(t *testing.T) {
	assert.Equal(t, "Invalid request format", bindingError(errors.New("unexpected EOF")).Message)
}

// foreignValidator 不是 go-playground/validator 的 binding 引擎
type foreignValidator struct{}

func (foreignValidator) ValidateStruct(any) error { return nil }
func (foreignValidator) Engine() any             { return struct{}{} }

func TestRegisterValidatorsKeepsFirstError(t *testing.T) {
	original := binding.Validator
	binding.Validator = foreignValidator{}
	registerOnce = sync.Once{}
	registerErr = nil
	t.Cleanup(func() {
		binding.Validator = original
		registerOnce = sync.Once{}
		registerErr = nil
	})

	first := RegisterValidators()
	require.Error(t, first)

	// 換回正確引擎後仍回傳第一次的錯誤
	binding.Validator = original
	assert.Equal(t, first, RegisterValidators())
}

func TestRegisterSlugValidationRejectsForeignEngine(t *testing.T) {
	assert.Error(t, registerSlugValidation(struct{}{}))
}
