package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Error string `json:"error"`          // 錯誤信息
	Code  string `json:"code,omitempty"` // 錯誤代碼
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 讓 errors.Is / errors.As 能看到原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest   = "INVALID_REQUEST"    // 400
	ErrCodeValidation       = "VALIDATION_ERROR"   // 400
	ErrCodeUnauthorized     = "UNAUTHORIZED"       // 401
	ErrCodeNotFound         = "NOT_FOUND"          // 404
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED" // 405
	ErrCodeConflict         = "CONFLICT"           // 409
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"  // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	ErrInvalidRequest     = NewError(ErrCodeInvalidRequest, "Invalid request", http.StatusBadRequest, nil)
	ErrNotFound           = NewError(ErrCodeNotFound, "Resource not found", http.StatusNotFound, nil)
	ErrTooManyRequests    = NewError(ErrCodeTooManyRequests, "Too many requests", http.StatusTooManyRequests, nil)
	ErrInternalError      = NewError(ErrCodeInternalError, "Internal server error", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "Service unavailable", http.StatusServiceUnavailable, nil)

	// 快取錯誤
	ErrCacheMiss     = errors.New("cache miss")
	ErrCacheDisabled = NewError("CACHE_DISABLED", "Cache disabled", http.StatusServiceUnavailable, nil)
	ErrCacheFull     = NewError("CACHE_FULL", "Cache full", http.StatusServiceUnavailable, nil)
)

// NewValidationError 輸入格式錯誤，使用者可自行修正
func NewValidationError(message string) *CustomError {
	return NewError(ErrCodeValidation, message, http.StatusBadRequest, nil)
}

// NewNotFoundError 目標資源不存在
func NewNotFoundError(message string) *CustomError {
	return NewError(ErrCodeNotFound, message, http.StatusNotFound, nil)
}

// NewConflictError slug 或資源衝突
func NewConflictError(message string) *CustomError {
	return NewError(ErrCodeConflict, message, http.StatusConflict, nil)
}

// NewInternalError 交易中的非預期錯誤，一律已回滾
func NewInternalError(message string, err error) *CustomError {
	return NewError(ErrCodeInternalError, message, http.StatusInternalServerError, err)
}

// AsCustomError 取出錯誤鏈中的 CustomError
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

func hasCode(err error, code string) bool {
	ce, ok := AsCustomError(err)
	return ok && ce.Code == code
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// IsNotFoundError 檢查是否為資源不存在
func IsNotFoundError(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsConflictError 檢查是否為衝突錯誤
func IsConflictError(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

// IsInternalError 檢查是否為內部錯誤
func IsInternalError(err error) bool {
	return hasCode(err, ErrCodeInternalError)
}
