// Package errors provides the application error type shared by services and
// handlers. Services return *AppError values only; handlers translate them
// into the JSON envelope without leaking the wrapped internal error.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError carrying the same code, so that
// errors.Is(err, ErrNotFound) matches wrapped copies of a sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Username or password is incorrect", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "You do not have permission to modify this resource", StatusCode: http.StatusForbidden}
	ErrTooManyRequests    = &AppError{Code: "TOO_MANY_REQUESTS", Message: "Too many attempts, please try again later", StatusCode: http.StatusTooManyRequests}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrTimeout        = &AppError{Code: "TIMEOUT", Message: "The database did not respond in time", StatusCode: http.StatusServiceUnavailable}
)

// User errors.
var (
	ErrUserNotFound      = &AppError{Code: "USER_NOT_FOUND", Message: "No user matches the given information", StatusCode: http.StatusNotFound}
	ErrDuplicateUsername = &AppError{Code: "DUPLICATE_USERNAME", Message: "Username is already taken", StatusCode: http.StatusConflict}
	ErrDuplicateEmail    = &AppError{Code: "DUPLICATE_EMAIL", Message: "Email is already registered", StatusCode: http.StatusConflict}
	ErrPasswordTooShort  = &AppError{Code: "PASSWORD_TOO_SHORT", Message: "Password must be at least 6 characters long", StatusCode: http.StatusBadRequest}
	ErrInvalidEmail      = &AppError{Code: "INVALID_EMAIL", Message: "Email address is not valid", StatusCode: http.StatusBadRequest}
	ErrWrongPassword     = &AppError{Code: "WRONG_PASSWORD", Message: "Current password is incorrect", StatusCode: http.StatusBadRequest}
)

// Asset errors.
var (
	ErrAssetNotFound          = &AppError{Code: "ASSET_NOT_FOUND", Message: "Asset not found", StatusCode: http.StatusNotFound}
	ErrAssetTypeNotFound      = &AppError{Code: "ASSET_TYPE_NOT_FOUND", Message: "Asset type not found", StatusCode: http.StatusNotFound}
	ErrDefaultAssetTypeLocked = &AppError{Code: "DEFAULT_ASSET_TYPE_IMMUTABLE", Message: "Default asset types cannot be modified or deleted", StatusCode: http.StatusForbidden}
	ErrDuplicateAssetTypeName = &AppError{Code: "DUPLICATE_ASSET_TYPE", Message: "An asset type with this name already exists", StatusCode: http.StatusConflict}
	ErrAssetTypeInUse         = &AppError{Code: "ASSET_TYPE_IN_USE", Message: "Asset type is still used by assets", StatusCode: http.StatusConflict}
)

// Category errors.
var (
	ErrCategoryNotFound     = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryTypeMismatch = &AppError{Code: "CATEGORY_TYPE_MISMATCH", Message: "Category type must match its parent category type", StatusCode: http.StatusBadRequest}
	ErrCategoryTooDeep      = &AppError{Code: "CATEGORY_TOO_DEEP", Message: "Categories can be nested at most three levels deep", StatusCode: http.StatusBadRequest}
	ErrSelfParentCategory   = &AppError{Code: "SELF_PARENT_CATEGORY", Message: "A category cannot be its own parent", StatusCode: http.StatusBadRequest}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrTransactionFailed      = &AppError{Code: "TRANSACTION_OPERATION_FAILED", Message: "Could not modify the transaction", StatusCode: http.StatusInternalServerError}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Transaction type must be income, expense or transfer", StatusCode: http.StatusBadRequest}
	ErrInvalidAmount          = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must be greater than zero", StatusCode: http.StatusBadRequest}
)

// Memo errors.
var (
	ErrMemoNotFound = &AppError{Code: "MEMO_NOT_FOUND", Message: "Memo not found", StatusCode: http.StatusNotFound}
)
