package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeUnauthorized indicates a missing or invalid credential
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeForbidden indicates an authenticated caller without the required role
	ErrorTypeForbidden ErrorType = "FORBIDDEN"

	// ErrorTypePartialFailure indicates a multi-collection write that stopped halfway
	ErrorTypePartialFailure ErrorType = "PARTIAL_FAILURE"

	// ErrorTypeMissingCollection indicates a backing collection file is absent
	ErrorTypeMissingCollection ErrorType = "MISSING_COLLECTION"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// Codes returned to clients alongside the message.
const (
	CodeUnauthenticated          = "UNAUTHENTICATED"
	CodeForbidden                = "FORBIDDEN"
	CodeReviewNotFound           = "REVIEW_NOT_FOUND"
	CodeUserNotFound             = "USER_NOT_FOUND"
	CodeMovieNotFound            = "MOVIE_NOT_FOUND"
	CodeReplyNotFound            = "REPLY_NOT_FOUND"
	CodeLikeNotFound             = "LIKE_NOT_FOUND"
	CodeFavoriteNotFound         = "FAVORITE_NOT_FOUND"
	CodeNotFound                 = "NOT_FOUND"
	CodeValidation               = "VALIDATION_ERROR"
	CodeConflict                 = "CONFLICT"
	CodePartialModerationFailure = "PARTIAL_MODERATION_FAILURE"
	CodeMissingCollection        = "MISSING_COLLECTION"
	CodeInternal                 = "INTERNAL"
	CodeExternal                 = "EXTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Code:    CodeNotFound,
		Message: message,
	}
}

// NewReviewNotFoundError reports a review id with no stored record
func NewReviewNotFoundError(reviewID int) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Code:    CodeReviewNotFound,
		Message: fmt.Sprintf("review %d not found", reviewID),
	}
}

// NewUserNotFoundError reports a user id with no stored record
func NewUserNotFoundError(userID int) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Code:    CodeUserNotFound,
		Message: fmt.Sprintf("user %d not found", userID),
	}
}

// NewMovieNotFoundError reports a movie id with no stored record
func NewMovieNotFoundError(movieID int) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Code:    CodeMovieNotFound,
		Message: fmt.Sprintf("movie %d not found", movieID),
	}
}

// NewCodedNotFoundError creates a not found error with a specific code
func NewCodedNotFoundError(code, message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Code:    CodeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Code:    CodeConflict,
		Message: message,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Code:    CodeUnauthenticated,
		Message: message,
	}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeForbidden,
		Code:    CodeForbidden,
		Message: message,
	}
}

// NewPartialModerationError reports a flag whose review write landed but whose
// penalty write did not. Retrying the flag completes it.
func NewPartialModerationError(reviewID, userID int, err error) *AppError {
	return &AppError{
		Type:    ErrorTypePartialFailure,
		Code:    CodePartialModerationFailure,
		Message: fmt.Sprintf("review %d was flagged but the penalty for user %d was not recorded", reviewID, userID),
		Err:     err,
	}
}

// NewMissingCollectionError reports an absent collection file
func NewMissingCollectionError(name, path string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeMissingCollection,
		Code:    CodeMissingCollection,
		Message: fmt.Sprintf("collection %q not found at %s", name, path),
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Code:    CodeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Code:    CodeExternal,
		Message: message,
		Err:     err,
	}
}

// As returns the first AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// HasCode reports whether err carries an AppError with the given code
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// HTTPStatus maps an error to the status code served for it
func HTTPStatus(err error) int {
	appErr, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch appErr.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeForbidden:
		return http.StatusForbidden
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
