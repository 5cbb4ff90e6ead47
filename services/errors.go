package services

import (
	"errors"
	"fmt"
	"maps"
)

// ErrorType classifies a DomainError. Handlers map it to an HTTP status.
type ErrorType string

const (
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeUnauthorized    ErrorType = "unauthorized"
	ErrorTypeForbidden       ErrorType = "forbidden"
	ErrorTypeRateLimit       ErrorType = "rate_limit"
	ErrorTypeConflict        ErrorType = "conflict"
	ErrorTypeInternal        ErrorType = "internal"
	ErrorTypeExternal        ErrorType = "external"
	ErrorTypePolicyViolation ErrorType = "policy_violation"
)

// DomainError is the error type services return to handlers.
// Message is safe to show to clients; Err is logged only.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError of the same Type, so errors.Is(err, ErrEmptyQuery)
// holds for every validation error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail returns a copy of e carrying one more detail. e is not modified,
// so it is safe to call on the package-level sentinels.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	c := e.clone()
	c.Details[key] = value
	return c
}

// Wrap returns a copy of e with cause attached
func (e *DomainError) Wrap(cause error) *DomainError {
	c := e.clone()
	c.Err = cause
	return c
}

func (e *DomainError) clone() *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	maps.Copy(details, e.Details)
	return &DomainError{Type: e.Type, Message: e.Message, Err: e.Err, Details: details}
}

func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

var (
	ErrDocumentNotFound = NewDomainError(ErrorTypeNotFound, "policy document not found", nil)

	ErrInvalidInput  = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrEmptyQuery    = NewDomainError(ErrorTypeValidation, "query cannot be empty", nil)
	ErrEmptyMessage  = NewDomainError(ErrorTypeValidation, "message cannot be empty", nil)
	ErrInvalidRating = NewDomainError(ErrorTypeValidation, "rating must be between 1 and 5", nil)
	ErrInvalidUserID = NewDomainError(ErrorTypeValidation, "invalid user id", nil)

	ErrUnauthorized = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrForbidden    = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)

	ErrRateLimitExceeded = NewDomainError(ErrorTypeRateLimit, "rate limit exceeded", nil)

	// ErrConcurrentUpdate is returned when a conversation append kept losing
	// the version race after every retry
	ErrConcurrentUpdate = NewDomainError(ErrorTypeConflict, "concurrent update detected", nil)

	ErrInternal = NewDomainError(ErrorTypeInternal, "internal server error", nil)

	ErrProviderUnavailable = NewDomainError(ErrorTypeExternal, "language model unavailable", nil)
	ErrProviderTimeout     = NewDomainError(ErrorTypeExternal, "language model timeout", nil)

	ErrInjectionDetected = NewDomainError(ErrorTypePolicyViolation, "message rejected by prompt guard", nil)
)

func hasType(err error, t ErrorType) bool {
	return GetErrorType(err) == t
}

func IsNotFoundError(err error) bool        { return hasType(err, ErrorTypeNotFound) }
func IsValidationError(err error) bool      { return hasType(err, ErrorTypeValidation) }
func IsUnauthorizedError(err error) bool    { return hasType(err, ErrorTypeUnauthorized) }
func IsForbiddenError(err error) bool       { return hasType(err, ErrorTypeForbidden) }
func IsRateLimitError(err error) bool       { return hasType(err, ErrorTypeRateLimit) }
func IsConflictError(err error) bool        { return hasType(err, ErrorTypeConflict) }
func IsInternalError(err error) bool        { return hasType(err, ErrorTypeInternal) }
func IsExternalError(err error) bool        { return hasType(err, ErrorTypeExternal) }
func IsPolicyViolationError(err error) bool { return hasType(err, ErrorTypePolicyViolation) }

// GetErrorType returns the type of the outermost DomainError in err's chain,
// or "" when there is none
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details of the outermost DomainError, or nil
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal hides err behind a generic client message
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}
