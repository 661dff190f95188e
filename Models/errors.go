package Models

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes domain errors so callers can react without
// parsing messages.
type ErrorCode string

const (
	ErrCodeNotFound              ErrorCode = "NOT_FOUND"
	ErrCodeForbidden             ErrorCode = "FORBIDDEN"
	ErrCodeCompletedEntityLocked ErrorCode = "COMPLETED_ENTITY_LOCKED"
	ErrCodePreconditionFailed    ErrorCode = "PRECONDITION_FAILED"
	ErrCodeInvalidCompletionDate ErrorCode = "INVALID_COMPLETION_DATE"
	ErrCodeQuotaExceeded         ErrorCode = "QUOTA_EXCEEDED"
	ErrCodeDuplicateDependency   ErrorCode = "DUPLICATE_DEPENDENCY"
	ErrCodeConfigMissing         ErrorCode = "CONFIG_MISSING"
	ErrCodeConcurrencyConflict   ErrorCode = "CONCURRENCY_CONFLICT"
	ErrCodeInvalidInput          ErrorCode = "INVALID_INPUT"
	ErrCodeUnauthorized          ErrorCode = "UNAUTHORIZED"
)

// DomainError is returned by every core operation that rejects a request.
//
// Entity and ID are optional and identify the object the error is about.
type DomainError struct {
	Code    ErrorCode
	Message string
	Entity  string
	ID      string
}

func (e *DomainError) Error() string {
	if e.Entity != "" && e.ID != "" {
		return fmt.Sprintf("%s: %s (%s=%s)", e.Code, e.Message, e.Entity, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// HasCode reports whether err wraps a DomainError with the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

func NewNotFound(entity string, id any) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: entity + " not found",
		Entity:  entity,
		ID:      fmt.Sprint(id),
	}
}

func NewForbidden(message string) *DomainError {
	return &DomainError{Code: ErrCodeForbidden, Message: message}
}

func NewLocked(entity string, id any) *DomainError {
	return &DomainError{
		Code:    ErrCodeCompletedEntityLocked,
		Message: "cannot modify a completed " + entity,
		Entity:  entity,
		ID:      fmt.Sprint(id),
	}
}

func NewPreconditionFailed(message string) *DomainError {
	return &DomainError{Code: ErrCodePreconditionFailed, Message: message}
}

func NewInvalidCompletionDate(message string) *DomainError {
	return &DomainError{Code: ErrCodeInvalidCompletionDate, Message: message}
}

func NewQuotaExceeded(message string) *DomainError {
	return &DomainError{Code: ErrCodeQuotaExceeded, Message: message}
}

func NewDuplicateDependency(taskID uint) *DomainError {
	return &DomainError{
		Code:    ErrCodeDuplicateDependency,
		Message: "this dependency already exists for this person",
		Entity:  "task",
		ID:      fmt.Sprint(taskID),
	}
}

func NewConfigMissing(role Role) *DomainError {
	return &DomainError{
		Code:    ErrCodeConfigMissing,
		Message: "role configuration not found, please contact administrator",
		Entity:  "role",
		ID:      string(role),
	}
}

func NewConflict(entity string, id any) *DomainError {
	return &DomainError{
		Code:    ErrCodeConcurrencyConflict,
		Message: entity + " was modified concurrently",
		Entity:  entity,
		ID:      fmt.Sprint(id),
	}
}

func NewInvalidInput(message string) *DomainError {
	return &DomainError{Code: ErrCodeInvalidInput, Message: message}
}

func NewUnauthorized(message string) *DomainError {
	return &DomainError{Code: ErrCodeUnauthorized, Message: message}
}
