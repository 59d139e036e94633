package apidoc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/broady/apidoc/analysis"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	CodeInvalidConfig      ErrorCode = "invalid_config"
	CodeConstructionFailed ErrorCode = "construction_failed"
	CodeCanceled           ErrorCode = "canceled"
	CodeDeadlineExceeded   ErrorCode = "deadline_exceeded"
	CodeInternal           ErrorCode = "internal"
)

// Error is a failure summarized for reporting.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail returns a new Error with the key-value pair added to details.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// ExitCode maps an ErrorCode to a process exit status.
func (c ErrorCode) ExitCode() int {
	switch c {
	case CodeInvalidConfig:
		return 2
	case CodeConstructionFailed:
		return 3
	case CodeCanceled, CodeDeadlineExceeded:
		return 4
	default:
		return 1
	}
}

// OperationError is the failure of one operation's analysis.
type OperationError struct {
	// Key identifies the operation.
	Key string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %s: %v", e.Key, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// Members returns the member construction failures behind e.
func (e *OperationError) Members() []*analysis.MemberError {
	var merr *multierror.Error
	if !errors.As(e.Err, &merr) {
		var me *analysis.MemberError
		if errors.As(e.Err, &me) {
			return []*analysis.MemberError{me}
		}
		return nil
	}
	var out []*analysis.MemberError
	for _, err := range merr.WrappedErrors() {
		var me *analysis.MemberError
		if errors.As(err, &me) {
			out = append(out, me)
		}
	}
	return out
}

// ToError summarizes err for reporting.
func ToError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(CodeDeadlineExceeded, "analysis timed out")
	}

	if errors.Is(err, context.Canceled) {
		return NewError(CodeCanceled, "analysis canceled")
	}

	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		details := make(map[string]any)
		messages := make([]string, 0, len(valErrs))
		for _, ve := range valErrs {
			msg := formatValidationError(ve)
			details[ve.Namespace()] = msg
			messages = append(messages, ve.Namespace()+": "+msg)
		}
		return &Error{
			Code:    CodeInvalidConfig,
			Message: strings.Join(messages, "; "),
			Details: details,
		}
	}

	var opErr *OperationError
	if errors.As(err, &opErr) {
		details := make(map[string]any)
		for _, me := range opErr.Members() {
			details[me.Path] = me.Err.Error()
		}
		return &Error{
			Code:    CodeConstructionFailed,
			Message: opErr.Error(),
			Details: details,
		}
	}

	return NewError(CodeInternal, err.Error())
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "gte":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "bcp47_language_tag":
		return "must be a BCP 47 language tag"
	case "timezone":
		return "must be an IANA time zone name"
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
