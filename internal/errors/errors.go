// Package errors provides the typed error taxonomy shared by the advisor.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Type identifies the category of error
type Type string

const (
	// TypeValidation indicates bad input shape or value. The request is
	// rejected with a user-facing message.
	TypeValidation Type = "VALIDATION_ERROR"

	// TypeModelUnavailable indicates a model artifact failed to load.
	// Fatal at startup: the process must not serve predictions.
	TypeModelUnavailable Type = "MODEL_UNAVAILABLE"

	// TypeInference indicates a model rejected its input or produced an
	// unusable output. The request fails with a "no recommendation" answer.
	TypeInference Type = "INFERENCE_ERROR"

	// TypePolicyViolation indicates no valid bounded value exists for a
	// prediction under the configured business rules.
	TypePolicyViolation Type = "POLICY_VIOLATION"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeNotFound indicates a resource not found error
	TypeNotFound Type = "NOT_FOUND"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error is a classified failure. Context carries machine-readable detail
// (field, rule, model) that the API echoes back to clients.
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *Error) Error() string {
	msg := "[" + string(e.Type) + "] " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// WithContext sets a context key and returns e for chaining
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = map[string]interface{}{}
	}
	e.Context[key] = value
	return e
}

func New(t Type, message string) *Error {
	return &Error{Type: t, Message: message}
}

func Newf(t Type, format string, args ...interface{}) *Error {
	return New(t, fmt.Sprintf(format, args...))
}

// Wrap classifies cause under t
func Wrap(t Type, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause}
}

// As finds the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsType reports whether the first *Error in err's chain has type t
func IsType(err error, t Type) bool {
	if e, ok := As(err); ok {
		return e.Type == t
	}
	return false
}

// TypeOf returns the type of the first *Error in err's chain, or
// TypeInternal for foreign errors.
func TypeOf(err error) Type {
	if e, ok := As(err); ok {
		return e.Type
	}
	return TypeInternal
}

// HTTPStatus maps an error to the status code the API answers with.
// Inference failures are not listed: the API turns them into a
// "no recommendation" body with 200.
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case TypeValidation:
		return http.StatusBadRequest
	case TypePolicyViolation:
		return http.StatusUnprocessableEntity
	case TypeModelUnavailable:
		return http.StatusServiceUnavailable
	case TypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func Validation(message string) *Error {
	return New(TypeValidation, message)
}

func Validationf(format string, args ...interface{}) *Error {
	return Newf(TypeValidation, format, args...)
}

// ModelUnavailable creates a model-unavailable error
func ModelUnavailable(model string, cause error) *Error {
	return Wrap(TypeModelUnavailable, fmt.Sprintf("model %q is not available", model), cause).
		WithContext("model", model)
}

// Inference creates an inference error
func Inference(model string, cause error) *Error {
	return Wrap(TypeInference, fmt.Sprintf("model %q failed inference", model), cause).
		WithContext("model", model)
}

// PolicyViolation creates a policy violation error
func PolicyViolation(rule string, message string) *Error {
	return New(TypePolicyViolation, message).WithContext("rule", rule)
}

func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

// NotFound creates a not found error
func NotFound(resourceType, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", resourceType, identifier)
}

func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
