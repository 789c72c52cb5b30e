package api

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error identifier. Codes travel inside
// execution envelopes and JSON-RPC error data, so their string values are part
// of the external contract.
type Code string

const (
	CodeCapabilityNotFound        Code = "CAPABILITY_NOT_FOUND"
	CodeDependencyUnavailable     Code = "DEPENDENCY_UNAVAILABLE"
	CodeInvocationTimeout         Code = "INVOCATION_TIMEOUT"
	CodeInvocationAborted         Code = "INVOCATION_ABORTED"
	CodeInvocationFailed          Code = "INVOCATION_FAILED"
	CodeCategoryNotAllowed        Code = "CATEGORY_NOT_ALLOWED"
	CodeUnknownMethod             Code = "UNKNOWN_METHOD"
	CodeInvalidParams             Code = "INVALID_PARAMS"
	CodePluginNotFound            Code = "PLUGIN_NOT_FOUND"
	CodePluginAlreadyInstalled    Code = "PLUGIN_ALREADY_INSTALLED"
	CodeLifecycleTransitionFailed Code = "LIFECYCLE_TRANSITION_FAILED"
	CodeResourceNotFound          Code = "RESOURCE_NOT_FOUND"
	CodeInternal                  Code = "INTERNAL"
)

// Error is the typed error used across toolhub. It carries a Code so callers
// at the protocol boundary can map it to a structured response, and an
// optional Cause for wrapping.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Code. This allows
//
//	errors.Is(err, &api.Error{Code: api.CodePluginNotFound})
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New creates an Error with the given code and message.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error with the given code, message and cause.
func Wrap(code Code, cause error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the Code of err. Errors that are not (and do not wrap) an
// *Error report CodeInternal; a nil error reports the empty code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return CodeInternal
}

// IsCode checks whether err is or wraps an *Error with the given code.
//
// Example:
//
//	m, err := manager.Get("brave-search")
//	if api.IsCode(err, api.CodePluginNotFound) {
//	    // ...
//	}
func IsCode(err error, code Code) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == code
}

// IsNotFound checks if an error is one of the not-found codes.
func IsNotFound(err error) bool {
	return IsCode(err, CodeCapabilityNotFound) ||
		IsCode(err, CodePluginNotFound) ||
		IsCode(err, CodeResourceNotFound)
}

func NewCapabilityNotFoundError(capType string) *Error {
	return New(CodeCapabilityNotFound, "capability %q not found", capType)
}

func NewPluginNotFoundError(id string) *Error {
	return New(CodePluginNotFound, "plugin %q not found", id)
}

func NewResourceNotFoundError(uri string) *Error {
	return New(CodeResourceNotFound, "resource %q not found", uri)
}
