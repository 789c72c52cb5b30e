package executor

import (
	"time"

	"toolhub/internal/api"
)

// Result is the canonical invocation envelope. Exactly one of Outputs and
// Error is meaningful, selected by Success.
type Result struct {
	Success  bool           `json:"success"`
	Outputs  map[string]any `json:"outputs,omitempty"`
	Error    *ErrorInfo     `json:"error,omitempty"`
	Metadata Metadata       `json:"metadata"`
}

// ErrorInfo describes why an invocation failed.
type ErrorInfo struct {
	Code    api.Code `json:"code"`
	Message string   `json:"message"`
	Details any      `json:"details,omitempty"`
}

// Metadata is filled in by the adapter for every invocation.
type Metadata struct {
	// ExecutionTime is the wall time in milliseconds.
	ExecutionTime  int64     `json:"executionTime"`
	InvocationID   string    `json:"invocationId"`
	CapabilityType string    `json:"capabilityType"`
	Runtime        string    `json:"runtime,omitempty"`
	PluginOwner    string    `json:"pluginOwner,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
}

// Success builds a successful envelope. Executors may return it directly.
func Success(outputs map[string]any) *Result {
	if outputs == nil {
		outputs = map[string]any{}
	}
	return &Result{Success: true, Outputs: outputs}
}

// Failure builds a failed envelope. Executors may return it directly.
func Failure(code api.Code, message string) *Result {
	return &Result{Error: &ErrorInfo{Code: code, Message: message}}
}

func failureFromError(err error) *Result {
	code := api.CodeOf(err)
	if code == api.CodeInternal {
		code = api.CodeInvocationFailed
	}
	return Failure(code, err.Error())
}
