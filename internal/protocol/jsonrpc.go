package protocol

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"toolhub/internal/api"
)

// Application error codes. The JSON-RPC reserved codes come from mcp-go.
const (
	CodeCapabilityNotFound    = -32001
	CodeResourceNotFound      = mcp.RESOURCE_NOT_FOUND
	CodeCategoryNotAllowed    = -32003
	CodePluginNotFound        = -32004
	CodeDependencyUnavailable = -32005
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      mcp.RequestId   `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response. Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string                   `json:"jsonrpc"`
	ID      mcp.RequestId            `json:"id"`
	Result  any                      `json:"result,omitempty"`
	Error   *mcp.JSONRPCErrorDetails `json:"error,omitempty"`
}

func resultResponse(id mcp.RequestId, result any) *Response {
	if result == nil {
		result = struct{}{}
	}
	return &Response{JSONRPC: mcp.JSONRPC_VERSION, ID: id, Result: result}
}

func errorResponse(id mcp.RequestId, code int, message string, data any) *Response {
	return &Response{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Error:   &mcp.JSONRPCErrorDetails{Code: code, Message: message, Data: data},
	}
}

// errorFrom converts err into a JSON-RPC error response. The api code, when
// there is one, travels in data.code.
func errorFrom(id mcp.RequestId, err error) *Response {
	code := api.CodeOf(err)
	return errorResponse(id, rpcCode(code), err.Error(), map[string]any{"code": code})
}

func rpcCode(code api.Code) int {
	switch code {
	case api.CodeUnknownMethod:
		return mcp.METHOD_NOT_FOUND
	case api.CodeInvalidParams:
		return mcp.INVALID_PARAMS
	case api.CodeCapabilityNotFound:
		return CodeCapabilityNotFound
	case api.CodeResourceNotFound:
		return CodeResourceNotFound
	case api.CodeCategoryNotAllowed:
		return CodeCategoryNotAllowed
	case api.CodePluginNotFound:
		return CodePluginNotFound
	case api.CodeDependencyUnavailable:
		return CodeDependencyUnavailable
	default:
		return mcp.INTERNAL_ERROR
	}
}
