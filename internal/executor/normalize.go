package executor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"toolhub/internal/api"
)

// Normalize converts whatever an executor returned into an envelope.
//
//   - *Result and Result pass through unchanged.
//   - A map with a boolean "success" and an "outputs" or "error" key is an
//     explicit envelope.
//   - *mcp.CallToolResult maps IsError to INVOCATION_FAILED and success to
//     {result, text, content}.
//   - Any other map is the outputs object.
//   - Any other value v becomes {result: v}.
func Normalize(v any) *Result {
	switch t := v.(type) {
	case *Result:
		if t == nil {
			return Success(nil)
		}
		out := *t
		return &out
	case Result:
		return &t
	case *mcp.CallToolResult:
		if t == nil {
			return Success(nil)
		}
		return fromCallToolResult(*t)
	case mcp.CallToolResult:
		return fromCallToolResult(t)
	case map[string]any:
		if r, ok := fromEnvelope(t); ok {
			return r
		}
		return Success(t)
	default:
		return Success(map[string]any{"result": v})
	}
}

func fromEnvelope(m map[string]any) (*Result, bool) {
	success, ok := m["success"].(bool)
	if !ok {
		return nil, false
	}
	outputs, hasOutputs := m["outputs"]
	errValue, hasError := m["error"]
	if !hasOutputs && !hasError {
		return nil, false
	}

	if success {
		switch o := outputs.(type) {
		case map[string]any:
			return Success(o), true
		case nil:
			return Success(nil), true
		default:
			return Success(map[string]any{"result": o}), true
		}
	}

	r := Failure(api.CodeInvocationFailed, "invocation failed")
	switch e := errValue.(type) {
	case string:
		r.Error.Message = e
	case map[string]any:
		if code, ok := e["code"].(string); ok && code != "" {
			r.Error.Code = api.Code(code)
		}
		if msg, ok := e["message"].(string); ok && msg != "" {
			r.Error.Message = msg
		}
		r.Error.Details = e["details"]
	case error:
		r.Error.Message = e.Error()
	case nil:
	default:
		r.Error.Message = fmt.Sprint(e)
	}
	return r, true
}

func fromCallToolResult(res mcp.CallToolResult) *Result {
	text := joinText(res.Content)

	if res.IsError {
		msg := text
		if msg == "" {
			msg = "tool reported an error"
		}
		r := Failure(api.CodeInvocationFailed, msg)
		if res.StructuredContent != nil {
			r.Error.Details = res.StructuredContent
		}
		return r
	}

	var result any
	switch {
	case res.StructuredContent != nil:
		result = res.StructuredContent
	case text != "":
		var parsed any
		if err := json.Unmarshal([]byte(text), &parsed); err == nil {
			result = parsed
		} else {
			result = text
		}
	}

	return Success(map[string]any{
		"result":  result,
		"text":    text,
		"content": res.Content,
	})
}

func joinText(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
