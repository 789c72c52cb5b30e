package executor

import (
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolhub/internal/api"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		in          any
		wantSuccess bool
		wantOutputs map[string]any
		wantCode    api.Code
		wantMessage string
	}{
		{
			name:        "bare object",
			in:          map[string]any{"count": 3},
			wantSuccess: true,
			wantOutputs: map[string]any{"count": 3},
		},
		{
			name:        "scalar",
			in:          "hello",
			wantSuccess: true,
			wantOutputs: map[string]any{"result": "hello"},
		},
		{
			name:        "slice",
			in:          []string{"a", "b"},
			wantSuccess: true,
			wantOutputs: map[string]any{"result": []string{"a", "b"}},
		},
		{
			name:        "explicit success envelope",
			in:          map[string]any{"success": true, "outputs": map[string]any{"text": "x"}},
			wantSuccess: true,
			wantOutputs: map[string]any{"text": "x"},
		},
		{
			name:        "explicit success envelope with scalar outputs",
			in:          map[string]any{"success": true, "outputs": 42},
			wantSuccess: true,
			wantOutputs: map[string]any{"result": 42},
		},
		{
			name:        "explicit failure envelope with string error",
			in:          map[string]any{"success": false, "error": "bad input"},
			wantCode:    api.CodeInvocationFailed,
			wantMessage: "bad input",
		},
		{
			name:        "explicit failure envelope with structured error",
			in:          map[string]any{"success": false, "error": map[string]any{"code": "INVALID_PARAMS", "message": "no query"}},
			wantCode:    api.CodeInvalidParams,
			wantMessage: "no query",
		},
		{
			name:        "success key without outputs is plain data",
			in:          map[string]any{"success": true, "count": 1},
			wantSuccess: true,
			wantOutputs: map[string]any{"success": true, "count": 1},
		},
		{
			name:        "non-bool success is plain data",
			in:          map[string]any{"success": "yes", "outputs": 1},
			wantSuccess: true,
			wantOutputs: map[string]any{"success": "yes", "outputs": 1},
		},
		{
			name:        "passthrough result",
			in:          Failure(api.CodeInvocationTimeout, "slow"),
			wantCode:    api.CodeInvocationTimeout,
			wantMessage: "slow",
		},
		{
			name:        "passthrough result value",
			in:          Result{Success: true, Outputs: map[string]any{"a": 1}},
			wantSuccess: true,
			wantOutputs: map[string]any{"a": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantSuccess, got.Success)
			if tt.wantSuccess {
				assert.Equal(t, tt.wantOutputs, got.Outputs)
				assert.Nil(t, got.Error)
				return
			}
			require.NotNil(t, got.Error)
			assert.Equal(t, tt.wantCode, got.Error.Code)
			assert.Equal(t, tt.wantMessage, got.Error.Message)
		})
	}
}

func TestNormalize_CallToolResult(t *testing.T) {
	t.Run("json text is parsed", func(t *testing.T) {
		got := Normalize(mcp.NewToolResultText(`{"hits": 2}`))
		require.True(t, got.Success)
		assert.Equal(t, map[string]any{"hits": float64(2)}, got.Outputs["result"])
		assert.Equal(t, `{"hits": 2}`, got.Outputs["text"])
		assert.NotNil(t, got.Outputs["content"])
	})

	t.Run("plain text stays text", func(t *testing.T) {
		got := Normalize(mcp.NewToolResultText("hello"))
		require.True(t, got.Success)
		assert.Equal(t, "hello", got.Outputs["result"])
	})

	t.Run("structured content wins", func(t *testing.T) {
		got := Normalize(mcp.NewToolResultStructured(map[string]any{"k": "v"}, "fallback"))
		require.True(t, got.Success)
		assert.Equal(t, map[string]any{"k": "v"}, got.Outputs["result"])
		assert.Equal(t, "fallback", got.Outputs["text"])
	})

	t.Run("error result", func(t *testing.T) {
		got := Normalize(mcp.NewToolResultError("rate limited"))
		require.False(t, got.Success)
		assert.Equal(t, api.CodeInvocationFailed, got.Error.Code)
		assert.Equal(t, "rate limited", got.Error.Message)
	})

	t.Run("nil pointer", func(t *testing.T) {
		var res *mcp.CallToolResult
		got := Normalize(res)
		assert.True(t, got.Success)
	})
}

func TestFailureFromError(t *testing.T) {
	assert.Equal(t, api.CodeInvocationFailed, failureFromError(errors.New("x")).Error.Code)
	assert.Equal(t, api.CodePluginNotFound, failureFromError(api.NewPluginNotFoundError("p")).Error.Code)
}
