package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := New(CodePluginNotFound, "plugin %q not found", "github")
	assert.Equal(t, `PLUGIN_NOT_FOUND: plugin "github" not found`, err.Error())

	wrapped := Wrap(CodeLifecycleTransitionFailed, errors.New("exec: not found"), "start %s", "github")
	assert.Equal(t, "LIFECYCLE_TRANSITION_FAILED: start github: exec: not found", wrapped.Error())
}

func TestIsCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"direct", NewPluginNotFoundError("x"), CodePluginNotFound, true},
		{"wrapped", fmt.Errorf("outer: %w", NewPluginNotFoundError("x")), CodePluginNotFound, true},
		{"other code", NewPluginNotFoundError("x"), CodeInternal, false},
		{"plain error", errors.New("boom"), CodeInternal, false},
		{"nil", nil, CodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsCode(tt.err, tt.code))
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeResourceNotFound, CodeOf(fmt.Errorf("read: %w", NewResourceNotFoundError("toolhub://x"))))
}

func TestErrorsIs(t *testing.T) {
	err := fmt.Errorf("wrap: %w", New(CodeInvalidParams, "missing name"))
	assert.True(t, errors.Is(err, &Error{Code: CodeInvalidParams}))
	assert.False(t, errors.Is(err, &Error{Code: CodeInternal}))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(CodeInternal, cause, "failed")
	assert.True(t, errors.Is(err, cause))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NewCapabilityNotFoundError("a.b")))
	assert.True(t, IsNotFound(NewPluginNotFoundError("p")))
	assert.True(t, IsNotFound(NewResourceNotFoundError("toolhub://x")))
	assert.False(t, IsNotFound(New(CodeInternal, "x")))
}
