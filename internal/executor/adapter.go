package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"toolhub/internal/api"
	"toolhub/internal/capability"
	"toolhub/internal/tracing"
	"toolhub/pkg/logging"
)

// DefaultTimeout bounds an invocation when the caller does not pass one.
const DefaultTimeout = 30 * time.Second

// Lookup resolves capability definitions. *capability.Registry implements it.
type Lookup interface {
	Get(capType string) (capability.Definition, bool)
}

// DependencyChecker reports whether a named external dependency (a plugin id
// or "llm") can currently serve calls.
type DependencyChecker interface {
	IsAvailable(name string) bool
}

// DependencyCheckerFunc adapts a function to DependencyChecker.
type DependencyCheckerFunc func(name string) bool

// IsAvailable calls f.
func (f DependencyCheckerFunc) IsAvailable(name string) bool { return f(name) }

// Adapter runs capability executors with a timeout, honors caller
// cancellation, and normalizes every outcome into a Result.
type Adapter struct {
	lookup         Lookup
	deps           DependencyChecker
	tracer         trace.Tracer
	defaultTimeout time.Duration
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithDependencyChecker sets the checker consulted for Requirements.Provider.
// Without one, every dependency is considered available.
func WithDependencyChecker(c DependencyChecker) Option {
	return func(a *Adapter) { a.deps = c }
}

// WithTracer sets the tracer used for invocation spans.
func WithTracer(t trace.Tracer) Option {
	return func(a *Adapter) { a.tracer = t }
}

// WithDefaultTimeout overrides DefaultTimeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.defaultTimeout = d
		}
	}
}

// NewAdapter creates an adapter that resolves capabilities through lookup.
func NewAdapter(lookup Lookup, opts ...Option) *Adapter {
	a := &Adapter{
		lookup:         lookup,
		tracer:         noop.NewTracerProvider().Tracer("noop"),
		defaultTimeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type invokeOptions struct {
	timeout time.Duration
}

// InvokeOption configures a single invocation.
type InvokeOption func(*invokeOptions)

// WithTimeout sets the timeout of one invocation. Non-positive values keep
// the adapter default.
func WithTimeout(d time.Duration) InvokeOption {
	return func(o *invokeOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

type outcome struct {
	value any
	err   error
}

// Invoke runs the capability registered under capType. It never returns nil
// and never returns a Go error; failures are envelopes.
//
// When the timeout fires or ctx is cancelled before the executor finishes,
// Invoke stops waiting, cancels the context handed to the executor, and
// returns a failure. It does not wait for the executor to observe the
// cancellation, so the underlying operation may still complete in the
// background. A result that is already available when the timer or
// cancellation fires is returned instead of the failure.
func (a *Adapter) Invoke(ctx context.Context, capType string, inputs, config map[string]any, opts ...InvokeOption) *Result {
	o := invokeOptions{timeout: a.defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	started := time.Now()
	meta := Metadata{
		InvocationID:   uuid.New().String(),
		CapabilityType: capType,
		StartedAt:      started.UTC(),
	}

	ctx, span := a.tracer.Start(ctx, tracing.SpanInvoke, trace.WithAttributes(
		attribute.String(tracing.AttrCapabilityType, capType),
		attribute.String(tracing.AttrInvocationID, meta.InvocationID),
	))
	defer span.End()

	result := a.invoke(ctx, capType, inputs, config, o, &meta)
	meta.ExecutionTime = time.Since(started).Milliseconds()
	result.Metadata = meta

	span.SetAttributes(attribute.Bool(tracing.AttrSuccess, result.Success))
	if !result.Success && result.Error != nil {
		span.SetAttributes(attribute.String(tracing.AttrErrorCode, string(result.Error.Code)))
		span.SetStatus(codes.Error, result.Error.Message)
	}
	return result
}

func (a *Adapter) invoke(ctx context.Context, capType string, inputs, config map[string]any, o invokeOptions, meta *Metadata) *Result {
	def, ok := a.lookup.Get(capType)
	if !ok {
		return Failure(api.CodeCapabilityNotFound, fmt.Sprintf("capability %q not found", capType))
	}
	meta.Runtime = string(def.Runtime)
	meta.PluginOwner = def.PluginOwner

	if def.Requirements != nil && def.Requirements.Provider != "" && a.deps != nil {
		if !a.deps.IsAvailable(def.Requirements.Provider) {
			return Failure(api.CodeDependencyUnavailable,
				fmt.Sprintf("dependency %q required by %s is not available", def.Requirements.Provider, capType))
		}
	}
	if def.Executor == nil {
		return Failure(api.CodeInvocationFailed, fmt.Sprintf("capability %q has no executor", capType))
	}
	if inputs == nil {
		inputs = map[string]any{}
	}
	if config == nil {
		config = map[string]any{}
	}

	execCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan outcome, 1)
	go run(execCtx, def.Executor, capType, inputs, config, done)

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return fromOutcome(out)
	case <-timer.C:
		if out, ok := ready(done); ok {
			return fromOutcome(out)
		}
		logging.Warn("Executor", "Invocation of %s timed out after %s", capType, o.timeout)
		return Failure(api.CodeInvocationTimeout, fmt.Sprintf("invocation timed out after %s", o.timeout))
	case <-ctx.Done():
		if out, ok := ready(done); ok {
			return fromOutcome(out)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Failure(api.CodeInvocationTimeout, "caller deadline exceeded")
		}
		return Failure(api.CodeInvocationAborted, "invocation aborted by caller")
	}
}

func run(ctx context.Context, exec capability.Executor, capType string, inputs, config map[string]any, done chan<- outcome) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Executor", fmt.Errorf("panic: %v", r), "Executor for %s panicked\n%s", capType, debug.Stack())
			done <- outcome{err: fmt.Errorf("executor panicked: %v", r)}
		}
	}()
	v, err := exec.Execute(ctx, inputs, config)
	done <- outcome{value: v, err: err}
}

func ready(done <-chan outcome) (outcome, bool) {
	select {
	case out := <-done:
		return out, true
	default:
		return outcome{}, false
	}
}

func fromOutcome(out outcome) *Result {
	if out.err != nil {
		return failureFromError(out.err)
	}
	return Normalize(out.value)
}
