package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"toolhub/internal/api"
	"toolhub/internal/capability"
	"toolhub/internal/executor"
	"toolhub/internal/tracing"
	"toolhub/pkg/logging"
)

// Method names.
const (
	MethodInitialize         = "initialize"
	MethodListCapabilities   = "list-capabilities"
	MethodCallCapability     = "call-capability"
	MethodListResources      = "list-resources"
	MethodReadResource       = "read-resource"
	MethodSearchCapabilities = "search-capabilities"
	MethodListCategories     = "list-categories"
	MethodGetRequestLog      = "get-request-log"
)

// ProtocolVersion is reported by initialize.
const ProtocolVersion = "2025-06-18"

const defaultCacheTTL = 5 * time.Minute

// Invoker runs capabilities. *executor.Adapter implements it.
type Invoker interface {
	Invoke(ctx context.Context, capType string, inputs, config map[string]any, opts ...executor.InvokeOption) *executor.Result
}

// Options configures a Server.
type Options struct {
	Name              string
	Version           string
	AllowedCategories []string
	RequestLogSize    int
	CacheTTL          time.Duration
	Tracer            trace.Tracer
}

type handlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Server dispatches JSON-RPC requests against the capability registry.
// Handle never panics and never returns an error; every failure becomes a
// JSON-RPC error response.
type Server struct {
	name    string
	version string

	registry *capability.Registry
	invoker  Invoker
	tracer   trace.Tracer

	allowMu    sync.RWMutex
	allowed    []string
	allowGen   uint64
	listCache  *cache.Cache
	requestLog *RequestLog

	resourcesMu sync.RWMutex
	resources   []Resource

	handlers    map[string]handlerFunc
	unsubscribe func()
}

// NewServer creates a server over registry that invokes through invoker.
func NewServer(registry *capability.Registry, invoker Invoker, opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "toolhub"
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("noop")
	}

	s := &Server{
		name:       opts.Name,
		version:    opts.Version,
		registry:   registry,
		invoker:    invoker,
		tracer:     opts.Tracer,
		allowed:    normalizeAllowList(opts.AllowedCategories),
		listCache:  cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		requestLog: NewRequestLog(opts.RequestLogSize),
	}
	s.handlers = map[string]handlerFunc{
		MethodInitialize:         s.handleInitialize,
		MethodListCapabilities:   s.handleListCapabilities,
		MethodCallCapability:     s.handleCallCapability,
		MethodListResources:      s.handleListResources,
		MethodReadResource:       s.handleReadResource,
		MethodSearchCapabilities: s.handleSearchCapabilities,
		MethodListCategories:     s.handleListCategories,
		MethodGetRequestLog:      s.handleGetRequestLog,
	}
	s.registerBuiltinResources()

	s.unsubscribe = registry.Subscribe(func(capability.Change) {
		s.listCache.Flush()
	})
	return s
}

// Close detaches the server from the registry.
func (s *Server) Close() {
	s.unsubscribe()
}

// RequestLog returns the log of capability calls.
func (s *Server) RequestLog() *RequestLog {
	return s.requestLog
}

// SetAllowedCategories replaces the category allow-list. An empty list or
// one containing "*" allows every category.
func (s *Server) SetAllowedCategories(prefixes []string) {
	s.allowMu.Lock()
	s.allowed = normalizeAllowList(prefixes)
	s.allowGen++
	s.allowMu.Unlock()

	s.listCache.Flush()
	logging.Info("Protocol", "Allowed categories set to %v", prefixes)
}

// AllowedCategories returns the current allow-list; nil means everything.
func (s *Server) AllowedCategories() []string {
	s.allowMu.RLock()
	defer s.allowMu.RUnlock()
	return append([]string(nil), s.allowed...)
}

// IsCategoryAllowed reports whether category passes the allow-list.
func (s *Server) IsCategoryAllowed(category string) bool {
	s.allowMu.RLock()
	defer s.allowMu.RUnlock()
	return categoryAllowed(s.allowed, category)
}

func normalizeAllowList(prefixes []string) []string {
	var out []string
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "*" {
			return nil
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func categoryAllowed(allowed []string, category string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, p := range allowed {
		if strings.HasPrefix(category, p) {
			return true
		}
	}
	return false
}

// Handle decodes one raw request and returns the encoded response.
func (s *Server) Handle(ctx context.Context, raw []byte) []byte {
	var req Request
	var resp *Response
	if err := json.Unmarshal(raw, &req); err != nil {
		resp = errorResponse(mcp.RequestId{}, mcp.PARSE_ERROR, "parse error: "+err.Error(), nil)
	} else {
		resp = s.HandleRequest(ctx, req)
	}

	out, err := json.Marshal(resp)
	if err != nil {
		logging.Error("Protocol", err, "Failed to encode response to %s", req.Method)
		out, _ = json.Marshal(errorResponse(req.ID, mcp.INTERNAL_ERROR, "failed to encode response", nil))
	}
	return out
}

// HandleRequest dispatches a decoded request.
func (s *Server) HandleRequest(ctx context.Context, req Request) (resp *Response) {
	ctx, span := s.tracer.Start(ctx, tracing.SpanRPC, trace.WithAttributes(
		attribute.String(tracing.AttrRPCMethod, req.Method),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			logging.Error("Protocol", fmt.Errorf("panic: %v", r), "Handler for %s panicked\n%s", req.Method, debug.Stack())
			span.SetStatus(codes.Error, "panic")
			resp = errorResponse(req.ID, mcp.INTERNAL_ERROR, "internal error", nil)
		}
	}()

	if req.Method == "" {
		return errorResponse(req.ID, mcp.INVALID_REQUEST, "invalid request: method is required", nil)
	}

	handler, ok := s.handlers[req.Method]
	if !ok {
		err := api.New(api.CodeUnknownMethod, "method not found: %s", req.Method)
		span.SetStatus(codes.Error, err.Message)
		return errorFrom(req.ID, err)
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if api.CodeOf(err) == api.CodeInternal {
			logging.Error("Protocol", err, "Method %s failed", req.Method)
		}
		return errorFrom(req.ID, err)
	}
	return resultResponse(req.ID, result)
}

// decodeParams unmarshals params into v. Absent params leave v untouched.
func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return api.Wrap(api.CodeInvalidParams, err, "invalid params")
	}
	return nil
}
