package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"toolhub/internal/api"
	"toolhub/internal/capability"
	"toolhub/internal/executor"
)

type listCapabilitiesParams struct {
	Category string `json:"category,omitempty"`
}

type listCapabilitiesResult struct {
	Capabilities []capability.Definition `json:"capabilities"`
	Count        int                     `json:"count"`
	Revision     uint64                  `json:"revision"`
}

type callCapabilityParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Inputs    map[string]any `json:"inputs,omitempty"`
	TimeoutMs int64          `json:"timeoutMs,omitempty"`
}

type searchParams struct {
	Query string `json:"query"`
}

type requestLogParams struct {
	Limit int `json:"limit,omitempty"`
}

func (s *Server) handleInitialize(context.Context, json.RawMessage) (any, error) {
	return map[string]any{
		"protocolVersion": ProtocolVersion,
		"serverInfo": map[string]any{
			"name":    s.name,
			"version": s.version,
		},
		"capabilities": map[string]any{
			"capabilities": map[string]any{"listChanged": true},
			"resources":    map[string]any{"listChanged": false},
		},
		"methods": []string{
			MethodInitialize,
			MethodListCapabilities,
			MethodCallCapability,
			MethodListResources,
			MethodReadResource,
			MethodSearchCapabilities,
			MethodListCategories,
			MethodGetRequestLog,
		},
	}, nil
}

func (s *Server) handleListCapabilities(_ context.Context, params json.RawMessage) (any, error) {
	var p listCapabilitiesParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return s.listCapabilities(p.Category), nil
}

// listCapabilities returns the allow-listed catalog. Results are cached per
// registry revision and allow-list generation, so a result computed
// concurrently with a mutation can never be served under the newer key.
func (s *Server) listCapabilities(category string) listCapabilitiesResult {
	revision := s.registry.Revision()
	s.allowMu.RLock()
	allowed := s.allowed
	gen := s.allowGen
	s.allowMu.RUnlock()

	key := fmt.Sprintf("%d/%d/%s", revision, gen, category)
	if cached, ok := s.listCache.Get(key); ok {
		return cached.(listCapabilitiesResult)
	}

	var defs []capability.Definition
	if category != "" {
		defs = s.registry.GetByCategory(category)
	} else {
		defs = s.registry.GetAll()
	}

	out := make([]capability.Definition, 0, len(defs))
	for _, d := range defs {
		if categoryAllowed(allowed, d.Category) {
			out = append(out, d)
		}
	}
	result := listCapabilitiesResult{Capabilities: out, Count: len(out), Revision: revision}
	s.listCache.SetDefault(key, result)
	return result
}

func (s *Server) handleCallCapability(ctx context.Context, params json.RawMessage) (any, error) {
	var p callCapabilityParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, api.New(api.CodeInvalidParams, "name is required")
	}

	def, ok := s.registry.Get(p.Name)
	if !ok {
		return nil, api.NewCapabilityNotFoundError(p.Name)
	}
	if !s.IsCategoryAllowed(def.Category) {
		return nil, api.New(api.CodeCategoryNotAllowed, "category %q of capability %s is not allowed", def.Category, p.Name)
	}

	var opts []executor.InvokeOption
	if p.TimeoutMs > 0 {
		opts = append(opts, executor.WithTimeout(time.Duration(p.TimeoutMs)*time.Millisecond))
	}

	started := time.Now()
	result := s.invoker.Invoke(ctx, p.Name, p.Inputs, p.Arguments, opts...)

	entry := LogEntry{
		Name:      p.Name,
		Timestamp: started.UTC(),
		Success:   result.Success,
		Duration:  time.Since(started).Milliseconds(),
	}
	if result.Error != nil {
		entry.ErrorCode = string(result.Error.Code)
	}
	s.requestLog.Add(entry)
	return result, nil
}

func (s *Server) handleSearchCapabilities(_ context.Context, params json.RawMessage) (any, error) {
	var p searchParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	var out []capability.Definition
	for _, d := range s.registry.Search(p.Query) {
		if s.IsCategoryAllowed(d.Category) {
			out = append(out, d)
		}
	}
	if out == nil {
		out = []capability.Definition{}
	}
	return map[string]any{"capabilities": out, "count": len(out)}, nil
}

type categorySummary struct {
	capability.Category
	Count int `json:"count"`
}

func (s *Server) handleListCategories(context.Context, json.RawMessage) (any, error) {
	return map[string]any{"categories": s.categories()}, nil
}

func (s *Server) categories() []categorySummary {
	var out []categorySummary
	for _, g := range s.registry.GetGroupedByCategory() {
		if !s.IsCategoryAllowed(g.Category.ID) {
			continue
		}
		out = append(out, categorySummary{Category: g.Category, Count: len(g.Capabilities)})
	}
	if out == nil {
		out = []categorySummary{}
	}
	return out
}

func (s *Server) handleGetRequestLog(_ context.Context, params json.RawMessage) (any, error) {
	var p requestLogParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Limit < 0 {
		return nil, api.New(api.CodeInvalidParams, "limit must not be negative")
	}

	entries := s.requestLog.Entries()
	if p.Limit > 0 && p.Limit < len(entries) {
		entries = entries[len(entries)-p.Limit:]
	}
	return map[string]any{
		"entries":  entries,
		"count":    len(entries),
		"capacity": s.requestLog.Cap(),
	}, nil
}
