package protocol

import (
	"context"
	"encoding/json"
	"strings"

	"toolhub/internal/api"
)

// URIScheme prefixes every resource URI.
const URIScheme = "toolhub://"

// Resource URIs.
const (
	URICapabilities = URIScheme + "capabilities"
	URICategories   = URIScheme + "categories"
	URIPlugins      = URIScheme + "plugins"
	URIWorkflows    = URIScheme + "workflows"
	URIPersonas     = URIScheme + "personas"
	URIConfig       = URIScheme + "config"
	URIRequestLog   = URIScheme + "request-log"
)

// ReadFunc produces the content of a resource.
type ReadFunc func(ctx context.Context) (any, error)

// Resource is a named read-only view.
type Resource struct {
	URI         string   `json:"uri"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	MIMEType    string   `json:"mimeType"`
	Read        ReadFunc `json:"-"`
}

type readResourceParams struct {
	URI string `json:"uri"`
}

// RegisterResource adds or replaces the resource with r.URI.
func (s *Server) RegisterResource(r Resource) {
	if r.MIMEType == "" {
		r.MIMEType = "application/json"
	}

	s.resourcesMu.Lock()
	defer s.resourcesMu.Unlock()
	for i := range s.resources {
		if s.resources[i].URI == r.URI {
			s.resources[i] = r
			return
		}
	}
	s.resources = append(s.resources, r)
}

// Resources lists the registered resources in registration order.
func (s *Server) Resources() []Resource {
	s.resourcesMu.RLock()
	defer s.resourcesMu.RUnlock()
	return append([]Resource(nil), s.resources...)
}

// ReadResource returns the content of the resource at uri.
func (s *Server) ReadResource(ctx context.Context, uri string) (any, error) {
	s.resourcesMu.RLock()
	var read ReadFunc
	for _, r := range s.resources {
		if r.URI == uri {
			read = r.Read
			break
		}
	}
	s.resourcesMu.RUnlock()

	if read == nil {
		return nil, api.NewResourceNotFoundError(uri)
	}
	return read(ctx)
}

func (s *Server) registerBuiltinResources() {
	s.RegisterResource(Resource{
		URI:         URICapabilities,
		Name:        "Capabilities",
		Description: "Every capability the server exposes",
		Read: func(context.Context) (any, error) {
			return s.listCapabilities(""), nil
		},
	})
	s.RegisterResource(Resource{
		URI:         URICategories,
		Name:        "Categories",
		Description: "Capability categories with member counts",
		Read: func(context.Context) (any, error) {
			return s.categories(), nil
		},
	})
	s.RegisterResource(Resource{
		URI:         URIRequestLog,
		Name:        "Request log",
		Description: "Recent capability calls, oldest first",
		Read: func(context.Context) (any, error) {
			return s.requestLog.Entries(), nil
		},
	})
}

func (s *Server) handleListResources(context.Context, json.RawMessage) (any, error) {
	return map[string]any{"resources": s.Resources()}, nil
}

func (s *Server) handleReadResource(ctx context.Context, params json.RawMessage) (any, error) {
	var p readResourceParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	uri := strings.TrimSpace(p.URI)
	if uri == "" {
		return nil, api.New(api.CodeInvalidParams, "uri is required")
	}

	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return nil, err
	}

	mimeType := "application/json"
	for _, r := range s.Resources() {
		if r.URI == uri {
			mimeType = r.MIMEType
		}
	}
	return map[string]any{
		"uri":      uri,
		"mimeType": mimeType,
		"contents": content,
	}, nil
}
