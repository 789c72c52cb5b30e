package app

import (
	"context"
	"fmt"
	"sync"

	"toolhub/internal/bridge"
	"toolhub/internal/capability"
	"toolhub/internal/config"
	"toolhub/internal/events"
	"toolhub/internal/executor"
	"toolhub/internal/llm"
	"toolhub/internal/native"
	"toolhub/internal/plugin"
	"toolhub/internal/protocol"
	"toolhub/internal/provider"
	"toolhub/internal/tracing"
	"toolhub/pkg/logging"
)

// Services holds the wired components of a running toolhub.
type Services struct {
	Registry *capability.Registry
	Adapter  *executor.Adapter
	Plugins  *plugin.Manager
	RPC      *protocol.Server
	Bridge   *bridge.Bridge
	Tracing  *tracing.Provider
	Storage  *config.Storage
	// LLM is nil when no model is configured.
	LLM llm.Client

	configDir string
	mu        sync.RWMutex
	config    config.Config
}

type serviceOptions struct {
	factory   provider.Factory
	installer plugin.Installer
	store     plugin.Store
	llm       llm.Client
	tracing   *tracing.Provider
}

// ServiceOption customizes InitializeServices, mostly for tests.
type ServiceOption func(*serviceOptions)

// WithProviderFactory replaces the provider factory used by the plugin manager.
func WithProviderFactory(f provider.Factory) ServiceOption {
	return func(o *serviceOptions) { o.factory = f }
}

// WithInstaller replaces the plugin installer.
func WithInstaller(i plugin.Installer) ServiceOption {
	return func(o *serviceOptions) { o.installer = i }
}

// WithStore replaces the sqlite manifest store.
func WithStore(s plugin.Store) ServiceOption {
	return func(o *serviceOptions) { o.store = s }
}

// WithLLMClient replaces the configured LLM client.
func WithLLMClient(c llm.Client) ServiceOption {
	return func(o *serviceOptions) { o.llm = c }
}

// WithTracing replaces the tracing provider built from the configuration.
func WithTracing(p *tracing.Provider) ServiceOption {
	return func(o *serviceOptions) { o.tracing = p }
}

// InitializeServices wires every component for cfg. configDir is where
// workflows and personas are read from.
//
// Initialization order:
//  1. Tracing and the LLM client
//  2. Registry with native capabilities
//  3. Plugin manager over the sqlite manifest store
//  4. Execution adapter, whose dependency checker consults the plugin
//     manager and the LLM client
//  5. Protocol server with its resources, then the MCP bridge
func InitializeServices(ctx context.Context, cfg config.Config, configDir, version string, opts ...ServiceOption) (*Services, error) {
	var o serviceOptions
	for _, opt := range opts {
		opt(&o)
	}

	s := &Services{configDir: configDir, config: cfg, Storage: config.NewStorage(configDir)}

	if o.tracing != nil {
		s.Tracing = o.tracing
	} else {
		tp, err := tracing.NewProvider(ctx, tracing.Config{
			Enabled:      cfg.Tracing.Exporter != "" && cfg.Tracing.Exporter != "none",
			Exporter:     cfg.Tracing.Exporter,
			OTLPEndpoint: cfg.Tracing.Endpoint,
			SampleRate:   1.0,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
		s.Tracing = tp
	}
	tracer := s.Tracing.Tracer()

	s.LLM = o.llm
	if s.LLM == nil && cfg.LLM.Configured() {
		client, err := llm.NewAzureClient(cfg.LLM.Endpoint, cfg.LLM.APIKey, cfg.LLM.Deployment)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize llm client: %w", err)
		}
		s.LLM = client
	}

	s.Registry = capability.NewRegistry()
	if err := native.Register(s.Registry, s.LLM); err != nil {
		return nil, fmt.Errorf("failed to register native capabilities: %w", err)
	}

	store := o.store
	if store == nil {
		sqlite, err := plugin.OpenSQLiteStore(ctx, cfg.Plugins.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin store: %w", err)
		}
		store = sqlite
	}
	pluginOpts := []plugin.Option{
		plugin.WithStore(store),
		plugin.WithTracer(tracer),
		plugin.WithStartTimeout(cfg.Plugins.StartTimeout),
	}
	if o.factory != nil {
		pluginOpts = append(pluginOpts, plugin.WithFactory(o.factory))
	}
	if o.installer != nil {
		pluginOpts = append(pluginOpts, plugin.WithInstaller(o.installer))
	}
	s.Plugins = plugin.NewManager(s.Registry, cfg.Plugins.Dir, pluginOpts...)

	s.Adapter = executor.NewAdapter(s.Registry,
		executor.WithDependencyChecker(executor.DependencyCheckerFunc(s.dependencyAvailable)),
		executor.WithTracer(tracer),
		executor.WithDefaultTimeout(cfg.Executor.DefaultTimeout),
	)

	s.RPC = protocol.NewServer(s.Registry, s.Adapter, protocol.Options{
		Name:              "toolhub",
		Version:           version,
		AllowedCategories: cfg.AllowedCategories,
		RequestLogSize:    cfg.Server.RequestLogSize,
		Tracer:            tracer,
	})
	s.registerResources()

	s.Bridge = bridge.New(s.Registry, s.RPC, s.Adapter, bridge.Options{Name: "toolhub", Version: version})

	logging.Info("Bootstrap", "Initialized %d capabilities", s.Registry.Count())
	return s, nil
}

func (s *Services) dependencyAvailable(name string) bool {
	if name == native.LLMProvider {
		return s.LLM != nil
	}
	return s.Plugins.IsAvailable(name)
}

func (s *Services) registerResources() {
	s.RPC.RegisterResource(protocol.Resource{
		URI:         protocol.URIPlugins,
		Name:        "Plugins",
		Description: "Installed plugins and their status",
		Read: func(context.Context) (any, error) {
			return s.Plugins.List(), nil
		},
	})
	s.RPC.RegisterResource(protocol.Resource{
		URI:         protocol.URIWorkflows,
		Name:        "Workflows",
		Description: "Workflow documents from the config directory",
		Read: func(context.Context) (any, error) {
			return s.Storage.LoadAll(config.KindWorkflows)
		},
	})
	s.RPC.RegisterResource(protocol.Resource{
		URI:         protocol.URIPersonas,
		Name:        "Personas",
		Description: "Persona documents from the config directory",
		Read: func(context.Context) (any, error) {
			return s.Storage.LoadAll(config.KindPersonas)
		},
	})
	s.RPC.RegisterResource(protocol.Resource{
		URI:         protocol.URIConfig,
		Name:        "Configuration",
		Description: "Effective configuration with secrets redacted",
		Read: func(context.Context) (any, error) {
			return s.Config().Redacted(), nil
		},
	})
}

// Config returns the current configuration.
func (s *Services) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// ApplyConfig takes over the parts of cfg that can change at runtime: the
// category allow-list. Everything else needs a restart.
func (s *Services) ApplyConfig(cfg config.Config) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()

	s.RPC.SetAllowedCategories(cfg.AllowedCategories)
	s.Bridge.Sync()
}

// followPluginEvents logs plugin lifecycle events and tells bridge clients
// that the plugin list changed. It returns once ch is closed.
func (s *Services) followPluginEvents(ch <-chan events.PluginEvent) {
	for ev := range ch {
		if ev.Type == events.PluginError {
			logging.Warn("Plugins", "Plugin %s failed: %s", ev.PluginID, ev.Error)
		} else {
			logging.Info("Plugins", "Plugin %s %s (%d tools)", ev.PluginID, ev.Type, len(ev.Tools))
		}
		s.Bridge.NotifyResourceUpdated(protocol.URIPlugins)
	}
}

// Close stops plugins and releases resources.
func (s *Services) Close(ctx context.Context) error {
	var firstErr error
	if err := s.Plugins.Shutdown(ctx); err != nil {
		firstErr = err
	}
	s.Bridge.Close()
	s.RPC.Close()
	if err := s.Tracing.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
