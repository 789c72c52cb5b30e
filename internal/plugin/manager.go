package plugin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"toolhub/internal/api"
	"toolhub/internal/capability"
	"toolhub/internal/events"
	"toolhub/internal/provider"
	"toolhub/internal/schema"
	"toolhub/internal/tracing"
	"toolhub/pkg/logging"
)

const (
	// DefaultStartTimeout bounds connect plus discovery of one plugin.
	DefaultStartTimeout = 60 * time.Second
	// DefaultCategory files plugin capabilities that name no category.
	DefaultCategory = "plugins"

	pluginCategoryOrder = 900
	startAllConcurrency = 4
)

// plugin is the manager's record of one installed plugin.
type plugin struct {
	// op serializes lifecycle operations on this plugin.
	op sync.Mutex

	// Guarded by Manager.mu.
	manifest Manifest
	conn     provider.Connection
	removed  bool
}

// Manager owns plugin manifests and drives their lifecycle. It is the only
// component that removes capabilities from the registry by owner.
type Manager struct {
	mu      sync.RWMutex
	plugins map[string]*plugin
	// installing reserves ids while their artifacts are fetched.
	installing map[string]struct{}

	registry     *capability.Registry
	factory      provider.Factory
	installer    Installer
	store        Store
	broker       *events.PluginBroker
	tracer       trace.Tracer
	validate     *validator.Validate
	pluginsDir   string
	startTimeout time.Duration

	starts singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

func WithFactory(f provider.Factory) Option {
	return func(m *Manager) { m.factory = f }
}

func WithInstaller(i Installer) Option {
	return func(m *Manager) { m.installer = i }
}

func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithBroker sets the broker lifecycle events are published on.
func WithBroker(b *events.PluginBroker) Option {
	return func(m *Manager) { m.broker = b }
}

func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) { m.tracer = t }
}

func WithStartTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.startTimeout = d
		}
	}
}

// NewManager creates a manager that installs plugins under pluginsDir and
// registers their tools in registry.
func NewManager(registry *capability.Registry, pluginsDir string, opts ...Option) *Manager {
	m := &Manager{
		plugins:      make(map[string]*plugin),
		installing:   make(map[string]struct{}),
		registry:     registry,
		factory:      provider.DefaultFactory{},
		installer:    NewCommandInstaller(),
		store:        NewMemoryStore(),
		broker:       events.NewBroker[events.PluginEvent](),
		tracer:       noop.NewTracerProvider().Tracer("noop"),
		validate:     validator.New(),
		pluginsDir:   pluginsDir,
		startTimeout: DefaultStartTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Events returns the broker lifecycle events are published on.
func (m *Manager) Events() *events.PluginBroker {
	return m.broker
}

// Install fetches a plugin and records it in the installed state. It does
// not start the plugin or register any capability.
func (m *Manager) Install(ctx context.Context, req InstallRequest) (Manifest, error) {
	if err := m.validate.Struct(req); err != nil {
		return Manifest{}, api.Wrap(api.CodeInvalidParams, err, "invalid install request")
	}

	src, name := DetectSource(req.Source, req.Name)
	id := SanitizeID(name)
	if id == "" {
		return Manifest{}, api.New(api.CodeInvalidParams, "cannot derive a plugin id from %q", name)
	}

	if err := m.reserve(id); err != nil {
		return Manifest{}, err
	}
	defer m.release(id)

	installPath := ""
	if src.Type != SourceRemote {
		installPath = filepath.Join(m.pluginsDir, id)
	}

	logging.Info("PluginManager", "Installing plugin %s from %s (%s)", id, src.URL, src.Type)
	if err := m.installer.Fetch(ctx, src, installPath); err != nil {
		m.audit("plugin.install", id, err)
		return Manifest{}, api.Wrap(api.CodeLifecycleTransitionFailed, err, "failed to install plugin %s", id)
	}

	rt := req.Runtime
	if rt == "" {
		if src.Type == SourceRemote {
			rt = RuntimeRemote
		} else {
			rt = DetectRuntime(installPath)
		}
	}
	if err := m.installer.Build(ctx, installPath, rt); err != nil {
		logging.Warn("PluginManager", "Build step for plugin %s failed, continuing: %v", id, err)
	}

	entry, args := DetectEntry(installPath, id, rt, src)
	manifest := Manifest{
		ID:          id,
		Name:        name,
		Version:     "0.0.0",
		Description: name + " MCP plugin",
		Category:    req.Category,
		Source:      src,
		Runtime:     rt,
		Entry:       entry,
		Args:        args,
		Env:         req.Env,
		Status:      StatusInstalled,
		InstalledAt: time.Now().UTC(),
		InstallPath: installPath,
	}
	if info, ok := readPackageJSON(installPath); ok {
		if info.Version != "" {
			manifest.Version = info.Version
		}
		if info.Description != "" {
			manifest.Description = info.Description
		}
	}
	if manifest.Category == "" {
		manifest.Category = DefaultCategory
	}

	if err := m.store.Save(ctx, manifest); err != nil {
		_ = m.installer.Remove(manifest)
		return Manifest{}, api.Wrap(api.CodeInternal, err, "failed to persist plugin %s", id)
	}

	m.mu.Lock()
	m.plugins[id] = &plugin{manifest: manifest}
	m.mu.Unlock()

	m.publish(events.PluginInstalled, manifest)
	m.audit("plugin.install", id, nil)
	return manifest.clone(), nil
}

func (m *Manager) reserve(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.plugins[id]; ok {
		return api.New(api.CodePluginAlreadyInstalled, "plugin %q is already installed", id)
	}
	if _, ok := m.installing[id]; ok {
		return api.New(api.CodePluginAlreadyInstalled, "plugin %q is being installed", id)
	}
	m.installing[id] = struct{}{}
	return nil
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	delete(m.installing, id)
	m.mu.Unlock()
}

// Start connects the plugin's provider, discovers its tools and registers
// them. Starting a running plugin is a no-op. On failure the plugin moves to
// the error state and the returned manifest carries the error; nothing is
// registered. Concurrent starts of one plugin share a single attempt.
func (m *Manager) Start(ctx context.Context, id string) (Manifest, error) {
	v, err, _ := m.starts.Do(id, func() (any, error) {
		p, err := m.lookup(id)
		if err != nil {
			return Manifest{}, err
		}
		p.op.Lock()
		defer p.op.Unlock()
		return m.startLocked(ctx, p, true)
	})
	manifest, _ := v.(Manifest)
	return manifest.clone(), err
}

func (m *Manager) startLocked(ctx context.Context, p *plugin, emit bool) (Manifest, error) {
	m.mu.RLock()
	removed := p.removed
	current := p.manifest.clone()
	conn := p.conn
	m.mu.RUnlock()

	if removed {
		return Manifest{}, api.NewPluginNotFoundError(current.ID)
	}
	id := current.ID

	if current.Status == StatusRunning && conn != nil {
		if conn.Connected() {
			logging.Debug("PluginManager", "Plugin %s already running", id)
			return current, nil
		}
		logging.Warn("PluginManager", "Plugin %s lost its connection, reconnecting", id)
		m.detach(p)
	}

	ctx, span := m.tracer.Start(ctx, tracing.SpanPluginStart,
		trace.WithAttributes(attribute.String(tracing.AttrPluginID, id)))
	defer span.End()

	startCtx, cancel := context.WithTimeout(ctx, m.startTimeout)
	defer cancel()

	logging.Info("PluginManager", "Starting plugin %s", id)
	conn, err := m.factory.Connect(startCtx, specFor(current))
	if err != nil {
		return m.failStart(p, span, fmt.Errorf("connect: %w", err), emit)
	}

	tools, err := conn.ListTools(startCtx)
	if err != nil {
		_ = conn.Close()
		return m.failStart(p, span, fmt.Errorf("discover tools: %w", err), emit)
	}

	defs := make([]capability.Definition, 0, len(tools))
	for _, tool := range tools {
		def := schema.DefinitionFromTool(tool, schema.ToolOptions{PluginID: id, Category: current.Category})
		def.Executor = m.toolExecutor(id, tool.Name, def.ConfigSchema)
		defs = append(defs, def)
	}

	// Nothing is committed once the caller has given up.
	if err := startCtx.Err(); err != nil {
		_ = conn.Close()
		return m.failStart(p, span, fmt.Errorf("start aborted: %w", err), emit)
	}

	m.ensureCategory(current.Category)

	typeKeys := make([]string, len(defs))
	for i, d := range defs {
		typeKeys[i] = d.Type
	}
	sort.Strings(typeKeys)

	m.mu.Lock()
	p.conn = conn
	p.manifest.Status = StatusRunning
	p.manifest.Error = ""
	p.manifest.ToolsDiscovered = typeKeys
	manifest := p.manifest.clone()
	m.mu.Unlock()

	if m.registry.CountByOwner(id) > 0 {
		m.registry.UnregisterByOwner(id)
	}
	m.registry.RegisterAll(defs)

	m.persist(manifest)
	span.SetAttributes(attribute.Int(tracing.AttrToolCount, len(defs)))
	logging.Info("PluginManager", "Plugin %s running with %d tools", id, len(defs))

	if emit {
		m.publish(events.PluginStarted, manifest)
	}
	m.audit("plugin.start", id, nil)
	return manifest, nil
}

func (m *Manager) failStart(p *plugin, span trace.Span, cause error, emit bool) (Manifest, error) {
	m.mu.Lock()
	p.conn = nil
	p.manifest.Status = StatusError
	p.manifest.Error = cause.Error()
	p.manifest.ToolsDiscovered = nil
	manifest := p.manifest.clone()
	m.mu.Unlock()

	span.RecordError(cause)
	span.SetStatus(codes.Error, cause.Error())
	logging.Error("PluginManager", cause, "Failed to start plugin %s", manifest.ID)

	m.persist(manifest)
	if emit {
		m.publish(events.PluginError, manifest)
	}
	m.audit("plugin.start", manifest.ID, cause)
	return manifest, api.Wrap(api.CodeLifecycleTransitionFailed, cause, "failed to start plugin %s", manifest.ID)
}

// Stop unregisters the plugin's capabilities and then closes its provider
// connection. Stopping a plugin that is not running is a no-op.
func (m *Manager) Stop(ctx context.Context, id string) (Manifest, error) {
	p, err := m.lookup(id)
	if err != nil {
		return Manifest{}, err
	}
	p.op.Lock()
	defer p.op.Unlock()
	return m.stopLocked(ctx, p, true)
}

func (m *Manager) stopLocked(ctx context.Context, p *plugin, emit bool) (Manifest, error) {
	m.mu.RLock()
	removed := p.removed
	current := p.manifest.clone()
	running := current.Status == StatusRunning || p.conn != nil
	m.mu.RUnlock()

	if removed {
		return Manifest{}, api.NewPluginNotFoundError(current.ID)
	}
	if !running {
		logging.Debug("PluginManager", "Plugin %s is not running (%s)", current.ID, current.Status)
		return current, nil
	}

	logging.Info("PluginManager", "Stopping plugin %s", current.ID)
	manifest := m.detach(p)
	m.persistCtx(ctx, manifest)

	if emit {
		m.publish(events.PluginStopped, manifest)
	}
	m.audit("plugin.stop", manifest.ID, nil)
	return manifest, nil
}

// detach retracts the plugin's capabilities, then closes its connection and
// marks it stopped. The registry never lists a tool whose connection is gone.
func (m *Manager) detach(p *plugin) Manifest {
	m.mu.RLock()
	id := p.manifest.ID
	m.mu.RUnlock()

	removed := m.registry.UnregisterByOwner(id)

	m.mu.Lock()
	conn := p.conn
	p.conn = nil
	p.manifest.Status = StatusStopped
	p.manifest.ToolsDiscovered = nil
	manifest := p.manifest.clone()
	m.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			logging.Warn("PluginManager", "Closing connection of plugin %s: %v", id, err)
		}
	}
	logging.Debug("PluginManager", "Detached plugin %s (%d capabilities removed)", id, len(removed))
	return manifest
}

// Restart stops and starts the plugin as one operation. Subscribers see a
// single started (or error) event.
func (m *Manager) Restart(ctx context.Context, id string) (Manifest, error) {
	p, err := m.lookup(id)
	if err != nil {
		return Manifest{}, err
	}
	p.op.Lock()
	defer p.op.Unlock()

	if _, err := m.stopLocked(ctx, p, false); err != nil {
		return Manifest{}, err
	}
	return m.startLocked(ctx, p, true)
}

// Uninstall stops the plugin if needed, deletes its artifacts and its
// manifest, and emits an uninstalled event.
func (m *Manager) Uninstall(ctx context.Context, id string) error {
	p, err := m.lookup(id)
	if err != nil {
		return err
	}
	p.op.Lock()
	defer p.op.Unlock()

	manifest, err := m.stopLocked(ctx, p, false)
	if err != nil {
		return err
	}

	if err := m.installer.Remove(manifest); err != nil {
		logging.Warn("PluginManager", "Failed to remove artifacts of plugin %s: %v", id, err)
	}
	if err := m.store.Delete(ctx, id); err != nil {
		logging.Error("PluginManager", err, "Failed to delete manifest of plugin %s", id)
	}

	m.mu.Lock()
	p.removed = true
	delete(m.plugins, id)
	m.mu.Unlock()

	m.publish(events.PluginUninstalled, manifest)
	m.audit("plugin.uninstall", id, nil)
	return nil
}

// InstallAndStart installs and then starts a plugin. When the start fails the
// plugin stays installed and its manifest, in the error state, is returned
// together with the error.
func (m *Manager) InstallAndStart(ctx context.Context, req InstallRequest) (Manifest, error) {
	manifest, err := m.Install(ctx, req)
	if err != nil {
		return Manifest{}, err
	}
	return m.Start(ctx, manifest.ID)
}

// List returns all manifests sorted by id.
func (m *Manager) List() []Manifest {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Manifest, 0, len(m.plugins))
	for _, p := range m.plugins {
		out = append(out, p.manifest.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Manager) Get(id string) (Manifest, error) {
	p, err := m.lookup(id)
	if err != nil {
		return Manifest{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return p.manifest.clone(), nil
}

// Available returns the recommended plugin catalog with installed entries
// marked.
func (m *Manager) Available() []Available {
	out := Catalog()
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range out {
		_, out[i].Installed = m.plugins[SanitizeID(out[i].Name)]
	}
	return out
}

// IsAvailable reports whether the plugin is running with a live connection.
func (m *Manager) IsAvailable(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plugins[id]
	if !ok || p.manifest.Status != StatusRunning || p.conn == nil {
		return false
	}
	return p.conn.Connected()
}

// Load restores persisted manifests. Plugins persisted as running come back
// stopped since their connections did not survive. Already known ids are
// left untouched.
func (m *Manager) Load(ctx context.Context) (int, error) {
	manifests, err := m.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load plugin manifests: %w", err)
	}

	loaded := 0
	m.mu.Lock()
	for _, manifest := range manifests {
		if _, ok := m.plugins[manifest.ID]; ok {
			continue
		}
		if manifest.Status == StatusRunning {
			manifest.Status = StatusStopped
		}
		manifest.ToolsDiscovered = nil
		m.plugins[manifest.ID] = &plugin{manifest: manifest}
		loaded++
	}
	m.mu.Unlock()

	logging.Info("PluginManager", "Loaded %d plugin manifests", loaded)
	return loaded, nil
}

// StartAll starts every plugin that is not running. Plugins start in
// parallel and one failure never prevents the others from starting; the
// failures are joined into the returned error.
func (m *Manager) StartAll(ctx context.Context) error {
	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(startAllConcurrency)

	for _, manifest := range m.List() {
		if manifest.Status == StatusRunning {
			continue
		}
		id := manifest.ID
		g.Go(func() error {
			if _, err := m.Start(ctx, id); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Shutdown stops every running plugin and closes the store.
func (m *Manager) Shutdown(ctx context.Context) error {
	var g errgroup.Group
	for _, manifest := range m.List() {
		if manifest.Status != StatusRunning {
			continue
		}
		id := manifest.ID
		g.Go(func() error {
			_, err := m.Stop(ctx, id)
			return err
		})
	}
	err := g.Wait()
	if cerr := m.store.Close(); err == nil {
		err = cerr
	}
	return err
}

func (m *Manager) lookup(id string) (*plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plugins[id]
	if !ok {
		return nil, api.NewPluginNotFoundError(id)
	}
	return p, nil
}

func (m *Manager) connection(id string) provider.Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plugins[id]
	if !ok || p.manifest.Status != StatusRunning {
		return nil
	}
	return p.conn
}

func (m *Manager) toolExecutor(pluginID, toolName string, fields []capability.ConfigField) capability.Executor {
	return capability.ExecutorFunc(func(ctx context.Context, inputs, config map[string]any) (any, error) {
		conn := m.connection(pluginID)
		if conn == nil || !conn.Connected() {
			return nil, api.New(api.CodeDependencyUnavailable, "plugin %s is not running", pluginID)
		}
		return conn.CallTool(ctx, toolName, schema.BuildArguments(fields, inputs, config))
	})
}

func (m *Manager) ensureCategory(id string) {
	if m.registry.HasCategory(id) {
		return
	}
	m.registry.RegisterCategory(capability.Category{
		ID:    id,
		Label: schema.Humanize(id),
		Icon:  "plug",
		Order: pluginCategoryOrder,
	})
}

func specFor(manifest Manifest) provider.Spec {
	if manifest.Source.Type == SourceRemote {
		return provider.Spec{
			Transport: provider.TransportStreamableHTTP,
			URL:       manifest.Source.URL,
			Headers:   manifest.Env,
		}
	}
	return provider.Spec{
		Transport: provider.TransportStdio,
		Command:   manifest.Entry,
		Args:      manifest.Args,
		Env:       manifest.Env,
		Dir:       manifest.InstallPath,
	}
}

func (m *Manager) persist(manifest Manifest) {
	m.persistCtx(context.Background(), manifest)
}

func (m *Manager) persistCtx(ctx context.Context, manifest Manifest) {
	if err := m.store.Save(context.WithoutCancel(ctx), manifest); err != nil {
		logging.Error("PluginManager", err, "Failed to persist plugin %s", manifest.ID)
	}
}

func (m *Manager) publish(t events.PluginEventType, manifest Manifest) {
	m.broker.Publish(events.PluginEvent{
		Type:      t,
		PluginID:  manifest.ID,
		Status:    string(manifest.Status),
		Error:     manifest.Error,
		Tools:     append([]string(nil), manifest.ToolsDiscovered...),
		Timestamp: time.Now().UTC(),
	})
}

func (m *Manager) audit(action, target string, err error) {
	event := logging.AuditEvent{
		Action:  action,
		Outcome: "success",
		Target:  target,
	}
	if err != nil {
		event.Outcome = "failure"
		event.Error = err.Error()
	}
	logging.Audit(event)
}
