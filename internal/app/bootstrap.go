package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"toolhub/internal/config"
	"toolhub/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

// Application bootstraps and runs toolhub.
//
// Initialization happens in two phases:
//  1. NewApplication loads the configuration, initializes logging and wires
//     the services
//  2. Run restores plugins, starts the transports and the config watcher,
//     and blocks until ctx is cancelled or the primary transport ends
type Application struct {
	config    *Config
	configDir string
	services  *Services
}

// NewApplication creates an application from cfg. opts are passed through
// to InitializeServices.
func NewApplication(ctx context.Context, cfg *Config, opts ...ServiceOption) (*Application, error) {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.LogOutput == nil {
		cfg.LogOutput = os.Stderr
	}

	dir := cfg.ConfigDir
	if dir == "" {
		d, err := config.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	// Logging comes up before the config is read so load errors are visible.
	logging.InitForCLI(logging.LevelInfo, cfg.LogOutput)

	thCfg, err := config.Load(dir, cfg.Viper)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration from %s", dir)
		return nil, fmt.Errorf("failed to load configuration from %s: %w", dir, err)
	}

	level := logging.ParseLevel(thCfg.Logging.Level)
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.Init(level, logging.Format(thCfg.Logging.Format), cfg.LogOutput)
	logging.Info("Bootstrap", "Loaded configuration from %s", dir)

	if thCfg.Server.Transport == config.TransportStdio && thCfg.Bridge.Enabled && thCfg.Bridge.Transport == config.TransportStdio {
		return nil, errors.New("server and bridge cannot both use the stdio transport")
	}

	services, err := InitializeServices(ctx, thCfg, dir, cfg.Version, opts...)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{config: cfg, configDir: dir, services: services}, nil
}

// Services returns the wired services.
func (a *Application) Services() *Services {
	return a.services
}

// Run starts serving. ready, when not nil, is called once the primary
// transport accepts requests. Services are closed before Run returns.
func (a *Application) Run(ctx context.Context, ready func()) error {
	s := a.services
	cfg := s.Config()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Close(shutdownCtx); err != nil {
			logging.Error("Bootstrap", err, "Error during shutdown")
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// Subscribe before plugins load so their startup transitions are seen.
	pluginEvents := s.Plugins.Events().Subscribe(gctx)
	g.Go(func() error {
		s.followPluginEvents(pluginEvents)
		return nil
	})

	if _, err := s.Plugins.Load(ctx); err != nil {
		cancel()
		_ = g.Wait()
		return err
	}
	if cfg.Plugins.AutoStart {
		if err := s.Plugins.StartAll(ctx); err != nil {
			logging.Warn("Bootstrap", "Some plugins failed to start: %v", err)
		}
	}

	g.Go(func() error {
		if err := config.Watch(gctx, a.configDir, a.config.Viper, s.ApplyConfig); err != nil {
			logging.Warn("Bootstrap", "Configuration hot reload disabled: %v", err)
		}
		return nil
	})

	if cfg.Bridge.Enabled {
		g.Go(func() error {
			if cfg.Bridge.Transport == config.TransportStdio {
				return s.Bridge.ServeStdio(gctx, a.config.In, a.config.Out)
			}
			return s.Bridge.ServeHTTP(gctx, hostPort(cfg.Bridge.Host, cfg.Bridge.Port))
		})
	}

	g.Go(func() error {
		// The primary transport ending stops everything else.
		defer cancel()
		if cfg.Server.Transport == config.TransportStdio {
			logging.Info("Bootstrap", "Serving JSON-RPC on stdio")
			if ready != nil {
				ready()
			}
			return s.RPC.ServeStdio(gctx, a.config.In, a.config.Out)
		}
		return s.RPC.ServeHTTP(gctx, hostPort(cfg.Server.Host, cfg.Server.Port), cfg.Server.Token, func(addr net.Addr) {
			logging.Info("Bootstrap", "Serving JSON-RPC on http://%s/rpc", addr)
			if ready != nil {
				ready()
			}
		})
	})

	return g.Wait()
}

func hostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
