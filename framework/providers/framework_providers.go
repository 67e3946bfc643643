package providers

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/go-autowire/framework/bindings"
	"github.com/km-arc/go-autowire/framework/config"
	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/inspect"
	"github.com/km-arc/go-autowire/framework/logging"
	"github.com/km-arc/go-autowire/framework/metrics"
	"github.com/km-arc/go-autowire/framework/routing"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider registers the application configuration.
//
// Registered keys:
//   - *config.Config, aliased as "config"
//
// Config is used when set; otherwise it is loaded from EnvFiles.
type ConfigServiceProvider struct {
	container.BaseProvider
	Config   *config.Config
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	cfg := p.Config
	if cfg == nil {
		cfg = config.Load(p.EnvFiles...)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := app.Register(cfg); err != nil {
		return err
	}
	app.Alias("config", container.NameOf[*config.Config]())
	return nil
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider registers the application logger.
//
// Registered keys:
//   - *zap.Logger, aliased as "logger"
//
// Logger is used when set; otherwise a factory builds one from "config" on
// first use.
type LoggingServiceProvider struct {
	container.BaseProvider
	Logger *zap.Logger
}

func (p *LoggingServiceProvider) Register(app *container.Container) error {
	var err error
	if p.Logger != nil {
		err = app.Register(p.Logger)
	} else {
		err = app.Register(func() (*zap.Logger, error) {
			cfg, err := container.Resolve[*config.Config](app, "config")
			if err != nil {
				return nil, err
			}
			return logging.New(cfg)
		})
	}
	if err != nil {
		return err
	}
	app.Alias("logger", container.NameOf[*zap.Logger]())
	return nil
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router and the container
// inspection handler. The router is built with Make on first use, so it
// picks up the registered logger.
//
// Registered keys:
//   - *routing.Router, aliased as "router"
//   - *inspect.Handler
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	for _, ctor := range []any{routing.New, inspect.New} {
		if err := app.Provide(ctor); err != nil {
			return err
		}
	}
	err := app.Register(func() (*routing.Router, error) {
		return container.MakeOf[*routing.Router](app, nil)
	})
	if err != nil {
		return err
	}
	err = app.Register(func() (*inspect.Handler, error) {
		return container.MakeOf[*inspect.Handler](app, nil)
	})
	if err != nil {
		return err
	}
	app.Alias("router", container.NameOf[*routing.Router]())
	return nil
}

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider is deferred: the collector is created, and starts
// watching the container, the first time "metrics" is looked up.
//
// Registered keys:
//   - *metrics.Collector, aliased as "metrics"
type MetricsServiceProvider struct {
	container.BaseProvider
	// Runtime adds the Go and process collectors.
	Runtime bool
}

func (p *MetricsServiceProvider) Register(app *container.Container) error {
	collector := metrics.New(p.Runtime)
	if err := collector.Watch(app); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := app.Register(collector); err != nil {
		return err
	}
	app.Alias("metrics", container.NameOf[*metrics.Collector]())
	return nil
}

func (p *MetricsServiceProvider) IsDeferred() bool { return true }

func (p *MetricsServiceProvider) Provides() []string {
	return []string{"metrics", container.NameOf[*metrics.Collector]()}
}

// ── BindingsServiceProvider ───────────────────────────────────────────────────

// BindingsServiceProvider applies the file named by CONTAINER_BINDINGS at
// boot, after every eager provider has registered its types.
type BindingsServiceProvider struct {
	container.BaseProvider
}

func (p *BindingsServiceProvider) Register(_ *container.Container) error { return nil }

func (p *BindingsServiceProvider) Boot(app *container.Container) error {
	cfg, err := container.Resolve[*config.Config](app, "config")
	if err != nil {
		return err
	}
	path := cfg.Container.BindingsFile
	if path == "" {
		return nil
	}
	f, err := bindings.Load(path)
	if err != nil {
		return err
	}
	return f.Apply(app)
}
