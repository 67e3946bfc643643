package app

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-autowire/framework/config"
	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/inspect"
	"github.com/km-arc/go-autowire/framework/logging"
	"github.com/km-arc/go-autowire/framework/metrics"
	"github.com/km-arc/go-autowire/framework/providers"
	"github.com/km-arc/go-autowire/framework/routing"
)

// Application is the top-level application container.
// It embeds the Container and ProviderRegistry so user code can call
// app.Provide(), app.Register(), app.Alias() and app.Make() directly.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	cfg    *config.Config
	logger *zap.Logger

	mount   sync.Once
	handler http.Handler
	err     error
}

// New loads configuration, builds the logger and registers the framework
// providers. With APP_DEBUG set, the container traces its own activity
// through the logger at debug level.
func New(envFiles ...string) (*Application, error) {
	cfg := config.Load(envFiles...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return nil, err
	}
	return NewWith(cfg, logger)
}

// NewWith is New with configuration and logger supplied by the caller.
// The container's trace is only logged when APP_DEBUG is set.
func NewWith(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	app := &Application{cfg: cfg, logger: logger}
	trace := zap.NewNop()
	if app.IsDebug() {
		trace = logger.Named("container")
	}
	app.Container = container.New(container.WithLogger(trace))
	app.Providers = container.NewProviderRegistry(app.Container)

	for _, p := range []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.LoggingServiceProvider{Logger: logger},
		&providers.RoutingServiceProvider{},
		&providers.MetricsServiceProvider{Runtime: true},
		&providers.BindingsServiceProvider{},
	} {
		if err := app.Providers.Register(p); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// RegisterProvider adds a ServiceProvider to the application.
func (a *Application) RegisterProvider(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Config returns the loaded configuration.
func (a *Application) Config() *config.Config { return a.cfg }

// Logger returns the application logger.
func (a *Application) Logger() *zap.Logger { return a.logger }

// Router resolves the shared router.
func (a *Application) Router() (*routing.Router, error) {
	return container.Resolve[*routing.Router](a.Container, "router")
}

// Handler boots the application if needed, mounts the inspection routes
// and, when enabled, /metrics, and returns the router. Routes added to the
// router afterwards are still served.
func (a *Application) Handler() (http.Handler, error) {
	a.mount.Do(func() {
		a.handler, a.err = a.mountRoutes()
	})
	return a.handler, a.err
}

func (a *Application) mountRoutes() (http.Handler, error) {
	if err := a.Boot(); err != nil {
		return nil, err
	}
	router, err := a.Router()
	if err != nil {
		return nil, err
	}

	h, err := container.Resolve[*inspect.Handler](a.Container, container.NameOf[*inspect.Handler]())
	if err != nil {
		return nil, err
	}
	h.Routes(router)

	if a.cfg.Metrics.Enabled {
		collector, err := container.Resolve[*metrics.Collector](a.Container, "metrics")
		if err != nil {
			return nil, err
		}
		router.Mount("/metrics", collector.Handler())
	}
	return router, nil
}

// Run boots the application (if needed) and starts the HTTP server.
func (a *Application) Run() error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}
	addr := ":" + a.cfg.App.Port
	a.logger.Info("server starting",
		zap.String("app", a.cfg.App.Name),
		zap.String("addr", addr),
		zap.String("env", a.cfg.App.Env),
		zap.Int("definitions", a.Len()),
	)
	defer func() { _ = a.logger.Sync() }()

	srv := &http.Server{Addr: addr, Handler: handler}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.cfg.App.Env }
func (a *Application) IsProduction() bool  { return a.cfg.IsProduction() }
func (a *Application) IsDebug() bool       { return a.cfg.App.Debug }
