package providers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/go-autowire/framework/config"
	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/inspect"
	"github.com/km-arc/go-autowire/framework/metrics"
	"github.com/km-arc/go-autowire/framework/providers"
	"github.com/km-arc/go-autowire/framework/routing"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "test", Env: "testing", Port: "8000"},
		Log: config.LogConfig{Level: "info"},
	}
}

func boot(t *testing.T, ps ...container.ServiceProvider) *container.Container {
	t.Helper()
	c := container.New()
	reg := container.NewProviderRegistry(c)
	for _, p := range ps {
		require.NoError(t, reg.Register(p))
	}
	require.NoError(t, reg.Boot())
	return c
}

func TestConfigServiceProvider(t *testing.T) {
	cfg := testConfig()
	c := boot(t, &providers.ConfigServiceProvider{Config: cfg})

	got, err := container.Resolve[*config.Config](c, "config")
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}

func TestConfigServiceProvider_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Log.Level = "loud"

	reg := container.NewProviderRegistry(container.New())
	assert.Error(t, reg.Register(&providers.ConfigServiceProvider{Config: cfg}))
}

func TestLoggingServiceProvider_GivenLogger(t *testing.T) {
	logger := zap.NewNop()
	c := boot(t, &providers.LoggingServiceProvider{Logger: logger})

	got, err := container.Resolve[*zap.Logger](c, "logger")
	require.NoError(t, err)
	assert.Same(t, logger, got)
}

func TestLoggingServiceProvider_BuildsFromConfig(t *testing.T) {
	c := boot(t,
		&providers.ConfigServiceProvider{Config: testConfig()},
		&providers.LoggingServiceProvider{},
	)

	assert.False(t, c.Resolved("logger"))
	a, err := container.Resolve[*zap.Logger](c, "logger")
	require.NoError(t, err)
	b, err := container.Resolve[*zap.Logger](c, container.NameOf[*zap.Logger]())
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestRoutingServiceProvider(t *testing.T) {
	logger := zap.NewNop()
	c := boot(t,
		&providers.LoggingServiceProvider{Logger: logger},
		&providers.RoutingServiceProvider{},
	)

	router, err := container.Resolve[*routing.Router](c, "router")
	require.NoError(t, err)
	again, err := container.Resolve[*routing.Router](c, "router")
	require.NoError(t, err)
	assert.Same(t, router, again)

	h, err := container.Resolve[*inspect.Handler](c, container.NameOf[*inspect.Handler]())
	require.NoError(t, err)
	h.Routes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/container/definitions/router", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMetricsServiceProvider_IsDeferred(t *testing.T) {
	c := boot(t, &providers.MetricsServiceProvider{})
	assert.Equal(t, 1, c.Len(), "nothing is registered before the first lookup")

	collector, err := container.Resolve[*metrics.Collector](c, "metrics")
	require.NoError(t, err)
	require.NotNil(t, collector)

	require.NoError(t, c.RegisterAs("answer", container.Factory(func() (any, error) { return 42, nil })))
	_, _, err = c.Get("answer", true)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), `container_resolutions_total{key="answer"} 1`)
}

type Ticker struct{ Every int }

func NewTicker(every int) *Ticker { return &Ticker{Every: every} }

func TestBindingsServiceProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bindings.yaml")
	body := fmt.Sprintf("aliases:\n  ticker: %[1]s\nlazy:\n  - type: %[1]s\n    args: [5]\n", container.NameOf[*Ticker]())
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg := testConfig()
	cfg.Container.BindingsFile = path

	c := container.New()
	require.NoError(t, c.Provide(NewTicker))
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&providers.ConfigServiceProvider{Config: cfg}))
	require.NoError(t, reg.Register(&providers.BindingsServiceProvider{}))

	assert.False(t, c.Has("ticker"), "bindings apply at boot")
	require.NoError(t, reg.Boot())

	ticker, err := container.Resolve[*Ticker](c, "ticker")
	require.NoError(t, err)
	assert.Equal(t, 5, ticker.Every)
}

func TestBindingsServiceProvider_NoFile(t *testing.T) {
	c := boot(t,
		&providers.ConfigServiceProvider{Config: testConfig()},
		&providers.BindingsServiceProvider{},
	)
	assert.Equal(t, 2, c.Len())
}

func TestBindingsServiceProvider_MissingFile(t *testing.T) {
	cfg := testConfig()
	cfg.Container.BindingsFile = filepath.Join(t.TempDir(), "missing.yaml")

	reg := container.NewProviderRegistry(container.New())
	require.NoError(t, reg.Register(&providers.ConfigServiceProvider{Config: cfg}))
	require.NoError(t, reg.Register(&providers.BindingsServiceProvider{}))
	assert.Error(t, reg.Boot())
}
