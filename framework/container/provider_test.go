package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-autowire/framework/container"
)

// ── stub providers ────────────────────────────────────────────────────────────

func value(v any) container.Factory {
	return func() (any, error) { return v, nil }
}

type eagerProvider struct {
	container.BaseProvider
	registerCalls int
	bootCalled    bool
}

func (p *eagerProvider) Register(app *container.Container) error {
	p.registerCalls++
	return app.RegisterAs("eager-svc", value("eager"))
}

func (p *eagerProvider) Boot(_ *container.Container) error {
	p.bootCalled = true
	return nil
}

// deferredProvider is only registered when "deferred-svc" is first looked up.
type deferredProvider struct {
	container.BaseProvider
	registerCalled bool
	bootCalled     bool
}

func (p *deferredProvider) Register(app *container.Container) error {
	p.registerCalled = true
	if err := app.RegisterAs("deferred-svc", value("deferred-value")); err != nil {
		return err
	}
	app.Alias("deferred-alias", "deferred-svc")
	return nil
}

func (p *deferredProvider) Boot(_ *container.Container) error {
	p.bootCalled = true
	return nil
}

func (p *deferredProvider) IsDeferred() bool   { return true }
func (p *deferredProvider) Provides() []string { return []string{"deferred-svc", "deferred-alias"} }

type multiProvider struct {
	container.BaseProvider
}

func (p *multiProvider) Register(app *container.Container) error {
	if err := app.RegisterAs("alpha", value("α")); err != nil {
		return err
	}
	return app.RegisterAs("beta", value("β"))
}

type failingProvider struct {
	container.BaseProvider
	deferred bool
}

var errProvider = errors.New("provider exploded")

func (p *failingProvider) Register(_ *container.Container) error { return errProvider }
func (p *failingProvider) IsDeferred() bool                      { return p.deferred }
func (p *failingProvider) Provides() []string                    { return []string{"never"} }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

func TestRegistry_EagerProviderRegistersImmediately(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))

	assert.Equal(t, 1, p.registerCalls)
	assert.False(t, p.bootCalled, "Boot must wait for registry.Boot")

	require.NoError(t, reg.Boot())
	assert.True(t, p.bootCalled)
}

func TestRegistry_EagerServiceResolvable(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&eagerProvider{}))
	require.NoError(t, reg.Boot())

	got, err := container.Resolve[string](c, "eager-svc")
	require.NoError(t, err)
	assert.Equal(t, "eager", got)
}

func TestRegistry_BootIsIdempotent(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	assert.False(t, reg.Booted())

	require.NoError(t, reg.Register(&eagerProvider{}))
	require.NoError(t, reg.Boot())
	require.NoError(t, reg.Boot())
	assert.True(t, reg.Booted())
}

func TestRegistry_DuplicateRegisterIgnored(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Register(p))

	assert.Equal(t, 1, p.registerCalls)
	assert.Len(t, reg.Providers(), 1)
}

func TestRegistry_RegisterErrorIsWrapped(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	err := reg.Register(&failingProvider{})
	assert.ErrorIs(t, err, errProvider)
}

// ── Deferred providers ────────────────────────────────────────────────────────

func TestRegistry_DeferredProviderWaitsForLookup(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	p := &deferredProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Boot())

	assert.False(t, p.registerCalled)
	assert.Empty(t, reg.Providers())

	got, err := container.Resolve[string](c, "deferred-svc")
	require.NoError(t, err)
	assert.Equal(t, "deferred-value", got)
	assert.True(t, p.registerCalled)
	assert.True(t, p.bootCalled, "a provider loaded after Boot is booted at once")
	assert.Len(t, reg.Providers(), 1)
}

func TestRegistry_DeferredProviderLoadedThroughAlias(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&deferredProvider{}))

	got, err := container.Resolve[string](c, "deferred-alias")
	require.NoError(t, err)
	assert.Equal(t, "deferred-value", got)
}

func TestRegistry_DeferredProviderErrorSurfacesOnLookup(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&failingProvider{deferred: true}))

	_, _, err := c.Get("never", true)
	assert.ErrorIs(t, err, errProvider)
	assert.False(t, c.Has("never"))
}

func TestContainer_DeferRunsLoaderOnce(t *testing.T) {
	c := container.New()
	loads := 0
	c.Defer([]string{"a", "b"}, func(c *container.Container) error {
		loads++
		if err := c.RegisterAs("a", value(1)); err != nil {
			return err
		}
		return c.RegisterAs("b", value(2))
	})

	a, err := container.Resolve[int](c, "a")
	require.NoError(t, err)
	b, err := container.Resolve[int](c, "b")
	require.NoError(t, err)

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
	assert.Equal(t, 1, loads)
}

// ── Multiple providers ────────────────────────────────────────────────────────

func TestRegistry_MultipleProvidersAllResolvable(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&multiProvider{}))
	require.NoError(t, reg.Register(&eagerProvider{}))
	require.NoError(t, reg.Register(&deferredProvider{}))
	require.NoError(t, reg.Boot())

	for key, want := range map[string]string{"alpha": "α", "beta": "β", "eager-svc": "eager"} {
		got, err := container.Resolve[string](c, key)
		require.NoError(t, err, key)
		assert.Equal(t, want, got, key)
	}
	assert.Len(t, reg.Providers(), 2, "deferred provider not loaded yet")
}

// ── BaseProvider defaults ─────────────────────────────────────────────────────

func TestBaseProvider_Defaults(t *testing.T) {
	var p container.BaseProvider
	assert.NoError(t, p.Boot(container.New()))
	assert.False(t, p.IsDeferred())
	assert.Empty(t, p.Provides())
}

func TestRegistry_RegisterAfterBootBootsImmediately(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	require.NoError(t, reg.Boot())

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))
	assert.True(t, p.bootCalled)
}
