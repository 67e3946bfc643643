package container

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related registrations.
//
// Register is called when the provider is added (or, for deferred providers,
// when one of its keys is first looked up). Boot is called after every eager
// provider has been registered, so it may resolve anything.
//
//	type MailProvider struct{ container.BaseProvider }
//
//	func (p *MailProvider) Register(app *container.Container) error {
//	    if err := app.Provide(mail.NewSMTP); err != nil {
//	        return err
//	    }
//	    app.Alias("mailer", container.NameOf[*mail.SMTP]())
//	    return nil
//	}
type ServiceProvider interface {
	// Register adds definitions, constructors and aliases. It should not
	// execute other definitions.
	Register(app *Container) error

	// Boot runs once all eager providers are registered.
	Boot(app *Container) error

	// Provides lists the keys a deferred provider registers.
	Provides() []string

	// IsDeferred reports whether Register waits for the first lookup of one
	// of the Provides keys.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider gives no-op Boot, Provides and IsDeferred. Embed it and
// implement Register.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── Deferred loading ──────────────────────────────────────────────────────────

// deferredLoad runs a loader once; every waiting key shares it.
type deferredLoad struct {
	once sync.Once
	load func(*Container) error
	err  error
}

// Defer arranges for load to run the first time any of keys is looked up
// without a definition. load is expected to register those keys.
func (c *Container) Defer(keys []string, load func(*Container) error) {
	d := &deferredLoad{load: load}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.deferred[Normalize(k)] = d
	}
}

// loadDeferred runs the loader waiting on key or target and reports whether
// there was one. A failed load keeps failing on later lookups.
func (c *Container) loadDeferred(key, target string) (bool, error) {
	c.mu.RLock()
	d, ok := c.deferred[key]
	if !ok && target != "" {
		d, ok = c.deferred[target]
	}
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}

	d.once.Do(func() {
		d.err = d.load(c)
		if d.err != nil {
			c.logger.Error("deferred provider failed", zap.String("key", key), zap.Error(d.err))
		}
	})
	return true, d.err
}

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers and boots ServiceProviders against a container.
type ProviderRegistry struct {
	app *Container

	mu         sync.Mutex
	eager      []ServiceProvider
	booted     bool
	registered map[ServiceProvider]bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider. Eager providers register immediately and are
// booted at once if the registry already booted. Registering the same
// provider twice is a no-op.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true
	r.mu.Unlock()

	if provider.IsDeferred() {
		r.app.Defer(provider.Provides(), func(c *Container) error {
			if err := provider.Register(c); err != nil {
				return fmt.Errorf("provider %T: register: %w", provider, err)
			}
			return r.adopt(provider)
		})
		return nil
	}

	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("provider %T: register: %w", provider, err)
	}
	return r.adopt(provider)
}

// adopt records a registered provider, booting it when the registry is
// already booted.
func (r *ProviderRegistry) adopt(provider ServiceProvider) error {
	r.mu.Lock()
	r.eager = append(r.eager, provider)
	booted := r.booted
	r.mu.Unlock()

	if booted {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("provider %T: boot: %w", provider, err)
		}
	}
	return nil
}

// Boot calls Boot on every registered provider. Later calls are no-ops.
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	providers := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range providers {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("provider %T: boot: %w", provider, err)
		}
	}
	return nil
}

// Booted returns true if Boot has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns the providers that have been registered so far; a
// deferred provider shows up once it is loaded.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}
