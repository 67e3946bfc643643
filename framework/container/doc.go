// Package container provides a dependency-resolution container with
// constructor autowiring.
//
// # Overview
//
// A Container stores shared definitions keyed by type name, resolves alias
// chains (interface → implementation), and builds types by reading their
// constructor parameters and passing in whatever is registered for them.
//
// Keys are normalized type names: lower-cased, without leading separators.
// TypeName and NameOf produce the package-qualified name of a Go type:
//
//	container.NameOf[*app.Clock]() // "github.com/km-arc/go-autowire/app.Clock"
//
// # Type catalog
//
// Go cannot look a type up by name at runtime, so types that Make or Lazy
// should build are listed in the container's catalog first:
//
//	c.Provide(NewGreetingService) // func(Greeter, *zap.Logger) *GreetingService
//	c.Declare((*Clock)(nil))      // no constructor: built as new(Clock)
//
// # Definitions
//
//	c.Register(logger)                      // instance, shared as-is
//	c.Register(func() *Clock { ... })       // factory, called once
//	c.Register(container.NameOf[*Clock]())  // type name, built once
//	c.Register(c.Lazy(name, "UTC").         // lazy, built once with args,
//	    SetCallback("SetLayout", "15:04"))  //   then SetLayout("15:04") is called
//
// Every kind except instances is materialized on the first Get(name, true)
// and the registry slot is overwritten with the result.
//
// # Aliases
//
//	c.Alias(container.NameOf[Greeter](), container.NameOf[*ConsoleGreeter]())
//	c.Alias("greeter", container.NameOf[Greeter]())
//
// Chains are followed to their end; a chain that loops returns
// AliasCycleError.
//
// # Autowiring
//
//	svc, err := c.Make(container.NameOf[*GreetingService](), nil)
//
//	// position 0 is passed explicitly instead of the shared Greeter
//	svc, err = c.Make(container.NameOf[*GreetingService](), map[int]any{0: &LoudGreeter{}})
//
// Make always returns a new instance. The dependencies it passes in are the
// shared, cached ones.
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return app.Provide(NewGreetingService)
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot()
package container
