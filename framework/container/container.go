package container

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ── Definitions ───────────────────────────────────────────────────────────────

// Kind tells how a definition is materialized.
type Kind string

const (
	KindInstance Kind = "instance" // returned as-is
	KindCallable Kind = "callable" // zero-argument factory, called once
	KindTypeName Kind = "type"     // catalog type, built with no arguments
	KindLazy     Kind = "lazy"     // *Lazy, invoked once
)

// Factory is a zero-argument callable definition. Its result type is any, so
// it has to be registered under an explicit key with RegisterAs.
type Factory func() (any, error)

// slot holds one registry definition. def is overwritten with the
// materialized instance the first time it is executed.
type slot struct {
	mu       sync.Mutex
	key      string
	kind     Kind
	def      any
	resolved bool
}

// DefinitionInfo describes a registry slot without materializing it.
type DefinitionInfo struct {
	Key      string `json:"key"`
	Kind     Kind   `json:"kind"`
	Type     string `json:"type"`
	Resolved bool   `json:"resolved"`
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container stores shared definitions keyed by normalized type name, resolves
// alias chains, and builds catalog types by autowiring their constructor
// parameters from those definitions.
//
// Every container owns its own registry, alias table and type catalog.
type Container struct {
	mu sync.RWMutex

	types *Types

	// key → definition
	definitions map[string]*slot

	// alias key → target key
	aliases map[string]string

	// key → loader run on first lookup (deferred providers)
	deferred map[string]*deferredLoad

	// contextual[target][needs] = definition
	contextual map[string]map[string]contextualDef

	afterResolving []func(key string, instance any)

	logger *zap.Logger
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used for debug tracing. The default discards
// everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTypes shares an existing type catalog instead of creating one.
func WithTypes(types *Types) Option {
	return func(c *Container) {
		if types != nil {
			c.types = types
		}
	}
}

// New creates an empty container. The container registers itself, under its
// own type name and the alias "container", so constructors may depend on it.
func New(opts ...Option) *Container {
	c := &Container{
		types:       NewTypes(),
		definitions: make(map[string]*slot),
		aliases:     make(map[string]string),
		deferred:    make(map[string]*deferredLoad),
		contextual:  make(map[string]map[string]contextualDef),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	// The registry is empty here, so the key cannot collide.
	_ = c.Register(c)
	c.Alias("container", NameOf[*Container]())
	return c
}

// Types returns the container's type catalog.
func (c *Container) Types() *Types { return c.types }

// Provide adds a constructor to the type catalog. See Types.Provide.
func (c *Container) Provide(constructor any) error { return c.types.Provide(constructor) }

// Declare adds a constructor-less type to the catalog. See Types.Declare.
func (c *Container) Declare(sample any) error { return c.types.Declare(sample) }

// Lazy creates a lazy wrapper bound to the container's catalog. It is not
// registered; pass it to Register for that.
func (c *Container) Lazy(name string, args ...any) *Lazy {
	return NewLazy(c.types, name, args...)
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register stores a shared definition under the key derived from it:
//
//	c.Register(&Logger{})                 // instance, keyed by its type
//	c.Register("github.com/acme/app.Clock") // catalog type, built on first Get
//	c.Register(func() *Mailer { ... })    // factory, keyed by its result type
//	c.Register(c.Lazy(name, args...))     // lazy wrapper, keyed by its name
//
// Registering a second definition for a key fails with
// DuplicateDefinitionError and leaves the first one in place.
func (c *Container) Register(definition any) error {
	kind, name := classify(definition)
	key := Normalize(name)
	if key == "" {
		return &InvalidDefinitionError{Got: fmt.Sprintf("%T", definition)}
	}
	return c.store(key, kind, definition)
}

// RegisterAs stores definition under an explicit key instead of the derived
// one. This is how Factory values and other unnamed callables are bound.
//
//	c.RegisterAs("mailer", container.Factory(func() (any, error) { return NewMailer() }))
func (c *Container) RegisterAs(name string, definition any) error {
	key := Normalize(name)
	if definition == nil || key == "" {
		return &InvalidDefinitionError{Got: fmt.Sprintf("%T under %q", definition, name)}
	}
	kind, _ := classify(definition)
	return c.store(key, kind, definition)
}

func (c *Container) store(key string, kind Kind, definition any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.definitions[key]; exists {
		return &DuplicateDefinitionError{Key: key}
	}
	c.definitions[key] = &slot{
		key:      key,
		kind:     kind,
		def:      definition,
		resolved: kind == KindInstance,
	}
	c.logger.Debug("definition registered", zap.String("key", key), zap.String("kind", string(kind)))
	return nil
}

// classify returns the kind of definition and the type name its key derives
// from. name is empty when no key can be derived.
func classify(definition any) (Kind, string) {
	switch d := definition.(type) {
	case nil:
		return KindInstance, ""
	case *Lazy:
		return KindLazy, d.String()
	case string:
		return KindTypeName, d
	}
	t := reflect.TypeOf(definition)
	if isFactory(t) {
		return KindCallable, typeName(t.Out(0))
	}
	return KindInstance, typeName(t)
}

func isFactory(t reflect.Type) bool {
	if t.Kind() != reflect.Func || t.NumIn() != 0 {
		return false
	}
	switch t.NumOut() {
	case 1:
		return t.Out(0) != errorType
	case 2:
		return t.Out(1) == errorType
	}
	return false
}

// ── Aliases ───────────────────────────────────────────────────────────────────

// Alias makes alias resolve to target. A later alias for the same name
// replaces the earlier one.
//
//	c.Alias(container.NameOf[Greeter](), container.NameOf[*ConsoleGreeter]())
func (c *Container) Alias(alias, target string) *Container {
	from, to := Normalize(alias), Normalize(target)

	c.mu.Lock()
	c.aliases[from] = to
	c.mu.Unlock()

	c.logger.Debug("alias registered", zap.String("alias", from), zap.String("target", to))
	return c
}

// Aliases returns a copy of the alias table.
func (c *Container) Aliases() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.aliases))
	for k, v := range c.aliases {
		out[k] = v
	}
	return out
}

// resolveAlias follows key through the alias table to its terminal key.
// Caller must hold c.mu.
func (c *Container) resolveAlias(key string) (string, error) {
	seen := map[string]bool{key: true}
	chain := []string{key}
	for {
		next, ok := c.aliases[key]
		if !ok {
			return key, nil
		}
		chain = append(chain, next)
		if seen[next] {
			return "", &AliasCycleError{Chain: chain}
		}
		seen[next] = true
		key = next
	}
}

// aliasKey normalizes name and resolves it through the alias table.
func (c *Container) aliasKey(name string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolveAlias(Normalize(name))
}

// ── Lookup ────────────────────────────────────────────────────────────────────

// Get looks up name, falling back through the alias table when no definition
// is stored under it directly. With execute set the definition is
// materialized and the result is stored back into the registry; otherwise
// the stored definition is returned as it is.
//
// A missing definition is not an error: ok is false and err is nil.
func (c *Container) Get(name string, execute bool) (value any, ok bool, err error) {
	s, err := c.lookup(name)
	if err != nil || s == nil {
		return nil, false, err
	}
	if !execute {
		return s.raw(), true, nil
	}
	value, err = c.execute(s)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Has reports whether a definition is reachable under name.
func (c *Container) Has(name string) bool {
	s, err := c.lookup(name)
	return err == nil && s != nil
}

// Resolved reports whether the definition reachable under name has been
// materialized.
func (c *Container) Resolved(name string) bool {
	s, err := c.lookup(name)
	if err != nil || s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved
}

// lookup finds the slot for name, directly or through its alias chain,
// loading a deferred provider first when one is waiting on the key.
func (c *Container) lookup(name string) (*slot, error) {
	key := Normalize(name)
	s, target, err := c.find(key)
	if err != nil || s != nil {
		return s, err
	}
	loaded, err := c.loadDeferred(key, target)
	if err != nil || !loaded {
		return nil, err
	}
	s, _, err = c.find(key)
	return s, err
}

// find returns the slot under key or under key's alias target. target is the
// terminal alias key, which equals key when no alias exists.
func (c *Container) find(key string) (s *slot, target string, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.definitions[key]; ok {
		return s, key, nil
	}
	target, err = c.resolveAlias(key)
	if err != nil {
		return nil, "", err
	}
	return c.definitions[target], target, nil
}

func (s *slot) raw() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.def
}

// ── Execution ─────────────────────────────────────────────────────────────────

// execute materializes the slot at most once and overwrites its definition
// with the result. A failure leaves the slot untouched.
func (c *Container) execute(s *slot) (any, error) {
	s.mu.Lock()
	if s.resolved {
		defer s.mu.Unlock()
		return s.def, nil
	}

	instance, err := c.materialize(s.key, s.kind, s.def)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.def = instance
	s.resolved = true
	s.mu.Unlock()

	c.logger.Debug("definition materialized", zap.String("key", s.key), zap.String("kind", string(s.kind)))
	c.fireAfterResolving(s.key, instance)
	return instance, nil
}

// materialize turns a definition into an instance without caching it.
func (c *Container) materialize(key string, kind Kind, definition any) (any, error) {
	switch kind {
	case KindCallable:
		fn := reflect.ValueOf(definition)
		f := &constructor{name: key, ctor: fn, returnsErr: fn.Type().NumOut() == 2}
		return f.call(nil)
	case KindTypeName:
		return c.types.Build(definition.(string), nil)
	case KindLazy:
		return definition.(*Lazy).Invoke()
	default:
		return definition, nil
	}
}

// ── Introspection ─────────────────────────────────────────────────────────────

// Keys returns every registry key in sorted order.
func (c *Container) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.definitions))
	for k := range c.definitions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of stored definitions.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.definitions)
}

// Definitions describes every stored definition, sorted by key.
func (c *Container) Definitions() []DefinitionInfo {
	c.mu.RLock()
	slots := make([]*slot, 0, len(c.definitions))
	for _, s := range c.definitions {
		slots = append(slots, s)
	}
	c.mu.RUnlock()

	out := make([]DefinitionInfo, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Inspect describes the definition reachable under name. With execute set it
// is materialized first.
func (c *Container) Inspect(name string, execute bool) (DefinitionInfo, bool, error) {
	s, err := c.lookup(name)
	if err != nil || s == nil {
		return DefinitionInfo{}, false, err
	}
	if execute {
		if _, err := c.execute(s); err != nil {
			return DefinitionInfo{}, false, err
		}
	}
	return s.info(), true, nil
}

func (s *slot) info() DefinitionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DefinitionInfo{
		Key:      s.key,
		Kind:     s.kind,
		Type:     fmt.Sprintf("%T", s.def),
		Resolved: s.resolved,
	}
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// AfterResolving registers a callback fired after a definition is
// materialized and after every Make.
func (c *Container) AfterResolving(cb func(key string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

func (c *Container) fireAfterResolving(key string, instance any) {
	c.mu.RLock()
	cbs := c.afterResolving
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(key, instance)
	}
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve executes the definition under name and type-asserts it.
//
//	logger, err := container.Resolve[*zap.Logger](c, "logger")
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	instance, ok, err := c.Get(name, true)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s resolved to %T, want %T", ErrTypeMismatch, name, instance, zero)
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on failure. Use it in bootstrap
// code where a missing service is a programming error.
func MustResolve[T any](c *Container, name string) T {
	typed, err := Resolve[T](c, name)
	if err != nil {
		panic(err)
	}
	return typed
}
