package container

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Make builds a fresh instance of the catalog type name, autowiring its
// constructor parameters.
//
// For every parameter of a named type, in declaration order:
//   - an override at that position wins. A string override is swapped for the
//     shared definition when one is registered under the parameter's key;
//     any other override is passed as given.
//   - otherwise a contextual binding for (name, parameter) is used,
//   - otherwise a shared definition under the parameter's key, resolved
//     through aliases, is executed and passed,
//   - otherwise the parameter receives its zero value.
//
// *T and T share a key. A shared *T is dereferenced for a T parameter; a
// shared T cannot be passed by reference, so a *T parameter is left
// unresolved.
//
// Overrides for parameters of predeclared or unnamed types are passed through
// untouched. The result is never cached; only the dependencies are shared.
//
//	svc, err := c.Make(container.NameOf[*Service](), map[int]any{1: "eu-west-1"})
func (c *Container) Make(name string, overrides map[int]any) (any, error) {
	params, err := c.types.Params(name)
	if err != nil {
		return nil, err
	}
	target := Normalize(name)

	args := make(map[int]any, len(params))
	for pos, v := range overrides {
		if v != nil {
			args[pos] = v
		}
	}

	for pos, p := range params {
		if !injectable(p) {
			continue
		}
		declared := Normalize(typeName(p))
		key, err := c.aliasKey(declared)
		if err != nil {
			return nil, err
		}

		if override, ok := args[pos]; ok {
			if _, isName := override.(string); isName {
				s, err := c.lookup(key)
				if err != nil {
					return nil, err
				}
				if s != nil {
					instance, err := c.execute(s)
					if err != nil {
						return nil, err
					}
					c.place(args, target, pos, p, key, instance)
				}
			}
			continue
		}

		if def, ok := c.contextualFor(target, declared, key); ok {
			instance, err := c.materialize(key, def.kind, def.def)
			if err != nil {
				return nil, err
			}
			c.place(args, target, pos, p, key, instance)
			continue
		}

		s, err := c.lookup(key)
		if err != nil {
			return nil, err
		}
		if s == nil {
			c.logger.Debug("parameter left unresolved", zap.String("target", target), zap.Int("position", pos), zap.String("key", key))
			continue
		}
		instance, err := c.execute(s)
		if err != nil {
			return nil, err
		}
		c.place(args, target, pos, p, key, instance)
	}

	instance, err := c.types.Build(name, args)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("instance made", zap.String("target", target), zap.Int("params", len(params)))
	c.fireAfterResolving(target, instance)
	return instance, nil
}

// place stores v as argument pos when it fits parameter p, and otherwise
// leaves the position unresolved.
func (c *Container) place(args map[int]any, target string, pos int, p reflect.Type, key string, v any) {
	if fitted, ok := fit(v, p); ok {
		args[pos] = fitted
		return
	}
	delete(args, pos)
	c.logger.Debug("parameter left unresolved",
		zap.String("target", target), zap.Int("position", pos), zap.String("key", key),
		zap.String("have", fmt.Sprintf("%T", v)), zap.Stringer("want", p))
}

// fit adapts v to parameter type p. Values that match neither p nor its
// pointer or element form are passed on for Build to report.
func fit(v any, p reflect.Type) (any, bool) {
	if v == nil {
		return nil, false
	}
	vt := reflect.TypeOf(v)
	if vt.AssignableTo(p) {
		return v, true
	}
	if vt.Kind() == reflect.Pointer && vt.Elem().AssignableTo(p) {
		rv := reflect.ValueOf(v)
		if rv.IsNil() {
			return nil, false
		}
		return rv.Elem().Interface(), true
	}
	if p.Kind() == reflect.Pointer && vt.AssignableTo(p.Elem()) {
		return nil, false
	}
	return v, true
}

// MakeOf is the typed form of Make, keyed by T's type name.
//
//	svc, err := container.MakeOf[*GreetingService](c, nil)
func MakeOf[T any](c *Container, overrides map[int]any) (T, error) {
	var zero T
	instance, err := c.Make(NameOf[T](), overrides)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, &ConstructionError{Type: NameOf[T](), Err: ErrTypeMismatch}
	}
	return typed, nil
}
