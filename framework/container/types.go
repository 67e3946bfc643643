package container

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// constructor is a catalog entry. ctor is invalid for declared types, which
// are built as a pointer to their zero value.
type constructor struct {
	name       string
	typ        reflect.Type
	ctor       reflect.Value
	params     []reflect.Type
	returnsErr bool
}

// Types is the catalog of buildable types. It stands in for constructor
// reflection: a type can only be built by name once its constructor has been
// provided or the type itself declared.
type Types struct {
	mu      sync.RWMutex
	entries map[string]*constructor
}

// NewTypes creates an empty catalog.
func NewTypes() *Types {
	return &Types{entries: make(map[string]*constructor)}
}

// Provide registers a constructor function. It must have the shape
// func(P...) T or func(P...) (T, error) where T is a named type; the entry is
// keyed by T's name.
//
//	types.Provide(NewGreetingService) // func(Greeter, *zap.Logger) *GreetingService
func (t *Types) Provide(fn any) error {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return &ReflectionError{Type: fmt.Sprintf("%T", fn), Reason: "constructor must be a function"}
	}
	ft := v.Type()
	returnsErr := ft.NumOut() == 2 && ft.Out(1) == errorType
	if ft.NumOut() != 1 && !returnsErr {
		return &ReflectionError{Type: ft.String(), Reason: "constructor must return T or (T, error)"}
	}
	name := typeName(ft.Out(0))
	if name == "" {
		return &ReflectionError{Type: ft.String(), Reason: "constructor result must be a named type"}
	}

	params := make([]reflect.Type, ft.NumIn())
	for i := range params {
		params[i] = ft.In(i)
	}
	return t.add(&constructor{
		name:       name,
		typ:        ft.Out(0),
		ctor:       v,
		params:     params,
		returnsErr: returnsErr,
	})
}

// Declare registers a named type with no constructor. sample may be a value
// or a nil pointer of the type:
//
//	types.Declare((*Clock)(nil))
func (t *Types) Declare(sample any) error {
	if sample == nil {
		return &ReflectionError{Type: "nil", Reason: "cannot declare an untyped nil"}
	}
	rt := reflect.TypeOf(sample)
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	name := typeName(rt)
	if name == "" {
		return &ReflectionError{Type: rt.String(), Reason: "only named types can be declared"}
	}
	if rt.Kind() == reflect.Interface {
		return &ReflectionError{Type: name, Reason: "interfaces cannot be instantiated"}
	}
	return t.add(&constructor{name: name, typ: rt})
}

func (t *Types) add(c *constructor) error {
	key := Normalize(c.name)

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[key]; exists {
		return fmt.Errorf("%w for %s", ErrDuplicateConstructor, key)
	}
	t.entries[key] = c
	return nil
}

func (t *Types) lookup(name string) (*constructor, error) {
	t.mu.RLock()
	c, ok := t.entries[Normalize(name)]
	t.mu.RUnlock()
	if !ok {
		return nil, &ReflectionError{Type: name, Reason: "type is not provided or declared"}
	}
	return c, nil
}

// Has reports whether name can be built.
func (t *Types) Has(name string) bool {
	_, err := t.lookup(name)
	return err == nil
}

// Names returns the catalog keys in sorted order.
func (t *Types) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Params returns the constructor parameter types of name in declaration
// order. Declared types have none.
func (t *Types) Params(name string) ([]reflect.Type, error) {
	c, err := t.lookup(name)
	if err != nil {
		return nil, err
	}
	return append([]reflect.Type(nil), c.params...), nil
}

// Build instantiates name with sparse positional arguments. Missing positions
// get the zero value of their parameter type; positions past the end of the
// parameter list are ignored.
func (t *Types) Build(name string, args map[int]any) (any, error) {
	c, err := t.lookup(name)
	if err != nil {
		return nil, err
	}
	if !c.ctor.IsValid() {
		return reflect.New(c.typ).Interface(), nil
	}

	in := make([]reflect.Value, len(c.params))
	for i, p := range c.params {
		arg, ok := args[i]
		if !ok {
			in[i] = reflect.Zero(p)
			continue
		}
		v, err := argValue(arg, p)
		if err != nil {
			return nil, &ConstructionError{Type: c.name, Err: fmt.Errorf("argument %d: %w", i, err)}
		}
		in[i] = v
	}
	return c.call(in)
}

func (c *constructor) call(in []reflect.Value) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ConstructionError{Type: c.name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	var out []reflect.Value
	if c.ctor.Type().IsVariadic() {
		out = c.ctor.CallSlice(in)
	} else {
		out = c.ctor.Call(in)
	}
	if c.returnsErr && !out[1].IsNil() {
		return nil, &ConstructionError{Type: c.name, Err: out[1].Interface().(error)}
	}
	return out[0].Interface(), nil
}

// argValue adapts a caller-supplied value to parameter type t. Values decoded
// from config files arrive as int/float64/string, so numeric and string kinds
// convert among themselves.
func argValue(arg any, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if convertible(v.Kind(), t.Kind()) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", v.Type(), t)
}

func convertible(from, to reflect.Kind) bool {
	switch {
	case numeric(from) && numeric(to):
		return true
	case from == reflect.String && to == reflect.String:
		return true
	case from == reflect.Bool && to == reflect.Bool:
		return true
	}
	return false
}

func numeric(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}
