package container

import (
	"fmt"
	"reflect"
	"sync"
)

// call is a method queued for after construction.
type call struct {
	method string
	args   []any
}

// Lazy defers construction of a catalog type until first Invoke. The instance
// is built from the captured arguments, the queued calls are applied in
// order, and the result is cached; later invocations return it untouched.
//
//	l := c.Lazy(container.NameOf[Mailer](), "smtp.local", 25).
//	    SetCallback("UseTLS", true)
//	c.Register(l)
type Lazy struct {
	types *Types
	name  string
	args  []any

	mu       sync.Mutex
	calls    []call
	instance any
	invoked  bool
}

// NewLazy captures name and its positional constructor arguments. A nil
// catalog is replaced by an empty one, so Invoke reports the unknown type.
func NewLazy(types *Types, name string, args ...any) *Lazy {
	if types == nil {
		types = NewTypes()
	}
	return &Lazy{types: types, name: name, args: args}
}

// SetCallback queues method to be called with args right after
// construction. Calls queued after the first Invoke are never applied.
func (l *Lazy) SetCallback(method string, args ...any) *Lazy {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.invoked {
		l.calls = append(l.calls, call{method: method, args: args})
	}
	return l
}

// Invoke returns the instance, constructing it on the first call. Concurrent
// first calls construct once; a failed invocation caches nothing.
func (l *Lazy) Invoke() (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.invoked {
		return l.instance, nil
	}

	args := make(map[int]any, len(l.args))
	for i, a := range l.args {
		args[i] = a
	}
	instance, err := l.types.Build(l.name, args)
	if err != nil {
		return nil, err
	}
	if len(l.calls) > 0 {
		if instance, err = applyAll(instance, l.calls); err != nil {
			return nil, err
		}
	}

	l.instance = instance
	l.invoked = true
	return instance, nil
}

// Invoked reports whether the instance has been built.
func (l *Lazy) Invoked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.invoked
}

// String returns the captured type name.
func (l *Lazy) String() string { return l.name }

// applyAll runs calls against instance. A non-pointer instance is copied into
// addressable storage first, so pointer-receiver methods are found and their
// mutations are kept in the returned value.
func applyAll(instance any, calls []call) (any, error) {
	v := reflect.ValueOf(instance)
	if !v.IsValid() {
		return nil, &ReflectionError{Type: "<nil>", Reason: fmt.Sprintf("no method %s", calls[0].method)}
	}
	target, boxed := v, v.Kind() != reflect.Pointer
	if boxed {
		target = reflect.New(v.Type())
		target.Elem().Set(v)
	}
	for _, c := range calls {
		if err := apply(target, c); err != nil {
			return nil, err
		}
	}
	if boxed {
		return target.Elem().Interface(), nil
	}
	return instance, nil
}

func apply(target reflect.Value, c call) (err error) {
	m := target.MethodByName(c.method)
	if !m.IsValid() {
		return &ReflectionError{Type: target.Type().String(), Reason: fmt.Sprintf("no method %s", c.method)}
	}
	mt := m.Type()
	n := mt.NumIn()
	if (!mt.IsVariadic() && len(c.args) != n) || (mt.IsVariadic() && len(c.args) < n-1) {
		return &ReflectionError{Type: target.Type().String(),
			Reason: fmt.Sprintf("%s takes %d arguments, %d given", c.method, n, len(c.args))}
	}

	in := make([]reflect.Value, len(c.args))
	for i, a := range c.args {
		pt := paramAt(mt, i)
		v, err := argValue(a, pt)
		if err != nil {
			return &ConstructionError{Type: target.Type().String(), Err: fmt.Errorf("%s argument %d: %w", c.method, i, err)}
		}
		in[i] = v
	}

	defer func() {
		if r := recover(); r != nil {
			err = &ConstructionError{Type: target.Type().String(), Err: fmt.Errorf("%s panicked: %v", c.method, r)}
		}
	}()
	out := m.Call(in)
	if n := len(out); n > 0 && mt.Out(n-1) == errorType && !out[n-1].IsNil() {
		return &ConstructionError{Type: target.Type().String(), Err: fmt.Errorf("%s: %w", c.method, out[n-1].Interface().(error))}
	}
	return nil
}

// paramAt returns the type of argument i, unpacking a variadic tail.
func paramAt(mt reflect.Type, i int) reflect.Type {
	if mt.IsVariadic() && i >= mt.NumIn()-1 {
		return mt.In(mt.NumIn() - 1).Elem()
	}
	return mt.In(i)
}
