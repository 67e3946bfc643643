package container

import (
	"reflect"
	"strings"
)

// separators are stripped from the front of every name before lookup.
const separators = `\/*`

// Normalize returns the canonical registry key for a type name: lower-cased,
// with leading namespace separators and pointer markers removed.
//
//	Normalize("*github.com/acme/app.Logger") // "github.com/acme/app.logger"
func Normalize(name string) string {
	return strings.TrimLeft(strings.ToLower(name), separators)
}

// TypeName returns the package-qualified name of v's dynamic type, or "" when
// the type is unnamed or predeclared.
//
//	container.TypeName(&Logger{}) // "github.com/acme/app.Logger"
func TypeName(v any) string {
	if v == nil {
		return ""
	}
	return typeName(reflect.TypeOf(v))
}

// NameOf returns the package-qualified name of T. Use it with interfaces:
//
//	c.Alias(container.NameOf[Greeter](), container.NameOf[*ConsoleGreeter]())
func NameOf[T any]() string {
	return typeName(reflect.TypeOf((*T)(nil)).Elem())
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return ""
	}
	return t.PkgPath() + "." + t.Name()
}

// injectable reports whether a parameter of type t takes part in autowiring.
func injectable(t reflect.Type) bool {
	return typeName(t) != ""
}
