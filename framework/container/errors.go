package container

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrInvalidDefinition    = errors.New("container: invalid definition")
	ErrDuplicateDefinition  = errors.New("container: duplicate definition")
	ErrDuplicateConstructor = errors.New("container: duplicate constructor")
	ErrReflection           = errors.New("container: reflection failed")
	ErrConstruction         = errors.New("container: construction failed")
	ErrAliasCycle           = errors.New("container: alias cycle")
	ErrNotFound             = errors.New("container: definition not found")
	ErrTypeMismatch         = errors.New("container: type mismatch")
)

// InvalidDefinitionError is returned by Register for values that carry no
// derivable key (nil, unnamed types, funcs that are not factories).
type InvalidDefinitionError struct {
	Got string
}

func (e *InvalidDefinitionError) Error() string {
	return fmt.Sprintf("container: definition must be an instance of a named type, a type name, a factory or a lazy wrapper, %s given", e.Got)
}

func (e *InvalidDefinitionError) Is(target error) bool { return target == ErrInvalidDefinition }

// DuplicateDefinitionError is returned when a key is registered twice.
type DuplicateDefinitionError struct {
	Key string
}

func (e *DuplicateDefinitionError) Error() string {
	return fmt.Sprintf("container: duplicate definition for %s", e.Key)
}

func (e *DuplicateDefinitionError) Is(target error) bool { return target == ErrDuplicateDefinition }

// ReflectionError means a type could not be introspected or is unknown to
// the catalog.
type ReflectionError struct {
	Type   string
	Reason string
}

func (e *ReflectionError) Error() string {
	return fmt.Sprintf("container: cannot reflect %s: %s", e.Type, e.Reason)
}

func (e *ReflectionError) Is(target error) bool { return target == ErrReflection }

// ConstructionError wraps a failure raised while building Type.
type ConstructionError struct {
	Type string
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("container: constructing %s: %v", e.Type, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

func (e *ConstructionError) Is(target error) bool { return target == ErrConstruction }

// AliasCycleError reports an alias chain that loops back on itself.
type AliasCycleError struct {
	Chain []string
}

func (e *AliasCycleError) Error() string {
	return "container: alias cycle: " + strings.Join(e.Chain, " -> ")
}

func (e *AliasCycleError) Is(target error) bool { return target == ErrAliasCycle }
