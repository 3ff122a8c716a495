package workflow

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// TypeAny is the wildcard type name compatible with every other type.
const TypeAny = "Any"

// TypeDecl declares the type of an input or output slot.
// Exactly one of Type, Union, or Elem is normally set; Optional marks a
// declaration whose value may be absent.
type TypeDecl struct {
	// Type is the concrete type of the slot.
	Type reflect.Type
	// Union lists alternative types when the slot accepts more than one.
	Union []reflect.Type
	// Elem marks a list declaration with the given element type.
	Elem reflect.Type
	// Optional marks the slot as allowed to be absent.
	Optional bool
	// Default is the value used when an optional slot is absent.
	Default any
}

// TypeOf builds a concrete TypeDecl for T.
func TypeOf[T any]() TypeDecl {
	return TypeDecl{Type: reflect.TypeOf((*T)(nil)).Elem()}
}

// ListOf builds a list TypeDecl with element type T.
func ListOf[T any]() TypeDecl {
	return TypeDecl{Elem: reflect.TypeOf((*T)(nil)).Elem()}
}

// TypeSystem registers named types and answers structural compatibility
// questions. It is used only at graph-build time; compatibility results are
// cached and never invalidated for the lifetime of the registry.
type TypeSystem struct {
	mu      sync.RWMutex
	typeMap map[string]reflect.Type
	compat  map[compatKey]bool
}

type compatKey struct {
	source string
	target string
}

// NewTypeSystem creates an empty type system.
func NewTypeSystem() *TypeSystem {
	return &TypeSystem{
		typeMap: make(map[string]reflect.Type),
		compat:  make(map[compatKey]bool),
	}
}

// Register adds a named type to the type system.
func (ts *TypeSystem) Register(name string, t reflect.Type) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.typeMap[name] = t
}

// Resolve returns the type registered under name.
func (ts *TypeSystem) Resolve(name string) (reflect.Type, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	t, ok := ts.typeMap[name]
	return t, ok
}

// TypeName returns the canonical name for a type.
func (ts *TypeSystem) TypeName(t reflect.Type) string {
	if t == nil {
		return TypeAny
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// Extract normalizes a slot declaration into (typeName, required, default).
// A union containing absence becomes required=false with the name of the
// single remaining alternative, or a joined Union[...] name when more than
// one remains. List declarations normalize to list[Elem].
// Encountered types are registered as a side effect.
func (ts *TypeSystem) Extract(decl TypeDecl) (string, bool, any) {
	required := !decl.Optional

	switch {
	case len(decl.Union) > 0:
		names := make([]string, 0, len(decl.Union))
		for _, alt := range decl.Union {
			name := ts.TypeName(alt)
			ts.Register(name, alt)
			names = append(names, name)
		}
		if len(names) == 1 {
			return names[0], required, decl.Default
		}
		return fmt.Sprintf("Union[%s]", strings.Join(names, ", ")), required, decl.Default

	case decl.Elem != nil:
		elemName := ts.TypeName(decl.Elem)
		ts.Register(elemName, decl.Elem)
		name := fmt.Sprintf("list[%s]", elemName)
		ts.Register(name, reflect.SliceOf(decl.Elem))
		return name, required, decl.Default

	case decl.Type != nil:
		name := ts.TypeName(decl.Type)
		ts.Register(name, decl.Type)
		return name, required, decl.Default

	default:
		return TypeAny, required, decl.Default
	}
}

// IsCompatible reports whether a value of the source type may be assigned to
// a slot of the target type. Either side being the Any wildcard is always
// compatible; unregistered names are compatible only with themselves.
// Results are cached by the ordered (source, target) pair.
func (ts *TypeSystem) IsCompatible(sourceType, targetType string) bool {
	key := compatKey{source: sourceType, target: targetType}

	ts.mu.RLock()
	if result, ok := ts.compat[key]; ok {
		ts.mu.RUnlock()
		return result
	}
	sourceClass, sourceOK := ts.typeMap[sourceType]
	targetClass, targetOK := ts.typeMap[targetType]
	ts.mu.RUnlock()

	var result bool
	switch {
	case sourceType == TypeAny || targetType == TypeAny:
		result = true
	case !sourceOK || !targetOK:
		// Unregistered names match only themselves.
		result = sourceType == targetType
	case sourceClass == targetClass:
		result = true
	case targetClass.Kind() == reflect.Interface:
		result = sourceClass.Implements(targetClass)
	default:
		result = sourceClass.AssignableTo(targetClass)
	}

	ts.mu.Lock()
	ts.compat[key] = result
	ts.mu.Unlock()

	return result
}

// CompatibilityMap computes the full compatibility relation over all
// registered types, keeping only the compatible pairs.
func (ts *TypeSystem) CompatibilityMap() map[string][]string {
	ts.mu.RLock()
	names := make([]string, 0, len(ts.typeMap))
	for name := range ts.typeMap {
		names = append(names, name)
	}
	ts.mu.RUnlock()

	result := make(map[string][]string)
	for _, source := range names {
		for _, target := range names {
			if ts.IsCompatible(source, target) {
				result[source] = append(result[source], target)
			}
		}
	}
	return result
}
