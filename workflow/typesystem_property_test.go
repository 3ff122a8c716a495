package workflow

import (
	"reflect"
	"testing"

	"pgregory.net/rapid"
)

// Compatibility answers must be monotonic: for a fixed set of registered
// types, repeated queries for the same ordered pair always yield the same
// answer, whether they hit the cache or not.
func TestTypeSystem_CompatibilityDeterministic(t *testing.T) {
	registered := map[string]reflect.Type{
		"string":  reflect.TypeOf(""),
		"int":     reflect.TypeOf(0),
		"bool":    reflect.TypeOf(false),
		"payload": reflect.TypeOf(testPayload{}),
	}
	names := []string{"string", "int", "bool", "payload", TypeAny, "unregistered"}

	rapid.Check(t, func(t *rapid.T) {
		ts := NewTypeSystem()
		for name, typ := range registered {
			ts.Register(name, typ)
		}

		source := rapid.SampledFrom(names).Draw(t, "source")
		target := rapid.SampledFrom(names).Draw(t, "target")

		first := ts.IsCompatible(source, target)
		for i := 0; i < 3; i++ {
			if got := ts.IsCompatible(source, target); got != first {
				t.Fatalf("IsCompatible(%s, %s) flipped from %v to %v", source, target, first, got)
			}
		}

		// the wildcard is compatible in both directions with everything
		if source == TypeAny || target == TypeAny {
			if !first {
				t.Fatalf("wildcard pair (%s, %s) must be compatible", source, target)
			}
		}

		// identical names are always self-compatible
		if !ts.IsCompatible(source, source) {
			t.Fatalf("%s must be compatible with itself", source)
		}
	})
}

// Extract must agree with IsCompatible: wiring an output straight into an
// input of the same declaration never fails the type gate.
func TestTypeSystem_ExtractSelfCompatible(t *testing.T) {
	decls := []TypeDecl{
		TypeOf[string](),
		TypeOf[int](),
		TypeOf[testPayload](),
		ListOf[string](),
		{Union: []reflect.Type{reflect.TypeOf("")}, Optional: true},
		{Union: []reflect.Type{reflect.TypeOf(""), reflect.TypeOf(0)}},
		{},
	}

	rapid.Check(t, func(t *rapid.T) {
		ts := NewTypeSystem()
		decl := rapid.SampledFrom(decls).Draw(t, "decl")

		name, _, _ := ts.Extract(decl)
		if !ts.IsCompatible(name, name) {
			t.Fatalf("extracted type %q must be self-compatible", name)
		}
	})
}
