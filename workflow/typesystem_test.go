package workflow

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Text string
}

type testNotifier interface {
	Notify(text string)
}

type testEmailNotifier struct{}

func (testEmailNotifier) Notify(string) {}

func TestTypeSystem_RegisterResolve(t *testing.T) {
	t.Parallel()

	ts := NewTypeSystem()
	ts.Register("testPayload", reflect.TypeOf(testPayload{}))

	resolved, ok := ts.Resolve("testPayload")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(testPayload{}), resolved)

	_, ok = ts.Resolve("missing")
	assert.False(t, ok)
}

func TestTypeSystem_TypeName(t *testing.T) {
	t.Parallel()

	ts := NewTypeSystem()
	assert.Equal(t, "string", ts.TypeName(reflect.TypeOf("")))
	assert.Equal(t, "int", ts.TypeName(reflect.TypeOf(0)))
	assert.Equal(t, "testPayload", ts.TypeName(reflect.TypeOf(testPayload{})))
	assert.Equal(t, TypeAny, ts.TypeName(nil))
}

func TestTypeSystem_Extract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		decl         TypeDecl
		wantName     string
		wantRequired bool
	}{
		{
			name:         "concrete type",
			decl:         TypeOf[string](),
			wantName:     "string",
			wantRequired: true,
		},
		{
			name:         "optional concrete type",
			decl:         TypeDecl{Type: reflect.TypeOf(""), Optional: true},
			wantName:     "string",
			wantRequired: false,
		},
		{
			name: "optional union with single remaining alternative",
			decl: TypeDecl{
				Union:    []reflect.Type{reflect.TypeOf(0)},
				Optional: true,
			},
			wantName:     "int",
			wantRequired: false,
		},
		{
			name: "union with multiple alternatives",
			decl: TypeDecl{
				Union: []reflect.Type{reflect.TypeOf(""), reflect.TypeOf(0)},
			},
			wantName:     "Union[string, int]",
			wantRequired: true,
		},
		{
			name:         "list declaration",
			decl:         ListOf[string](),
			wantName:     "list[string]",
			wantRequired: true,
		},
		{
			name:         "empty declaration is the wildcard",
			decl:         TypeDecl{},
			wantName:     TypeAny,
			wantRequired: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ts := NewTypeSystem()
			name, required, _ := ts.Extract(tt.decl)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantRequired, required)
		})
	}
}

func TestTypeSystem_ExtractRegistersTypes(t *testing.T) {
	t.Parallel()

	ts := NewTypeSystem()
	name, _, _ := ts.Extract(ListOf[int]())
	require.Equal(t, "list[int]", name)

	listType, ok := ts.Resolve("list[int]")
	require.True(t, ok)
	assert.Equal(t, reflect.SliceOf(reflect.TypeOf(0)), listType)

	_, ok = ts.Resolve("int")
	assert.True(t, ok)
}

func TestTypeSystem_IsCompatible(t *testing.T) {
	t.Parallel()

	ts := NewTypeSystem()
	ts.Register("string", reflect.TypeOf(""))
	ts.Register("int", reflect.TypeOf(0))
	ts.Register("testEmailNotifier", reflect.TypeOf(testEmailNotifier{}))
	ts.Register("testNotifier", reflect.TypeOf((*testNotifier)(nil)).Elem())

	tests := []struct {
		source string
		target string
		want   bool
	}{
		{"string", "string", true},
		{"string", "int", false},
		{"string", TypeAny, true},
		{TypeAny, "int", true},
		{TypeAny, TypeAny, true},
		// implementations are subtypes of their interfaces
		{"testEmailNotifier", "testNotifier", true},
		{"testNotifier", "testEmailNotifier", false},
		// unregistered names only match themselves
		{"ghost", "ghost", true},
		{"ghost", "string", false},
	}

	for _, tt := range tests {
		tt := tt
		assert.Equal(t, tt.want, ts.IsCompatible(tt.source, tt.target),
			"IsCompatible(%s, %s)", tt.source, tt.target)
	}
}

func TestTypeSystem_CompatibilityMap(t *testing.T) {
	t.Parallel()

	ts := NewTypeSystem()
	ts.Register("string", reflect.TypeOf(""))
	ts.Register("int", reflect.TypeOf(0))

	m := ts.CompatibilityMap()
	assert.Contains(t, m["string"], "string")
	assert.NotContains(t, m["string"], "int")
}
