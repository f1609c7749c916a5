package executor

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	language "github.com/hanpama/silkweave/internal/language"
	schema "github.com/hanpama/silkweave/internal/schema"
)

func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	require.NoError(t, err)
	return d
}

func newSchemaWithQueryType(query *schema.Type, additional ...*schema.Type) *schema.Schema {
	sch := schema.NewSchema("")
	sch.SetQueryType(query.Name)
	sch.AddType(query)
	for _, t := range additional {
		sch.AddType(t)
	}
	return sch
}

func newObjectType(name string, fields ...*schema.Field) *schema.Type {
	t := schema.NewType(name, schema.TypeKindObject, "")
	for _, field := range fields {
		t.AddField(field)
	}
	return t
}

func newScalarType(name string) *schema.Type {
	return schema.NewType(name, schema.TypeKindScalar, "")
}

type fieldFunc func(source any, args map[string]any) (any, error)

func constant(v any) fieldFunc {
	return func(any, map[string]any) (any, error) { return v, nil }
}

func failing(err error) fieldFunc {
	return func(any, map[string]any) (any, error) { return nil, err }
}

// fakeRuntime resolves "Type.field" keys from a table and reads anything
// else off map sources. It records each batch as a list of keys.
type fakeRuntime struct {
	fields  map[string]fieldFunc
	typeOf  func(value any) (string, error)
	streams map[string]func(args map[string]any) (<-chan SubscriptionEvent, error)

	mu      sync.Mutex
	batches [][]string
}

func newFakeRuntime(fields map[string]fieldFunc) *fakeRuntime {
	return &fakeRuntime{fields: fields, streams: map[string]func(map[string]any) (<-chan SubscriptionEvent, error){}}
}

func (r *fakeRuntime) resolve(objectType, field string, source any, args map[string]any) (any, error) {
	if f, ok := r.fields[objectType+"."+field]; ok {
		return f(source, args)
	}
	if m, ok := source.(map[string]any); ok {
		return m[field], nil
	}
	return nil, nil
}

func (r *fakeRuntime) ResolveSync(_ context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	return r.resolve(objectType, field, source, args)
}

func (r *fakeRuntime) BatchResolveAsync(_ context.Context, tasks []AsyncResolveTask) []AsyncResolveResult {
	keys := make([]string, len(tasks))
	out := make([]AsyncResolveResult, len(tasks))
	for i, task := range tasks {
		keys[i] = task.ObjectType + "." + task.Field
		v, err := r.resolve(task.ObjectType, task.Field, task.Source, task.Args)
		out[i] = AsyncResolveResult{Value: v, Error: err}
	}
	r.mu.Lock()
	r.batches = append(r.batches, keys)
	r.mu.Unlock()
	return out
}

func (r *fakeRuntime) ResolveType(_ context.Context, abstractType string, value any) (string, error) {
	if r.typeOf != nil {
		return r.typeOf(value)
	}
	if m, ok := value.(map[string]any); ok {
		if name, ok := m["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("cannot resolve %s for %T", abstractType, value)
}

func (r *fakeRuntime) SerializeLeafValue(_ context.Context, _ string, value any) (any, error) {
	return value, nil
}

func (r *fakeRuntime) Subscribe(_ context.Context, rootType, field string, args map[string]any) (<-chan SubscriptionEvent, error) {
	open, ok := r.streams[rootType+"."+field]
	if !ok {
		return nil, fmt.Errorf("no stream for %s.%s", rootType, field)
	}
	return open(args)
}

func (r *fakeRuntime) recorded() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches
}
