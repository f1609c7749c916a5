package introspection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/silkweave/internal/executor"
	"github.com/hanpama/silkweave/internal/language"
	"github.com/hanpama/silkweave/internal/schema"
)

// noopRuntime resolves every field to null.
type noopRuntime struct{}

func (noopRuntime) ResolveSync(context.Context, string, string, any, map[string]any) (any, error) {
	return nil, nil
}

func (noopRuntime) BatchResolveAsync(_ context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	return make([]executor.AsyncResolveResult, len(tasks))
}

func (noopRuntime) ResolveType(context.Context, string, any) (string, error) {
	return "", nil
}

func (noopRuntime) SerializeLeafValue(_ context.Context, _ string, value any) (any, error) {
	return value, nil
}

const sdl = `
"""A book"""
type Book {
  title: String!
  tags: [String!]!
}

enum Genre {
  FICTION
  HISTORY
}

type Query {
  book(genre: Genre): Book
}
`

func execute(t *testing.T, query string) map[string]any {
	t.Helper()
	sch, err := schema.BuildFromSDL(sdl)
	require.NoError(t, err)
	exec := executor.NewExecutor(Wrap(noopRuntime{}, sch))
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	res := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Empty(t, res.Errors)
	return res.Data.(map[string]any)
}

func TestSchemaRoots(t *testing.T) {
	data := execute(t, `{ __schema { queryType { name } mutationType { name } } }`)
	assert.Equal(t, map[string]any{
		"queryType":    map[string]any{"name": "Query"},
		"mutationType": nil,
	}, data["__schema"])
}

func TestTypeFields(t *testing.T) {
	data := execute(t, `{
  __type(name: "Book") {
    kind
    name
    description
    fields { name type { kind name ofType { kind name } } }
  }
}`)
	assert.Equal(t, map[string]any{
		"kind":        "OBJECT",
		"name":        "Book",
		"description": "A book",
		"fields": []any{
			map[string]any{"name": "title", "type": map[string]any{
				"kind": "NON_NULL", "name": nil,
				"ofType": map[string]any{"kind": "SCALAR", "name": "String"},
			}},
			map[string]any{"name": "tags", "type": map[string]any{
				"kind": "NON_NULL", "name": nil,
				"ofType": map[string]any{"kind": "LIST", "name": nil},
			}},
		},
	}, data["__type"])
}

func TestEnumValuesAndMissingType(t *testing.T) {
	data := execute(t, `{
  genre: __type(name: "Genre") { kind enumValues { name } }
  missing: __type(name: "Nope") { name }
}`)
	assert.Equal(t, map[string]any{
		"kind":       "ENUM",
		"enumValues": []any{map[string]any{"name": "FICTION"}, map[string]any{"name": "HISTORY"}},
	}, data["genre"])
	assert.Nil(t, data["missing"])
}

func TestArgsAndOrdinaryFields(t *testing.T) {
	data := execute(t, `{
  __type(name: "Query") { fields { name args { name type { name } } } }
  book { title }
}`)
	assert.Equal(t, map[string]any{"fields": []any{
		map[string]any{"name": "book", "args": []any{
			map[string]any{"name": "genre", "type": map[string]any{"name": "Genre"}},
		}},
	}}, data["__type"])
	assert.Nil(t, data["book"])
}
