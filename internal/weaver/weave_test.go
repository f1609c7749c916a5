package weaver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/silkweave/internal/middleware"
	"github.com/hanpama/silkweave/internal/resolver"
	"github.com/hanpama/silkweave/internal/schema"
	"github.com/hanpama/silkweave/internal/silk"
)

// lazySilk builds its shape on demand so shapes can refer back to it.
type lazySilk struct {
	name  string
	shape func() silk.Shape
}

func (s *lazySilk) Schema() any                { return s }
func (s *lazySilk) Shape() (silk.Shape, error) { return s.shape(), nil }
func (s *lazySilk) String() string             { return s.name }
func (s *lazySilk) Parse(ctx context.Context, v any) (any, error) {
	return silk.ParseShape(ctx, s.shape(), v)
}

func object(name string, fields ...silk.ObjectField) silk.Silk {
	return silk.Typed(silk.Object{Name: name, Fields: fields}, nil)
}

func required(name string, shape silk.Shape) silk.ObjectField {
	return silk.ObjectField{Name: name, Shape: shape, Required: true}
}

var (
	stringShape = silk.Scalar{Name: "String"}
	intShape    = silk.Scalar{Name: "Int"}
)

func value(v any) resolver.ResolveFunc {
	return func(context.Context, any, any) (any, error) { return v, nil }
}

func TestOutputType_SameNativeSameRef(t *testing.T) {
	c := NewContext()
	cat := object("Cat", required("name", stringShape))

	first, err := c.OutputType(cat)
	require.NoError(t, err)
	second, err := c.OutputType(cat)
	require.NoError(t, err)
	assert.Same(t, first, second)

	list, err := c.OutputType(silk.List(cat))
	require.NoError(t, err)
	assert.Equal(t, "Cat", list.GetNamedType())
	assert.Len(t, c.Types(), 1)

	ref, err := c.OutputType(silk.String)
	require.NoError(t, err)
	assert.Equal(t, schema.NonNullType(schema.NamedType("String")), ref)
	assert.Len(t, c.Types(), 1)
}

func TestWeave_Idempotent(t *testing.T) {
	cat := object("Cat", required("name", stringShape))
	r := resolver.New(resolver.Operations{
		"cat":  resolver.Query(cat, value(map[string]any{"name": "Tom"})),
		"cats": resolver.Query(silk.List(cat), value(nil)),
	})

	first, err := Weave(r)
	require.NoError(t, err)
	second, err := Weave(r)
	require.NoError(t, err)
	assert.Equal(t, first.SDL(), second.SDL())
}

func TestWeave_SelfReference(t *testing.T) {
	category := &lazySilk{name: "Category"}
	category.shape = func() silk.Shape {
		return silk.Object{Name: "Category", Fields: []silk.ObjectField{
			required("name", stringShape),
			{Name: "parent", Shape: silk.Ref{Silk: category}},
			required("children", silk.Array{Elem: silk.Ref{Silk: category}}),
		}}
	}

	res, err := Weave(resolver.New(resolver.Operations{
		"root": resolver.Query(category, value(map[string]any{
			"name": "root",
			"children": []any{
				map[string]any{"name": "leaf", "children": []any{}},
			},
		})),
	}))
	require.NoError(t, err)

	assert.Equal(t, `type Category {
  name: String!
  parent: Category
  children: [Category!]!
}

type Query {
  root: Category!
}
`, res.SDL())

	root := res.Schema.Types[res.Schema.GetQueryType().Field("root").Type.GetNamedType()]
	require.NotNil(t, root)
	assert.Same(t, root, res.Schema.Types[root.Field("parent").Type.GetNamedType()])
	assert.Same(t, root, res.Schema.Types[root.Field("children").Type.GetNamedType()])

	c := NewContext()
	ref, err := c.OutputType(category)
	require.NoError(t, err)
	again, err := c.OutputType(category)
	require.NoError(t, err)
	assert.Same(t, ref, again)
	assert.Same(t, c.ObjectTypeOf(category), c.Type(c.ObjectTypeOf(category).Field("parent").Type.GetNamedType()))

	out := res.Execute(context.Background(), "{ root { name parent { name } children { name parent { name } } } }", "", nil)
	require.Empty(t, out.Errors)
	assert.Equal(t, map[string]any{"root": map[string]any{
		"name":     "root",
		"parent":   nil,
		"children": []any{map[string]any{"name": "leaf", "parent": nil}},
	}}, out.Data)
}

func TestWeave_InterfaceReuse(t *testing.T) {
	named := object("Named", required("name", stringShape))
	cat := silk.Typed(silk.Object{
		Name:       "Cat",
		Fields:     []silk.ObjectField{required("name", stringShape), required("meow", stringShape)},
		Interfaces: []silk.Silk{named},
	}, nil)
	dog := silk.Typed(silk.Object{
		Name:       "Dog",
		Fields:     []silk.ObjectField{required("name", stringShape), required("bark", stringShape)},
		Interfaces: []silk.Silk{named},
	}, nil)

	res, err := Weave(resolver.New(resolver.Operations{
		"cat": resolver.Query(cat, value(nil)),
		"dog": resolver.Query(dog, value(nil)),
	}))
	require.NoError(t, err)

	assert.Equal(t, `type Cat implements Named {
  name: String!
  meow: String!
}

type Dog implements Named {
  name: String!
  bark: String!
}

interface Named {
  name: String!
}

type Query {
  cat: Cat!
  dog: Dog!
}
`, res.SDL())
	assert.Equal(t, []string{"Cat", "Dog"}, res.Schema.Types["Named"].PossibleTypes)
}

func TestEnsureInterfaceType(t *testing.T) {
	c := NewContext()
	_, err := c.OutputType(object("Animal", required("name", stringShape)))
	require.NoError(t, err)

	obj := c.Type("Animal")
	first, err := c.EnsureInterfaceType(obj, nil)
	require.NoError(t, err)
	second, err := c.EnsureInterfaceType(obj, nil)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, schema.TypeKindInterface, first.Kind)
	assert.Same(t, first, c.Type("Animal"))

	again, err := c.EnsureInterfaceType(first, nil)
	require.NoError(t, err)
	assert.Same(t, first, again)

	_, err = c.OutputType(silk.Typed(silk.Enum{Name: "Color", Values: []silk.EnumValue{{Name: "RED", Value: "red"}}}, nil))
	require.NoError(t, err)
	_, err = c.EnsureInterfaceType(c.Type("Color"), nil)
	var target *InvalidTargetError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "Color", target.Type)
	assert.Equal(t, schema.TypeKindEnum, target.Kind)

	_, err = c.EnsureInterfaceType(nil, nil)
	require.ErrorAs(t, err, &target)
}

func TestWeave_HiddenFieldsExcluded(t *testing.T) {
	book := object("Book",
		required("ISBN", silk.Scalar{Name: "ID"}),
		required("title", stringShape),
		required("isPublished", silk.Scalar{Name: "Boolean"}),
		silk.ObjectField{Name: "price", Shape: silk.Scalar{Name: "Float"}},
		required("tags", silk.Array{Elem: stringShape}),
		silk.ObjectField{Name: "sales", Shape: intShape, Required: true, Hidden: true},
	)

	res, err := Weave(resolver.New(resolver.Operations{
		"book": resolver.Query(book, value(map[string]any{
			"ISBN": "978-0441013593", "title": "Dune", "isPublished": true, "tags": []string{"scifi"}, "sales": 12,
		})),
	}))
	require.NoError(t, err)

	assert.Equal(t, `type Book {
  ISBN: ID!
  title: String!
  isPublished: Boolean!
  price: Float
  tags: [String!]!
}

type Query {
  book: Book!
}
`, res.SDL())

	out := res.Execute(context.Background(), "{ book { sales } }", "", nil)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0].Message, `Cannot query field "sales"`)
}

func TestWeave_Nullability(t *testing.T) {
	sample := object("Sample",
		required("a", stringShape),
		silk.ObjectField{Name: "b", Shape: stringShape},
		required("c", silk.Nullable{Inner: stringShape}),
		required("d", silk.Optional{Inner: stringShape}),
		required("e", silk.Array{Elem: stringShape}),
		required("f", silk.Array{Elem: silk.Nullable{Inner: stringShape}}),
		required("g", silk.Nullable{Inner: silk.Array{Elem: stringShape}}),
		silk.ObjectField{Name: "h", Shape: stringShape, Required: true, NullableOverride: true},
		silk.ObjectField{Name: "i", Shape: silk.Nullable{Inner: stringShape}, Required: true, NullableOverride: true},
	)

	res, err := Weave(resolver.New(resolver.Operations{
		"sample": resolver.Query(silk.NullableOf(sample), value(nil)),
	}))
	require.NoError(t, err)

	assert.Equal(t, `type Query {
  sample: Sample
}

type Sample {
  a: String!
  b: String
  c: String
  d: String
  e: [String!]!
  f: [String]!
  g: [String!]
  h: String
  i: String!
}
`, res.SDL())
}

func TestWeave_DiscriminatedUnion(t *testing.T) {
	cat := object("Cat", required("kind", stringShape), required("meow", stringShape))
	dog := object("Dog", required("kind", stringShape), required("bark", stringShape))
	pet := silk.Typed(silk.DiscriminatedUnion{
		Name:          "Pet",
		Discriminator: "kind",
		Variants:      []silk.Variant{{Value: "cat", Silk: cat}, {Value: "dog", Silk: dog}},
	}, nil)

	var pets []any
	res, err := Weave(resolver.New(resolver.Operations{
		"pets": resolver.Query(silk.List(pet), resolver.ResolveFunc(func(context.Context, any, any) (any, error) {
			return pets, nil
		})),
	}))
	require.NoError(t, err)
	assert.Contains(t, res.SDL(), "union Pet = Cat | Dog\n")

	query := "{ pets { __typename ... on Cat { meow } ... on Dog { bark } } }"

	pets = []any{
		map[string]any{"kind": "cat", "meow": "purr"},
		map[string]any{"kind": "dog", "bark": "woof"},
	}
	out := res.Execute(context.Background(), query, "", nil)
	require.Empty(t, out.Errors)
	assert.Equal(t, map[string]any{"pets": []any{
		map[string]any{"__typename": "Cat", "meow": "purr"},
		map[string]any{"__typename": "Dog", "bark": "woof"},
	}}, out.Data)

	pets = []any{map[string]any{"kind": "bird"}}
	out = res.Execute(context.Background(), query, "", nil)
	require.NotEmpty(t, out.Errors)
	assert.Equal(t, "Pet: no variant for kind=bird", out.Errors[0].Message)
	assert.Equal(t, "UNRESOLVED_VARIANT", out.Errors[0].Extensions["code"])
	assert.Equal(t, map[string]any{"pets": nil}, out.Data)
}

func TestWeave_PlainUnionByTypename(t *testing.T) {
	cat := object("Cat", required("meow", stringShape))
	dog := object("Dog", required("bark", stringShape))
	pet := silk.Typed(silk.Union{Name: "Pet", Options: []silk.Silk{cat, dog}}, nil)

	res, err := Weave(resolver.New(resolver.Operations{
		"pet": resolver.Query(pet, value(map[string]any{"__typename": "Dog", "bark": "woof"})),
	}))
	require.NoError(t, err)

	out := res.Execute(context.Background(), "{ pet { ... on Dog { bark } } }", "", nil)
	require.Empty(t, out.Errors)
	assert.Equal(t, map[string]any{"pet": map[string]any{"bark": "woof"}}, out.Data)
}

func TestWeave_UnsupportedShapes(t *testing.T) {
	bad := silk.Typed(silk.Union{Name: "Bad", Options: []silk.Silk{silk.String}}, nil)
	_, err := Weave(resolver.New(resolver.Operations{"bad": resolver.Query(bad, value(nil))}))
	var unsupported *silk.UnsupportedSchemaError
	require.ErrorAs(t, err, &unsupported)

	union := silk.Typed(silk.Union{Name: "Either", Options: []silk.Silk{object("Left", required("x", stringShape))}}, nil)
	_, err = Weave(resolver.New(resolver.Operations{
		"echo": resolver.Query(silk.String, resolver.Options{Input: union, Resolve: value("")}),
	}))
	require.ErrorAs(t, err, &unsupported)
}

func TestWeave_CompositionErrors(t *testing.T) {
	hello := resolver.Query(silk.String, value("hi"))

	t.Run("duplicate operation", func(t *testing.T) {
		res, err := Weave(
			resolver.New(resolver.Operations{"hello": hello}),
			resolver.New(resolver.Operations{"hello": resolver.Query(silk.String, value("again"))}),
		)
		var composition *SchemaCompositionError
		require.ErrorAs(t, err, &composition)
		assert.Equal(t, "Query", composition.Type)
		assert.Equal(t, "hello", composition.Field)
		assert.Nil(t, res)
	})

	t.Run("duplicate type name", func(t *testing.T) {
		res, err := Weave(resolver.New(resolver.Operations{
			"a": resolver.Query(object("Cat", required("x", stringShape)), value(nil)),
			"b": resolver.Query(object("Cat", required("y", stringShape)), value(nil)),
		}))
		var composition *SchemaCompositionError
		require.ErrorAs(t, err, &composition)
		assert.Equal(t, "Cat", composition.Type)
		assert.Nil(t, res)
	})

	t.Run("reserved name", func(t *testing.T) {
		_, err := Weave(resolver.New(resolver.Operations{
			"s": resolver.Query(object("String", required("x", stringShape)), value(nil)),
		}))
		var composition *SchemaCompositionError
		require.ErrorAs(t, err, &composition)
	})

	t.Run("no query", func(t *testing.T) {
		res, err := Weave(resolver.New(resolver.Operations{
			"add": resolver.Mutation(silk.String, value("")),
		}))
		var composition *SchemaCompositionError
		require.ErrorAs(t, err, &composition)
		assert.Nil(t, res)

		_, err = Weave()
		require.ErrorAs(t, err, &composition)
	})

	t.Run("field op without parent", func(t *testing.T) {
		_, err := Weave(resolver.New(resolver.Operations{
			"hello": hello,
			"loose": resolver.Field(silk.String, value("")),
		}))
		var composition *SchemaCompositionError
		require.ErrorAs(t, err, &composition)
	})

	t.Run("field op on non-object parent", func(t *testing.T) {
		_, err := Weave(
			resolver.New(resolver.Operations{"hello": hello}),
			resolver.Of(silk.String, resolver.Operations{"len": resolver.Field(silk.Int, value(0))}),
		)
		var target *InvalidTargetError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "String", target.Type)
	})
}

func TestWeave_FieldOperations(t *testing.T) {
	book := object("Book", required("title", stringShape), required("summary", intShape))
	res, err := Weave(
		resolver.New(resolver.Operations{
			"books": resolver.Query(silk.List(book), value([]any{
				map[string]any{"title": "Dune"},
				map[string]any{"title": "Emma"},
			})),
		}),
		resolver.Of(book, resolver.Operations{
			"summary": resolver.Field(silk.String, resolver.ResolveFunc(func(_ context.Context, parent, _ any) (any, error) {
				return "About " + parent.(map[string]any)["title"].(string), nil
			})),
		}),
	)
	require.NoError(t, err)
	assert.Contains(t, res.SDL(), "  summary: String!\n")

	out := res.Execute(context.Background(), "{ books { title summary } }", "", nil)
	require.Empty(t, out.Errors)
	assert.Equal(t, map[string]any{"books": []any{
		map[string]any{"title": "Dune", "summary": "About Dune"},
		map[string]any{"title": "Emma", "summary": "About Emma"},
	}}, out.Data)
}

func TestWeave_InputParsing(t *testing.T) {
	args := silk.Typed(silk.Object{Name: "GreetArgs", Fields: []silk.ObjectField{required("name", stringShape)}},
		func(_ context.Context, v any) (any, error) {
			name, _ := v.(map[string]any)["name"].(string)
			if name == "" {
				return nil, silk.Invalid("name", "too_small", "name must not be empty")
			}
			return name, nil
		})
	res, err := Weave(resolver.New(resolver.Operations{
		"greet": resolver.Query(silk.String, resolver.Options{
			Input: args,
			Resolve: func(_ context.Context, _, input any) (any, error) {
				return "Hello, " + input.(string), nil
			},
		}),
	}))
	require.NoError(t, err)
	assert.Contains(t, res.SDL(), "  greet(name: String!): String!\n")

	out := res.Execute(context.Background(), `{ greet(name: "Ada") }`, "", nil)
	require.Empty(t, out.Errors)
	assert.Equal(t, map[string]any{"greet": "Hello, Ada"}, out.Data)

	out = res.Execute(context.Background(), `{ greet(name: "") }`, "", nil)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "BAD_USER_INPUT", out.Errors[0].Extensions["code"])

	out = res.Execute(context.Background(), `{ greet }`, "", nil)
	require.NotEmpty(t, out.Errors)
	assert.Equal(t, "GRAPHQL_VALIDATION_FAILED", out.Errors[0].Extensions["code"])
}

func TestWeave_MiddlewareOrder(t *testing.T) {
	var mu sync.Mutex
	var trace []string
	record := func(name string) *middleware.Middleware {
		return middleware.New(name, func(ctx context.Context, next middleware.Next, _ *middleware.Options) (any, error) {
			mu.Lock()
			trace = append(trace, name)
			mu.Unlock()
			return next(ctx)
		})
	}
	global, collection, own := record("global"), record("collection"), record("own")

	res, err := New(WithMiddlewares(global)).Weave(resolver.New(resolver.Operations{
		"hello": resolver.Query(silk.String, resolver.Options{
			Middlewares: []*middleware.Middleware{own, global},
			Resolve: func(context.Context, any, any) (any, error) {
				mu.Lock()
				trace = append(trace, "resolve")
				mu.Unlock()
				return "hi", nil
			},
		}),
	}, resolver.WithMiddlewares(collection)))
	require.NoError(t, err)

	out := res.Execute(context.Background(), "{ hello }", "", nil)
	require.Empty(t, out.Errors)
	assert.Equal(t, []string{"global", "collection", "own", "resolve"}, trace)
}

func TestWeave_MutationsRunSerially(t *testing.T) {
	var mu sync.Mutex
	var order []int
	args := object("AddArgs", required("n", intShape))
	res, err := Weave(
		resolver.New(resolver.Operations{
			"hello": resolver.Query(silk.String, value("hi")),
			"add": resolver.Mutation(silk.Int, resolver.Options{
				Input: args,
				Resolve: func(_ context.Context, _, input any) (any, error) {
					n := input.(map[string]any)["n"].(int)
					if n == 1 {
						time.Sleep(20 * time.Millisecond)
					}
					mu.Lock()
					order = append(order, n)
					mu.Unlock()
					return n, nil
				},
			}),
		}),
	)
	require.NoError(t, err)

	out := res.Execute(context.Background(), "mutation { a: add(n: 1) b: add(n: 2) }", "", nil)
	require.Empty(t, out.Errors)
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, map[string]any{"a": int32(1), "b": int32(2)}, out.Data)
}

func TestWeave_Subscription(t *testing.T) {
	res, err := Weave(resolver.New(resolver.Operations{
		"hello": resolver.Query(silk.String, value("hi")),
		"countdown": resolver.Subscription(silk.Int, resolver.SubscriptionOptions{
			Input: object("CountdownArgs", required("from", intShape)),
			Subscribe: func(_ context.Context, _, input any) (<-chan any, error) {
				from := input.(map[string]any)["from"].(int)
				ch := make(chan any, from)
				for i := from; i > 0; i-- {
					ch <- i
				}
				close(ch)
				return ch, nil
			},
		}),
	}))
	require.NoError(t, err)
	assert.Contains(t, res.SDL(), "type Subscription {\n  countdown(from: Int!): Int!\n}")

	doc, err := res.ParseQuery("subscription { countdown(from: 3) }")
	require.NoError(t, err)
	stream, err := res.Executor().Subscribe(context.Background(), doc, "", nil)
	require.NoError(t, err)

	var got []any
	for r := range stream {
		require.Empty(t, r.Errors)
		got = append(got, r.Data.(map[string]any)["countdown"])
	}
	assert.Equal(t, []any{int32(3), int32(2), int32(1)}, got)
}

func TestWeave_EnumValues(t *testing.T) {
	type color int
	palette := silk.Typed(silk.Enum{Name: "Color", Values: []silk.EnumValue{
		{Name: "RED", Value: color(1)},
		{Name: "BLUE", Value: color(2)},
	}}, nil)
	args := object("PaintArgs", required("color", silk.Ref{Silk: palette}))

	res, err := Weave(resolver.New(resolver.Operations{
		"paint": resolver.Query(palette, resolver.Options{
			Input: args,
			Resolve: func(_ context.Context, _, input any) (any, error) {
				return input.(map[string]any)["color"], nil
			},
		}),
	}))
	require.NoError(t, err)

	out := res.Execute(context.Background(), "{ paint(color: BLUE) }", "", nil)
	require.Empty(t, out.Errors)
	assert.Equal(t, map[string]any{"paint": "BLUE"}, out.Data)
}

func TestContext_Frozen(t *testing.T) {
	c := NewContext()
	cat := object("Cat", required("name", stringShape))
	ref, err := c.OutputType(cat)
	require.NoError(t, err)
	c.Freeze()
	assert.True(t, c.Frozen())

	cached, err := c.OutputType(cat)
	require.NoError(t, err)
	assert.Same(t, ref, cached)

	_, err = c.OutputType(object("Dog", required("name", stringShape)))
	assert.ErrorIs(t, err, ErrFrozen)
}

func TestWeave_ResolverPanicBecomesError(t *testing.T) {
	res, err := Weave(resolver.New(resolver.Operations{
		"boom": resolver.Query(silk.NullableOf(silk.String), resolver.ResolveFunc(func(context.Context, any, any) (any, error) {
			panic("kaboom")
		})),
	}))
	require.NoError(t, err)

	out := res.Execute(context.Background(), "{ boom }", "", nil)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "Query.boom panicked: kaboom", out.Errors[0].Message)
	assert.Equal(t, map[string]any{"boom": nil}, out.Data)
}

func TestWeave_LogsSummary(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	_, err := New(WithLogger(logger)).Weave(resolver.New(resolver.Operations{
		"hello": resolver.Query(silk.String, value("hi")),
	}))
	require.NoError(t, err)

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "schema woven", last.Message)
	assert.Equal(t, 1, last.Data["operations"])
}

func TestWeave_NoPartialSchemaOnLateFailure(t *testing.T) {
	failing := &lazySilk{name: "Broken", shape: func() silk.Shape { return silk.Enum{Name: "Broken"} }}
	res, err := Weave(
		resolver.New(resolver.Operations{"hello": resolver.Query(silk.String, value("hi"))}),
		resolver.New(resolver.Operations{"broken": resolver.Query(failing, value(nil))}),
	)
	require.Error(t, err)
	var unsupported *silk.UnsupportedSchemaError
	assert.True(t, errors.As(err, &unsupported))
	assert.Nil(t, res)
}

func TestWeave_Introspection(t *testing.T) {
	ops := resolver.New(resolver.Operations{
		"cat": resolver.Query(object("Cat", required("name", stringShape)), value(map[string]any{"name": "Tom"})),
	})
	res, err := Weave(ops)
	require.NoError(t, err)

	out := res.Execute(context.Background(), `{ __type(name: "Cat") { kind fields { name } } cat { name } }`, "", nil)
	require.Empty(t, out.Errors)
	assert.Equal(t, map[string]any{
		"__type": map[string]any{"kind": "OBJECT", "fields": []any{map[string]any{"name": "name"}}},
		"cat":    map[string]any{"name": "Tom"},
	}, out.Data)
	assert.NotContains(t, res.SDL(), "__schema")

	res, err = New(WithIntrospection(false)).Weave(ops)
	require.NoError(t, err)
	out = res.Execute(context.Background(), `{ __schema { queryType { name } } }`, "", nil)
	assert.NotEmpty(t, out.Errors)
}

func TestWeave_InlineObjectReused(t *testing.T) {
	point := silk.Object{Name: "Point", Fields: []silk.ObjectField{required("x", intShape), required("y", intShape)}}
	line := object("Line", required("a", point), required("b", point))

	res, err := Weave(resolver.New(resolver.Operations{
		"line": resolver.Query(line, value(map[string]any{
			"a": map[string]any{"x": 0, "y": 0},
			"b": map[string]any{"x": 3, "y": 4},
		})),
	}))
	require.NoError(t, err)
	assert.Contains(t, res.SDL(), "type Point {")
	lineType := res.Schema.Types["Line"]
	assert.Equal(t, "Point", lineType.Field("a").Type.GetNamedType())
	assert.Equal(t, "Point", lineType.Field("b").Type.GetNamedType())

	out := res.Execute(context.Background(), "{ line { a { x } b { y } } }", "", nil)
	require.Empty(t, out.Errors)
	assert.Equal(t, map[string]any{"line": map[string]any{
		"a": map[string]any{"x": int32(0)},
		"b": map[string]any{"y": int32(4)},
	}}, out.Data)
}

func TestWeave_InlineObjectNameClash(t *testing.T) {
	flat := silk.Object{Name: "Point", Fields: []silk.ObjectField{required("x", intShape)}}
	deep := silk.Object{Name: "Point", Fields: []silk.ObjectField{required("x", intShape), required("z", intShape)}}
	line := object("Line", required("a", flat), required("b", deep))

	_, err := Weave(resolver.New(resolver.Operations{
		"line": resolver.Query(line, value(nil)),
	}))
	var ce *SchemaCompositionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Point", ce.Type)
}

func TestWeave_CacheSkipsMutations(t *testing.T) {
	var calls int
	w := New(WithMiddlewares(middleware.Cache(middleware.CacheConfig{TTL: time.Minute})))
	res, err := w.Weave(resolver.New(resolver.Operations{
		"count": resolver.Query(silk.Int, resolver.ResolveFunc(func(context.Context, any, any) (any, error) {
			return calls, nil
		})),
		"inc": resolver.Mutation(silk.Int, resolver.ResolveFunc(func(context.Context, any, any) (any, error) {
			calls++
			return calls, nil
		})),
	}))
	require.NoError(t, err)

	first := res.Execute(context.Background(), "mutation { inc }", "", nil)
	second := res.Execute(context.Background(), "mutation { inc }", "", nil)
	require.Empty(t, first.Errors)
	require.Empty(t, second.Errors)
	assert.Equal(t, map[string]any{"inc": int32(1)}, first.Data)
	assert.Equal(t, map[string]any{"inc": int32(2)}, second.Data)
	assert.Equal(t, 2, calls)
}

func TestWeave_IntInputRange(t *testing.T) {
	input := object("EchoInput", required("n", intShape))
	res, err := Weave(resolver.New(resolver.Operations{
		"echo": resolver.Query(silk.Int, resolver.Options{
			Input: input,
			Resolve: func(_ context.Context, _ any, in any) (any, error) {
				return in.(map[string]any)["n"], nil
			},
		}),
	}))
	require.NoError(t, err)

	out := res.Execute(context.Background(), "query($n: Int!) { echo(n: $n) }", "", map[string]any{"n": 5000000000})
	assert.NotEmpty(t, out.Errors)

	out = res.Execute(context.Background(), "query($n: Int!) { echo(n: $n) }", "", map[string]any{"n": 7})
	require.Empty(t, out.Errors)
	assert.Equal(t, map[string]any{"echo": int32(7)}, out.Data)
}
