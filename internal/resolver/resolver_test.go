package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/silkweave/internal/middleware"
	"github.com/hanpama/silkweave/internal/silk"
)

var helloInput = silk.Typed(silk.Object{
	Name: "HelloInput",
	Fields: []silk.ObjectField{
		{Name: "name", Shape: silk.Scalar{Name: "String"}, Required: true},
	},
}, nil)

func tracer(name string, trace *[]string) *middleware.Middleware {
	return middleware.New(name, func(ctx context.Context, next middleware.Next, _ *middleware.Options) (any, error) {
		*trace = append(*trace, name)
		return next(ctx)
	})
}

func TestBareFunctionAndOptionsAreEquivalent(t *testing.T) {
	resolve := ResolveFunc(func(context.Context, any, any) (any, error) { return "hi", nil })
	bare := Query(silk.String, resolve)
	full := Query(silk.String, Options{Resolve: resolve})

	assert.Equal(t, bare.Kind, full.Kind)
	assert.Equal(t, bare.Output, full.Output)
	assert.Nil(t, bare.Input)
	assert.Empty(t, bare.Middlewares)

	for _, op := range []*Operation{bare, full} {
		v, err := op.Call(context.Background(), Request{ParentType: "Query", Field: "hello"})
		require.NoError(t, err)
		assert.Equal(t, "hi", v)
	}
}

func TestBuilderKinds(t *testing.T) {
	fn := ResolveFunc(func(context.Context, any, any) (any, error) { return nil, nil })
	assert.Equal(t, KindQuery, Query(silk.String, fn).Kind)
	assert.Equal(t, KindMutation, Mutation(silk.String, fn).Kind)
	assert.Equal(t, KindField, Field(silk.String, fn).Kind)
	sub := Subscription(silk.Int, SubscribeFunc(func(context.Context, any, any) (<-chan any, error) { return nil, nil }))
	assert.Equal(t, KindSubscription, sub.Kind)
	assert.True(t, sub.IsSubscription())
	assert.False(t, Query(silk.String, fn).IsSubscription())
}

func TestCallParsesInputBeforePipeline(t *testing.T) {
	var ran bool
	mw := middleware.New("spy", func(ctx context.Context, next middleware.Next, opts *middleware.Options) (any, error) {
		ran = true
		assert.Equal(t, map[string]any{"name": "Ada"}, opts.Input)
		assert.Equal(t, "Query.hello", opts.Path())
		assert.Equal(t, "query", opts.Kind)
		return next(ctx)
	})
	op := Query(silk.String, Options{
		Input:       helloInput,
		Middlewares: []*middleware.Middleware{mw},
		Resolve: func(_ context.Context, _ any, input any) (any, error) {
			return "Hello, " + input.(map[string]any)["name"].(string), nil
		},
	})

	v, err := op.Call(context.Background(), Request{ParentType: "Query", Field: "hello", Args: map[string]any{"name": "Ada"}})
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada", v)
	assert.True(t, ran)

	ran = false
	_, err = op.Call(context.Background(), Request{ParentType: "Query", Field: "hello", Args: map[string]any{"name": 7}})
	var ve *silk.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Issues[0].Path)
	assert.False(t, ran)

	_, err = op.Call(context.Background(), Request{ParentType: "Query", Field: "hello"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "required", ve.Issues[0].Code)
}

func TestCallTimeMiddlewaresAppendAfterDeclared(t *testing.T) {
	var trace []string
	a, b, c := tracer("a", &trace), tracer("b", &trace), tracer("c", &trace)
	op := Mutation(silk.String, Options{
		Middlewares: []*middleware.Middleware{a, b},
		Resolve: func(context.Context, any, any) (any, error) {
			trace = append(trace, "resolve")
			return "ok", nil
		},
	})

	_, err := op.Call(context.Background(), Request{Field: "save"}, c, a)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "resolve"}, trace)

	trace = nil
	_, err = op.Call(context.Background(), Request{Field: "save"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "resolve"}, trace)
	assert.Len(t, op.Middlewares, 2)
}

func TestBindRunsOuterFirst(t *testing.T) {
	var trace []string
	global, local := tracer("global", &trace), tracer("local", &trace)
	op := Query(silk.String, Options{
		Middlewares: []*middleware.Middleware{local, global},
		Resolve:     func(context.Context, any, any) (any, error) { return nil, nil },
	})
	bound := op.Bind(global)
	assert.NotSame(t, op, bound)
	assert.Same(t, op, op.Bind())

	_, err := bound.Call(context.Background(), Request{Field: "q"})
	require.NoError(t, err)
	assert.Equal(t, []string{"global", "local"}, trace)
	assert.Equal(t, []*middleware.Middleware{local, global}, op.Middlewares)
}

func TestCallWithoutResolve(t *testing.T) {
	_, err := Field(silk.String, nil).Call(context.Background(), Request{})
	require.ErrorIs(t, err, ErrNoResolve)
}

func TestFieldReceivesParent(t *testing.T) {
	op := Field(silk.Int, ResolveFunc(func(_ context.Context, parent, _ any) (any, error) {
		return parent.(map[string]any)["birthday"].(int) * 2, nil
	}))
	v, err := op.Call(context.Background(), Request{ParentType: "Cat", Field: "double", Parent: map[string]any{"birthday": 21}})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSubscribe(t *testing.T) {
	var trace []string
	op := Subscription(silk.Int, SubscriptionOptions{
		Middlewares: []*middleware.Middleware{tracer("mw", &trace)},
		Subscribe: func(context.Context, any, any) (<-chan any, error) {
			ch := make(chan any, 3)
			ch <- 1
			ch <- 2
			ch <- 3
			close(ch)
			return ch, nil
		},
		Resolve: func(_ context.Context, event, _ any) (any, error) {
			if event.(int) == 2 {
				return nil, errors.New("skip")
			}
			return event.(int) * 10, nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	events, err := op.Subscribe(ctx, Request{ParentType: "Subscription", Field: "count"})
	require.NoError(t, err)

	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	require.Len(t, got, 3)
	assert.Equal(t, 10, got[0].Value)
	assert.EqualError(t, got[1].Err, "skip")
	assert.Equal(t, 30, got[2].Value)
	assert.Equal(t, []string{"mw"}, trace)

	_, err = Query(silk.Int, nil).Subscribe(ctx, Request{Field: "n"})
	require.Error(t, err)
}

func TestResolverCollection(t *testing.T) {
	var trace []string
	shared := tracer("shared", &trace)
	fn := ResolveFunc(func(context.Context, any, any) (any, error) { return "x", nil })
	cat := silk.Typed(silk.Object{Name: "Cat"}, nil)

	r := Of(cat, Operations{
		"name":  Field(silk.String, fn),
		"hello": Query(silk.String, fn),
		"gone":  nil,
	}, WithMiddlewares(shared))

	assert.Same(t, cat, r.Parent())
	assert.Equal(t, []string{"hello", "name"}, r.Names())
	_, ok := r.Operation("gone")
	assert.False(t, ok)

	op, ok := r.Operation("name")
	require.True(t, ok)
	_, err := op.Call(context.Background(), Request{ParentType: "Cat", Field: "name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"shared"}, trace)

	assert.Nil(t, New(Operations{}).Parent())
}
