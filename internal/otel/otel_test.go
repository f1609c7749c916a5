package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hanpama/silkweave/internal/eventbus"
	"github.com/hanpama/silkweave/internal/events"
	"github.com/hanpama/silkweave/internal/middleware"
	"github.com/hanpama/silkweave/internal/reqid"
)

func recorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, tp
}

func TestSubscribe_ResolveSpansNestUnderOperation(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })
	sr, tp := recorder(t)
	unsubscribe := Subscribe(tp.Tracer(tracerName))
	defer unsubscribe()

	ctx, _ := reqid.NewContext(context.Background())
	eventbus.Publish(ctx, events.OperationStart{OperationName: "Books", OperationType: "query", BatchIndex: 1})
	eventbus.Publish(ctx, events.ResolveStart{Seq: 7, ParentType: "Query", Field: "books", Kind: "query"})
	eventbus.Publish(ctx, events.ResolveFinish{Seq: 7, ParentType: "Query", Field: "books", Kind: "query", Err: errors.New("boom")})
	eventbus.Publish(ctx, events.OperationFinish{OperationName: "Books", OperationType: "query", Errors: []error{errors.New("boom")}})

	spans := sr.Ended()
	require.Len(t, spans, 2)
	resolve, op := spans[0], spans[1]
	assert.Equal(t, "graphql.resolve", resolve.Name())
	assert.Equal(t, "graphql.operation", op.Name())
	assert.Equal(t, op.SpanContext().SpanID(), resolve.Parent().SpanID())
	assert.Equal(t, codes.Error, resolve.Status().Code)
	assert.Contains(t, resolve.Attributes(), attribute.String("graphql.field.path", "Query.books"))
	assert.Contains(t, op.Attributes(), attribute.Int("graphql.error_count", 1))
	assert.Contains(t, op.Attributes(), attribute.Int("graphql.batch.index", 1))
}

func TestSubscribe_UnmatchedFinishIsIgnored(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })
	sr, tp := recorder(t)
	defer Subscribe(tp.Tracer(tracerName))()

	eventbus.Publish(context.Background(), events.ResolveFinish{Seq: 99})
	assert.Empty(t, sr.Ended())
}

func TestMiddleware(t *testing.T) {
	sr, tp := recorder(t)
	mw := Middleware(tp.Tracer(tracerName))
	opts := &middleware.Options{Kind: "mutation", ParentType: "Mutation", Field: "createBook"}

	v, err := middleware.Apply(context.Background(), []*middleware.Middleware{mw}, func(context.Context) (any, error) {
		return "ok", nil
	}, opts)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	_, err = middleware.Apply(context.Background(), []*middleware.Middleware{mw}, func(context.Context) (any, error) {
		return nil, errors.New("denied")
	}, opts)
	require.EqualError(t, err, "denied")

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "Mutation.createBook", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Len(t, spans[1].Events(), 1)
}

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup("", "silkweave")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
