// Package resolver builds operations and fields and groups them into
// resolver collections for the weaver.
//
// Builders accept either a bare function or an options struct. Both
// normalize to Options, so the resulting *Operation is the same.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/hanpama/silkweave/internal/middleware"
	"github.com/hanpama/silkweave/internal/silk"
)

type Kind string

const (
	KindQuery        Kind = "query"
	KindMutation     Kind = "mutation"
	KindSubscription Kind = "subscription"
	KindField        Kind = "field"
)

// ResolveFunc computes an operation's output. Parent is nil for root
// operations; input is the parsed input, or nil when none is declared.
type ResolveFunc func(ctx context.Context, parent, input any) (any, error)

// SubscribeFunc opens an event stream. The stream ends when the channel is
// closed or ctx is done.
type SubscribeFunc func(ctx context.Context, parent, input any) (<-chan any, error)

// Definition is what the builders accept: a ResolveFunc or Options.
type Definition interface {
	operationOptions() Options
}

type Options struct {
	Input             silk.Silk
	Resolve           ResolveFunc
	Middlewares       []*middleware.Middleware
	Description       string
	DeprecationReason string
	Extensions        map[string]any
}

func (f ResolveFunc) operationOptions() Options { return Options{Resolve: f} }
func (o Options) operationOptions() Options     { return o }

// SubscriptionDefinition is a SubscribeFunc or SubscriptionOptions.
type SubscriptionDefinition interface {
	subscriptionOptions() SubscriptionOptions
}

type SubscriptionOptions struct {
	Input     silk.Silk
	Subscribe SubscribeFunc
	// Resolve maps each event; the event is passed as parent. Nil passes
	// events through unchanged.
	Resolve           ResolveFunc
	Middlewares       []*middleware.Middleware
	Description       string
	DeprecationReason string
	Extensions        map[string]any
}

func (f SubscribeFunc) subscriptionOptions() SubscriptionOptions {
	return SubscriptionOptions{Subscribe: f}
}
func (o SubscriptionOptions) subscriptionOptions() SubscriptionOptions { return o }

// Operation is a query, mutation, subscription or field ready to be woven.
// It is immutable after construction.
type Operation struct {
	Kind              Kind
	Input             silk.Silk
	Output            silk.Silk
	Middlewares       []*middleware.Middleware
	Description       string
	DeprecationReason string
	Extensions        map[string]any

	resolve   ResolveFunc
	subscribe SubscribeFunc
	chain     middleware.Func
}

var ErrNoResolve = errors.New("operation has no resolve function")

func Query(output silk.Silk, def Definition) *Operation {
	return newOperation(KindQuery, output, def)
}

func Mutation(output silk.Silk, def Definition) *Operation {
	return newOperation(KindMutation, output, def)
}

// Field builds a field resolved against a parent value.
func Field(output silk.Silk, def Definition) *Operation {
	return newOperation(KindField, output, def)
}

func Subscription(output silk.Silk, def SubscriptionDefinition) *Operation {
	var o SubscriptionOptions
	if def != nil {
		o = def.subscriptionOptions()
	}
	resolve := o.Resolve
	if resolve == nil {
		resolve = func(_ context.Context, event, _ any) (any, error) { return event, nil }
	}
	op := &Operation{
		Kind:              KindSubscription,
		Input:             o.Input,
		Output:            output,
		Middlewares:       middleware.Compose(o.Middlewares),
		Description:       o.Description,
		DeprecationReason: o.DeprecationReason,
		Extensions:        o.Extensions,
		resolve:           resolve,
		subscribe:         o.Subscribe,
	}
	op.chain = middleware.Chain(op.Middlewares)
	return op
}

func newOperation(kind Kind, output silk.Silk, def Definition) *Operation {
	var o Options
	if def != nil {
		o = def.operationOptions()
	}
	op := &Operation{
		Kind:              kind,
		Input:             o.Input,
		Output:            output,
		Middlewares:       middleware.Compose(o.Middlewares),
		Description:       o.Description,
		DeprecationReason: o.DeprecationReason,
		Extensions:        o.Extensions,
		resolve:           o.Resolve,
	}
	op.chain = middleware.Chain(op.Middlewares)
	return op
}

// Bind returns a copy of op whose pipeline runs outer before the declared
// middlewares. Middlewares present in both run once, in the outer position.
func (op *Operation) Bind(outer ...*middleware.Middleware) *Operation {
	if len(outer) == 0 {
		return op
	}
	cp := *op
	cp.Middlewares = middleware.Compose(outer, op.Middlewares)
	cp.chain = middleware.Chain(cp.Middlewares)
	return &cp
}

// Request identifies one invocation.
type Request struct {
	ParentType string
	Field      string
	Parent     any
	// Args are the raw field arguments. They are parsed by the input silk
	// before the pipeline runs.
	Args map[string]any
}

// Call parses the input, then runs the pipeline around the resolve
// function. Extra middlewares run inside the declared ones; any already
// declared are skipped.
func (op *Operation) Call(ctx context.Context, req Request, extra ...*middleware.Middleware) (any, error) {
	if op.resolve == nil {
		return nil, ErrNoResolve
	}
	opts, err := op.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return op.pipeline(extra)(ctx, func(ctx context.Context) (any, error) {
		return op.resolve(ctx, req.Parent, opts.Input)
	}, opts)
}

// Event is one resolved subscription event.
type Event struct {
	Value any
	Err   error
}

// Subscribe opens the subscription through the pipeline and maps every
// event through the resolve function.
func (op *Operation) Subscribe(ctx context.Context, req Request, extra ...*middleware.Middleware) (<-chan Event, error) {
	if op.subscribe == nil {
		return nil, fmt.Errorf("%s operation %s cannot be subscribed to", op.Kind, req.Field)
	}
	opts, err := op.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	stream, err := op.pipeline(extra)(ctx, func(ctx context.Context) (any, error) {
		return op.subscribe(ctx, req.Parent, opts.Input)
	}, opts)
	if err != nil {
		return nil, err
	}
	src, ok := stream.(<-chan any)
	if !ok {
		return nil, fmt.Errorf("subscription %s: middleware returned %T, want <-chan any", req.Field, stream)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			var ev any
			select {
			case <-ctx.Done():
				return
			case ev, ok = <-src:
				if !ok {
					return
				}
			}
			v, err := op.resolve(ctx, ev, opts.Input)
			select {
			case out <- Event{Value: v, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// IsSubscription reports whether op can be subscribed to.
func (op *Operation) IsSubscription() bool { return op.subscribe != nil }

func (op *Operation) prepare(ctx context.Context, req Request) (*middleware.Options, error) {
	var input any
	if op.Input != nil {
		args := req.Args
		if args == nil {
			args = map[string]any{}
		}
		parsed, err := op.Input.Parse(ctx, args)
		if err != nil {
			return nil, err
		}
		input = parsed
	}
	return &middleware.Options{
		Kind:       string(op.Kind),
		ParentType: req.ParentType,
		Field:      req.Field,
		Parent:     req.Parent,
		Args:       req.Args,
		Input:      input,
		OutputSilk: op.Output,
	}, nil
}

func (op *Operation) pipeline(extra []*middleware.Middleware) middleware.Func {
	var added []*middleware.Middleware
	for _, m := range extra {
		if m != nil && !middleware.Contains(op.Middlewares, m) && !middleware.Contains(added, m) {
			added = append(added, m)
		}
	}
	if len(added) == 0 {
		return op.chain
	}
	return middleware.Chain(middleware.Compose(op.Middlewares, added))
}
