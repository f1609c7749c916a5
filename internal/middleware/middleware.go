// Package middleware composes interceptors around operation resolution.
//
// A middleware receives the context, a Next continuation and the call's
// Options. It may run code before and after Next, replace its result, or
// return without calling Next at all. The first middleware of a list is the
// outermost.
package middleware

import (
	"context"

	"github.com/hanpama/silkweave/internal/silk"
)

// Next continues the pipeline. It may be called more than once.
type Next func(ctx context.Context) (any, error)

type Func func(ctx context.Context, next Next, opts *Options) (any, error)

// Middleware is a named interceptor. Lists are deduplicated by pointer, so
// the same *Middleware attached twice runs once.
type Middleware struct {
	name string
	fn   Func
}

func New(name string, fn Func) *Middleware {
	return &Middleware{name: name, fn: fn}
}

func (m *Middleware) Name() string   { return m.name }
func (m *Middleware) String() string { return m.name }

// Options describes the call being intercepted. It is shared by every
// middleware of one invocation and must not be mutated.
type Options struct {
	// Kind is "query", "mutation", "subscription" or "field".
	Kind string
	// ParentType is the GraphQL type owning the field.
	ParentType string
	// Field is the GraphQL field name of the operation.
	Field string
	// Parent is the parent value for field operations, nil for root operations.
	Parent any
	// Args holds the raw coerced arguments.
	Args map[string]any
	// Input is the parsed input, or nil when the operation declares none.
	Input any
	// OutputSilk is the silk of the operation's output.
	OutputSilk silk.Silk
}

// Path returns "ParentType.Field".
func (o *Options) Path() string {
	return o.ParentType + "." + o.Field
}

// Compose concatenates lists in order, skipping any middleware already
// present.
func Compose(lists ...[]*Middleware) []*Middleware {
	var out []*Middleware
	seen := map[*Middleware]struct{}{}
	for _, list := range lists {
		for _, m := range list {
			if m == nil {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}

// Contains reports whether m is in list.
func Contains(list []*Middleware, m *Middleware) bool {
	for _, x := range list {
		if x == m {
			return true
		}
	}
	return false
}

// Chain snapshots mws into a single Func. The returned Func calls mws[0]
// first; the last middleware's Next is the inner function passed at call
// time. Nil entries are skipped.
func Chain(mws []*Middleware) Func {
	fns := make([]Func, 0, len(mws))
	for _, m := range mws {
		if m == nil || m.fn == nil {
			continue
		}
		fns = append(fns, m.fn)
	}
	if len(fns) == 0 {
		return func(ctx context.Context, inner Next, _ *Options) (any, error) {
			return inner(ctx)
		}
	}
	return func(ctx context.Context, inner Next, opts *Options) (any, error) {
		var at func(i int) Next
		at = func(i int) Next {
			if i == len(fns) {
				return inner
			}
			return func(ctx context.Context) (any, error) {
				return fns[i](ctx, at(i+1), opts)
			}
		}
		return at(0)(ctx)
	}
}

// Apply runs inner wrapped by mws.
func Apply(ctx context.Context, mws []*Middleware, inner Next, opts *Options) (any, error) {
	return Chain(mws)(ctx, inner, opts)
}
