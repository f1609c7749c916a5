package resolver

import (
	"sort"

	"github.com/hanpama/silkweave/internal/middleware"
	"github.com/hanpama/silkweave/internal/silk"
)

// Operations maps GraphQL field names to operations.
type Operations map[string]*Operation

// Resolver is a read-only collection of operations. Root resolvers hold
// queries, mutations and subscriptions; resolvers built with Of hold fields
// of the parent's object type and may hold root operations too.
type Resolver struct {
	parent      silk.Silk
	ops         Operations
	names       []string
	middlewares []*middleware.Middleware
}

type Option func(*Resolver)

// WithMiddlewares adds middlewares around every operation of the resolver.
func WithMiddlewares(mws ...*middleware.Middleware) Option {
	return func(r *Resolver) { r.middlewares = append(r.middlewares, mws...) }
}

func New(ops Operations, opts ...Option) *Resolver {
	return build(nil, ops, opts)
}

// Of groups field resolvers of parent.
func Of(parent silk.Silk, ops Operations, opts ...Option) *Resolver {
	return build(parent, ops, opts)
}

func build(parent silk.Silk, ops Operations, opts []Option) *Resolver {
	r := &Resolver{parent: parent}
	for _, opt := range opts {
		opt(r)
	}
	r.ops = make(Operations, len(ops))
	for name, op := range ops {
		if op == nil {
			continue
		}
		r.ops[name] = op.Bind(r.middlewares...)
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r
}

// Parent returns the parent silk, or nil for root resolvers.
func (r *Resolver) Parent() silk.Silk { return r.parent }

// Names returns operation names in sorted order.
func (r *Resolver) Names() []string {
	return append([]string(nil), r.names...)
}

func (r *Resolver) Operation(name string) (*Operation, bool) {
	op, ok := r.ops[name]
	return op, ok
}
