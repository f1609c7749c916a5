package entity

import (
	"context"
	"fmt"

	"github.com/hanpama/silkweave/internal/middleware"
	"github.com/hanpama/silkweave/internal/resolver"
	"github.com/hanpama/silkweave/internal/silk"
)

// Session is the unit of work entity operations write through.
type Session interface {
	// Create builds an entity instance from parsed input.
	Create(ctx context.Context, schema *Schema, data map[string]any) (any, error)
	// Persist schedules the instance for insertion.
	Persist(ctx context.Context, entity any) error
	// Flush commits everything scheduled. Scheduled entities are dropped
	// whether or not the commit succeeds.
	Flush(ctx context.Context) error
}

// SessionFunc returns the session of the current request.
type SessionFunc func(ctx context.Context) (Session, error)

// Operations builds operations for one entity.
type Operations struct {
	schema     *Schema
	silk       silk.Silk
	getSession SessionFunc
	flush      *middleware.Middleware
}

// NewOperations returns the operation builder of schema. getSession is
// called on every resolution. The flush middleware opens a unit of work
// when the context carries none, so Forked sessions work without one.
func NewOperations(schema *Schema, getSession SessionFunc) *Operations {
	o := &Operations{
		schema:     schema,
		silk:       Silk(schema),
		getSession: getSession,
	}
	o.flush = middleware.New("flush "+schema.Name, func(ctx context.Context, next middleware.Next, _ *middleware.Options) (any, error) {
		if !HasUnitOfWork(ctx) {
			ctx = WithUnitOfWork(ctx)
		}
		result, err := next(ctx)
		if err != nil {
			return nil, err
		}
		sess, err := o.getSession(ctx)
		if err != nil {
			return nil, err
		}
		if err := sess.Flush(ctx); err != nil {
			return nil, fmt.Errorf("flush %s: %w", schema.Name, err)
		}
		return result, nil
	})
	return o
}

// Silk returns the entity's output silk.
func (o *Operations) Silk() silk.Silk { return o.silk }

// FlushMiddleware commits the session after the wrapped resolution
// succeeds. The same middleware value is returned on every call.
func (o *Operations) FlushMiddleware() *middleware.Middleware { return o.flush }

// DefaultCreateInput is the entity without its primary keys, named
// <Entity>CreateInput.
func (o *Operations) DefaultCreateInput() silk.Silk {
	omit := make(map[string]bool)
	for _, k := range o.schema.PrimaryKeys() {
		omit[k] = true
	}
	return &entitySilk{schema: o.schema, name: createInputName(o.schema), omit: omit}
}

// CreateOptions configures Create. A nil Input uses DefaultCreateInput.
type CreateOptions struct {
	Input             silk.Silk
	Middlewares       []*middleware.Middleware
	Description       string
	DeprecationReason string
	Extensions        map[string]any
}

// Create builds a mutation that creates and persists one entity. The flush
// middleware runs after the given middlewares unless they already hold it.
func (o *Operations) Create(opts CreateOptions) *resolver.Operation {
	input := opts.Input
	if input == nil {
		input = o.DefaultCreateInput()
	}
	return resolver.Mutation(o.silk, resolver.Options{
		Input:             input,
		Middlewares:       middleware.Compose(opts.Middlewares, []*middleware.Middleware{o.flush}),
		Description:       opts.Description,
		DeprecationReason: opts.DeprecationReason,
		Extensions:        opts.Extensions,
		Resolve: func(ctx context.Context, _, in any) (any, error) {
			data, ok := in.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("create %s: input parsed to %T, want map[string]any", o.schema.Name, in)
			}
			sess, err := o.getSession(ctx)
			if err != nil {
				return nil, err
			}
			instance, err := sess.Create(ctx, o.schema, data)
			if err != nil {
				return nil, err
			}
			if err := sess.Persist(ctx, instance); err != nil {
				return nil, err
			}
			return instance, nil
		},
	})
}
