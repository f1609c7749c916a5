package weaver

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hanpama/silkweave/internal/eventbus"
	"github.com/hanpama/silkweave/internal/events"
	"github.com/hanpama/silkweave/internal/executor"
	"github.com/hanpama/silkweave/internal/resolver"
	"github.com/hanpama/silkweave/internal/schema"
	"github.com/hanpama/silkweave/internal/silk"
)

var resolveSeq atomic.Uint64

// Runtime resolves fields of a woven schema for the executor. It only reads
// the frozen Context and is safe for concurrent use.
type Runtime struct {
	types  *Context
	schema *schema.Schema
	ops    map[string]map[string]*resolver.Operation
	logger logrus.FieldLogger
	limit  int
}

var (
	_ executor.Runtime    = (*Runtime)(nil)
	_ executor.Subscriber = (*Runtime)(nil)
)

// Operation returns the operation bound to typeName.field.
func (r *Runtime) Operation(typeName, field string) (*resolver.Operation, bool) {
	op, ok := r.ops[typeName][field]
	return op, ok
}

// ResolveSync reads a data field off the parent value.
func (r *Runtime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	if op, ok := r.Operation(objectType, field); ok {
		return r.call(ctx, op, objectType, field, source, args)
	}
	if fr, ok := r.types.silks[objectType].(silk.FieldResolver); ok {
		return fr.ResolveField(source, field)
	}
	v, _ := lookup(source, field)
	return v, nil
}

// BatchResolveAsync runs operation fields. Mutation root fields run one
// after another in task order; everything else runs concurrently, bounded
// by the configured limit.
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	var g errgroup.Group
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}
	for i, task := range tasks {
		if r.schema.MutationType != "" && task.ObjectType == r.schema.MutationType {
			v, err := r.resolveTask(ctx, task)
			results[i] = executor.AsyncResolveResult{Value: v, Error: err}
			continue
		}
		g.Go(func() error {
			v, err := r.resolveTask(ctx, task)
			results[i] = executor.AsyncResolveResult{Value: v, Error: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runtime) resolveTask(ctx context.Context, task executor.AsyncResolveTask) (any, error) {
	op, ok := r.Operation(task.ObjectType, task.Field)
	if !ok {
		return r.ResolveSync(ctx, task.ObjectType, task.Field, task.Source, task.Args)
	}
	return r.call(ctx, op, task.ObjectType, task.Field, task.Source, task.Args)
}

func (r *Runtime) call(ctx context.Context, op *resolver.Operation, parentType, field string, source any, args map[string]any) (value any, err error) {
	seq := resolveSeq.Add(1)
	kind := string(op.Kind)
	eventbus.Publish(ctx, events.ResolveStart{Seq: seq, ParentType: parentType, Field: field, Kind: kind})
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			value, err = nil, fmt.Errorf("%s.%s panicked: %v", parentType, field, p)
			r.logger.WithFields(logrus.Fields{"type": parentType, "field": field}).Error(err)
		}
		eventbus.Publish(ctx, events.ResolveFinish{
			Seq:        seq,
			ParentType: parentType,
			Field:      field,
			Kind:       kind,
			Err:        err,
			Duration:   time.Since(start),
		})
	}()
	return op.Call(ctx, resolver.Request{ParentType: parentType, Field: field, Parent: source, Args: args})
}

// ResolveType picks the object type of an interface or union value. A
// registered resolver wins; otherwise a __typename entry, then the
// possible types' IsTypeOf, then a sole possible type decide.
func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	if resolve, ok := r.types.resolvers[abstractType]; ok {
		return resolve(ctx, value)
	}
	t := r.schema.Types[abstractType]
	if t == nil || !t.IsAbstract() {
		return "", fmt.Errorf("%s is not an abstract type", abstractType)
	}
	if v, ok := lookup(value, "__typename"); ok {
		if name, isString := v.(string); isString && slices.Contains(t.PossibleTypes, name) {
			return name, nil
		}
	}
	for _, name := range t.PossibleTypes {
		if m, ok := r.types.silks[name].(silk.TypeMatcher); ok && m.IsTypeOf(value) {
			return name, nil
		}
	}
	if len(t.PossibleTypes) == 1 {
		return t.PossibleTypes[0], nil
	}
	return "", fmt.Errorf("cannot determine which type of %s a %T value is", abstractType, value)
}

// SerializeLeafValue maps native enum values to names and coerces scalars.
func (r *Runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if e, ok := r.types.enums[typeName]; ok {
		name, found := e.NameOf(value)
		if !found {
			return nil, fmt.Errorf("enum %s cannot represent value %v", typeName, value)
		}
		return name, nil
	}
	if s, ok := r.types.scalars[typeName]; ok && s.Serialize != nil {
		return s.Serialize(value)
	}
	return silk.SerializeScalar(typeName, value)
}

// Subscribe opens the event stream of a subscription root field.
func (r *Runtime) Subscribe(ctx context.Context, rootType, field string, args map[string]any) (<-chan executor.SubscriptionEvent, error) {
	op, ok := r.Operation(rootType, field)
	if !ok {
		return nil, fmt.Errorf("no subscription %s.%s", rootType, field)
	}
	stream, err := op.Subscribe(ctx, resolver.Request{ParentType: rootType, Field: field, Args: args})
	if err != nil {
		return nil, err
	}
	out := make(chan executor.SubscriptionEvent)
	go func() {
		defer close(out)
		for ev := range stream {
			select {
			case out <- executor.SubscriptionEvent{Value: ev.Value, Err: ev.Err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
