package executor

import (
	"context"
	"fmt"

	language "github.com/hanpama/silkweave/internal/language"
	schema "github.com/hanpama/silkweave/internal/schema"
)

// Subscribe opens a subscription and returns one ExecutionResult per source
// event. The channel closes when the source stream ends or ctx is done.
func (e *Executor) Subscribe(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
) (<-chan *ExecutionResult, error) {
	sub, ok := e.runtime.(Subscriber)
	if !ok {
		return nil, fmt.Errorf("runtime does not support subscriptions")
	}
	ex, op, root, failed := e.prepare(ctx, document, operationName, variableValues)
	if failed != nil {
		return nil, failed.Errors[0]
	}
	if op.Operation != language.Subscription {
		return nil, fmt.Errorf("operation %q is a %s, not a subscription", op.Name, op.Operation)
	}

	fields := ex.collectFields(root, op.SelectionSet)
	if len(fields) != 1 {
		return nil, fmt.Errorf("subscription must select exactly one root field, got %d", len(fields))
	}
	field := fields[0]
	def := root.Field(field.nodes[0].Name)
	if def == nil {
		return nil, fmt.Errorf("cannot subscribe to field '%s' on type '%s'", field.nodes[0].Name, root.Name)
	}
	path := Path{field.name}
	args, ok := ex.arguments(def, field.nodes[0].Arguments, path)
	if !ok {
		return nil, ex.errors[0]
	}

	source, err := sub.Subscribe(ctx, root.Name, def.Name, args)
	if err != nil {
		return nil, err
	}

	out := make(chan *ExecutionResult)
	go func() {
		defer close(out)
		for {
			var ev SubscriptionEvent
			select {
			case <-ctx.Done():
				return
			case next, ok := <-source:
				if !ok {
					return
				}
				ev = next
			}
			// each event runs against fresh state
			evEx, _, _, _ := e.prepare(ctx, document, operationName, variableValues)
			result := evEx.event(field, def.Type, ev, path)
			select {
			case out <- result:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// event executes the selection set of the root field over one source event.
func (ex *execution) event(field responseField, typ *schema.TypeRef, ev SubscriptionEvent, path Path) *ExecutionResult {
	data := map[string]any{field.name: nil}
	ex.settle(data, pendingField{field: field, typ: typ, path: path}, AsyncResolveResult{Value: ev.Value, Error: ev.Err})
	ex.drain(data)
	return &ExecutionResult{Data: data, Errors: ex.errors}
}
