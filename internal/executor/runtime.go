package executor

import (
	"context"
)

// Runtime resolves fields for the Executor.
//
// Execution is breadth first. At each depth the Executor resolves data
// fields inline through ResolveSync, then hands every operation field found
// at that depth to one BatchResolveAsync call. The next depth starts after
// that call returns. Work under a response path that a Non-Null violation
// already nulled is never handed out.
//
// Errors from any method become located GraphQL errors. Implementations
// must be safe for concurrent operations and must not mutate sources or
// arguments.
type Runtime interface {
	// ResolveSync returns the raw value of a data field (Async == false).
	// source is the parent value, nil for root fields. (nil, nil) is null.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync resolves the operation fields of one depth. It
	// returns one result per task, in task order; a failing task does not
	// fail its siblings. Mutation root fields are expected to run one after
	// another in task order.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// ResolveType names the object type of a value of an interface or union.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue turns a scalar or enum value into its response
	// form. Enums serialize to their names.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// AsyncResolveTask is one operation field of a batch.
type AsyncResolveTask struct {
	ObjectType string
	Field      string
	// Source is the parent value, nil for root fields.
	Source any
	// Args are coerced against the field's argument types.
	Args map[string]any
}

// AsyncResolveResult is the raw value of a task or its error.
type AsyncResolveResult struct {
	Value any
	Error error
}

// SubscriptionEvent is one item of a subscription source stream.
type SubscriptionEvent struct {
	Value any
	Err   error
}

// Subscriber is implemented by runtimes that support subscriptions.
type Subscriber interface {
	// Subscribe opens the source stream of a subscription root field. The
	// stream is closed when it ends or ctx is done.
	Subscribe(ctx context.Context, rootType, field string, args map[string]any) (<-chan SubscriptionEvent, error)
}
