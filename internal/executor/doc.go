// Package executor runs GraphQL operations breadth first against a
// Runtime.
//
// Fields come in two flavors, told apart by schema.Field.Async:
//   - Data fields (Async=false) are projections of the parent value. They are
//     resolved inline through Runtime.ResolveSync and never add depth.
//   - Operation fields (Async=true) run a resolver. All operation fields
//     discovered at one depth are handed to Runtime.BatchResolveAsync in a
//     single ordered batch; their children are expanded at the next depth.
//
// For a result tree whose deepest chain crosses d operation fields,
// BatchResolveAsync is called exactly d times.
//
// # Completion
//
// Values are completed per the GraphQL rules: Non-Null unwraps and reports a
// violation on null, lists complete element-wise with indexed paths, leaves
// go through Runtime.SerializeLeafValue, abstract values are narrowed with
// Runtime.ResolveType and completed as the returned object type. Fragments
// whose type condition is an interface or union apply to every possible
// object type of it.
//
// # Errors
//
// Errors are collected as located GraphQLErrors; execution continues for
// sibling fields. A null on a Non-Null field nullifies the nearest nullable
// ancestor, whether the field resolved inline or in a batch, and work
// queued under that path is dropped before the next batch. A Non-Null root
// field nulls only itself. Errors implementing Extensions() map[string]any
// carry those extensions into the response.
//
// # Subscriptions
//
// Executor.Subscribe opens the source stream of the single root field of a
// subscription through a Runtime that also implements Subscriber, and
// executes the selection set once per event.
package executor
