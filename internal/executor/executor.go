package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"

	language "github.com/hanpama/silkweave/internal/language"
	schema "github.com/hanpama/silkweave/internal/schema"
)

var errMissingResult = errors.New("runtime returned no result for the field")

// Executor runs the operations of one schema against a Runtime.
type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

// execution is the state of a single operation run.
type execution struct {
	ctx       context.Context
	runtime   Runtime
	schema    *schema.Schema
	doc       *language.QueryDocument
	variables map[string]any

	pending []pendingField
	errors  []GraphQLError
	// pruned holds response paths nulled by a Non-Null violation. Work
	// queued under them is dropped.
	pruned map[string]bool
}

// pendingField is an operation field waiting for the next batch.
type pendingField struct {
	task  AsyncResolveTask
	field responseField
	typ   *schema.TypeRef
	path  Path
	// landing is where a null escaping this field is written.
	landing Path
}

// ExecuteRequest runs a query or mutation. initialValue is the source of
// the root fields.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	ex, op, root, failed := e.prepare(ctx, document, operationName, variableValues)
	if failed != nil {
		return failed
	}
	if op.Operation == language.Subscription {
		return &ExecutionResult{Errors: []GraphQLError{{Message: "subscription operations must be executed with Subscribe"}}}
	}
	data := ex.selectionSet(root, op.SelectionSet, initialValue, Path{}, nil)
	ex.drain(data)
	return &ExecutionResult{Data: data, Errors: ex.errors}
}

// prepare picks the operation and its root type and coerces the variables.
// A non-nil result reports a request error.
func (e *Executor) prepare(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
) (*execution, *language.OperationDefinition, *schema.Type, *ExecutionResult) {
	op, err := selectOperation(document, operationName)
	if err != nil {
		return nil, nil, nil, &ExecutionResult{Errors: []GraphQLError{newError(err, nil)}}
	}
	variables, err := coerceVariableValues(e.schema, op, variableValues)
	if err != nil {
		return nil, nil, nil, &ExecutionResult{Errors: []GraphQLError{newError(err, nil)}}
	}

	var root *schema.Type
	switch op.Operation {
	case language.Query:
		root = e.schema.GetQueryType()
	case language.Mutation:
		root = e.schema.GetMutationType()
	case language.Subscription:
		root = e.schema.GetSubscriptionType()
	}
	if root == nil {
		return nil, nil, nil, &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("schema does not support %s operations", op.Operation)}}}
	}

	ex := &execution{
		ctx:       ctx,
		runtime:   e.runtime,
		schema:    e.schema,
		doc:       document,
		variables: variables,
		pruned:    make(map[string]bool),
	}
	return ex, op, root, nil
}

// selectOperation finds the named operation, or the only one when name is
// empty.
func selectOperation(doc *language.QueryDocument, name string) (*language.OperationDefinition, error) {
	if name == "" {
		if len(doc.Operations) != 1 {
			return nil, errors.New("operation not found")
		}
		return doc.Operations[0], nil
	}
	if op := doc.Operations.ForName(name); op != nil {
		return op, nil
	}
	return nil, errors.New("operation not found")
}

// drain hands queued operation fields to the runtime one depth at a time
// until nothing is left.
func (ex *execution) drain(data map[string]any) {
	for len(ex.pending) > 0 {
		live := make([]pendingField, 0, len(ex.pending))
		for _, p := range ex.pending {
			if !ex.isPruned(p.path) {
				live = append(live, p)
			}
		}
		ex.pending = nil
		if len(live) == 0 {
			return
		}
		tasks := make([]AsyncResolveTask, len(live))
		for i, p := range live {
			tasks[i] = p.task
		}
		results := ex.runtime.BatchResolveAsync(ex.ctx, tasks)
		for i, p := range live {
			res := AsyncResolveResult{Error: errMissingResult}
			if i < len(results) {
				res = results[i]
			}
			ex.settle(data, p, res)
		}
	}
}

// settle completes a batched field and writes it into data.
func (ex *execution) settle(data map[string]any, p pendingField, res AsyncResolveResult) {
	if ex.isPruned(p.path) {
		return
	}
	var v any
	if res.Error != nil {
		ex.errors = append(ex.errors, newError(res.Error, p.path))
	} else {
		v = ex.complete(p.typ, p.field, res.Value, p.path, p.landing)
	}
	if !isNullish(v) {
		setAt(data, p.path, v)
		return
	}
	if !schema.IsNonNull(p.typ) {
		setAt(data, p.path, nil)
		return
	}
	landing := p.landing
	if len(landing) == 0 {
		// A Non-Null root field nulls only itself.
		landing = p.path[:1]
	}
	setAt(data, landing, nil)
	ex.prune(landing)
}

// selectionSet completes value as objectType. It returns nil when a
// Non-Null field in it is null, except at the root.
func (ex *execution) selectionSet(objectType *schema.Type, set language.SelectionSet, value any, path, landing Path) map[string]any {
	out := make(map[string]any)
	for _, f := range ex.collectFields(objectType, set) {
		name := f.nodes[0].Name
		if name == "__typename" {
			out[f.name] = objectType.Name
			continue
		}
		fieldPath := path.with(f.name)
		def := objectType.Field(name)
		if def == nil {
			ex.addError(fieldPath, "Cannot query field %q on type %q", name, objectType.Name)
			continue
		}
		v, deferred := ex.field(objectType, def, f, value, fieldPath, landing)
		switch {
		case deferred, isNullish(v) && (!schema.IsNonNull(def.Type) || len(path) == 0):
			out[f.name] = nil
		case isNullish(v):
			ex.prune(path)
			return nil
		default:
			out[f.name] = v
		}
	}
	return out
}

// field resolves one response field. Operation fields are queued for the
// next batch and report deferred.
func (ex *execution) field(parent *schema.Type, def *schema.Field, f responseField, source any, path, landing Path) (value any, deferred bool) {
	args, ok := ex.arguments(def, f.nodes[0].Arguments, path)
	if !ok {
		return nil, false
	}
	if !schema.IsNonNull(def.Type) {
		landing = path
	}
	if def.Async {
		ex.pending = append(ex.pending, pendingField{
			task:    AsyncResolveTask{ObjectType: parent.Name, Field: def.Name, Source: source, Args: args},
			field:   f,
			typ:     def.Type,
			path:    path,
			landing: landing,
		})
		return nil, true
	}
	v, err := ex.runtime.ResolveSync(ex.ctx, parent.Name, def.Name, source, args)
	if err != nil {
		ex.errors = append(ex.errors, newError(err, path))
		return nil, false
	}
	return ex.complete(def.Type, f, v, path, landing), false
}

// complete shapes a resolved value by its type. landing is where a null of
// this value ends up.
func (ex *execution) complete(typ *schema.TypeRef, f responseField, v any, path, landing Path) any {
	if schema.IsNonNull(typ) {
		if isNullish(v) {
			ex.addError(path, "Cannot return null for non-nullable field %s.", f.coordinate)
			return nil
		}
		return ex.complete(schema.Unwrap(typ), f, v, path, landing)
	}
	if isNullish(v) {
		return nil
	}
	if schema.IsList(typ) {
		return ex.completeList(typ, f, v, path, landing)
	}

	name := schema.GetNamedType(typ)
	t := ex.schema.Types[name]
	if t == nil {
		ex.addError(path, "Unknown type %s", name)
		return nil
	}
	switch t.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		out, err := ex.runtime.SerializeLeafValue(ex.ctx, name, v)
		if err != nil {
			ex.errors = append(ex.errors, newError(err, path))
			return nil
		}
		return out
	case schema.TypeKindObject:
		return ex.completeObject(t, f, v, path, landing)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		typeName, err := ex.runtime.ResolveType(ex.ctx, name, v)
		if err != nil {
			ex.errors = append(ex.errors, newError(err, path))
			return nil
		}
		obj := ex.schema.Types[typeName]
		if obj == nil || obj.Kind != schema.TypeKindObject || !isPossibleType(t, obj) {
			ex.addError(path, "Abstract type %s must resolve to an Object type at runtime. Got: %s", name, typeName)
			return nil
		}
		return ex.completeObject(obj, f, v, path, landing)
	}
	ex.addError(path, "Cannot complete a value of %s type %s", t.Kind, name)
	return nil
}

func (ex *execution) completeList(typ *schema.TypeRef, f responseField, v any, path, landing Path) any {
	items, ok := listItems(v)
	if !ok {
		ex.addError(path, "Expected a list for %s, got %T", f.coordinate, v)
		return nil
	}
	elem := schema.Unwrap(typ)
	strict := schema.IsNonNull(elem)
	out := make([]any, len(items))
	for i, item := range items {
		p := path.with(i)
		itemLanding := landing
		if !strict {
			itemLanding = p
		}
		c := ex.complete(elem, f, item, p, itemLanding)
		if isNullish(c) {
			if strict {
				ex.prune(path)
				return nil
			}
			c = nil
		}
		out[i] = c
	}
	return out
}

func (ex *execution) completeObject(t *schema.Type, f responseField, v any, path, landing Path) any {
	var set language.SelectionSet
	for _, node := range f.nodes {
		set = append(set, node.SelectionSet...)
	}
	if m := ex.selectionSet(t, set, v, path, landing); m != nil {
		return m
	}
	return nil
}

func (ex *execution) addError(path Path, format string, args ...any) {
	ex.errors = append(ex.errors, GraphQLError{Message: fmt.Sprintf(format, args...), Path: path})
}

func (ex *execution) prune(path Path) {
	ex.pruned[path.key()] = true
}

func (ex *execution) isPruned(path Path) bool {
	if len(ex.pruned) == 0 {
		return false
	}
	for i := 1; i <= len(path); i++ {
		if ex.pruned[path[:i].key()] {
			return true
		}
	}
	return false
}

// listItems accepts []any and any other slice or array.
func listItems(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// isNullish reports nil and typed nil values.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// isPossibleType reports whether object may stand in for abstract.
func isPossibleType(abstract, object *schema.Type) bool {
	if abstract == nil || object == nil {
		return false
	}
	if abstract.Name == object.Name || slices.Contains(abstract.PossibleTypes, object.Name) {
		return true
	}
	return abstract.Kind == schema.TypeKindInterface && slices.Contains(object.Interfaces, abstract.Name)
}
