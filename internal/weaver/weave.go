package weaver

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hanpama/silkweave/internal/executor"
	"github.com/hanpama/silkweave/internal/introspection"
	"github.com/hanpama/silkweave/internal/language"
	"github.com/hanpama/silkweave/internal/logging"
	"github.com/hanpama/silkweave/internal/middleware"
	"github.com/hanpama/silkweave/internal/resolver"
	"github.com/hanpama/silkweave/internal/schema"
)

const (
	queryType        = "Query"
	mutationType     = "Mutation"
	subscriptionType = "Subscription"
)

// Weaver holds weave-wide settings. A Weaver may be reused; every Weave
// call gets a fresh Context.
type Weaver struct {
	logger         logrus.FieldLogger
	middlewares    []*middleware.Middleware
	validateSDL    bool
	maxConcurrency int
	description    string
	introspection  bool
}

type Option func(*Weaver)

func WithLogger(l logrus.FieldLogger) Option {
	return func(w *Weaver) { w.logger = l }
}

// WithMiddlewares adds middlewares around every operation. They run
// outside the operation's own middlewares.
func WithMiddlewares(mws ...*middleware.Middleware) Option {
	return func(w *Weaver) { w.middlewares = append(w.middlewares, mws...) }
}

// WithSDLValidation toggles validating the woven schema with gqlparser.
// It is on by default.
func WithSDLValidation(enabled bool) Option {
	return func(w *Weaver) { w.validateSDL = enabled }
}

// WithMaxConcurrency bounds concurrently running resolvers per execution
// depth. Zero means unbounded.
func WithMaxConcurrency(n int) Option {
	return func(w *Weaver) { w.maxConcurrency = n }
}

// WithIntrospection toggles answering __schema and __type queries. It is
// on by default.
func WithIntrospection(enabled bool) Option {
	return func(w *Weaver) { w.introspection = enabled }
}

func WithDescription(desc string) Option {
	return func(w *Weaver) { w.description = desc }
}

func New(opts ...Option) *Weaver {
	w := &Weaver{logger: logging.Discard(), validateSDL: true, introspection: true}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Weave builds a schema with default settings.
func Weave(resolvers ...*resolver.Resolver) (*Result, error) {
	return New().Weave(resolvers...)
}

// Result is a woven schema and the runtime resolving it.
type Result struct {
	Schema  *schema.Schema
	Runtime *Runtime
	// AST is the gqlparser view of Schema, used to validate queries. It is
	// nil when SDL validation is disabled.
	AST *language.Schema

	introspection bool
}

// SDL renders the schema.
func (r *Result) SDL() string { return schema.Render(r.Schema) }

// Executor returns an executor bound to the runtime. With introspection
// enabled it also serves the meta fields.
func (r *Result) Executor() *executor.Executor {
	if r.introspection {
		return executor.NewExecutor(introspection.Wrap(r.Runtime, r.Schema))
	}
	return executor.NewExecutor(r.Runtime, r.Schema)
}

// ParseQuery parses query and, when an AST is available, validates it.
func (r *Result) ParseQuery(query string) (*language.QueryDocument, error) {
	if r.AST != nil {
		return language.LoadQuery(r.AST, query)
	}
	return language.ParseQuery(query)
}

// Execute parses and runs a query or mutation.
func (r *Result) Execute(ctx context.Context, query, operationName string, variables map[string]any) *executor.ExecutionResult {
	doc, err := r.ParseQuery(query)
	if err != nil {
		return &executor.ExecutionResult{Errors: executor.ErrorsOf(err)}
	}
	return r.Executor().ExecuteRequest(ctx, doc, operationName, variables, nil)
}

type weaving struct {
	ctx   *Context
	roots map[string]*schema.Type
	ops   map[string]map[string]*resolver.Operation
}

// Weave derives the schema of resolvers. It fails without returning a
// partial result when any operation or type cannot be woven.
func (w *Weaver) Weave(resolvers ...*resolver.Resolver) (*Result, error) {
	start := time.Now()
	ctx := NewContext(WithContextLogger(w.logger))
	st := &weaving{
		ctx:   ctx,
		roots: make(map[string]*schema.Type),
		ops:   make(map[string]map[string]*resolver.Operation),
	}

	for _, r := range resolvers {
		if r == nil {
			continue
		}
		if err := w.weaveResolver(st, r); err != nil {
			return nil, err
		}
	}
	query := st.roots[queryType]
	if query == nil || len(query.Fields) == 0 {
		return nil, &SchemaCompositionError{Type: queryType, Reason: "schema has no query operations"}
	}
	ctx.Freeze()

	sch := schema.NewSchema(w.description)
	for _, t := range ctx.Types() {
		sch.AddType(t)
	}
	sch.SetQueryType(queryType)
	if st.roots[mutationType] != nil {
		sch.SetMutationType(mutationType)
	}
	if st.roots[subscriptionType] != nil {
		sch.SetSubscriptionType(subscriptionType)
	}

	var ast *language.Schema
	if w.validateSDL {
		var err error
		ast, err = language.LoadSchema("woven.graphql", schema.Render(sch))
		if err != nil {
			return nil, &SchemaCompositionError{Reason: err.Error()}
		}
	}

	runtime := &Runtime{
		types:  ctx,
		schema: sch,
		ops:    st.ops,
		logger: w.logger,
		limit:  w.maxConcurrency,
	}
	opCount := 0
	for _, fields := range st.ops {
		opCount += len(fields)
	}
	w.logger.WithFields(logrus.Fields{
		"types":       len(sch.Types),
		"operations":  opCount,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("schema woven")
	return &Result{Schema: sch, Runtime: runtime, AST: ast, introspection: w.introspection}, nil
}

func (w *Weaver) weaveResolver(st *weaving, r *resolver.Resolver) error {
	for _, name := range r.Names() {
		op, _ := r.Operation(name)
		if op.Output == nil {
			return &SchemaCompositionError{Field: name, Reason: "operation has no output silk"}
		}
		parent, err := w.parentType(st, r, op, name)
		if err != nil {
			return err
		}
		if err := w.weaveOperation(st, parent, name, op.Bind(w.middlewares...)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Weaver) parentType(st *weaving, r *resolver.Resolver, op *resolver.Operation, name string) (*schema.Type, error) {
	switch op.Kind {
	case resolver.KindQuery:
		return st.root(queryType)
	case resolver.KindMutation:
		return st.root(mutationType)
	case resolver.KindSubscription:
		if !op.IsSubscription() {
			return nil, &SchemaCompositionError{Type: subscriptionType, Field: name, Reason: "subscription has no subscribe function"}
		}
		return st.root(subscriptionType)
	case resolver.KindField:
		if r.Parent() == nil {
			return nil, &SchemaCompositionError{Field: name, Reason: "field operation declared without a parent type"}
		}
		ref, err := st.ctx.OutputType(r.Parent())
		if err != nil {
			return nil, err
		}
		t := st.ctx.Type(ref.GetNamedType())
		if t == nil {
			return nil, &SchemaCompositionError{Type: ref.GetNamedType(), Field: name, Reason: "parent type is not registered"}
		}
		if t.Kind != schema.TypeKindObject {
			return nil, &InvalidTargetError{Type: t.Name, Kind: t.Kind}
		}
		return t, nil
	}
	return nil, &SchemaCompositionError{Field: name, Reason: fmt.Sprintf("unknown operation kind %q", op.Kind)}
}

func (st *weaving) root(name string) (*schema.Type, error) {
	if t, ok := st.roots[name]; ok {
		return t, nil
	}
	t := schema.NewType(name, schema.TypeKindObject, "")
	if err := st.ctx.register(t, inlineKey{kind: "root", name: name}); err != nil {
		return nil, err
	}
	st.roots[name] = t
	return t, nil
}

func (w *Weaver) weaveOperation(st *weaving, parent *schema.Type, name string, op *resolver.Operation) error {
	if _, dup := st.ops[parent.Name][name]; dup {
		return &SchemaCompositionError{Type: parent.Name, Field: name, Reason: "operation is defined more than once"}
	}
	out, err := st.ctx.OutputType(op.Output)
	if err != nil {
		return fmt.Errorf("%s.%s output: %w", parent.Name, name, err)
	}
	field := schema.NewField(name, op.Description, out).SetAsync(true)
	if op.DeprecationReason != "" {
		field.Deprecate(op.DeprecationReason)
	}
	if op.Input != nil {
		args, err := st.ctx.InputFields(op.Input)
		if err != nil {
			return fmt.Errorf("%s.%s input: %w", parent.Name, name, err)
		}
		for _, arg := range args {
			field.AddArgument(arg)
		}
	}
	// an operation on a parent type replaces the data field of the same name
	parent.ReplaceField(field)

	if st.ops[parent.Name] == nil {
		st.ops[parent.Name] = make(map[string]*resolver.Operation)
	}
	st.ops[parent.Name][name] = op
	w.logger.WithFields(logrus.Fields{"type": parent.Name, "field": name, "kind": op.Kind}).Debug("woven operation")
	return nil
}
