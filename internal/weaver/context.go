// Package weaver turns resolver collections into an executable schema.
//
// Weaving derives a GraphQL type for every silk reachable from the
// operations, attaches the operations as fields of the root and parent
// types, and returns the schema together with a Runtime the executor
// resolves fields through. All derived state lives in a Context created
// per Weave call.
package weaver

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hanpama/silkweave/internal/logging"
	"github.com/hanpama/silkweave/internal/schema"
	"github.com/hanpama/silkweave/internal/silk"
)

// TypeResolver picks the concrete object type name of an abstract value.
type TypeResolver func(ctx context.Context, value any) (string, error)

// InputOptions customizes an input object derived from an object silk.
type InputOptions struct {
	// Name overrides the default "<Object>Input" name.
	Name string
	// Omit lists fields left out of the input object.
	Omit []string
}

type inputKey struct {
	native any
	name   string
	omit   string
}

// inlineKey owns types declared inline in a shape rather than by a silk.
type inlineKey struct {
	kind string
	name string
}

// Context caches derived types by native schema identity for one weave.
// It is mutated while weaving and read-only once frozen.
type Context struct {
	logger logrus.FieldLogger

	names  []string
	types  map[string]*schema.Type
	owners map[string]any

	outputs    map[any]*schema.TypeRef
	inputs     map[inputKey]*schema.TypeRef
	named      map[any]*schema.Type
	inputTypes map[any]*schema.Type
	interfaces map[*schema.Type]*schema.Type

	silks     map[string]silk.Silk
	resolvers map[string]TypeResolver
	enums     map[string]silk.Enum
	scalars   map[string]silk.Scalar

	// inlineShapes fingerprints shapes declared inline, by owner key.
	inlineShapes map[inlineKey]string

	frozen bool
}

type ContextOption func(*Context)

func WithContextLogger(l logrus.FieldLogger) ContextOption {
	return func(c *Context) { c.logger = l }
}

func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		logger:     logging.Discard(),
		types:      make(map[string]*schema.Type),
		owners:     make(map[string]any),
		outputs:    make(map[any]*schema.TypeRef),
		inputs:     make(map[inputKey]*schema.TypeRef),
		named:      make(map[any]*schema.Type),
		inputTypes: make(map[any]*schema.Type),
		interfaces: make(map[*schema.Type]*schema.Type),
		silks:      make(map[string]silk.Silk),
		resolvers:  make(map[string]TypeResolver),
		enums:      make(map[string]silk.Enum),
		scalars:    make(map[string]silk.Scalar),

		inlineShapes: make(map[inlineKey]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OutputType derives the output type of s. Repeated calls with silks
// wrapping the same native schema return the same *TypeRef.
func (c *Context) OutputType(s silk.Silk) (*schema.TypeRef, error) {
	native, err := identity(s)
	if err != nil {
		return nil, err
	}
	if ref, ok := c.outputs[native]; ok {
		return ref, nil
	}
	if c.frozen {
		return nil, ErrFrozen
	}
	shape, err := s.Shape()
	if err != nil {
		return nil, err
	}
	ref, err := c.output(shape, native, s)
	if err != nil {
		return nil, err
	}
	// a recursive derivation may have cached it already
	if cached, ok := c.outputs[native]; ok {
		return cached, nil
	}
	c.outputs[native] = ref
	return ref, nil
}

// InputType derives the input type of s. Hidden and read-only fields are
// omitted and optional fields become nullable.
func (c *Context) InputType(s silk.Silk, opts InputOptions) (*schema.TypeRef, error) {
	native, err := identity(s)
	if err != nil {
		return nil, err
	}
	key := inputKey{native: native, name: opts.Name, omit: omitKey(opts.Omit)}
	if ref, ok := c.inputs[key]; ok {
		return ref, nil
	}
	if c.frozen {
		return nil, ErrFrozen
	}
	shape, err := s.Shape()
	if err != nil {
		return nil, err
	}
	ref, err := c.input(shape, key, opts)
	if err != nil {
		return nil, err
	}
	if cached, ok := c.inputs[key]; ok {
		return cached, nil
	}
	c.inputs[key] = ref
	return ref, nil
}

// InputFields flattens an object silk into field arguments.
func (c *Context) InputFields(s silk.Silk) ([]*schema.InputValue, error) {
	if c.frozen {
		return nil, ErrFrozen
	}
	obj, err := objectShape(s)
	if err != nil {
		return nil, err
	}
	return c.inputFields(obj, nil)
}

// EnsureObjectType returns the object type derived for native, running
// derive on first use. The type is registered before derive runs, so a
// re-entrant call for the same native returns the type still under
// construction instead of recursing.
func (c *Context) EnsureObjectType(native any, name string, derive func(*schema.Type) error) (*schema.Type, error) {
	if t, ok := c.named[native]; ok {
		return t, nil
	}
	if c.frozen {
		return nil, ErrFrozen
	}
	if name == "" {
		return nil, &silk.UnsupportedSchemaError{Schema: native, Reason: "object type has no name"}
	}
	t := schema.NewType(name, schema.TypeKindObject, "")
	if err := c.register(t, native); err != nil {
		return nil, err
	}
	c.named[native] = t
	if derive != nil {
		if err := derive(t); err != nil {
			return nil, err
		}
	}
	c.logger.WithField("type", name).Debug("derived object type")
	return t, nil
}

// EnsureInterfaceType promotes obj to an interface of the same name. The
// interface replaces obj in the registry. Promoting the same object twice
// returns the same interface.
func (c *Context) EnsureInterfaceType(obj *schema.Type, resolve TypeResolver) (*schema.Type, error) {
	if obj == nil {
		return nil, &InvalidTargetError{Type: "<nil>"}
	}
	if it, ok := c.interfaces[obj]; ok {
		return it, nil
	}
	if obj.Kind == schema.TypeKindInterface {
		return obj, nil
	}
	if obj.Kind != schema.TypeKindObject {
		return nil, &InvalidTargetError{Type: obj.Name, Kind: obj.Kind}
	}
	if c.frozen {
		return nil, ErrFrozen
	}
	it := schema.NewType(obj.Name, schema.TypeKindInterface, obj.Description)
	it.Fields = slices.Clone(obj.Fields)
	c.interfaces[obj] = it
	if c.types[obj.Name] == obj {
		c.types[obj.Name] = it
	}
	if resolve != nil {
		c.resolvers[it.Name] = resolve
	}
	return it, nil
}

// Type returns the registered type with the given name.
func (c *Context) Type(name string) *schema.Type {
	if t := schema.BuiltinScalar(name); t != nil {
		return t
	}
	return c.types[name]
}

// ObjectTypeOf returns the type derived for native, if any.
func (c *Context) ObjectTypeOf(native any) *schema.Type {
	return c.named[native]
}

// Types returns the registered types in registration order.
func (c *Context) Types() []*schema.Type {
	out := make([]*schema.Type, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.types[name])
	}
	return out
}

// Freeze ends the weaving phase. Cached lookups keep working; deriving new
// types fails with ErrFrozen.
func (c *Context) Freeze() {
	if c.frozen {
		return
	}
	// interfaces promoted while their object was still being derived
	for obj, it := range c.interfaces {
		for _, f := range obj.Fields {
			if it.Field(f.Name) == nil {
				it.AddField(f)
			}
		}
	}
	c.frozen = true
}

func (c *Context) Frozen() bool { return c.frozen }

func (c *Context) register(t *schema.Type, owner any) error {
	if schema.BuiltinScalar(t.Name) != nil {
		return &SchemaCompositionError{Type: t.Name, Reason: "name is reserved for a built-in scalar"}
	}
	if strings.HasPrefix(t.Name, "__") {
		return &SchemaCompositionError{Type: t.Name, Reason: "names starting with __ are reserved"}
	}
	if _, ok := c.types[t.Name]; ok {
		return &SchemaCompositionError{
			Type:   t.Name,
			Reason: fmt.Sprintf("defined by both %s and %s", describe(c.owners[t.Name]), describe(owner)),
		}
	}
	c.types[t.Name] = t
	c.owners[t.Name] = owner
	c.names = append(c.names, t.Name)
	return nil
}

func identity(s silk.Silk) (any, error) {
	if s == nil {
		return nil, &silk.UnsupportedSchemaError{Reason: "nil silk"}
	}
	native := s.Schema()
	if native == nil {
		return nil, &silk.UnsupportedSchemaError{Schema: s, Reason: "silk wraps no native schema"}
	}
	if !reflect.TypeOf(native).Comparable() {
		return nil, &silk.UnsupportedSchemaError{Schema: native, Reason: "native schema is not comparable"}
	}
	return native, nil
}

func objectShape(s silk.Silk) (silk.Object, error) {
	if s == nil {
		return silk.Object{}, &silk.UnsupportedSchemaError{Reason: "nil silk"}
	}
	current := s
	for range 32 {
		shape, err := current.Shape()
		if err != nil {
			return silk.Object{}, err
		}
		inner, _ := silk.Unwrap(shape)
		switch v := inner.(type) {
		case silk.Object:
			return v, nil
		case silk.Ref:
			current = v.Silk
		default:
			return silk.Object{}, &silk.UnsupportedSchemaError{Schema: s.Schema(), Reason: "input must be an object"}
		}
	}
	return silk.Object{}, &silk.UnsupportedSchemaError{Schema: s.Schema(), Reason: "input references nest too deeply"}
}

func omitKey(omit []string) string {
	if len(omit) == 0 {
		return ""
	}
	sorted := slices.Clone(omit)
	slices.Sort(sorted)
	return strings.Join(sorted, ",")
}

func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case inlineKey:
		return "inline " + x.kind + " " + x.name
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprintf("%T", v)
}
