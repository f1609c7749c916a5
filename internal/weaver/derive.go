package weaver

import (
	"context"
	"fmt"
	"strings"

	"github.com/hanpama/silkweave/internal/schema"
	"github.com/hanpama/silkweave/internal/silk"
)

// output walks shape. owner is the native schema the shape belongs to, or
// nil for shapes nested inside another silk's shape.
func (c *Context) output(shape silk.Shape, owner any, src silk.Silk) (*schema.TypeRef, error) {
	switch s := shape.(type) {
	case silk.Nullable:
		inner, err := c.output(s.Inner, owner, src)
		if err != nil {
			return nil, err
		}
		return withNullability(inner, true), nil
	case silk.Optional:
		inner, err := c.output(s.Inner, owner, src)
		if err != nil {
			return nil, err
		}
		return withNullability(inner, true), nil
	case silk.Ref:
		return c.OutputType(s.Silk)
	case silk.Scalar:
		if err := c.ensureScalar(s); err != nil {
			return nil, err
		}
		return schema.NonNullType(schema.NamedType(s.Name)), nil
	case silk.Enum:
		t, err := c.ensureEnum(s, owner)
		if err != nil {
			return nil, err
		}
		return schema.NonNullType(schema.NamedType(t.Name)), nil
	case silk.Array:
		elem, err := c.output(s.Elem, nil, nil)
		if err != nil {
			return nil, err
		}
		return schema.NonNullType(schema.ListType(elem)), nil
	case silk.Object:
		if owner == nil {
			key, err := c.inline("object", s.Name, s)
			if err != nil {
				return nil, err
			}
			owner = key
		}
		t, err := c.EnsureObjectType(owner, s.Name, func(t *schema.Type) error {
			if src != nil {
				c.silks[t.Name] = src
			}
			return c.deriveObject(t, s)
		})
		if err != nil {
			return nil, err
		}
		return schema.NonNullType(schema.NamedType(t.Name)), nil
	case silk.Union:
		if owner == nil {
			key, err := c.inline("union", s.Name, s)
			if err != nil {
				return nil, err
			}
			owner = key
		}
		t, err := c.ensureUnion(s, owner)
		if err != nil {
			return nil, err
		}
		return schema.NonNullType(schema.NamedType(t.Name)), nil
	case silk.DiscriminatedUnion:
		if owner == nil {
			key, err := c.inline("union", s.Name, s)
			if err != nil {
				return nil, err
			}
			owner = key
		}
		t, err := c.ensureDiscriminatedUnion(s, owner)
		if err != nil {
			return nil, err
		}
		return schema.NonNullType(schema.NamedType(t.Name)), nil
	}
	return nil, &silk.UnsupportedSchemaError{Schema: owner, Reason: fmt.Sprintf("no output mapping for shape %T", shape)}
}

func (c *Context) deriveObject(t *schema.Type, obj silk.Object) error {
	t.Description = obj.Description
	for _, f := range obj.Fields {
		if f.Hidden {
			continue
		}
		if t.Field(f.Name) != nil {
			return &SchemaCompositionError{Type: t.Name, Field: f.Name, Reason: "duplicate field"}
		}
		ref, err := c.output(f.Shape, nil, nil)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", t.Name, f.Name, err)
		}
		field := schema.NewField(f.Name, f.Description, withNullability(ref, f.Nullable()))
		if f.DeprecationReason != "" {
			field.Deprecate(f.DeprecationReason)
		}
		t.AddField(field)
	}
	for _, iface := range obj.Interfaces {
		ref, err := c.OutputType(iface)
		if err != nil {
			return fmt.Errorf("%s implements: %w", t.Name, err)
		}
		target := c.named[iface.Schema()]
		if target == nil {
			target = c.Type(ref.GetNamedType())
		}
		it, err := c.EnsureInterfaceType(target, nil)
		if err != nil {
			return err
		}
		t.AddInterface(it.Name)
		it.AddPossibleType(t.Name)
	}
	return nil
}

// inline returns the owner key of a type declared inline. The same inline
// shape may appear any number of times; a different shape under the same
// name is a composition error.
func (c *Context) inline(kind, name string, shape silk.Shape) (inlineKey, error) {
	key := inlineKey{kind: kind, name: name}
	print := fmt.Sprintf("%#v", shape)
	if prev, ok := c.inlineShapes[key]; ok && prev != print {
		return key, &SchemaCompositionError{Type: name, Reason: "defined by two different inline " + kind + " shapes"}
	}
	c.inlineShapes[key] = print
	return key, nil
}

func (c *Context) ensureScalar(s silk.Scalar) error {
	if s.Name == "" {
		return &silk.UnsupportedSchemaError{Schema: s, Reason: "scalar has no name"}
	}
	if schema.BuiltinScalar(s.Name) != nil {
		return nil
	}
	key := inlineKey{kind: "scalar", name: s.Name}
	if _, ok := c.named[key]; ok {
		return nil
	}
	t := schema.NewType(s.Name, schema.TypeKindScalar, s.Description)
	if err := c.register(t, key); err != nil {
		return err
	}
	c.named[key] = t
	c.scalars[s.Name] = s
	return nil
}

func (c *Context) ensureEnum(e silk.Enum, owner any) (*schema.Type, error) {
	if owner == nil {
		key, err := c.inline("enum", e.Name, e)
		if err != nil {
			return nil, err
		}
		owner = key
	}
	if t, ok := c.named[owner]; ok {
		return t, nil
	}
	if e.Name == "" || len(e.Values) == 0 {
		return nil, &silk.UnsupportedSchemaError{Schema: owner, Reason: "enum needs a name and at least one value"}
	}
	t := schema.NewType(e.Name, schema.TypeKindEnum, e.Description)
	for _, v := range e.Values {
		ev := schema.NewEnumValue(v.Name, v.Description)
		if v.DeprecationReason != "" {
			ev.Deprecate(v.DeprecationReason)
		}
		t.AddEnumValue(ev)
	}
	if err := c.register(t, owner); err != nil {
		return nil, err
	}
	c.named[owner] = t
	c.enums[e.Name] = e
	return t, nil
}

func (c *Context) ensureUnion(u silk.Union, owner any) (*schema.Type, error) {
	if t, ok := c.named[owner]; ok {
		return t, nil
	}
	if u.Name == "" || len(u.Options) == 0 {
		return nil, &silk.UnsupportedSchemaError{Schema: owner, Reason: "union needs a name and at least one option"}
	}
	t := schema.NewType(u.Name, schema.TypeKindUnion, u.Description)
	if err := c.register(t, owner); err != nil {
		return nil, err
	}
	c.named[owner] = t
	for _, opt := range u.Options {
		name, err := c.unionMember(u.Name, opt)
		if err != nil {
			return nil, err
		}
		t.AddPossibleType(name)
	}
	return t, nil
}

func (c *Context) ensureDiscriminatedUnion(d silk.DiscriminatedUnion, owner any) (*schema.Type, error) {
	if t, ok := c.named[owner]; ok {
		return t, nil
	}
	if d.Name == "" || d.Discriminator == "" || len(d.Variants) == 0 {
		return nil, &silk.UnsupportedSchemaError{Schema: owner, Reason: "discriminated union needs a name, a discriminator and at least one variant"}
	}
	t := schema.NewType(d.Name, schema.TypeKindUnion, d.Description)
	if err := c.register(t, owner); err != nil {
		return nil, err
	}
	c.named[owner] = t

	variants := make(map[string]string, len(d.Variants))
	readers := make([]silk.Silk, 0, len(d.Variants))
	for _, v := range d.Variants {
		if _, dup := variants[v.Value]; dup {
			return nil, &silk.UnsupportedSchemaError{Schema: owner, Reason: fmt.Sprintf("duplicate discriminator value %q", v.Value)}
		}
		name, err := c.unionMember(d.Name, v.Silk)
		if err != nil {
			return nil, err
		}
		variants[v.Value] = name
		readers = append(readers, v.Silk)
		t.AddPossibleType(name)
	}
	c.resolvers[t.Name] = discriminate(d.Name, d.Discriminator, variants, readers)
	return t, nil
}

func (c *Context) unionMember(union string, opt silk.Silk) (string, error) {
	ref, err := c.OutputType(opt)
	if err != nil {
		return "", fmt.Errorf("union %s: %w", union, err)
	}
	name := ref.GetNamedType()
	if t := c.types[name]; t == nil || t.Kind != schema.TypeKindObject {
		return "", &silk.UnsupportedSchemaError{
			Schema: opt.Schema(),
			Reason: fmt.Sprintf("union %s member %s is not an object type", union, name),
		}
	}
	return name, nil
}

// discriminate reads the discriminator off a value and maps it to the
// variant's object type.
func discriminate(union, key string, variants map[string]string, readers []silk.Silk) TypeResolver {
	return func(_ context.Context, value any) (string, error) {
		raw, ok := lookup(value, key)
		if !ok {
			for _, s := range readers {
				fr, isReader := s.(silk.FieldResolver)
				if !isReader {
					continue
				}
				if v, err := fr.ResolveField(value, key); err == nil && v != nil {
					raw, ok = v, true
					break
				}
			}
		}
		if ok && raw != nil {
			if name, found := variants[fmt.Sprint(raw)]; found {
				return name, nil
			}
		}
		return "", &UnresolvedVariantError{Union: union, Discriminator: key, Value: raw}
	}
}

func (c *Context) input(shape silk.Shape, key inputKey, opts InputOptions) (*schema.TypeRef, error) {
	switch s := shape.(type) {
	case silk.Nullable:
		inner, err := c.input(s.Inner, key, opts)
		if err != nil {
			return nil, err
		}
		return withNullability(inner, true), nil
	case silk.Optional:
		inner, err := c.input(s.Inner, key, opts)
		if err != nil {
			return nil, err
		}
		return withNullability(inner, true), nil
	case silk.Ref:
		return c.InputType(s.Silk, InputOptions{})
	case silk.Scalar:
		if err := c.ensureScalar(s); err != nil {
			return nil, err
		}
		return schema.NonNullType(schema.NamedType(s.Name)), nil
	case silk.Enum:
		t, err := c.ensureEnum(s, key.native)
		if err != nil {
			return nil, err
		}
		return schema.NonNullType(schema.NamedType(t.Name)), nil
	case silk.Array:
		elem, err := c.input(s.Elem, inputKey{}, InputOptions{})
		if err != nil {
			return nil, err
		}
		return schema.NonNullType(schema.ListType(elem)), nil
	case silk.Object:
		t, err := c.ensureInputObject(s, key, opts)
		if err != nil {
			return nil, err
		}
		return schema.NonNullType(schema.NamedType(t.Name)), nil
	case silk.Union, silk.DiscriminatedUnion:
		return nil, &silk.UnsupportedSchemaError{Schema: key.native, Reason: fmt.Sprintf("union %s cannot be used as input", silk.Named(s))}
	}
	return nil, &silk.UnsupportedSchemaError{Schema: key.native, Reason: fmt.Sprintf("no input mapping for shape %T", shape)}
}

func (c *Context) ensureInputObject(obj silk.Object, key inputKey, opts InputOptions) (*schema.Type, error) {
	name := opts.Name
	if name == "" {
		name = inputName(obj.Name)
	}
	var owner any = key
	if key.native == nil {
		ik, err := c.inline("input", name, obj)
		if err != nil {
			return nil, err
		}
		owner = ik
	} else {
		key.name = name
		owner = key
	}
	if t, ok := c.inputTypes[owner]; ok {
		return t, nil
	}
	if name == "" {
		return nil, &silk.UnsupportedSchemaError{Schema: key.native, Reason: "input object has no name"}
	}
	t := schema.NewType(name, schema.TypeKindInputObject, obj.Description)
	if err := c.register(t, owner); err != nil {
		return nil, err
	}
	c.inputTypes[owner] = t
	omit := make(map[string]bool, len(opts.Omit))
	for _, f := range opts.Omit {
		omit[f] = true
	}
	fields, err := c.inputFields(obj, omit)
	if err != nil {
		return nil, err
	}
	t.InputFields = fields
	c.logger.WithField("type", name).Debug("derived input type")
	return t, nil
}

func (c *Context) inputFields(obj silk.Object, omit map[string]bool) ([]*schema.InputValue, error) {
	var out []*schema.InputValue
	seen := make(map[string]bool, len(obj.Fields))
	for _, f := range obj.Fields {
		if f.Hidden || f.ReadOnly || omit[f.Name] {
			continue
		}
		if seen[f.Name] {
			return nil, &SchemaCompositionError{Type: obj.Name, Field: f.Name, Reason: "duplicate input field"}
		}
		seen[f.Name] = true
		ref, err := c.input(f.Shape, inputKey{}, InputOptions{})
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", obj.Name, f.Name, err)
		}
		iv := schema.NewInputValue(f.Name, f.Description, withNullability(ref, f.Nullable()))
		if f.DeprecationReason != "" {
			iv.Deprecate(f.DeprecationReason)
		}
		out = append(out, iv)
	}
	return out, nil
}

func inputName(name string) string {
	if name == "" || strings.HasSuffix(name, "Input") {
		return name
	}
	return name + "Input"
}

func withNullability(ref *schema.TypeRef, nullable bool) *schema.TypeRef {
	switch {
	case nullable && ref.IsNonNull():
		return ref.OfType
	case !nullable && !ref.IsNonNull():
		return schema.NonNullType(ref)
	}
	return ref
}
