package structsilk

import (
	"context"
	"reflect"

	"github.com/hanpama/silkweave/internal/silk"
)

// Union builds a plain union over struct silks. Values are matched to
// members by Go type.
func Union(name, description string, members ...*Silk) silk.Silk {
	options := make([]silk.Silk, len(members))
	for i, m := range members {
		options[i] = m
	}
	shape := silk.Union{Name: name, Description: description, Options: options}
	return silk.Typed(shape, func(ctx context.Context, value any) (any, error) {
		for _, m := range members {
			if m.IsTypeOf(value) {
				return m.Parse(ctx, value)
			}
		}
		return nil, silk.Invalid("", "invalid_union", "%s: %T is not a member", name, value)
	})
}

// Variant pairs a discriminator value with a struct silk.
type Variant struct {
	Value string
	Silk  *Silk
}

// DiscriminatedUnion builds a union whose member is chosen by the field
// named discriminator.
func DiscriminatedUnion(name, discriminator string, variants ...Variant) silk.Silk {
	vs := make([]silk.Variant, len(variants))
	for i, v := range variants {
		vs[i] = silk.Variant{Value: v.Value, Silk: v.Silk}
	}
	shape := silk.DiscriminatedUnion{Name: name, Discriminator: discriminator, Variants: vs}
	return silk.Typed(shape, func(ctx context.Context, value any) (any, error) {
		tag, ok := discriminant(value, discriminator)
		if !ok {
			return nil, silk.Invalid(discriminator, "required", "value is required")
		}
		for _, v := range variants {
			if v.Value == tag {
				return v.Silk.Parse(ctx, value)
			}
		}
		return nil, silk.Invalid(discriminator, "invalid_union_discriminator", "%s: no variant for %s=%s", name, discriminator, tag)
	})
}

func discriminant(value any, field string) (string, bool) {
	if m, ok := value.(map[string]any); ok {
		s, isString := m[field].(string)
		return s, isString
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return "", false
	}
	s, err := For(rv.Type()).ResolveField(rv.Interface(), field)
	if err != nil {
		return "", false
	}
	str, ok := s.(string)
	return str, ok
}
