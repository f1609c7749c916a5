// Package structsilk lets Go struct types act as native schemas.
//
// A struct's GraphQL name and description come from an optional
// Describe() method returning "Name: description"; otherwise the Go type
// name is used. Fields are read through tags:
//
//	Title  string   `graphql:"title" description:"Display title" validate:"required"`
//	Price  *float64 `graphql:"price"`
//	ISBN   string   `graphql:"isbn,id"`
//	Sales  int      `graphql:"-"`
//	Rating int      `graphql:"rating,readonly" deprecated:"use score"`
//
// Pointer fields and fields tagged nullable derive to nullable GraphQL
// fields. Input values are decoded with json-iterator using the same field
// names and checked with validator tags.
package structsilk

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/hanpama/silkweave/internal/silk"
)

// Describer supplies the "Name: description" documentation of a struct or
// enum type.
type Describer interface {
	Describe() string
}

// Implementer lists the object silks a struct is promoted to implement as
// interfaces.
type Implementer interface {
	Implements() []silk.Silk
}

// Enum is implemented by named Go types that represent a closed set of
// values.
type Enum interface {
	EnumValues() []silk.EnumValue
}

// DateTime is the scalar time.Time fields derive to.
var DateTime = silk.Scalar{
	Name:        "DateTime",
	Description: "An RFC 3339 timestamp.",
	Serialize: func(value any) (any, error) {
		switch t := value.(type) {
		case time.Time:
			return t.Format(time.RFC3339Nano), nil
		case *time.Time:
			if t == nil {
				return nil, nil
			}
			return t.Format(time.RFC3339Nano), nil
		}
		return nil, fmt.Errorf("DateTime cannot represent %T", value)
	},
}

var (
	timeType  = reflect.TypeFor[time.Time]()
	enumType  = reflect.TypeFor[Enum]()
	bytesType = reflect.TypeFor[[]byte]()
)

var silks sync.Map // reflect.Type -> *Silk

// Silk wraps a struct or enum type. Its native schema is the reflect.Type,
// so every Silk of one Go type derives the same GraphQL type.
type Silk struct {
	typ reflect.Type

	once  sync.Once
	shape silk.Shape
	err   error
	index map[string][]int
}

var (
	_ silk.Silk          = (*Silk)(nil)
	_ silk.FieldResolver = (*Silk)(nil)
	_ silk.TypeMatcher   = (*Silk)(nil)
)

// Of returns the silk of T. T may be a struct, a pointer to a struct or a
// type implementing Enum.
func Of[T any]() *Silk {
	return For(reflect.TypeFor[T]())
}

// For returns the silk of t.
func For(t reflect.Type) *Silk {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if s, ok := silks.Load(t); ok {
		return s.(*Silk)
	}
	s, _ := silks.LoadOrStore(t, &Silk{typ: t})
	return s.(*Silk)
}

func (s *Silk) Schema() any        { return s.typ }
func (s *Silk) Type() reflect.Type { return s.typ }
func (s *Silk) String() string     { return s.typ.String() }

func (s *Silk) Shape() (silk.Shape, error) {
	s.once.Do(func() {
		s.shape, s.index, s.err = derive(s.typ)
	})
	return s.shape, s.err
}

// Parse decodes value into the struct (or enum) type and validates it. A
// map input is checked against the shape first, so missing required
// fields are reported by their GraphQL names.
func (s *Silk) Parse(ctx context.Context, value any) (any, error) {
	shape, err := s.Shape()
	if err != nil {
		return nil, err
	}
	if value != nil {
		rv := reflect.ValueOf(value)
		if rv.Type() == s.typ {
			return value, validate(ctx, value)
		}
		if rv.Kind() == reflect.Pointer && rv.Type().Elem() == s.typ {
			if rv.IsNil() {
				return nil, silk.Invalid("", "required", "value is required")
			}
			return rv.Elem().Interface(), validate(ctx, rv.Elem().Interface())
		}
	}
	parsed, err := silk.ParseShape(ctx, shape, value)
	if err != nil {
		return nil, err
	}
	if _, isEnum := shape.(silk.Enum); isEnum {
		return parsed, nil
	}
	out, err := decode(parsed, s.typ)
	if err != nil {
		return nil, err
	}
	return out, validate(ctx, out)
}

// ResolveField reads the field with the given GraphQL name off a value of
// the struct type.
func (s *Silk) ResolveField(parent any, name string) (any, error) {
	if _, err := s.Shape(); err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(parent)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if m, ok := parent.(map[string]any); ok {
		return m[name], nil
	}
	if rv.Type() != s.typ {
		return nil, fmt.Errorf("%s: cannot read %q off %T", s.typ, name, parent)
	}
	index, ok := s.index[name]
	if !ok {
		return nil, fmt.Errorf("%s has no field %q", s.typ, name)
	}
	f, err := rv.FieldByIndexErr(index)
	if err != nil {
		// nil embedded pointer
		return nil, nil
	}
	return f.Interface(), nil
}

// IsTypeOf reports whether value is of the struct type or a pointer to it.
func (s *Silk) IsTypeOf(value any) bool {
	t := reflect.TypeOf(value)
	return t == s.typ || (t != nil && t.Kind() == reflect.Pointer && t.Elem() == s.typ)
}

func derive(t reflect.Type) (silk.Shape, map[string][]int, error) {
	if t.Implements(enumType) {
		return deriveEnum(t), nil, nil
	}
	if t.Kind() != reflect.Struct {
		return nil, nil, &silk.UnsupportedSchemaError{Schema: t, Reason: "only structs and enums are object silks"}
	}
	name, description := describe(t)
	obj := silk.Object{Name: name, Description: description}
	index := make(map[string][]int)
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		tag := parseTag(f)
		if tag.skip {
			continue
		}
		shape, required, err := fieldShape(f.Type, tag)
		if err != nil {
			return nil, nil, fmt.Errorf("%s.%s: %w", t, f.Name, err)
		}
		obj.Fields = append(obj.Fields, silk.ObjectField{
			Name:              tag.name,
			Description:       f.Tag.Get("description"),
			DeprecationReason: f.Tag.Get("deprecated"),
			Shape:             shape,
			Required:          required && !tag.nullable,
			Hidden:            tag.hidden,
			ReadOnly:          tag.readOnly,
		})
		index[tag.name] = f.Index
	}
	if impl, ok := reflect.Zero(t).Interface().(Implementer); ok {
		obj.Interfaces = impl.Implements()
	}
	return obj, index, nil
}

func deriveEnum(t reflect.Type) silk.Enum {
	name, description := describe(t)
	return silk.Enum{
		Name:        name,
		Description: description,
		Values:      reflect.Zero(t).Interface().(Enum).EnumValues(),
	}
}

func describe(t reflect.Type) (string, string) {
	if d, ok := reflect.Zero(t).Interface().(Describer); ok {
		name, description := silk.ParseObjectConfig(d.Describe())
		if name != "" {
			return name, description
		}
	}
	return t.Name(), ""
}

func fieldShape(t reflect.Type, tag fieldTag) (silk.Shape, bool, error) {
	if t.Kind() == reflect.Pointer {
		inner, _, err := fieldShape(t.Elem(), tag)
		return inner, false, err
	}
	if tag.id {
		return silk.Scalar{Name: "ID"}, true, nil
	}
	if t == timeType {
		return DateTime, true, nil
	}
	if t.Implements(enumType) {
		return silk.Ref{Silk: For(t)}, true, nil
	}
	if t == bytesType {
		return silk.Scalar{Name: "String"}, true, nil
	}
	switch t.Kind() {
	case reflect.String:
		return silk.Scalar{Name: "String"}, true, nil
	case reflect.Bool:
		return silk.Scalar{Name: "Boolean"}, true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return silk.Scalar{Name: "Int"}, true, nil
	case reflect.Float32, reflect.Float64:
		return silk.Scalar{Name: "Float"}, true, nil
	case reflect.Slice, reflect.Array:
		elem, elemRequired, err := fieldShape(t.Elem(), fieldTag{})
		if err != nil {
			return nil, false, err
		}
		if !elemRequired {
			elem = silk.Nullable{Inner: elem}
		}
		return silk.Array{Elem: elem}, true, nil
	case reflect.Struct:
		return silk.Ref{Silk: For(t)}, true, nil
	}
	return nil, false, &silk.UnsupportedSchemaError{Schema: t, Reason: fmt.Sprintf("%s fields have no GraphQL mapping", t.Kind())}
}

type fieldTag struct {
	name     string
	skip     bool
	id       bool
	nullable bool
	readOnly bool
	hidden   bool
}

func parseTag(f reflect.StructField) fieldTag {
	var tag fieldTag
	raw, ok := f.Tag.Lookup("graphql")
	if ok && raw == "-" {
		return fieldTag{skip: true}
	}
	parts := strings.Split(raw, ",")
	tag.name = parts[0]
	for _, opt := range parts[1:] {
		switch opt {
		case "id":
			tag.id = true
		case "nullable":
			tag.nullable = true
		case "readonly":
			tag.readOnly = true
		case "hidden":
			tag.hidden = true
		}
	}
	if tag.name == "" {
		if j, ok := f.Tag.Lookup("json"); ok {
			if j == "-" {
				return fieldTag{skip: true}
			}
			tag.name, _, _ = strings.Cut(j, ",")
		}
	}
	if tag.name == "" {
		tag.name = lowerFirst(f.Name)
	}
	return tag
}

// lowerFirst lowercases the leading run of capitals: "ID" -> "id",
// "URLPath" -> "urlPath", "Title" -> "title".
func lowerFirst(s string) string {
	r := []rune(s)
	for i := range r {
		if !unicode.IsUpper(r[i]) {
			break
		}
		if i > 0 && i+1 < len(r) && unicode.IsLower(r[i+1]) {
			break
		}
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}
