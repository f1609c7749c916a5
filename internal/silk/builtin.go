package silk

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Built-in scalar silks.
var (
	String  Silk = &scalarSilk{shape: Scalar{Name: "String"}}
	Int     Silk = &scalarSilk{shape: Scalar{Name: "Int"}}
	Float   Silk = &scalarSilk{shape: Scalar{Name: "Float"}}
	Boolean Silk = &scalarSilk{shape: Scalar{Name: "Boolean"}}
	ID      Silk = &scalarSilk{shape: Scalar{Name: "ID"}}
)

type scalarSilk struct {
	shape Scalar
}

func (s *scalarSilk) Schema() any           { return s }
func (s *scalarSilk) Shape() (Shape, error) { return s.shape, nil }
func (s *scalarSilk) String() string        { return s.shape.Name }

func (s *scalarSilk) Parse(ctx context.Context, value any) (any, error) {
	v, issues := parseShape(ctx, s.shape, value, "")
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return v, nil
}

// Typed wraps a hand-built shape. When parse is nil, values are checked
// structurally against shape.
func Typed(shape Shape, parse ParseFunc) Silk {
	return &typedSilk{shape: shape, parse: parse}
}

type typedSilk struct {
	shape Shape
	parse ParseFunc
}

func (s *typedSilk) Schema() any           { return s }
func (s *typedSilk) Shape() (Shape, error) { return s.shape, nil }

func (s *typedSilk) String() string {
	if name := Named(s.shape); name != "" {
		return name
	}
	return fmt.Sprintf("%T", s.shape)
}

func (s *typedSilk) Parse(ctx context.Context, value any) (any, error) {
	if s.parse != nil {
		return s.parse(ctx, value)
	}
	return ParseShape(ctx, s.shape, value)
}

// List wraps elem in an array.
func List(elem Silk) Silk { return &listSilk{elem: elem} }

type listSilk struct{ elem Silk }

func (s *listSilk) Schema() any           { return s }
func (s *listSilk) Shape() (Shape, error) { return Array{Elem: Ref{Silk: s.elem}}, nil }

func (s *listSilk) Parse(ctx context.Context, value any) (any, error) {
	return ParseShape(ctx, Array{Elem: Ref{Silk: s.elem}}, value)
}

// NullableOf admits null in addition to inner's values.
func NullableOf(inner Silk) Silk { return &nullableSilk{inner: inner} }

type nullableSilk struct{ inner Silk }

func (s *nullableSilk) Schema() any           { return s }
func (s *nullableSilk) Shape() (Shape, error) { return Nullable{Inner: Ref{Silk: s.inner}}, nil }

func (s *nullableSilk) Parse(ctx context.Context, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return s.inner.Parse(ctx, value)
}

// ParseShape checks value against shape and returns its parsed form.
// Objects parse to map[string]any and enums to their native values.
func ParseShape(ctx context.Context, shape Shape, value any) (any, error) {
	v, issues := parseShape(ctx, shape, value, "")
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return v, nil
}

// IsNullable reports whether shape admits null, looking through references.
func IsNullable(shape Shape) bool {
	inner, nullable := Unwrap(shape)
	if nullable {
		return true
	}
	if ref, ok := inner.(Ref); ok {
		target, err := ref.Silk.Shape()
		if err != nil {
			return false
		}
		_, nullable = Unwrap(target)
	}
	return nullable
}

// Nullable reports the GraphQL nullability of the field.
func (f ObjectField) Nullable() bool {
	return (IsNullable(f.Shape) || !f.Required) != f.NullableOverride
}

func parseShape(ctx context.Context, shape Shape, value any, path string) (any, []Issue) {
	switch s := shape.(type) {
	case Nullable:
		if value == nil {
			return nil, nil
		}
		return parseShape(ctx, s.Inner, value, path)
	case Optional:
		if value == nil {
			return nil, nil
		}
		return parseShape(ctx, s.Inner, value, path)
	case Ref:
		v, err := s.Silk.Parse(ctx, value)
		if err != nil {
			return nil, prefixIssues(err, path)
		}
		return v, nil
	}

	if value == nil {
		return nil, []Issue{{Path: path, Code: "required", Message: "value is required"}}
	}

	switch s := shape.(type) {
	case Scalar:
		v, err := coerceScalar(s.Name, value)
		if err != nil {
			return nil, []Issue{{Path: path, Code: "invalid_type", Message: err.Error()}}
		}
		return v, nil
	case Enum:
		for _, ev := range s.Values {
			if ev.Name == value || sameValue(ev.Value, value) {
				return ev.Value, nil
			}
		}
		return nil, []Issue{{Path: path, Code: "invalid_enum_value", Message: fmt.Sprintf("%v is not a value of %s", value, s.Name)}}
	case Object:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, []Issue{{Path: path, Code: "invalid_type", Message: fmt.Sprintf("expected object, got %T", value)}}
		}
		out := make(map[string]any, len(m))
		var issues []Issue
		for _, f := range s.Fields {
			if f.Hidden || f.ReadOnly {
				continue
			}
			fv, present := m[f.Name]
			fieldPath := joinPath(path, f.Name)
			if fv == nil {
				if !f.Nullable() {
					issues = append(issues, Issue{Path: fieldPath, Code: "required", Message: "value is required"})
				} else if present {
					out[f.Name] = nil
				}
				continue
			}
			v, is := parseShape(ctx, f.Shape, fv, fieldPath)
			issues = append(issues, is...)
			out[f.Name] = v
		}
		return out, issues
	case Array:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, []Issue{{Path: path, Code: "invalid_type", Message: fmt.Sprintf("expected list, got %T", value)}}
		}
		out := make([]any, rv.Len())
		var issues []Issue
		for i := range rv.Len() {
			v, is := parseShape(ctx, s.Elem, rv.Index(i).Interface(), joinPath(path, strconv.Itoa(i)))
			issues = append(issues, is...)
			out[i] = v
		}
		return out, issues
	}
	return value, nil
}

func sameValue(a, b any) bool {
	ta := reflect.TypeOf(a)
	return ta != nil && ta == reflect.TypeOf(b) && ta.Comparable() && a == b
}

func prefixIssues(err error, path string) []Issue {
	ve, ok := err.(*ValidationError)
	if !ok {
		return []Issue{{Path: path, Message: err.Error()}}
	}
	out := make([]Issue, len(ve.Issues))
	for i, is := range ve.Issues {
		is.Path = joinPath(path, is.Path)
		out[i] = is
	}
	return out
}

func joinPath(base, elem string) string {
	switch {
	case base == "":
		return elem
	case elem == "":
		return base
	}
	return base + "." + elem
}

func coerceScalar(name string, value any) (any, error) {
	switch name {
	case "String":
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("expected string, got %T", value)
	case "ID":
		switch v := value.(type) {
		case string:
			return v, nil
		case int, int32, int64:
			return fmt.Sprint(v), nil
		}
		return nil, fmt.Errorf("expected id, got %T", value)
	case "Int":
		i, ok := toInt(value)
		if !ok {
			return nil, fmt.Errorf("expected int, got %T", value)
		}
		if i > math.MaxInt32 || i < math.MinInt32 {
			return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %v", value)
		}
		return int(i), nil
	case "Float":
		if f, ok := toFloat(value); ok {
			return f, nil
		}
		return nil, fmt.Errorf("expected float, got %T", value)
	case "Boolean":
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("expected boolean, got %T", value)
	}
	return value, nil
}

// SerializeScalar converts a native value into the JSON-safe form of a
// built-in scalar. Values of custom scalars pass through.
func SerializeScalar(name string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		return SerializeScalar(name, rv.Elem().Interface())
	}
	switch name {
	case "String", "ID":
		switch v := value.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		case fmt.Stringer:
			return v.String(), nil
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
			return fmt.Sprint(v), nil
		}
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.String {
			return rv.String(), nil
		}
		return nil, fmt.Errorf("%s cannot represent %T", name, value)
	case "Int":
		i, ok := toInt(value)
		if !ok {
			return nil, fmt.Errorf("Int cannot represent %T", value)
		}
		if i > math.MaxInt32 || i < math.MinInt32 {
			return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %v", value)
		}
		return int32(i), nil
	case "Float":
		f, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("Float cannot represent %T", value)
		}
		return f, nil
	case "Boolean":
		if b, ok := value.(bool); ok {
			return b, nil
		}
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Bool {
			return rv.Bool(), nil
		}
		return nil, fmt.Errorf("Boolean cannot represent %T", value)
	}
	return value, nil
}

// toInt reports false for non-integral values and for values that do not
// fit in an int64.
func toInt(value any) (int64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return int64(f), true
		}
	}
	return 0, false
}

func toFloat(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
