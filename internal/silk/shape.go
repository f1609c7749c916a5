package silk

// Shape is the closed set of structural descriptions a silk can report.
// Variants are sealed; the weaver switches over them exhaustively.
type Shape interface {
	isShape()
}

// Scalar is a leaf value. Name is one of the built-in GraphQL scalars or a
// custom scalar name.
type Scalar struct {
	Name        string
	Description string
	// Serialize converts a native value for output. Nil means the built-in
	// coercion for Name applies.
	Serialize func(value any) (any, error)
}

// Enum is a closed set of named values.
type Enum struct {
	Name        string
	Description string
	Values      []EnumValue
}

type EnumValue struct {
	Name              string
	Description       string
	DeprecationReason string
	// Value is the native representation carried by resolvers.
	Value any
}

// Object is a named record. Interfaces lists object silks this object is
// promoted to implement.
type Object struct {
	Name        string
	Description string
	Fields      []ObjectField
	Interfaces  []Silk
}

type ObjectField struct {
	Name              string
	Description       string
	DeprecationReason string
	Shape             Shape
	// Required is false for fields that may be absent from the value.
	Required bool
	// NullableOverride flips the derived nullability of the field.
	NullableOverride bool
	// Hidden fields never appear in output or input types.
	Hidden bool
	// ReadOnly fields appear in output types only.
	ReadOnly bool
}

// Array is an ordered sequence of Elem.
type Array struct {
	Elem Shape
}

// Union is a plain union; each option must be an object silk.
type Union struct {
	Name        string
	Description string
	Options     []Silk
}

// DiscriminatedUnion selects its variant by reading Discriminator off the
// value.
type DiscriminatedUnion struct {
	Name          string
	Description   string
	Discriminator string
	Variants      []Variant
}

type Variant struct {
	Value string
	Silk  Silk
}

// Nullable admits null in addition to Inner.
type Nullable struct {
	Inner Shape
}

// Optional admits absence in addition to Inner. GraphQL has a single
// nullability bit, so Optional and Nullable derive identically.
type Optional struct {
	Inner Shape
}

// Ref points at another silk. The weaver resolves it through its identity
// cache, which is how shared and recursive types are expressed.
type Ref struct {
	Silk Silk
}

func (Scalar) isShape()             {}
func (Enum) isShape()               {}
func (Object) isShape()             {}
func (Array) isShape()              {}
func (Union) isShape()              {}
func (DiscriminatedUnion) isShape() {}
func (Nullable) isShape()           {}
func (Optional) isShape()           {}
func (Ref) isShape()                {}

// Unwrap strips Nullable and Optional layers and reports whether any were
// present.
func Unwrap(s Shape) (Shape, bool) {
	nullable := false
	for {
		switch v := s.(type) {
		case Nullable:
			s, nullable = v.Inner, true
		case Optional:
			s, nullable = v.Inner, true
		default:
			return s, nullable
		}
	}
}

// Named returns the GraphQL type name a shape introduces, or "" for
// wrappers and references.
func Named(s Shape) string {
	switch v := s.(type) {
	case Scalar:
		return v.Name
	case Enum:
		return v.Name
	case Object:
		return v.Name
	case Union:
		return v.Name
	case DiscriminatedUnion:
		return v.Name
	}
	return ""
}

// NameOf returns the name of the enum value matching v, which may be the
// native value or the name itself.
func (e Enum) NameOf(v any) (string, bool) {
	for _, ev := range e.Values {
		if sameValue(ev.Value, v) {
			return ev.Name, true
		}
	}
	for _, ev := range e.Values {
		if ev.Name == v {
			return ev.Name, true
		}
	}
	return "", false
}
