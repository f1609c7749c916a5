package schema

import "slices"

// Scalars every schema carries.
var (
	stringType  = builtinScalar("String", "The `String` scalar type represents textual data, represented as UTF-8 character sequences.")
	intType     = builtinScalar("Int", "The `Int` scalar type represents non-fractional signed whole numeric values between -(2^31) and 2^31 - 1.")
	floatType   = builtinScalar("Float", "The `Float` scalar type represents signed double-precision fractional values.")
	booleanType = builtinScalar("Boolean", "The `Boolean` scalar type represents `true` or `false`.")
	idType      = builtinScalar("ID", "The `ID` scalar type represents a unique identifier. It serializes as a String.")

	builtinScalars = []*Type{stringType, intType, floatType, booleanType, idType}
)

// Directives every schema carries. The weaver emits @deprecated and @oneOf
// from silk metadata; the executor honors @include and @skip.
var (
	includeDirective = conditionDirective("include", "Directs the executor to include this field or fragment only when the `if` argument is true.", "Included when true.")
	skipDirective    = conditionDirective("skip", "Directs the executor to skip this field or fragment when the `if` argument is true.", "Skipped when true.")

	deprecatedDirective = NewDirective("deprecated", "Marks an element of a GraphQL schema as no longer supported.").
				AddArgument(NewInputValue("reason", "Explains why this element was deprecated.", NamedType("String")).
					SetDefault("No longer supported")).
				addLocations("FIELD_DEFINITION", "ARGUMENT_DEFINITION", "INPUT_FIELD_DEFINITION", "ENUM_VALUE")

	oneOfDirective = NewDirective("oneOf", "Indicates exactly one field must be supplied and this field must not be `null`.").
			addLocations("INPUT_OBJECT")

	builtinDirectives = []*Directive{includeDirective, skipDirective, deprecatedDirective, oneOfDirective}
)

func builtinScalar(name, description string) *Type {
	return NewType(name, TypeKindScalar, description)
}

func conditionDirective(name, description, ifDescription string) *Directive {
	return NewDirective(name, description).
		AddArgument(NewInputValue("if", ifDescription, NonNullType(NamedType("Boolean")))).
		addLocations("FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT")
}

func (d *Directive) addLocations(locations ...string) *Directive {
	d.Locations = append(d.Locations, locations...)
	return d
}

// IsBuiltinDirective reports whether d is one of the predefined directives.
func IsBuiltinDirective(d *Directive) bool {
	return slices.Contains(builtinDirectives, d)
}
