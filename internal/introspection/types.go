package introspection

import (
	"github.com/hanpama/silkweave/internal/schema"
)

// extend copies sch, adds the meta types and gives the query root its
// __schema and __type fields.
func extend(sch *schema.Schema) *schema.Schema {
	out := &schema.Schema{
		QueryType:        sch.QueryType,
		MutationType:     sch.MutationType,
		SubscriptionType: sch.SubscriptionType,
		Types:            make(map[string]*schema.Type, len(sch.Types)+8),
		Directives:       sch.Directives,
		Description:      sch.Description,
	}
	for name, t := range sch.Types {
		out.Types[name] = t
	}
	for _, t := range metaTypes() {
		out.Types[t.Name] = t
	}
	for _, name := range []string{"String", "Boolean"} {
		if out.Types[name] == nil {
			out.Types[name] = schema.BuiltinScalar(name)
		}
	}

	if query := sch.GetQueryType(); query != nil {
		root := *query
		root.Fields = append(append([]*schema.Field(nil), query.Fields...),
			schema.NewField("__schema", "Access the current type schema of this server.", nonNull("__Schema")),
			schema.NewField("__type", "Request the type information of a single type.", named("__Type")).
				AddArgument(schema.NewInputValue("name", "", nonNull("String"))),
		)
		out.Types[root.Name] = &root
	}
	return out
}

func named(name string) *schema.TypeRef   { return schema.NamedType(name) }
func nonNull(name string) *schema.TypeRef { return schema.NonNullType(named(name)) }
func listOf(name string) *schema.TypeRef {
	return schema.ListType(nonNull(name))
}

func withIncludeDeprecated(f *schema.Field) *schema.Field {
	return f.AddArgument(schema.NewInputValue("includeDeprecated", "", named("Boolean")).SetDefault(false))
}

func object(name, description string, fields ...*schema.Field) *schema.Type {
	t := schema.NewType(name, schema.TypeKindObject, description)
	for _, f := range fields {
		t.AddField(f)
	}
	return t
}

func enum(name string, values ...string) *schema.Type {
	t := schema.NewType(name, schema.TypeKindEnum, "")
	for _, v := range values {
		t.AddEnumValue(schema.NewEnumValue(v, ""))
	}
	return t
}

func metaTypes() []*schema.Type {
	deprecation := []*schema.Field{
		schema.NewField("isDeprecated", "", nonNull("Boolean")),
		schema.NewField("deprecationReason", "", named("String")),
	}
	return []*schema.Type{
		object("__Schema", "A GraphQL Schema defines the capabilities of a GraphQL server.",
			schema.NewField("description", "", named("String")),
			schema.NewField("types", "A list of all types supported by this server.", schema.NonNullType(listOf("__Type"))),
			schema.NewField("queryType", "The type that query operations will be rooted at.", nonNull("__Type")),
			schema.NewField("mutationType", "If this server supports mutation, the type that mutation operations will be rooted at.", named("__Type")),
			schema.NewField("subscriptionType", "If this server supports subscription, the type that subscription operations will be rooted at.", named("__Type")),
			schema.NewField("directives", "A list of all directives supported by this server.", schema.NonNullType(listOf("__Directive"))),
		),
		object("__Type", "The fundamental unit of any GraphQL Schema is the type.",
			schema.NewField("kind", "", nonNull("__TypeKind")),
			schema.NewField("name", "", named("String")),
			schema.NewField("description", "", named("String")),
			schema.NewField("specifiedByURL", "", named("String")),
			withIncludeDeprecated(schema.NewField("fields", "", listOf("__Field"))),
			schema.NewField("interfaces", "", listOf("__Type")),
			schema.NewField("possibleTypes", "", listOf("__Type")),
			withIncludeDeprecated(schema.NewField("enumValues", "", listOf("__EnumValue"))),
			withIncludeDeprecated(schema.NewField("inputFields", "", listOf("__InputValue"))),
			schema.NewField("ofType", "", named("__Type")),
			schema.NewField("isOneOf", "", named("Boolean")),
		),
		object("__Field", "",
			append([]*schema.Field{
				schema.NewField("name", "", nonNull("String")),
				schema.NewField("description", "", named("String")),
				withIncludeDeprecated(schema.NewField("args", "", schema.NonNullType(listOf("__InputValue")))),
				schema.NewField("type", "", nonNull("__Type")),
			}, deprecation...)...,
		),
		object("__InputValue", "",
			append([]*schema.Field{
				schema.NewField("name", "", nonNull("String")),
				schema.NewField("description", "", named("String")),
				schema.NewField("type", "", nonNull("__Type")),
				schema.NewField("defaultValue", "", named("String")),
			}, deprecation...)...,
		),
		object("__EnumValue", "",
			append([]*schema.Field{
				schema.NewField("name", "", nonNull("String")),
				schema.NewField("description", "", named("String")),
			}, deprecation...)...,
		),
		object("__Directive", "",
			schema.NewField("name", "", nonNull("String")),
			schema.NewField("description", "", named("String")),
			schema.NewField("isRepeatable", "", nonNull("Boolean")),
			schema.NewField("locations", "", schema.NonNullType(listOf("__DirectiveLocation"))),
			withIncludeDeprecated(schema.NewField("args", "", schema.NonNullType(listOf("__InputValue")))),
		),
		enum("__TypeKind", "SCALAR", "OBJECT", "INTERFACE", "UNION", "ENUM", "INPUT_OBJECT", "LIST", "NON_NULL"),
		enum("__DirectiveLocation",
			"QUERY", "MUTATION", "SUBSCRIPTION", "FIELD", "FRAGMENT_DEFINITION", "FRAGMENT_SPREAD",
			"INLINE_FRAGMENT", "VARIABLE_DEFINITION", "SCHEMA", "SCALAR", "OBJECT", "FIELD_DEFINITION",
			"ARGUMENT_DEFINITION", "INTERFACE", "UNION", "ENUM", "ENUM_VALUE", "INPUT_OBJECT",
			"INPUT_FIELD_DEFINITION"),
	}
}
