package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestBuildFromSDLRoundTrip(t *testing.T) {
	sdl := `union Animal = Cat | Dog

type Cat implements Pet {
  name: String!
  lives: Int
}

enum Color {
  RED
  GREEN
}

type Dog implements Pet {
  name: String!
  goodBoy: Boolean! @deprecated(reason: "always true")
}

"""
A pet
"""
interface Pet {
  name: String!
}

input PetFilter {
  name: String
  limit: Int = 10
}

type Query {
  pets(filter: PetFilter): [Pet!]!
  animal: Animal
  color: Color
}
`
	s, err := BuildFromSDL(sdl)
	require.NoError(t, err)

	require.Equal(t, "Query", s.QueryType)
	require.True(t, s.GetQueryType().Field("pets").Async, "root fields resolve through the runtime")
	require.False(t, s.Types["Cat"].Field("name").Async)
	require.Equal(t, []string{"Pet"}, s.Types["Cat"].Interfaces)
	require.Equal(t, []string{"Cat", "Dog"}, s.Types["Animal"].PossibleTypes)
	require.Equal(t, int64(10), s.Types["PetFilter"].InputField("limit").DefaultValue)

	if diff := cmp.Diff(sdl, Render(s)); diff != "" {
		t.Errorf("rendered schema mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderSchemaBlockForCustomRoots(t *testing.T) {
	s := NewSchema("")
	s.SetQueryType("RootQuery")
	s.AddType(NewType("RootQuery", TypeKindObject, "").
		AddField(NewField("ok", "", NonNullType(NamedType("Boolean")))))

	want := `schema {
  query: RootQuery
}

type RootQuery {
  ok: Boolean!
}
`
	require.Equal(t, want, Render(s))
}

func TestTypeBuildersDeduplicate(t *testing.T) {
	u := NewType("Animal", TypeKindUnion, "").
		AddPossibleType("Cat").
		AddPossibleType("Cat").
		AddPossibleType("Dog")
	require.Equal(t, []string{"Cat", "Dog"}, u.PossibleTypes)
	require.True(t, u.IsAbstract())

	o := NewType("Cat", TypeKindObject, "").
		AddField(NewField("name", "", NamedType("String"))).
		ReplaceField(NewField("name", "", NonNullType(NamedType("String"))))
	require.Len(t, o.Fields, 1)
	require.True(t, o.Field("name").Type.IsNonNull())
}

func TestTypeRefHelpers(t *testing.T) {
	ref := NonNullType(ListType(NonNullType(NamedType("Cat"))))
	require.True(t, IsNonNull(ref))
	require.True(t, IsList(ref))
	require.Equal(t, "Cat", GetNamedType(ref))
	require.Equal(t, "[Cat!]!", ref.String())
	require.Nil(t, Unwrap(nil))
	require.False(t, IsList(nil))
}

func TestNewSchemaBuiltins(t *testing.T) {
	s := NewSchema("")
	for _, name := range []string{"String", "Int", "Float", "Boolean", "ID"} {
		require.True(t, IsBuiltin(s.Types[name]), name)
	}
	require.Nil(t, BuiltinScalar("Date"))

	for _, name := range []string{"include", "skip", "deprecated", "oneOf"} {
		require.True(t, IsBuiltinDirective(s.Directives[name]), name)
	}
	require.Equal(t, "No longer supported", s.Directives["deprecated"].Arguments[0].DefaultValue)

	s.SetQueryType("Query").AddType(NewType("Query", TypeKindObject, "").AddField(NewField("ok", "", NamedType("Boolean"))))
	s.AddDirective(NewDirective("auth", "").addLocations("FIELD_DEFINITION"))
	require.Equal(t, "type Query {\n  ok: Boolean\n}\n\ndirective @auth on FIELD_DEFINITION\n", Render(s))
}
