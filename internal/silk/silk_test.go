package silk

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShape_Object(t *testing.T) {
	shape := Object{Name: "Book", Fields: []ObjectField{
		{Name: "title", Shape: Scalar{Name: "String"}, Required: true},
		{Name: "price", Shape: Scalar{Name: "Float"}},
		{Name: "tags", Shape: Array{Elem: Scalar{Name: "String"}}, Required: true},
		{Name: "sales", Shape: Scalar{Name: "Int"}, Required: true, Hidden: true},
	}}
	ctx := context.Background()

	got, err := ParseShape(ctx, shape, map[string]any{"title": "Dune", "price": 9, "tags": []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Dune", "price": float64(9), "tags": []any{"a"}}, got)

	_, err = ParseShape(ctx, shape, map[string]any{"price": "free", "tags": []any{1}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []Issue{
		{Path: "title", Code: "required", Message: "value is required"},
		{Path: "price", Code: "invalid_type", Message: "expected float, got string"},
		{Path: "tags.0", Code: "invalid_type", Message: "expected string, got int"},
	}, verr.Issues)
	assert.Equal(t, "BAD_USER_INPUT", verr.Extensions()["code"])
}

func TestParseShape_NullableAndRefs(t *testing.T) {
	ctx := context.Background()

	v, err := ParseShape(ctx, Nullable{Inner: Scalar{Name: "Int"}}, nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseShape(ctx, Scalar{Name: "Int"}, nil)
	require.Error(t, err)

	inner := Typed(Object{Name: "Author", Fields: []ObjectField{{Name: "name", Shape: Scalar{Name: "String"}, Required: true}}}, nil)
	_, err = ParseShape(ctx, Object{Name: "Book", Fields: []ObjectField{
		{Name: "author", Shape: Ref{Silk: inner}, Required: true},
	}}, map[string]any{"author": map[string]any{}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "author.name", verr.Issues[0].Path)
}

func TestParseShape_Enum(t *testing.T) {
	type level int
	shape := Enum{Name: "Level", Values: []EnumValue{{Name: "LOW", Value: level(1)}, {Name: "HIGH", Value: level(2)}}}
	ctx := context.Background()

	v, err := ParseShape(ctx, shape, "HIGH")
	require.NoError(t, err)
	assert.Equal(t, level(2), v)

	v, err = ParseShape(ctx, shape, level(1))
	require.NoError(t, err)
	assert.Equal(t, level(1), v)

	_, err = ParseShape(ctx, shape, "MEDIUM")
	require.Error(t, err)

	name, ok := shape.NameOf(level(2))
	assert.True(t, ok)
	assert.Equal(t, "HIGH", name)
	name, ok = shape.NameOf("LOW")
	assert.True(t, ok)
	assert.Equal(t, "LOW", name)
	_, ok = shape.NameOf(2)
	assert.False(t, ok)
}

func TestBuiltins(t *testing.T) {
	ctx := context.Background()

	v, err := ID.Parse(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "42", v)

	_, err = Boolean.Parse(ctx, "true")
	require.Error(t, err)

	v, err = List(Int).Parse(ctx, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, v)

	v, err = NullableOf(String).Parse(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	shape, err := NullableOf(String).Shape()
	require.NoError(t, err)
	assert.True(t, IsNullable(shape))
	shape, err = String.Shape()
	require.NoError(t, err)
	assert.False(t, IsNullable(shape))
	assert.True(t, IsNullable(Ref{Silk: NullableOf(Int)}))
}

func TestSerializeScalar(t *testing.T) {
	type code string
	tests := []struct {
		name  string
		typ   string
		value any
		want  any
		err   bool
	}{
		{name: "int narrows", typ: "Int", value: int64(7), want: int32(7)},
		{name: "int overflow", typ: "Int", value: int64(1) << 40, err: true},
		{name: "integral float as int", typ: "Int", value: 3.0, want: int32(3)},
		{name: "float from int", typ: "Float", value: 2, want: float64(2)},
		{name: "id from int", typ: "ID", value: 12, want: "12"},
		{name: "named string", typ: "String", value: code("x"), want: "x"},
		{name: "bytes", typ: "String", value: []byte("hi"), want: "hi"},
		{name: "bool", typ: "Boolean", value: true, want: true},
		{name: "bad bool", typ: "Boolean", value: "yes", err: true},
		{name: "custom passes through", typ: "Date", value: struct{}{}, want: struct{}{}},
		{name: "nil", typ: "Int", value: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SerializeScalar(tt.typ, tt.value)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObjectFieldNullable(t *testing.T) {
	assert.False(t, ObjectField{Shape: Scalar{Name: "String"}, Required: true}.Nullable())
	assert.True(t, ObjectField{Shape: Scalar{Name: "String"}}.Nullable())
	assert.True(t, ObjectField{Shape: Optional{Inner: Scalar{Name: "String"}}, Required: true}.Nullable())
	assert.True(t, ObjectField{Shape: Scalar{Name: "String"}, Required: true, NullableOverride: true}.Nullable())
	assert.False(t, ObjectField{Shape: Nullable{Inner: Scalar{Name: "String"}}, Required: true, NullableOverride: true}.Nullable())
}

func TestParseObjectConfig(t *testing.T) {
	name, desc := ParseObjectConfig("Book: A published work")
	assert.Equal(t, "Book", name)
	assert.Equal(t, "A published work", desc)

	name, desc = ParseObjectConfig(" Author ")
	assert.Equal(t, "Author", name)
	assert.Empty(t, desc)
}

func TestNamedAndUnwrap(t *testing.T) {
	assert.Equal(t, "Pet", Named(Union{Name: "Pet"}))
	assert.Equal(t, "", Named(Array{Elem: Scalar{Name: "Int"}}))

	inner, nullable := Unwrap(Optional{Inner: Nullable{Inner: Scalar{Name: "Int"}}})
	assert.True(t, nullable)
	assert.Equal(t, Scalar{Name: "Int"}, inner)
}

func TestIntInputRange(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		value any
		want  any
	}{
		{name: "max", value: int64(math.MaxInt32), want: math.MaxInt32},
		{name: "min", value: math.MinInt32, want: math.MinInt32},
		{name: "json number", value: float64(12), want: 12},
		{name: "above 32 bits", value: 5000000000},
		{name: "below 32 bits", value: int64(math.MinInt32) - 1},
		{name: "uint64 beyond int64", value: uint64(math.MaxUint64)},
		{name: "huge float", value: 1e300},
		{name: "fraction", value: 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Int.Parse(ctx, tt.value)
			if tt.want == nil {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "invalid_type", ve.Issues[0].Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := SerializeScalar("Int", uint64(math.MaxUint64))
	assert.Error(t, err)
}
