package executor

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	language "github.com/hanpama/silkweave/internal/language"
	schema "github.com/hanpama/silkweave/internal/schema"
)

// coerceVariableValues checks the provided variables against the
// operation's definitions, filling defaults. Keys may carry a leading $.
func coerceVariableValues(sch *schema.Schema, op *language.OperationDefinition, provided map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(op.VariableDefinitions))
	for _, def := range op.VariableDefinitions {
		name, typ := def.Variable, def.Type
		v, ok := provided[name]
		if !ok {
			v, ok = provided["$"+name]
		}
		if !ok {
			switch {
			case def.DefaultValue != nil:
				v = valueFromAST(def.DefaultValue, nil)
			case typ.NonNull:
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, typ.String())
			default:
				continue
			}
		}
		if v == nil && typ.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, typ.String())
		}
		cv, err := coerceValue(sch, v, typeRefFromAST(typ))
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %v", name, typ.String(), err)
		}
		out[name] = cv
	}
	return out, nil
}

// arguments coerces the arguments of a field, filling defaults. Failures
// are recorded at path and reported by ok.
func (ex *execution) arguments(def *schema.Field, given language.ArgumentList, path Path) (args map[string]any, ok bool) {
	args = make(map[string]any, len(def.Arguments))
	ok = true
	for _, in := range def.Arguments {
		arg := given.ForName(in.Name)
		if arg == nil || (arg.Value.Kind == language.Variable && !hasVariable(ex.variables, arg.Value.Raw)) {
			switch {
			case in.DefaultValue != nil:
				args[in.Name] = in.DefaultValue
			case schema.IsNonNull(in.Type):
				ex.addError(path, "argument '%s' of required type was not provided", in.Name)
				ok = false
			}
			continue
		}
		v, err := coerceValue(ex.schema, valueFromAST(arg.Value, ex.variables), in.Type)
		if err != nil {
			ex.addError(path, "argument '%s' cannot be coerced: %v", in.Name, err)
			ok = false
			continue
		}
		args[in.Name] = v
	}
	return args, ok
}

func hasVariable(vars map[string]any, name string) bool {
	_, ok := vars[strings.TrimPrefix(name, "$")]
	return ok
}

// valueFromAST converts a literal to a Go value, substituting variables at
// any depth. Unset variables read as nil.
func valueFromAST(value *language.Value, vars map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.Variable:
		return vars[strings.TrimPrefix(value.Raw, "$")]
	case language.IntValue:
		if i, err := strconv.ParseInt(value.Raw, 10, 64); err == nil {
			return int(i)
		}
		f, _ := strconv.ParseFloat(value.Raw, 64)
		return f
	case language.FloatValue:
		f, _ := strconv.ParseFloat(value.Raw, 64)
		return f
	case language.StringValue, language.BlockValue, language.EnumValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = valueFromAST(c.Value, vars)
		}
		return out
	case language.ObjectValue:
		out := make(map[string]any, len(value.Children))
		for _, c := range value.Children {
			out[c.Name] = valueFromAST(c.Value, vars)
		}
		return out
	}
	return nil
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	var ref *schema.TypeRef
	if t.Elem != nil {
		ref = schema.ListType(typeRefFromAST(t.Elem))
	} else {
		ref = schema.NamedType(t.NamedType)
	}
	if t.NonNull {
		return schema.NonNullType(ref)
	}
	return ref
}

// coerceValue checks an input value against typ. Built-in scalars are
// normalized; custom scalars pass through to the input silk.
func coerceValue(sch *schema.Schema, value any, typ *schema.TypeRef) (any, error) {
	if schema.IsNonNull(typ) {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return coerceValue(sch, value, schema.Unwrap(typ))
	}
	if value == nil {
		return nil, nil
	}
	if schema.IsList(typ) {
		elem := schema.Unwrap(typ)
		items, ok := value.([]any)
		if !ok {
			// a single value is a list of one
			v, err := coerceValue(sch, value, elem)
			if err != nil {
				return nil, err
			}
			return []any{v}, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := coerceValue(sch, item, elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	}

	name := schema.GetNamedType(typ)
	if coerce, ok := builtinInputs[name]; ok {
		return coerce(value)
	}
	if sch == nil {
		return value, nil
	}
	t := sch.Types[name]
	if t == nil {
		return nil, fmt.Errorf("unknown input type %s", name)
	}
	switch t.Kind {
	case schema.TypeKindEnum:
		return coerceToEnum(t, value)
	case schema.TypeKindInputObject:
		return coerceInputObject(sch, t, value)
	case schema.TypeKindScalar:
		return value, nil
	}
	return nil, fmt.Errorf("%s is not an input type", name)
}

var builtinInputs = map[string]func(any) (any, error){
	"Int":     coerceToInt,
	"Float":   coerceToFloat,
	"String":  coerceToString,
	"Boolean": coerceToBoolean,
	"ID":      coerceToID,
}

func coerceInputObject(sch *schema.Schema, t *schema.Type, value any) (any, error) {
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object for %s, got %T", t.Name, value)
	}
	for name := range fields {
		if t.InputField(name) == nil {
			return nil, fmt.Errorf("field %q is not defined by %s", name, t.Name)
		}
	}
	out := make(map[string]any, len(t.InputFields))
	for _, def := range t.InputFields {
		v, present := fields[def.Name]
		if !present {
			switch {
			case def.DefaultValue != nil:
				out[def.Name] = def.DefaultValue
			case schema.IsNonNull(def.Type):
				return nil, fmt.Errorf("required field '%s' of %s was not provided", def.Name, t.Name)
			}
			continue
		}
		cv, err := coerceValue(sch, v, def.Type)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, def.Name, err)
		}
		out[def.Name] = cv
	}
	return out, nil
}

func coerceToEnum(t *schema.Type, value any) (any, error) {
	if name, ok := value.(string); ok && slices.ContainsFunc(t.EnumValues, func(v *schema.EnumValue) bool { return v.Name == name }) {
		return name, nil
	}
	return nil, fmt.Errorf("%v is not a value of enum %s", value, t.Name)
}

// integral returns v as an int64 when it is a whole number.
func integral(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float32:
		return integral(float64(n))
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

// coerceToInt accepts whole numbers within the 32-bit signed range.
func coerceToInt(value any) (any, error) {
	i, ok := integral(value)
	if !ok {
		return nil, fmt.Errorf("cannot coerce %v (%T) to int", value, value)
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %v", value)
	}
	return int(i), nil
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	}
	if i, ok := integral(value); ok {
		return float64(i), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to string", value, value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to boolean", value, value)
}

// coerceToID accepts strings and whole numbers.
func coerceToID(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	if i, ok := integral(value); ok {
		return strconv.FormatInt(i, 10), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
}
