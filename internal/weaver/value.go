package weaver

import (
	"reflect"
	"strings"
	"sync"
)

// lookup reads a named field off a map or struct value. Struct fields match
// by graphql tag, then json tag, then case-insensitive field name.
func lookup(value any, name string) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case map[string]any:
		x, ok := v[name]
		return x, ok
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		x := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !x.IsValid() {
			return nil, false
		}
		return x.Interface(), true
	case reflect.Struct:
		index, ok := structField(rv.Type(), name)
		if !ok {
			return nil, false
		}
		f, err := rv.FieldByIndexErr(index)
		if err != nil {
			return nil, false
		}
		return f.Interface(), true
	}
	return nil, false
}

type fieldKey struct {
	t    reflect.Type
	name string
}

var fieldIndexes sync.Map // fieldKey -> []int (nil when absent)

func structField(t reflect.Type, name string) ([]int, bool) {
	key := fieldKey{t, name}
	if v, ok := fieldIndexes.Load(key); ok {
		index := v.([]int)
		return index, index != nil
	}
	index := findStructField(t, name)
	fieldIndexes.Store(key, index)
	return index, index != nil
}

func findStructField(t reflect.Type, name string) []int {
	var byJSON, byName []int
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		if tag, ok := f.Tag.Lookup("graphql"); ok {
			if tagName(tag) == name {
				return f.Index
			}
			continue
		}
		if tag, ok := f.Tag.Lookup("json"); ok && tagName(tag) == name && byJSON == nil {
			byJSON = f.Index
		}
		if strings.EqualFold(f.Name, name) && byName == nil {
			byName = f.Index
		}
	}
	if byJSON != nil {
		return byJSON
	}
	return byName
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	return name
}
