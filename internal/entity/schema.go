// Package entity builds GraphQL operations for persisted entities.
//
// An entity is described by a Schema of typed properties. The schema is its
// own native schema: Silk derives the GraphQL object type, and Operations
// builds mutations that write through a Session and commit the unit of work
// once the resolver has succeeded.
package entity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hanpama/silkweave/internal/silk"
)

// PropertyType is the storage type of a property.
type PropertyType string

const (
	String  PropertyType = "string"
	Integer PropertyType = "integer"
	Number  PropertyType = "number"
	Boolean PropertyType = "boolean"
)

// Property is one column of an entity.
type Property struct {
	Name        string
	Type        PropertyType
	Description string
	Primary     bool
	Hidden      bool
	Nullable    bool
	Array       bool
	// Validate holds validator rules checked on input, e.g. "min=1,max=64".
	Validate string
	// Entity marks a relation to another entity. Relations are not data
	// fields of the derived type.
	Entity *Schema
}

// Schema describes an entity.
type Schema struct {
	Name        string
	Description string
	Properties  []Property
}

// PrimaryKeys lists the names of the primary key properties.
func (s *Schema) PrimaryKeys() []string {
	var keys []string
	for _, p := range s.Properties {
		if p.Primary {
			keys = append(keys, p.Name)
		}
	}
	return keys
}

// Columns lists the stored properties, relations excluded.
func (s *Schema) Columns() []Property {
	out := make([]Property, 0, len(s.Properties))
	for _, p := range s.Properties {
		if p.Entity == nil {
			out = append(out, p)
		}
	}
	return out
}

var validate = validator.New()

// Silk returns the silk of s. Primary string keys derive to ID.
func Silk(s *Schema) silk.Silk {
	return &entitySilk{schema: s, name: s.Name}
}

type entitySilk struct {
	schema *Schema
	name   string
	omit   map[string]bool
}

func (e *entitySilk) Schema() any {
	if e.omit != nil {
		// create inputs are a distinct native schema from the entity
		return createInputKey{e.schema}
	}
	return e.schema
}

type createInputKey struct{ schema *Schema }

func (e *entitySilk) String() string { return e.name }

// Getter is implemented by entity instances that are not plain maps.
type Getter interface {
	Get(name string) any
}

func (e *entitySilk) ResolveField(parent any, name string) (any, error) {
	switch v := parent.(type) {
	case map[string]any:
		return v[name], nil
	case Getter:
		return v.Get(name), nil
	}
	return nil, fmt.Errorf("%s: cannot read %q off %T", e.schema.Name, name, parent)
}

func (e *entitySilk) Shape() (silk.Shape, error) {
	if e.schema.Name == "" {
		return nil, &silk.UnsupportedSchemaError{Schema: e.schema, Reason: "entity has no name"}
	}
	obj := silk.Object{Name: e.name, Description: e.schema.Description}
	for _, p := range e.schema.Columns() {
		if e.omit[p.Name] {
			continue
		}
		shape, err := propertyShape(p)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", e.schema.Name, p.Name, err)
		}
		obj.Fields = append(obj.Fields, silk.ObjectField{
			Name:        p.Name,
			Description: p.Description,
			Shape:       shape,
			Required:    !p.Nullable,
			Hidden:      p.Hidden,
		})
	}
	return obj, nil
}

// Parse checks data against the properties and their validator rules and
// returns it as map[string]any.
func (e *entitySilk) Parse(ctx context.Context, value any) (any, error) {
	shape, err := e.Shape()
	if err != nil {
		return nil, err
	}
	parsed, err := silk.ParseShape(ctx, shape, value)
	if err != nil {
		return nil, err
	}
	data := parsed.(map[string]any)
	rules := make(map[string]any)
	for _, p := range e.schema.Columns() {
		if p.Validate == "" || e.omit[p.Name] {
			continue
		}
		if v, present := data[p.Name]; present && v != nil {
			rules[p.Name] = p.Validate
		}
	}
	if len(rules) == 0 {
		return data, nil
	}
	failed := validate.ValidateMapCtx(ctx, data, rules)
	if len(failed) == 0 {
		return data, nil
	}
	names := make([]string, 0, len(failed))
	for name := range failed {
		names = append(names, name)
	}
	sort.Strings(names)
	verr := &silk.ValidationError{}
	for _, name := range names {
		verr.Issues = append(verr.Issues, issue(name, failed[name]))
	}
	return nil, verr
}

func issue(path string, failure any) silk.Issue {
	err, _ := failure.(error)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := "failed " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		return silk.Issue{Path: path, Code: fe.Tag(), Message: msg}
	}
	return silk.Issue{Path: path, Code: "invalid", Message: fmt.Sprint(failure)}
}

func propertyShape(p Property) (silk.Shape, error) {
	var elem silk.Shape
	switch p.Type {
	case String:
		elem = silk.Scalar{Name: "String"}
		if p.Primary && !p.Array {
			elem = silk.Scalar{Name: "ID"}
		}
	case Integer:
		elem = silk.Scalar{Name: "Int"}
	case Number:
		elem = silk.Scalar{Name: "Float"}
	case Boolean:
		elem = silk.Scalar{Name: "Boolean"}
	default:
		return nil, &silk.UnsupportedSchemaError{Schema: p.Name, Reason: fmt.Sprintf("unknown property type %q", p.Type)}
	}
	if p.Array {
		return silk.Array{Elem: elem}, nil
	}
	return elem, nil
}

func createInputName(s *Schema) string {
	return strings.TrimSpace(s.Name) + "CreateInput"
}
