// Package silk defines the capability wrapper that lets any native schema
// object take part in weaving a GraphQL schema.
//
// A Silk exposes three things: the native schema it wraps (whose identity is
// the cache key during weaving), a Shape describing its structure, and a
// Parse function that validates raw input. Adapters for concrete schema
// libraries live under internal/adapter.
package silk

import (
	"context"
	"strings"
)

type Silk interface {
	// Schema returns the wrapped native schema. Two silks wrapping the same
	// native schema derive the same GraphQL type.
	Schema() any
	// Shape describes the native schema structurally.
	Shape() (Shape, error)
	// Parse validates value and returns the native parsed form. Invalid input
	// yields a *ValidationError.
	Parse(ctx context.Context, value any) (any, error)
}

// FieldResolver is implemented by silks whose values are not plain maps or
// structs, so the runtime can read an object field off a parent value.
type FieldResolver interface {
	ResolveField(parent any, name string) (any, error)
}

// TypeMatcher lets an object silk claim values at runtime when it appears
// in a plain union or behind an interface.
type TypeMatcher interface {
	IsTypeOf(value any) bool
}

// ParseFunc validates a raw value.
type ParseFunc func(ctx context.Context, value any) (any, error)

// ParseObjectConfig splits a documentation string of the form
// "Name: description" on its first colon. A string without a colon is a
// name only.
func ParseObjectConfig(doc string) (name, description string) {
	name, description, found := strings.Cut(doc, ":")
	if !found {
		return strings.TrimSpace(doc), ""
	}
	return strings.TrimSpace(name), strings.TrimSpace(description)
}
