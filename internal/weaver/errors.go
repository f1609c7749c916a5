package weaver

import (
	"errors"
	"fmt"

	"github.com/hanpama/silkweave/internal/schema"
)

// ErrFrozen is returned when a context is asked to derive new types after
// weaving completed.
var ErrFrozen = errors.New("weaver: context is frozen")

// InvalidTargetError is returned when a type that is not an object is
// promoted to an interface or used as a parent of field resolvers.
type InvalidTargetError struct {
	Type string
	Kind schema.TypeKind
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("%s is not an object type (kind %s)", e.Type, e.Kind)
}

// SchemaCompositionError reports conflicting definitions found while
// weaving, such as two operations with the same name on one type.
type SchemaCompositionError struct {
	Type   string
	Field  string
	Reason string
}

func (e *SchemaCompositionError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("schema composition: %s.%s: %s", e.Type, e.Field, e.Reason)
	case e.Type != "":
		return fmt.Sprintf("schema composition: %s: %s", e.Type, e.Reason)
	}
	return "schema composition: " + e.Reason
}

// UnresolvedVariantError is returned at resolution time when a
// discriminated union value matches none of its variants.
type UnresolvedVariantError struct {
	Union         string
	Discriminator string
	Value         any
}

func (e *UnresolvedVariantError) Error() string {
	return fmt.Sprintf("%s: no variant for %s=%v", e.Union, e.Discriminator, e.Value)
}

func (e *UnresolvedVariantError) Extensions() map[string]any {
	return map[string]any{"code": "UNRESOLVED_VARIANT", "union": e.Union}
}
