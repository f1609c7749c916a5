package silk

import (
	"fmt"
	"strings"
)

// Issue describes one failed check on an input value.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidationError is returned by Parse when a value does not satisfy the
// native schema.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		if is.Path != "" {
			parts[i] = is.Path + ": " + is.Message
		} else {
			parts[i] = is.Message
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Extensions exposes the issues on GraphQL errors.
func (e *ValidationError) Extensions() map[string]any {
	return map[string]any{"code": "BAD_USER_INPUT", "issues": e.Issues}
}

// Invalid builds a ValidationError with a single issue.
func Invalid(path, code, format string, args ...any) *ValidationError {
	return &ValidationError{Issues: []Issue{{Path: path, Code: code, Message: fmt.Sprintf(format, args...)}}}
}

// UnsupportedSchemaError is returned when a native schema cannot be expressed
// as a GraphQL type.
type UnsupportedSchemaError struct {
	Schema any
	Reason string
}

func (e *UnsupportedSchemaError) Error() string {
	return fmt.Sprintf("unsupported schema %v: %s", describe(e.Schema), e.Reason)
}

func describe(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", v)
}
