package executor

import (
	"errors"

	language "github.com/hanpama/silkweave/internal/language"
)

// GraphQLError represents an error that occurred during execution
type GraphQLError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Location is a line and column in the request document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// ExecutionResult represents the result of executing a GraphQL query
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

type extensionsError interface {
	Extensions() map[string]any
}

// newError locates err at path, keeping the extensions of the first error
// in its chain that exposes any.
func newError(err error, path Path) GraphQLError {
	gerr := GraphQLError{Message: err.Error(), Path: path}
	var ext extensionsError
	if errors.As(err, &ext) {
		gerr.Extensions = ext.Extensions()
	}
	return gerr
}

// ErrorsOf converts request-level errors, such as gqlparser validation
// lists, into GraphQLErrors.
func ErrorsOf(err error) []GraphQLError {
	if err == nil {
		return nil
	}
	var list language.ErrorList
	if errors.As(err, &list) {
		out := make([]GraphQLError, 0, len(list))
		for _, e := range list {
			out = append(out, fromParserError(e))
		}
		return out
	}
	var single *language.Error
	if errors.As(err, &single) {
		return []GraphQLError{fromParserError(single)}
	}
	return []GraphQLError{newError(err, nil)}
}

func fromParserError(e *language.Error) GraphQLError {
	gerr := GraphQLError{Message: e.Message, Extensions: map[string]any{}}
	for k, v := range e.Extensions {
		gerr.Extensions[k] = v
	}
	if _, ok := gerr.Extensions["code"]; !ok {
		gerr.Extensions["code"] = "GRAPHQL_VALIDATION_FAILED"
	}
	for _, loc := range e.Locations {
		gerr.Locations = append(gerr.Locations, Location{Line: loc.Line, Column: loc.Column})
	}
	return gerr
}
