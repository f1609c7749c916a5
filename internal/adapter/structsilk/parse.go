package structsilk

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/hanpama/silkweave/internal/silk"
)

// codec reads and writes structs under their GraphQL field names.
var codec = func() jsoniter.API {
	api := jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
	}.Froze()
	api.RegisterExtension(&namingExtension{})
	return api
}()

type namingExtension struct {
	jsoniter.DummyExtension
}

func (e *namingExtension) UpdateStructDescriptor(desc *jsoniter.StructDescriptor) {
	for _, b := range desc.Fields {
		tag := parseTag(reflect.StructField{Name: b.Field.Name(), Tag: b.Field.Tag()})
		if tag.skip {
			b.FromNames, b.ToNames = nil, nil
			continue
		}
		b.FromNames = []string{tag.name}
		b.ToNames = []string{tag.name}
	}
}

var validate = func() func(ctx context.Context, v any) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := parseTag(f)
		if tag.skip {
			return ""
		}
		return tag.name
	})
	return func(ctx context.Context, value any) error {
		rv := reflect.ValueOf(value)
		for rv.Kind() == reflect.Pointer {
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return nil
		}
		err := v.StructCtx(ctx, value)
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		issues := make([]silk.Issue, len(fieldErrs))
		for i, fe := range fieldErrs {
			issues[i] = silk.Issue{
				Path:    issuePath(fe.Namespace()),
				Code:    fe.Tag(),
				Message: issueMessage(fe),
			}
		}
		return &silk.ValidationError{Issues: issues}
	}
}()

func decode(parsed any, t reflect.Type) (any, error) {
	data, err := codec.Marshal(parsed)
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(t)
	if err := codec.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, silk.Invalid("", "invalid_type", "cannot decode %s: %v", t, err)
	}
	return ptr.Elem().Interface(), nil
}

// issuePath drops the struct name from a validator namespace:
// "Book.author.name" becomes "author.name" and "Book.tags[0]" becomes
// "tags.0".
func issuePath(namespace string) string {
	_, path, _ := strings.Cut(namespace, ".")
	path = strings.ReplaceAll(path, "[", ".")
	return strings.ReplaceAll(path, "]", "")
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "email":
		return "must be an email address"
	}
	if fe.Param() != "" {
		return "failed " + fe.Tag() + "=" + fe.Param()
	}
	return "failed " + fe.Tag()
}
