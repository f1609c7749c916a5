// Package protosilk lets protobuf message and enum descriptors act as native
// schemas.
//
// Messages derive to object types named after the message, with one field
// per proto field under its JSON name. Fields with explicit presence
// (message fields, proto3 optional, oneof members) are nullable; repeated
// fields are non-null lists. 64-bit integers and bytes follow protojson and
// surface as strings. Map fields have no GraphQL mapping.
//
// Input values are checked against the derived shape and then decoded with
// protojson into dynamic messages.
package protosilk

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/hanpama/silkweave/internal/silk"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	messages sync.Map // protoreflect.MessageDescriptor -> *Message
	enums    sync.Map // protoreflect.EnumDescriptor -> *Enum
)

// Message is the silk of a message descriptor.
type Message struct {
	md protoreflect.MessageDescriptor

	once  sync.Once
	shape silk.Shape
	err   error
}

var (
	_ silk.Silk          = (*Message)(nil)
	_ silk.FieldResolver = (*Message)(nil)
	_ silk.TypeMatcher   = (*Message)(nil)
)

// For returns the silk of md.
func For(md protoreflect.MessageDescriptor) *Message {
	if m, ok := messages.Load(md); ok {
		return m.(*Message)
	}
	m, _ := messages.LoadOrStore(md, &Message{md: md})
	return m.(*Message)
}

// Of returns the silk of a generated message type.
func Of(m proto.Message) *Message {
	return For(m.ProtoReflect().Descriptor())
}

func (m *Message) Schema() any                               { return m.md }
func (m *Message) Descriptor() protoreflect.MessageDescriptor { return m.md }
func (m *Message) String() string                            { return string(m.md.FullName()) }

func (m *Message) Shape() (silk.Shape, error) {
	m.once.Do(func() {
		m.shape, m.err = deriveMessage(m.md)
	})
	return m.shape, m.err
}

// Parse accepts a message of the descriptor or a JSON-like map, and returns
// a proto.Message.
func (m *Message) Parse(ctx context.Context, value any) (any, error) {
	shape, err := m.Shape()
	if err != nil {
		return nil, err
	}
	if msg, ok := value.(proto.Message); ok {
		if msg.ProtoReflect().Descriptor().FullName() != m.md.FullName() {
			return nil, silk.Invalid("", "invalid_type", "expected %s, got %s", m.md.FullName(), msg.ProtoReflect().Descriptor().FullName())
		}
		return msg, nil
	}
	if _, err := silk.ParseShape(ctx, shape, value); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(normalize(value))
	if err != nil {
		return nil, err
	}
	out := dynamicpb.NewMessage(m.md)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, silk.Invalid("", "invalid_type", "%s: %v", m.md.FullName(), err)
	}
	return out, nil
}

// ResolveField reads a field by its JSON name.
func (m *Message) ResolveField(parent any, name string) (any, error) {
	msg, ok := parent.(proto.Message)
	if !ok {
		if mp, isMap := parent.(map[string]any); isMap {
			return mp[name], nil
		}
		return nil, fmt.Errorf("%s: cannot read %q off %T", m.md.FullName(), name, parent)
	}
	r := msg.ProtoReflect()
	if !r.IsValid() {
		return nil, nil
	}
	fd := r.Descriptor().Fields().ByJSONName(name)
	if fd == nil {
		return nil, fmt.Errorf("%s has no field %q", r.Descriptor().FullName(), name)
	}
	if fd.HasPresence() && !r.Has(fd) {
		return nil, nil
	}
	v := r.Get(fd)
	if fd.IsList() {
		list := v.List()
		out := make([]any, list.Len())
		for i := range list.Len() {
			out[i] = fromValue(fd, list.Get(i))
		}
		return out, nil
	}
	return fromValue(fd, v), nil
}

// IsTypeOf reports whether value is a message of the descriptor.
func (m *Message) IsTypeOf(value any) bool {
	msg, ok := value.(proto.Message)
	return ok && msg.ProtoReflect().Descriptor().FullName() == m.md.FullName()
}

// Enum is the silk of an enum descriptor. Values parse to
// protoreflect.EnumNumber.
type Enum struct {
	ed protoreflect.EnumDescriptor
}

// ForEnum returns the silk of ed.
func ForEnum(ed protoreflect.EnumDescriptor) *Enum {
	if e, ok := enums.Load(ed); ok {
		return e.(*Enum)
	}
	e, _ := enums.LoadOrStore(ed, &Enum{ed: ed})
	return e.(*Enum)
}

func (e *Enum) Schema() any    { return e.ed }
func (e *Enum) String() string { return string(e.ed.FullName()) }

func (e *Enum) Shape() (silk.Shape, error) {
	out := silk.Enum{Name: string(e.ed.Name()), Description: comments(e.ed)}
	values := e.ed.Values()
	for i := range values.Len() {
		v := values.Get(i)
		out.Values = append(out.Values, silk.EnumValue{
			Name:        string(v.Name()),
			Description: comments(v),
			Value:       v.Number(),
		})
	}
	return out, nil
}

func (e *Enum) Parse(ctx context.Context, value any) (any, error) {
	shape, _ := e.Shape()
	return silk.ParseShape(ctx, shape, value)
}

func deriveMessage(md protoreflect.MessageDescriptor) (silk.Shape, error) {
	obj := silk.Object{Name: string(md.Name()), Description: comments(md)}
	fields := md.Fields()
	for i := range fields.Len() {
		fd := fields.Get(i)
		shape, err := fieldShape(fd)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", md.FullName(), fd.Name(), err)
		}
		of := silk.ObjectField{
			Name:        fd.JSONName(),
			Description: comments(fd),
			Shape:       shape,
			Required:    fd.IsList() || !fd.HasPresence(),
		}
		if opts, ok := fd.Options().(interface{ GetDeprecated() bool }); ok && opts.GetDeprecated() {
			of.DeprecationReason = "No longer supported"
		}
		obj.Fields = append(obj.Fields, of)
	}
	return obj, nil
}

func fieldShape(fd protoreflect.FieldDescriptor) (silk.Shape, error) {
	if fd.IsMap() {
		return nil, &silk.UnsupportedSchemaError{Schema: fd.FullName(), Reason: "map fields have no GraphQL mapping"}
	}
	elem, err := kindShape(fd)
	if err != nil {
		return nil, err
	}
	if fd.IsList() {
		return silk.Array{Elem: elem}, nil
	}
	return elem, nil
}

func kindShape(fd protoreflect.FieldDescriptor) (silk.Shape, error) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return silk.Scalar{Name: "Boolean"}, nil
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return silk.Scalar{Name: "Int"}, nil
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind,
		protoreflect.StringKind, protoreflect.BytesKind:
		return silk.Scalar{Name: "String"}, nil
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return silk.Scalar{Name: "Float"}, nil
	case protoreflect.EnumKind:
		return silk.Ref{Silk: ForEnum(fd.Enum())}, nil
	case protoreflect.MessageKind:
		return silk.Ref{Silk: For(fd.Message())}, nil
	}
	return nil, &silk.UnsupportedSchemaError{Schema: fd.FullName(), Reason: fmt.Sprintf("%s fields have no GraphQL mapping", fd.Kind())}
}

func fromValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) any {
	switch fd.Kind() {
	case protoreflect.EnumKind:
		return v.Enum()
	case protoreflect.MessageKind:
		return v.Message().Interface()
	case protoreflect.BytesKind:
		return base64.StdEncoding.EncodeToString(v.Bytes())
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return strconv.FormatInt(v.Int(), 10)
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return strconv.FormatUint(v.Uint(), 10)
	}
	return v.Interface()
}

// normalize turns nested messages into their protojson form so the whole
// value can be written as one JSON document.
func normalize(value any) any {
	switch v := value.(type) {
	case proto.Message:
		raw, err := protojson.Marshal(v)
		if err != nil {
			return nil
		}
		return jsoniter.RawMessage(raw)
	case protoreflect.EnumNumber:
		return int32(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, x := range v {
			out[k] = normalize(x)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = normalize(x)
		}
		return out
	}
	return value
}

func comments(d protoreflect.Descriptor) string {
	file := d.ParentFile()
	if file == nil {
		return ""
	}
	loc := file.SourceLocations().ByDescriptor(d)
	return strings.TrimSpace(loc.LeadingComments)
}
