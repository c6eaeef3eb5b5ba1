package ecs

import (
	"errors"
	"fmt"
	"math"
	"reflect"
)

var (
	// ErrUnknownField is returned when a schema has no field of the given name.
	ErrUnknownField = errors.New("ecs: unknown field")
	// ErrFieldType is returned when a value cannot be assigned to a field.
	ErrFieldType = errors.New("ecs: field type mismatch")
	// ErrReadOnly is returned when setting a field without a setter.
	ErrReadOnly = errors.New("ecs: field is read-only")
)

// FieldKind is the editor-facing type of a schema field.
type FieldKind uint8

const (
	FieldFloat FieldKind = iota
	FieldInt
	FieldBool
	FieldString
)

func (k FieldKind) String() string {
	switch k {
	case FieldFloat:
		return "float"
	case FieldInt:
		return "int"
	case FieldBool:
		return "bool"
	case FieldString:
		return "string"
	}
	return fmt.Sprintf("FieldKind(%d)", uint8(k))
}

// Field describes one editable property of a component type. Get and Set
// receive a component of the schema's type.
type Field struct {
	Name string
	Kind FieldKind
	Get  func(Component) any
	// Set is nil for read-only fields.
	Set func(Component, any) error
}

// Schema is the declarative list of fields inspector and persistence
// tooling may read and write for one component type.
type Schema struct {
	Type   reflect.Type
	Fields []Field
	index  map[string]int
}

// NewSchema builds the schema of component type C.
func NewSchema[C Component](fields ...Field) *Schema {
	s := &Schema{
		Type:   reflect.TypeFor[C](),
		Fields: fields,
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if _, dup := s.index[f.Name]; dup {
			panic("ecs: duplicate schema field " + f.Name + " on " + s.Type.String())
		}
		s.index[f.Name] = i
	}
	return s
}

// Field returns the named field.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Get reads a field of c.
func (s *Schema) Get(c Component, name string) (any, error) {
	f, ok := s.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, s.Type, name)
	}
	return f.Get(c), nil
}

// Set writes a field of c.
func (s *Schema) Set(c Component, name string, v any) error {
	f, ok := s.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, s.Type, name)
	}
	if f.Set == nil {
		return fmt.Errorf("%w: %s.%s", ErrReadOnly, s.Type, name)
	}
	if err := f.Set(c, v); err != nil {
		return fmt.Errorf("set %s.%s: %w", s.Type, name, err)
	}
	return nil
}

// Values returns every field value of c keyed by field name.
func (s *Schema) Values(c Component) map[string]any {
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		out[f.Name] = f.Get(c)
	}
	return out
}

// FloatField declares a float64 field reached through ptr.
func FloatField[C Component](name string, ptr func(C) *float64) Field {
	return Field{
		Name: name,
		Kind: FieldFloat,
		Get:  func(c Component) any { return *ptr(c.(C)) },
		Set: func(c Component, v any) error {
			switch n := v.(type) {
			case float64:
				*ptr(c.(C)) = n
			case float32:
				*ptr(c.(C)) = float64(n)
			case int:
				*ptr(c.(C)) = float64(n)
			case int64:
				*ptr(c.(C)) = float64(n)
			default:
				return fmt.Errorf("%w: want float, got %T", ErrFieldType, v)
			}
			return nil
		},
	}
}

// IntField declares an int field reached through ptr. Float values are
// accepted when they hold an integer.
func IntField[C Component](name string, ptr func(C) *int) Field {
	return Field{
		Name: name,
		Kind: FieldInt,
		Get:  func(c Component) any { return *ptr(c.(C)) },
		Set: func(c Component, v any) error {
			switch n := v.(type) {
			case int:
				*ptr(c.(C)) = n
			case int32:
				*ptr(c.(C)) = int(n)
			case int64:
				*ptr(c.(C)) = int(n)
			case float64:
				if n != math.Trunc(n) {
					return fmt.Errorf("%w: %v is not an integer", ErrFieldType, n)
				}
				*ptr(c.(C)) = int(n)
			default:
				return fmt.Errorf("%w: want int, got %T", ErrFieldType, v)
			}
			return nil
		},
	}
}

// BoolField declares a bool field reached through ptr.
func BoolField[C Component](name string, ptr func(C) *bool) Field {
	return Field{
		Name: name,
		Kind: FieldBool,
		Get:  func(c Component) any { return *ptr(c.(C)) },
		Set: func(c Component, v any) error {
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("%w: want bool, got %T", ErrFieldType, v)
			}
			*ptr(c.(C)) = b
			return nil
		},
	}
}

// StringField declares a string field reached through ptr.
func StringField[C Component](name string, ptr func(C) *string) Field {
	return Field{
		Name: name,
		Kind: FieldString,
		Get:  func(c Component) any { return *ptr(c.(C)) },
		Set: func(c Component, v any) error {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: want string, got %T", ErrFieldType, v)
			}
			*ptr(c.(C)) = s
			return nil
		},
	}
}

// ReadOnly strips the setter from f.
func ReadOnly(f Field) Field {
	f.Set = nil
	return f
}

// SchemaRegistry maps component types to their schemas. Each World owns
// one, with the Transform schema pre-registered.
type SchemaRegistry struct {
	schemas map[reflect.Type]*Schema
	order   []reflect.Type
}

func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{schemas: make(map[reflect.Type]*Schema)}
}

// Register adds s, replacing any schema previously registered for its type.
func (r *SchemaRegistry) Register(s *Schema) {
	if _, ok := r.schemas[s.Type]; !ok {
		r.order = append(r.order, s.Type)
	}
	r.schemas[s.Type] = s
}

// RegisterSchema declares and registers the schema of C in one call.
func RegisterSchema[C Component](r *SchemaRegistry, fields ...Field) *Schema {
	s := NewSchema[C](fields...)
	r.Register(s)
	return s
}

// Lookup returns the schema registered for t.
func (r *SchemaRegistry) Lookup(t reflect.Type) (*Schema, bool) {
	s, ok := r.schemas[t]
	return s, ok
}

// For returns the schema of c's dynamic type, or nil.
func (r *SchemaRegistry) For(c Component) *Schema {
	return r.schemas[reflect.TypeOf(c)]
}

// Types returns the registered types in registration order.
func (r *SchemaRegistry) Types() []reflect.Type {
	out := make([]reflect.Type, len(r.order))
	copy(out, r.order)
	return out
}
