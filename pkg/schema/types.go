package schema

import (
	"fmt"
	"reflect"
)

// Type describes the expected shape of a prop value.
type Type interface {
	// Name returns the declaration form of the type (e.g., "string", "[int]").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

type scalarType struct {
	name  string
	check func(any) bool
}

func (t *scalarType) Name() string { return t.name }

func (t *scalarType) Validate(value any) error {
	if !t.check(value) {
		return fmt.Errorf("expected %s, got %T", t.name, value)
	}
	return nil
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isInt(v any) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		// JSON decoding yields whole floats for ints.
		return n == float64(int64(n))
	}
	return false
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func isObject(v any) bool {
	if v == nil {
		return false
	}
	return reflect.ValueOf(v).Kind() == reflect.Map
}

// SliceType validates sequences of a specific element type.
type SliceType struct {
	elem Type
}

func (t *SliceType) Name() string {
	return "[" + t.elem.Name() + "]"
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected sequence, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// String creates a string type.
func String() Type { return &scalarType{name: "string", check: isString} }

// Int creates an integer type.
func Int() Type { return &scalarType{name: "int", check: isInt} }

// Float creates a numeric type.
func Float() Type { return &scalarType{name: "float", check: isFloat} }

// Bool creates a boolean type.
func Bool() Type { return &scalarType{name: "bool", check: isBool} }

// Object creates a mapping type.
func Object() Type { return &scalarType{name: "object", check: isObject} }

// Any accepts every value.
func Any() Type { return &scalarType{name: "any", check: func(any) bool { return true }} }

// Slice creates a sequence type for elements of the given type.
func Slice(elem Type) Type { return &SliceType{elem: elem} }

// Custom creates a named type with a user-defined validation function.
func Custom(name string, validate func(any) error) Type {
	return &customType{name: name, validate: validate}
}

type customType struct {
	name     string
	validate func(any) error
}

func (t *customType) Name() string { return t.name }

func (t *customType) Validate(value any) error { return t.validate(value) }

// ParseType converts a declaration such as "string" or "[float]" to a Type.
func ParseType(decl string) (Type, error) {
	if len(decl) > 2 && decl[0] == '[' && decl[len(decl)-1] == ']' {
		elem, err := ParseType(decl[1 : len(decl)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}
	switch decl {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "object":
		return Object(), nil
	case "any", "":
		return Any(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", decl)
	}
}
