package diff

import (
	"reflect"

	"github.com/google/go-cmp/cmp"
)

// Comparator reports whether two prop values are equal for diffing purposes.
type Comparator func(a, b any) bool

// Shallow compares primitives by value and composite values (maps, slices,
// pointers, funcs, channels) by identity. Two slices are identical when they
// share the backing array and have the same length.
func Shallow(a, b any) (equal bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !ta.Comparable() {
		return false
	}
	// Comparable struct types may still hold interface fields with
	// incomparable dynamic values.
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}

// Deep compares values structurally. It suits trees decoded from the wire, where
// composite identity can never survive between passes.
func Deep(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return cmp.Equal(a, b)
}

// ComparatorByName resolves "shallow" or "deep".
func ComparatorByName(name string) (Comparator, bool) {
	switch name {
	case "", "shallow":
		return Shallow, true
	case "deep":
		return Deep, true
	}
	return nil, false
}
