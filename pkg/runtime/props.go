package runtime

import (
	"maps"
	"reflect"
)

// Props are the inputs a parent passes to a child component.
type Props map[string]any

// Get returns the value stored under key, or nil.
func (p Props) Get(key string) any {
	return p[key]
}

// Clone returns a shallow copy.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// propsDiffer reports whether two props maps differ shallowly. Values are
// compared by identity: reference types are equal only when they share the
// same underlying pointer.
func propsDiffer(a, b Props) bool {
	if len(a) != len(b) {
		return true
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !sameValue(av, bv) {
			return true
		}
	}
	return false
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return safeEqual(a, b)
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map, reflect.Func, reflect.Pointer, reflect.UnsafePointer, reflect.Chan:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	default:
		return false
	}
}

// safeEqual compares with ==, treating the runtime panic raised by
// comparable types holding incomparable values as inequality.
func safeEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
