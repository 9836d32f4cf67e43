package alloc

import (
	"reflect"
	"unsafe"

	"github.com/modern-go/concurrent"
	"github.com/modern-go/reflect2"
	"github.com/pkg/errors"
)

var pointerTypes = concurrent.NewMap()

// collected reports whether []T regions for strategy A must come from make:
// either A is the Go heap, or T holds pointers the collector has to see.
func collected[T any, A Allocator]() bool {
	var a A
	if _, ok := any(a).(Heap); ok {
		return true
	}
	typ := reflect2.TypeOfPtr((*T)(nil)).Elem()
	key := typ.RType()
	if v, ok := pointerTypes.Load(key); ok {
		return v.(bool)
	}
	res := hasPointers(typ.Type1())
	pointerTypes.Store(key, res)
	return res
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// MakeSlice returns n zeroed elements of T. Regions of pointer-free types
// come from A; everything else comes from make so the collector tracks it.
func MakeSlice[T any, A Allocator](n int) ([]T, error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrAllocFailed, "negative length %d", n)
	}
	if n == 0 {
		return nil, nil
	}
	var zero T
	elem := int(unsafe.Sizeof(zero))
	bytes, ok := mulOverflowSafe(n, elem)
	if !ok {
		return nil, errors.Wrapf(ErrAllocFailed, "%d elements of %d bytes overflow", n, elem)
	}
	if collected[T, A]() {
		if bytes > HeapLimit {
			return nil, errors.Wrapf(ErrAllocFailed, "%d bytes over heap limit", bytes)
		}
		return make([]T, n), nil
	}
	if elem == 0 {
		return make([]T, n), nil
	}
	var a A
	if reflect2.IsNil(a) {
		return nil, errors.Wrapf(ErrAllocFailed, "nil %T strategy", a)
	}
	ptr := a.Alloc(bytes)
	if ptr == nil {
		return nil, errors.Wrapf(ErrAllocFailed, "%d bytes", bytes)
	}
	s := unsafe.Slice((*T)(ptr), n)
	clear(s)
	return s, nil
}

// FreeSlice releases a region returned by MakeSlice. The whole region must be
// passed, starting at its first element.
func FreeSlice[T any, A Allocator](s []T) {
	if cap(s) == 0 {
		return
	}
	var zero T
	if collected[T, A]() || unsafe.Sizeof(zero) == 0 {
		return
	}
	var a A
	if reflect2.IsNil(a) {
		return
	}
	a.Dealloc(unsafe.Pointer(unsafe.SliceData(s)))
}

func mulOverflowSafe(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	res := a * b
	if res/b != a {
		return 0, false
	}
	return res, true
}
