// Package alloc defines the allocation contract shared by the containers.
//
// An Allocator hands out raw, uninitialized memory and takes it back. It never
// panics to report failure: Alloc returns nil instead. Containers pick their
// strategy as a type parameter and call methods on its zero value, so a
// strategy type must not carry per-value state. Strategies that need state
// (see SlabAllocator) keep it in a package-level instance.
//
// A strategy must be a value type that works at its zero value. A pointer
// type such as *Slab satisfies Allocator, but its zero value is nil:
// MakeSlice rejects it with ErrAllocFailed and FreeSlice ignores it.
package alloc

import (
	"math"
	"runtime/debug"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// ErrAllocFailed reports that an allocator could not satisfy a request.
var ErrAllocFailed = errors.New("alloc: allocation failed")

type Allocator interface {
	// Alloc returns at least ln bytes aligned to 8, or nil.
	Alloc(ln int) unsafe.Pointer
	// Dealloc releases memory returned by Alloc of the same strategy.
	// Dealloc(nil) does nothing.
	Dealloc(ptr unsafe.Pointer)
}

// Size is the integer type containers count elements with.
type Size interface {
	constraints.Integer
}

// MaxSize returns the largest value of S.
func MaxSize[S Size]() S {
	var z S
	if z-1 > 0 {
		return ^z
	}
	bits := unsafe.Sizeof(z) * 8
	return S(uint64(1)<<(bits-1) - 1)
}

// ToInt converts n to int, reporting false if it is negative or does not fit.
func ToInt[S Size](n S) (int, bool) {
	if n < 0 {
		return 0, false
	}
	if uint64(n) > math.MaxInt {
		return 0, false
	}
	return int(n), true
}

// FromInt converts n to S, reporting false if it does not fit.
func FromInt[S Size](n int) (S, bool) {
	if n < 0 {
		return 0, false
	}
	if uint64(n) > uint64(MaxSize[S]()) {
		return 0, false
	}
	return S(n), true
}

// HeapLimit caps a single Heap request in bytes. It defaults to half of the
// physical memory, lowered to the Go memory limit when one is set, and never
// exceeds math.MaxInt/2. Where physical memory is unknown it starts from
// fallbackHeapLimit.
var HeapLimit = defaultHeapLimit()

const fallbackHeapLimit = 1 << 30

func defaultHeapLimit() int {
	budget := uint64(fallbackHeapLimit)
	if ram, ok := physicalMemory(); ok {
		budget = ram / 2
	}
	if ml := debug.SetMemoryLimit(-1); ml > 0 && ml != math.MaxInt64 && uint64(ml) < budget {
		budget = uint64(ml)
	}
	return clampHeapLimit(budget)
}

func clampHeapLimit(budget uint64) int {
	if budget > math.MaxInt/2 {
		return math.MaxInt / 2
	}
	if budget == 0 {
		return fallbackHeapLimit
	}
	return int(budget)
}

// Heap allocates from the Go heap. Memory is reclaimed by the garbage
// collector, so Dealloc is a no-op.
type Heap struct{}

func (Heap) Alloc(ln int) unsafe.Pointer {
	if ln < 0 || ln > HeapLimit {
		return nil
	}
	n := (ln + 7) / 8
	if n == 0 {
		n = 1
	}
	words := make([]uint64, n)
	return unsafe.Pointer(&words[0])
}

func (Heap) Dealloc(ptr unsafe.Pointer) {}

// Failing never allocates.
type Failing struct{}

func (Failing) Alloc(ln int) unsafe.Pointer { return nil }

func (Failing) Dealloc(ptr unsafe.Pointer) {}

var (
	_ Allocator = Heap{}
	_ Allocator = Failing{}
	_ Allocator = SlabAllocator{}
)
