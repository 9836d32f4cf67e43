// Package vector implements a growable array over a pluggable allocator.
//
// A Vector owns one contiguous region. It is not safe for concurrent use, and
// plain assignment aliases the region: use Clone to copy and Move to transfer.
package vector

import (
	"github.com/pkg/errors"

	"github.com/funny-falcon/containers/alloc"
)

const minCapacity = 2

// Vector holds Len elements of T in a region of Cap elements obtained from A.
// The zero value is an empty vector that owns nothing.
type Vector[T any, S alloc.Size, A alloc.Allocator] struct {
	data []T
	size S
}

// Make returns a vector of n zero elements.
func Make[T any, S alloc.Size, A alloc.Allocator](n S) (Vector[T, S, A], error) {
	var v Vector[T, S, A]
	if err := v.newLength(n, false); err != nil {
		return Vector[T, S, A]{}, err
	}
	return v, nil
}

// Of returns a vector holding values in order.
func Of[T any, S alloc.Size, A alloc.Allocator](values ...T) (Vector[T, S, A], error) {
	var v Vector[T, S, A]
	n, ok := alloc.FromInt[S](len(values))
	if !ok {
		return v, errors.Wrapf(alloc.ErrAllocFailed, "vector: %d values", len(values))
	}
	if err := v.newLength(n, false); err != nil {
		return Vector[T, S, A]{}, err
	}
	copy(v.data, values)
	return v, nil
}

func (v *Vector[T, S, A]) Len() S { return v.size }

func (v *Vector[T, S, A]) Cap() S { return S(len(v.data)) }

func (v *Vector[T, S, A]) MaxSize() S { return alloc.MaxSize[S]() }

// Slice returns the live elements. It is invalidated by growth.
func (v *Vector[T, S, A]) Slice() []T {
	if v.size == 0 {
		return nil
	}
	return v.data[:v.size]
}

// Ref returns the i-th element. i must be below Len.
func (v *Vector[T, S, A]) Ref(i S) *T {
	return &v.data[i]
}

// At returns the i-th element, or nil if i is out of range.
func (v *Vector[T, S, A]) At(i S) *T {
	if i < 0 || i >= v.size {
		return nil
	}
	return &v.data[i]
}

// PushBack appends value and returns a pointer to the stored copy.
func (v *Vector[T, S, A]) PushBack(value T) (*T, error) {
	if v.size == alloc.MaxSize[S]() {
		return nil, errors.Wrap(alloc.ErrAllocFailed, "vector: size at maximum")
	}
	if err := v.newLength(v.size+1, true); err != nil {
		return nil, err
	}
	p := &v.data[v.size-1]
	*p = value
	return p, nil
}

// PopBack removes and returns the last element. The vector must not be empty.
func (v *Vector[T, S, A]) PopBack() T {
	var zero T
	last := v.size - 1
	res := v.data[last]
	v.data[last] = zero
	v.size = last
	return res
}

// Resize sets the length to n, keeping the first min(Len, n) elements.
// Elements exposed by growth are zero.
func (v *Vector[T, S, A]) Resize(n S) error {
	old := v.size
	if err := v.newLength(n, true); err != nil {
		return err
	}
	if n < old {
		clear(v.data[n:old])
	}
	return nil
}

// Clone returns an independent copy.
func (v *Vector[T, S, A]) Clone() (Vector[T, S, A], error) {
	var c Vector[T, S, A]
	if v.size == 0 {
		return c, nil
	}
	if err := c.newLength(v.size, false); err != nil {
		return Vector[T, S, A]{}, err
	}
	copy(c.data, v.data[:v.size])
	return c, nil
}

// Move transfers the region to the result and leaves v empty.
func (v *Vector[T, S, A]) Move() Vector[T, S, A] {
	res := *v
	*v = Vector[T, S, A]{}
	return res
}

// Free releases the region and leaves v empty.
func (v *Vector[T, S, A]) Free() {
	alloc.FreeSlice[T, A](v.data)
	*v = Vector[T, S, A]{}
}

// newLength makes room for l elements and sets the length to l.
//
// The first request allocates minCapacity. A request that does not fit below
// the capacity grows it by half, repeatedly, until it does or the capacity
// reaches MaxSize. On failure v is unchanged.
func (v *Vector[T, S, A]) newLength(l S, keep bool) error {
	if l < 0 {
		return errors.Errorf("vector: negative length %d", l)
	}
	fresh := false
	if len(v.data) == 0 {
		data, err := alloc.MakeSlice[T, A](minCapacity)
		if err != nil {
			return errors.Wrap(err, "vector: first allocation")
		}
		v.data = data
		fresh = true
	}
	capacity := S(len(v.data))
	limit := alloc.MaxSize[S]()
	if l < capacity || capacity == limit {
		v.size = l
		return nil
	}
	ncap := capacity
	for ncap <= l && ncap < limit {
		ncap = grow(ncap, limit)
	}
	data, err := makeRegion[T, A](ncap)
	if err != nil {
		if fresh {
			alloc.FreeSlice[T, A](v.data)
			v.data = nil
		}
		return errors.Wrapf(err, "vector: grow to %d", l)
	}
	if keep {
		copy(data, v.data[:min(v.size, l)])
	}
	alloc.FreeSlice[T, A](v.data)
	v.data = data
	v.size = l
	return nil
}

func grow[S alloc.Size](c, limit S) S {
	if c > limit-c/2 {
		return limit
	}
	return c + c/2
}

func makeRegion[T any, A alloc.Allocator, S alloc.Size](c S) ([]T, error) {
	n, ok := alloc.ToInt(c)
	if !ok {
		return nil, errors.Wrapf(alloc.ErrAllocFailed, "capacity %d", c)
	}
	return alloc.MakeSlice[T, A](n)
}
