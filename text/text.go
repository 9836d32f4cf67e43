// Package text implements a sequence of fixed-width code units with
// small-buffer storage.
//
// A Text keeps a terminating zero unit after its content, and its stored
// length counts it: New of "ab" has Length 3 and ContentLen 2. Texts whose
// stored length fits in a pointer-wide inline array live inside the value;
// longer ones live in a region from the allocator A. The representation is
// picked from the stored length on every change, in both directions.
//
// A Text is not safe for concurrent use. Plain assignment aliases heap
// storage: use Clone to copy and Move to transfer.
//
// # Unchecked access
//
// Ref, Substr, Find and FindText take positions the caller must keep in
// range. At is the checked counterpart and returns nil past the end.
package text

import (
	"slices"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/funny-falcon/containers/alloc"
)

// CodeUnit covers 8, 16 and 32 bit code units.
type CodeUnit interface {
	~uint8 | ~uint16 | ~int32 | ~uint32
}

type representation uint8

const (
	inline representation = iota
	heap
)

type Text[T CodeUnit, S alloc.Size, A alloc.Allocator] struct {
	_     [0]func()
	rep   representation
	small [1]uintptr
	large []T
	size  S
}

// InlineCapacity is the number of T that fit in a pointer.
func InlineCapacity[T CodeUnit]() int {
	var z T
	return int(unsafe.Sizeof(uintptr(0)) / unsafe.Sizeof(z))
}

// NPos is the "not found" position and the "to the end" bound.
func NPos[S alloc.Size]() S {
	return alloc.MaxSize[S]()
}

func smallMax[T CodeUnit, S alloc.Size]() S {
	return S(InlineCapacity[T]())
}

// New copies content and terminates it.
func New[T CodeUnit, S alloc.Size, A alloc.Allocator](content []T) (Text[T, S, A], error) {
	n, ok := alloc.FromInt[S](len(content))
	if !ok || n == alloc.MaxSize[S]() {
		return Text[T, S, A]{}, errors.Wrapf(alloc.ErrAllocFailed, "text: %d units", len(content))
	}
	t, err := sized[T, S, A](n + 1)
	if err != nil {
		return Text[T, S, A]{}, err
	}
	copy(t.buf(), content)
	return t, nil
}

// FromTerminated copies units up to the first zero. Units without a zero are
// taken whole.
func FromTerminated[T CodeUnit, S alloc.Size, A alloc.Allocator](units []T) (Text[T, S, A], error) {
	if i := slices.Index(units, 0); i >= 0 {
		units = units[:i]
	}
	return New[T, S, A](units)
}

// sized returns a zeroed text of stored length n.
func sized[T CodeUnit, S alloc.Size, A alloc.Allocator](n S) (Text[T, S, A], error) {
	var t Text[T, S, A]
	if n > smallMax[T, S]() {
		data, err := makeUnits[T, A](n)
		if err != nil {
			return t, err
		}
		t.rep = heap
		t.large = data
	}
	t.size = n
	return t, nil
}

func makeUnits[T CodeUnit, A alloc.Allocator, S alloc.Size](n S) ([]T, error) {
	ln, ok := alloc.ToInt(n)
	if !ok {
		return nil, errors.Wrapf(alloc.ErrAllocFailed, "text: %d units", n)
	}
	data, err := alloc.MakeSlice[T, A](ln)
	return data, errors.Wrap(err, "text")
}

func (t *Text[T, S, A]) buf() []T {
	if t.rep == heap {
		return t.large
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&t.small)), InlineCapacity[T]())
}

func (t *Text[T, S, A]) release() {
	if t.rep == heap {
		alloc.FreeSlice[T, A](t.large)
	}
}

// Length is the stored length: content plus the terminator.
func (t *Text[T, S, A]) Length() S { return t.size }

// ContentLen is Length without the terminator.
func (t *Text[T, S, A]) ContentLen() S {
	if t.size == 0 {
		return 0
	}
	return t.size - 1
}

func (t *Text[T, S, A]) IsInline() bool { return t.rep == inline }

// Units returns the stored units, terminator included.
func (t *Text[T, S, A]) Units() []T { return t.buf()[:t.size] }

func (t *Text[T, S, A]) Content() []T { return t.buf()[:t.ContentLen()] }

// At returns the i-th stored unit, or nil if i is out of range.
func (t *Text[T, S, A]) At(i S) *T {
	if i < 0 || i >= t.size {
		return nil
	}
	return &t.buf()[i]
}

// Ref returns the i-th stored unit. i must be below Length.
func (t *Text[T, S, A]) Ref(i S) *T {
	return &t.buf()[i]
}

// Resize sets the stored length to n, keeping the first min(Length, n) units
// and writing the terminator at n-1. Units exposed by growth are zero.
// On failure t is unchanged.
func (t *Text[T, S, A]) Resize(n S) error {
	if n < 0 {
		return errors.Errorf("text: negative length %d", n)
	}
	switch {
	case n > smallMax[T, S]():
		data, err := makeUnits[T, A](n)
		if err != nil {
			return errors.Wrapf(err, "resize to %d", n)
		}
		copy(data, t.buf()[:min(t.size, n)])
		t.release()
		t.rep = heap
		t.large = data
	case t.rep == heap:
		old := t.large
		t.rep = inline
		t.large = nil
		t.small = [1]uintptr{}
		copy(t.buf(), old[:n])
		alloc.FreeSlice[T, A](old)
	case n > t.size:
		clear(t.buf()[t.size:n])
	}
	t.size = n
	if n > 0 {
		t.buf()[n-1] = 0
	}
	return nil
}

// Substr returns units [begin, end) as a new text. end == NPos means the end
// of the content.
func (t *Text[T, S, A]) Substr(begin, end S) (Text[T, S, A], error) {
	if end == NPos[S]() {
		end = t.ContentLen()
	}
	units := t.buf()[begin:end]
	res, err := sized[T, S, A](end - begin + 1)
	if err != nil {
		return res, errors.Wrap(err, "substr")
	}
	copy(res.buf(), units)
	return res, nil
}

// SubstrAt is Substr over cursor positions of t. A to cursor at NPos, such
// as t.Cursor(NPos[S]()) or a failed search, means the end of the content.
func (t *Text[T, S, A]) SubstrAt(from, to Cursor[T, S, A]) (Text[T, S, A], error) {
	return t.Substr(from.pos, to.pos)
}

// HasPrefix reports whether t starts with the content of o.
func (t *Text[T, S, A]) HasPrefix(o *Text[T, S, A]) bool {
	if o.size > t.size {
		return false
	}
	m := o.ContentLen()
	return slices.Equal(t.buf()[:m], o.buf()[:m])
}

// HasSuffix reports whether the content of t ends with the content of o.
func (t *Text[T, S, A]) HasSuffix(o *Text[T, S, A]) bool {
	if o.size > t.size {
		return false
	}
	m := o.ContentLen()
	end := t.ContentLen()
	return slices.Equal(t.buf()[end-m:end], o.buf()[:m])
}

// Concat returns the content of a followed by the content of b.
// Its Length is a.Length()+b.Length()-1.
func Concat[T CodeUnit, S alloc.Size, A alloc.Allocator](a, b *Text[T, S, A]) (Text[T, S, A], error) {
	al, bl := a.ContentLen(), b.ContentLen()
	if al >= alloc.MaxSize[S]()-bl {
		return Text[T, S, A]{}, errors.Wrap(alloc.ErrAllocFailed, "concat: length overflow")
	}
	res, err := sized[T, S, A](al + bl + 1)
	if err != nil {
		return res, errors.Wrap(err, "concat")
	}
	buf := res.buf()
	copy(buf, a.Content())
	copy(buf[al:], b.Content())
	return res, nil
}

// Append appends the content of o. o may be t itself.
func (t *Text[T, S, A]) Append(o *Text[T, S, A]) error {
	tl, ol := t.ContentLen(), o.ContentLen()
	if tl >= alloc.MaxSize[S]()-ol {
		return errors.Wrap(alloc.ErrAllocFailed, "append: length overflow")
	}
	if err := t.Resize(tl + ol + 1); err != nil {
		return errors.Wrap(err, "append")
	}
	copy(t.buf()[tl:tl+ol], o.buf()[:ol])
	return nil
}

// Equal compares stored lengths and all stored units.
func (t *Text[T, S, A]) Equal(o *Text[T, S, A]) bool {
	return t.size == o.size && slices.Equal(t.Units(), o.Units())
}

func (t *Text[T, S, A]) Clone() (Text[T, S, A], error) {
	res, err := sized[T, S, A](t.size)
	if err != nil {
		return res, errors.Wrap(err, "clone")
	}
	copy(res.buf(), t.Units())
	return res, nil
}

// CopyFrom replaces t with a copy of o. On failure t is unchanged.
func (t *Text[T, S, A]) CopyFrom(o *Text[T, S, A]) error {
	if t == o {
		return nil
	}
	c, err := o.Clone()
	if err != nil {
		return err
	}
	t.release()
	*t = c
	return nil
}

// Move transfers the storage to the result and leaves t empty.
func (t *Text[T, S, A]) Move() Text[T, S, A] {
	res := *t
	*t = Text[T, S, A]{}
	return res
}

// Free releases heap storage and leaves t empty.
func (t *Text[T, S, A]) Free() {
	t.release()
	*t = Text[T, S, A]{}
}
