package text

import (
	"slices"

	"github.com/funny-falcon/containers/alloc"
)

// Cursor is a position inside a Text. A search that finds nothing returns a
// cursor at NPos. Cursors are invalidated by Resize, Append and Move of their
// text.
type Cursor[T CodeUnit, S alloc.Size, A alloc.Allocator] struct {
	text *Text[T, S, A]
	pos  S
}

func (c Cursor[T, S, A]) Text() *Text[T, S, A] { return c.text }

func (c Cursor[T, S, A]) Pos() S { return c.pos }

// Found reports whether the search that produced c succeeded.
func (c Cursor[T, S, A]) Found() bool { return c.pos != NPos[S]() }

// Valid reports whether c points at a stored unit.
func (c Cursor[T, S, A]) Valid() bool {
	return c.text != nil && c.pos >= 0 && c.pos < c.text.size
}

// Unit returns the unit under c, or nil if c is not valid.
func (c Cursor[T, S, A]) Unit() *T {
	if c.text == nil {
		return nil
	}
	return c.text.At(c.pos)
}

func (c *Cursor[T, S, A]) Next() { c.pos++ }

func (c *Cursor[T, S, A]) Prev() { c.pos-- }

// Cursor returns a cursor at pos.
func (t *Text[T, S, A]) Cursor(pos S) Cursor[T, S, A] {
	return Cursor[T, S, A]{text: t, pos: pos}
}

// Find returns the first position at or after from holding u. The terminator
// takes part in the search.
func (t *Text[T, S, A]) Find(u T, from S) Cursor[T, S, A] {
	buf := t.buf()
	for i := from; i < t.size; i++ {
		if buf[i] == u {
			return Cursor[T, S, A]{text: t, pos: i}
		}
	}
	return Cursor[T, S, A]{text: t, pos: NPos[S]()}
}

// FindText returns the first position at or after from where the content of
// needle occurs. A needle with no content, or longer than t, is not found.
func (t *Text[T, S, A]) FindText(needle *Text[T, S, A], from S) Cursor[T, S, A] {
	notFound := Cursor[T, S, A]{text: t, pos: NPos[S]()}
	if needle.size <= 1 || t.size < needle.size {
		return notFound
	}
	buf, nd := t.buf(), needle.Content()
	m := needle.size - 1
	for i := from; i <= t.size-needle.size; i++ {
		if slices.Equal(buf[i:i+m], nd) {
			return Cursor[T, S, A]{text: t, pos: i}
		}
	}
	return notFound
}

// FindAt is Find starting at the position of from.
func (t *Text[T, S, A]) FindAt(u T, from Cursor[T, S, A]) Cursor[T, S, A] {
	return t.Find(u, from.pos)
}

// FindTextAt is FindText starting at the position of from.
func (t *Text[T, S, A]) FindTextAt(needle *Text[T, S, A], from Cursor[T, S, A]) Cursor[T, S, A] {
	return t.FindText(needle, from.pos)
}
