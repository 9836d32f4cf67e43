package text

import (
	"encoding/binary"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"

	"github.com/funny-falcon/containers/alloc"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// FromString encodes s as UTF-8, UTF-16 or UTF-32 depending on the width of
// T and returns it as a text.
func FromString[T CodeUnit, S alloc.Size, A alloc.Allocator](s string) (Text[T, S, A], error) {
	units, err := encode[T](s)
	if err != nil {
		return Text[T, S, A]{}, err
	}
	return New[T, S, A](units)
}

// String decodes the content of t according to the width of T.
func (t *Text[T, S, A]) String() string {
	s, err := decode(t.Content())
	if err != nil {
		return "\uFFFD"
	}
	return s
}

func encode[T CodeUnit](s string) ([]T, error) {
	var z T
	switch unsafe.Sizeof(z) {
	case 1:
		units := make([]T, len(s))
		for i := 0; i < len(s); i++ {
			units[i] = T(s[i])
		}
		return units, nil
	case 2:
		b, err := utf16le.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil, errors.Wrap(err, "text: utf-16 encode")
		}
		units := make([]T, len(b)/2)
		for i := range units {
			units[i] = T(binary.LittleEndian.Uint16(b[2*i:]))
		}
		return units, nil
	default:
		runes := []rune(s)
		units := make([]T, len(runes))
		for i, r := range runes {
			units[i] = T(r)
		}
		return units, nil
	}
}

func decode[T CodeUnit](units []T) (string, error) {
	var z T
	switch unsafe.Sizeof(z) {
	case 1:
		b := make([]byte, len(units))
		for i, u := range units {
			b[i] = byte(u)
		}
		return string(b), nil
	case 2:
		b := make([]byte, 2*len(units))
		for i, u := range units {
			binary.LittleEndian.PutUint16(b[2*i:], uint16(u))
		}
		res, err := utf16le.NewDecoder().Bytes(b)
		if err != nil {
			return "", errors.Wrap(err, "text: utf-16 decode")
		}
		return string(res), nil
	default:
		runes := make([]rune, len(units))
		for i, u := range units {
			runes[i] = rune(u)
		}
		return string(runes), nil
	}
}
