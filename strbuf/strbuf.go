// Package strbuf provides an append-only UTF-8 string for external scanners.
//
// Contents up to InlineCap bytes live inside the String value itself; the
// first write that exceeds it moves the contents to a heap buffer whose
// capacity doubles as needed. The move is one-way.
package strbuf

import "unicode/utf8"

// InlineCap is the largest length stored without a heap allocation.
const InlineCap = 12

// String is an append-only UTF-8 byte string. The zero value is empty and
// ready to use. A String must not be copied after its first heap write.
type String struct {
	small  [InlineCap]byte
	heap   []byte // len(heap) is the capacity
	length uint32
}

// New returns an empty String.
func New() String { return String{} }

// From returns a String holding a copy of b. A heap buffer, when needed, is
// sized to b exactly.
func From(b []byte) String {
	var s String
	s.length = uint32(len(b))
	if len(b) > InlineCap {
		s.heap = make([]byte, len(b))
		copy(s.heap, b)
	} else {
		copy(s.small[:], b)
	}
	return s
}

// Len returns the number of bytes written.
func (s *String) Len() int { return int(s.length) }

// Cap returns the number of bytes the current representation holds
// without growing.
func (s *String) Cap() int {
	if s.length > InlineCap {
		return len(s.heap)
	}
	return InlineCap
}

// IsInline reports whether the contents are stored in the value itself.
func (s *String) IsInline() bool { return s.length <= InlineCap }

// Bytes returns the contents. The slice aliases the String and is valid
// until the next Push or Delete.
func (s *String) Bytes() []byte {
	if s.length > InlineCap {
		return s.heap[:s.length]
	}
	return s.small[:s.length]
}

func (s *String) String() string { return string(s.Bytes()) }

// Push appends r encoded as UTF-8. Invalid code points are written as
// U+FFFD.
func (s *String) Push(r rune) {
	n := utf8.RuneLen(r)
	if n < 0 {
		r = utf8.RuneError
		n = utf8.RuneLen(r)
	}

	capacity := uint32(s.Cap())
	if s.length+uint32(n) > capacity {
		grown := make([]byte, capacity*2)
		copy(grown, s.Bytes())
		s.heap = grown
	}

	var dst []byte
	if s.heap != nil {
		dst = s.heap
	} else {
		dst = s.small[:]
	}
	utf8.EncodeRune(dst[s.length:], r)
	s.length += uint32(n)
}

// CharAt decodes the code point starting at byte offset i and returns it
// with the offset of the next one. At or past the end it returns -1 and i.
func (s *String) CharAt(i int) (rune, int) {
	if i < 0 || i >= int(s.length) {
		return -1, i
	}
	r, size := utf8.DecodeRune(s.Bytes()[i:])
	return r, i + size
}

// Runes decodes the whole contents.
func (s *String) Runes() []rune {
	out := make([]rune, 0, s.length)
	for i := 0; ; {
		r, next := s.CharAt(i)
		if r < 0 {
			return out
		}
		out = append(out, r)
		i = next
	}
}

// Equal compares lengths, then bytes.
func (s *String) Equal(other *String) bool {
	if s.length != other.length {
		return false
	}
	return string(s.Bytes()) == string(other.Bytes())
}

// Delete drops the heap buffer and empties the String.
func (s *String) Delete() {
	*s = String{}
}
