package editing

import "unicode/utf16"

// Pages address text in UTF-16 code units, as textarea selectionStart and
// String.length do. The buffer addresses runes. These helpers convert at
// the boundary.

func unitLen(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

// UTF16Len is the length of s in UTF-16 code units.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += unitLen(r)
	}
	return n
}

// RuneOffset converts a UTF-16 offset into s to a rune offset. An offset
// that splits a surrogate pair rounds down to the start of the pair.
func RuneOffset(s string, units int) int {
	runes, u := 0, 0
	for _, r := range s {
		w := unitLen(r)
		if u+w > units {
			break
		}
		u += w
		runes++
	}
	return runes
}

// UTF16Offset converts a rune offset into s to a UTF-16 offset.
func UTF16Offset(s string, runes int) int {
	u, i := 0, 0
	for _, r := range s {
		if i >= runes {
			break
		}
		u += unitLen(r)
		i++
	}
	return u
}

// FromUTF16 converts a state whose selection is in UTF-16 units to runes.
func FromUTF16(s State) State {
	s.Start = RuneOffset(s.Text, s.Start)
	s.End = RuneOffset(s.Text, s.End)
	return s
}

// ToUTF16 converts a rune-addressed state to UTF-16 units.
func ToUTF16(s State) State {
	s.Start = UTF16Offset(s.Text, s.Start)
	s.End = UTF16Offset(s.Text, s.End)
	return s
}
