package ircchat

import "unicode/utf8"

// ByteOffset converts an offset measured in codepoints into a byte offset into s.
// An offset equal to the number of codepoints in s maps to len(s).
// ok is false when cp is negative or past the end of s.
//
// Every multi-byte codepoint before cp moves the result right by its width minus one,
// so a supplementary-plane character shifts it by three bytes.
func ByteOffset(s string, cp int) (off int, ok bool) {
	if cp < 0 {
		return 0, false
	}
	n := 0
	for i := range s {
		if n == cp {
			return i, true
		}
		n++
	}
	if n == cp {
		return len(s), true
	}
	return 0, false
}

// UTF16Offset converts an offset measured in codepoints into an offset measured in
// UTF-16 code units, for consumers that index text the way UTF-16 platforms do.
// A supplementary-plane character before cp shifts the result by one.
func UTF16Offset(s string, cp int) (off int, ok bool) {
	if cp < 0 {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if n == cp {
			return off, true
		}
		n++
		if r >= 0x10000 && r <= utf8.MaxRune {
			off += 2
		} else {
			off++
		}
	}
	if n == cp {
		return off, true
	}
	return 0, false
}
