package rope

import "strings"

// Text specialization helpers for Rope[rune].

// FromString creates a rune rope from a Go string.
func FromString(s string) *Rope[rune] {
	if s == "" {
		return Empty[rune]()
	}
	return New([]rune(s))
}

// Text renders a rune rope back to a Go string.
func Text(r *Rope[rune]) string {
	if r.Len() == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(r.Len())
	it := r.Chunks()
	for it.Next() {
		sb.WriteString(string(it.Current()))
	}
	return sb.String()
}

// FromBytes creates a byte rope from a byte slice.
func FromBytes(p []byte) *Rope[byte] {
	return New(p)
}

// Bytes renders a byte rope back to a byte slice.
func Bytes(r *Rope[byte]) []byte {
	return r.ToSlice()
}
