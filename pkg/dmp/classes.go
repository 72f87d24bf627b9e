package dmp

import (
	"unicode"

	"github.com/coreseekdev/cordage/pkg/rope"
)

// Classifier is the character-class oracle consulted when scoring edit
// boundaries in the lossless semantic cleanup. For non-text element
// types there is usually no meaningful classification; a nil
// classifier scores every boundary 0 and the cleanup degenerates to
// the edge preference only.
type Classifier[E comparable] interface {
	IsLetterOrDigit(e E) bool
	IsWhitespace(e E) bool
	IsControl(e E) bool

	// IsBlankLineEnd reports whether tail (the final elements of a
	// run) ends a blank line.
	IsBlankLineEnd(tail []E) bool

	// IsBlankLineStart reports whether head (the first elements of a
	// run) starts with a blank line.
	IsBlankLineStart(head []E) bool
}

// RuneClasses classifies runes with the locale-free Unicode tables.
type RuneClasses struct{}

func (RuneClasses) IsLetterOrDigit(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (RuneClasses) IsWhitespace(r rune) bool { return unicode.IsSpace(r) }
func (RuneClasses) IsControl(r rune) bool    { return unicode.IsControl(r) }

func (RuneClasses) IsBlankLineEnd(tail []rune) bool {
	return hasSuffix(tail, "\n\n") || hasSuffix(tail, "\n\r\n")
}

func (RuneClasses) IsBlankLineStart(head []rune) bool {
	return hasPrefix(head, "\r\n\r\n") || hasPrefix(head, "\n\n") ||
		hasPrefix(head, "\r\n\n") || hasPrefix(head, "\n\r\n")
}

func hasSuffix(rs []rune, s string) bool {
	pat := []rune(s)
	if len(rs) < len(pat) {
		return false
	}
	off := len(rs) - len(pat)
	for i, c := range pat {
		if rs[off+i] != c {
			return false
		}
	}
	return true
}

func hasPrefix(rs []rune, s string) bool {
	pat := []rune(s)
	if len(rs) < len(pat) {
		return false
	}
	for i, c := range pat {
		if rs[i] != c {
			return false
		}
	}
	return true
}

// semanticScore rates the boundary between two runs from 6 (best: an
// edge) down to 0 (worst: mid-word). The table follows the reference
// algorithm: 5 blank line, 4 line break, 3 end of sentence, 2
// whitespace, 1 non-alphanumeric.
func semanticScore[E comparable](one, two *rope.Rope[E], cls Classifier[E]) int {
	if one.Len() == 0 || two.Len() == 0 {
		return 6
	}
	if cls == nil {
		return 0
	}
	last, _ := one.At(one.Len() - 1)
	first, _ := two.At(0)

	nonAlnum1 := !cls.IsLetterOrDigit(last)
	nonAlnum2 := !cls.IsLetterOrDigit(first)
	ws1 := nonAlnum1 && cls.IsWhitespace(last)
	ws2 := nonAlnum2 && cls.IsWhitespace(first)
	lineBreak1 := ws1 && cls.IsControl(last)
	lineBreak2 := ws2 && cls.IsControl(first)
	blankLine1 := lineBreak1 && cls.IsBlankLineEnd(tailOf(one, 3))
	blankLine2 := lineBreak2 && cls.IsBlankLineStart(headOf(two, 4))

	switch {
	case blankLine1 || blankLine2:
		return 5
	case lineBreak1 || lineBreak2:
		return 4
	case nonAlnum1 && !ws1 && ws2:
		return 3
	case ws1 || ws2:
		return 2
	case nonAlnum1 || nonAlnum2:
		return 1
	}
	return 0
}

func tailOf[E comparable](r *rope.Rope[E], n int) []E {
	if r.Len() < n {
		n = r.Len()
	}
	return sub(r, r.Len()-n, n).ToSlice()
}

func headOf[E comparable](r *rope.Rope[E], n int) []E {
	if r.Len() < n {
		n = r.Len()
	}
	return sub(r, 0, n).ToSlice()
}
