package dmp

import (
	"strings"

	"github.com/coreseekdev/cordage/pkg/rope"
)

// Text front-end: string-in, string-out conveniences over the generic
// engine, using the rune-text defaults.

// DiffText diffs two strings with TextOptions.
func DiffText(text1, text2 string) []Diff[rune] {
	return DiffMain(rope.FromString(text1), rope.FromString(text2), TextOptions())
}

// MakeTextPatches diffs two strings and packages the result as
// patches with the text defaults.
func MakeTextPatches(text1, text2 string) []Patch[rune] {
	return MakePatches(rope.FromString(text1), rope.FromString(text2),
		TextPatchOptions(), TextOptions())
}

// ApplyTextPatches applies patches to a string with the text defaults.
func ApplyTextPatches(patches []Patch[rune], text string) (string, []bool) {
	out, applied := ApplyPatches(patches, rope.FromString(text),
		TextPatchOptions(), TextOptions())
	return rope.Text(out), applied
}

// MatchText locates pattern in text near loc with the default match
// options.
func MatchText(text, pattern string, loc int) int {
	return MatchMain(rope.FromString(text), rope.FromString(pattern), loc,
		DefaultMatchOptions())
}

// PrettyText renders a diff with ANSI colors: deletions red,
// insertions green.
func PrettyText(diffs []Diff[rune]) string {
	var sb strings.Builder
	for _, d := range diffs {
		text := rope.Text(d.Items)
		switch d.Op {
		case OpInsert:
			sb.WriteString("\x1b[32m")
			sb.WriteString(text)
			sb.WriteString("\x1b[0m")
		case OpDelete:
			sb.WriteString("\x1b[31m")
			sb.WriteString(text)
			sb.WriteString("\x1b[0m")
		case OpEqual:
			sb.WriteString(text)
		}
	}
	return sb.String()
}

// SourceText and TargetText reconstruct the two sides of a text diff.
func SourceText(diffs []Diff[rune]) string { return rope.Text(Source(diffs)) }

// TargetText reconstructs the target side of a text diff.
func TargetText(diffs []Diff[rune]) string { return rope.Text(Target(diffs)) }
