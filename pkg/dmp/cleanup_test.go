package dmp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreseekdev/cordage/pkg/rope"
)

func d(op Op, s string) Diff[rune] {
	return Diff[rune]{op, rope.FromString(s)}
}

func TestCleanupMerge_MergesLikeRuns(t *testing.T) {
	diffs := CleanupMerge([]Diff[rune]{
		d(OpEqual, "a"), d(OpEqual, "b"), d(OpEqual, "c"),
	})
	assert.Equal(t, []string{"Equal:abc"}, diffStrings(t, diffs))

	diffs = CleanupMerge([]Diff[rune]{
		d(OpDelete, "a"), d(OpInsert, "b"),
		d(OpDelete, "c"), d(OpInsert, "d"),
	})
	assert.Equal(t, []string{"Delete:ac", "Insert:bd"}, diffStrings(t, diffs))
}

func TestCleanupMerge_FactorsCommonAffixes(t *testing.T) {
	diffs := CleanupMerge([]Diff[rune]{
		d(OpDelete, "abc"), d(OpInsert, "abxc"),
	})
	assert.Equal(t,
		[]string{"Equal:ab", "Insert:x", "Equal:c"},
		diffStrings(t, diffs))
}

func TestCleanupMerge_ShiftsEditsAcrossEqualities(t *testing.T) {
	// A<ins>BA</ins>C -> <ins>AB</ins>AC
	diffs := CleanupMerge([]Diff[rune]{
		d(OpEqual, "a"), d(OpInsert, "ba"), d(OpEqual, "c"),
	})
	assert.Equal(t, []string{"Insert:ab", "Equal:ac"}, diffStrings(t, diffs))
}

func TestCleanupMerge_Idempotent(t *testing.T) {
	inputs := [][]Diff[rune]{
		{d(OpDelete, "abcxxx"), d(OpInsert, "xxxdef")},
		{d(OpEqual, "a"), d(OpDelete, "b"), d(OpEqual, "c"), d(OpInsert, "d")},
		{d(OpEqual, "x"), d(OpInsert, "yx"), d(OpEqual, "z")},
	}
	for _, in := range inputs {
		once := CleanupMerge(append([]Diff[rune]{}, in...))
		twice := CleanupMerge(append([]Diff[rune]{}, once...))
		assert.True(t, DiffsEqual(once, twice))
	}
}

func TestCleanupSemantic_DropsTrivialEqualities(t *testing.T) {
	diffs := CleanupSemantic([]Diff[rune]{
		d(OpDelete, "ab"), d(OpEqual, "cd"), d(OpDelete, "ef"),
	}, TextOptions())
	assert.Equal(t, []string{"Delete:abcdef", "Insert:cd"}, diffStrings(t, diffs))
}

func TestCleanupSemantic_ExtractsOverlap(t *testing.T) {
	diffs := CleanupSemantic([]Diff[rune]{
		d(OpDelete, "abcxxx"), d(OpInsert, "xxxdef"),
	}, TextOptions())
	assert.Equal(t,
		[]string{"Delete:abc", "Equal:xxx", "Insert:def"},
		diffStrings(t, diffs))
}

func TestCleanupSemantic_ReverseOverlap(t *testing.T) {
	diffs := CleanupSemantic([]Diff[rune]{
		d(OpDelete, "xxxabc"), d(OpInsert, "defxxx"),
	}, TextOptions())
	assert.Equal(t,
		[]string{"Insert:def", "Equal:xxx", "Delete:abc"},
		diffStrings(t, diffs))
}

func TestCleanupSemanticLossless_AlignsToWordBoundary(t *testing.T) {
	// The c<ins>at c</ins>ame. -> The <ins>cat </ins>came.
	diffs := CleanupSemanticLossless([]Diff[rune]{
		d(OpEqual, "The c"), d(OpInsert, "at c"), d(OpEqual, "ame."),
	}, TextOptions())
	assert.Equal(t,
		[]string{"Equal:The ", "Insert:cat ", "Equal:came."},
		diffStrings(t, diffs))
}

func TestCleanupSemanticLossless_PrefersTrailingNewline(t *testing.T) {
	diffs := CleanupSemanticLossless([]Diff[rune]{
		d(OpEqual, "AAA\r\n\r\nBBB"), d(OpInsert, "\r\nDDD"), d(OpEqual, "\r\nBBB"),
	}, TextOptions())
	assert.Equal(t,
		[]string{"Equal:AAA\r\n\r\nBBB\r\n", "Insert:DDD\r\n", "Equal:BBB"},
		diffStrings(t, diffs))
}

func TestCleanupSemanticLossless_NilClassifierStillCorrect(t *testing.T) {
	opts := DefaultOptions[rune]()
	in := []Diff[rune]{
		d(OpEqual, "The c"), d(OpInsert, "at c"), d(OpEqual, "ame."),
	}
	out := CleanupSemanticLossless(append([]Diff[rune]{}, in...), opts)
	// Without an oracle the shift is cosmetic only; both sides must
	// still reconstruct.
	assert.Equal(t, SourceText(in), SourceText(out))
	assert.Equal(t, TargetText(in), TargetText(out))
}

func TestCleanupEfficiency_CollapsesShortEqualities(t *testing.T) {
	diffs := CleanupEfficiency([]Diff[rune]{
		d(OpInsert, "ab"), d(OpDelete, "cd"),
		d(OpEqual, "12"),
		d(OpInsert, "wx"), d(OpDelete, "yz"),
	}, TextOptions())
	assert.Equal(t,
		[]string{"Delete:cd12yz", "Insert:ab12wx"},
		diffStrings(t, diffs))
}

func TestCleanupEfficiency_KeepsLongEqualities(t *testing.T) {
	diffs := CleanupEfficiency([]Diff[rune]{
		d(OpInsert, "ab"), d(OpDelete, "cd"),
		d(OpEqual, "12345678"),
		d(OpInsert, "wx"), d(OpDelete, "yz"),
	}, TextOptions())
	assert.Equal(t,
		[]string{"Insert:ab", "Delete:cd", "Equal:12345678", "Insert:wx", "Delete:yz"},
		diffStrings(t, diffs))
}
