// Package dmp implements a diff, fuzzy match and patch engine operating
// directly on ropes.
//
// The diff side is the Myers bisect algorithm with the usual speedups
// (affix trimming, containment, half-match, chunk-level pre-pass) and
// semantic/efficiency cleanup passes. Matching is a Bitap fuzzy search
// near an expected offset. Patches carry rolling context so they can be
// applied to drifted text, with per-patch success reporting.
//
// All entry points are generic over the rope element type. The
// canonical specialization is rune text: see DiffText, TextOptions and
// the delta/patch wire codecs, which are defined for rune ropes.
//
// Because ropes share subtrees, the intermediate slicing and stitching
// performed by the engine does not copy element buffers.
package dmp

import (
	"github.com/coreseekdev/cordage/pkg/rope"
)

// Op is a diff operation.
type Op int8

const (
	// OpDelete marks items present in the source but not the target.
	OpDelete Op = -1
	// OpEqual marks items present in both.
	OpEqual Op = 0
	// OpInsert marks items present in the target but not the source.
	OpInsert Op = 1
)

// String renders the operation for debugging.
func (op Op) String() string {
	switch op {
	case OpDelete:
		return "Delete"
	case OpInsert:
		return "Insert"
	case OpEqual:
		return "Equal"
	}
	return "Op(?)"
}

// Diff is one step of an edit script: an operation and the items it
// covers.
type Diff[E comparable] struct {
	Op    Op
	Items *rope.Rope[E]
}

// Equal reports structural equality with other.
func (d Diff[E]) Equal(other Diff[E]) bool {
	return d.Op == other.Op && d.Items.Equal(other.Items)
}

// DiffsEqual reports elementwise equality of two diff sequences.
func DiffsEqual[E comparable](a, b []Diff[E]) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Source reconstructs the source rope of a diff sequence (equalities
// and deletions).
func Source[E comparable](diffs []Diff[E]) *rope.Rope[E] {
	b := rope.NewBuilder[E]()
	for _, d := range diffs {
		if d.Op != OpInsert {
			b.AppendRope(d.Items)
		}
	}
	return b.Build()
}

// Target reconstructs the target rope of a diff sequence (equalities
// and insertions).
func Target[E comparable](diffs []Diff[E]) *rope.Rope[E] {
	b := rope.NewBuilder[E]()
	for _, d := range diffs {
		if d.Op != OpDelete {
			b.AppendRope(d.Items)
		}
	}
	return b.Build()
}

// Levenshtein computes the edit distance of a diff sequence: a paired
// deletion and insertion counts as one substitution.
func Levenshtein[E comparable](diffs []Diff[E]) int {
	distance := 0
	insertions := 0
	deletions := 0
	for _, d := range diffs {
		switch d.Op {
		case OpInsert:
			insertions += d.Items.Len()
		case OpDelete:
			deletions += d.Items.Len()
		case OpEqual:
			distance += maxInt(insertions, deletions)
			insertions = 0
			deletions = 0
		}
	}
	return distance + maxInt(insertions, deletions)
}

// XIndex translates a source position through a diff sequence to the
// equivalent target position. Positions inside a deletion map to the
// deletion point.
func XIndex[E comparable](diffs []Diff[E], loc int) int {
	chars1 := 0
	chars2 := 0
	lastChars1 := 0
	lastChars2 := 0
	var lastDiff *Diff[E]
	for i := range diffs {
		d := &diffs[i]
		if d.Op != OpInsert {
			chars1 += d.Items.Len()
		}
		if d.Op != OpDelete {
			chars2 += d.Items.Len()
		}
		if chars1 > loc {
			lastDiff = d
			break
		}
		lastChars1 = chars1
		lastChars2 = chars2
	}
	if lastDiff != nil && lastDiff.Op == OpDelete {
		return lastChars2
	}
	return lastChars2 + (loc - lastChars1)
}

// splice removes amount entries of diffs at index and inserts items in
// their place. It works in place when len(items) equals amount and
// builds a new slice otherwise.
func splice[E comparable](diffs []Diff[E], index, amount int, items ...Diff[E]) []Diff[E] {
	if len(items) == amount {
		copy(diffs[index:], items)
		return diffs
	}
	out := make([]Diff[E], 0, len(diffs)-amount+len(items))
	out = append(out, diffs[:index]...)
	out = append(out, items...)
	out = append(out, diffs[index+amount:]...)
	return out
}

// sub slices a rope with internally computed, known-good bounds.
func sub[E comparable](r *rope.Rope[E], start, length int) *rope.Rope[E] {
	s, _ := r.Slice(start, length)
	return s
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
