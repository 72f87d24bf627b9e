package dmp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreseekdev/cordage/pkg/rope"
)

func TestMatch_Shortcuts(t *testing.T) {
	// Identical text and pattern.
	assert.Equal(t, 0, MatchText("abcdef", "abcdef", 1000))

	// Empty text.
	assert.Equal(t, -1, MatchText("", "abcdef", 1))

	// Empty pattern matches at the expected location.
	assert.Equal(t, 3, MatchText("abcdef", "", 3))

	// Exact match at the expected spot.
	assert.Equal(t, 3, MatchText("abcdefghijk", "de", 3))
}

func TestMatch_ExactElsewhere(t *testing.T) {
	assert.Equal(t, 0, MatchText("abcdef", "ab", 4))
	assert.Equal(t, 4, MatchText("abcdcdef", "cdef", 1))
}

func TestMatch_FuzzyHit(t *testing.T) {
	// Near misses (one substitution; a substitution plus an insertion)
	// still match; a pattern that is mostly wrong does not.
	assert.Equal(t, 4, MatchText("abcdefghijk", "efxhi", 5))
	assert.Equal(t, 2, MatchText("abcdefghijk", "cdefxyhijk", 5))
	assert.Equal(t, -1, MatchText("abcdefghijk", "bxy", 1))
}

func TestMatch_ThresholdRejects(t *testing.T) {
	opts := MatchOptions{Threshold: 0.0, Distance: 1000}
	text := rope.FromString("abcdefghijk")

	// With a zero threshold only perfect, perfectly placed matches
	// survive.
	assert.Equal(t, -1, MatchMain(text, rope.FromString("efxhi"), 5, opts))
	assert.Equal(t, 4, MatchMain(text, rope.FromString("efghi"), 4, opts))
}

func TestMatch_DistanceWeighting(t *testing.T) {
	text := rope.FromString("abcdefghijklmnopqrstuvwxyz 0123456789 abcdefghijklmnopqrstuvwxyz")

	// Strict distance: a far-away exact match is rejected.
	strict := MatchOptions{Threshold: 0.5, Distance: 10}
	assert.Equal(t, -1, MatchMain(text, rope.FromString("56789"), 1, strict))

	// Loose distance accepts it.
	loose := MatchOptions{Threshold: 0.5, Distance: 1000}
	assert.Equal(t, 32, MatchMain(text, rope.FromString("56789"), 1, loose))
}

func TestMatch_GenericElements(t *testing.T) {
	text := rope.New([]int{10, 20, 30, 40, 50, 60, 70})
	pattern := rope.New([]int{30, 40, 50})
	assert.Equal(t, 2, MatchMain(text, pattern, 0, DefaultMatchOptions()))
}

func TestMatch_OversizedPatternRejected(t *testing.T) {
	text := rope.FromString("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	pattern := rope.FromString("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaab")
	// 34 elements exceeds the bit width and cannot be scanned.
	assert.Equal(t, -1, MatchMain(text, pattern, 0, DefaultMatchOptions()))
}
