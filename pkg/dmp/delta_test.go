package dmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreseekdev/cordage/pkg/rope"
)

func TestDelta_RoundTrip(t *testing.T) {
	diffs := DiffText("abc", "axc")
	delta := ToDelta(diffs)
	assert.Equal(t, "=1\t-1\t+x\t=1", delta)

	parsed, err := FromDelta(rope.FromString("abc"), delta)
	require.NoError(t, err)
	assert.True(t, DiffsEqual(diffs, parsed))
}

func TestDelta_SpecialCharacters(t *testing.T) {
	diffs := []Diff[rune]{
		d(OpEqual, "ڀ \x00 \t %"),
		d(OpDelete, "ځ \x01 \n ^"),
		d(OpInsert, "ڂ \x02 \\ |"),
	}
	source := Source(diffs)
	delta := ToDelta(diffs)

	parsed, err := FromDelta(source, delta)
	require.NoError(t, err)
	assert.True(t, DiffsEqual(diffs, parsed))
}

func TestDelta_PlusSignQuirk(t *testing.T) {
	// Inserted '+' travels literally and survives the round trip.
	diffs := []Diff[rune]{d(OpInsert, "a+b +c")}
	delta := ToDelta(diffs)
	assert.Equal(t, "+a+b +c", delta)

	parsed, err := FromDelta(rope.Empty[rune](), delta)
	require.NoError(t, err)
	assert.Equal(t, "a+b +c", rope.Text(parsed[0].Items))
}

func TestDelta_InvalidInputs(t *testing.T) {
	source := rope.FromString("abcdef")

	// Delta shorter than the source.
	_, err := FromDelta(source, "=4")
	assert.ErrorIs(t, err, ErrInvalidDelta)

	// Delta overruns the source.
	_, err = FromDelta(source, "=9")
	assert.ErrorIs(t, err, ErrInvalidDelta)

	// Negative count.
	_, err = FromDelta(source, "=-3")
	assert.ErrorIs(t, err, ErrInvalidDelta)

	// Non-integer count.
	_, err = FromDelta(source, "=x")
	assert.ErrorIs(t, err, ErrInvalidDelta)

	// Unknown operation prefix.
	_, err = FromDelta(source, "?6")
	assert.ErrorIs(t, err, ErrInvalidDelta)
}

func TestDelta_SharesSourceBuffers(t *testing.T) {
	// Equal and delete runs are slices of the source; the diff parsed
	// from those slices must rebuild the same target. The sharing itself
	// is not observed here.
	source := rope.FromString("The quick brown fox jumps over the lazy dog")
	diffs := DiffText("The quick brown fox jumps over the lazy dog",
		"The quick red fox jumps over the happy dog")
	delta := ToDelta(diffs)

	parsed, err := FromDelta(source, delta)
	require.NoError(t, err)
	assert.Equal(t, rope.Text(Target(diffs)), rope.Text(Target(parsed)))
}
