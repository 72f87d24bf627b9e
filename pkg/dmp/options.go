package dmp

import (
	"time"

	"github.com/coreseekdev/cordage/pkg/rope"
)

// DiffOptions configures the diff engine. Option values are immutable;
// pass them by value.
type DiffOptions[E comparable] struct {
	// Timeout bounds the diff computation. Zero or negative means
	// unlimited; unlimited time also disables the half-match
	// heuristic so the output stays optimal.
	Timeout time.Duration

	// EditCost is the equality-length threshold used by the
	// efficiency cleanup.
	EditCost int

	// Chunking enables the chunk-level pre-pass on inputs longer
	// than 100 elements. ChunkSeparator must be non-empty when set.
	Chunking bool

	// ChunkSeparator delimits chunks for the chunk-level pre-pass.
	ChunkSeparator *rope.Rope[E]

	// Classes scores edit boundaries during the lossless semantic
	// cleanup. Nil disables scoring; cleanup stays correct but the
	// cosmetic alignment to boundaries is lost.
	Classes Classifier[E]
}

// DefaultOptions returns the generic defaults: 500ms timeout, edit
// cost 4, chunking off.
func DefaultOptions[E comparable]() DiffOptions[E] {
	return DiffOptions[E]{
		Timeout:  500 * time.Millisecond,
		EditCost: 4,
	}
}

// TextOptions returns the rune-text defaults: 500ms timeout, edit cost
// 4, chunking on with a newline separator, Unicode boundary scoring.
func TextOptions() DiffOptions[rune] {
	opts := DefaultOptions[rune]()
	opts.Chunking = true
	opts.ChunkSeparator = rope.FromString("\n")
	opts.Classes = RuneClasses{}
	return opts
}

// MatchOptions configures the Bitap matcher.
type MatchOptions struct {
	// Threshold is the highest score still considered a match
	// (0.0 exact, 1.0 anything).
	Threshold float64

	// Distance divides the location penalty. Zero demands matches at
	// the exact expected location.
	Distance int
}

// DefaultMatchOptions returns threshold 0.5, distance 1000.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{Threshold: 0.5, Distance: 1000}
}

// PatchOptions configures patch creation and application.
type PatchOptions[E comparable] struct {
	// Margin is the context chunk size carried around each patch.
	Margin int

	// MaxLen caps the length of a patch's source pattern so the
	// Bitap matcher's bit-width is respected; oversized patches are
	// split before application.
	MaxLen int

	// DeleteThreshold bounds how loose a match may be when deleting
	// a large region: above it the patch is rejected.
	DeleteThreshold float64

	// Padding is the synthetic element run added to both ends of the
	// text and the edge patches during application so edits near the
	// boundaries can match. Nil disables padding. Its length should
	// equal Margin and its values should not occur in real content.
	Padding []E

	// Match configures the Bitap searches used to locate patches.
	Match MatchOptions
}

// DefaultPatchOptions returns margin 4, max length MaxBits, delete
// threshold 0.5 and no padding.
func DefaultPatchOptions[E comparable]() PatchOptions[E] {
	return PatchOptions[E]{
		Margin:          4,
		MaxLen:          MaxBits,
		DeleteThreshold: 0.5,
		Match:           DefaultMatchOptions(),
	}
}

// TextPatchOptions returns the rune-text defaults, padding with the
// control runes 1..margin as the reference implementation does.
func TextPatchOptions() PatchOptions[rune] {
	opts := DefaultPatchOptions[rune]()
	opts.Padding = []rune{1, 2, 3, 4}
	return opts
}
