package dmp

import (
	"time"

	"github.com/clipperhouse/uax29/words"

	"github.com/coreseekdev/cordage/pkg/rope"
)

// Chunk-level diff speedup: distinct chunks (separator-terminated
// runs) are mapped to unique codes, the codes are diffed, and the code
// diff is expanded back to chunk content and refined at element level.

const (
	// maxChunksText1 is the number of codes reserved for the first
	// text; the remainder up to maxChunks serves the second.
	maxChunksText1 = 40000
	maxChunks      = 65535
)

// chunkTable maps chunk content to dense uint32 codes. Lookup is by
// content hash with an equality check, so generic element types need
// no string conversion.
type chunkTable[E comparable] struct {
	chunks  []*rope.Rope[E]
	buckets map[uint64][]uint32
}

func newChunkTable[E comparable]() *chunkTable[E] {
	return &chunkTable[E]{buckets: make(map[uint64][]uint32)}
}

func (t *chunkTable[E]) code(c *rope.Rope[E]) uint32 {
	h := c.Hash()
	for _, id := range t.buckets[h] {
		if t.chunks[id].Equal(c) {
			return id
		}
	}
	id := uint32(len(t.chunks))
	t.chunks = append(t.chunks, c)
	t.buckets[h] = append(t.buckets[h], id)
	return id
}

// encodeChunks converts text into its code sequence, registering new
// chunks in the table until maxCodes is reached; past the limit the
// remainder of the text is treated as one final chunk.
func encodeChunks[E comparable](text, sep *rope.Rope[E], table *chunkTable[E], maxCodes int) *rope.Rope[uint32] {
	b := rope.NewBuilder[uint32]()
	pos := 0
	n := text.Len()
	for pos < n {
		end := n
		if idx := text.IndexFrom(sep, pos); idx != -1 {
			end = idx + sep.Len()
		}
		if len(table.chunks) >= maxCodes-1 && end < n {
			// Code space exhausted: the rest is a single chunk.
			end = n
		}
		b.AppendElement(table.code(sub(text, pos, end-pos)))
		pos = end
	}
	return b.Build()
}

// decodeChunks expands a code rope back to element content.
func decodeChunks[E comparable](codes *rope.Rope[uint32], table *chunkTable[E]) *rope.Rope[E] {
	b := rope.NewBuilder[E]()
	it := codes.Iter()
	for it.Next() {
		b.AppendRope(table.chunks[it.Current()])
	}
	return b.Build()
}

// chunkDiff runs the quick chunk-level pass: diff the coded texts,
// expand, clean up, and rediff every replacement span at element level
// with chunking disabled.
func (d *differ[E]) chunkDiff(text1, text2 *rope.Rope[E]) []Diff[E] {
	table := newChunkTable[E]()
	codes1 := encodeChunks(text1, d.opts.ChunkSeparator, table, maxChunksText1)
	codes2 := encodeChunks(text2, d.opts.ChunkSeparator, table, maxChunks)

	cd := &differ[uint32]{
		opts: DiffOptions[uint32]{
			Timeout:  d.opts.Timeout,
			EditCost: d.opts.EditCost,
		},
		deadline: d.deadline,
		ctx:      d.ctx,
	}
	codeDiffs := cd.main(codes1, codes2, false)

	diffs := make([]Diff[E], 0, len(codeDiffs))
	for _, cdiff := range codeDiffs {
		diffs = append(diffs, Diff[E]{cdiff.Op, decodeChunks(cdiff.Items, table)})
	}
	diffs = d.cleanupSemantic(diffs)

	// Rediff the replacement blocks element by element. A sentinel
	// equality keeps the loop shape simple and is stripped after.
	diffs = append(diffs, Diff[E]{OpEqual, rope.Empty[E]()})
	pointer := 0
	countDelete, countInsert := 0, 0
	textDelete := rope.Empty[E]()
	textInsert := rope.Empty[E]()
	for pointer < len(diffs) {
		switch diffs[pointer].Op {
		case OpInsert:
			countInsert++
			textInsert = textInsert.Concat(diffs[pointer].Items)
		case OpDelete:
			countDelete++
			textDelete = textDelete.Concat(diffs[pointer].Items)
		case OpEqual:
			if countDelete >= 1 && countInsert >= 1 {
				diffs = splice(diffs, pointer-countDelete-countInsert, countDelete+countInsert)
				pointer = pointer - countDelete - countInsert
				refined := d.main(textDelete, textInsert, false)
				diffs = splice(diffs, pointer, 0, refined...)
				pointer += len(refined)
			}
			countInsert, countDelete = 0, 0
			textDelete = rope.Empty[E]()
			textInsert = rope.Empty[E]()
		}
		pointer++
	}
	return diffs[:len(diffs)-1]
}

// DiffWords diffs two texts word by word: Unicode word segmentation
// (UAX #29) feeds the chunk coding pass instead of a separator scan.
// The result stays at word granularity: replacement spans are not
// re-diffed at rune level.
func DiffWords(text1, text2 string, opts DiffOptions[rune]) []Diff[rune] {
	d := &differ[rune]{opts: opts}
	if opts.Timeout > 0 {
		d.deadline = time.Now().Add(opts.Timeout)
	}
	table := newChunkTable[rune]()
	codes1 := encodeWords(text1, table, maxChunksText1)
	codes2 := encodeWords(text2, table, maxChunks)

	cd := &differ[uint32]{
		opts:     DiffOptions[uint32]{Timeout: opts.Timeout, EditCost: opts.EditCost},
		deadline: d.deadline,
	}
	codeDiffs := cd.main(codes1, codes2, false)

	diffs := make([]Diff[rune], 0, len(codeDiffs))
	for _, cdiff := range codeDiffs {
		diffs = append(diffs, Diff[rune]{cdiff.Op, decodeChunks(cdiff.Items, table)})
	}
	diffs = d.cleanupSemantic(diffs)
	return d.cleanupMerge(diffs)
}

// encodeWords registers each UAX #29 word segment as a chunk.
func encodeWords(text string, table *chunkTable[rune], maxCodes int) *rope.Rope[uint32] {
	b := rope.NewBuilder[uint32]()
	segments := words.SegmentAllString(text)
	for i, seg := range segments {
		if len(table.chunks) >= maxCodes-1 && i < len(segments)-1 {
			rest := seg
			for _, more := range segments[i+1:] {
				rest += more
			}
			b.AppendElement(table.code(rope.FromString(rest)))
			break
		}
		b.AppendElement(table.code(rope.FromString(seg)))
	}
	return b.Build()
}
