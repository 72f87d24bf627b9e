package dmp

import (
	"context"
	"time"

	"github.com/coreseekdev/cordage/pkg/rope"
)

// DiffMain computes the edit script turning text1 into text2.
//
// The result is a left-to-right sequence of Delete, Equal and Insert
// steps whose Source is text1 and whose Target is text2. When the
// options carry a timeout the computation degrades gracefully: on
// expiry the remaining region is emitted as one coarse delete/insert
// pair, never an error.
func DiffMain[E comparable](text1, text2 *rope.Rope[E], opts DiffOptions[E]) []Diff[E] {
	return DiffMainContext(context.Background(), text1, text2, opts)
}

// DiffMainContext is DiffMain with cooperative cancellation. The
// context deadline and the option timeout are merged; cancellation
// coarsens the result exactly like a timeout.
func DiffMainContext[E comparable](ctx context.Context, text1, text2 *rope.Rope[E], opts DiffOptions[E]) []Diff[E] {
	d := &differ[E]{opts: opts, ctx: ctx}
	if opts.Timeout > 0 {
		d.deadline = time.Now().Add(opts.Timeout)
	}
	return d.main(orEmptyRope(text1), orEmptyRope(text2), opts.Chunking)
}

// differ carries the options and the deadline through the recursion.
type differ[E comparable] struct {
	opts     DiffOptions[E]
	deadline time.Time
	ctx      context.Context
}

// expired reports whether the deadline passed or the context was
// cancelled. Polled at the start of every iteration of the bisect
// outer loop, so each bisect call checks it before doing any work.
func (d *differ[E]) expired() bool {
	if d.ctx != nil && d.ctx.Err() != nil {
		return true
	}
	return !d.deadline.IsZero() && time.Now().After(d.deadline)
}

// main diffs two ropes: equality short-circuit, affix trimming, middle
// computation, affix restore, merge cleanup.
func (d *differ[E]) main(text1, text2 *rope.Rope[E], chunking bool) []Diff[E] {
	if text1.Equal(text2) {
		if text1.Len() > 0 {
			return []Diff[E]{{OpEqual, text1}}
		}
		return nil
	}

	prefixLen := text1.CommonPrefixLen(text2)
	prefix := sub(text1, 0, prefixLen)
	text1 = sub(text1, prefixLen, text1.Len()-prefixLen)
	text2 = sub(text2, prefixLen, text2.Len()-prefixLen)

	suffixLen := text1.CommonSuffixLen(text2)
	suffix := sub(text1, text1.Len()-suffixLen, suffixLen)
	text1 = sub(text1, 0, text1.Len()-suffixLen)
	text2 = sub(text2, 0, text2.Len()-suffixLen)

	diffs := d.compute(text1, text2, chunking)

	if prefix.Len() > 0 {
		diffs = append([]Diff[E]{{OpEqual, prefix}}, diffs...)
	}
	if suffix.Len() > 0 {
		diffs = append(diffs, Diff[E]{OpEqual, suffix})
	}
	return d.cleanupMerge(diffs)
}

// compute diffs two ropes known to share no common affix.
func (d *differ[E]) compute(text1, text2 *rope.Rope[E], chunking bool) []Diff[E] {
	if text1.Len() == 0 {
		return []Diff[E]{{OpInsert, text2}}
	}
	if text2.Len() == 0 {
		return []Diff[E]{{OpDelete, text1}}
	}

	long, short := text1, text2
	if long.Len() < short.Len() {
		long, short = short, long
	}
	if i := long.Index(short); i != -1 {
		op := OpInsert
		if text1.Len() > text2.Len() {
			op = OpDelete
		}
		return []Diff[E]{
			{op, sub(long, 0, i)},
			{OpEqual, short},
			{op, sub(long, i+short.Len(), long.Len()-i-short.Len())},
		}
	}
	if short.Len() == 1 {
		// After the containment check the single element cannot be
		// an equality.
		return []Diff[E]{{OpDelete, text1}, {OpInsert, text2}}
	}

	if hm := d.halfMatch(text1, text2); hm != nil {
		diffsA := d.main(hm.prefix1, hm.prefix2, chunking)
		diffsB := d.main(hm.suffix1, hm.suffix2, chunking)
		diffs := append(diffsA, Diff[E]{OpEqual, hm.common})
		return append(diffs, diffsB...)
	}

	if chunking && text1.Len() > 100 && text2.Len() > 100 &&
		d.opts.ChunkSeparator.Len() > 0 {
		return d.chunkDiff(text1, text2)
	}
	return d.bisect(text1, text2)
}

// halfMatch holds the five pieces of a successful half-match probe.
type halfMatchResult[E comparable] struct {
	prefix1, suffix1 *rope.Rope[E]
	prefix2, suffix2 *rope.Rope[E]
	common           *rope.Rope[E]
}

// halfMatch looks for a common run of at least half the longer input.
// Skipped entirely under unlimited time, where the non-optimal
// shortcut is not worth taking.
func (d *differ[E]) halfMatch(text1, text2 *rope.Rope[E]) *halfMatchResult[E] {
	if d.opts.Timeout <= 0 {
		return nil
	}
	// On a length tie text2 is the long side, so the swap on return
	// (keyed on text1 being strictly longer) stays consistent.
	long, short := text1, text2
	if long.Len() <= short.Len() {
		long, short = short, long
	}
	if long.Len() < 4 || short.Len()*2 < long.Len() {
		return nil
	}

	// Probe the second quarter and the third quarter.
	hm1 := halfMatchAt(long, short, (long.Len()+3)/4)
	hm2 := halfMatchAt(long, short, (long.Len()+1)/2)
	var hm *halfMatchResult[E]
	switch {
	case hm1 == nil && hm2 == nil:
		return nil
	case hm2 == nil:
		hm = hm1
	case hm1 == nil:
		hm = hm2
	case hm1.common.Len() > hm2.common.Len():
		hm = hm1
	default:
		hm = hm2
	}

	if text1.Len() > text2.Len() {
		return hm
	}
	return &halfMatchResult[E]{
		prefix1: hm.prefix2, suffix1: hm.suffix2,
		prefix2: hm.prefix1, suffix2: hm.suffix1,
		common: hm.common,
	}
}

// halfMatchAt seeds a quarter-length window of long at position i and
// extends every occurrence of the seed in short by common affixes,
// keeping the longest total. Accepted only when the common run covers
// half of long.
func halfMatchAt[E comparable](long, short *rope.Rope[E], i int) *halfMatchResult[E] {
	seed := sub(long, i, long.Len()/4)
	best := -1
	var bestCommon *rope.Rope[E]
	var bestLongA, bestLongB, bestShortA, bestShortB *rope.Rope[E]

	for j := short.IndexFrom(seed, 0); j != -1; j = short.IndexFrom(seed, j+1) {
		prefixLen := sub(long, i, long.Len()-i).CommonPrefixLen(sub(short, j, short.Len()-j))
		suffixLen := sub(long, 0, i).CommonSuffixLen(sub(short, 0, j))
		if best < suffixLen+prefixLen {
			best = suffixLen + prefixLen
			bestCommon = sub(short, j-suffixLen, suffixLen).Concat(sub(short, j, prefixLen))
			bestLongA = sub(long, 0, i-suffixLen)
			bestLongB = sub(long, i+prefixLen, long.Len()-i-prefixLen)
			bestShortA = sub(short, 0, j-suffixLen)
			bestShortB = sub(short, j+prefixLen, short.Len()-j-prefixLen)
		}
	}
	if bestCommon.Len()*2 < long.Len() {
		return nil
	}
	return &halfMatchResult[E]{
		prefix1: bestLongA, suffix1: bestLongB,
		prefix2: bestShortA, suffix2: bestShortB,
		common: bestCommon,
	}
}

// bisect finds the middle snake per Myers and recurses on both halves.
// On deadline expiry the remaining region degrades to one
// delete/insert pair.
func (d *differ[E]) bisect(text1, text2 *rope.Rope[E]) []Diff[E] {
	runes1 := text1.ToSlice()
	runes2 := text2.ToSlice()
	len1, len2 := len(runes1), len(runes2)
	maxD := (len1 + len2 + 1) / 2
	vOffset := maxD
	vLength := 2 * maxD
	v1 := make([]int, vLength)
	v2 := make([]int, vLength)
	for i := range v1 {
		v1[i] = -1
		v2[i] = -1
	}
	v1[vOffset+1] = 0
	v2[vOffset+1] = 0
	delta := len1 - len2
	// With an odd total the forward path collides with the reverse.
	front := delta%2 != 0
	k1start, k1end := 0, 0
	k2start, k2end := 0, 0

	for dd := 0; dd < maxD; dd++ {
		if d.expired() {
			break
		}
		// Forward path.
		for k1 := -dd + k1start; k1 <= dd-k1end; k1 += 2 {
			k1Offset := vOffset + k1
			var x1 int
			if k1 == -dd || (k1 != dd && v1[k1Offset-1] < v1[k1Offset+1]) {
				x1 = v1[k1Offset+1]
			} else {
				x1 = v1[k1Offset-1] + 1
			}
			y1 := x1 - k1
			for x1 < len1 && y1 < len2 && runes1[x1] == runes2[y1] {
				x1++
				y1++
			}
			v1[k1Offset] = x1
			if x1 > len1 {
				k1end += 2
			} else if y1 > len2 {
				k1start += 2
			} else if front {
				k2Offset := vOffset + delta - k1
				if k2Offset >= 0 && k2Offset < vLength && v2[k2Offset] != -1 {
					x2 := len1 - v2[k2Offset]
					if x1 >= x2 {
						return d.bisectSplit(text1, text2, x1, y1)
					}
				}
			}
		}
		// Reverse path.
		for k2 := -dd + k2start; k2 <= dd-k2end; k2 += 2 {
			k2Offset := vOffset + k2
			var x2 int
			if k2 == -dd || (k2 != dd && v2[k2Offset-1] < v2[k2Offset+1]) {
				x2 = v2[k2Offset+1]
			} else {
				x2 = v2[k2Offset-1] + 1
			}
			y2 := x2 - k2
			for x2 < len1 && y2 < len2 && runes1[len1-x2-1] == runes2[len2-y2-1] {
				x2++
				y2++
			}
			v2[k2Offset] = x2
			if x2 > len1 {
				k2end += 2
			} else if y2 > len2 {
				k2start += 2
			} else if !front {
				k1Offset := vOffset + delta - k2
				if k1Offset >= 0 && k1Offset < vLength && v1[k1Offset] != -1 {
					x1 := v1[k1Offset]
					y1 := vOffset + x1 - k1Offset
					x2 = len1 - x2
					if x1 >= x2 {
						return d.bisectSplit(text1, text2, x1, y1)
					}
				}
			}
		}
	}
	// Deadline hit, or no commonality at all.
	return []Diff[E]{{OpDelete, text1}, {OpInsert, text2}}
}

// bisectSplit splits at the overlap coordinate and diffs both halves
// with chunking disabled.
func (d *differ[E]) bisectSplit(text1, text2 *rope.Rope[E], x, y int) []Diff[E] {
	diffsA := d.main(sub(text1, 0, x), sub(text2, 0, y), false)
	diffsB := d.main(sub(text1, x, text1.Len()-x), sub(text2, y, text2.Len()-y), false)
	return append(diffsA, diffsB...)
}
