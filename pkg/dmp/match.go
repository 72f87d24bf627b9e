package dmp

import (
	"github.com/coreseekdev/cordage/pkg/rope"
)

// MaxBits is the widest pattern the Bitap masks can track. Patterns
// longer than this never match; the patch engine splits its patches
// so their patterns stay within the limit.
const MaxBits = 32

// MatchMain locates the best occurrence of pattern in text near the
// expected location loc, or -1 when no acceptable match exists.
//
// An exact match at loc is returned immediately. Otherwise a Bitap
// scan weighs error count against distance from loc: scores above
// opts.Threshold are rejected, and opts.Distance divides the location
// penalty (zero demands the exact location).
func MatchMain[E comparable](text, pattern *rope.Rope[E], loc int, opts MatchOptions) int {
	if loc < 0 {
		loc = 0
	} else if loc > text.Len() {
		loc = text.Len()
	}
	switch {
	case text.Equal(pattern):
		// Shortcut; not guaranteed by the scan below.
		return 0
	case text.Len() == 0:
		return -1
	case loc+pattern.Len() <= text.Len() && sub(text, loc, pattern.Len()).Equal(pattern):
		// Perfect match at the perfect spot.
		return loc
	}
	return matchBitap(text.ToSlice(), pattern.ToSlice(), loc, opts)
}

// matchBitap runs the fuzzy scan over flattened buffers.
func matchBitap[E comparable](text, pattern []E, loc int, opts MatchOptions) int {
	m := len(pattern)
	if m == 0 || m > MaxBits {
		return -1
	}

	// Alphabet: for every element, the bit positions it occupies in
	// the pattern.
	alphabet := make(map[E]uint32, m)
	for i, e := range pattern {
		alphabet[e] |= 1 << (m - i - 1)
	}

	score := func(errors, x int) float64 {
		accuracy := float64(errors) / float64(m)
		proximity := loc - x
		if proximity < 0 {
			proximity = -proximity
		}
		if opts.Distance == 0 {
			if proximity == 0 {
				return accuracy
			}
			return 1.0
		}
		return accuracy + float64(proximity)/float64(opts.Distance)
	}

	threshold := opts.Threshold
	// Exact hits anywhere tighten the threshold before the scan.
	bestLoc := searchSlice(text[minInt(loc, len(text)):], pattern)
	if bestLoc != -1 {
		bestLoc += minInt(loc, len(text))
		if s := score(0, bestLoc); s < threshold {
			threshold = s
		}
		// Last occurrence starting at or before loc+m: a window of
		// loc+2m caps match starts at loc+m exactly.
		if back := lastIndexSlice(text[:minInt(loc+2*m, len(text))], pattern); back != -1 {
			if s := score(0, back); s < threshold {
				threshold = s
				bestLoc = back
			}
		}
	}
	bestLoc = -1

	matchMask := uint32(1) << (m - 1)
	binMax := m + len(text)
	var lastRd []uint32
	for d := 0; d < m; d++ {
		// Binary search for the widest window around loc where the
		// score with d errors stays acceptable.
		binMin := 0
		binMid := binMax
		for binMin < binMid {
			if score(d, loc+binMid) <= threshold {
				binMin = binMid
			} else {
				binMax = binMid
			}
			binMid = (binMax-binMin)/2 + binMin
		}
		binMax = binMid
		start := maxInt(1, loc-binMid+1)
		finish := minInt(loc+binMid, len(text)) + m

		rd := make([]uint32, finish+2)
		rd[finish+1] = (1 << d) - 1
		for j := finish; j >= start; j-- {
			var charMatch uint32
			if j-1 < len(text) {
				charMatch = alphabet[text[j-1]]
			}
			if d == 0 {
				rd[j] = ((rd[j+1] << 1) | 1) & charMatch
			} else {
				rd[j] = ((rd[j+1]<<1)|1)&charMatch |
					(((lastRd[j+1] | lastRd[j]) << 1) | 1) |
					lastRd[j+1]
			}
			if rd[j]&matchMask != 0 {
				s := score(d, j-1)
				if s <= threshold {
					threshold = s
					bestLoc = j - 1
					if bestLoc > loc {
						// Forward match: the window can shrink.
						start = maxInt(1, 2*loc-bestLoc)
					} else {
						// Behind loc; nothing earlier can beat it.
						break
					}
				}
			}
		}
		// Even a perfectly placed match with d+1 errors would score
		// worse than what we have.
		if score(d+1, loc) > threshold {
			break
		}
		lastRd = rd
	}
	return bestLoc
}

// searchSlice finds the first occurrence of pattern in buf, or -1.
func searchSlice[E comparable](buf, pattern []E) int {
	m := len(pattern)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= len(buf); i++ {
		if buf[i] != pattern[0] {
			continue
		}
		match := true
		for j := 1; j < m; j++ {
			if buf[i+j] != pattern[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// lastIndexSlice finds the final occurrence of pattern in buf, or -1.
func lastIndexSlice[E comparable](buf, pattern []E) int {
	best := -1
	from := 0
	for {
		idx := searchSlice(buf[from:], pattern)
		if idx < 0 {
			return best
		}
		best = from + idx
		from = best + 1
	}
}
