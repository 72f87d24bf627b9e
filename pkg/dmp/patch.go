package dmp

import (
	"github.com/coreseekdev/cordage/pkg/rope"
)

// Patch is one edit region plus the context needed to locate it in
// drifted text. Start1/Length1 address the source, Start2/Length2 the
// target. MakePatches brackets each patch with context equalities on
// every side where the source has elements; a patch at an edge of the
// source (or over an empty source) has no context on that side, and
// AddPadding supplies edge context when patches are applied.
type Patch[E comparable] struct {
	Diffs   []Diff[E]
	Start1  int
	Start2  int
	Length1 int
	Length2 int
}

// source reconstructs the patch's source pattern.
func (p *Patch[E]) source() *rope.Rope[E] { return Source(p.Diffs) }

// target reconstructs the patch's replacement text.
func (p *Patch[E]) target() *rope.Rope[E] { return Target(p.Diffs) }

// copyPatch clones the diffs slice so application never mutates the
// caller's patches. Rope contents are immutable and shared.
func copyPatch[E comparable](p Patch[E]) Patch[E] {
	out := p
	out.Diffs = make([]Diff[E], len(p.Diffs))
	copy(out.Diffs, p.Diffs)
	return out
}

// MakePatches diffs source against target and packages the result as
// patches. With more than two diffs the semantic and efficiency
// cleanups run first.
func MakePatches[E comparable](source, target *rope.Rope[E], popts PatchOptions[E], dopts DiffOptions[E]) []Patch[E] {
	d := &differ[E]{opts: dopts}
	diffs := DiffMain(source, target, dopts)
	if len(diffs) > 2 {
		diffs = d.cleanupSemantic(diffs)
		diffs = d.cleanupEfficiency(diffs)
	}
	return MakePatchesFromDiffs(source, diffs, popts)
}

// MakePatchesFromDiffs packages an existing diff sequence against its
// source text as patches with rolling context.
func MakePatchesFromDiffs[E comparable](source *rope.Rope[E], diffs []Diff[E], popts PatchOptions[E]) []Patch[E] {
	var patches []Patch[E]
	if len(diffs) == 0 {
		return patches
	}

	patch := Patch[E]{}
	charCount1 := 0
	charCount2 := 0
	// prePatch tracks the source as of the current patch start;
	// postPatch accumulates the edits applied so far.
	prePatch := orEmptyRope(source)
	postPatch := orEmptyRope(source)

	for i, diff := range diffs {
		if len(patch.Diffs) == 0 && diff.Op != OpEqual {
			patch.Start1 = charCount1
			patch.Start2 = charCount2
		}

		switch diff.Op {
		case OpInsert:
			patch.Diffs = append(patch.Diffs, diff)
			patch.Length2 += diff.Items.Len()
			left, right, _ := postPatch.SplitAt(charCount2)
			postPatch = left.Concat(diff.Items).Concat(right)
		case OpDelete:
			patch.Diffs = append(patch.Diffs, diff)
			patch.Length1 += diff.Items.Len()
			postPatch, _ = postPatch.Remove(charCount2, charCount2+diff.Items.Len())
		case OpEqual:
			if diff.Items.Len() <= 2*popts.Margin && len(patch.Diffs) != 0 && i != len(diffs)-1 {
				// Small equality inside a patch: keep accumulating.
				patch.Diffs = append(patch.Diffs, diff)
				patch.Length1 += diff.Items.Len()
				patch.Length2 += diff.Items.Len()
			}
			if diff.Items.Len() >= 2*popts.Margin && len(patch.Diffs) != 0 {
				// Large equality ends the current patch.
				addContext(&patch, prePatch, popts)
				patches = append(patches, patch)
				patch = Patch[E]{}
				prePatch = postPatch
				charCount1 = charCount2
			}
		}

		if diff.Op != OpInsert {
			charCount1 += diff.Items.Len()
		}
		if diff.Op != OpDelete {
			charCount2 += diff.Items.Len()
		}
	}
	if len(patch.Diffs) != 0 {
		addContext(&patch, prePatch, popts)
		patches = append(patches, patch)
	}
	return patches
}

// addContext grows the patch with surrounding equalities until its
// pattern is unique in text (or the bit-width ceiling stops it), then
// pads by one extra margin.
func addContext[E comparable](patch *Patch[E], text *rope.Rope[E], popts PatchOptions[E]) {
	if text.Len() == 0 {
		return
	}
	pattern := sub(text, patch.Start2, minInt(patch.Length1, text.Len()-patch.Start2))
	padding := 0
	for text.Index(pattern) != text.LastIndex(pattern) &&
		pattern.Len() < popts.MaxLen-2*popts.Margin {
		padding += popts.Margin
		lo := maxInt(0, patch.Start2-padding)
		hi := minInt(text.Len(), patch.Start2+patch.Length1+padding)
		pattern = sub(text, lo, hi-lo)
	}
	// One more chunk of margin on both sides.
	padding += popts.Margin

	lo := maxInt(0, patch.Start2-padding)
	prefix := sub(text, lo, patch.Start2-lo)
	if prefix.Len() != 0 {
		patch.Diffs = append([]Diff[E]{{OpEqual, prefix}}, patch.Diffs...)
	}
	hi := minInt(text.Len(), patch.Start2+patch.Length1+padding)
	suffix := sub(text, patch.Start2+patch.Length1, hi-patch.Start2-patch.Length1)
	if suffix.Len() != 0 {
		patch.Diffs = append(patch.Diffs, Diff[E]{OpEqual, suffix})
	}

	patch.Start1 -= prefix.Len()
	patch.Start2 -= prefix.Len()
	patch.Length1 += prefix.Len() + suffix.Len()
	patch.Length2 += prefix.Len() + suffix.Len()
}

// AddPadding pads the text edges of the first and last patch with the
// options' padding run and shifts every patch accordingly, so edits at
// the very boundaries of the text have context to match. It returns
// the padding rope the caller must also apply to the text, or an empty
// rope when padding is disabled.
func AddPadding[E comparable](patches []Patch[E], popts PatchOptions[E]) *rope.Rope[E] {
	if len(popts.Padding) == 0 || len(patches) == 0 {
		return rope.Empty[E]()
	}
	padding := rope.New(popts.Padding)
	padLen := padding.Len()

	// Bump all offsets into the padded coordinate space.
	for i := range patches {
		patches[i].Start1 += padLen
		patches[i].Start2 += padLen
	}

	// Leading edge.
	first := &patches[0]
	if len(first.Diffs) == 0 || first.Diffs[0].Op != OpEqual {
		first.Diffs = append([]Diff[E]{{OpEqual, padding}}, first.Diffs...)
		first.Start1 -= padLen
		first.Start2 -= padLen
		first.Length1 += padLen
		first.Length2 += padLen
	} else if padLen > first.Diffs[0].Items.Len() {
		extra := padLen - first.Diffs[0].Items.Len()
		first.Diffs[0].Items = sub(padding, first.Diffs[0].Items.Len(), extra).
			Concat(first.Diffs[0].Items)
		first.Start1 -= extra
		first.Start2 -= extra
		first.Length1 += extra
		first.Length2 += extra
	}

	// Trailing edge.
	last := &patches[len(patches)-1]
	if len(last.Diffs) == 0 || last.Diffs[len(last.Diffs)-1].Op != OpEqual {
		last.Diffs = append(last.Diffs, Diff[E]{OpEqual, padding})
		last.Length1 += padLen
		last.Length2 += padLen
	} else if padLen > last.Diffs[len(last.Diffs)-1].Items.Len() {
		extra := padLen - last.Diffs[len(last.Diffs)-1].Items.Len()
		last.Diffs[len(last.Diffs)-1].Items =
			last.Diffs[len(last.Diffs)-1].Items.Concat(sub(padding, 0, extra))
		last.Length1 += extra
		last.Length2 += extra
	}

	return padding
}

// SplitMax breaks every patch whose source pattern exceeds the
// bit-width ceiling into a chain of smaller patches carrying rolling
// context. A deletion that is the sole content of its slot may pass
// through whole even when oversized.
func SplitMax[E comparable](patches []Patch[E], popts PatchOptions[E]) []Patch[E] {
	patchSize := popts.MaxLen
	margin := popts.Margin
	for x := 0; x < len(patches); x++ {
		if patches[x].Length1 <= patchSize {
			continue
		}
		bigPatch := patches[x]
		// Remove it and rebuild in place.
		patches = append(patches[:x], patches[x+1:]...)
		x--
		start1 := bigPatch.Start1
		start2 := bigPatch.Start2
		preContext := rope.Empty[E]()
		for len(bigPatch.Diffs) != 0 {
			patch := Patch[E]{}
			empty := true
			patch.Start1 = start1 - preContext.Len()
			patch.Start2 = start2 - preContext.Len()
			if preContext.Len() != 0 {
				patch.Length1 = preContext.Len()
				patch.Length2 = preContext.Len()
				patch.Diffs = append(patch.Diffs, Diff[E]{OpEqual, preContext})
			}
			for len(bigPatch.Diffs) != 0 && patch.Length1 < patchSize-margin {
				op := bigPatch.Diffs[0].Op
				items := bigPatch.Diffs[0].Items
				switch {
				case op == OpInsert:
					// Insertions are small per the diff; copy whole.
					patch.Length2 += items.Len()
					start2 += items.Len()
					patch.Diffs = append(patch.Diffs, bigPatch.Diffs[0])
					bigPatch.Diffs = bigPatch.Diffs[1:]
					empty = false
				case op == OpDelete && len(patch.Diffs) == 1 &&
					patch.Diffs[0].Op == OpEqual && items.Len() > 2*patchSize:
					// A monster delete: pass as one chunk.
					patch.Length1 += items.Len()
					start1 += items.Len()
					empty = false
					patch.Diffs = append(patch.Diffs, Diff[E]{op, items})
					bigPatch.Diffs = bigPatch.Diffs[1:]
				default:
					take := minInt(items.Len(), patchSize-patch.Length1-margin)
					part := sub(items, 0, take)
					patch.Length1 += take
					start1 += take
					if op == OpEqual {
						patch.Length2 += take
						start2 += take
					} else {
						empty = false
					}
					patch.Diffs = append(patch.Diffs, Diff[E]{op, part})
					if take == items.Len() {
						bigPatch.Diffs = bigPatch.Diffs[1:]
					} else {
						bigPatch.Diffs[0].Items = sub(items, take, items.Len()-take)
					}
				}
			}
			// Roll forward: last margin of this patch's target ...
			target := patch.target()
			keep := minInt(margin, target.Len())
			preContext = sub(target, target.Len()-keep, keep)
			// ... and the first margin of the remaining source.
			remaining := Source(bigPatch.Diffs)
			postContext := sub(remaining, 0, minInt(margin, remaining.Len()))
			if postContext.Len() != 0 {
				patch.Length1 += postContext.Len()
				patch.Length2 += postContext.Len()
				if len(patch.Diffs) != 0 && patch.Diffs[len(patch.Diffs)-1].Op == OpEqual {
					patch.Diffs[len(patch.Diffs)-1].Items =
						patch.Diffs[len(patch.Diffs)-1].Items.Concat(postContext)
				} else {
					patch.Diffs = append(patch.Diffs, Diff[E]{OpEqual, postContext})
				}
			}
			if !empty {
				x++
				patches = append(patches[:x], append([]Patch[E]{patch}, patches[x:]...)...)
			}
		}
	}
	return patches
}

// ApplyPatches merges patches onto text. It returns the patched text
// and one boolean per applied patch (after oversized patches are
// split) reporting whether it matched. A missed patch never fails the
// call; it is skipped and the positional drift is carried to the rest.
func ApplyPatches[E comparable](patches []Patch[E], text *rope.Rope[E], popts PatchOptions[E], dopts DiffOptions[E]) (*rope.Rope[E], []bool) {
	text = orEmptyRope(text)
	if len(patches) == 0 {
		return text, []bool{}
	}

	// Work on copies; callers keep their patches.
	work := make([]Patch[E], len(patches))
	for i, p := range patches {
		work[i] = copyPatch(p)
	}

	nullPadding := AddPadding(work, popts)
	text = nullPadding.Concat(text).Concat(nullPadding)
	work = SplitMax(work, popts)

	d := &differ[E]{opts: dopts}
	results := make([]bool, len(work))
	delta := 0
	for i := range work {
		p := &work[i]
		expectedLoc := p.Start2 + delta
		text1 := p.source()
		var startLoc int
		endLoc := -1
		if text1.Len() > popts.MaxLen {
			// SplitMax only leaves an oversized pattern for a
			// monster delete; locate by its head and tail.
			startLoc = MatchMain(text, sub(text1, 0, popts.MaxLen), expectedLoc, popts.Match)
			if startLoc != -1 {
				endLoc = MatchMain(text,
					sub(text1, text1.Len()-popts.MaxLen, popts.MaxLen),
					expectedLoc+text1.Len()-popts.MaxLen, popts.Match)
				if endLoc == -1 || startLoc >= endLoc {
					// No consistent trailing context.
					startLoc = -1
				}
			}
		} else {
			startLoc = MatchMain(text, text1, expectedLoc, popts.Match)
		}
		if startLoc == -1 {
			results[i] = false
			// Subtract this patch's drift from the rest.
			delta -= p.Length2 - p.Length1
			continue
		}

		results[i] = true
		delta = startLoc - expectedLoc
		var text2 *rope.Rope[E]
		if endLoc == -1 {
			end := minInt(startLoc+text1.Len(), text.Len())
			text2 = sub(text, startLoc, end-startLoc)
		} else {
			end := minInt(endLoc+popts.MaxLen, text.Len())
			text2 = sub(text, startLoc, end-startLoc)
		}
		if text1.Equal(text2) {
			// Perfect match: splice the replacement straight in.
			left, _, _ := text.SplitAt(startLoc)
			_, right, _ := text.SplitAt(startLoc + text1.Len())
			text = left.Concat(p.target()).Concat(right)
			continue
		}

		// Imperfect match: diff against what was found to build an
		// index translation, then replay the patch edit by edit.
		diffs := d.main(text1, text2, false)
		if text1.Len() > popts.MaxLen &&
			float64(Levenshtein(diffs))/float64(text1.Len()) > popts.DeleteThreshold {
			// End points match but the content is unacceptably bad.
			results[i] = false
			delta -= p.Length2 - p.Length1
			continue
		}
		diffs = d.cleanupSemanticLossless(diffs)
		index1 := 0
		for _, pd := range p.Diffs {
			if pd.Op != OpEqual {
				index2 := XIndex(diffs, index1)
				switch pd.Op {
				case OpInsert:
					left, right, _ := text.SplitAt(startLoc + index2)
					text = left.Concat(pd.Items).Concat(right)
				case OpDelete:
					delEnd := XIndex(diffs, index1+pd.Items.Len())
					text, _ = text.Remove(startLoc+index2, startLoc+delEnd)
				}
			}
			if pd.Op != OpDelete {
				index1 += pd.Items.Len()
			}
		}
	}

	// Strip the padding. Results are reported per applied patch,
	// after splitting, so a split chain yields one boolean per piece.
	text = sub(text, nullPadding.Len(), text.Len()-2*nullPadding.Len())
	return text, results
}

func orEmptyRope[E comparable](r *rope.Rope[E]) *rope.Rope[E] {
	if r == nil {
		return rope.Empty[E]()
	}
	return r
}
