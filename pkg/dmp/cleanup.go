package dmp

import (
	"github.com/coreseekdev/cordage/pkg/rope"
)

// CleanupMerge reorders and merges like edit sections: adjacent runs
// of the same operation coalesce, common affixes of a delete/insert
// pair are factored into the neighbouring equalities, and single edits
// are shifted across equalities when that eliminates a split. Iterates
// to a fixed point.
func CleanupMerge[E comparable](diffs []Diff[E]) []Diff[E] {
	d := &differ[E]{}
	return d.cleanupMerge(diffs)
}

func (d *differ[E]) cleanupMerge(diffs []Diff[E]) []Diff[E] {
	if len(diffs) == 0 {
		return diffs
	}
	// Sentinel equality simplifies the walk; stripped at the end.
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
			pointer++
		case OpDelete:
			countDelete++
			textDelete = textDelete.Concat(diffs[pointer].Items)
			pointer++
		case OpEqual:
			if countDelete+countInsert > 1 {
				if countDelete != 0 && countInsert != 0 {
					// Factor out the common prefix.
					if common := textInsert.CommonPrefixLen(textDelete); common != 0 {
						x := pointer - countDelete - countInsert
						if x > 0 && diffs[x-1].Op == OpEqual {
							diffs[x-1].Items = diffs[x-1].Items.Concat(sub(textInsert, 0, common))
						} else {
							diffs = append([]Diff[E]{{OpEqual, sub(textInsert, 0, common)}}, diffs...)
							pointer++
						}
						textInsert = sub(textInsert, common, textInsert.Len()-common)
						textDelete = sub(textDelete, common, textDelete.Len()-common)
					}
					// Factor out the common suffix.
					if common := textInsert.CommonSuffixLen(textDelete); common != 0 {
						diffs[pointer].Items = sub(textInsert, textInsert.Len()-common, common).
							Concat(diffs[pointer].Items)
						textInsert = sub(textInsert, 0, textInsert.Len()-common)
						textDelete = sub(textDelete, 0, textDelete.Len()-common)
					}
				}
				// Rewrite the run as at most one delete and one
				// insert; a side fully consumed by the factoring is
				// dropped rather than kept empty.
				var merged []Diff[E]
				if textDelete.Len() != 0 {
					merged = append(merged, Diff[E]{OpDelete, textDelete})
				}
				if textInsert.Len() != 0 {
					merged = append(merged, Diff[E]{OpInsert, textInsert})
				}
				diffs = splice(diffs, pointer-countDelete-countInsert,
					countDelete+countInsert, merged...)
				pointer = pointer - countDelete - countInsert + len(merged) + 1
			} else if pointer != 0 && diffs[pointer-1].Op == OpEqual {
				// Merge this equality into the previous one.
				diffs[pointer-1].Items = diffs[pointer-1].Items.Concat(diffs[pointer].Items)
				diffs = append(diffs[:pointer], diffs[pointer+1:]...)
			} else {
				pointer++
			}
			countInsert, countDelete = 0, 0
			textDelete = rope.Empty[E]()
			textInsert = rope.Empty[E]()
		}
	}
	if diffs[len(diffs)-1].Items.Len() == 0 {
		diffs = diffs[:len(diffs)-1]
	}

	// Shift single edits over a neighbouring equality when the edit
	// ends (or begins) with it, eliminating the split.
	changes := false
	pointer = 1
	for pointer < len(diffs)-1 {
		if diffs[pointer-1].Op == OpEqual && diffs[pointer+1].Op == OpEqual {
			prev := diffs[pointer-1].Items
			edit := diffs[pointer].Items
			next := diffs[pointer+1].Items
			if edit.EndsWith(prev) {
				diffs[pointer].Items = prev.Concat(sub(edit, 0, edit.Len()-prev.Len()))
				diffs[pointer+1].Items = prev.Concat(next)
				diffs = splice(diffs, pointer-1, 1)
				changes = true
			} else if edit.StartsWith(next) {
				diffs[pointer-1].Items = prev.Concat(next)
				diffs[pointer].Items = sub(edit, next.Len(), edit.Len()-next.Len()).Concat(next)
				diffs = splice(diffs, pointer+1, 1)
				changes = true
			}
		}
		pointer++
	}
	if changes {
		return d.cleanupMerge(diffs)
	}
	return diffs
}

// CleanupSemantic eliminates semantically trivial equalities: small
// equal runs sandwiched between larger edits, and overlaps between a
// deletion and the following insertion.
func CleanupSemantic[E comparable](diffs []Diff[E], opts DiffOptions[E]) []Diff[E] {
	d := &differ[E]{opts: opts}
	return d.cleanupSemantic(diffs)
}

func (d *differ[E]) cleanupSemantic(diffs []Diff[E]) []Diff[E] {
	changes := false
	equalities := make([]int, 0, len(diffs))
	var lastEquality *rope.Rope[E]
	var pointer int
	var lengthInsertions1, lengthDeletions1 int
	var lengthInsertions2, lengthDeletions2 int
	for pointer < len(diffs) {
		if diffs[pointer].Op == OpEqual {
			equalities = append(equalities, pointer)
			lengthInsertions1 = lengthInsertions2
			lengthDeletions1 = lengthDeletions2
			lengthInsertions2 = 0
			lengthDeletions2 = 0
			lastEquality = diffs[pointer].Items
		} else {
			if diffs[pointer].Op == OpInsert {
				lengthInsertions2 += diffs[pointer].Items.Len()
			} else {
				lengthDeletions2 += diffs[pointer].Items.Len()
			}
			// An equality no larger than the edits on both sides of
			// it carries no information.
			difference1 := maxInt(lengthInsertions1, lengthDeletions1)
			difference2 := maxInt(lengthInsertions2, lengthDeletions2)
			if lastEquality.Len() > 0 &&
				lastEquality.Len() <= difference1 &&
				lastEquality.Len() <= difference2 {
				insPoint := equalities[len(equalities)-1]
				diffs = splice(diffs, insPoint, 0, Diff[E]{OpDelete, lastEquality})
				diffs[insPoint+1].Op = OpInsert
				equalities = equalities[:len(equalities)-1]
				if len(equalities) > 0 {
					equalities = equalities[:len(equalities)-1]
				}
				pointer = -1
				if len(equalities) > 0 {
					pointer = equalities[len(equalities)-1]
				}
				lengthInsertions1, lengthDeletions1 = 0, 0
				lengthInsertions2, lengthDeletions2 = 0, 0
				lastEquality = nil
				changes = true
			}
		}
		pointer++
	}
	if changes {
		diffs = d.cleanupMerge(diffs)
	}
	diffs = d.cleanupSemanticLossless(diffs)

	// Extract overlaps between a deletion and the insertion after it,
	// e.g. <del>abcxxx</del><ins>xxxdef</ins> -> <del>abc</del>xxx<ins>def</ins>.
	// Only when the overlap is at least half of the smaller edit.
	pointer = 1
	for pointer < len(diffs) {
		if diffs[pointer-1].Op == OpDelete && diffs[pointer].Op == OpInsert {
			deletion := diffs[pointer-1].Items
			insertion := diffs[pointer].Items
			overlap1 := rope.CommonOverlapLen(deletion, insertion)
			overlap2 := rope.CommonOverlapLen(insertion, deletion)
			if overlap1 >= overlap2 {
				if overlap1*2 >= deletion.Len() || overlap1*2 >= insertion.Len() {
					diffs = splice(diffs, pointer, 0,
						Diff[E]{OpEqual, sub(insertion, 0, overlap1)})
					diffs[pointer-1].Items = sub(deletion, 0, deletion.Len()-overlap1)
					diffs[pointer+1].Items = sub(insertion, overlap1, insertion.Len()-overlap1)
					pointer++
				}
			} else {
				if overlap2*2 >= deletion.Len() || overlap2*2 >= insertion.Len() {
					diffs = splice(diffs, pointer, 0,
						Diff[E]{OpEqual, sub(deletion, 0, overlap2)})
					diffs[pointer-1].Op = OpInsert
					diffs[pointer-1].Items = sub(insertion, 0, insertion.Len()-overlap2)
					diffs[pointer+1].Op = OpDelete
					diffs[pointer+1].Items = sub(deletion, overlap2, deletion.Len()-overlap2)
					pointer++
				}
			}
			pointer++
		}
		pointer++
	}
	return diffs
}

// CleanupSemanticLossless shifts single edits sideways within their
// surrounding equalities to align them with element-class boundaries,
// e.g. "The c<ins>at c</ins>ame." -> "The <ins>cat </ins>came.".
func CleanupSemanticLossless[E comparable](diffs []Diff[E], opts DiffOptions[E]) []Diff[E] {
	d := &differ[E]{opts: opts}
	return d.cleanupSemanticLossless(diffs)
}

func (d *differ[E]) cleanupSemanticLossless(diffs []Diff[E]) []Diff[E] {
	cls := d.opts.Classes
	pointer := 1
	for pointer < len(diffs)-1 {
		if diffs[pointer-1].Op == OpEqual && diffs[pointer+1].Op == OpEqual {
			equality1 := diffs[pointer-1].Items
			edit := diffs[pointer].Items
			equality2 := diffs[pointer+1].Items

			// Shift the edit as far left as possible.
			if commonOffset := equality1.CommonSuffixLen(edit); commonOffset > 0 {
				commonRun := sub(edit, edit.Len()-commonOffset, commonOffset)
				equality1 = sub(equality1, 0, equality1.Len()-commonOffset)
				edit = commonRun.Concat(sub(edit, 0, edit.Len()-commonOffset))
				equality2 = commonRun.Concat(equality2)
			}

			// Then step rightwards, keeping the best-scoring split.
			bestEquality1 := equality1
			bestEdit := edit
			bestEquality2 := equality2
			bestScore := semanticScore(equality1, edit, cls) +
				semanticScore(edit, equality2, cls)
			for edit.Len() != 0 && equality2.Len() != 0 {
				e0, _ := edit.At(0)
				q0, _ := equality2.At(0)
				if e0 != q0 {
					break
				}
				equality1 = equality1.Concat(sub(edit, 0, 1))
				edit = sub(edit, 1, edit.Len()-1).Concat(sub(equality2, 0, 1))
				equality2 = sub(equality2, 1, equality2.Len()-1)
				score := semanticScore(equality1, edit, cls) +
					semanticScore(edit, equality2, cls)
				// >= prefers trailing over leading whitespace.
				if score >= bestScore {
					bestScore = score
					bestEquality1 = equality1
					bestEdit = edit
					bestEquality2 = equality2
				}
			}

			if !diffs[pointer-1].Items.Equal(bestEquality1) {
				if bestEquality1.Len() != 0 {
					diffs[pointer-1].Items = bestEquality1
				} else {
					diffs = splice(diffs, pointer-1, 1)
					pointer--
				}
				diffs[pointer].Items = bestEdit
				if bestEquality2.Len() != 0 {
					diffs[pointer+1].Items = bestEquality2
				} else {
					diffs = splice(diffs, pointer+1, 1)
					pointer--
				}
			}
		}
		pointer++
	}
	return diffs
}

// CleanupEfficiency collapses equalities shorter than the edit cost
// that are surrounded by edits, trading a longer script for fewer
// separate regions.
func CleanupEfficiency[E comparable](diffs []Diff[E], opts DiffOptions[E]) []Diff[E] {
	d := &differ[E]{opts: opts}
	return d.cleanupEfficiency(diffs)
}

func (d *differ[E]) cleanupEfficiency(diffs []Diff[E]) []Diff[E] {
	editCost := d.opts.EditCost
	if editCost <= 0 {
		editCost = 4
	}
	changes := false
	type stackEntry struct {
		index int
		next  *stackEntry
	}
	var equalities *stackEntry
	var lastEquality *rope.Rope[E]
	pointer := 0
	preIns, preDel := false, false
	postIns, postDel := false, false
	for pointer < len(diffs) {
		if diffs[pointer].Op == OpEqual {
			if diffs[pointer].Items.Len() < editCost && (postIns || postDel) {
				equalities = &stackEntry{index: pointer, next: equalities}
				preIns = postIns
				preDel = postDel
				lastEquality = diffs[pointer].Items
			} else {
				equalities = nil
				lastEquality = nil
			}
			postIns, postDel = false, false
		} else {
			if diffs[pointer].Op == OpDelete {
				postDel = true
			} else {
				postIns = true
			}
			// Five patterns qualify for splitting:
			// <ins>A</ins><del>B</del>X<ins>C</ins><del>D</del>
			// <ins>A</ins>X<ins>C</ins><del>D</del>
			// <ins>A</ins><del>B</del>X<ins>C</ins>
			// <ins>A</ins>X<ins>C</ins><del>D</del>
			// <ins>A</ins><del>B</del>X<del>C</del>
			sides := 0
			for _, b := range []bool{preIns, preDel, postIns, postDel} {
				if b {
					sides++
				}
			}
			if lastEquality.Len() > 0 &&
				((preIns && preDel && postIns && postDel) ||
					(lastEquality.Len() < editCost/2 && sides == 3)) {
				insPoint := equalities.index
				diffs = splice(diffs, insPoint, 0, Diff[E]{OpDelete, lastEquality})
				diffs[insPoint+1].Op = OpInsert
				equalities = equalities.next
				lastEquality = nil
				if preIns && preDel {
					// No earlier entry can be affected.
					postIns, postDel = true, true
					equalities = nil
				} else {
					if equalities != nil {
						equalities = equalities.next
					}
					pointer = -1
					if equalities != nil {
						pointer = equalities.index
					}
					postIns, postDel = false, false
				}
				changes = true
			}
		}
		pointer++
	}
	if changes {
		diffs = d.cleanupMerge(diffs)
	}
	return diffs
}
