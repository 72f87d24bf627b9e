package rope

// Sorted operations. These assume the rope's elements are ordered
// under the supplied comparer; they do not verify it.

// BinarySearch locates item in a sorted rope using cmp, which must
// return a negative value when a < b, zero when equal and positive
// when a > b.
//
// When the item is found, its position is returned. When it is not,
// the two's complement of the insertion point is returned, so callers
// recover the insertion point with ^result.
func (r *Rope[E]) BinarySearch(item E, cmp func(a, b E) int) int {
	lo, hi := 0, r.Len()-1
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)
		v, _ := r.At(mid)
		c := cmp(v, item)
		switch {
		case c < 0:
			lo = mid + 1
		case c > 0:
			hi = mid - 1
		default:
			return mid
		}
	}
	return ^lo
}

// InsertSorted inserts item at its sorted position and returns the new
// rope. When equal elements exist the item lands next to them; the
// relative order of existing elements is preserved.
func (r *Rope[E]) InsertSorted(item E, cmp func(a, b E) int) *Rope[E] {
	idx := r.BinarySearch(item, cmp)
	if idx < 0 {
		idx = ^idx
	}
	left, right, _ := orEmpty(r).SplitAt(idx)
	return left.Append([]E{item}).Concat(right)
}
