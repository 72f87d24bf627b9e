package rope

import "hash/maphash"

// hashSeed is fixed for the process so equal ropes hash equally within
// it. Hashes are not stable across processes.
var hashSeed = maphash.MakeSeed()

// Hash returns a content hash of the rope.
//
// The hash depends only on the element sequence, never on the tree
// shape: two ropes that compare Equal always produce the same hash.
// It is derived from the first element and the length, so unequal
// ropes sharing both will collide; Equal is the authority.
func (r *Rope[E]) Hash() uint64 {
	n := r.Len()
	if n == 0 {
		return 0
	}
	first := r.root.at(0)
	h := maphash.Comparable(hashSeed, first)
	return h*31 + uint64(n)
}

// Equal reports elementwise equality with other. Lengths are compared
// first; contiguous chunk runs are compared directly, so equality of
// structurally different ropes costs one pass over the content.
func (r *Rope[E]) Equal(other *Rope[E]) bool {
	if r.Len() != other.Len() {
		return false
	}
	return r.CommonPrefixLen(other) == r.Len()
}
