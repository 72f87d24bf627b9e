package rope

// CommonPrefixLen returns the number of equal leading elements shared
// with other. Both ropes are walked chunk-by-chunk in lockstep; no
// buffers are copied.
func (r *Rope[E]) CommonPrefixLen(other *Rope[E]) int {
	it1 := orEmpty(r).Chunks()
	it2 := orEmpty(other).Chunks()
	var a, b []E
	count := 0
	for {
		if len(a) == 0 {
			if !it1.Next() {
				return count
			}
			a = it1.Current()
		}
		if len(b) == 0 {
			if !it2.Next() {
				return count
			}
			b = it2.Current()
		}
		k := len(a)
		if len(b) < k {
			k = len(b)
		}
		for i := 0; i < k; i++ {
			if a[i] != b[i] {
				return count + i
			}
		}
		count += k
		a = a[k:]
		b = b[k:]
	}
}

// CommonSuffixLen returns the number of equal trailing elements shared
// with other.
func (r *Rope[E]) CommonSuffixLen(other *Rope[E]) int {
	it1 := orEmpty(r).ChunksReverse()
	it2 := orEmpty(other).ChunksReverse()
	var a, b []E
	count := 0
	for {
		if len(a) == 0 {
			if !it1.Next() {
				return count
			}
			a = it1.Current()
		}
		if len(b) == 0 {
			if !it2.Next() {
				return count
			}
			b = it2.Current()
		}
		k := len(a)
		if len(b) < k {
			k = len(b)
		}
		for i := 1; i <= k; i++ {
			if a[len(a)-i] != b[len(b)-i] {
				return count + i - 1
			}
		}
		count += k
		a = a[:len(a)-k]
		b = b[:len(b)-k]
	}
}

// CommonOverlapLen returns the largest k such that a's suffix of
// length k equals b's prefix of length k.
//
// Both sides are truncated to the shorter length before searching, and
// each successful find advances the candidate length by the found
// offset plus one.
func CommonOverlapLen[E comparable](a, b *Rope[E]) int {
	la, lb := a.Len(), b.Len()
	if la == 0 || lb == 0 {
		return 0
	}
	n := la
	if lb < n {
		n = lb
	}
	ta := a.ToSlice()
	if la > lb {
		ta = ta[la-lb:]
	}
	tb := b.ToSlice()
	if lb > la {
		tb = tb[:la]
	}
	if slicesEqual(ta, tb) {
		return n
	}
	best := 0
	length := 1
	for {
		pattern := ta[n-length:]
		found := searchSlice(tb, pattern)
		if found == -1 {
			return best
		}
		length += found
		if found == 0 || slicesEqual(ta[n-length:], tb[:length]) {
			best = length
			length++
		}
	}
}
