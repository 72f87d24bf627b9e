package rope

// Search operations. Leaf buffers are scanned contiguously; matches
// that straddle an internal node boundary are found by carrying the
// last pattern-length-minus-one elements of the previous chunks into
// the scan window for the next one.

// IndexOf returns the position of the first occurrence of e, or -1.
func (r *Rope[E]) IndexOf(e E) int {
	return r.IndexOfFrom(e, 0)
}

// IndexOfFrom returns the position of the first occurrence of e at or
// after offset, or -1.
func (r *Rope[E]) IndexOfFrom(e E, offset int) int {
	if offset < 0 {
		offset = 0
	}
	pos := 0
	it := r.Chunks()
	for it.Next() {
		chunk := it.Current()
		if pos+len(chunk) <= offset {
			pos += len(chunk)
			continue
		}
		start := 0
		if offset > pos {
			start = offset - pos
		}
		for i := start; i < len(chunk); i++ {
			if chunk[i] == e {
				return pos + i
			}
		}
		pos += len(chunk)
	}
	return -1
}

// LastIndexOf returns the position of the last occurrence of e, or -1.
func (r *Rope[E]) LastIndexOf(e E) int {
	pos := r.Len()
	it := r.ChunksReverse()
	for it.Next() {
		chunk := it.Current()
		pos -= len(chunk)
		for i := len(chunk) - 1; i >= 0; i-- {
			if chunk[i] == e {
				return pos + i
			}
		}
	}
	return -1
}

// Index returns the position of the first occurrence of sub, or -1.
// An empty sub is found at 0.
func (r *Rope[E]) Index(sub *Rope[E]) int {
	return r.IndexFrom(sub, 0)
}

// IndexFrom returns the position of the first occurrence of sub at or
// after offset, or -1. An empty sub is found at offset.
func (r *Rope[E]) IndexFrom(sub *Rope[E], offset int) int {
	if offset < 0 {
		offset = 0
	}
	n, m := r.Len(), sub.Len()
	if m == 0 {
		if offset > n {
			return -1
		}
		return offset
	}
	if offset+m > n {
		return -1
	}
	window := orEmpty(r)
	if offset > 0 {
		window, _ = r.Slice(offset, n-offset)
	}
	idx := scanForward(window, sub.ToSlice(), false)
	if idx < 0 {
		return -1
	}
	return offset + idx
}

// LastIndex returns the position of the last occurrence of sub, or -1.
// An empty sub is found at Len().
func (r *Rope[E]) LastIndex(sub *Rope[E]) int {
	if sub.Len() == 0 {
		return r.Len()
	}
	return scanForward(orEmpty(r), sub.ToSlice(), true)
}

// Contains reports whether sub occurs in the rope.
func (r *Rope[E]) Contains(sub *Rope[E]) bool {
	return r.Index(sub) >= 0
}

// StartsWith reports whether the rope begins with prefix.
func (r *Rope[E]) StartsWith(prefix *Rope[E]) bool {
	return r.CommonPrefixLen(prefix) == prefix.Len()
}

// EndsWith reports whether the rope ends with suffix.
func (r *Rope[E]) EndsWith(suffix *Rope[E]) bool {
	return r.CommonSuffixLen(suffix) == suffix.Len()
}

// scanForward searches for pattern across the rope's chunks, carrying
// a tail of len(pattern)-1 elements between chunks so boundary
// straddling matches are found. When last is true the final match is
// reported instead of the first.
func scanForward[E comparable](r *Rope[E], pattern []E, last bool) int {
	m := len(pattern)
	best := -1
	var carry []E
	base := 0 // rope position of window[0]
	it := r.Chunks()
	for it.Next() {
		chunk := it.Current()
		window := make([]E, 0, len(carry)+len(chunk))
		window = append(window, carry...)
		window = append(window, chunk...)
		from := 0
		for {
			idx := searchSlice(window[from:], pattern)
			if idx < 0 {
				break
			}
			hit := base + from + idx
			if !last {
				return hit
			}
			best = hit
			from += idx + 1
		}
		keep := m - 1
		if keep > len(window) {
			keep = len(window)
		}
		base += len(window) - keep
		carry = window[len(window)-keep:]
	}
	return best
}

// searchSlice finds pattern in buf by direct comparison, or -1.
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

// slicesEqual reports elementwise equality of two buffers.
func slicesEqual[E comparable](a, b []E) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
