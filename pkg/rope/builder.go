package rope

// Builder accumulates element runs and produces a balanced rope in one
// shot, avoiding the repeated concatenation cost of building up a rope
// by Concat in a loop.
//
// Example:
//
//	b := rope.NewBuilder[rune]()
//	b.Append([]rune("Hello "))
//	b.Append([]rune("World"))
//	r := b.Build()
type Builder[E comparable] struct {
	pending []E
	leaves  []node[E]
	total   int
}

// NewBuilder creates an empty builder.
func NewBuilder[E comparable]() *Builder[E] {
	return &Builder[E]{}
}

// Append adds items to the end of the sequence under construction.
// The input is copied.
func (b *Builder[E]) Append(items []E) *Builder[E] {
	b.pending = append(b.pending, items...)
	b.total += len(items)
	for len(b.pending) >= MaxLeafSize {
		buf := make([]E, MaxLeafSize)
		copy(buf, b.pending[:MaxLeafSize])
		b.leaves = append(b.leaves, &leaf[E]{buf: buf})
		b.pending = b.pending[MaxLeafSize:]
	}
	return b
}

// AppendElement adds a single element.
func (b *Builder[E]) AppendElement(e E) *Builder[E] {
	return b.Append([]E{e})
}

// AppendRope adds the content of an existing rope, sharing its leaf
// buffers instead of copying.
func (b *Builder[E]) AppendRope(r *Rope[E]) *Builder[E] {
	b.flush()
	it := r.Chunks()
	for it.Next() {
		chunk := it.Current()
		b.leaves = append(b.leaves, &leaf[E]{buf: chunk})
		b.total += len(chunk)
	}
	return b
}

// flush turns any pending partial run into a leaf.
func (b *Builder[E]) flush() {
	if len(b.pending) == 0 {
		return
	}
	buf := make([]E, len(b.pending))
	copy(buf, b.pending)
	b.leaves = append(b.leaves, &leaf[E]{buf: buf})
	b.pending = b.pending[:0]
}

// Build assembles the final rope. The builder can be reused afterward;
// it restarts empty.
func (b *Builder[E]) Build() *Rope[E] {
	b.flush()
	leaves := b.leaves
	total := b.total
	b.leaves = nil
	b.total = 0
	if total == 0 {
		return Empty[E]()
	}
	return &Rope[E]{root: buildTree(leaves), length: total}
}

// buildTree assembles a balanced tree over an ordered leaf run.
func buildTree[E comparable](leaves []node[E]) node[E] {
	switch len(leaves) {
	case 0:
		return emptyNode[E]()
	case 1:
		return leaves[0]
	}
	mid := len(leaves) / 2
	return newBranch(buildTree(leaves[:mid]), buildTree(leaves[mid:]))
}
