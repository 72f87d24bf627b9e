package rope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalance_DepthBudgetAfterChainedConcat(t *testing.T) {
	// Degenerate build: one element at a time produces a left-leaning
	// chain that must trip the rebalance rule.
	r := Empty[rune]()
	for i := 0; i < 2000; i++ {
		r = r.Concat(FromString("x"))
	}
	assert.Equal(t, 2000, r.Len())
	assert.LessOrEqual(t, r.Depth(), MaxDepth)
}

func TestBalance_PreservesContent(t *testing.T) {
	var want []int
	r := Empty[int]()
	for i := 0; i < 300; i++ {
		r = r.Concat(New([]int{i, i + 1}))
		want = append(want, i, i+1)
	}
	assert.Equal(t, want, r.ToSlice())
}

func TestBalance_NoopWhenBalanced(t *testing.T) {
	r := FromString("already fine")
	assert.True(t, r.IsBalanced())
	assert.Same(t, r, r.Balance())
}

func TestBalance_FibonacciRule(t *testing.T) {
	// minLength is fib(d)+2: 2, 3, 3, 4, 5, 7, 10, ...
	require.Equal(t, 2, minLength[0])
	require.Equal(t, 3, minLength[1])
	require.Equal(t, 3, minLength[2])
	require.Equal(t, 4, minLength[3])
	require.Equal(t, 5, minLength[4])
	require.Equal(t, 7, minLength[5])

	// A two-leaf rope of total length 8 has depth 1 and 8 >= fib(1)+2.
	r := FromString("abcd").Concat(FromString("efgh"))
	assert.True(t, r.IsBalanced())
}

func TestBalance_LargeLeafSplitting(t *testing.T) {
	items := make([]byte, 5*MaxLeafSize+17)
	for i := range items {
		items[i] = byte(i)
	}
	r := New(items)
	it := r.Chunks()
	for it.Next() {
		assert.LessOrEqual(t, len(it.Current()), MaxLeafSize)
	}
	assert.Equal(t, items, r.ToSlice())
}
