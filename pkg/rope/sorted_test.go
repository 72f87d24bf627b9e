package rope

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intCmp(a, b int) int { return a - b }

func TestBinarySearch_FoundAndInsertionPoint(t *testing.T) {
	r := New([]int{1, 3, 5, 7, 9})

	assert.Equal(t, 0, r.BinarySearch(1, intCmp))
	assert.Equal(t, 2, r.BinarySearch(5, intCmp))
	assert.Equal(t, 4, r.BinarySearch(9, intCmp))

	// Misses encode the insertion point as two's complement.
	assert.Equal(t, ^0, r.BinarySearch(0, intCmp))
	assert.Equal(t, ^1, r.BinarySearch(2, intCmp))
	assert.Equal(t, ^5, r.BinarySearch(10, intCmp))

	assert.Equal(t, ^0, Empty[int]().BinarySearch(4, intCmp))
}

func TestInsertSorted_PreservesOrder(t *testing.T) {
	r := New([]int{0, 1, 3, 4, 5})
	r = r.InsertSorted(2, intCmp)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, r.ToSlice())

	// Exactly one element was added.
	assert.Equal(t, 6, r.Len())
}

func TestInsertSorted_EndsAndDuplicates(t *testing.T) {
	r := New([]int{2, 4, 4, 6})
	assert.Equal(t, []int{1, 2, 4, 4, 6}, r.InsertSorted(1, intCmp).ToSlice())
	assert.Equal(t, []int{2, 4, 4, 6, 9}, r.InsertSorted(9, intCmp).ToSlice())
	assert.Equal(t, []int{2, 4, 4, 4, 6}, r.InsertSorted(4, intCmp).ToSlice())
}

func TestInsertSorted_RandomizedStaysSorted(t *testing.T) {
	// Deterministic pseudo-random sequence; sortedness is the law.
	r := Empty[int]()
	seed := uint32(12345)
	for i := 0; i < 500; i++ {
		seed = seed*1664525 + 1013904223
		r = r.InsertSorted(int(seed%1000), intCmp)
	}
	got := r.ToSlice()
	assert.Equal(t, 500, len(got))
	assert.True(t, sort.IntsAreSorted(got))
}
