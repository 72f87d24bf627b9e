package rope

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndex_BasicAndMissing(t *testing.T) {
	r := FromString("the quick brown fox")
	assert.Equal(t, 4, r.Index(FromString("quick")))
	assert.Equal(t, -1, r.Index(FromString("slow")))
	assert.Equal(t, 0, r.Index(Empty[rune]()))
	assert.Equal(t, 3, r.IndexOf(' '))
	assert.Equal(t, 15, r.LastIndexOf(' '))
}

func TestIndex_StraddlesNodeBoundary(t *testing.T) {
	// "brown" spans the seam between the two subtrees.
	r := FromString("the quick bro").Concat(FromString("wn fox"))
	assert.Equal(t, 10, r.Index(FromString("brown")))

	// Same with many small leaves.
	var parts *Rope[rune] = Empty[rune]()
	for _, c := range "mississippi" {
		parts = parts.Concat(FromString(string(c)))
	}
	assert.Equal(t, 4, parts.Index(FromString("issip")))
	assert.Equal(t, 1, parts.Index(FromString("issi")))
	assert.Equal(t, 4, parts.IndexFrom(FromString("issi"), 2))
}

func TestLastIndex_FindsFinalMatch(t *testing.T) {
	r := FromString("ab").Concat(FromString("cabcab"))
	assert.Equal(t, 6, r.LastIndex(FromString("ab")))
	assert.Equal(t, 3, r.LastIndex(FromString("abc")))
	assert.Equal(t, r.Len(), r.LastIndex(Empty[rune]()))
	assert.Equal(t, -1, r.LastIndex(FromString("zz")))
}

func TestIndexFrom_Offsets(t *testing.T) {
	r := FromString("abcabcabc")
	sub := FromString("abc")
	assert.Equal(t, 0, r.IndexFrom(sub, 0))
	assert.Equal(t, 3, r.IndexFrom(sub, 1))
	assert.Equal(t, 6, r.IndexFrom(sub, 4))
	assert.Equal(t, -1, r.IndexFrom(sub, 7))
	assert.Equal(t, 2, r.IndexFrom(Empty[rune](), 2))
}

func TestStartsEndsWith(t *testing.T) {
	r := FromString("package rope")
	assert.True(t, r.StartsWith(FromString("package")))
	assert.True(t, r.StartsWith(Empty[rune]()))
	assert.False(t, r.StartsWith(FromString("ropes")))
	assert.True(t, r.EndsWith(FromString("rope")))
	assert.False(t, r.EndsWith(FromString("rope ")))
	assert.False(t, FromString("x").StartsWith(FromString("xy")))
}

func TestSearch_AgainstStrings(t *testing.T) {
	// Cross-check against the standard library on chunked ropes.
	text := strings.Repeat("abcxyzabc", 40)
	patterns := []string{"abc", "xyza", "zabcx", "q", "abcxyzabc"}

	var r *Rope[rune] = Empty[rune]()
	for i := 0; i < len(text); i += 7 {
		end := i + 7
		if end > len(text) {
			end = len(text)
		}
		r = r.Concat(FromString(text[i:end]))
	}

	for _, p := range patterns {
		assert.Equal(t, strings.Index(text, p), r.Index(FromString(p)), "pattern %q", p)
		assert.Equal(t, strings.LastIndex(text, p), r.LastIndex(FromString(p)), "pattern %q", p)
	}
}

func TestCommonPrefixSuffix(t *testing.T) {
	a := FromString("interchangeable")
	b := FromString("inter").Concat(FromString("national"))
	n := a.CommonPrefixLen(b)
	assert.Equal(t, 5, n)

	// Returned count never exceeds either length, and all counted
	// positions are equal.
	assert.LessOrEqual(t, n, a.Len())
	assert.LessOrEqual(t, n, b.Len())
	for i := 0; i < n; i++ {
		av, _ := a.At(i)
		bv, _ := b.At(i)
		assert.Equal(t, av, bv)
	}

	c := FromString("firewood")
	d := FromString("drift").Concat(FromString("wood"))
	assert.Equal(t, 4, c.CommonSuffixLen(d))
	assert.Equal(t, 0, c.CommonSuffixLen(Empty[rune]()))
}

func TestCommonOverlapLen(t *testing.T) {
	assert.Equal(t, 0, CommonOverlapLen(FromString(""), FromString("abcd")))
	assert.Equal(t, 3, CommonOverlapLen(FromString("abc"), FromString("abcd")))
	assert.Equal(t, 0, CommonOverlapLen(FromString("123456"), FromString("abcd")))
	assert.Equal(t, 3, CommonOverlapLen(FromString("123456xxx"), FromString("xxxabcd")))
	// Suffix of a equals prefix of b even when whole sides differ.
	assert.Equal(t, 2, CommonOverlapLen(FromString("xxab"), FromString("abyy")))
}

func TestSplit_Lazy(t *testing.T) {
	r := FromString("alpha,beta,,gamma")
	var got []string
	it := r.SplitElem(',')
	for it.Next() {
		got = append(got, Text(it.Current()))
	}
	assert.Equal(t, []string{"alpha", "beta", "", "gamma"}, got)
}

func TestSplit_SubsequenceSeparator(t *testing.T) {
	r := FromString("one::two::three")
	parts := r.Split(FromString("::")).Collect()
	var got []string
	for _, p := range parts {
		got = append(got, Text(p))
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestSplit_EdgeCases(t *testing.T) {
	// Trailing separator yields a final empty part.
	parts := FromString("a\n").SplitElem('\n').Collect()
	assert.Len(t, parts, 2)
	assert.Equal(t, "a", Text(parts[0]))
	assert.Equal(t, 0, parts[1].Len())

	// No separator yields the rope itself.
	solo := FromString("plain").SplitElem('\n').Collect()
	assert.Len(t, solo, 1)
	assert.Equal(t, "plain", Text(solo[0]))

	// Empty separator yields the whole rope once.
	whole := FromString("abc").Split(Empty[rune]()).Collect()
	assert.Len(t, whole, 1)
	assert.Equal(t, "abc", Text(whole[0]))
}
