package index

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer/letterkey"
)

func build(words ...string) *Index {
	b := NewBuilder()
	for _, w := range words {
		b.Add(w)
	}
	return b.Build()
}

func TestLookupGroupsAnagrams(t *testing.T) {
	idx := build("dog", "god", "go", "do", "cat")

	assert.Equal(t, []string{"dog", "god"}, idx.Lookup(letterkey.Of("odg")))
	assert.Equal(t, []string{"go"}, idx.Lookup(letterkey.Of("og")))
	assert.Equal(t, []string{"cat"}, idx.Lookup(letterkey.Of("act")))
	assert.Nil(t, idx.Lookup(letterkey.Of("xyz")))
}

func TestAddIsIdempotent(t *testing.T) {
	b := NewBuilder()
	assert.True(t, b.Add("dog"))
	assert.False(t, b.Add("dog"))
	assert.True(t, b.Add("god"))
	assert.False(t, b.Add(""))
	assert.False(t, b.Add("g\xffd"))
	assert.Equal(t, 2, b.WordCount())

	once := build("dog", "god")
	twice := b.Build()
	assert.Equal(t, once.KeyCount(), twice.KeyCount())
	assert.Equal(t, once.Lookup(letterkey.Of("dog")), twice.Lookup(letterkey.Of("dog")))
	assert.Equal(t, once.Fingerprint(), twice.Fingerprint())
}

func TestContains(t *testing.T) {
	idx := build("dog", "god")
	assert.True(t, idx.Contains("dog"))
	assert.True(t, idx.Contains("god"))
	assert.False(t, idx.Contains("odg"))
	assert.False(t, idx.Contains(""))
}

func TestStatsAndPruningBounds(t *testing.T) {
	idx := build("a", "an", "ant", "bb", "sleeve")

	stats := idx.Stats()
	assert.Equal(t, 5, stats.Words)
	assert.Equal(t, 5, stats.Keys)
	assert.Equal(t, 6, stats.MaxWordLength)
	assert.Len(t, stats.Fingerprint, 32)

	assert.Equal(t, 3, idx.Ceiling('e'))
	assert.Equal(t, 2, idx.Ceiling('b'))
	assert.Equal(t, 1, idx.Ceiling('a'))
	assert.Equal(t, 0, idx.Ceiling('z'))

	assert.True(t, idx.HasLength(1))
	assert.True(t, idx.HasLength(6))
	assert.False(t, idx.HasLength(4))
	assert.False(t, idx.HasLength(7))
}

func TestFingerprintIgnoresIngestionOrder(t *testing.T) {
	a := build("cat", "act", "dog", "dog")
	b := build("dog", "act", "cat")
	c := build("dog", "act")

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestEmpty(t *testing.T) {
	idx := NewBuilder().Build()
	assert.Zero(t, idx.WordCount())
	assert.Zero(t, idx.KeyCount())
	assert.Zero(t, idx.MaxWordLength())
	assert.Nil(t, idx.Lookup(letterkey.Of("a")))
	assert.NotEmpty(t, idx.Fingerprint())
}
