// Package index holds the anagram index: a mapping from a letter-multiset key
// to the set of dictionary words sharing it. An Index is assembled by a
// Builder and is immutable afterwards, so any number of goroutines may read
// it without locking.
package index

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"sort"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer/letterkey"
)

// Builder accumulates words for an Index. It is not safe for concurrent use.
type Builder struct {
	buckets map[letterkey.Key]map[string]struct{}
	words   int
}

func NewBuilder() *Builder {
	return &Builder{
		buckets: make(map[letterkey.Key]map[string]struct{}),
	}
}

// Add inserts word into the set for its key and reports whether it was new.
// Adding a word twice leaves the set unchanged. The empty word and words
// that are not valid UTF-8 are ignored.
func (b *Builder) Add(word string) bool {
	if word == "" || !utf8.ValidString(word) {
		return false
	}
	key := letterkey.Of(word)
	set, exists := b.buckets[key]
	if !exists {
		set = make(map[string]struct{}, 1)
		b.buckets[key] = set
	}
	if _, dup := set[word]; dup {
		return false
	}
	set[word] = struct{}{}
	b.words++
	return true
}

// WordCount returns the number of distinct words added so far.
func (b *Builder) WordCount() int {
	return b.words
}

// Build freezes the accumulated words into an Index. The Builder must not be
// used afterwards.
func (b *Builder) Build() *Index {
	idx := &Index{
		buckets:  make(map[letterkey.Key][]string, len(b.buckets)),
		ceilings: make(map[rune]int),
		lengths:  make(map[int]int),
		words:    b.words,
	}
	for key, set := range b.buckets {
		words := make([]string, 0, len(set))
		for w := range set {
			words = append(words, w)
		}
		sort.Strings(words)
		idx.buckets[key] = words

		n := key.Len()
		idx.lengths[n]++
		if n > idx.maxLen {
			idx.maxLen = n
		}
		for _, g := range key.Groups() {
			if g.Count > idx.ceilings[g.Rune] {
				idx.ceilings[g.Rune] = g.Count
			}
		}
	}
	idx.fingerprint = idx.computeFingerprint()
	b.buckets = nil
	return idx
}

// Index is the read-only anagram index.
type Index struct {
	buckets     map[letterkey.Key][]string
	ceilings    map[rune]int
	lengths     map[int]int
	words       int
	maxLen      int
	fingerprint string
}

// Stats summarises an Index.
type Stats struct {
	Words         int    `json:"words"`
	Keys          int    `json:"keys"`
	MaxWordLength int    `json:"max_word_length"`
	Fingerprint   string `json:"fingerprint"`
}

// Lookup returns the words sharing key, sorted ascending, or nil. The
// returned slice is shared and must not be modified.
func (x *Index) Lookup(key letterkey.Key) []string {
	return x.buckets[key]
}

// Contains reports whether word was ingested verbatim.
func (x *Index) Contains(word string) bool {
	_, found := slices.BinarySearch(x.buckets[letterkey.Of(word)], word)
	return found
}

func (x *Index) WordCount() int {
	return x.words
}

func (x *Index) KeyCount() int {
	return len(x.buckets)
}

// MaxWordLength is the rune length of the longest word.
func (x *Index) MaxWordLength() int {
	return x.maxLen
}

// Ceiling returns the largest multiplicity of r in any indexed word. A
// subset holding r more often than this cannot match anything.
func (x *Index) Ceiling(r rune) int {
	return x.ceilings[r]
}

// HasLength reports whether some indexed word is exactly n runes long.
func (x *Index) HasLength(n int) bool {
	return x.lengths[n] > 0
}

// Fingerprint is a hex digest of the indexed word set. Indexes built from
// the same set of words share a fingerprint regardless of ingestion order.
func (x *Index) Fingerprint() string {
	return x.fingerprint
}

func (x *Index) Stats() Stats {
	return Stats{
		Words:         x.words,
		Keys:          len(x.buckets),
		MaxWordLength: x.maxLen,
		Fingerprint:   x.fingerprint,
	}
}

func (x *Index) computeFingerprint() string {
	keys := make([]letterkey.Key, 0, len(x.buckets))
	for key := range x.buckets {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	h := sha256.New()
	for _, key := range keys {
		for _, w := range x.buckets[key] {
			h.Write([]byte(w))
			h.Write([]byte{0})
		}
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
