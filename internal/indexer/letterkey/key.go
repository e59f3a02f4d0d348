// Package letterkey computes the canonical letter-multiset key shared by the
// dictionary index and the solver. Two strings have equal keys exactly when
// they are anagrams of each other: same runes with the same multiplicities.
package letterkey

import (
	"slices"
	"unicode/utf8"
)

// Key is a word's runes sorted ascending and re-encoded as UTF-8. It is
// comparable and usable as a map key.
type Key string

// Of returns the key for word. Runes are compared exactly; no case folding
// or normalisation is applied. A word that is not valid UTF-8 is keyed by
// its sorted bytes instead, so distinct invalid bytes never share a key.
// Such keys are never valid UTF-8 and cannot equal the key of a valid word.
func Of(word string) Key {
	if !utf8.ValidString(word) {
		b := []byte(word)
		slices.Sort(b)
		return Key(b)
	}
	return FromRunes([]rune(word))
}

// FromRunes returns the key for the multiset held in runes. The slice is
// sorted in place.
func FromRunes(runes []rune) Key {
	slices.Sort(runes)
	return Key(string(runes))
}

// Len returns the number of runes in the multiset.
func (k Key) Len() int {
	return utf8.RuneCountInString(string(k))
}

// Group is a run of identical runes in a key.
type Group struct {
	Rune  rune
	Count int
}

// Groups returns the key's runes as ascending (rune, count) runs.
func (k Key) Groups() []Group {
	var groups []Group
	for _, r := range string(k) {
		if n := len(groups); n > 0 && groups[n-1].Rune == r {
			groups[n-1].Count++
			continue
		}
		groups = append(groups, Group{Rune: r, Count: 1})
	}
	return groups
}
