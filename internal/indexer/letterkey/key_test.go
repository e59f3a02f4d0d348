package letterkey

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestOfAnagramEquivalence(t *testing.T) {
	tests := []struct {
		a, b    string
		anagram bool
	}{
		{"dog", "god", true},
		{"listen", "silent", true},
		{"", "", true},
		{"aab", "aba", true},
		{"aab", "abb", false},
		{"ab", "abc", false},
		{"Dog", "god", false},
		{"café", "éfac", true},
		{"café", "cafe", false},
		{"\xff", "\xfe", false},
		{"caf\xe9", "caf\xe8", false},
		{"caf\xe9", "\xe9fac", true},
		{"\xff", "\uFFFD", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.anagram, Of(tt.a) == Of(tt.b))
		})
	}
}

func TestOfIsSortedRunes(t *testing.T) {
	assert.Equal(t, Key("dgo"), Of("god"))
	assert.Equal(t, Key("aabn"), Of("bana"))
	assert.Equal(t, Key(""), Of(""))
}

func TestOfInvalidUTF8KeysBytes(t *testing.T) {
	assert.Equal(t, Key("acf\xe9"), Of("caf\xe9"))
	assert.NotEqual(t, Of("\xff"), Of("\xfe"))
	assert.False(t, utf8.ValidString(string(Of("\xe9a"))))
}

func TestLen(t *testing.T) {
	assert.Equal(t, 0, Of("").Len())
	assert.Equal(t, 3, Of("bab").Len())
	assert.Equal(t, 4, Of("café").Len())
}

func TestGroups(t *testing.T) {
	assert.Equal(t, []Group{{'a', 1}, {'b', 2}}, Of("bab").Groups())
	assert.Equal(t, []Group{{'e', 3}, {'l', 1}, {'s', 1}, {'v', 1}}, Of("sleeve").Groups())
	assert.Nil(t, Of("").Groups())
}
