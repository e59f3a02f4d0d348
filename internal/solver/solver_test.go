package solver

import (
	"context"
	"iter"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer/letterkey"
)

func buildIndex(words ...string) *index.Index {
	b := index.NewBuilder()
	for _, w := range words {
		b.Add(w)
	}
	return b.Build()
}

func sorted(seq iter.Seq[string]) []string {
	out := []string{}
	for w := range seq {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name  string
		words []string
		query string
		want  []string
	}{
		{"A dog", []string{"dog", "god", "go", "do", "cat"}, "dog", []string{"do", "go", "god"}},
		{"B ant", []string{"a", "an", "ant"}, "ant", []string{"a", "an"}},
		{"C self only", []string{"dog"}, "dog", nil},
		{"D empty index", nil, "anything", nil},
		{"E repeated letter", []string{"bb"}, "bab", []string{"bb"}},
	}
	for _, tt := range tests {
		for _, prune := range []bool{true, false} {
			name := tt.name
			if !prune {
				name += " unpruned"
			}
			t.Run(name, func(t *testing.T) {
				s := New(buildIndex(tt.words...), WithPruning(prune))
				got := sorted(s.Solve(tt.query))
				if tt.want == nil {
					assert.Empty(t, got)
					return
				}
				assert.Equal(t, tt.want, got)
			})
		}
	}
}

func TestEmptyQuery(t *testing.T) {
	idx := buildIndex("a", "an", "ant")
	assert.Empty(t, slices.Collect(Solve(idx, "")))

	res, err := New(idx).Collect(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.NotNil(t, res.Matches)
	assert.Zero(t, res.Subsets)
}

func TestSelfExclusionKeepsOtherAnagrams(t *testing.T) {
	idx := buildIndex("listen", "silent", "enlist", "tin")
	got := sorted(Solve(idx, "listen"))
	assert.Equal(t, []string{"enlist", "silent", "tin"}, got)
	assert.NotContains(t, got, "listen")
}

func TestCaseIsExact(t *testing.T) {
	idx := buildIndex("Dog", "go")
	assert.Equal(t, []string{"go"}, sorted(Solve(idx, "dog")))
	assert.Equal(t, []string{"Dog", "go"}, sorted(Solve(idx, "Dgo")))
}

func TestMultiByteRunes(t *testing.T) {
	idx := buildIndex("été", "té", "et")
	// "et" uses a plain e, which "tété" does not contain
	assert.Equal(t, []string{"té", "été"}, sorted(Solve(idx, "tété")))
}

func TestInvalidUTF8QueryYieldsNothing(t *testing.T) {
	idx := buildIndex("\xfe", "dog", "d", "o")
	assert.Empty(t, sorted(Solve(idx, "\xff")))
	assert.Empty(t, sorted(Solve(idx, "do\xff")))
	assert.Equal(t, []string{"d", "o"}, sorted(Solve(idx, "do")))
}

func TestSolveIsRestartable(t *testing.T) {
	seq := Solve(buildIndex("dog", "god", "go", "do"), "dog")
	first := sorted(seq)
	second := sorted(seq)
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

func TestSolveStopsWhenConsumerBreaks(t *testing.T) {
	idx := buildIndex("a", "b", "c", "ab", "bc", "abc")
	var got []string
	for w := range Solve(idx, "abcd") {
		got = append(got, w)
		if len(got) == 2 {
			break
		}
	}
	assert.Len(t, got, 2)
}

func TestCollectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := New(buildIndex("a")).Collect(ctx, "aaa")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Matches)
}

func TestCollectCancelledMidway(t *testing.T) {
	// 16 distinct letters give 65535 subsets, enough to hit a context check.
	words := make([]string, 0, 16)
	query := "abcdefghijklmnop"
	for _, r := range query {
		words = append(words, string(r))
	}
	idx := buildIndex(append(words, query)...)

	ctx, cancel := context.WithCancel(context.Background())
	s := New(idx, WithPruning(false))
	seen := 0
	w := s.newWalk(ctx, query, func(string) bool {
		seen++
		if seen == 3 {
			cancel()
		}
		return true
	})
	w.run()
	require.ErrorIs(t, w.err, context.Canceled)
	assert.Less(t, w.subsets, 1<<16-1)
}

func TestCollectCountsSubsets(t *testing.T) {
	idx := buildIndex("dog", "god", "go", "do", "cat")

	res, err := New(idx, WithPruning(false)).Collect(context.Background(), "dog")
	require.NoError(t, err)
	assert.Equal(t, 7, res.Subsets)
	assert.Equal(t, "dog", res.Query)

	// repeated letters collapse: "bab" has {a},{b},{ab},{bb},{abb}
	res, err = New(buildIndex("zz"), WithPruning(false)).Collect(context.Background(), "bab")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Subsets)
}

func TestPruningSkipsImpossibleSubsets(t *testing.T) {
	idx := buildIndex("do", "go")
	pruned, err := New(idx).Collect(context.Background(), "dogged")
	require.NoError(t, err)
	full, err := New(idx, WithPruning(false)).Collect(context.Background(), "dogged")
	require.NoError(t, err)

	assert.ElementsMatch(t, full.Matches, pruned.Matches)
	assert.Less(t, pruned.Subsets, full.Subsets)
	// only size-2 subsets over {d,g,o} with at most one of each survive
	assert.Equal(t, 3, pruned.Subsets)
}

// combinationReference follows the literal definition: every combination of
// character positions, deduplicated as sorted tuples, looked up one by one.
func combinationReference(idx *index.Index, query string) []string {
	runes := []rune(query)
	seen := make(map[letterkey.Key]struct{})
	out := []string{}
	n := len(runes)
	for mask := 1; mask < 1<<n; mask++ {
		pick := make([]rune, 0, n)
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				pick = append(pick, runes[i])
			}
		}
		key := letterkey.FromRunes(pick)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		for _, w := range idx.Lookup(key) {
			if w != query {
				out = append(out, w)
			}
		}
	}
	slices.Sort(out)
	return out
}

func countsOf(word string) letterCounts {
	c := make(letterCounts)
	for _, r := range word {
		c[r]++
	}
	return c
}

type letterCounts map[rune]int

// subsetOf reports whether every rune of c occurs in other at least as often.
func (c letterCounts) subsetOf(other letterCounts) bool {
	for r, n := range c {
		if other[r] < n {
			return false
		}
	}
	return true
}

// bruteForce scans the whole dictionary for sub-multisets of query.
func bruteForce(words []string, query string) []string {
	q := countsOf(query)
	set := make(map[string]struct{})
	for _, w := range words {
		if w != "" && w != query && countsOf(w).subsetOf(q) {
			set[w] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}

func randomWord(rng *rand.Rand, alphabet []rune, maxLen int) string {
	n := 1 + rng.IntN(maxLen)
	out := make([]rune, n)
	for i := range out {
		out[i] = alphabet[rng.IntN(len(alphabet))]
	}
	return string(out)
}

func TestMatchesReferenceImplementations(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	alphabet := []rune("aabbcdeé")

	for round := 0; round < 40; round++ {
		words := make([]string, 0, 200)
		for i := 0; i < 200; i++ {
			words = append(words, randomWord(rng, alphabet, 6))
		}
		idx := buildIndex(words...)

		for q := 0; q < 10; q++ {
			query := randomWord(rng, alphabet, 9)
			if q == 0 {
				query = words[rng.IntN(len(words))]
			}
			want := bruteForce(words, query)
			reference := combinationReference(idx, query)
			pruned := sorted(New(idx).Solve(query))
			full := sorted(New(idx, WithPruning(false)).Solve(query))

			require.Equal(t, want, reference, "reference query=%q", query)
			require.Equal(t, want, pruned, "pruned query=%q", query)
			require.Equal(t, want, full, "unpruned query=%q", query)
		}
	}
}

func TestNoDuplicateYields(t *testing.T) {
	idx := buildIndex("a", "aa", "ab", "ba", "aab", "b")
	got := slices.Collect(Solve(idx, "aabb"))
	uniq := slices.Compact(slices.Sorted(slices.Values(got)))
	assert.Len(t, got, len(uniq))
	assert.ElementsMatch(t, []string{"a", "aa", "ab", "ba", "aab", "b"}, got)
}

func TestSubsetSoundness(t *testing.T) {
	idx := buildIndex("dog", "good", "gods", "dogs", "odd", "go", "goo")
	q := countsOf("goods")
	for w := range Solve(idx, "goods") {
		assert.True(t, countsOf(w).subsetOf(q), "%q is not spellable from goods", w)
	}
}

func TestConcurrentSolvesShareIndex(t *testing.T) {
	idx := buildIndex("dog", "god", "go", "do", "cat", "act", "tac", "at")
	s := New(idx)
	queries := map[string][]string{
		"dog":  {"do", "go", "god"},
		"cat":  {"act", "at", "tac"},
		"goat": {"at", "go"},
	}

	var wg sync.WaitGroup
	for range 16 {
		for q, want := range queries {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.Equal(t, want, sorted(s.Solve(q)))
			}()
		}
	}
	wg.Wait()
}
