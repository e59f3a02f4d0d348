// Package solver finds sub-anagrams: dictionary words that can be spelled
// from some subset of a query word's letters.
//
// For each subset size from 1 to the query length the solver enumerates the
// distinct letter multisets of that size drawn from the query, looks each
// one up in the index, and yields the words found there, excluding the query
// itself. Enumerating multisets rather than position combinations means a
// query with repeated letters never produces the same subset twice, and
// since every word lives under exactly one key the output holds no
// duplicates.
//
// The work is exponential in the query length: a query of n distinct letters
// has 2^n - 1 subsets. With pruning enabled the walk skips subset sizes that
// no dictionary word has, sizes beyond the longest word, and letter counts
// above the highest multiplicity that letter reaches in any dictionary word.
// None of these cuts can drop a match.
package solver

import (
	"context"
	"iter"
	"log/slog"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer/letterkey"
)

// ctxCheckInterval is how many subsets are visited between context checks.
const ctxCheckInterval = 1024

type Solver struct {
	idx    *index.Index
	prune  bool
	logger *slog.Logger
}

type Option func(*Solver)

// WithPruning toggles enumeration pruning. It is on by default.
func WithPruning(enabled bool) Option {
	return func(s *Solver) {
		s.prune = enabled
	}
}

// New returns a Solver reading idx. The index is never modified, so one
// index may back any number of solvers running concurrently.
func New(idx *index.Index, opts ...Option) *Solver {
	s := &Solver{
		idx:    idx,
		prune:  true,
		logger: slog.Default().With("component", "solver"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve returns the sub-anagrams of word found in idx using default options.
func Solve(idx *index.Index, word string) iter.Seq[string] {
	return New(idx).Solve(word)
}

// Solve returns a lazy sequence of the dictionary words spellable from a
// subset of word's letters, excluding word itself. Each range over the
// sequence repeats the search. Order is unspecified. A word that is not
// valid UTF-8 yields nothing.
func (s *Solver) Solve(word string) iter.Seq[string] {
	return func(yield func(string) bool) {
		w := s.newWalk(context.Background(), word, yield)
		w.run()
	}
}

// Result is a fully collected solve.
type Result struct {
	Query   string   `json:"query"`
	Matches []string `json:"matches"`
	// Subsets is the number of distinct letter multisets looked up.
	Subsets int `json:"subsets"`
}

// Collect runs the search to completion, or until ctx is done, in which case
// it returns the context error along with the matches found so far.
func (s *Solver) Collect(ctx context.Context, word string) (*Result, error) {
	res := &Result{Query: word, Matches: []string{}}
	w := s.newWalk(ctx, word, func(match string) bool {
		res.Matches = append(res.Matches, match)
		return true
	})
	w.run()
	res.Subsets = w.subsets
	if w.err != nil {
		s.logger.Warn("solve interrupted",
			"query", word,
			"subsets", w.subsets,
			"matches", len(res.Matches),
			"error", w.err,
		)
		return res, w.err
	}
	s.logger.Debug("solve finished",
		"query", word,
		"subsets", w.subsets,
		"matches", len(res.Matches),
	)
	return res, nil
}

type walk struct {
	ctx     context.Context
	idx     *index.Index
	query   string
	prune   bool
	groups  []letterkey.Group
	caps    []int
	suffix  []int
	buf     []rune
	yield   func(string) bool
	subsets int
	err     error
}

func (s *Solver) newWalk(ctx context.Context, word string, yield func(string) bool) *walk {
	var groups []letterkey.Group
	// Invalid UTF-8 has no letters to draw from; the index holds none.
	if utf8.ValidString(word) {
		groups = letterkey.Of(word).Groups()
	}
	w := &walk{
		ctx:    ctx,
		idx:    s.idx,
		query:  word,
		prune:  s.prune,
		groups: groups,
		caps:   make([]int, len(groups)),
		suffix: make([]int, len(groups)+1),
		yield:  yield,
	}
	for i, g := range groups {
		w.caps[i] = g.Count
		if s.prune {
			w.caps[i] = min(g.Count, s.idx.Ceiling(g.Rune))
		}
	}
	for i := len(groups) - 1; i >= 0; i-- {
		w.suffix[i] = w.suffix[i+1] + w.caps[i]
	}
	w.buf = make([]rune, 0, w.suffix[0])
	return w
}

func (w *walk) run() {
	if err := w.ctx.Err(); err != nil {
		w.err = err
		return
	}
	maxSize := w.suffix[0]
	if w.prune {
		maxSize = min(maxSize, w.idx.MaxWordLength())
	}
	for size := 1; size <= maxSize; size++ {
		if w.prune && !w.idx.HasLength(size) {
			continue
		}
		if !w.choose(0, size) {
			return
		}
	}
}

// choose appends between zero and caps[gi] copies of group gi's rune and
// recurses until exactly remaining more runes have been picked. Runes are
// appended in ascending order, so buf is always a valid key.
func (w *walk) choose(gi, remaining int) bool {
	if remaining == 0 {
		return w.visit()
	}
	if w.suffix[gi] < remaining {
		return true
	}
	r := w.groups[gi].Rune
	most := min(w.caps[gi], remaining)
	mark := len(w.buf)
	for c := 0; c <= most; c++ {
		if c > 0 {
			w.buf = append(w.buf, r)
		}
		if !w.choose(gi+1, remaining-c) {
			return false
		}
	}
	w.buf = w.buf[:mark]
	return true
}

func (w *walk) visit() bool {
	w.subsets++
	if w.subsets%ctxCheckInterval == 0 {
		if err := w.ctx.Err(); err != nil {
			w.err = err
			return false
		}
	}
	for _, word := range w.idx.Lookup(letterkey.Key(string(w.buf))) {
		if word == w.query {
			continue
		}
		if !w.yield(word) {
			return false
		}
	}
	return true
}
