// Package indexer builds the anagram index from a word-list source.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer/wordlist"
)

// Build reads every word from src and returns the finished index. On any
// read failure it returns the error and no index, so a partially ingested
// dictionary is never observable.
func Build(ctx context.Context, src wordlist.Source) (*index.Index, error) {
	start := time.Now()
	logger := slog.Default().With("component", "indexer", "source", src.Name())

	b := index.NewBuilder()
	duplicates := 0
	err := src.Each(ctx, func(word string) error {
		if !b.Add(word) {
			duplicates++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("building index from %s: %w", src.Name(), err)
	}

	idx := b.Build()
	logger.Info("dictionary indexed",
		"words", idx.WordCount(),
		"keys", idx.KeyCount(),
		"duplicates", duplicates,
		"max_word_length", idx.MaxWordLength(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return idx, nil
}

// Load is Build over a word-list file, one word per line.
func Load(ctx context.Context, path string) (*index.Index, error) {
	return Build(ctx, wordlist.File{Path: path})
}
