// Package wordlist reads candidate dictionary words from a source: a text
// file or reader with one word per line, or a PostgreSQL table. Every word
// is trimmed of surrounding whitespace and blank entries are skipped, as are
// entries that are not valid UTF-8.
package wordlist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	apperrors "github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/errors"
)

const maxLineBytes = 1 << 20

// Source yields dictionary words. Each calls fn once per non-empty trimmed
// word and stops at the first error fn returns. Failures to read the source
// itself wrap errors.ErrSourceUnreadable.
type Source interface {
	Name() string
	Each(ctx context.Context, fn func(word string) error) error
}

// File reads a word list from a path on disk.
type File struct {
	Path string
}

func (f File) Name() string {
	return "file:" + f.Path
}

func (f File) Each(ctx context.Context, fn func(word string) error) error {
	fh, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrSourceUnreadable, err)
	}
	defer fh.Close()
	return scan(ctx, fh, f.Name(), fn)
}

// Reader reads a word list from an already open stream.
type Reader struct {
	R     io.Reader
	Label string
}

func (r Reader) Name() string {
	if r.Label == "" {
		return "reader"
	}
	return r.Label
}

func (r Reader) Each(ctx context.Context, fn func(word string) error) error {
	return scan(ctx, r.R, r.Name(), fn)
}

// Words is an in-memory word list, mostly useful in tests.
type Words []string

func (w Words) Name() string {
	return "memory"
}

func (w Words) Each(ctx context.Context, fn func(word string) error) error {
	for i, line := range w {
		word := strings.TrimSpace(line)
		if !usable(word, w.Name(), i+1) {
			continue
		}
		if err := fn(word); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// usable reports whether word should be passed on. Invalid UTF-8 is logged
// and dropped: its letters cannot be compared rune by rune.
func usable(word, source string, line int) bool {
	if word == "" {
		return false
	}
	if !utf8.ValidString(word) {
		slog.Warn("skipping word with invalid UTF-8", "source", source, "line", line, "word", fmt.Sprintf("%q", word))
		return false
	}
	return true
}

func scan(ctx context.Context, r io.Reader, name string, fn func(word string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lines := 0
	for scanner.Scan() {
		lines++
		if lines%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		word := strings.TrimSpace(scanner.Text())
		if !usable(word, name, lines) {
			continue
		}
		if err := fn(word); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: reading %s at line %d: %w", apperrors.ErrSourceUnreadable, name, lines+1, err)
	}
	return nil
}
