package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer/letterkey"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer/wordlist"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/errors"
)

func TestBuildFromReader(t *testing.T) {
	src := wordlist.Reader{R: strings.NewReader("dog\ngod\n go \ndo\n\ncat\ndog\n")}
	idx, err := Build(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 5, idx.WordCount())
	assert.Equal(t, 4, idx.KeyCount())
	assert.Equal(t, []string{"dog", "god"}, idx.Lookup(letterkey.Of("dog")))
	assert.True(t, idx.Contains("go"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nan\nant\n"), 0o644))

	idx, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.WordCount())
	assert.Equal(t, 3, idx.MaxWordLength())
}

func TestLoadMissingFileReturnsNoIndex(t *testing.T) {
	idx, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.Nil(t, idx)
	assert.ErrorIs(t, err, apperrors.ErrSourceUnreadable)
}

type halfBrokenSource struct{}

func (halfBrokenSource) Name() string { return "half-broken" }

func (halfBrokenSource) Each(_ context.Context, fn func(string) error) error {
	if err := fn("dog"); err != nil {
		return err
	}
	return errors.Join(apperrors.ErrSourceUnreadable, errors.New("connection reset"))
}

func TestBuildDiscardsPartialIndexOnFailure(t *testing.T) {
	idx, err := Build(context.Background(), halfBrokenSource{})
	require.Error(t, err)
	assert.Nil(t, idx)
	assert.ErrorIs(t, err, apperrors.ErrSourceUnreadable)
	assert.Contains(t, err.Error(), "half-broken")
}

func TestBuildEmptySource(t *testing.T) {
	idx, err := Build(context.Background(), wordlist.Words{})
	require.NoError(t, err)
	assert.Zero(t, idx.WordCount())
}

func TestSourceFor(t *testing.T) {
	src, err := SourceFor(config.DictionaryConfig{Source: config.SourceFile, Path: "words.txt"}, nil)
	require.NoError(t, err)
	assert.Equal(t, wordlist.File{Path: "words.txt"}, src)

	_, err = SourceFor(config.DictionaryConfig{Source: config.SourcePostgres, Table: "dictionary_words"}, nil)
	assert.ErrorContains(t, err, "needs a database connection")

	_, err = SourceFor(config.DictionaryConfig{Source: "s3"}, nil)
	assert.ErrorContains(t, err, `unknown dictionary source "s3"`)
}
