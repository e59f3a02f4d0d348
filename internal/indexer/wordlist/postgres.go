package wordlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"

	apperrors "github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/postgres"
)

// Postgres reads words from a table with a text column named word. When
// Lexicon is set only rows whose lexicon column matches are read.
//
//	CREATE TABLE dictionary_words (
//	    word    TEXT NOT NULL,
//	    lexicon TEXT NOT NULL DEFAULT 'default'
//	);
type Postgres struct {
	DB      *postgres.Client
	Table   string
	Lexicon string
}

func (p Postgres) Name() string {
	if p.Lexicon == "" {
		return "postgres:" + p.Table
	}
	return "postgres:" + p.Table + "/" + p.Lexicon
}

func (p Postgres) Each(ctx context.Context, fn func(word string) error) error {
	query, args := p.query()
	rows, err := p.DB.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: querying %s: %w", apperrors.ErrSourceUnreadable, p.Name(), err)
	}
	defer rows.Close()

	row := 0
	for rows.Next() {
		row++
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("%w: scanning %s: %w", apperrors.ErrSourceUnreadable, p.Name(), err)
		}
		word := strings.TrimSpace(raw)
		if !usable(word, p.Name(), row) {
			continue
		}
		if err := fn(word); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterating %s: %w", apperrors.ErrSourceUnreadable, p.Name(), err)
	}
	return nil
}

func (p Postgres) query() (string, []any) {
	q := "SELECT word FROM " + pq.QuoteIdentifier(p.Table)
	if p.Lexicon == "" {
		return q, nil
	}
	return q + " WHERE lexicon = $1", []any{p.Lexicon}
}
