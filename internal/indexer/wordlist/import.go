package wordlist

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/postgres"
)

const defaultLexicon = "default"

// Import copies every word of src into table under lexicon in a single
// transaction, replacing any words already stored for that lexicon. It
// returns the number of rows written.
func Import(ctx context.Context, db *postgres.Client, table, lexicon string, src Source) (int, error) {
	if lexicon == "" {
		lexicon = defaultLexicon
	}
	logger := slog.Default().With("component", "wordlist-import", "table", table, "lexicon", lexicon)

	var written int
	err := db.InTx(ctx, func(tx *sql.Tx) error {
		del := "DELETE FROM " + pq.QuoteIdentifier(table) + " WHERE lexicon = $1"
		if _, err := tx.ExecContext(ctx, del, lexicon); err != nil {
			return fmt.Errorf("clearing lexicon %q: %w", lexicon, err)
		}

		stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, "word", "lexicon"))
		if err != nil {
			return fmt.Errorf("preparing copy into %s: %w", table, err)
		}
		defer stmt.Close()

		err = src.Each(ctx, func(word string) error {
			if _, err := stmt.ExecContext(ctx, word, lexicon); err != nil {
				return fmt.Errorf("copying word %q: %w", word, err)
			}
			written++
			return nil
		})
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			return fmt.Errorf("flushing copy into %s: %w", table, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.Info("word list imported", "source", src.Name(), "rows", written)
	return written, nil
}
