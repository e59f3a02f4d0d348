package indexer

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer/wordlist"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/postgres"
)

// SourceFor returns the word-list source selected by cfg. db is only
// consulted for the postgres source and must then be non-nil.
func SourceFor(cfg config.DictionaryConfig, db *postgres.Client) (wordlist.Source, error) {
	switch cfg.Source {
	case config.SourceFile, "":
		return wordlist.File{Path: cfg.Path}, nil
	case config.SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("dictionary source %q needs a database connection", cfg.Source)
		}
		return wordlist.Postgres{DB: db, Table: cfg.Table, Lexicon: cfg.Lexicon}, nil
	default:
		return nil, fmt.Errorf("unknown dictionary source %q", cfg.Source)
	}
}
