package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer/wordlist"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/postgres"
)

func newImportCmd(opts *solveOptions) *cobra.Command {
	var lexicon string
	cmd := &cobra.Command{
		Use:   "import WORD_LIST",
		Short: "Load a word list file into the PostgreSQL dictionary table",
		Long: `import replaces the words of one lexicon in the configured dictionary
table with the contents of WORD_LIST. The postgres section of --config
supplies the connection.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if lexicon == "" {
				lexicon = cfg.Dictionary.Lexicon
			}
			db, err := postgres.New(cmd.Context(), cfg.Postgres)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := wordlist.Import(cmd.Context(), db, cfg.Dictionary.Table, lexicon, wordlist.File{Path: args[0]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "imported %d words into %s\n", n, cfg.Dictionary.Table)
			return nil
		},
	}
	cmd.Flags().StringVar(&lexicon, "lexicon", "", "lexicon to replace (defaults to dictionary.lexicon, then \"default\")")
	return cmd
}
