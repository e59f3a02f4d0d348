package main

import (
	"bufio"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/solver"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/logger"
)

type solveOptions struct {
	configPath string
	logLevel   string
	maxLength  int
	noPrune    bool
	count      bool
	sorted     bool
}

func newRootCmd() *cobra.Command {
	var opts solveOptions
	cmd := &cobra.Command{
		Use:   "jumble WORD_LIST WORD",
		Short: "Find the words spellable from a subset of WORD's letters",
		Long: `jumble reads WORD_LIST (one word per line) and prints every entry that
uses some of the letters of WORD, each letter at most as often as it
appears in WORD. WORD itself is never printed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runSolve(cmd, opts, args[0], args[1])
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "optional YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.Flags().IntVar(&opts.maxLength, "max-length", 0, "reject words longer than this many letters (0 = no limit)")
	cmd.Flags().BoolVar(&opts.noPrune, "no-prune", false, "disable enumeration pruning")
	cmd.Flags().BoolVar(&opts.count, "count", false, "print only the number of matches")
	cmd.Flags().BoolVar(&opts.sorted, "sort", false, "print matches in sorted order")

	cmd.AddCommand(newImportCmd(&opts))
	return cmd
}

// loadConfig returns the file config when --config is set and the defaults
// otherwise, and configures logging to stderr.
func loadConfig(cmd *cobra.Command, opts *solveOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}
	level := cfg.Logging.Level
	if cmd.Flags().Changed("log-level") || opts.configPath == "" {
		level = opts.logLevel
	}
	logger.SetupWriter(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	return cfg, nil
}

func runSolve(cmd *cobra.Command, opts solveOptions, listPath, word string) error {
	cfg, err := loadConfig(cmd, &opts)
	if err != nil {
		return err
	}

	maxLength, prune := opts.maxLength, !opts.noPrune
	if opts.configPath != "" {
		if !cmd.Flags().Changed("max-length") {
			maxLength = cfg.Solver.MaxQueryLength
		}
		if !cmd.Flags().Changed("no-prune") {
			prune = cfg.Solver.Prune
		}
	}
	if !utf8.ValidString(word) {
		return fmt.Errorf("%w: word is not valid UTF-8", apperrors.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(word); maxLength > 0 && n > maxLength {
		return fmt.Errorf("%w: %d letters, limit is %d", apperrors.ErrQueryTooLong, n, maxLength)
	}

	idx, err := indexer.Load(cmd.Context(), listPath)
	if err != nil {
		return err
	}

	matches := solver.New(idx, solver.WithPruning(prune)).Solve(word)
	out := bufio.NewWriter(cmd.OutOrStdout())

	switch {
	case opts.count:
		n := 0
		for range matches {
			n++
		}
		fmt.Fprintln(out, n)
	case opts.sorted:
		matches = slices.Values(slices.Sorted(matches))
		fallthrough
	default:
		for m := range matches {
			// bufio.Writer keeps the first error; Flush reports it.
			if _, err := fmt.Fprintln(out, m); err != nil {
				break
			}
		}
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("writing matches: %w", err)
	}
	return nil
}
