// Command jumble prints every word from a word list that can be spelled
// with some of the letters of a given word.
//
// Usage:
//
//	jumble WORD_LIST WORD
//	jumble import WORD_LIST --config configs/development.yaml
//
// Matches go to stdout, one per line. Diagnostics go to stderr.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
