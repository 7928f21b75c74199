// Package cmd implements the manna command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "manna",
	Short: "manna - retrieval-augmented answers over devotional and Bible study content",
	Long: `manna indexes devotionals, Sabbath School quarterly lessons, and
scripture into PostgreSQL with pgvector, and answers questions grounded
in that content with numbered citations.

Run "manna ingest" to index content, "manna serve" to start the HTTP
API, or "manna ask" to ask a question from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
