package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manna-labs/manna/internal/answer"
	"github.com/manna-labs/manna/internal/engine"
)

var (
	askMode   string
	askSource string
	askDate   string
	askNoSSE  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd.Context(), strings.Join(args, " "))
	},
}

func init() {
	askCmd.Flags().StringVar(&askMode, "mode", "", "answer mode: general, quarterly, or devotional")
	askCmd.Flags().StringVar(&askSource, "source", "", "restrict to one source kind: devotional, quarterly, or bible")
	askCmd.Flags().StringVar(&askDate, "date", "", "restrict to entries for an ISO date (YYYY-MM-DD)")
	askCmd.Flags().BoolVar(&askNoSSE, "no-stream", false, "wait for the complete answer instead of streaming")
	rootCmd.AddCommand(askCmd)
}

func runAsk(parent context.Context, question string) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	req := engine.Request{
		Query:  question,
		Mode:   askMode,
		Source: askSource,
		Date:   askDate,
	}

	if askNoSSE {
		ans, err := a.engine.Ask(ctx, req)
		if err != nil {
			return err
		}
		fmt.Println(ans.Text)
		printSourceList(ans.Sources, ans.Citations)
		return nil
	}

	sources, stream, err := a.engine.AskStream(ctx, req)
	if err != nil {
		return err
	}

	for text, streamErr := range stream {
		if streamErr != nil {
			fmt.Fprintln(os.Stderr)
			return streamErr
		}
		fmt.Print(text)
	}
	fmt.Println()

	printSourceList(sources, nil)
	return nil
}

// printSourceList shows the numbered sources under the answer. Cited
// sources get a marker; uncited ones are still listed since the model
// may have drawn on them without marking it.
func printSourceList(sources []answer.Source, citations []int) {
	if len(sources) == 0 {
		return
	}
	fmt.Println("\nSources:")
	cited := make(map[int]bool, len(citations))
	for _, c := range citations {
		cited[c] = true
	}
	for _, s := range sources {
		marker := " "
		if cited[s.Index] {
			marker = "*"
		}
		fmt.Printf("%s [%d] %s\n", marker, s.Index, s.Label)
	}
}
