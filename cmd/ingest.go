package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manna-labs/manna/internal/ingest"
)

var (
	ingestDevotionals string
	ingestLessons     string
	ingestVerses      string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index content files into the vector store",
	Long: `ingest reads JSON content files, chunks and embeds their text, and
writes the chunks to PostgreSQL. Re-running ingest for the same content
replaces its previous chunks.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runIngest(cmd.Context())
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDevotionals, "devotionals", "", "path to a devotionals JSON file")
	ingestCmd.Flags().StringVar(&ingestLessons, "lessons", "", "path to a quarterly lessons JSON file")
	ingestCmd.Flags().StringVar(&ingestVerses, "verses", "", "path to a scripture verses JSON file")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(parent context.Context) error {
	if ingestDevotionals == "" && ingestLessons == "" && ingestVerses == "" {
		return fmt.Errorf("nothing to ingest: pass --devotionals, --lessons, or --verses")
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	total := 0

	if ingestDevotionals != "" {
		devotionals, err := ingest.LoadDevotionals(ingestDevotionals)
		if err != nil {
			return err
		}
		n, err := a.pipeline.IngestDevotionals(ctx, devotionals)
		if err != nil {
			return err
		}
		fmt.Printf("devotionals: %d entries, %d chunks\n", len(devotionals), n)
		total += n
	}

	if ingestLessons != "" {
		days, err := ingest.LoadLessonDays(ingestLessons)
		if err != nil {
			return err
		}
		n, err := a.pipeline.IngestLessonDays(ctx, days)
		if err != nil {
			return err
		}
		fmt.Printf("lessons: %d days, %d chunks\n", len(days), n)
		total += n
	}

	if ingestVerses != "" {
		verses, err := ingest.LoadVerses(ingestVerses)
		if err != nil {
			return err
		}
		n, err := a.pipeline.IngestVerses(ctx, verses)
		if err != nil {
			return err
		}
		fmt.Printf("verses: %d verses, %d chunks\n", len(verses), n)
		total += n
	}

	fmt.Printf("done: %d chunks indexed\n", total)
	return nil
}
