package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/lessonbank/internal/corpus"
	"github.com/fyrsmithlabs/lessonbank/internal/index"
)

var rebuildOutputPath string

func init() {
	rootCmd.AddCommand(rebuildIndexCmd)
	rebuildIndexCmd.Flags().StringVar(&rebuildOutputPath, "output", "", "Index output path (defaults to <corpus-root>/index.json)")
}

var rebuildIndexCmd = &cobra.Command{
	Use:   "rebuild-index",
	Short: "Rebuild the lessons index from the corpus",
	Long: `Rebuild the derived index artifact from the lessons corpus.

The index is a disposable cache: rebuilding it on an unchanged corpus yields
identical lessons and stats, only the generatedAt timestamp moves.

Examples:
  # Rebuild the index at the default location
  lessonbank rebuild-index

  # Rebuild against a different corpus
  lessonbank rebuild-index --corpus-root docs/lessons --output docs/lessons/index.json`,
	RunE: runRebuildIndex,
}

func runRebuildIndex(cmd *cobra.Command, args []string) error {
	outputPath := rebuildOutputPath
	if outputPath == "" {
		outputPath = cfg.Paths.Index
	}

	entries, err := corpus.Scan(cfg.Paths.CorpusRoot, time.Now())
	if err != nil {
		return fmt.Errorf("scanning corpus: %w", err)
	}
	if err := index.Write(index.Build(entries, time.Now()), outputPath); err != nil {
		return err
	}

	fmt.Printf("Index updated: %s\n", outputPath)
	fmt.Printf("Lessons indexed: %d\n", len(entries))
	return nil
}
