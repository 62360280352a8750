package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/lessonbank/internal/preflight"
)

var (
	preflightTask          string
	preflightTop           int
	preflightPrinciplesMax int
	preflightPatternsMax   int
	preflightCasesMax      int
	preflightIndexPath     string
	preflightLegacyPath    string
)

func init() {
	rootCmd.AddCommand(preflightCmd)
	preflightCmd.Flags().StringVar(&preflightTask, "task", "", "Task text to select lessons for (required)")
	preflightCmd.Flags().IntVar(&preflightTop, "top", 0, "Maximum lessons to select (defaults from config)")
	preflightCmd.Flags().IntVar(&preflightPrinciplesMax, "principles-max", -1, "Per-level quota for principles")
	preflightCmd.Flags().IntVar(&preflightPatternsMax, "patterns-max", -1, "Per-level quota for patterns")
	preflightCmd.Flags().IntVar(&preflightCasesMax, "cases-max", -1, "Per-level quota for cases")
	preflightCmd.Flags().StringVar(&preflightIndexPath, "index", "", "Index artifact path (defaults from config)")
	preflightCmd.Flags().StringVar(&preflightLegacyPath, "legacy-path", "", "Legacy flat lessons file (defaults from config)")
	_ = preflightCmd.MarkFlagRequired("task")
}

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Select the lessons most relevant to a task",
	Long: `Score every lesson against the task text and select the top matches under
per-level quotas, writing a timestamped selection artifact.

The prebuilt index is preferred; a missing or unreadable index falls back to
a live corpus scan. When ranking yields too few results the selection is
filled from recently validated lessons, and as a last resort from the legacy
flat heading list. An artifact is always written, even on zero matches.

Examples:
  # Select lessons for a task
  lessonbank preflight --task "harden ssh access for the build fleet"

  # Tighter selection
  lessonbank preflight --task "rotate signing keys" --top 3 --cases-max 1`,
	RunE: runPreflight,
}

func runPreflight(cmd *cobra.Command, args []string) error {
	opts := preflight.Options{
		Top:           cfg.Preflight.Top,
		PrinciplesMax: cfg.Preflight.PrinciplesMax,
		PatternsMax:   cfg.Preflight.PatternsMax,
		CasesMax:      cfg.Preflight.CasesMax,
	}
	if preflightTop > 0 {
		opts.Top = preflightTop
	}
	if preflightPrinciplesMax >= 0 {
		opts.PrinciplesMax = preflightPrinciplesMax
	}
	if preflightPatternsMax >= 0 {
		opts.PatternsMax = preflightPatternsMax
	}
	if preflightCasesMax >= 0 {
		opts.CasesMax = preflightCasesMax
	}

	indexPath := cfg.Paths.Index
	if preflightIndexPath != "" {
		indexPath = preflightIndexPath
	}
	legacyPath := cfg.Paths.LegacyLessons
	if preflightLegacyPath != "" {
		legacyPath = preflightLegacyPath
	}

	selector := &preflight.Selector{
		CorpusRoot:  cfg.Paths.CorpusRoot,
		IndexPath:   indexPath,
		LegacyPath:  legacyPath,
		ArtifactDir: cfg.Paths.ArtifactDir,
		Logger:      logger.Named("preflight"),
	}
	artifact, path, err := selector.Run(preflightTask, opts)
	if err != nil {
		return err
	}

	fmt.Printf("Preflight artifact: %s\n", path)
	if artifact.MatchCount == 0 {
		fmt.Println("No matching lessons.")
		return nil
	}
	fmt.Printf("Selected lessons (%s):\n", artifact.Source)
	for _, m := range artifact.Matches {
		fmt.Printf("- [%s] %s (%s, score %d)\n", m.Level, m.Title, m.ID, m.Score)
	}
	return nil
}
