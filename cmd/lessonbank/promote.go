package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/lessonbank/internal/lesson"
	"github.com/fyrsmithlabs/lessonbank/internal/promote"
)

var (
	promoteSourceID     string
	promoteTargetLevel  string
	promoteExtraCaseIDs []string
	promoteNewID        string
	promoteTitle        string
	promoteForce        bool
)

func init() {
	rootCmd.AddCommand(promoteCmd)
	promoteCmd.Flags().StringVar(&promoteSourceID, "source-id", "", "Source lesson ID (required)")
	promoteCmd.Flags().StringVar(&promoteTargetLevel, "target-level", "", "Target level: pattern or principle (required)")
	promoteCmd.Flags().StringArrayVar(&promoteExtraCaseIDs, "source-case-id", nil, "Additional source case ID (repeatable)")
	promoteCmd.Flags().StringVar(&promoteNewID, "new-id", "", "Target lesson ID (derived from title when empty)")
	promoteCmd.Flags().StringVar(&promoteTitle, "title", "", "Target lesson title")
	promoteCmd.Flags().BoolVar(&promoteForce, "force", false, "Overwrite the target document if it exists")
	_ = promoteCmd.MarkFlagRequired("source-id")
	_ = promoteCmd.MarkFlagRequired("target-level")
}

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Promote a lesson to the next abstraction level",
	Long: `Promote a lesson one level up: case to pattern, or pattern to principle.

Promotion merges provenance from the source lesson and any --source-case-id
flags. A case-to-pattern promotion needs at least 2 distinct source case IDs;
pattern-to-principle needs 3. The promoted document is written to the target
level folder and the index is rebuilt. Nothing is written if any check fails.

Examples:
  # Merge two cases into a pattern
  lessonbank promote --source-id case-ssh-alias --target-level pattern \
    --source-case-id case-ssh-acl --title "SSH access hygiene"

  # Elevate a pattern into a principle, citing one more case
  lessonbank promote --source-id pattern-ssh-access-hygiene --target-level principle \
    --source-case-id case-ssh-agent`,
	RunE: runPromote,
}

func runPromote(cmd *cobra.Command, args []string) error {
	target, ok := lesson.ParseLevel(promoteTargetLevel)
	if !ok || target == lesson.LevelCase {
		return fmt.Errorf("%w: target level must be pattern or principle, got %q",
			promote.ErrInvalidTransition, promoteTargetLevel)
	}

	svc := promote.NewService(cfg.Paths.CorpusRoot, cfg.Paths.Index, logger.Named("promote"))
	entry, path, err := svc.Promote(promote.Request{
		SourceID:     promoteSourceID,
		TargetLevel:  target,
		ExtraCaseIDs: promoteExtraCaseIDs,
		NewID:        promoteNewID,
		Title:        promoteTitle,
		Overwrite:    promoteForce,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created: %s\n", path)
	fmt.Printf("Lesson %s promoted to %s (%s), provenance %d\n",
		promoteSourceID, entry.ID, entry.Level, len(entry.SourceCaseIDs))
	fmt.Printf("Index updated: %s\n", cfg.Paths.Index)
	return nil
}
