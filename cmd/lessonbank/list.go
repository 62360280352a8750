package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/lessonbank/internal/corpus"
)

var (
	listLevel  string
	listStatus string
	listTag    string
	listJSON   bool
)

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	listCmd.Flags().StringVar(&listLevel, "level", "", "Filter by level: case, pattern, principle")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status: candidate, validated, canonical, retired")
	listCmd.Flags().StringVar(&listTag, "tag", "", "Filter by tag")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	showCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List lessons in the corpus",
	Long: `List lessons from a live corpus scan, optionally filtered.

Examples:
  # All lessons
  lessonbank list

  # Validated patterns tagged ssh
  lessonbank list --level pattern --status validated --tag ssh`,
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one lesson with its provenance",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runList(cmd *cobra.Command, args []string) error {
	entries, err := corpus.Scan(cfg.Paths.CorpusRoot, time.Now())
	if err != nil {
		return fmt.Errorf("scanning corpus: %w", err)
	}

	filtered := entries[:0]
	for _, e := range entries {
		if listLevel != "" && string(e.Level) != listLevel {
			continue
		}
		if listStatus != "" && string(e.Status) != listStatus {
			continue
		}
		if listTag != "" && !e.HasTag(listTag) {
			continue
		}
		filtered = append(filtered, e)
	}

	if listJSON {
		return json.NewEncoder(os.Stdout).Encode(filtered)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLEVEL\tSTATUS\tCONF\tTRANS\tTITLE")
	for _, e := range filtered {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			e.ID, e.Level, e.Status, e.Confidence, e.Transferability, e.Title)
	}
	return w.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	entries, err := corpus.Scan(cfg.Paths.CorpusRoot, time.Now())
	if err != nil {
		return fmt.Errorf("scanning corpus: %w", err)
	}
	e, ok := corpus.ByID(entries)[args[0]]
	if !ok {
		return fmt.Errorf("lesson not found: %s", args[0])
	}

	if listJSON {
		return json.NewEncoder(os.Stdout).Encode(e)
	}

	fmt.Printf("ID:              %s\n", e.ID)
	fmt.Printf("Level:           %s\n", e.Level)
	fmt.Printf("Status:          %s\n", e.Status)
	fmt.Printf("Title:           %s\n", e.Title)
	fmt.Printf("Summary:         %s\n", e.Summary)
	fmt.Printf("Tags:            %s\n", strings.Join(e.Tags, ", "))
	fmt.Printf("Confidence:      %d\n", e.Confidence)
	fmt.Printf("Transferability: %d\n", e.Transferability)
	fmt.Printf("Last validated:  %s\n", e.LastValidatedAt)
	fmt.Printf("Path:            %s\n", e.Path)
	if len(e.SourceCaseIDs) > 0 {
		fmt.Println("Provenance:")
		for _, id := range e.SourceCaseIDs {
			fmt.Printf("  - %s\n", id)
		}
	}
	return nil
}
