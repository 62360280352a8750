// Package index builds and persists the derived corpus index artifact.
//
// The index is a disposable cache: it is safe to delete and regenerate from
// the corpus at any time, and is never treated as authoritative input to
// state-changing operations.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fyrsmithlabs/lessonbank/internal/lesson"
)

// SchemaVersion identifies the index artifact layout.
const SchemaVersion = "1.0.0"

// LevelStats counts entries per level. Every known level is present even
// when zero, so the stats shape is constant regardless of corpus contents.
type LevelStats struct {
	Case      int `json:"case"`
	Pattern   int `json:"pattern"`
	Principle int `json:"principle"`
}

// StatusStats counts entries per status, zero-initialized like LevelStats.
type StatusStats struct {
	Candidate int `json:"candidate"`
	Validated int `json:"validated"`
	Canonical int `json:"canonical"`
	Retired   int `json:"retired"`
}

// Stats aggregates corpus counts.
type Stats struct {
	ByLevel  LevelStats  `json:"byLevel"`
	ByStatus StatusStats `json:"byStatus"`
}

// Artifact is the persisted index snapshot.
type Artifact struct {
	SchemaVersion string         `json:"schemaVersion"`
	GeneratedAt   string         `json:"generatedAt"`
	Stats         Stats          `json:"stats"`
	Lessons       []lesson.Entry `json:"lessons"`
}

// Build aggregates entries into an index artifact. Pure aside from the
// generatedAt timestamp, which is taken from now.
func Build(entries []lesson.Entry, now time.Time) *Artifact {
	if entries == nil {
		entries = []lesson.Entry{}
	}
	a := &Artifact{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   now.UTC().Format(time.RFC3339),
		Lessons:       entries,
	}
	for _, e := range entries {
		switch e.Level {
		case lesson.LevelCase:
			a.Stats.ByLevel.Case++
		case lesson.LevelPattern:
			a.Stats.ByLevel.Pattern++
		case lesson.LevelPrinciple:
			a.Stats.ByLevel.Principle++
		}
		switch e.Status {
		case lesson.StatusCandidate:
			a.Stats.ByStatus.Candidate++
		case lesson.StatusValidated:
			a.Stats.ByStatus.Validated++
		case lesson.StatusCanonical:
			a.Stats.ByStatus.Canonical++
		case lesson.StatusRetired:
			a.Stats.ByStatus.Retired++
		}
	}
	return a
}

// Write persists the artifact as pretty-printed JSON, creating parent
// directories as needed. Field order is fixed by the struct layout.
func Write(a *Artifact, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing index %s: %w", path, err)
	}
	return nil
}

// Load reads and validates a previously written index artifact.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index %s: %w", path, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decoding index %s: %w", path, err)
	}
	if a.SchemaVersion == "" || a.Lessons == nil {
		return nil, fmt.Errorf("index %s is not a valid artifact", path)
	}
	return &a, nil
}
