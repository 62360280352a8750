// Package promote implements the lesson promotion state machine.
//
// Promotion is linear and one-way: case → pattern → principle. A promotion
// merges provenance from the source lesson, writes a new higher-level
// document, and rebuilds the corpus index. All validations run before any
// write, so a failed promotion leaves the corpus untouched.
package promote

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/lessonbank/internal/corpus"
	"github.com/fyrsmithlabs/lessonbank/internal/index"
	"github.com/fyrsmithlabs/lessonbank/internal/lesson"
)

var (
	// ErrNotFound indicates the source lesson ID is absent from the corpus.
	ErrNotFound = errors.New("source lesson not found")

	// ErrInvalidTransition indicates the requested level jump is not the
	// single legal next step.
	ErrInvalidTransition = errors.New("invalid promotion transition")

	// ErrInsufficientProvenance indicates the merged provenance set is below
	// the threshold required by the target level.
	ErrInsufficientProvenance = errors.New("insufficient provenance")

	// ErrConflict indicates the target document already exists and overwrite
	// was not requested.
	ErrConflict = errors.New("target lesson already exists")
)

// Provenance thresholds per target level.
const (
	minProvenancePattern   = 2
	minProvenancePrinciple = 3
)

// Request describes one promotion.
type Request struct {
	SourceID     string
	TargetLevel  lesson.Level
	ExtraCaseIDs []string
	NewID        string
	Title        string
	Overwrite    bool
}

// Service executes promotions against a corpus root and keeps the index in
// step with the corpus.
type Service struct {
	corpusRoot string
	indexPath  string
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a promotion service. The index at indexPath is rebuilt
// after every successful promotion.
func NewService(corpusRoot, indexPath string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		corpusRoot: corpusRoot,
		indexPath:  indexPath,
		logger:     logger,
		now:        time.Now,
	}
}

// Promote validates and executes one level transition. It returns the new
// entry and the path the document was written to.
//
// Failure modes: ErrNotFound, ErrInvalidTransition, ErrInsufficientProvenance,
// ErrConflict. No file is written unless every validation passes.
func (s *Service) Promote(req Request) (*lesson.Entry, string, error) {
	now := s.now()
	entries, err := corpus.Scan(s.corpusRoot, now)
	if err != nil {
		return nil, "", fmt.Errorf("scanning corpus: %w", err)
	}

	source, ok := corpus.ByID(entries)[req.SourceID]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, req.SourceID)
	}

	next, hasNext := source.Level.Next()
	if !hasNext {
		return nil, "", fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, source.Level)
	}
	if req.TargetLevel != next {
		return nil, "", fmt.Errorf("%w: %s can only be promoted to %s, not %s",
			ErrInvalidTransition, source.Level, next, req.TargetLevel)
	}

	provenance := provenanceSet(source, req.ExtraCaseIDs)
	required := minProvenancePattern
	if req.TargetLevel == lesson.LevelPrinciple {
		required = minProvenancePrinciple
	}
	if len(provenance) < required {
		return nil, "", fmt.Errorf("%w: %s promotion requires %d source case IDs, have %d",
			ErrInsufficientProvenance, req.TargetLevel, required, len(provenance))
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("%s from %s", titleWord(req.TargetLevel), source.ID)
	}
	newID := req.NewID
	if newID == "" {
		newID = fmt.Sprintf("%s-%s", req.TargetLevel, lesson.Slugify(title))
	}

	targetPath := filepath.Join(s.corpusRoot, req.TargetLevel.Folder(), newID+".md")
	if _, err := os.Stat(targetPath); err == nil && !req.Overwrite {
		return nil, "", fmt.Errorf("%w: %s", ErrConflict, targetPath)
	}

	entry := s.buildEntry(source, req.TargetLevel, newID, title, provenance, now)
	rel, err := filepath.Rel(filepath.Dir(s.corpusRoot), targetPath)
	if err == nil {
		entry.Path = filepath.ToSlash(rel)
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return nil, "", fmt.Errorf("creating target directory: %w", err)
	}
	doc := entry.FrontMatter() + "\n\n" + promotedBody(entry, source)
	if err := os.WriteFile(targetPath, []byte(doc), 0o644); err != nil {
		return nil, "", fmt.Errorf("writing promoted lesson: %w", err)
	}

	s.logger.Info("lesson promoted",
		zap.String("source_id", source.ID),
		zap.String("new_id", entry.ID),
		zap.String("target_level", string(req.TargetLevel)),
		zap.Int("provenance", len(provenance)))

	if err := s.rebuildIndex(); err != nil {
		return nil, "", err
	}
	return &entry, targetPath, nil
}

// provenanceSet merges the source's own provenance, the extra case IDs, and
// the source itself when it is case-level, into a sorted set.
func provenanceSet(source lesson.Entry, extras []string) []string {
	seen := map[string]struct{}{}
	for _, id := range source.SourceCaseIDs {
		seen[id] = struct{}{}
	}
	for _, id := range extras {
		if id != "" {
			seen[id] = struct{}{}
		}
	}
	if source.Level == lesson.LevelCase {
		seen[source.ID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// buildEntry constructs the promoted entry. Status escalates to validated
// (pattern) or canonical (principle); confidence and transferability floor
// at 3 and never decrease.
func (s *Service) buildEntry(source lesson.Entry, target lesson.Level, id, title string, provenance []string, now time.Time) lesson.Entry {
	status := lesson.StatusValidated
	if target == lesson.LevelPrinciple {
		status = lesson.StatusCanonical
	}

	tags := append([]string{}, source.Tags...)
	if !source.HasTag("promoted") {
		tags = append(tags, "promoted")
	}
	sort.Strings(tags)

	return lesson.Entry{
		ID:              id,
		Level:           target,
		Status:          status,
		Tags:            tags,
		Confidence:      floorScore(source.Confidence),
		Transferability: floorScore(source.Transferability),
		SourceCaseIDs:   provenance,
		LastValidatedAt: now.Format(lesson.DateLayout),
		Title:           title,
		Summary:         fmt.Sprintf("Promoted from %s with structured provenance.", source.ID),
	}
}

// promotedBody renders the templated document body for a promoted lesson.
func promotedBody(entry lesson.Entry, source lesson.Entry) string {
	return fmt.Sprintf(`# %s

## Context

Promoted from `+"`%s`"+`.

## Guidance

Replace this section with reusable guidance.

## Evidence

Source case IDs: %s
`, entry.Title, source.ID, strings.Join(entry.SourceCaseIDs, ", "))
}

func (s *Service) rebuildIndex() error {
	entries, err := corpus.Scan(s.corpusRoot, s.now())
	if err != nil {
		return fmt.Errorf("rescanning corpus: %w", err)
	}
	if err := index.Write(index.Build(entries, s.now()), s.indexPath); err != nil {
		return err
	}
	s.logger.Info("index rebuilt", zap.String("path", s.indexPath), zap.Int("lessons", len(entries)))
	return nil
}

func floorScore(v int) int {
	if v < 3 {
		return 3
	}
	return v
}

func titleWord(l lesson.Level) string {
	s := string(l)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
