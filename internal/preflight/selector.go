// Package preflight scores lessons against free-text task descriptions and
// selects the most relevant ones under per-level quotas.
//
// Selection degrades through tiers rather than failing: a missing or
// unreadable index falls back to a live corpus scan, an underfilled ranked
// selection falls back to recently validated entries, and an empty selection
// falls back to a legacy flat heading list. A selection artifact is always
// written, even when nothing matched.
package preflight

import (
	"encoding/json"
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

// Selector runs relevance queries against the corpus.
type Selector struct {
	CorpusRoot  string
	IndexPath   string
	LegacyPath  string
	ArtifactDir string
	Logger      *zap.Logger

	// Now is the clock used for recency scoring and artifact timestamps.
	// Defaults to time.Now.
	Now func() time.Time
}

// Run executes one relevance query and writes the selection artifact. It
// returns the artifact and the path it was written to. Run never fails on an
// empty or missing corpus; only artifact I/O can error.
func (s *Selector) Run(task string, opts Options) (*Artifact, string, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	nowFn := s.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	now := nowFn()

	tokens := Tokenize(task)
	entries, source := s.loadEntries(logger, now)

	matches := s.selectRanked(entries, tokens, opts, now)
	fallbackUsed := false

	if len(matches) < opts.Top {
		fallbackUsed = true
		matches = s.fillRecent(matches, entries, opts)
	}
	if len(matches) == 0 {
		fallbackUsed = true
		matches = s.legacyMatches(tokens, opts.Top)
	}
	if matches == nil {
		matches = []Match{}
	}

	artifact := &Artifact{
		Task:         task,
		Tokens:       tokens,
		Source:       source,
		IndexPath:    s.IndexPath,
		MatchCount:   len(matches),
		Matches:      matches,
		FallbackUsed: fallbackUsed,
		Selection: Selection{
			Top:           opts.Top,
			PrinciplesMax: opts.PrinciplesMax,
			PatternsMax:   opts.PatternsMax,
			CasesMax:      opts.CasesMax,
		},
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}

	path, err := s.writeArtifact(artifact, now)
	if err != nil {
		return nil, "", err
	}
	logger.Info("preflight selection written",
		zap.String("path", path),
		zap.String("source", source),
		zap.Int("matches", len(matches)),
		zap.Bool("fallback", fallbackUsed))
	return artifact, path, nil
}

// loadEntries prefers the prebuilt index and falls back to a live scan when
// the index is missing or unreadable. The fallback is recovery, not an error.
func (s *Selector) loadEntries(logger *zap.Logger, now time.Time) ([]lesson.Entry, string) {
	if s.IndexPath != "" {
		a, err := index.Load(s.IndexPath)
		if err == nil {
			return a.Lessons, SourceIndex
		}
		logger.Debug("index unavailable, scanning corpus", zap.Error(err))
	}
	entries, err := corpus.Scan(s.CorpusRoot, now)
	if err != nil {
		logger.Warn("corpus scan failed", zap.Error(err))
		return []lesson.Entry{}, SourceScan
	}
	return entries, SourceScan
}

// selectRanked scores every non-retired entry, ranks descending by
// (score, level rank, id), and admits entries under per-level quotas until
// topN are chosen.
func (s *Selector) selectRanked(entries []lesson.Entry, tokens []string, opts Options, now time.Time) []Match {
	scored := make([]breakdown, 0, len(entries))
	for _, e := range entries {
		if e.Status == lesson.StatusRetired {
			continue
		}
		b := scoreEntry(e, tokens, now)
		if b.score <= 0 {
			continue
		}
		scored = append(scored, b)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		if scored[i].entry.Level.Rank() != scored[j].entry.Level.Rank() {
			return scored[i].entry.Level.Rank() > scored[j].entry.Level.Rank()
		}
		return scored[i].entry.ID > scored[j].entry.ID
	})

	chosen := []Match{}
	counts := map[lesson.Level]int{}
	seen := map[string]struct{}{}
	for _, b := range scored {
		if len(chosen) >= opts.Top {
			break
		}
		if _, dup := seen[b.entry.ID]; dup {
			continue
		}
		if counts[b.entry.Level] >= quotaFor(opts, b.entry.Level) {
			continue
		}
		seen[b.entry.ID] = struct{}{}
		counts[b.entry.Level]++
		chosen = append(chosen, matchFrom(b, ReasonRanked))
	}
	return chosen
}

// fillRecent fills remaining slots with validated or canonical entries
// ordered by (last_validated_at, level rank, id) descending, still under the
// per-level quotas.
func (s *Selector) fillRecent(chosen []Match, entries []lesson.Entry, opts Options) []Match {
	candidates := make([]lesson.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Status == lesson.StatusValidated || e.Status == lesson.StatusCanonical {
			candidates = append(candidates, e)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].LastValidatedAt != candidates[j].LastValidatedAt {
			return candidates[i].LastValidatedAt > candidates[j].LastValidatedAt
		}
		if candidates[i].Level.Rank() != candidates[j].Level.Rank() {
			return candidates[i].Level.Rank() > candidates[j].Level.Rank()
		}
		return candidates[i].ID > candidates[j].ID
	})

	counts := map[lesson.Level]int{}
	seen := map[string]struct{}{}
	for _, m := range chosen {
		seen[m.ID] = struct{}{}
		counts[lesson.Level(m.Level)]++
	}
	for _, e := range candidates {
		if len(chosen) >= opts.Top {
			break
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		if counts[e.Level] >= quotaFor(opts, e.Level) {
			continue
		}
		seen[e.ID] = struct{}{}
		counts[e.Level]++
		chosen = append(chosen, Match{
			ID:          e.ID,
			Level:       string(e.Level),
			Status:      string(e.Status),
			Title:       e.Title,
			Path:        e.Path,
			Reason:      ReasonRecencyFallback,
			LevelWeight: levelWeights[e.Level],
			StatusBonus: statusBonuses[e.Status],
		})
	}
	return chosen
}

// legacyMatches parses the legacy flat heading list ("## " headings in a
// single markdown file) and selects headings containing query tokens.
func (s *Selector) legacyMatches(tokens []string, top int) []Match {
	headings := readHeadings(s.LegacyPath)
	type scoredHeading struct {
		heading string
		hits    int
	}
	scored := []scoredHeading{}
	for _, h := range headings {
		lower := strings.ToLower(h)
		hits := 0
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				hits++
			}
		}
		if hits > 0 {
			scored = append(scored, scoredHeading{heading: h, hits: hits})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].hits != scored[j].hits {
			return scored[i].hits > scored[j].hits
		}
		return scored[i].heading > scored[j].heading
	})

	matches := []Match{}
	for _, sh := range scored {
		if len(matches) >= top {
			break
		}
		matches = append(matches, Match{
			ID:        lesson.Slugify(sh.heading),
			Level:     LevelLegacy,
			Title:     sh.heading,
			Path:      s.LegacyPath,
			Score:     sh.hits,
			Reason:    ReasonLegacyHeading,
			TokenHits: sh.hits,
		})
	}
	return matches
}

// readHeadings returns the "## " headings of the legacy lessons file. A
// missing file is an empty list.
func readHeadings(path string) []string {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var headings []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "## ") {
			headings = append(headings, strings.TrimSpace(line[3:]))
		}
	}
	return headings
}

func (s *Selector) writeArtifact(a *Artifact, now time.Time) (string, error) {
	if err := os.MkdirAll(s.ArtifactDir, 0o755); err != nil {
		return "", fmt.Errorf("creating artifact directory: %w", err)
	}
	path := filepath.Join(s.ArtifactDir, fmt.Sprintf("preflight_%s.json", now.Format("20060102_150405")))
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding selection artifact: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing selection artifact %s: %w", path, err)
	}
	return path, nil
}

func quotaFor(opts Options, lvl lesson.Level) int {
	switch lvl {
	case lesson.LevelPrinciple:
		return opts.PrinciplesMax
	case lesson.LevelPattern:
		return opts.PatternsMax
	default:
		return opts.CasesMax
	}
}

func matchFrom(b breakdown, reason string) Match {
	return Match{
		ID:           b.entry.ID,
		Level:        string(b.entry.Level),
		Status:       string(b.entry.Status),
		Title:        b.entry.Title,
		Path:         b.entry.Path,
		Score:        b.score,
		Reason:       reason,
		TokenHits:    b.tokenHits,
		TagHits:      b.tagHits,
		RecencyScore: b.recencyScore,
		LevelWeight:  b.levelWeight,
		StatusBonus:  b.statusBonus,
	}
}
