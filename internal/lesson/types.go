package lesson

import "time"

// Level is the abstraction level of a lesson. Levels form a fixed ordinal
// rank: case < pattern < principle.
type Level string

const (
	LevelCase      Level = "case"
	LevelPattern   Level = "pattern"
	LevelPrinciple Level = "principle"
)

// Levels lists all levels in rank order.
var Levels = []Level{LevelCase, LevelPattern, LevelPrinciple}

// folders maps each level to its sub-collection folder under the corpus root.
var folders = map[Level]string{
	LevelCase:      "cases",
	LevelPattern:   "patterns",
	LevelPrinciple: "principles",
}

// ParseLevel returns the level for s, reporting whether s names a known level.
func ParseLevel(s string) (Level, bool) {
	switch Level(s) {
	case LevelCase, LevelPattern, LevelPrinciple:
		return Level(s), true
	}
	return "", false
}

// LevelFromFolder returns the level implied by a sub-collection folder name.
// Unknown folders default to case, the lowest level.
func LevelFromFolder(folder string) Level {
	for lvl, f := range folders {
		if f == folder {
			return lvl
		}
	}
	return LevelCase
}

// Folder returns the sub-collection folder for the level.
func (l Level) Folder() string {
	return folders[l]
}

// Rank returns the ordinal rank of the level (case=0, pattern=1, principle=2).
func (l Level) Rank() int {
	switch l {
	case LevelPattern:
		return 1
	case LevelPrinciple:
		return 2
	case LevelCase:
		return 0
	}
	return 0
}

// Next returns the single legal promotion target for the level. Principle is
// terminal and has no next level.
func (l Level) Next() (Level, bool) {
	switch l {
	case LevelCase:
		return LevelPattern, true
	case LevelPattern:
		return LevelPrinciple, true
	}
	return "", false
}

// Status is the lifecycle status of a lesson.
type Status string

const (
	StatusCandidate Status = "candidate"
	StatusValidated Status = "validated"
	StatusCanonical Status = "canonical"
	StatusRetired   Status = "retired"
)

// Statuses lists all statuses in lifecycle order.
var Statuses = []Status{StatusCandidate, StatusValidated, StatusCanonical, StatusRetired}

// ParseStatus returns the status for s, reporting whether s names a known status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusCandidate, StatusValidated, StatusCanonical, StatusRetired:
		return Status(s), true
	}
	return "", false
}

// DateLayout is the calendar-date form used by last_validated_at.
const DateLayout = "2006-01-02"

// Entry is one normalized lesson. Field order matches the index artifact's
// serialization contract.
type Entry struct {
	// ID is the stable identifier, unique across the corpus.
	ID string `json:"id"`

	// Level is the abstraction level, always one of the known levels.
	Level Level `json:"level"`

	// Status is the lifecycle status, always one of the known statuses.
	Status Status `json:"status"`

	// Tags are lowercased, deduplicated, sorted classification labels.
	Tags []string `json:"tags"`

	// Confidence is clamped to [1,5].
	Confidence int `json:"confidence"`

	// Transferability is clamped to [1,5].
	Transferability int `json:"transferability"`

	// SourceCaseIDs is the provenance set: the case-level lesson IDs that
	// justify this entry. Deduplicated and sorted.
	SourceCaseIDs []string `json:"source_case_ids"`

	// LastValidatedAt is an ISO calendar date (YYYY-MM-DD).
	LastValidatedAt string `json:"last_validated_at"`

	// Title is the display title, derived from the body or ID when absent.
	Title string `json:"title"`

	// Summary is a one-line description, derived from the body when absent.
	Summary string `json:"summary"`

	// Path is the document location relative to the corpus root's parent,
	// slash-separated. Display and traceability only.
	Path string `json:"path"`
}

// ValidatedAt parses LastValidatedAt, reporting whether it held a valid date.
func (e Entry) ValidatedAt() (time.Time, bool) {
	t, err := time.Parse(DateLayout, e.LastValidatedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// HasTag reports whether tag is one of the entry's tags.
func (e Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
