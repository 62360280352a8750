package preflight

// Source values recorded in the selection artifact.
const (
	SourceIndex = "index"
	SourceScan  = "scan"
)

// LevelLegacy is the sentinel level recorded for selections taken from the
// legacy flat heading list.
const LevelLegacy = "legacy"

// Reason values recording which tier admitted a match.
const (
	ReasonRanked          = "ranked"
	ReasonRecencyFallback = "recency-fallback"
	ReasonLegacyHeading   = "legacy-heading"
)

// Options are the selection limits: the overall top-N plus per-level quotas.
type Options struct {
	Top           int
	PrinciplesMax int
	PatternsMax   int
	CasesMax      int
}

// DefaultOptions are the selection limits used when nothing is configured.
func DefaultOptions() Options {
	return Options{Top: 5, PrinciplesMax: 2, PatternsMax: 3, CasesMax: 3}
}

// Match is one admitted entry with its full score breakdown.
type Match struct {
	ID           string `json:"id"`
	Level        string `json:"level"`
	Status       string `json:"status"`
	Title        string `json:"title"`
	Path         string `json:"path"`
	Score        int    `json:"score"`
	Reason       string `json:"reason"`
	TokenHits    int    `json:"tokenHits"`
	TagHits      int    `json:"tagHits"`
	RecencyScore int    `json:"recencyScore"`
	LevelWeight  int    `json:"levelWeight"`
	StatusBonus  int    `json:"statusBonus"`
}

// Selection echoes the limits the run was made with.
type Selection struct {
	Top           int `json:"top"`
	PrinciplesMax int `json:"principlesMax"`
	PatternsMax   int `json:"patternsMax"`
	CasesMax      int `json:"casesMax"`
}

// Artifact is the timestamped record of one relevance query. It is always
// written, even when nothing matched.
type Artifact struct {
	Task         string    `json:"task"`
	Tokens       []string  `json:"tokens"`
	Source       string    `json:"source"`
	IndexPath    string    `json:"indexPath"`
	MatchCount   int       `json:"matchCount"`
	Matches      []Match   `json:"matches"`
	FallbackUsed bool      `json:"fallbackUsed"`
	Selection    Selection `json:"selection"`
	GeneratedAt  string    `json:"generatedAt"`
}
