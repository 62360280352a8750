package preflight

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/fyrsmithlabs/lessonbank/internal/lesson"
)

// Level weights and status bonuses of the relevance score. Higher levels are
// favored because they generalize; retired entries are pushed far negative so
// they can never surface.
var levelWeights = map[lesson.Level]int{
	lesson.LevelPrinciple: 30,
	lesson.LevelPattern:   20,
	lesson.LevelCase:      10,
}

var statusBonuses = map[lesson.Status]int{
	lesson.StatusCanonical: 4,
	lesson.StatusValidated: 2,
	lesson.StatusCandidate: 0,
	lesson.StatusRetired:   -999,
}

// Tokenize lowercases the task text, splits on whitespace and punctuation,
// and keeps the deduplicated sorted set of tokens of length >= 3.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := map[string]struct{}{}
	tokens := []string{}
	for _, f := range fields {
		if len(f) < 3 {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	sort.Strings(tokens)
	return tokens
}

// breakdown carries the scored components of one entry.
type breakdown struct {
	entry        lesson.Entry
	score        int
	tokenHits    int
	tagHits      int
	recencyScore int
	levelWeight  int
	statusBonus  int
}

// scoreEntry computes the multi-factor relevance score:
//
//	levelWeight + 3*tokenHits + 2*tagHits + confidence + transferability
//	+ statusBonus + recencyScore
//
// tokenHits counts query tokens appearing as substrings of the entry's
// id/title/summary/tags haystack; tagHits counts exact tag matches.
func scoreEntry(e lesson.Entry, tokens []string, now time.Time) breakdown {
	haystack := strings.ToLower(strings.Join(append([]string{e.ID, e.Title, e.Summary}, e.Tags...), " "))

	b := breakdown{
		entry:       e,
		levelWeight: levelWeights[e.Level],
		statusBonus: statusBonuses[e.Status],
	}
	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			b.tokenHits++
		}
		if e.HasTag(tok) {
			b.tagHits++
		}
	}
	b.recencyScore = recencyScore(e, now)
	b.score = b.levelWeight + 3*b.tokenHits + 2*b.tagHits +
		e.Confidence + e.Transferability + b.statusBonus + b.recencyScore
	return b
}

// recencyScore buckets the validation-date age: <=30d:3, <=90d:2, <=180d:1.
// Age is counted in whole days since validation dates carry no time of day.
func recencyScore(e lesson.Entry, now time.Time) int {
	validated, ok := e.ValidatedAt()
	if !ok {
		return 0
	}
	days := int(now.Sub(validated).Hours() / 24)
	switch {
	case days <= 30:
		return 3
	case days <= 90:
		return 2
	case days <= 180:
		return 1
	default:
		return 0
	}
}
