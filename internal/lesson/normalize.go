package lesson

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// RawDocument is one lesson file as read from storage, before normalization.
type RawDocument struct {
	// Rel is the document path relative to the corpus root's parent,
	// slash-separated.
	Rel string

	// Folder is the containing sub-collection folder name ("cases", ...).
	Folder string

	// Stem is the file name without extension, used as the fallback ID.
	Stem string

	// Metadata is the parsed front-matter block (possibly empty).
	Metadata map[string]any

	// Body is the document text after the front-matter block.
	Body string
}

// Normalize converts a raw document into a canonical entry. It is a total
// function: malformed or missing metadata never fails, every field falls back
// to a safe default. The rules, in order:
//
//  1. level: inferred from the containing folder, overridden by an explicit
//     metadata value only when that value is a known level
//  2. status: candidate unless the metadata names a known status
//  3. tags / source_case_ids: delimited string or list, reduced to a
//     deduplicated sorted set (tags lowercased)
//  4. confidence / transferability: clamped to [1,5], 3 when unparsable
//  5. last_validated_at: ISO calendar date, else now's date
//  6. title / summary: explicit metadata, else derived from the body, else
//     synthesized from the ID
func Normalize(doc RawDocument, now time.Time) Entry {
	inferred := LevelFromFolder(doc.Folder)

	id := strings.TrimSpace(stringOf(doc.Metadata["id"]))
	if id == "" {
		id = doc.Stem
	}

	level := inferred
	if lvl, ok := ParseLevel(strings.ToLower(strings.TrimSpace(stringOf(doc.Metadata["level"])))); ok {
		level = lvl
	}

	status := StatusCandidate
	if st, ok := ParseStatus(strings.ToLower(strings.TrimSpace(stringOf(doc.Metadata["status"])))); ok {
		status = st
	}

	title, summary := extractTitleSummary(doc.Body, id)
	if t := strings.TrimSpace(stringOf(doc.Metadata["title"])); t != "" {
		title = t
	}
	if s := strings.TrimSpace(stringOf(doc.Metadata["summary"])); s != "" {
		summary = s
	}

	return Entry{
		ID:              id,
		Level:           level,
		Status:          status,
		Tags:            stringSet(doc.Metadata["tags"], true),
		Confidence:      clampScore(doc.Metadata["confidence"]),
		Transferability: clampScore(doc.Metadata["transferability"]),
		SourceCaseIDs:   stringSet(doc.Metadata["source_case_ids"], false),
		LastValidatedAt: validDateOr(doc.Metadata["last_validated_at"], now),
		Title:           title,
		Summary:         summary,
		Path:            doc.Rel,
	}
}

// stringOf renders a dynamic front-matter value as a string. Unknown types
// and nil render empty.
func stringOf(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(DateLayout)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// stringSet normalizes a scalar-or-list front-matter value into a
// deduplicated, sorted set of trimmed non-empty strings. A plain string is
// treated as comma-delimited.
func stringSet(v any, lower bool) []string {
	var parts []string
	switch val := v.(type) {
	case nil:
		return []string{}
	case string:
		parts = strings.Split(val, ",")
	case []any:
		for _, item := range val {
			parts = append(parts, stringOf(item))
		}
	case []string:
		parts = val
	default:
		return []string{}
	}

	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if lower {
			p = strings.ToLower(p)
		}
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

const (
	scoreMin      = 1
	scoreMax      = 5
	scoreFallback = 3
)

// clampScore parses a confidence/transferability value and clamps it to
// [1,5]. Values that do not parse as integers become 3, including
// non-integral floats like 4.9.
func clampScore(v any) int {
	var n int
	switch val := v.(type) {
	case int:
		n = val
	case int64:
		n = int(val)
	case float64:
		if val != math.Trunc(val) {
			return scoreFallback
		}
		n = int(val)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return scoreFallback
		}
		n = parsed
	default:
		return scoreFallback
	}
	if n < scoreMin {
		return scoreMin
	}
	if n > scoreMax {
		return scoreMax
	}
	return n
}

// validDateOr returns the value if it is a valid ISO calendar date, else
// now's date. Note this credits never-validated entries with today's date;
// the recency scorer sees them as fresh.
func validDateOr(v any, now time.Time) string {
	if t, ok := v.(time.Time); ok {
		return t.Format(DateLayout)
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if _, err := time.Parse(DateLayout, s); err == nil {
			return s
		}
	}
	return now.Format(DateLayout)
}

// extractTitleSummary derives a title and summary from the document body:
// the first "# " heading becomes the title, the first subsequent non-blank
// non-heading line becomes the summary. A missing title is synthesized from
// the ID (hyphens to spaces, title-cased).
func extractTitleSummary(body, fallbackID string) (string, string) {
	var title, summary string
	for _, line := range strings.Split(body, "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		if strings.HasPrefix(s, "# ") {
			title = strings.TrimSpace(s[2:])
			continue
		}
		if summary == "" && !strings.HasPrefix(s, "#") {
			summary = s
			break
		}
	}
	if title == "" {
		title = titleCase(strings.ReplaceAll(fallbackID, "-", " "))
	}
	return title, summary
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify reduces text to a lowercase hyphen-separated identifier fragment.
func Slugify(text string) string {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(text), "-"), "-")
	if slug == "" {
		return "lesson"
	}
	return slug
}
