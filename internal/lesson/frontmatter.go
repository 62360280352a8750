package lesson

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---"

// ParseDocument splits a raw lesson document into its front-matter metadata
// and body. The metadata block is the YAML between a leading "---" line and
// the next "---" line; values may be scalars, quoted strings, or bracketed
// lists, and surface as their dynamic YAML types in the returned map.
//
// Parsing never fails: a document without a front-matter block yields an
// empty metadata map and the full text as body, and a block yaml rejects is
// re-read line-wise, keeping whatever "key: value" pairs it holds. Malformed
// storage is absorbed here so downstream code only ever sees the normalized
// entry.
func ParseDocument(raw []byte) (map[string]any, string) {
	text := string(raw)
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontMatterDelim {
		return map[string]any{}, strings.TrimSpace(text)
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontMatterDelim {
			end = i
			break
		}
	}
	if end < 0 {
		return map[string]any{}, strings.TrimSpace(text)
	}

	meta := map[string]any{}
	block := strings.Join(lines[1:end], "\n")
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil || meta == nil {
		meta = lineMetadata(lines[1:end])
	}
	body := strings.Join(lines[end+1:], "\n")
	return meta, strings.TrimSpace(body)
}

// lineMetadata recovers key/value pairs from a metadata block that yaml
// rejects, splitting each line on its first colon. A value like
// "SSH hardening: rotate keys" is an invalid plain scalar to yaml but still
// an unambiguous pair line here. Bracketed values surface as lists,
// everything else as raw strings.
func lineMetadata(lines []string) map[string]any {
	meta := map[string]any{}
	for _, line := range lines {
		key, rest, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		meta[key] = lineValue(strings.TrimSpace(rest))
	}
	return meta
}

func lineValue(val string) any {
	if len(val) >= 2 {
		if (val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'') {
			return val[1 : len(val)-1]
		}
	}
	if strings.HasPrefix(val, "[") && strings.HasSuffix(val, "]") {
		inner := strings.TrimSpace(val[1 : len(val)-1])
		if inner == "" {
			return []any{}
		}
		items := []any{}
		for _, item := range strings.Split(inner, ",") {
			items = append(items, any(strings.Trim(strings.TrimSpace(item), `"'`)))
		}
		return items
	}
	return val
}

// frontMatterKeys fixes the serialization order of lesson metadata.
var frontMatterKeys = []string{
	"id",
	"level",
	"status",
	"tags",
	"confidence",
	"transferability",
	"source_case_ids",
	"last_validated_at",
	"title",
	"summary",
}

// FrontMatter renders the entry's metadata block with a fixed key order, so
// that an unchanged entry always serializes to identical bytes. Free-text
// values are quoted when a plain yaml scalar could not hold them, so the
// block always parses back to the same metadata.
func (e Entry) FrontMatter() string {
	values := map[string]string{
		"id":                yamlScalar(e.ID),
		"level":             string(e.Level),
		"status":            string(e.Status),
		"tags":              yamlList(e.Tags),
		"confidence":        fmt.Sprintf("%d", e.Confidence),
		"transferability":   fmt.Sprintf("%d", e.Transferability),
		"source_case_ids":   yamlList(e.SourceCaseIDs),
		"last_validated_at": e.LastValidatedAt,
		"title":             yamlScalar(e.Title),
		"summary":           yamlScalar(e.Summary),
	}

	var b strings.Builder
	b.WriteString(frontMatterDelim + "\n")
	for _, k := range frontMatterKeys {
		b.WriteString(fmt.Sprintf("%s: %s\n", k, values[k]))
	}
	b.WriteString(frontMatterDelim)
	return b.String()
}

func yamlList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = yamlScalar(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// yamlScalar writes s unquoted when yaml would read it back verbatim as a
// plain scalar, and double-quoted otherwise. Colons and comment markers are
// the values that bite in practice ("SSH hardening: rotate keys").
func yamlScalar(s string) string {
	if plainSafe(s) {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func plainSafe(s string) bool {
	if s == "" {
		return true
	}
	if s != strings.TrimSpace(s) {
		return false
	}
	if strings.ContainsAny(s, ":#\"'\\\n\t,[]{}") {
		return false
	}
	// Leading indicator characters start a different yaml construct.
	return !strings.ContainsAny(s[:1], "-?&*!|>%@`")
}
