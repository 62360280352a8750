package lesson

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument_MetadataAndBody(t *testing.T) {
	raw := []byte(`---
id: case-ssh-alias
level: case
tags: [ssh, alias]
confidence: 4
title: "SSH alias cleanup"
---

# SSH alias cleanup

Stale aliases caused confusion.
`)
	meta, body := ParseDocument(raw)
	assert.Equal(t, "case-ssh-alias", meta["id"])
	assert.Equal(t, "case", meta["level"])
	assert.Equal(t, 4, meta["confidence"])
	assert.Equal(t, "SSH alias cleanup", meta["title"])

	tags, ok := meta["tags"].([]any)
	require.True(t, ok, "bracketed lists surface as list values")
	assert.Len(t, tags, 2)

	assert.True(t, strings.HasPrefix(body, "# SSH alias cleanup"))
	assert.Contains(t, body, "Stale aliases")
}

func TestParseDocument_NoFrontMatter(t *testing.T) {
	meta, body := ParseDocument([]byte("# Just a body\n\nNo metadata here.\n"))
	assert.Empty(t, meta)
	assert.Equal(t, "# Just a body\n\nNo metadata here.", body)
}

func TestParseDocument_UnclosedBlock(t *testing.T) {
	raw := "---\nid: x\nno closing delimiter\n"
	meta, body := ParseDocument([]byte(raw))
	assert.Empty(t, meta)
	assert.Equal(t, strings.TrimSpace(raw), body)
}

func TestParseDocument_MalformedMetadataFallsBackToLineSplit(t *testing.T) {
	raw := []byte("---\nid: case-x\ntitle: SSH hardening: rotate keys\nno pair here\n---\nbody text\n")
	meta, body := ParseDocument(raw)
	assert.Equal(t, "case-x", meta["id"])
	assert.Equal(t, "SSH hardening: rotate keys", meta["title"], "value keeps everything after the first colon")
	assert.Equal(t, "body text", body)
}

func TestParseDocument_NothingRecoverableDegrades(t *testing.T) {
	raw := []byte("---\n\t[unbalanced\nno colon lines at all\n---\nbody text\n")
	meta, body := ParseDocument(raw)
	assert.Empty(t, meta, "unrecoverable metadata yields an empty map, never an error")
	assert.Equal(t, "body text", body)
}

func TestParseDocument_LineFallbackListsAndQuotes(t *testing.T) {
	raw := []byte("---\ntitle: a: b\ntags: [ssh, \"acl\"]\nsummary: \"quoted: value\"\nempty: []\n---\n")
	meta, _ := ParseDocument(raw)
	assert.Equal(t, "a: b", meta["title"])
	assert.Equal(t, []any{"ssh", "acl"}, meta["tags"])
	assert.Equal(t, "quoted: value", meta["summary"])
	assert.Equal(t, []any{}, meta["empty"])
}

func TestParseDocument_Empty(t *testing.T) {
	meta, body := ParseDocument(nil)
	assert.Empty(t, meta)
	assert.Empty(t, body)
}

func TestFrontMatter_FixedKeyOrder(t *testing.T) {
	e := Entry{
		ID:              "pattern-ssh-access",
		Level:           LevelPattern,
		Status:          StatusValidated,
		Tags:            []string{"promoted", "ssh"},
		Confidence:      4,
		Transferability: 3,
		SourceCaseIDs:   []string{"case-a", "case-b"},
		LastValidatedAt: "2026-08-30",
		Title:           "SSH access hygiene",
		Summary:         "Promoted from case-a with structured provenance.",
	}

	fm := e.FrontMatter()
	lines := strings.Split(fm, "\n")
	require.Equal(t, "---", lines[0])
	require.Equal(t, "---", lines[len(lines)-1])

	wantOrder := []string{
		"id: pattern-ssh-access",
		"level: pattern",
		"status: validated",
		"tags: [promoted, ssh]",
		"confidence: 4",
		"transferability: 3",
		"source_case_ids: [case-a, case-b]",
		"last_validated_at: 2026-08-30",
		"title: SSH access hygiene",
		"summary: Promoted from case-a with structured provenance.",
	}
	assert.Equal(t, wantOrder, lines[1:len(lines)-1])
}

func TestFrontMatter_QuotesUnsafeValues(t *testing.T) {
	e := Entry{
		ID:              "pattern-ssh-hardening",
		Level:           LevelPattern,
		Status:          StatusValidated,
		Tags:            []string{"ssh"},
		Confidence:      4,
		Transferability: 3,
		SourceCaseIDs:   []string{"case-a", "case-b"},
		LastValidatedAt: "2026-08-30",
		Title:           "SSH hardening: rotate keys",
		Summary:         `Quotes "matter" too`,
	}

	fm := e.FrontMatter()
	assert.Contains(t, fm, `title: "SSH hardening: rotate keys"`)
	assert.Contains(t, fm, `summary: "Quotes \"matter\" too"`)
	assert.Contains(t, fm, "id: pattern-ssh-hardening", "safe scalars stay unquoted")

	meta, _ := ParseDocument([]byte(fm + "\n\nBody.\n"))
	assert.Equal(t, e.Title, meta["title"])
	assert.Equal(t, e.Summary, meta["summary"])
	assert.Equal(t, e.ID, meta["id"])
}

func TestFrontMatter_ColonTitleRoundTrips(t *testing.T) {
	e := Entry{
		ID:              "pattern-ssh-hardening",
		Level:           LevelPattern,
		Status:          StatusValidated,
		Tags:            []string{"promoted", "ssh"},
		Confidence:      4,
		Transferability: 3,
		SourceCaseIDs:   []string{"case-a", "case-b"},
		LastValidatedAt: "2026-08-30",
		Title:           "SSH hardening: rotate keys",
		Summary:         "Promoted from case-a with structured provenance.",
	}

	doc := e.FrontMatter() + "\n\n# " + e.Title + "\n"
	meta, body := ParseDocument([]byte(doc))
	got := Normalize(RawDocument{
		Rel:      "lessons/patterns/pattern-ssh-hardening.md",
		Folder:   "patterns",
		Stem:     "pattern-ssh-hardening",
		Metadata: meta,
		Body:     body,
	}, testNow)

	assert.Equal(t, e.Status, got.Status, "status survives the round trip")
	assert.Equal(t, e.SourceCaseIDs, got.SourceCaseIDs, "provenance survives the round trip")
	assert.Equal(t, e.Tags, got.Tags)
	assert.Equal(t, e.Title, got.Title)
}

func TestFrontMatter_RoundTrips(t *testing.T) {
	e := Entry{
		ID:              "principle-least-access",
		Level:           LevelPrinciple,
		Status:          StatusCanonical,
		Tags:            []string{"access", "promoted"},
		Confidence:      5,
		Transferability: 4,
		SourceCaseIDs:   []string{"case-a", "case-b", "case-c"},
		LastValidatedAt: "2026-08-30",
		Title:           "Least access by default",
		Summary:         "Grant the minimum access that serves the task.",
	}

	doc := e.FrontMatter() + "\n\n# " + e.Title + "\n"
	meta, _ := ParseDocument([]byte(doc))
	got := Normalize(RawDocument{
		Rel:      "lessons/principles/principle-least-access.md",
		Folder:   "principles",
		Stem:     "principle-least-access",
		Metadata: meta,
		Body:     "# " + e.Title,
	}, testNow)

	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, e.Level, got.Level)
	assert.Equal(t, e.Status, got.Status)
	assert.Equal(t, e.Tags, got.Tags)
	assert.Equal(t, e.Confidence, got.Confidence)
	assert.Equal(t, e.Transferability, got.Transferability)
	assert.Equal(t, e.SourceCaseIDs, got.SourceCaseIDs)
	assert.Equal(t, e.LastValidatedAt, got.LastValidatedAt)
	assert.Equal(t, e.Title, got.Title)
	assert.Equal(t, e.Summary, got.Summary)
}
