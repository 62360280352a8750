package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/lessonbank/internal/index"
)

func writeTestCase(t *testing.T, root, id string) {
	t.Helper()
	dir := filepath.Join(root, "cases")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	doc := "---\nid: " + id + "\ntags: [ssh]\n---\n# " + id + "\n\nNotes.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".md"), []byte(doc), 0o644))
}

// Drives the real command tree end to end against a temp corpus:
// rebuild-index, promote, then preflight.
func TestCommands_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "lessons")
	writeTestCase(t, root, "case-ssh-alias")
	writeTestCase(t, root, "case-ssh-acl")

	t.Setenv("LESSONBANK_PATHS_ARTIFACT_DIR", filepath.Join(dir, "artifacts"))
	t.Setenv("LESSONBANK_PATHS_LEGACY_LESSONS", filepath.Join(dir, "LESSONS.md"))

	rootCmd.SetArgs([]string{"rebuild-index", "--corpus-root", root})
	require.NoError(t, rootCmd.Execute())
	artifact, err := index.Load(filepath.Join(root, "index.json"))
	require.NoError(t, err)
	assert.Equal(t, 2, artifact.Stats.ByLevel.Case)

	rootCmd.SetArgs([]string{"promote",
		"--corpus-root", root,
		"--source-id", "case-ssh-alias",
		"--target-level", "pattern",
		"--source-case-id", "case-ssh-acl",
		"--title", "SSH access hygiene",
	})
	require.NoError(t, rootCmd.Execute())
	assert.FileExists(t, filepath.Join(root, "patterns", "pattern-ssh-access-hygiene.md"))

	artifact, err = index.Load(filepath.Join(root, "index.json"))
	require.NoError(t, err)
	assert.Equal(t, 1, artifact.Stats.ByLevel.Pattern)

	rootCmd.SetArgs([]string{"preflight",
		"--corpus-root", root,
		"--task", "tighten ssh access",
	})
	require.NoError(t, rootCmd.Execute())

	files, err := filepath.Glob(filepath.Join(dir, "artifacts", "preflight_*.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, files)
}

func TestPromote_RejectsBadTargetLevel(t *testing.T) {
	root := filepath.Join(t.TempDir(), "lessons")
	writeTestCase(t, root, "case-a")

	rootCmd.SetArgs([]string{"promote",
		"--corpus-root", root,
		"--source-id", "case-a",
		"--target-level", "case",
	})
	assert.Error(t, rootCmd.Execute())
}
