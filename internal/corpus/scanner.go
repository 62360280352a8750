// Package corpus walks the on-disk lesson corpus and produces the
// deterministically ordered entry collection every other component consumes.
package corpus

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fyrsmithlabs/lessonbank/internal/lesson"
)

// Scan walks the three level folders under root in rank order, normalizing
// every markdown document. Within a folder, documents are visited in
// lexicographic path order. The returned collection is sorted by
// (level rank, id) so an unchanged corpus always scans identically.
//
// A missing corpus root is an empty corpus, not an error. Unreadable
// documents are skipped; normalization itself never fails.
func Scan(root string, now time.Time) ([]lesson.Entry, error) {
	entries := []lesson.Entry{}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return entries, nil
	}

	parent := filepath.Dir(root)
	for _, lvl := range lesson.Levels {
		base := filepath.Join(root, lvl.Folder())
		paths, err := markdownFiles(base)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			raw, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			meta, body := lesson.ParseDocument(raw)
			rel, err := filepath.Rel(parent, path)
			if err != nil {
				rel = path
			}
			entries = append(entries, lesson.Normalize(lesson.RawDocument{
				Rel:      filepath.ToSlash(rel),
				Folder:   lvl.Folder(),
				Stem:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
				Metadata: meta,
				Body:     body,
			}, now))
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Level.Rank() != entries[j].Level.Rank() {
			return entries[i].Level.Rank() < entries[j].Level.Rank()
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

// markdownFiles lists every .md file under base recursively, sorted.
func markdownFiles(base string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ByID indexes entries by their ID. Later duplicates win, matching the
// scanner's deterministic order.
func ByID(entries []lesson.Entry) map[string]lesson.Entry {
	m := make(map[string]lesson.Entry, len(entries))
	for _, e := range entries {
		m[e.ID] = e
	}
	return m
}
