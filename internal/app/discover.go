package app

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// lockPrefix marks word-processor owner files that sit next to open
// documents.
const lockPrefix = "~$"

// discover expands inputs into a sorted, de-duplicated list of document
// paths. Files named directly are kept as given; directories are walked and
// each relative path must match an include glob and no exclude glob.
func discover(inputs, include, exclude []string) ([]string, error) {
	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob %q", p)
		}
	}
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDocumentUnavailable, in, err)
		}
		if !info.IsDir() {
			add(in)
			continue
		}
		err = filepath.WalkDir(in, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if strings.HasPrefix(d.Name(), lockPrefix) {
				return nil
			}
			rel, err := filepath.Rel(in, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if matchAny(exclude, rel) || !matchAny(include, rel) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", in, err)
		}
	}
	sort.Strings(out)
	return out, nil
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// isDocument reports whether path has a supported extension and is not a
// lock file.
func isDocument(path string) bool {
	if strings.HasPrefix(filepath.Base(path), lockPrefix) {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx", ".html", ".htm":
		return true
	}
	return false
}
