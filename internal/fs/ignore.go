package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-directory ignore file consulted when a
// directory is collected.
const IgnoreFileName = ".droomignore"

// defaultIgnorePatterns are always applied regardless of config or ignore files.
var defaultIgnorePatterns = []string{IgnoreFileName}

// IgnoreMatcher checks file paths against a set of ignore patterns.
// Patterns without '/' match against the file's basename only.
// Patterns with '/' match against the full relative path from the
// directory being collected.
type IgnoreMatcher struct {
	nameGlobs []string
	pathGlobs []string
}

// NewIgnoreMatcher creates an IgnoreMatcher from raw pattern strings.
// Blank lines and lines starting with '#' are skipped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		if strings.Contains(raw, "/") {
			m.pathGlobs = append(m.pathGlobs, raw)
		} else {
			m.nameGlobs = append(m.nameGlobs, raw)
		}
	}
	return m
}

// Match reports whether the given relative path should be ignored.
// relativePath uses filepath separators and is relative to the directory
// being collected.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	normalized := filepath.ToSlash(relativePath)
	basename := filepath.Base(relativePath)

	for _, g := range m.nameGlobs {
		if matched, err := filepath.Match(g, basename); err == nil && matched {
			return true
		}
	}
	for _, g := range m.pathGlobs {
		if matched, err := filepath.Match(g, normalized); err == nil && matched {
			return true
		}
	}
	return false
}

// ParseIgnoreFile reads a .droomignore file and returns the raw pattern strings.
// Returns nil and no error if the file does not exist.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return patterns, nil
}
