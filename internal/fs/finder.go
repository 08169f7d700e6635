package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"dataroom/internal/dataroom"
)

// Finder expands raw CLI path arguments into files ready for upload.
// Directory arguments are expanded to the regular files they contain,
// filtered by the configured ignore patterns plus any .droomignore file
// found at the root of the collected directory. Files named explicitly
// are not filtered silently: naming an ignored file is an error.
type Finder struct {
	patterns []string
}

// NewFinder creates a Finder applying the given ignore patterns on top of
// the defaults.
func NewFinder(ignorePatterns []string) *Finder {
	patterns := append([]string{}, defaultIgnorePatterns...)
	patterns = append(patterns, ignorePatterns...)
	return &Finder{patterns: patterns}
}

// CollectFiles opens every file named by rawPaths, expanding directories.
// When recursive is true, directory arguments include their subdirectories.
// The caller owns the returned files and must close their bodies; if
// collection fails partway, every file opened so far is closed before the
// error is returned.
func (f *Finder) CollectFiles(rawPaths []string, recursive bool) ([]dataroom.LocalFile, error) {
	matcher := NewIgnoreMatcher(f.patterns)

	var files []dataroom.LocalFile
	success := false
	defer func() {
		if !success {
			closeCollected(files)
		}
	}()

	for _, raw := range rawPaths {
		info, err := os.Stat(raw)
		if err != nil {
			return nil, fmt.Errorf("stat path: %w", err)
		}

		if info.IsDir() {
			collected, err := f.collectDir(raw, recursive)
			if err != nil {
				return nil, err
			}
			files = append(files, collected...)
			continue
		}

		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("not a regular file: %s", raw)
		}
		if matcher.Match(filepath.Base(raw)) {
			return nil, fmt.Errorf("path is ignored: %s", raw)
		}

		lf, err := openLocalFile(raw, info)
		if err != nil {
			return nil, err
		}
		files = append(files, lf)
	}

	success = true
	return files, nil
}

// collectDir gathers the regular files under dir, skipping anything the
// ignore patterns match. A .droomignore file at the root of dir adds to
// the configured patterns for this directory only.
func (f *Finder) collectDir(dir string, recursive bool) ([]dataroom.LocalFile, error) {
	filePatterns, err := ParseIgnoreFile(filepath.Join(dir, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	patterns := append(append([]string{}, f.patterns...), filePatterns...)
	matcher := NewIgnoreMatcher(patterns)

	var files []dataroom.LocalFile
	success := false
	defer func() {
		if !success {
			closeCollected(files)
		}
	}()

	if recursive {
		err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p == dir {
				return nil
			}
			rel, err := filepath.Rel(dir, p)
			if err != nil {
				return err
			}
			if d.IsDir() {
				if matcher.Match(rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if matcher.Match(rel) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", p, err)
			}
			lf, err := openLocalFile(p, info)
			if err != nil {
				return err
			}
			files = append(files, lf)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking directory: %w", err)
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading directory: %w", err)
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			if matcher.Match(entry.Name()) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
			}
			lf, err := openLocalFile(filepath.Join(dir, entry.Name()), info)
			if err != nil {
				return nil, err
			}
			files = append(files, lf)
		}
	}

	success = true
	return files, nil
}

// openLocalFile opens path for reading and wraps it as an upload input.
// The display name is the file's basename.
func openLocalFile(path string, info os.FileInfo) (dataroom.LocalFile, error) {
	fh, err := os.Open(path)
	if err != nil {
		return dataroom.LocalFile{}, fmt.Errorf("opening %s: %w", path, err)
	}
	return dataroom.LocalFile{
		Name: filepath.Base(path),
		Size: info.Size(),
		Body: fh,
	}, nil
}

// closeCollected closes the bodies of every collected file.
func closeCollected(files []dataroom.LocalFile) {
	for _, lf := range files {
		if c, ok := lf.Body.(io.Closer); ok {
			c.Close()
		}
	}
}
