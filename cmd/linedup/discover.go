package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// discoverFiles expands each glob pattern, canonicalizes every regular file
// matched and registers the result. A file matched by several patterns
// registers once. A pattern that fails to compile is fatal; a file that
// cannot be canonicalized is skipped with a warning.
func discoverFiles(patterns []string, reg *FileRegistry) error {
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return fmt.Errorf("bad glob pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			canon, err := canonicalPath(match)
			if err != nil {
				fmt.Fprintf(os.Stderr, "WARNING: Unable to process file %s, reason %v\n", match, err)
				continue
			}
			if _, _, err := reg.Register(canon); err != nil {
				return err
			}
		}
	}
	return nil
}

// canonicalPath resolves symlinks and makes the path absolute so the same
// file reached through different routes gets one registry id.
func canonicalPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}
