package tracker

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
)

var ErrNoInput = errors.New("no input files found")

// FindSources expands the glob patterns and returns the matching paths sorted
// lexically; for daily log names that is also chronological order.
func FindSources(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	files := make([]string, 0)

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad source pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w matching %v", ErrNoInput, patterns)
	}

	sort.Strings(files)
	return files, nil
}
