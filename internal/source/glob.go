package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoInput is returned by Expand when no file matches.
var ErrNoInput = errors.New("no input files matched")

// Expand resolves file patterns to paths, in pattern order. Recursive
// patterns like logs/**/u_ex*.log are supported. A path matched by more than
// one pattern is returned once.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			key := filepath.Clean(m)
			if seen[key] {
				continue
			}
			seen[key] = true
			paths = append(paths, m)
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, strings.Join(patterns, ", "))
	}
	return paths, nil
}
