package config

import (
	"os"
	"path/filepath"
	"sort"
)

// resolveFile resolves a possibly-relative path against a base
// directory and canonicalizes it. The file must exist.
func resolveFile(baseDir, path string) (string, error) {
	if path == "" {
		return "", &PathError{Path: path}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", &PathError{Path: path, Err: err}
	}
	return filepath.Abs(resolved)
}

// resolveGlob expands a possibly-relative glob pattern against a base
// directory. At least one match is required; every match is
// canonicalized. Patterns without metacharacters behave like
// resolveFile.
func resolveGlob(baseDir, pattern string) ([]string, error) {
	if pattern == "" {
		return nil, &PathError{Path: pattern}
	}
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(baseDir, pattern)
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, &PathError{Path: pattern, Err: err}
	}
	if len(matches) == 0 {
		if _, statErr := os.Stat(pattern); statErr != nil {
			return nil, &PathError{Path: pattern, Err: statErr}
		}
		matches = []string{pattern}
	}
	sort.Strings(matches)

	resolved := make([]string, len(matches))
	for i, m := range matches {
		r, err := filepath.EvalSymlinks(m)
		if err != nil {
			return nil, &PathError{Path: m, Err: err}
		}
		if resolved[i], err = filepath.Abs(r); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// resolveDir resolves an output directory against a base directory.
// Unlike source paths it does not have to exist yet.
func resolveDir(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
