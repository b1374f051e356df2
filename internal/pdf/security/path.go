package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator keeps tool-supplied paths inside a base directory
type PathValidator struct {
	baseDirectory string
}

// NewPathValidator creates a new path validator for the given directory
func NewPathValidator(baseDirectory string) (*PathValidator, error) {
	if baseDirectory == "" {
		return nil, fmt.Errorf("base directory cannot be empty")
	}

	abs, err := filepath.Abs(baseDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}
	return &PathValidator{baseDirectory: filepath.Clean(abs)}, nil
}

// BaseDirectory returns the absolute base directory
func (v *PathValidator) BaseDirectory() string {
	return v.baseDirectory
}

// Resolve turns path into an absolute path and rejects it when it leaves the base
// directory. Relative paths are taken relative to the base directory. The path does
// not have to exist, which allows output files and directories.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.baseDirectory, path)
	}
	abs := filepath.Clean(path)

	within, err := v.IsWithin(abs)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return "", fmt.Errorf("path is outside base directory: %s", path)
	}
	return abs, nil
}

// IsWithin reports whether an absolute path lies inside the base directory, after
// resolving symlinks of the deepest existing ancestor on both sides.
func (v *PathValidator) IsWithin(abs string) (bool, error) {
	if !filepath.IsAbs(abs) {
		return false, fmt.Errorf("path must be absolute: %s", abs)
	}

	base := v.baseDirectory
	if real, err := filepath.EvalSymlinks(base); err == nil {
		base = real
	}

	candidates := []string{filepath.Clean(abs), realPath(abs)}
	for _, c := range candidates {
		if !contains(v.baseDirectory, c) && !contains(base, c) {
			return false, nil
		}
	}
	return true, nil
}

func contains(dir, path string) bool {
	if path == dir {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// realPath resolves symlinks in the longest existing prefix of path and appends the
// remaining, not yet existing, components.
func realPath(path string) string {
	existing := filepath.Clean(path)
	var rest []string
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return filepath.Clean(path)
		}
		rest = append([]string{filepath.Base(existing)}, rest...)
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Join(append([]string{resolved}, rest...)...)
}
