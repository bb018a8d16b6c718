package security

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// canonicalPath resolves a path to its absolute, symlink-free form. A home
// prefix is expanded first so deny rules written as ~/... compare correctly.
func canonicalPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("empty path")
	}
	abs, err := filepath.Abs(expandHome(path))
	if err != nil {
		return "", err
	}
	return resolveSymlinks(abs)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// resolveSymlinks follows symlinks, walking up past trailing components that
// do not exist yet so a path about to be created still canonicalizes against
// its existing ancestors.
func resolveSymlinks(abs string) (string, error) {
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	parent := filepath.Dir(abs)
	if parent == abs {
		return abs, nil
	}
	resolvedParent, err := resolveSymlinks(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(abs)), nil
}

// containsDir reports whether path equals dir or lies inside it. Comparison
// happens at directory boundaries, so /proj never admits /project-other.
func containsDir(dir, path string) bool {
	if dir == "" || path == "" {
		return false
	}
	if path == dir {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	return strings.HasPrefix(path, prefix)
}

// hasTraversalSegment checks the raw path for parent-directory segments.
// This runs before canonicalization, which would silently fold the segments
// away and mask the intent.
func hasTraversalSegment(path string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}
