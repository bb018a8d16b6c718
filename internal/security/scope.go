package security

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
)

// ErrScopeInvalid is wrapped by every FileScope construction and validation
// failure.
var ErrScopeInvalid = errors.New("invalid file scope")

// DefaultDenyPatterns returns the substrings a fresh scope refuses no matter
// which directories it spans. They cover the places credentials live.
func DefaultDenyPatterns() []string {
	return []string{".ssh", ".aws", ".gnupg", ".docker", ".kube"}
}

// FileScope bounds one task's file access to a set of directory trees. A
// scope is immutable once built: widening it means deriving a new scope with
// WithAdditionalDirectory and handing that to the task.
//
// All decisions run on canonical paths, with symlinks resolved, so a link
// pointing outside the scope does not smuggle its target inside. Anything
// that cannot be resolved is denied.
type FileScope struct {
	roots        []string
	denyPatterns []string
	readOnly     bool
}

// NewFileScope builds a scope over the given directories. Every directory
// must exist and resolve to a directory; the deny patterns are matched
// case-insensitively as substrings of canonical paths and win over any root.
func NewFileScope(dirs []string, denyPatterns []string, readOnly bool) (FileScope, error) {
	if len(dirs) == 0 {
		return FileScope{}, fmt.Errorf("%w: no directories", ErrScopeInvalid)
	}
	roots := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		root, err := canonicalScopeRoot(dir)
		if err != nil {
			return FileScope{}, err
		}
		if !slices.Contains(roots, root) {
			roots = append(roots, root)
		}
	}
	return FileScope{
		roots:        roots,
		denyPatterns: slices.Clone(denyPatterns),
		readOnly:     readOnly,
	}, nil
}

// ForProject builds the scope a coding task normally runs under: read-write
// access to the project tree, credentials directories denied.
func ForProject(projectDir string) (FileScope, error) {
	return NewFileScope([]string{projectDir}, DefaultDenyPatterns(), false)
}

// ReadOnlyProject is ForProject without write access, for tasks that only
// inspect a tree.
func ReadOnlyProject(projectDir string) (FileScope, error) {
	return NewFileScope([]string{projectDir}, DefaultDenyPatterns(), true)
}

func canonicalScopeRoot(dir string) (string, error) {
	root, err := canonicalPath(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrScopeInvalid, dir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrScopeInvalid, dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrScopeInvalid, dir)
	}
	return root, nil
}

// Validate reports whether the scope can authorize anything at all. The zero
// value fails, so an accidentally unset scope denies everything.
func (s FileScope) Validate() error {
	if len(s.roots) == 0 {
		return fmt.Errorf("%w: no directories", ErrScopeInvalid)
	}
	for _, root := range s.roots {
		if !strings.HasPrefix(root, "/") {
			return fmt.Errorf("%w: root %q is not absolute", ErrScopeInvalid, root)
		}
	}
	return nil
}

// IsPathAllowed reports whether the path may be read under this scope. The
// path is canonicalized first; deny patterns are checked before the roots,
// and a path that resolves under no root is refused. Errors deny.
func (s FileScope) IsPathAllowed(path string) bool {
	if s.Validate() != nil {
		return false
	}
	canonical, err := canonicalPath(path)
	if err != nil {
		return false
	}
	lower := strings.ToLower(canonical)
	for _, pattern := range s.denyPatterns {
		if pattern == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return false
		}
	}
	for _, root := range s.roots {
		if containsDir(root, canonical) {
			return true
		}
	}
	return false
}

// IsWriteAllowed is IsPathAllowed restricted further by the read-only flag.
func (s FileScope) IsWriteAllowed(path string) bool {
	return !s.readOnly && s.IsPathAllowed(path)
}

// WithAdditionalDirectory derives a new scope that also spans dir. The
// receiver is unchanged; deny patterns and the read-only flag carry over.
func (s FileScope) WithAdditionalDirectory(dir string) (FileScope, error) {
	if err := s.Validate(); err != nil {
		return FileScope{}, err
	}
	root, err := canonicalScopeRoot(dir)
	if err != nil {
		return FileScope{}, err
	}
	out := FileScope{
		roots:        slices.Clone(s.roots),
		denyPatterns: slices.Clone(s.denyPatterns),
		readOnly:     s.readOnly,
	}
	if !slices.Contains(out.roots, root) {
		out.roots = append(out.roots, root)
	}
	return out, nil
}

// ReadOnly reports whether the scope refuses writes.
func (s FileScope) ReadOnly() bool { return s.readOnly }

// Roots returns the canonical directories the scope spans.
func (s FileScope) Roots() []string { return slices.Clone(s.roots) }

// DenyPatterns returns the deny substrings the scope applies.
func (s FileScope) DenyPatterns() []string { return slices.Clone(s.denyPatterns) }
