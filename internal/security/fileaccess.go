package security

import (
	"fmt"
	"os"
)

// FileAccess judges file operations for one task by combining that task's
// FileScope with a process-wide Config. It snapshots the config at
// construction; a task keeps the policy it started with even if the sandbox
// moves on.
type FileAccess struct {
	scope FileScope
	cfg   Config
}

// NewFileAccess binds a task scope to a config snapshot.
func NewFileAccess(scope FileScope, cfg Config) FileAccess {
	return FileAccess{scope: scope, cfg: cfg.Clone()}
}

// Scope returns the task scope this gate enforces.
func (f FileAccess) Scope() FileScope { return f.scope }

// Config returns a copy of the config snapshot.
func (f FileAccess) Config() Config { return f.cfg.Clone() }

// ValidateAccess judges a read (forWrite false) or write (forWrite true) of
// path. It runs every check and reports all findings at once rather than
// stopping at the first, so a caller can log the full picture of a refusal.
func (f FileAccess) ValidateAccess(path string, forWrite bool) Result {
	var issues []Issue

	// The traversal check runs on the path as given. Canonicalization would
	// erase the ".." segments, and a caller spelling them out is a stronger
	// signal than the resolved target alone.
	if hasTraversalSegment(path) {
		issues = append(issues, Issue{
			Type:        IssueTypePathTraversal,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("path %q contains a parent-directory traversal segment", path),
		})
	}

	switch {
	case !f.scope.IsPathAllowed(path):
		issues = append(issues, Issue{
			Type:        IssueTypeOutOfScope,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("path %q is outside the task file scope", path),
		})
	case forWrite && f.scope.ReadOnly():
		issues = append(issues, Issue{
			Type:        IssueTypeScopeReadOnly,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("task scope is read-only, write to %q refused", path),
		})
	}

	if f.cfg.IsPathRestricted(path) {
		issues = append(issues, Issue{
			Type:        IssueTypeRestrictedPath,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("path %q falls under a restricted system path", path),
		})
	}

	issues = append(issues, fileSizeIssues(f.cfg, path)...)

	return newResult(path, issues)
}

// ValidateCommandWorkingDir judges the directory a task-issued command wants
// to run in. Unlike command validation on the sandbox, a missing directory is
// an error here: a task always runs its commands somewhere concrete.
func (f FileAccess) ValidateCommandWorkingDir(dir string) Result {
	var issues []Issue

	canonical, err := canonicalPath(dir)
	if err != nil {
		issues = append(issues, Issue{
			Type:        IssueTypeCwdOutOfScope,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("working directory %q cannot be resolved: %v", dir, err),
		})
		return newResult(dir, issues)
	}

	if info, err := os.Stat(canonical); err != nil || !info.IsDir() {
		issues = append(issues, Issue{
			Type:        IssueTypeCwdOutOfScope,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("working directory %q is not an existing directory", dir),
		})
	} else if !f.scope.IsPathAllowed(canonical) {
		issues = append(issues, Issue{
			Type:        IssueTypeCwdOutOfScope,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("working directory %q is outside the task file scope", dir),
		})
	}

	if f.cfg.IsPathRestricted(canonical) {
		issues = append(issues, Issue{
			Type:        IssueTypeRestrictedPath,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("working directory %q falls under a restricted system path", dir),
		})
	}

	return newResult(dir, issues)
}

// fileSizeIssues applies the size ceiling to an existing file. Missing files
// pass, a file over the ceiling warns without blocking, and a stat failure
// that is not plain absence warns that the size is unknown.
func fileSizeIssues(cfg Config, path string) []Issue {
	if !cfg.Enabled || cfg.MaxFileSize <= 0 {
		return nil
	}
	canonical, err := canonicalPath(path)
	if err != nil {
		return nil
	}
	info, err := os.Stat(canonical)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return []Issue{{
			Type:        IssueTypeFileSizeUnknown,
			Severity:    SeverityWarning,
			Description: fmt.Sprintf("size of %q could not be determined: %v", path, err),
		}}
	}
	if info.IsDir() || info.Size() <= cfg.MaxFileSize {
		return nil
	}
	return []Issue{{
		Type:     IssueTypeFileTooLarge,
		Severity: SeverityWarning,
		Description: fmt.Sprintf("file %q is %d bytes, over the %d byte ceiling",
			path, info.Size(), cfg.MaxFileSize),
	}}
}
