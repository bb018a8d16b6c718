package security

// IssueType tags the kind of problem a validation found.
type IssueType string

const (
	IssueTypePathTraversal    IssueType = "path_traversal"
	IssueTypeOutOfScope       IssueType = "out_of_scope"
	IssueTypeScopeReadOnly    IssueType = "scope_read_only"
	IssueTypeRestrictedPath   IssueType = "restricted_path"
	IssueTypeFileTooLarge     IssueType = "file_too_large"
	IssueTypeFileSizeUnknown  IssueType = "file_size_unknown"
	IssueTypeCwdOutOfScope    IssueType = "cwd_out_of_scope"
	IssueTypeDangerousPattern IssueType = "dangerous_pattern"
	IssueTypeUnknownCommand   IssueType = "unknown_command"
	IssueTypeBlockedPattern   IssueType = "blocked_pattern"
	IssueTypeInjectionRisk    IssueType = "injection_risk"
)

// Issue describes a single problem found while validating a request.
type Issue struct {
	Type        IssueType `json:"type"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
}

// ShouldBlock reports whether this issue alone forces the request to fail.
func (i Issue) ShouldBlock() bool {
	return i.Severity >= SeverityHigh
}

// Result is the verdict for one validated request. Valid is true exactly
// when no collected issue blocks; Sanitized carries the input back to the
// caller only on a valid result.
type Result struct {
	Valid     bool    `json:"valid"`
	Sanitized string  `json:"sanitized,omitempty"`
	Issues    []Issue `json:"issues,omitempty"`
}

// newResult derives Valid from the collected issues so the invariant between
// the two can not drift.
func newResult(sanitized string, issues []Issue) Result {
	result := Result{Valid: true, Issues: issues}
	for _, issue := range issues {
		if issue.ShouldBlock() {
			result.Valid = false
			break
		}
	}
	if result.Valid {
		result.Sanitized = sanitized
	}
	return result
}

// HasIssues reports whether any issue was collected, blocking or not.
func (r Result) HasIssues() bool {
	return len(r.Issues) > 0
}

// BlockingIssues returns the issues that forced the request to fail.
func (r Result) BlockingIssues() []Issue {
	var blocking []Issue
	for _, issue := range r.Issues {
		if issue.ShouldBlock() {
			blocking = append(blocking, issue)
		}
	}
	return blocking
}
