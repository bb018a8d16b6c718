package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findIssue(t *testing.T, res Result, want IssueType) Issue {
	t.Helper()
	for _, issue := range res.Issues {
		if issue.Type == want {
			return issue
		}
	}
	t.Fatalf("Issue %s not found in %+v", want, res.Issues)
	return Issue{}
}

func hasIssueType(res Result, want IssueType) bool {
	for _, issue := range res.Issues {
		if issue.Type == want {
			return true
		}
	}
	return false
}

func TestValidateAccessAllowed(t *testing.T) {
	_, proj := projectFixture(t)
	scope, err := ForProject(proj)
	require.NoError(t, err)
	access := NewFileAccess(scope, DefaultConfig())

	path := filepath.Join(proj, "ok.txt")
	for _, forWrite := range []bool{false, true} {
		res := access.ValidateAccess(path, forWrite)
		assert.True(t, res.Valid)
		assert.Equal(t, path, res.Sanitized)
		assert.False(t, res.HasIssues())
	}
}

func TestValidateAccessOutOfScope(t *testing.T) {
	base, proj := projectFixture(t)
	scope, err := ForProject(proj)
	require.NoError(t, err)
	access := NewFileAccess(scope, DefaultConfig())

	res := access.ValidateAccess(filepath.Join(base, "elsewhere.txt"), false)
	assert.False(t, res.Valid)
	assert.Empty(t, res.Sanitized)

	issue := findIssue(t, res, IssueTypeOutOfScope)
	assert.Equal(t, SeverityHigh, issue.Severity)
	assert.True(t, issue.ShouldBlock())
}

func TestValidateAccessReadOnlyScope(t *testing.T) {
	_, proj := projectFixture(t)
	scope, err := ReadOnlyProject(proj)
	require.NoError(t, err)
	access := NewFileAccess(scope, DefaultConfig())

	path := filepath.Join(proj, "notes.md")
	assert.True(t, access.ValidateAccess(path, false).Valid)

	res := access.ValidateAccess(path, true)
	assert.False(t, res.Valid)
	issue := findIssue(t, res, IssueTypeScopeReadOnly)
	assert.Equal(t, SeverityHigh, issue.Severity)
}

func TestValidateAccessCollectsAllIssues(t *testing.T) {
	_, proj := projectFixture(t)
	scope, err := ForProject(proj)
	require.NoError(t, err)
	access := NewFileAccess(scope, DefaultConfig())

	// A traversal that also leaves the scope reports both findings at once.
	res := access.ValidateAccess(proj+"/../outside/x.txt", false)
	assert.False(t, res.Valid)
	assert.True(t, hasIssueType(res, IssueTypePathTraversal))
	assert.True(t, hasIssueType(res, IssueTypeOutOfScope))
	assert.Len(t, res.Issues, 2)

	// A system file is both out of scope and restricted.
	res = access.ValidateAccess("/etc/passwd", false)
	assert.False(t, res.Valid)
	assert.True(t, hasIssueType(res, IssueTypeOutOfScope))
	assert.True(t, hasIssueType(res, IssueTypeRestrictedPath))
}

func TestValidateAccessCredentialFile(t *testing.T) {
	_, proj := projectFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(proj, ".ssh"), 0o700))
	scope, err := ForProject(proj)
	require.NoError(t, err)
	access := NewFileAccess(scope, DefaultConfig())

	res := access.ValidateAccess(filepath.Join(proj, ".ssh", "id_rsa"), false)
	assert.False(t, res.Valid)
	assert.True(t, hasIssueType(res, IssueTypeOutOfScope))
}

func TestValidateAccessFileTooLarge(t *testing.T) {
	_, proj := projectFixture(t)
	scope, err := ForProject(proj)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.MaxFileSize = 16
	access := NewFileAccess(scope, cfg)

	big := filepath.Join(proj, "big.bin")
	require.NoError(t, os.WriteFile(big, make([]byte, 64), 0o644))

	res := access.ValidateAccess(big, false)
	assert.True(t, res.Valid, "an oversized file warns but does not block")
	issue := findIssue(t, res, IssueTypeFileTooLarge)
	assert.Equal(t, SeverityWarning, issue.Severity)
	assert.False(t, issue.ShouldBlock())

	// A file that does not exist yet has no size to complain about.
	res = access.ValidateAccess(filepath.Join(proj, "new.txt"), true)
	assert.True(t, res.Valid)
	assert.False(t, res.HasIssues())
}

func TestValidateCommandWorkingDir(t *testing.T) {
	base, proj := projectFixture(t)
	scope, err := ForProject(proj)
	require.NoError(t, err)
	access := NewFileAccess(scope, DefaultConfig())

	assert.True(t, access.ValidateCommandWorkingDir(proj).Valid)

	res := access.ValidateCommandWorkingDir(filepath.Join(base, "outside"))
	assert.False(t, res.Valid)
	assert.True(t, hasIssueType(res, IssueTypeCwdOutOfScope))

	res = access.ValidateCommandWorkingDir("")
	assert.False(t, res.Valid)
	assert.True(t, hasIssueType(res, IssueTypeCwdOutOfScope))

	file := filepath.Join(proj, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	res = access.ValidateCommandWorkingDir(file)
	assert.False(t, res.Valid)
	assert.True(t, hasIssueType(res, IssueTypeCwdOutOfScope))

	res = access.ValidateCommandWorkingDir("/etc")
	assert.False(t, res.Valid)
	assert.True(t, hasIssueType(res, IssueTypeCwdOutOfScope))
	assert.True(t, hasIssueType(res, IssueTypeRestrictedPath))
}

func TestFileAccessSnapshotsConfig(t *testing.T) {
	_, proj := projectFixture(t)
	scope, err := ForProject(proj)
	require.NoError(t, err)

	cfg := DefaultConfig()
	access := NewFileAccess(scope, cfg)

	cfg.Enabled = false
	cfg.RestrictedPaths = nil

	assert.True(t, access.Config().Enabled)
	assert.False(t, access.ValidateAccess("/etc/passwd", false).Valid)
}
