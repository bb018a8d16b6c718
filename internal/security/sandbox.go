// Package security enforces what an autonomous coding agent may execute and
// touch. A CommandSandbox carries the process-wide policy and audit log;
// per-task file decisions layer a FileScope on top via FileAccess.
//
// The engine prefers refusing a legitimate operation over letting a
// destructive one through. Checks that cannot complete treat their subject
// as hostile, with one deliberate exception: a command that is merely absent
// from the allowlist is reported, not blocked, because agents routinely need
// tools nobody thought to list.
package security

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/southpawriter02/sidekick-sub001/internal/logger"
	"github.com/southpawriter02/sidekick-sub001/internal/shellparse"
)

// maxSanitizedLen caps the output of SanitizeInput.
const maxSanitizedLen = 10000

// CommandSandbox validates commands and file paths against a Config and
// records every refusal in an injected EventLog. It is safe for concurrent
// use; config swaps are atomic and validations in flight finish under the
// snapshot they started with.
type CommandSandbox struct {
	mu     sync.RWMutex
	cfg    Config
	events *EventLog
	log    *logger.Logger
}

// NewCommandSandbox builds a sandbox around the given policy. The config is
// validated first and copied, so later mutation of the caller's value has no
// effect. A nil event log gets a fresh private one.
func NewCommandSandbox(cfg Config, events *EventLog) (*CommandSandbox, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if events == nil {
		events = NewEventLog()
	}
	return &CommandSandbox{
		cfg:    cfg.Clone(),
		events: events,
		log:    logger.Global().WithPrefix("sandbox"),
	}, nil
}

// Config returns a copy of the active policy.
func (s *CommandSandbox) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// UpdateConfig swaps the active policy for cfg. An invalid cfg is rejected
// whole and the previous policy stays in force. Validations already running
// finish against the config they snapshotted.
func (s *CommandSandbox) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		s.log.Warn("config update rejected: %v", err)
		return fmt.Errorf("config update rejected: %w", err)
	}
	s.mu.Lock()
	s.cfg = cfg.Clone()
	s.mu.Unlock()

	fp := cfg.Fingerprint()
	s.events.Append(newEvent(EventConfigUpdated, SeverityInfo,
		fmt.Sprintf("config replaced, fingerprint %s", fp), false))
	s.log.Info("config replaced, fingerprint %s", fp)
	return nil
}

// snapshot returns the active config without holding the lock afterwards.
func (s *CommandSandbox) snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ValidateCommand judges one shell command line before execution. All checks
// run and every finding lands in the result:
//
//   - dangerous idioms from the built-in pattern table, blocking
//   - blocked substrings from the config, blocking
//   - per-segment allowlist misses, reported as warnings only
//   - a working directory under a restricted path, blocking
//
// An empty workingDir skips the directory check. When the result is a
// refusal, exactly one COMMAND_BLOCKED event is recorded for the call.
func (s *CommandSandbox) ValidateCommand(commandLine, workingDir string) Result {
	cfg := s.snapshot()
	trimmed := strings.TrimSpace(commandLine)
	if trimmed == "" || !cfg.Enabled {
		return newResult(commandLine, nil)
	}

	var issues []Issue
	for _, match := range matchDangerousPatterns(trimmed) {
		issues = append(issues, Issue{
			Type:        IssueTypeDangerousPattern,
			Severity:    match.Severity,
			Description: fmt.Sprintf("dangerous pattern %s: %s", match.Name, match.Description),
		})
	}
	if pattern := cfg.FindBlockedPattern(trimmed); pattern != "" {
		issues = append(issues, Issue{
			Type:        IssueTypeBlockedPattern,
			Severity:    SeverityCritical,
			Description: fmt.Sprintf("command contains blocked pattern %q", pattern),
		})
	}

	warned := map[string]bool{}
	for _, segment := range shellparse.Segments(trimmed) {
		if cfg.IsCommandAllowed(segment) {
			continue
		}
		base := shellparse.BaseCommand(segment)
		if warned[base] {
			continue
		}
		warned[base] = true
		issues = append(issues, Issue{
			Type:        IssueTypeUnknownCommand,
			Severity:    SeverityWarning,
			Description: fmt.Sprintf("command %q is not on the allowlist", base),
		})
	}

	if strings.TrimSpace(workingDir) != "" && cfg.IsPathRestricted(workingDir) {
		issues = append(issues, Issue{
			Type:        IssueTypeRestrictedPath,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("working directory %q falls under a restricted system path", workingDir),
		})
	}

	res := newResult(commandLine, issues)
	if !res.Valid {
		severity, summary := blockedSummary(issues)
		s.events.Append(newEvent(EventCommandBlocked, severity,
			fmt.Sprintf("command %q blocked: %s", clip(trimmed, 200), summary), true))
		s.log.Warn("refused command %q: %s", clip(trimmed, 200), summary)
	}
	return res
}

// ValidateFileAccess judges a path against the process-wide policy alone,
// with no task scope involved: traversal segments, restricted paths, and the
// size ceiling. A refusal records exactly one FILE_ACCESS_BLOCKED event.
func (s *CommandSandbox) ValidateFileAccess(path string) Result {
	cfg := s.snapshot()
	if !cfg.Enabled {
		return newResult(path, nil)
	}

	var issues []Issue
	if hasTraversalSegment(path) {
		issues = append(issues, Issue{
			Type:        IssueTypePathTraversal,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("path %q contains a parent-directory traversal segment", path),
		})
	}
	if cfg.IsPathRestricted(path) {
		issues = append(issues, Issue{
			Type:        IssueTypeRestrictedPath,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("path %q falls under a restricted system path", path),
		})
	}
	issues = append(issues, fileSizeIssues(cfg, path)...)

	res := newResult(path, issues)
	if !res.Valid {
		severity, summary := blockedSummary(issues)
		s.events.Append(newEvent(EventFileAccessBlocked, severity,
			fmt.Sprintf("file access %q blocked: %s", clip(path, 200), summary), true))
		s.log.Warn("refused file access %q: %s", clip(path, 200), summary)
	}
	return res
}

// inputSanitizer drops every character that lets text break out of a shell
// word or start a substitution.
var inputSanitizer = strings.NewReplacer(
	"<", "", ">", "", "`", "", "'", "", `"`, "",
	"$", "", ";", "", "|", "", "&", "",
)

// SanitizeInput strips shell metacharacters from untrusted text and cuts the
// result to a bounded length, on a rune boundary. It never fails; the return
// value is always safe to interpolate into a command word.
func (s *CommandSandbox) SanitizeInput(input string) string {
	out := inputSanitizer.Replace(input)
	if utf8.RuneCountInString(out) <= maxSanitizedLen {
		return out
	}
	runes := []rune(out)
	return string(runes[:maxSanitizedLen])
}

var injectionChecks = []struct {
	re   *regexp.Regexp
	what string
}{
	{regexp.MustCompile("\\$\\(|`"), "shell command substitution"},
	{regexp.MustCompile(`;\s*\S`), "chained command after a semicolon"},
	{regexp.MustCompile(`(\|\||&&)\s*\S`), "conditional command chaining"},
	{regexp.MustCompile(`\|\s*(sudo\s+)?(ba|z|da|k|fi)?sh\b`), "pipe into a shell"},
	{regexp.MustCompile("[\n\r\x00]"), "control character"},
}

// CheckForInjection scans untrusted text for signs it is trying to escape
// into the shell. Findings are warnings: the result stays valid, and the
// caller decides whether to sanitize, confirm, or refuse. Suspicious input
// records one INJECTION_SUSPECTED event.
func (s *CommandSandbox) CheckForInjection(input string) Result {
	var issues []Issue
	for _, check := range injectionChecks {
		if check.re.MatchString(input) {
			issues = append(issues, Issue{
				Type:        IssueTypeInjectionRisk,
				Severity:    SeverityWarning,
				Description: fmt.Sprintf("input contains %s", check.what),
			})
		}
	}
	if len(issues) > 0 {
		var kinds []string
		for _, is := range issues {
			kinds = append(kinds, is.Description)
		}
		s.events.Append(newEvent(EventInjectionSuspected, SeverityWarning,
			fmt.Sprintf("suspicious input %q: %s", clip(input, 200), strings.Join(kinds, "; ")), false))
		s.log.Debug("suspicious input %q: %s", clip(input, 200), strings.Join(kinds, "; "))
	}
	return newResult(input, issues)
}

// RequiresConfirmation reports whether the active confirm level wants a
// human in the loop before this command runs. Under ConfirmDestructive that
// means a destructive binary in any segment or a dangerous-pattern match.
func (s *CommandSandbox) RequiresConfirmation(commandLine string) bool {
	cfg := s.snapshot()
	trimmed := strings.TrimSpace(commandLine)
	if !cfg.Enabled || trimmed == "" {
		return false
	}
	switch cfg.ConfirmLevel {
	case ConfirmAll:
		return true
	case ConfirmDestructive:
		if len(matchDangerousPatterns(trimmed)) > 0 {
			return true
		}
		for _, segment := range shellparse.Segments(trimmed) {
			if destructiveCommands[shellparse.BaseCommand(segment)] {
				return true
			}
		}
	}
	return false
}

// Events returns the audit log so far, oldest first.
func (s *CommandSandbox) Events() []Event { return s.events.All() }

// RecentEvents returns up to n events, newest first.
func (s *CommandSandbox) RecentEvents(n int) []Event { return s.events.Recent(n) }

// ClearEvents empties the audit log.
func (s *CommandSandbox) ClearEvents() { s.events.Clear() }

// EventSink exposes the underlying log, for hosts that persist or drain it.
func (s *CommandSandbox) EventSink() *EventLog { return s.events }

func blockedSummary(issues []Issue) (Severity, string) {
	severity := SeverityInfo
	var descs []string
	for _, is := range issues {
		if !is.ShouldBlock() {
			continue
		}
		if is.Severity > severity {
			severity = is.Severity
		}
		descs = append(descs, is.Description)
	}
	return severity, strings.Join(descs, "; ")
}

func clip(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
