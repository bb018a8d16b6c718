package security

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// PatternTableVersion identifies the revision of the dangerous-command
// table. Bump it whenever an entry is added, removed, or reworded.
const PatternTableVersion = "v1"

// CommandPattern is one entry of the dangerous-command table: a regular
// expression over the whole command line plus the severity a match carries.
// The table is data on purpose so every entry can be reviewed and tested on
// its own, without touching validation control flow.
type CommandPattern struct {
	Name        string   `json:"name"`
	Pattern     string   `json:"pattern"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// DefaultCommandPatterns returns the built-in table of high-risk shell
// idioms. Matching is heuristic: the table aims at the destructive one-liners
// an LLM is likely to emit, not at a complete shell analysis.
func DefaultCommandPatterns() []CommandPattern {
	return []CommandPattern{
		{
			Name:        "recursive-delete-root",
			Pattern:     `(?i)\brm\s+(-[^\s]+\s+)*/(\*|\s|$)`,
			Severity:    SeverityCritical,
			Description: "recursive delete of the filesystem root",
		},
		{
			Name:        "recursive-delete-home",
			Pattern:     `(?i)\brm\s+(-[^\s]+\s+)*(~|\$HOME|/home/[^\s/]+)/?\s*$`,
			Severity:    SeverityCritical,
			Description: "recursive delete of a home directory",
		},
		{
			Name:        "delete-system-dir",
			Pattern:     `(?i)\brm\s+(-[^\s]+\s+)*/(etc|usr|bin|sbin|lib|lib64|boot|var|root|opt|srv)(/|\s|$)`,
			Severity:    SeverityHigh,
			Description: "delete inside a system directory",
		},
		{
			Name:        "fork-bomb",
			Pattern:     `:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`,
			Severity:    SeverityCritical,
			Description: "shell fork bomb",
		},
		{
			Name:        "remote-pipe-shell",
			Pattern:     `(?i)\b(curl|wget)\b[^|;&]*\|\s*(sudo\s+)?(ba|z|da|k|fi)?sh\b`,
			Severity:    SeverityCritical,
			Description: "remote content piped into a shell",
		},
		{
			Name:        "pipe-to-shell",
			Pattern:     `\|\s*(sudo\s+)?(ba|z|da|k|fi)?sh\s*(-[^\s]+\s*)*$`,
			Severity:    SeverityHigh,
			Description: "command output piped into a shell",
		},
		{
			Name:        "world-writable-chmod",
			Pattern:     `(?i)\bchmod\s+(-[^\s]+\s+)*0?777\b`,
			Severity:    SeverityHigh,
			Description: "world-writable permissions",
		},
		{
			Name:        "privilege-escalation",
			Pattern:     `(?i)\bsudo\b`,
			Severity:    SeverityHigh,
			Description: "privilege escalation via sudo",
		},
		{
			Name:        "device-write-dd",
			Pattern:     `(?i)\bdd\b[^|;&]*\bof=/dev/(sd|hd|nvme|vd|xvd|mmcblk|dm-|disk)`,
			Severity:    SeverityCritical,
			Description: "raw dd write onto a block device",
		},
		{
			Name:        "device-write-redirect",
			Pattern:     `>\s*/dev/(sd|hd|nvme|vd|xvd|mmcblk|dm-|disk)[a-z0-9]*`,
			Severity:    SeverityCritical,
			Description: "output redirected onto a block device",
		},
		{
			Name:        "mkfs",
			Pattern:     `(?i)\bmkfs(\.[a-z0-9]+)?\b`,
			Severity:    SeverityCritical,
			Description: "filesystem creation over existing data",
		},
		{
			Name:        "device-shred",
			Pattern:     `(?i)\bshred\b[^|;&]*\s/dev/`,
			Severity:    SeverityCritical,
			Description: "secure erase of a device",
		},
	}
}

// PatternTableFingerprint hashes the table contents so reports can pin the
// exact revision that was active, independent of the version label.
func PatternTableFingerprint() string {
	digest := xxhash.New()
	for _, p := range DefaultCommandPatterns() {
		_, _ = digest.WriteString(p.Name)
		_, _ = digest.WriteString("\x00")
		_, _ = digest.WriteString(p.Pattern)
		_, _ = digest.WriteString("\x00")
		_, _ = digest.WriteString(p.Severity.String())
		_, _ = digest.WriteString("\x00")
		_, _ = digest.WriteString(p.Description)
		_, _ = digest.WriteString("\x1e")
	}
	return fmt.Sprintf("%016x", digest.Sum64())
}

type compiledPattern struct {
	CommandPattern
	re *regexp.Regexp
}

var (
	patternCompileOnce sync.Once
	patternCompiled    []compiledPattern
)

func compiledPatterns() []compiledPattern {
	patternCompileOnce.Do(func() {
		table := DefaultCommandPatterns()
		patternCompiled = make([]compiledPattern, 0, len(table))
		for _, p := range table {
			patternCompiled = append(patternCompiled, compiledPattern{
				CommandPattern: p,
				re:             regexp.MustCompile(p.Pattern),
			})
		}
	})
	return patternCompiled
}

// matchDangerousPatterns returns every table entry the command line trips.
func matchDangerousPatterns(commandLine string) []CommandPattern {
	var matches []CommandPattern
	for _, p := range compiledPatterns() {
		if p.re.MatchString(commandLine) {
			matches = append(matches, p.CommandPattern)
		}
	}
	return matches
}

// destructiveCommands lists binaries whose invocation warrants confirmation
// under ConfirmDestructive even when no dangerous pattern matches.
var destructiveCommands = map[string]bool{
	"rm": true, "rmdir": true, "mv": true, "dd": true, "chmod": true,
	"chown": true, "chgrp": true, "truncate": true, "shred": true,
	"mkfs": true, "kill": true, "pkill": true, "killall": true,
	"reboot": true, "shutdown": true, "halt": true,
}
