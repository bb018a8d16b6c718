package security

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/southpawriter02/sidekick-sub001/internal/shellparse"
)

// ErrConfigInvalid is wrapped by every Config.Validate failure so callers can
// match rejections with errors.Is.
var ErrConfigInvalid = errors.New("invalid security config")

// ConfirmLevel selects how eagerly the host should ask a human before a
// command runs.
type ConfirmLevel string

const (
	// ConfirmNone never requests confirmation.
	ConfirmNone ConfirmLevel = "none"
	// ConfirmDestructive requests confirmation for destructive commands only.
	ConfirmDestructive ConfirmLevel = "destructive"
	// ConfirmAll requests confirmation for every command.
	ConfirmAll ConfirmLevel = "all"
)

func confirmRank(l ConfirmLevel) int {
	switch l {
	case ConfirmDestructive:
		return 1
	case ConfirmAll:
		return 2
	default:
		return 0
	}
}

// Config is the declarative policy a sandbox enforces. It is plain data:
// copying it with Clone and swapping it atomically is how updates happen, so
// none of its methods mutate the receiver.
//
// An empty AllowedCommands list means no allowlist at all, not an empty one.
type Config struct {
	Enabled         bool         `json:"enabled"`
	AllowedCommands []string     `json:"allowed_commands,omitempty"`
	RestrictedPaths []string     `json:"restricted_paths,omitempty"`
	BlockedPatterns []string     `json:"blocked_patterns,omitempty"`
	MaxFileSize     int64        `json:"max_file_size"`
	ConfirmLevel    ConfirmLevel `json:"confirm_level"`
}

// Clone returns a deep copy. The zero-length slices of the copy are
// independent of the original's backing arrays.
func (c Config) Clone() Config {
	out := c
	out.AllowedCommands = slices.Clone(c.AllowedCommands)
	out.RestrictedPaths = slices.Clone(c.RestrictedPaths)
	out.BlockedPatterns = slices.Clone(c.BlockedPatterns)
	return out
}

// Validate reports whether the config is internally consistent. Every
// failure wraps ErrConfigInvalid.
func (c Config) Validate() error {
	if c.MaxFileSize < 0 {
		return fmt.Errorf("%w: max file size must not be negative, got %d", ErrConfigInvalid, c.MaxFileSize)
	}
	switch c.ConfirmLevel {
	case ConfirmNone, ConfirmDestructive, ConfirmAll:
	default:
		return fmt.Errorf("%w: unknown confirm level %q", ErrConfigInvalid, c.ConfirmLevel)
	}
	for _, cmd := range c.AllowedCommands {
		if strings.TrimSpace(cmd) == "" {
			return fmt.Errorf("%w: allowed commands must not be blank", ErrConfigInvalid)
		}
		if strings.ContainsAny(cmd, " \t/") {
			return fmt.Errorf("%w: allowed command %q must be a bare command name", ErrConfigInvalid, cmd)
		}
	}
	for _, p := range c.RestrictedPaths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: restricted paths must not be blank", ErrConfigInvalid)
		}
		if !strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "~") {
			return fmt.Errorf("%w: restricted path %q must be absolute or home-relative", ErrConfigInvalid, p)
		}
	}
	for _, p := range c.BlockedPatterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: blocked patterns must not be blank", ErrConfigInvalid)
		}
	}
	return nil
}

// IsCommandAllowed reports whether the base command of the given command line
// is covered by the allowlist. Leading environment assignments and directory
// prefixes are ignored, so "FOO=1 /usr/bin/git status" is judged as "git".
//
// A disabled config, an absent allowlist, and a line with no command at all
// each allow everything; the caller decides what a refusal means.
func (c Config) IsCommandAllowed(commandLine string) bool {
	if !c.Enabled || len(c.AllowedCommands) == 0 {
		return true
	}
	base := shellparse.BaseCommand(commandLine)
	if base == "" {
		return true
	}
	return slices.Contains(c.AllowedCommands, base)
}

// IsPathRestricted reports whether the path falls under a restricted root,
// or is an ancestor of one. Ancestors count because deleting or renaming a
// parent reaches everything below it. A path that cannot be canonicalized is
// treated as restricted.
func (c Config) IsPathRestricted(path string) bool {
	if !c.Enabled {
		return false
	}
	canonical, err := canonicalPath(path)
	if err != nil {
		return true
	}
	for _, r := range c.RestrictedPaths {
		root, err := canonicalPath(r)
		if err != nil {
			continue
		}
		if containsDir(root, canonical) || containsDir(canonical, root) {
			return true
		}
	}
	return false
}

// FindBlockedPattern returns the first blocked pattern the command line
// contains, matched case-insensitively as a substring, or "" when none does.
func (c Config) FindBlockedPattern(commandLine string) string {
	if !c.Enabled {
		return ""
	}
	lower := strings.ToLower(commandLine)
	for _, p := range c.BlockedPatterns {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return p
		}
	}
	return ""
}

// Harden returns a copy that is at least as strict as the receiver: checks
// enabled, the allowlist narrowed toward the secure baseline, restricted
// paths and blocked patterns extended by the baseline, the file-size ceiling
// capped, and confirmation escalated to destructive commands at minimum.
//
// The allowed set never grows, and it never collapses to the empty list,
// which would read as no allowlist at all.
func (c Config) Harden() Config {
	out := c.Clone()
	out.Enabled = true

	secure := secureAllowedCommands()
	if len(out.AllowedCommands) == 0 {
		out.AllowedCommands = secure
	} else {
		kept := make([]string, 0, len(out.AllowedCommands))
		for _, cmd := range out.AllowedCommands {
			if slices.Contains(secure, cmd) {
				kept = append(kept, cmd)
			}
		}
		if len(kept) > 0 {
			out.AllowedCommands = kept
		}
	}

	out.RestrictedPaths = appendMissing(out.RestrictedPaths, defaultRestrictedPaths())
	out.BlockedPatterns = appendMissing(out.BlockedPatterns, defaultBlockedPatterns())

	if out.MaxFileSize == 0 || out.MaxFileSize > DefaultMaxFileSize {
		out.MaxFileSize = DefaultMaxFileSize
	}
	if confirmRank(out.ConfirmLevel) < confirmRank(ConfirmDestructive) {
		out.ConfirmLevel = ConfirmDestructive
	}
	return out
}

// Relax returns a copy with confirmation prompts switched off and the
// file-size ceiling doubled. Restricted paths, blocked patterns, and the
// allowlist stay in place; Relax loosens friction, not the safety floor.
func (c Config) Relax() Config {
	out := c.Clone()
	out.ConfirmLevel = ConfirmNone
	if out.MaxFileSize > 0 {
		out.MaxFileSize *= 2
	}
	return out
}

// Fingerprint hashes the logical content of the config. Slice order does not
// matter, so two configs that enforce the same policy fingerprint equally.
func (c Config) Fingerprint() string {
	digest := xxhash.New()
	_, _ = digest.WriteString(strconv.FormatBool(c.Enabled))
	for _, group := range [][]string{c.AllowedCommands, c.RestrictedPaths, c.BlockedPatterns} {
		sorted := slices.Clone(group)
		slices.Sort(sorted)
		_, _ = digest.WriteString("\x1e")
		for _, entry := range sorted {
			_, _ = digest.WriteString(entry)
			_, _ = digest.WriteString("\x00")
		}
	}
	_, _ = digest.WriteString("\x1e")
	_, _ = digest.WriteString(strconv.FormatInt(c.MaxFileSize, 10))
	_, _ = digest.WriteString("\x1e")
	_, _ = digest.WriteString(string(c.ConfirmLevel))
	return fmt.Sprintf("%016x", digest.Sum64())
}

func appendMissing(base, extra []string) []string {
	out := slices.Clone(base)
	for _, e := range extra {
		if !slices.Contains(out, e) {
			out = append(out, e)
		}
	}
	return out
}
