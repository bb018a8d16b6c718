//go:build linux

package enforce

import (
	"fmt"
	"os"

	landlock "github.com/landlock-lsm/go-landlock/landlock"

	"github.com/southpawriter02/sidekick-sub001/internal/logger"
)

// Supported reports whether this build can enforce rules in the kernel.
// Whether the running kernel actually cooperates surfaces when Apply runs.
func Supported() bool { return true }

// Apply restricts the current process, and everything it execs afterwards,
// to the accumulated rules. Paths that do not exist are skipped; Landlock
// refuses rules on missing paths. Directory and file rules are built
// separately because directory access rights are invalid on regular files.
func (r *Restrictor) Apply() error {
	rules := make([]landlock.Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		info, err := os.Stat(rule.Path)
		if err != nil {
			logger.Debug("enforce: skipping %s (%s): %v", rule.Path, rule.Access, err)
			continue
		}
		switch {
		case info.IsDir() && rule.Access == AccessReadWrite:
			rules = append(rules, landlock.RWDirs(rule.Path))
		case info.IsDir():
			rules = append(rules, landlock.RODirs(rule.Path))
		case rule.Access == AccessReadWrite:
			rules = append(rules, landlock.RWFiles(rule.Path))
		default:
			rules = append(rules, landlock.ROFiles(rule.Path))
		}
	}

	cfg := landlock.V6
	if r.bestEffort {
		cfg = cfg.BestEffort()
	}
	if err := cfg.RestrictPaths(rules...); err != nil {
		return fmt.Errorf("landlock restriction failed: %w", err)
	}
	logger.Debug("enforce: landlock applied with %d rules", len(rules))
	return nil
}
