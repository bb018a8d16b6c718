package security

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Report renders a human-readable summary of the active policy and the audit
// log: what is enforced, how often it fired, and the latest refusals.
func (s *CommandSandbox) Report() string {
	cfg := s.snapshot()

	var b strings.Builder
	b.WriteString("security sandbox report\n")

	fmt.Fprintf(&b, "\nconfig (fingerprint %s):\n", cfg.Fingerprint())
	fmt.Fprintf(&b, "  enabled:           %t\n", cfg.Enabled)
	fmt.Fprintf(&b, "  confirm level:     %s\n", cfg.ConfirmLevel)
	if cfg.MaxFileSize > 0 {
		fmt.Fprintf(&b, "  max file size:     %d bytes\n", cfg.MaxFileSize)
	} else {
		b.WriteString("  max file size:     unlimited\n")
	}
	if len(cfg.AllowedCommands) > 0 {
		fmt.Fprintf(&b, "  allowed commands:  %d\n", len(cfg.AllowedCommands))
	} else {
		b.WriteString("  allowed commands:  no allowlist\n")
	}
	fmt.Fprintf(&b, "  restricted paths:  %d\n", len(cfg.RestrictedPaths))
	fmt.Fprintf(&b, "  blocked patterns:  %d\n", len(cfg.BlockedPatterns))

	fmt.Fprintf(&b, "\npattern table %s (fingerprint %s), %d entries\n",
		PatternTableVersion, PatternTableFingerprint(), len(DefaultCommandPatterns()))

	total := s.events.Len()
	fmt.Fprintf(&b, "\nevents: %d total, %d blocked\n", total, s.events.BlockedCount())
	counts := s.events.CountsByType()
	for _, eventType := range slices.Sorted(maps.Keys(counts)) {
		fmt.Fprintf(&b, "  %-20s %d\n", eventType, counts[eventType])
	}

	var refusals []Event
	for _, event := range s.events.Recent(total) {
		if !event.Blocked {
			continue
		}
		refusals = append(refusals, event)
		if len(refusals) == 5 {
			break
		}
	}
	if len(refusals) > 0 {
		b.WriteString("\nlatest refusals:\n")
		for _, event := range refusals {
			fmt.Fprintf(&b, "  %s [%s] %s\n",
				event.Timestamp.Format("2006-01-02 15:04:05"), event.Severity, event.Description)
		}
	}
	return b.String()
}
