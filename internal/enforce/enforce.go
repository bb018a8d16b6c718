// Package enforce lowers a task's file scope onto the kernel before a
// command runs. On Linux the rules become a Landlock ruleset, so even a
// command that slipped past validation cannot leave its directories; on
// other platforms Apply is a no-op and validation remains the only line.
package enforce

import (
	"os"
	"slices"

	"github.com/southpawriter02/sidekick-sub001/internal/security"
)

// Access is the amount of filesystem access a rule grants.
type Access int

const (
	AccessReadOnly Access = iota
	AccessReadWrite
)

func (a Access) String() string {
	if a == AccessReadWrite {
		return "rw"
	}
	return "ro"
}

// PathRule grants one path to the restricted process.
type PathRule struct {
	Path   string
	Access Access
}

// Restrictor accumulates path rules and applies them to the current process.
// Applying is one-way: once restricted, a process cannot widen its access
// again, so build the full rule set first.
type Restrictor struct {
	rules      []PathRule
	bestEffort bool
}

// New returns an empty Restrictor. With bestEffort set, applying downgrades
// gracefully on kernels with older or absent Landlock support instead of
// failing.
func New(bestEffort bool) *Restrictor {
	return &Restrictor{bestEffort: bestEffort}
}

// FromScope builds a Restrictor whose rules mirror the scope: every scope
// root becomes read-write, or read-only for a read-only scope, on top of the
// baseline a spawned command needs to run at all.
func FromScope(scope security.FileScope, bestEffort bool) *Restrictor {
	r := New(bestEffort)

	access := AccessReadWrite
	if scope.ReadOnly() {
		access = AccessReadOnly
	}
	for _, root := range scope.Roots() {
		r.AddRule(root, access)
	}

	for _, path := range baselineReadOnly() {
		r.AddRule(path, AccessReadOnly)
	}
	for _, path := range baselineReadWrite() {
		r.AddRule(path, AccessReadWrite)
	}
	return r
}

// AddRule grants path with the given access. Duplicate paths keep the wider
// access.
func (r *Restrictor) AddRule(path string, access Access) {
	for i, rule := range r.rules {
		if rule.Path != path {
			continue
		}
		if access > rule.Access {
			r.rules[i].Access = access
		}
		return
	}
	r.rules = append(r.rules, PathRule{Path: path, Access: access})
}

// Rules returns a copy of the accumulated rules.
func (r *Restrictor) Rules() []PathRule {
	return slices.Clone(r.rules)
}

// baselineReadOnly lists the system trees a command needs to load binaries,
// libraries, and configuration.
func baselineReadOnly() []string {
	return []string{
		"/usr", "/bin", "/sbin",
		"/lib", "/lib64",
		"/etc",
		"/usr/local/bin", "/usr/local/lib",
	}
}

// baselineReadWrite lists scratch space and the device files everyday
// programs write to.
func baselineReadWrite() []string {
	return []string{
		os.TempDir(), "/tmp", "/var/tmp",
		"/dev/null", "/dev/zero",
		"/dev/random", "/dev/urandom",
		"/dev/stdin", "/dev/stdout", "/dev/stderr",
	}
}
