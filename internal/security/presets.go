package security

// DefaultMaxFileSize caps file reads and writes under the secure preset.
const DefaultMaxFileSize = 10 << 20

// Preset builds a known-good Config. The set of presets is fixed: callers
// pick one by name and then adjust the result with Harden or Relax rather
// than defining presets of their own.
type Preset interface {
	Name() string
	Description() string
	Build() Config
}

var (
	_ Preset = securePreset{}
	_ Preset = permissivePreset{}
)

// Presets returns every built-in preset, strictest first.
func Presets() []Preset {
	return []Preset{securePreset{}, permissivePreset{}}
}

// PresetByName looks up a built-in preset by its Name.
func PresetByName(name string) (Preset, bool) {
	for _, p := range Presets() {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// DefaultConfig is the secure preset, the policy a sandbox starts from when
// the host expresses no preference.
func DefaultConfig() Config {
	return securePreset{}.Build()
}

// PermissiveConfig relaxes most checks while keeping the floor that refuses
// catastrophic operations.
func PermissiveConfig() Config {
	return permissivePreset{}.Build()
}

type securePreset struct{}

func (securePreset) Name() string { return "secure" }

func (securePreset) Description() string {
	return "allowlisted commands, system and secret paths off limits, confirmation for destructive commands"
}

func (securePreset) Build() Config {
	return Config{
		Enabled:         true,
		AllowedCommands: secureAllowedCommands(),
		RestrictedPaths: defaultRestrictedPaths(),
		BlockedPatterns: defaultBlockedPatterns(),
		MaxFileSize:     DefaultMaxFileSize,
		ConfirmLevel:    ConfirmDestructive,
	}
}

type permissivePreset struct{}

func (permissivePreset) Name() string { return "permissive" }

func (permissivePreset) Description() string {
	return "no allowlist and no size ceiling, catastrophic commands and secret paths still refused"
}

func (permissivePreset) Build() Config {
	return Config{
		Enabled: true,
		RestrictedPaths: []string{
			"/dev", "/proc", "/sys",
			"~/.ssh", "~/.aws", "~/.gnupg",
		},
		BlockedPatterns: defaultBlockedPatterns(),
		MaxFileSize:     0,
		ConfirmLevel:    ConfirmNone,
	}
}

// secureAllowedCommands is the allowlist of the secure preset: everyday
// read-mostly developer tooling. Shells, package managers that execute
// arbitrary scripts, and privilege tools are deliberately absent.
func secureAllowedCommands() []string {
	return []string{
		"cat", "ls", "pwd", "echo", "grep", "find",
		"head", "tail", "wc", "diff", "sort", "uniq",
		"which", "stat", "env", "mkdir", "touch",
		"git", "go", "make", "npm", "node", "python3",
		"sed", "awk",
	}
}

func defaultRestrictedPaths() []string {
	return []string{
		"/etc", "/usr", "/bin", "/sbin",
		"/lib", "/lib64", "/boot",
		"/dev", "/proc", "/sys", "/root",
		"~/.ssh", "~/.aws", "~/.gnupg",
	}
}

// defaultBlockedPatterns are case-insensitive substrings that have no
// legitimate use in an agent-issued command. Anything with everyday uses
// belongs in the regex table instead, where matching can be precise.
func defaultBlockedPatterns() []string {
	return []string{
		"mkfs",
		":(){",
		"of=/dev/sd",
		"of=/dev/nvme",
		"--no-preserve-root",
	}
}
