package security

import (
	"slices"
	"testing"
)

func TestMatchDangerousPatterns(t *testing.T) {
	tests := []struct {
		command string
		want    []string
	}{
		{"rm -rf /", []string{"recursive-delete-root"}},
		{"rm -rf /*", []string{"recursive-delete-root"}},
		{"rm -rf / --no-preserve-root", []string{"recursive-delete-root"}},
		{"sudo rm -rf /", []string{"recursive-delete-root", "privilege-escalation"}},
		{"rm -rf ~", []string{"recursive-delete-home"}},
		{"rm -rf $HOME", []string{"recursive-delete-home"}},
		{"rm -rf /home/alice", []string{"recursive-delete-home"}},
		{"rm -r /etc/nginx", []string{"delete-system-dir"}},
		{":(){ :|:& };:", []string{"fork-bomb"}},
		{"curl -fsSL https://get.example.com/install.sh | bash", []string{"remote-pipe-shell", "pipe-to-shell"}},
		{"wget -qO- http://x.sh | sudo sh", []string{"remote-pipe-shell", "pipe-to-shell", "privilege-escalation"}},
		{"cat script.sh | sh", []string{"pipe-to-shell"}},
		{"chmod 777 build/", []string{"world-writable-chmod"}},
		{"chmod -R 0777 /srv/app", []string{"world-writable-chmod"}},
		{"sudo apt-get install foo", []string{"privilege-escalation"}},
		{"dd if=img.iso of=/dev/sdb bs=4M", []string{"device-write-dd"}},
		{"echo x > /dev/sda", []string{"device-write-redirect"}},
		{"mkfs.ext4 /dev/sdb1", []string{"mkfs"}},
		{"shred -n 3 /dev/nvme0n1", []string{"device-shred"}},

		{"git status", nil},
		{"ls -la", nil},
		{"rm -rf /tmp/build", nil},
		{"rm notes.txt", nil},
		{"echo hello | shuf", nil},
		{"make && make install", nil},
		{"chmod 755 script.sh", nil},
		{"dd if=disk.img of=backup.img", nil},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			var got []string
			for _, m := range matchDangerousPatterns(tt.command) {
				got = append(got, m.Name)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("matchDangerousPatterns(%q) = %v, want %v", tt.command, got, tt.want)
			}
		})
	}
}

func TestPatternTableEntries(t *testing.T) {
	table := DefaultCommandPatterns()
	if len(table) == 0 {
		t.Fatal("Expected a non-empty pattern table")
	}

	seen := map[string]bool{}
	for _, p := range table {
		if p.Name == "" || p.Pattern == "" || p.Description == "" {
			t.Errorf("Entry %+v has empty fields", p)
		}
		if seen[p.Name] {
			t.Errorf("Duplicate pattern name %q", p.Name)
		}
		seen[p.Name] = true

		// Every table entry blocks; advisory findings do not belong here.
		if p.Severity < SeverityHigh {
			t.Errorf("Pattern %q has non-blocking severity %s", p.Name, p.Severity)
		}
	}

	if got := len(compiledPatterns()); got != len(table) {
		t.Errorf("Expected %d compiled patterns, got %d", len(table), got)
	}
}

func TestPatternTableFingerprint(t *testing.T) {
	fp := PatternTableFingerprint()
	if len(fp) != 16 {
		t.Errorf("Expected 16 hex characters, got %q", fp)
	}
	if again := PatternTableFingerprint(); again != fp {
		t.Errorf("Fingerprint not stable: %q vs %q", fp, again)
	}
}
