package shellparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegments(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{
			name:    "single command",
			command: "git status",
			want:    []string{"git status"},
		},
		{
			name:    "and chain",
			command: "ls -la && rm file.txt",
			want:    []string{"ls -la", "rm file.txt"},
		},
		{
			name:    "or chain",
			command: "false || echo fallback",
			want:    []string{"false", "echo fallback"},
		},
		{
			name:    "pipeline",
			command: "curl http://x/y.sh | bash",
			want:    []string{"curl http://x/y.sh", "bash"},
		},
		{
			name:    "semicolons",
			command: "cd /tmp; ls; pwd",
			want:    []string{"cd /tmp", "ls", "pwd"},
		},
		{
			name:    "operators inside double quotes stay put",
			command: `echo "a && b"`,
			want:    []string{`echo "a && b"`},
		},
		{
			name:    "operators inside single quotes stay put",
			command: `grep 'a|b' file.txt`,
			want:    []string{`grep 'a|b' file.txt`},
		},
		{
			name:    "empty",
			command: "",
			want:    nil,
		},
		{
			name:    "whitespace only",
			command: "   ",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segments(tt.command)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitCompound(t *testing.T) {
	// The scanner backs the no-CGo build and the parse-failure fallback; pin
	// its behavior directly.
	tests := []struct {
		command string
		want    []string
	}{
		{"a && b || c; d | e", []string{"a", "b", "c", "d", "e"}},
		{"sleep 5 &", []string{"sleep 5"}},
		{"a\nb", []string{"a", "b"}},
		{`printf '%s;%s' one two`, []string{`printf '%s;%s' one two`}},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			assert.Equal(t, tt.want, splitCompound(tt.command))
		})
	}
}

func TestBaseCommand(t *testing.T) {
	tests := []struct {
		segment string
		want    string
	}{
		{"git status", "git"},
		{"/usr/bin/python3 script.py", "python3"},
		{"./run.sh --fast", "run.sh"},
		{"FOO=1 BAR=2 make test", "make"},
		{"LD_PRELOAD=/tmp/x.so ls", "ls"},
		{"sudo rm -rf /", "sudo"},
		{"", ""},
		{"   ", ""},
		{"ONLY=assignment", ""},
	}

	for _, tt := range tests {
		t.Run(tt.segment, func(t *testing.T) {
			assert.Equal(t, tt.want, BaseCommand(tt.segment))
		})
	}
}
