// Package shellparse splits shell command lines into the individual commands
// a security check has to reason about. With CGo available the split is
// derived from the tree-sitter bash grammar; otherwise a quote-aware scanner
// handles the common compound forms (&&, ||, ;, |).
package shellparse

import (
	"strings"
)

// BaseCommand returns the binary name of a command segment: leading
// NAME=VALUE environment assignments are skipped and any directory part is
// stripped. Returns "" for an empty segment.
func BaseCommand(segment string) string {
	fields := strings.Fields(segment)
	for _, field := range fields {
		if isEnvAssignment(field) {
			continue
		}
		if idx := strings.LastIndexByte(field, '/'); idx >= 0 {
			field = field[idx+1:]
		}
		return field
	}
	return ""
}

func isEnvAssignment(token string) bool {
	eq := strings.IndexByte(token, '=')
	if eq <= 0 {
		return false
	}
	for i := 0; i < eq; i++ {
		c := token[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		case c == '_':
		default:
			return false
		}
	}
	return true
}

// splitCompound splits on the shell list and pipe operators outside quotes.
// Operator tokens themselves are dropped; empty segments are discarded.
func splitCompound(command string) []string {
	var segments []string
	var current strings.Builder
	var quote byte

	flush := func() {
		if text := strings.TrimSpace(current.String()); text != "" {
			segments = append(segments, text)
		}
		current.Reset()
	}

	for i := 0; i < len(command); i++ {
		c := command[i]

		if quote != 0 {
			current.WriteByte(c)
			if c == quote {
				quote = 0
			} else if c == '\\' && quote == '"' && i+1 < len(command) {
				i++
				current.WriteByte(command[i])
			}
			continue
		}

		switch c {
		case '\'', '"':
			quote = c
			current.WriteByte(c)
		case '\\':
			current.WriteByte(c)
			if i+1 < len(command) {
				i++
				current.WriteByte(command[i])
			}
		case '&', '|':
			if i+1 < len(command) && command[i+1] == c {
				i++ // && or ||
				flush()
			} else if c == '|' {
				flush()
			} else {
				// single & backgrounds the preceding command
				flush()
			}
		case ';', '\n':
			flush()
		default:
			current.WriteByte(c)
		}
	}
	flush()

	return segments
}
