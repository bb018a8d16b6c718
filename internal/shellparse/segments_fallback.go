//go:build !cgo

package shellparse

import "strings"

// Segments splits a command line into its individual commands (no-CGo build:
// quote-aware scanning over the compound operators).
func Segments(command string) []string {
	if strings.TrimSpace(command) == "" {
		return nil
	}
	return splitCompound(command)
}
