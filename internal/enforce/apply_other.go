//go:build !linux

package enforce

import "github.com/southpawriter02/sidekick-sub001/internal/logger"

// Supported reports whether this build can enforce rules in the kernel.
func Supported() bool { return false }

// Apply is a no-op off Linux; path validation is the only enforcement.
func (r *Restrictor) Apply() error {
	logger.Debug("enforce: kernel enforcement not available on this platform")
	return nil
}
