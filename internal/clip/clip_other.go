//go:build !darwin && !windows && !linux

package clip

import "time"

// New returns a no-op backend suitable for headless containers.
// pollInterval is unused on this platform.
func New(_ time.Duration) Backend {
	return newHeadless()
}
