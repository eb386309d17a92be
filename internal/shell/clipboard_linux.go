//go:build linux

package shell

import "fmt"

// copyToClipboard reports that clipboard support is unavailable. Linking the
// clipboard library on Linux requires X11 headers, which headless targets
// rarely have.
func copyToClipboard(_ string) error {
	return fmt.Errorf("clipboard not available on this platform")
}
