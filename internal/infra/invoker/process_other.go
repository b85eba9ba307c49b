//go:build !linux && !darwin

package invoker

import "os/exec"

type processCleanup func()

// Process groups are unavailable here; CommandContext's default kill of the
// direct child is the best isolation on offer.
func setupProcessHandling(cmd *exec.Cmd) processCleanup {
	return func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}
}
