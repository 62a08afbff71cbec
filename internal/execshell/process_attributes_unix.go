//go:build unix && !linux

package execshell

import (
	"syscall"
)

// buildProcessAttributes detaches children that must outlive the parent into their own process group.
// Platforms without a parent-death signal leave bound children in the parent's group.
func buildProcessAttributes(request ExecutionRequest) *syscall.SysProcAttr {
	if request.TerminateOnParentExit() {
		return nil
	}
	return &syscall.SysProcAttr{Setpgid: true}
}
