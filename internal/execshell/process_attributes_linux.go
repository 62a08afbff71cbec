//go:build linux

package execshell

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// buildProcessAttributes binds the child to the parent's lifetime with a parent-death signal. The
// signal fires when the spawning thread exits, so the binding is best effort. Detached children are
// placed in their own process group so terminal signals aimed at the parent do not reach them.
func buildProcessAttributes(request ExecutionRequest) *syscall.SysProcAttr {
	if request.TerminateOnParentExit() {
		return &syscall.SysProcAttr{Pdeathsig: unix.SIGKILL}
	}
	return &syscall.SysProcAttr{Setpgid: true}
}
