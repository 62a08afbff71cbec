//go:build !unix

package execshell

import (
	"syscall"
)

func buildProcessAttributes(ExecutionRequest) *syscall.SysProcAttr {
	return nil
}
