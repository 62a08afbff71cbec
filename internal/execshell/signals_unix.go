//go:build unix

package execshell

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

var (
	terminationSignal os.Signal = unix.SIGTERM
	killSignal        os.Signal = unix.SIGKILL
)

func isProcessGoneError(signalError error) bool {
	return errors.Is(signalError, os.ErrProcessDone) || errors.Is(signalError, unix.ESRCH)
}
