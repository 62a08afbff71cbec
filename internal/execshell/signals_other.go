//go:build !unix

package execshell

import (
	"errors"
	"os"
)

var (
	terminationSignal = os.Kill
	killSignal        = os.Kill
)

func isProcessGoneError(signalError error) bool {
	return errors.Is(signalError, os.ErrProcessDone)
}
