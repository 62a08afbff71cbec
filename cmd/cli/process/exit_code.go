package process

import (
	"errors"
	"fmt"

	"github.com/temirov/procshell/internal/execshell"
)

const (
	missingExecutableExitCodeConstant = 127
	signalExitCodeOffsetConstant      = 128
	genericFailureExitCodeConstant    = 1
	exitStatusMessageTemplateConstant = "exit status %d"
)

// ExitCodeError carries the exit status procshell should terminate with.
type ExitCodeError struct {
	Code int
	Err  error
}

// Error describes the underlying failure.
func (exitCodeError ExitCodeError) Error() string {
	if exitCodeError.Err == nil {
		return fmt.Sprintf(exitStatusMessageTemplateConstant, exitCodeError.Code)
	}
	return exitCodeError.Err.Error()
}

// Unwrap exposes the underlying failure.
func (exitCodeError ExitCodeError) Unwrap() error {
	return exitCodeError.Err
}

// ExitCode maps an error returned by a command to a process exit status. Nil maps to zero.
func ExitCode(failure error) int {
	if failure == nil {
		return 0
	}
	var exitCodeError ExitCodeError
	if errors.As(failure, &exitCodeError) {
		return exitCodeError.Code
	}
	return genericFailureExitCodeConstant
}

// ExitCodeErrorFor translates execution failures into ExitCodeError values following shell conventions:
// 127 for a missing executable, 128+N for signal N, and the child's own code otherwise.
func ExitCodeErrorFor(failure error) error {
	if failure == nil {
		return nil
	}
	if errors.Is(failure, execshell.ErrMissingExecutable) {
		return ExitCodeError{Code: missingExecutableExitCodeConstant, Err: failure}
	}
	childExitCode, carriesExitCode := execshell.ExitCode(failure)
	if !carriesExitCode {
		return failure
	}
	if errors.Is(failure, execshell.ErrProcessSignaled) {
		return ExitCodeError{Code: signalExitCodeOffsetConstant + childExitCode, Err: failure}
	}
	return ExitCodeError{Code: childExitCode, Err: failure}
}
