package execshell

import (
	"errors"
	"fmt"
	"strings"
)

const (
	missingExecutableMessageTemplateConstant = "The executable with name '%s' was not found"
	processFailedMessageTemplateConstant     = "The process errored with code %d"
	processSignaledMessageTemplateConstant   = "The process was interrupted with code %d"
	diagnosticSuffixTemplateConstant         = "%s: %s"
	processStartErrorTemplateConstant        = "%w: %s: %w"
	processWaitErrorTemplateConstant         = "unable to wait for %s: %w"
	pipeCreationErrorTemplateConstant        = "unable to create %s pipe: %w"
)

var (
	// ErrLoggerNotConfigured indicates that a runner was constructed without a logger.
	ErrLoggerNotConfigured = errors.New("logger not configured")
	// ErrMissingExecutable matches MissingExecutableError values.
	ErrMissingExecutable = errors.New("missing executable")
	// ErrProcessFailed matches ProcessFailedError values.
	ErrProcessFailed = errors.New("process failed")
	// ErrProcessSignaled matches SignaledError values.
	ErrProcessSignaled = errors.New("process signaled")
	// ErrProcessStart wraps operating system failures raised while spawning a resolved executable.
	ErrProcessStart = errors.New("unable to start process")
)

// MissingExecutableError reports that the program could not be resolved. No process was spawned.
type MissingExecutableError struct {
	Name       string
	Diagnostic string
}

// Error describes the missing executable.
func (missingError MissingExecutableError) Error() string {
	message := fmt.Sprintf(missingExecutableMessageTemplateConstant, missingError.Name)
	return appendDiagnostic(message, missingError.Diagnostic)
}

// Is matches ErrMissingExecutable.
func (missingError MissingExecutableError) Is(target error) bool {
	return target == ErrMissingExecutable
}

// ProcessFailedError reports a child that exited with a non-zero exit code.
type ProcessFailedError struct {
	ExitCode      int
	Reason        TerminationReason
	StandardError string
}

// Error describes the failure, including the captured standard error when present.
func (failedError ProcessFailedError) Error() string {
	message := fmt.Sprintf(processFailedMessageTemplateConstant, failedError.ExitCode)
	return appendDiagnostic(message, failedError.StandardError)
}

// Is matches ErrProcessFailed.
func (failedError ProcessFailedError) Is(target error) bool {
	return target == ErrProcessFailed
}

// SignaledError reports a child that was terminated by a signal.
type SignaledError struct {
	ExitCode      int
	StandardError string
}

// Error describes the interruption, including the captured standard error when present.
func (signaledError SignaledError) Error() string {
	message := fmt.Sprintf(processSignaledMessageTemplateConstant, signaledError.ExitCode)
	return appendDiagnostic(message, signaledError.StandardError)
}

// Is matches ErrProcessSignaled.
func (signaledError SignaledError) Is(target error) bool {
	return target == ErrProcessSignaled
}

// AttachStandardError returns failure with the captured standard error text attached when failure is
// a runtime failure. Other errors are returned unchanged.
func AttachStandardError(failure error, standardError string) error {
	var failedError ProcessFailedError
	if errors.As(failure, &failedError) {
		failedError.StandardError = standardError
		return failedError
	}
	var signaledError SignaledError
	if errors.As(failure, &signaledError) {
		signaledError.StandardError = standardError
		return signaledError
	}
	return failure
}

// ExitCode extracts the child exit code carried by a runtime failure.
func ExitCode(failure error) (int, bool) {
	var failedError ProcessFailedError
	if errors.As(failure, &failedError) {
		return failedError.ExitCode, true
	}
	var signaledError SignaledError
	if errors.As(failure, &signaledError) {
		return signaledError.ExitCode, true
	}
	return 0, false
}

func appendDiagnostic(message string, diagnostic string) string {
	trimmedDiagnostic := strings.TrimSpace(diagnostic)
	if len(trimmedDiagnostic) == 0 {
		return message
	}
	return fmt.Sprintf(diagnosticSuffixTemplateConstant, message, trimmedDiagnostic)
}
