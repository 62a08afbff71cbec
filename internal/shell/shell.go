package shell

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/procshell/internal/execshell"
)

// ErrRunnerNotConfigured indicates that a Shell was constructed without a process runner.
var ErrRunnerNotConfigured = errors.New("process runner not configured")

// CaptureResult holds the text accumulated from both streams alongside the terminal outcome.
type CaptureResult struct {
	StandardOutput string
	StandardError  string
	Outcome        execshell.TerminationOutcome
}

// ShellOption customizes a Shell during construction.
type ShellOption func(shell *Shell)

// WithEnvironmentSnapshot sets the snapshot used by LookupExecutable.
func WithEnvironmentSnapshot(snapshot execshell.EnvironmentSnapshot) ShellOption {
	return func(shell *Shell) {
		shell.snapshot = snapshot
	}
}

// WithExecutableResolver replaces the resolver used by LookupExecutable.
func WithExecutableResolver(resolver *execshell.ExecutableResolver) ShellOption {
	return func(shell *Shell) {
		if resolver == nil {
			return
		}
		shell.resolver = resolver
	}
}

// Shell runs commands through a ProcessRunner and presents their output as text.
type Shell struct {
	runner   execshell.ProcessRunner
	resolver *execshell.ExecutableResolver
	snapshot execshell.EnvironmentSnapshot
}

// New builds a Shell on top of runner.
func New(runner execshell.ProcessRunner, options ...ShellOption) (*Shell, error) {
	if runner == nil {
		return nil, ErrRunnerNotConfigured
	}

	shell := &Shell{
		runner:   runner,
		resolver: execshell.NewExecutableResolver(nil),
		snapshot: execshell.CaptureEnvironment(),
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(shell)
	}
	return shell, nil
}

// NewDefault builds a Shell backed by an OSProcessRunner using the current process environment.
func NewDefault(logger *zap.Logger, runnerOptions ...execshell.RunnerOption) (*Shell, error) {
	snapshot := execshell.CaptureEnvironment()
	runner, runnerError := execshell.NewOSProcessRunner(logger, snapshot, runnerOptions...)
	if runnerError != nil {
		return nil, runnerError
	}
	return New(runner, WithEnvironmentSnapshot(snapshot))
}

// Sync runs command and blocks until it finished. Text handlers fire before Sync returns.
func (shell *Shell) Sync(executionContext context.Context, command []string, options ...Option) (execshell.TerminationOutcome, error) {
	configuration := newCallConfiguration(options)
	request := configuration.buildRequest(command)
	handlers, flush := configuration.outputHandlers()

	outcome, runError := shell.runner.RunSync(executionContext, request, handlers)
	flush()
	return outcome, runError
}

// Async starts command and returns its execution handle. onCompletion fires once after the last text
// handler returned. A missing executable is returned directly and onCompletion never fires.
func (shell *Shell) Async(executionContext context.Context, command []string, onCompletion execshell.CompletionHandler, options ...Option) (*execshell.Execution, error) {
	configuration := newCallConfiguration(options)
	request := configuration.buildRequest(command)
	handlers, flush := configuration.outputHandlers()

	return shell.runner.RunAsync(executionContext, request, handlers, func(outcome execshell.TerminationOutcome, failure error) {
		flush()
		if onCompletion != nil {
			onCompletion(outcome, failure)
		}
	})
}

// Capture runs command synchronously and accumulates both streams. On failure the error carries the
// captured standard error and the partial result is still returned.
func (shell *Shell) Capture(executionContext context.Context, command []string, options ...Option) (CaptureResult, error) {
	var standardOutput strings.Builder
	var standardError strings.Builder
	captureOptions := append(append([]Option{}, options...),
		WithStandardOutputHandler(func(text string) { standardOutput.WriteString(text) }),
		WithStandardErrorHandler(func(text string) { standardError.WriteString(text) }),
	)

	outcome, runError := shell.Sync(executionContext, command, captureOptions...)
	result := CaptureResult{
		StandardOutput: standardOutput.String(),
		StandardError:  standardError.String(),
		Outcome:        outcome,
	}
	if runError != nil {
		return result, execshell.AttachStandardError(runError, result.StandardError)
	}
	return result, nil
}

// Succeeds reports whether command exited with a zero exit code.
func (shell *Shell) Succeeds(executionContext context.Context, command []string, options ...Option) bool {
	_, runError := shell.Sync(executionContext, command, options...)
	return runError == nil
}

// LookupExecutable resolves name against the shell's environment snapshot.
func (shell *Shell) LookupExecutable(name string) (string, bool) {
	return shell.resolver.Resolve(name, shell.snapshot.SearchPaths())
}
