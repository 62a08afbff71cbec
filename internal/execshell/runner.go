package execshell

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	executionIDFieldNameConstant         = "execution_id"
	commandFieldNameConstant             = "command"
	workingDirectoryFieldNameConstant    = "working_directory"
	processIdentifierFieldNameConstant   = "pid"
	exitCodeFieldNameConstant            = "exit_code"
	terminationReasonFieldNameConstant   = "reason"
	executablePathFieldNameConstant      = "executable"
	executableMissingLogMessageConstant  = "executable not found"
	processStartFailedLogMessageConstant = "process start failed"
	processStartedLogMessageConstant     = "process started"
	processCompletedLogMessageConstant   = "process completed"
	processFailedLogMessageConstant      = "process failed"
	pipeReadFailedLogMessageConstant     = "output pipe read failed"
	contextCancelledLogMessageConstant   = "context cancelled, killing process"
	standardOutputPipeLabelConstant      = "standard output"
	standardErrorPipeLabelConstant       = "standard error"
)

// ProcessRunner launches programs described by ExecutionRequest values.
type ProcessRunner interface {
	// RunSync blocks until the process exited and every output chunk was delivered.
	RunSync(executionContext context.Context, request ExecutionRequest, handlers OutputHandlers) (TerminationOutcome, error)
	// RunAsync returns once the process was spawned. onCompletion is invoked exactly once after the
	// last output chunk was delivered. A missing executable is returned directly and onCompletion is
	// never invoked.
	RunAsync(executionContext context.Context, request ExecutionRequest, handlers OutputHandlers, onCompletion CompletionHandler) (*Execution, error)
}

// RunnerOption customizes an OSProcessRunner.
type RunnerOption func(runner *OSProcessRunner)

// WithEventObserver registers an observer notified about process lifecycle events.
func WithEventObserver(observer CommandEventObserver) RunnerOption {
	return func(runner *OSProcessRunner) {
		if observer == nil {
			runner.observer = noopCommandEventObserver{}
			return
		}
		runner.observer = observer
	}
}

// WithFileSystem replaces the file system used for executable resolution.
func WithFileSystem(fileSystem FileSystem) RunnerOption {
	return func(runner *OSProcessRunner) {
		runner.resolver = NewExecutableResolver(fileSystem)
	}
}

// OSProcessRunner spawns operating system processes connected to two output pipes.
type OSProcessRunner struct {
	logger              *zap.Logger
	snapshot            EnvironmentSnapshot
	resolver            *ExecutableResolver
	observer            CommandEventObserver
	identifierGenerator func() string
}

// NewOSProcessRunner constructs a runner resolving programs against snapshot.
func NewOSProcessRunner(logger *zap.Logger, snapshot EnvironmentSnapshot, options ...RunnerOption) (*OSProcessRunner, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}

	runner := &OSProcessRunner{
		logger:              logger,
		snapshot:            snapshot,
		resolver:            NewExecutableResolver(nil),
		observer:            noopCommandEventObserver{},
		identifierGenerator: uuid.NewString,
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(runner)
	}
	return runner, nil
}

// RunSync executes the request and waits for its terminal outcome.
func (runner *OSProcessRunner) RunSync(executionContext context.Context, request ExecutionRequest, handlers OutputHandlers) (TerminationOutcome, error) {
	execution, startError := runner.start(executionContext, request, handlers, nil)
	if startError != nil {
		return TerminationOutcome{}, startError
	}
	return execution.Wait()
}

// RunAsync spawns the request and returns its execution handle.
func (runner *OSProcessRunner) RunAsync(executionContext context.Context, request ExecutionRequest, handlers OutputHandlers, onCompletion CompletionHandler) (*Execution, error) {
	return runner.start(executionContext, request, handlers, onCompletion)
}

// ResolveExecutable resolves the program of request the same way execution does.
func (runner *OSProcessRunner) ResolveExecutable(request ExecutionRequest) (string, bool) {
	return runner.resolver.Resolve(request.Command().Program(), runner.searchPaths(request))
}

func (runner *OSProcessRunner) start(executionContext context.Context, request ExecutionRequest, handlers OutputHandlers, onCompletion CompletionHandler) (*Execution, error) {
	ensureCommandContract(request.command)
	if executionContext == nil {
		executionContext = context.Background()
	}

	executionID := runner.identifierGenerator()
	command := request.Command()
	executionLogger := runner.logger.With(
		zap.String(executionIDFieldNameConstant, executionID),
		zap.String(commandFieldNameConstant, command.String()),
		zap.String(workingDirectoryFieldNameConstant, request.WorkingDirectory()),
	)

	executablePath, resolved := runner.ResolveExecutable(request)
	if !resolved {
		missingError := MissingExecutableError{Name: command.Program()}
		executionLogger.Debug(executableMissingLogMessageConstant)
		runner.observer.CommandExecutionFailed(request, missingError)
		return nil, missingError
	}

	standardOutputReader, standardOutputWriter, pipeError := os.Pipe()
	if pipeError != nil {
		return nil, runner.reportStartFailure(executionLogger, request, fmt.Errorf(pipeCreationErrorTemplateConstant, standardOutputPipeLabelConstant, pipeError))
	}
	standardErrorReader, standardErrorWriter, pipeError := os.Pipe()
	if pipeError != nil {
		closeFiles(standardOutputReader, standardOutputWriter)
		return nil, runner.reportStartFailure(executionLogger, request, fmt.Errorf(pipeCreationErrorTemplateConstant, standardErrorPipeLabelConstant, pipeError))
	}

	processCommand := &exec.Cmd{
		Path:        executablePath,
		Args:        []string(command),
		Dir:         request.WorkingDirectory(),
		Env:         runner.childEnvironment(request),
		Stdout:      standardOutputWriter,
		Stderr:      standardErrorWriter,
		SysProcAttr: buildProcessAttributes(request),
	}

	startError := processCommand.Start()
	closeFiles(standardOutputWriter, standardErrorWriter)
	if startError != nil {
		closeFiles(standardOutputReader, standardErrorReader)
		return nil, runner.reportStartFailure(executionLogger, request, fmt.Errorf(processStartErrorTemplateConstant, ErrProcessStart, command.Program(), startError))
	}

	execution := newExecution(executionID, processCommand.Process)
	executionLogger = executionLogger.With(zap.Int(processIdentifierFieldNameConstant, processCommand.Process.Pid))
	executionLogger.Debug(processStartedLogMessageConstant, zap.String(executablePathFieldNameConstant, executablePath))
	runner.observer.CommandStarted(request)

	sequencer := newOutputSequencer(handlers)
	var pumpGroup errgroup.Group
	pumpGroup.Go(func() error {
		defer closeFiles(standardOutputReader)
		return pumpStream(standardOutputReader, StandardOutputStream, sequencer)
	})
	pumpGroup.Go(func() error {
		defer closeFiles(standardErrorReader)
		return pumpStream(standardErrorReader, StandardErrorStream, sequencer)
	})

	processExited := make(chan struct{})
	go runner.watchContext(executionContext, execution, processExited, executionLogger)

	go func() {
		pumpError := pumpGroup.Wait()
		sequencer.finish()
		if pumpError != nil {
			executionLogger.Warn(pipeReadFailedLogMessageConstant, zap.Error(pumpError))
		}

		waitError := processCommand.Wait()
		close(processExited)

		outcome, failure := classifyTermination(processCommand.ProcessState, waitError, command)
		runner.reportCompletion(executionLogger, request, outcome, failure)
		if onCompletion != nil {
			onCompletion(outcome, failure)
		}
		execution.complete(outcome, failure)
	}()

	return execution, nil
}

func (runner *OSProcessRunner) watchContext(executionContext context.Context, execution *Execution, processExited <-chan struct{}, executionLogger *zap.Logger) {
	select {
	case <-processExited:
	case <-executionContext.Done():
		executionLogger.Debug(contextCancelledLogMessageConstant, zap.Error(executionContext.Err()))
		if killError := execution.Kill(); killError != nil {
			executionLogger.Warn(contextCancelledLogMessageConstant, zap.Error(killError))
		}
	}
}

func (runner *OSProcessRunner) reportStartFailure(executionLogger *zap.Logger, request ExecutionRequest, failure error) error {
	executionLogger.Warn(processStartFailedLogMessageConstant, zap.Error(failure))
	runner.observer.CommandExecutionFailed(request, failure)
	return failure
}

func (runner *OSProcessRunner) reportCompletion(executionLogger *zap.Logger, request ExecutionRequest, outcome TerminationOutcome, failure error) {
	completionFields := []zap.Field{
		zap.Int(exitCodeFieldNameConstant, outcome.ExitCode),
		zap.String(terminationReasonFieldNameConstant, string(outcome.Reason)),
	}
	if failure != nil && len(outcome.Reason) == 0 {
		executionLogger.Warn(processFailedLogMessageConstant, append(completionFields, zap.Error(failure))...)
		runner.observer.CommandExecutionFailed(request, failure)
		return
	}
	executionLogger.Debug(processCompletedLogMessageConstant, completionFields...)
	runner.observer.CommandCompleted(request, outcome)
}

// searchPaths uses the replacement environment's PATH when one was supplied. Relative entries are
// resolved against the request working directory, falling back to the snapshot directory.
func (runner *OSProcessRunner) searchPaths(request ExecutionRequest) []string {
	pathValue := runner.snapshot.PathValue
	if replacementEnvironment, overridden := request.Environment(); overridden {
		if replacementPath, present := replacementEnvironment[pathEnvironmentVariableNameConstant]; present {
			pathValue = replacementPath
		}
	}

	baseDirectory := runner.snapshot.WorkingDirectory
	requestDirectory := request.WorkingDirectory()
	switch {
	case len(requestDirectory) == 0:
	case filepath.IsAbs(requestDirectory):
		baseDirectory = requestDirectory
	default:
		baseDirectory = filepath.Join(baseDirectory, requestDirectory)
	}
	return SearchPaths(pathValue, baseDirectory)
}

func (runner *OSProcessRunner) childEnvironment(request ExecutionRequest) []string {
	if replacementEnvironment, overridden := request.Environment(); overridden {
		return FormatEnvironmentList(replacementEnvironment)
	}
	if runner.snapshot.Variables == nil {
		return nil
	}
	return runner.snapshot.EnvironmentList()
}

func classifyTermination(processState *os.ProcessState, waitError error, command Command) (TerminationOutcome, error) {
	if processState == nil {
		return TerminationOutcome{}, fmt.Errorf(processWaitErrorTemplateConstant, command.Program(), waitError)
	}

	if waitStatus, supported := processState.Sys().(syscall.WaitStatus); supported && waitStatus.Signaled() {
		signalNumber := int(waitStatus.Signal())
		return TerminationOutcome{Reason: TerminationReasonSignaled, ExitCode: signalNumber}, SignaledError{ExitCode: signalNumber}
	}

	exitCode := processState.ExitCode()
	outcome := TerminationOutcome{Reason: TerminationReasonExited, ExitCode: exitCode}
	if exitCode != 0 {
		return outcome, ProcessFailedError{ExitCode: exitCode, Reason: TerminationReasonExited}
	}
	return outcome, nil
}

func closeFiles(files ...*os.File) {
	for _, file := range files {
		if file == nil {
			continue
		}
		_ = file.Close()
	}
}
