package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/procshell/internal/execshell"
	"github.com/temirov/procshell/internal/shell"
)

const (
	stepFailedErrorTemplateConstant        = "batch step %s failed: %w"
	stepNameFieldNameConstant              = "step"
	stepIndexFieldNameConstant             = "index"
	stepDurationFieldNameConstant          = "duration"
	stepStartedLogMessageConstant          = "batch step started"
	stepCompletedLogMessageConstant        = "batch step completed"
	stepFailureToleratedLogMessageConstant = "batch step failed, continuing"
)

var (
	// ErrShellNotConfigured indicates that an executor was constructed without a shell.
	ErrShellNotConfigured = errors.New("batch executor requires a shell")
	// ErrLoggerNotConfigured indicates that an executor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New("batch executor requires a logger")
)

// StepFailedError reports the step that stopped a batch.
type StepFailedError struct {
	StepName string
	Err      error
}

// Error describes the failing step.
func (failedError StepFailedError) Error() string {
	return fmt.Sprintf(stepFailedErrorTemplateConstant, failedError.StepName, failedError.Err)
}

// Unwrap exposes the underlying execution failure.
func (failedError StepFailedError) Unwrap() error {
	return failedError.Err
}

// StepReport summarises one executed step.
type StepReport struct {
	Step           Step
	Outcome        execshell.TerminationOutcome
	StandardOutput string
	StandardError  string
	Failure        error
	Duration       time.Duration
}

// Succeeded reports whether the step finished without error.
func (report StepReport) Succeeded() bool {
	return report.Failure == nil
}

// StepObserver receives progress notifications while a batch runs.
type StepObserver interface {
	StepStarted(index int, step Step)
	StepFinished(index int, report StepReport)
}

// Dependencies configures the collaborators of an Executor.
type Dependencies struct {
	Logger   *zap.Logger
	Shell    *shell.Shell
	Observer StepObserver
	Output   io.Writer
	Errors   io.Writer
}

// RuntimeOptions are defaults applied to every step unless the step overrides them.
type RuntimeOptions struct {
	WorkingDirectory      string
	TerminateOnParentExit bool
	Environment           map[string]string
}

// Executor runs batch steps sequentially.
type Executor struct {
	dependencies Dependencies
	clock        func() time.Time
}

// NewExecutor validates dependencies and constructs an Executor.
func NewExecutor(dependencies Dependencies) (*Executor, error) {
	if dependencies.Logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if dependencies.Shell == nil {
		return nil, ErrShellNotConfigured
	}
	return &Executor{dependencies: dependencies, clock: time.Now}, nil
}

// Execute runs steps in order. It stops at the first failing step unless that step allows failure, and
// returns the reports of every step that ran. A nil context runs the steps under context.Background.
func (executor *Executor) Execute(executionContext context.Context, steps []Step, runtimeOptions RuntimeOptions) ([]StepReport, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}
	reports := make([]StepReport, 0, len(steps))
	for stepIndex, step := range steps {
		if contextError := executionContext.Err(); contextError != nil {
			return reports, contextError
		}

		stepLogger := executor.dependencies.Logger.With(zap.String(stepNameFieldNameConstant, step.Name), zap.Int(stepIndexFieldNameConstant, stepIndex+1))
		stepLogger.Debug(stepStartedLogMessageConstant)
		if executor.dependencies.Observer != nil {
			executor.dependencies.Observer.StepStarted(stepIndex, step)
		}

		report := executor.executeStep(executionContext, step, runtimeOptions)
		reports = append(reports, report)
		if executor.dependencies.Observer != nil {
			executor.dependencies.Observer.StepFinished(stepIndex, report)
		}

		if report.Succeeded() {
			stepLogger.Debug(stepCompletedLogMessageConstant, zap.Duration(stepDurationFieldNameConstant, report.Duration))
			continue
		}
		if step.Options.AllowFailure {
			stepLogger.Info(stepFailureToleratedLogMessageConstant, zap.Error(report.Failure))
			continue
		}
		return reports, StepFailedError{StepName: step.Name, Err: report.Failure}
	}
	return reports, nil
}

func (executor *Executor) executeStep(executionContext context.Context, step Step, runtimeOptions RuntimeOptions) StepReport {
	options := executor.buildShellOptions(step, runtimeOptions)
	startedAt := executor.clock()
	report := StepReport{Step: step}

	if step.Options.Capture {
		result, captureError := executor.dependencies.Shell.Capture(executionContext, step.Command, options...)
		report.Outcome = result.Outcome
		report.StandardOutput = result.StandardOutput
		report.StandardError = result.StandardError
		report.Failure = captureError
	} else {
		options = append(options,
			shell.WithStandardOutputHandler(writerHandler(executor.dependencies.Output)),
			shell.WithStandardErrorHandler(writerHandler(executor.dependencies.Errors)),
		)
		report.Outcome, report.Failure = executor.dependencies.Shell.Sync(executionContext, step.Command, options...)
	}

	report.Duration = executor.clock().Sub(startedAt)
	return report
}

func (executor *Executor) buildShellOptions(step Step, runtimeOptions RuntimeOptions) []shell.Option {
	workingDirectory := runtimeOptions.WorkingDirectory
	if len(step.Options.WorkingDirectory) > 0 {
		workingDirectory = step.Options.WorkingDirectory
	}

	terminateOnParentExit := runtimeOptions.TerminateOnParentExit
	if step.Options.TerminateOnParentExit != nil {
		terminateOnParentExit = *step.Options.TerminateOnParentExit
	}

	environment := runtimeOptions.Environment
	if step.Options.Environment != nil {
		environment = step.Options.Environment
	}

	return []shell.Option{
		shell.WithWorkingDirectory(workingDirectory),
		shell.WithTerminateOnParentExit(terminateOnParentExit),
		shell.WithEnvironment(environment),
	}
}

func writerHandler(writer io.Writer) func(text string) {
	if writer == nil {
		return nil
	}
	return func(text string) {
		_, _ = io.WriteString(writer, text)
	}
}
