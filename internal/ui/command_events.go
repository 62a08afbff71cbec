package ui

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/procshell/internal/execshell"
)

const (
	commandStartedMessageTemplateConstant          = "Running %s"
	commandCompletedMessageTemplateConstant        = "Completed %s"
	commandFailedExitCodeMessageTemplateConstant   = "%s failed with exit code %d"
	commandSignaledMessageTemplateConstant         = "%s interrupted by signal %d"
	commandExecutionFailureMessageTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant                   = "%s%s"
	workingDirectorySuffixTemplateConstant         = " (in %s)"
	unknownFailureMessageConstant                  = "unknown error"
	emptyStringConstant                            = ""
)

// CommandEventFormatter builds human-readable messages for process lifecycle events.
type CommandEventFormatter struct{}

// BuildStartedMessage formats the message describing a process about to run.
func (formatter CommandEventFormatter) BuildStartedMessage(request execshell.ExecutionRequest) string {
	return fmt.Sprintf(commandStartedMessageTemplateConstant, formatter.formatCommandLabel(request))
}

// BuildCompletionMessage formats the message describing a terminal outcome.
func (formatter CommandEventFormatter) BuildCompletionMessage(request execshell.ExecutionRequest, outcome execshell.TerminationOutcome) string {
	commandLabel := formatter.formatCommandLabel(request)
	switch {
	case outcome.Succeeded():
		return fmt.Sprintf(commandCompletedMessageTemplateConstant, commandLabel)
	case outcome.Reason == execshell.TerminationReasonSignaled:
		return fmt.Sprintf(commandSignaledMessageTemplateConstant, commandLabel, outcome.ExitCode)
	default:
		return fmt.Sprintf(commandFailedExitCodeMessageTemplateConstant, commandLabel, outcome.ExitCode)
	}
}

// BuildExecutionFailureMessage formats the message describing a failure raised before a terminal outcome.
func (formatter CommandEventFormatter) BuildExecutionFailureMessage(request execshell.ExecutionRequest, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(commandExecutionFailureMessageTemplateConstant, formatter.formatCommandLabel(request), failureMessage)
}

func (formatter CommandEventFormatter) formatCommandLabel(request execshell.ExecutionRequest) string {
	return fmt.Sprintf(commandLabelTemplateConstant, request.Command().String(), formatter.formatWorkingDirectorySuffix(request))
}

func (formatter CommandEventFormatter) formatWorkingDirectorySuffix(request execshell.ExecutionRequest) string {
	trimmedWorkingDirectory := strings.TrimSpace(request.WorkingDirectory())
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

// ConsoleCommandEventLogger renders process lifecycle events using a zap logger configured for human-readable output.
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter CommandEventFormatter
}

// NewConsoleCommandEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger, formatter: CommandEventFormatter{}}
}

// CommandStarted implements execshell.CommandEventObserver by logging start notifications.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(request execshell.ExecutionRequest) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildStartedMessage(request))
}

// CommandCompleted implements execshell.CommandEventObserver by logging terminal outcomes.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(request execshell.ExecutionRequest, outcome execshell.TerminationOutcome) {
	if eventLogger == nil {
		return
	}
	message := eventLogger.formatter.BuildCompletionMessage(request, outcome)
	if outcome.Succeeded() {
		eventLogger.logger.Info(message)
		return
	}
	eventLogger.logger.Warn(message)
}

// CommandExecutionFailed implements execshell.CommandEventObserver by logging failures raised before a terminal outcome.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(request execshell.ExecutionRequest, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Error(eventLogger.formatter.BuildExecutionFailureMessage(request, failure))
}
