package process

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/procshell/internal/execshell"
	"github.com/temirov/procshell/internal/shell"
	"github.com/temirov/procshell/internal/ui"
	"github.com/temirov/procshell/internal/utils"
	flagutils "github.com/temirov/procshell/internal/utils/flags"
)

const (
	runCommandUseConstant                 = "run [flags] -- <program> [arguments...]"
	runCommandShortDescriptionConstant    = "Run a program and stream its output"
	runCommandLongDescriptionConstant     = "run launches the program, forwards standard output and standard error as they arrive, and exits with the program's exit code."
	captureCommandUseConstant             = "capture [flags] -- <program> [arguments...]"
	captureCommandShortConstant           = "Run a program and print its captured standard output"
	captureCommandLongConstant            = "capture runs the program to completion, prints everything it wrote to standard output, and reports standard error only when the program fails."
	whichCommandUseConstant               = "which <name>"
	whichCommandShortConstant             = "Print the executable a program name resolves to"
	succeedsCommandUseConstant            = "succeeds [flags] -- <program> [arguments...]"
	succeedsCommandShortConstant          = "Print whether a program exits successfully"
	streamCommandUseConstant              = "stream [flags] -- <program> [arguments...]"
	streamCommandShortConstant            = "Run a program and print its output as labelled events"
	commandInvokedLogMessageConstant      = "procshell command invoked"
	commandNameFieldNameConstant          = "command_name"
	commandArgumentsFieldNameConstant     = "arguments"
	executableNotFoundNameFieldConstant   = "name"
	executableLookupFailedMessageConstant = "executable lookup failed"
	lineTemplateConstant                  = "%s\n"
)

// CommandBuilder assembles the single-program commands.
type CommandBuilder struct {
	LoggerProvider LoggerProvider
	ShellFactory   ShellFactory
}

// Build constructs run, capture, which, succeeds, and stream.
func (builder *CommandBuilder) Build() ([]*cobra.Command, error) {
	return []*cobra.Command{
		builder.buildProgramCommand(runCommandUseConstant, runCommandShortDescriptionConstant, runCommandLongDescriptionConstant, builder.run),
		builder.buildProgramCommand(captureCommandUseConstant, captureCommandShortConstant, captureCommandLongConstant, builder.capture),
		builder.buildWhichCommand(),
		builder.buildProgramCommand(succeedsCommandUseConstant, succeedsCommandShortConstant, "", builder.succeeds),
		builder.buildProgramCommand(streamCommandUseConstant, streamCommandShortConstant, "", builder.stream),
	}, nil
}

type programAction func(command *cobra.Command, program []string, invocation Invocation) error

func (builder *CommandBuilder) buildProgramCommand(use string, short string, long string, action programAction) *cobra.Command {
	var executionFlags *flagutils.ExecutionFlagValues
	command := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			builder.logInvocation(command, arguments)
			invocation, invocationError := builder.ShellFactory.Build(command, executionFlags)
			if invocationError != nil {
				return invocationError
			}
			return action(command, arguments, invocation)
		},
	}
	command.Flags().SetInterspersed(false)
	executionFlags = flagutils.BindExecutionFlags(command, flagutils.ExecutionFlagValues{})
	return command
}

func (builder *CommandBuilder) buildWhichCommand() *cobra.Command {
	return &cobra.Command{
		Use:   whichCommandUseConstant,
		Short: whichCommandShortConstant,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			builder.logInvocation(command, arguments)
			invocation, invocationError := builder.ShellFactory.Build(command, nil)
			if invocationError != nil {
				return invocationError
			}

			executablePath, found := invocation.Shell.LookupExecutable(arguments[0])
			if !found {
				missingError := execshell.MissingExecutableError{Name: arguments[0]}
				builder.LoggerProvider.Logger().Debug(executableLookupFailedMessageConstant, zap.String(executableNotFoundNameFieldConstant, arguments[0]))
				return ExitCodeError{Code: genericFailureExitCodeConstant, Err: missingError}
			}
			_, writeError := fmt.Fprintf(command.OutOrStdout(), lineTemplateConstant, executablePath)
			return writeError
		},
	}
}

func (builder *CommandBuilder) run(command *cobra.Command, program []string, invocation Invocation) error {
	renderer := newRenderer(command)
	options := append(invocation.Settings.Options(),
		shell.WithStandardOutputHandler(renderer.WriteStandardOutput),
		shell.WithStandardErrorHandler(renderer.WriteStandardError),
	)
	_, runError := invocation.Shell.Sync(command.Context(), program, options...)
	return ExitCodeErrorFor(runError)
}

func (builder *CommandBuilder) capture(command *cobra.Command, program []string, invocation Invocation) error {
	result, captureError := invocation.Shell.Capture(command.Context(), program, invocation.Settings.Options()...)
	if _, writeError := io.WriteString(utils.NewFlushingWriter(command.OutOrStdout()), result.StandardOutput); writeError != nil {
		return writeError
	}
	return ExitCodeErrorFor(captureError)
}

func (builder *CommandBuilder) succeeds(command *cobra.Command, program []string, invocation Invocation) error {
	succeeded := invocation.Shell.Succeeds(command.Context(), program, invocation.Settings.Options()...)
	_, writeError := fmt.Fprintf(command.OutOrStdout(), lineTemplateConstant, strconv.FormatBool(succeeded))
	return writeError
}

func (builder *CommandBuilder) stream(command *cobra.Command, program []string, invocation Invocation) error {
	eventStream, startError := invocation.Shell.Run(command.Context(), program, invocation.Settings.Options()...)
	if startError != nil {
		return ExitCodeErrorFor(startError)
	}

	renderer := newRenderer(command)
	for event := range eventStream.Events() {
		renderer.RenderEvent(event)
	}
	renderer.Flush()

	_, streamError := eventStream.Wait()
	return ExitCodeErrorFor(streamError)
}

func (builder *CommandBuilder) logInvocation(command *cobra.Command, arguments []string) {
	builder.LoggerProvider.Logger().Debug(
		commandInvokedLogMessageConstant,
		zap.String(commandNameFieldNameConstant, command.Name()),
		zap.Strings(commandArgumentsFieldNameConstant, arguments),
	)
}

func newRenderer(command *cobra.Command) *ui.OutputRenderer {
	return ui.NewOutputRenderer(
		utils.NewFlushingWriter(command.OutOrStdout()),
		utils.NewFlushingWriter(command.ErrOrStderr()),
		ui.WithColor(ui.IsTerminal(command.ErrOrStderr())),
	)
}
