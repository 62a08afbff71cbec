// Package batch builds the command that executes a YAML plan of commands in sequence.
package batch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/procshell/cmd/cli/process"
	"github.com/temirov/procshell/internal/batch"
	"github.com/temirov/procshell/internal/ui"
	"github.com/temirov/procshell/internal/utils"
	flagutils "github.com/temirov/procshell/internal/utils/flags"
)

const (
	commandUseConstant                    = "batch [plan]"
	commandShortDescriptionConstant       = "Run the steps of a batch plan"
	commandLongDescriptionConstant        = "batch executes the commands listed in a YAML plan one after another, stopping at the first failing step unless it allows failure. Without a plan argument the steps are read from the batch section of the configuration file."
	planPathRequiredMessageConstant       = "batch plan path required; provide a positional argument or a configuration file with a batch section"
	loadPlanErrorTemplateConstant         = "unable to load batch plan: %w"
	buildStepsErrorTemplateConstant       = "unable to build batch steps: %w"
	executorCreationErrorTemplateConstant = "unable to construct batch executor: %w"
)

// CommandBuilder assembles the batch command.
type CommandBuilder struct {
	LoggerProvider process.LoggerProvider
	ShellFactory   process.ShellFactory
}

// Build constructs the batch command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	var executionFlags *flagutils.ExecutionFlagValues
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments, executionFlags)
		},
	}
	executionFlags = flagutils.BindExecutionFlags(command, flagutils.ExecutionFlagValues{})
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string, executionFlags *flagutils.ExecutionFlagValues) error {
	planPath := ""
	if len(arguments) > 0 {
		planPath = strings.TrimSpace(arguments[0])
	} else if configurationPath, available := utils.NewCommandContextAccessor().ConfigurationFilePath(command.Context()); available {
		planPath = strings.TrimSpace(configurationPath)
	}
	if len(planPath) == 0 {
		if helpError := command.Help(); helpError != nil {
			return helpError
		}
		return errors.New(planPathRequiredMessageConstant)
	}

	plan, planError := batch.LoadPlan(planPath)
	if planError != nil {
		return fmt.Errorf(loadPlanErrorTemplateConstant, planError)
	}
	steps, stepsError := batch.BuildSteps(plan)
	if stepsError != nil {
		return fmt.Errorf(buildStepsErrorTemplateConstant, stepsError)
	}

	invocation, invocationError := builder.ShellFactory.Build(command, executionFlags)
	if invocationError != nil {
		return invocationError
	}

	executor, executorError := batch.NewExecutor(batch.Dependencies{
		Logger:   builder.LoggerProvider.Logger(),
		Shell:    invocation.Shell,
		Observer: ui.NewBatchStepReporter(command.ErrOrStderr()),
		Output:   utils.NewFlushingWriter(command.OutOrStdout()),
		Errors:   utils.NewFlushingWriter(command.ErrOrStderr()),
	})
	if executorError != nil {
		return fmt.Errorf(executorCreationErrorTemplateConstant, executorError)
	}

	runtimeOptions := batch.RuntimeOptions{
		WorkingDirectory:      invocation.Settings.WorkingDirectory,
		TerminateOnParentExit: invocation.Settings.TerminateOnParentExit,
		Environment:           invocation.Settings.Environment,
	}
	_, executeError := executor.Execute(command.Context(), steps, runtimeOptions)
	return process.ExitCodeErrorFor(executeError)
}

