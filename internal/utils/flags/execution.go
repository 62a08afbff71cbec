// Package flags binds the shared process execution flags to Cobra commands.
package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const (
	// WorkingDirectoryFlagName selects the child working directory.
	WorkingDirectoryFlagName = "dir"
	// EnvironmentFlagName adds KEY=VALUE assignments to the child environment.
	EnvironmentFlagName = "env"
	// ClearEnvironmentFlagName starts the child from an empty environment.
	ClearEnvironmentFlagName = "clear-env"
	// TerminateOnParentExitFlagName binds the child lifetime to this process.
	TerminateOnParentExitFlagName = "terminate-on-parent-exit"
	// StubFileFlagName replays recorded results instead of spawning processes.
	StubFileFlagName = "stubs"

	workingDirectoryFlagUsageConstant      = "Working directory of the launched process"
	environmentFlagUsageConstant           = "Environment assignment KEY=VALUE (repeatable)"
	clearEnvironmentFlagUsageConstant      = "Start the process with only the --env assignments"
	terminateOnParentExitFlagUsageConstant = "Kill the process when procshell exits"
	stubFileFlagUsageConstant              = "YAML file of stubbed command results to replay"
	environmentAssignmentSeparatorConstant = "="
	invalidAssignmentErrorTemplateConstant = "invalid --%s value %q: expected KEY=VALUE"
)

// ExecutionFlagValues stores the parsed execution flags.
type ExecutionFlagValues struct {
	WorkingDirectory      string
	Environment           []string
	ClearEnvironment      bool
	TerminateOnParentExit bool
	StubFile              string
}

// BindExecutionFlags attaches the execution flags to command with the provided defaults.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionFlagValues) *ExecutionFlagValues {
	values := defaults
	if command == nil {
		return &values
	}

	flagSet := command.Flags()
	flagSet.StringVar(&values.WorkingDirectory, WorkingDirectoryFlagName, defaults.WorkingDirectory, workingDirectoryFlagUsageConstant)
	flagSet.StringArrayVar(&values.Environment, EnvironmentFlagName, defaults.Environment, environmentFlagUsageConstant)
	AddToggleFlag(flagSet, &values.ClearEnvironment, ClearEnvironmentFlagName, "", defaults.ClearEnvironment, clearEnvironmentFlagUsageConstant)
	AddToggleFlag(flagSet, &values.TerminateOnParentExit, TerminateOnParentExitFlagName, "", defaults.TerminateOnParentExit, terminateOnParentExitFlagUsageConstant)
	flagSet.StringVar(&values.StubFile, StubFileFlagName, defaults.StubFile, stubFileFlagUsageConstant)
	return &values
}

// ParseEnvironmentAssignments converts KEY=VALUE flag values into a map. Later assignments win.
func ParseEnvironmentAssignments(assignments []string) (map[string]string, error) {
	environment := make(map[string]string, len(assignments))
	for _, assignment := range assignments {
		environmentKey, environmentValue, separatorFound := strings.Cut(assignment, environmentAssignmentSeparatorConstant)
		if !separatorFound || len(strings.TrimSpace(environmentKey)) == 0 {
			return nil, fmt.Errorf(invalidAssignmentErrorTemplateConstant, EnvironmentFlagName, assignment)
		}
		environment[strings.TrimSpace(environmentKey)] = environmentValue
	}
	return environment, nil
}
