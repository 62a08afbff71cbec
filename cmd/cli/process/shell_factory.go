package process

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/procshell/internal/execshell"
	"github.com/temirov/procshell/internal/shell"
	"github.com/temirov/procshell/internal/shell/shelltest"
	"github.com/temirov/procshell/internal/ui"
	"github.com/temirov/procshell/internal/utils"
	flagutils "github.com/temirov/procshell/internal/utils/flags"
	pathutils "github.com/temirov/procshell/internal/utils/path"
)

const (
	stubFileLoadErrorTemplateConstant   = "unable to load stubs: %w"
	runnerCreationErrorTemplateConstant = "unable to create process runner: %w"
	stubReplayLogMessageConstant        = "replaying stubbed commands"
	stubFileFieldNameConstant           = "stub_file"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ExecutionSettings are the effective per-invocation settings after flags were merged over configuration.
type ExecutionSettings struct {
	WorkingDirectory      string
	TerminateOnParentExit bool
	Environment           map[string]string
	StubFile              string
}

// Options converts the settings into facade call options.
func (settings ExecutionSettings) Options() []shell.Option {
	return []shell.Option{
		shell.WithWorkingDirectory(settings.WorkingDirectory),
		shell.WithTerminateOnParentExit(settings.TerminateOnParentExit),
		shell.WithEnvironment(settings.Environment),
	}
}

// Invocation is a ready to use shell together with the settings it should be called with.
type Invocation struct {
	Shell    *shell.Shell
	Settings ExecutionSettings
}

// ShellFactory builds shells for commands. Without a stub file the shell launches real processes
// and, when human-readable logging is enabled, reports their lifecycle on the console logger.
type ShellFactory struct {
	LoggerProvider               LoggerProvider
	ConsoleLoggerProvider        LoggerProvider
	HumanReadableLoggingProvider func() bool
	HomeExpander                 *pathutils.HomeExpander
	SnapshotProvider             func() execshell.EnvironmentSnapshot
}

// Build resolves the execution settings of command and constructs the matching shell. values may be nil
// for commands without execution flags.
func (factory ShellFactory) Build(command *cobra.Command, values *flagutils.ExecutionFlagValues) (Invocation, error) {
	snapshot := factory.snapshot()
	settings, settingsError := factory.ResolveSettings(command, values, snapshot)
	if settingsError != nil {
		return Invocation{}, settingsError
	}

	logger := factory.LoggerProvider.Logger()
	if len(settings.StubFile) > 0 {
		stubRunner, loadError := shelltest.LoadStubs(settings.StubFile)
		if loadError != nil {
			return Invocation{}, fmt.Errorf(stubFileLoadErrorTemplateConstant, loadError)
		}
		logger.Debug(stubReplayLogMessageConstant, zap.String(stubFileFieldNameConstant, settings.StubFile))
		stubShell, shellError := shell.New(stubRunner, shell.WithEnvironmentSnapshot(snapshot))
		if shellError != nil {
			return Invocation{}, shellError
		}
		return Invocation{Shell: stubShell, Settings: settings}, nil
	}

	runnerOptions := make([]execshell.RunnerOption, 0, 1)
	if factory.HumanReadableLoggingProvider != nil && factory.HumanReadableLoggingProvider() {
		runnerOptions = append(runnerOptions, execshell.WithEventObserver(ui.NewConsoleCommandEventLogger(factory.ConsoleLoggerProvider.Logger())))
	}
	runner, runnerError := execshell.NewOSProcessRunner(logger, snapshot, runnerOptions...)
	if runnerError != nil {
		return Invocation{}, fmt.Errorf(runnerCreationErrorTemplateConstant, runnerError)
	}
	processShell, shellError := shell.New(runner, shell.WithEnvironmentSnapshot(snapshot))
	if shellError != nil {
		return Invocation{}, shellError
	}
	return Invocation{Shell: processShell, Settings: settings}, nil
}

// ResolveSettings merges changed flags over the execution defaults attached to the command context.
// A cleared environment keeps only configured and flag assignments; otherwise assignments are layered
// over the snapshot variables.
func (factory ShellFactory) ResolveSettings(command *cobra.Command, values *flagutils.ExecutionFlagValues, snapshot execshell.EnvironmentSnapshot) (ExecutionSettings, error) {
	defaults := utils.ExecutionDefaults{TerminateOnParentExit: true}
	if command != nil {
		if contextDefaults, available := utils.NewCommandContextAccessor().ExecutionDefaults(command.Context()); available {
			defaults = contextDefaults
		}
	}
	if values == nil {
		values = &flagutils.ExecutionFlagValues{}
	}

	workingDirectory := defaults.WorkingDirectory
	if flagChanged(command, flagutils.WorkingDirectoryFlagName) {
		workingDirectory = values.WorkingDirectory
	}
	terminateOnParentExit := defaults.TerminateOnParentExit
	if flagChanged(command, flagutils.TerminateOnParentExitFlagName) {
		terminateOnParentExit = values.TerminateOnParentExit
	}
	clearEnvironment := defaults.ClearEnvironment
	if flagChanged(command, flagutils.ClearEnvironmentFlagName) {
		clearEnvironment = values.ClearEnvironment
	}
	stubFile := defaults.StubFile
	if flagChanged(command, flagutils.StubFileFlagName) {
		stubFile = values.StubFile
	}

	assignments, assignmentsError := flagutils.ParseEnvironmentAssignments(values.Environment)
	if assignmentsError != nil {
		return ExecutionSettings{}, assignmentsError
	}

	var environment map[string]string
	switch {
	case clearEnvironment:
		environment = mergeEnvironments(defaults.Environment, assignments)
	case len(defaults.Environment) > 0 || len(assignments) > 0:
		environment = mergeEnvironments(snapshot.Variables, defaults.Environment, assignments)
	}

	homeExpander := factory.HomeExpander
	if homeExpander == nil {
		homeExpander = pathutils.NewHomeExpander()
	}

	return ExecutionSettings{
		WorkingDirectory:      homeExpander.Resolve(workingDirectory, snapshot.WorkingDirectory),
		TerminateOnParentExit: terminateOnParentExit,
		Environment:           environment,
		StubFile:              homeExpander.Resolve(stubFile, snapshot.WorkingDirectory),
	}, nil
}

func (factory ShellFactory) snapshot() execshell.EnvironmentSnapshot {
	if factory.SnapshotProvider != nil {
		return factory.SnapshotProvider()
	}
	return execshell.CaptureEnvironment()
}

func mergeEnvironments(layers ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, layer := range layers {
		for environmentKey, environmentValue := range layer {
			merged[environmentKey] = environmentValue
		}
	}
	return merged
}

func flagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}
	flag := command.Flags().Lookup(flagName)
	return flag != nil && flag.Changed
}

// Logger returns the provided logger, or a no-op logger when the provider or its result is nil.
func (provider LoggerProvider) Logger() *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
