package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	batchcmd "github.com/temirov/procshell/cmd/cli/batch"
	"github.com/temirov/procshell/cmd/cli/process"
	"github.com/temirov/procshell/internal/utils"
	flagutils "github.com/temirov/procshell/internal/utils/flags"
	pathutils "github.com/temirov/procshell/internal/utils/path"
)

const (
	applicationNameConstant                   = "procshell"
	applicationShortDescriptionConstant       = "Run programs and observe their output"
	applicationLongDescriptionConstant        = "procshell launches programs with an explicit working directory and environment, streams or captures their output, and reports how they terminated."
	configFileFlagNameConstant                = "config"
	configFileFlagUsageConstant               = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                  = "log-level"
	logLevelFlagDescriptionConstant           = "Override the configured log level."
	logFormatFlagNameConstant                 = "log-format"
	logFormatFlagDescriptionConstant          = "Override the configured log format."
	commonConfigurationKeyConstant            = "common"
	commonLogLevelConfigKeyConstant           = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant          = commonConfigurationKeyConstant + ".log_format"
	executionConfigurationKeyConstant         = "execution"
	executionTerminateConfigKeyConstant       = executionConfigurationKeyConstant + ".terminate_on_parent_exit"
	environmentPrefixConstant                 = "PROCSHELL"
	configurationNameConstant                 = "config"
	configurationTypeConstant                 = "yaml"
	configurationInitializedMessageConstant   = "configuration initialized"
	configurationLogLevelFieldConstant        = "log_level"
	configurationLogFormatFieldConstant       = "log_format"
	configurationFileFieldConstant            = "config_file"
	configurationLoadErrorTemplateConstant    = "unable to load configuration: %w"
	executionEnvironmentErrorTemplateConstant = "invalid execution environment configuration: %w"
	loggerCreationErrorTemplateConstant       = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant           = "unable to flush logger: %w"
	rootCommandDebugMessageConstant           = "procshell CLI diagnostics"
	logFieldCommandNameConstant               = "command_name"
	logFieldArgumentsConstant                 = "arguments"
	loggerNotInitializedMessageConstant       = "logger not initialized"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common    ApplicationCommonConfiguration    `mapstructure:"common"`
	Execution ApplicationExecutionConfiguration `mapstructure:"execution"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationExecutionConfiguration stores the defaults applied to every launched process. Environment
// holds KEY=VALUE assignments.
type ApplicationExecutionConfiguration struct {
	WorkingDirectory      string   `mapstructure:"working_directory"`
	TerminateOnParentExit bool     `mapstructure:"terminate_on_parent_exit"`
	Environment           []string `mapstructure:"environment"`
	ClearEnvironment      bool     `mapstructure:"clear_environment"`
	StubFile              string   `mapstructure:"stub_file"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	loggerOutputs          utils.LoggerOutputs
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		utils.DefaultConfigurationSearchPaths(applicationNameConstant),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		loggerOutputs:          utils.LoggerOutputs{DiagnosticLogger: zap.NewNop(), ConsoleLogger: zap.NewNop()},
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	persistentFlags := cobraCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	persistentFlags.StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", flagutils.FormatChoiceUsage(
		string(utils.LogLevelError),
		[]string{string(utils.LogLevelDebug), string(utils.LogLevelInfo), string(utils.LogLevelWarn), string(utils.LogLevelError)},
		logLevelFlagDescriptionConstant,
	))
	persistentFlags.StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", flagutils.FormatChoiceUsage(
		string(utils.LogFormatStructured),
		[]string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)},
		logFormatFlagDescriptionConstant,
	))
	configurationLoader.BindFlag(commonLogLevelConfigKeyConstant, persistentFlags.Lookup(logLevelFlagNameConstant))
	configurationLoader.BindFlag(commonLogFormatConfigKeyConstant, persistentFlags.Lookup(logFormatFlagNameConstant))

	shellFactory := process.ShellFactory{
		LoggerProvider:               application.diagnosticLogger,
		ConsoleLoggerProvider:        application.consoleLogger,
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		HomeExpander:                 pathutils.NewHomeExpander(),
	}

	processBuilder := process.CommandBuilder{
		LoggerProvider: application.diagnosticLogger,
		ShellFactory:   shellFactory,
	}
	processCommands, processBuildError := processBuilder.Build()
	if processBuildError == nil {
		cobraCommand.AddCommand(processCommands...)
	}

	batchBuilder := batchcmd.CommandBuilder{
		LoggerProvider: application.diagnosticLogger,
		ShellFactory:   shellFactory,
	}
	batchCommand, batchBuildError := batchBuilder.Build()
	if batchBuildError == nil {
		cobraCommand.AddCommand(batchCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// SetOutputs redirects command output and error streams.
func (application *Application) SetOutputs(output io.Writer, errorOutput io.Writer) {
	application.rootCommand.SetOut(output)
	application.rootCommand.SetErr(errorOutput)
}

// Execute runs the command hierarchy with the process arguments.
func (application *Application) Execute() error {
	return application.ExecuteContext(context.Background(), os.Args[1:])
}

// ExecuteContext runs the command hierarchy with arguments and ensures logger flushing. Cancelling
// executionContext kills any running child process.
func (application *Application) ExecuteContext(executionContext context.Context, arguments []string) error {
	normalizedArguments := flagutils.NormalizeToggleArguments(application.rootCommand, arguments)
	if normalizedArguments == nil {
		normalizedArguments = []string{}
	}
	application.rootCommand.SetArgs(normalizedArguments)
	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := application.flushLoggers(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes it until completion or until an interrupt
// or termination signal arrives.
func Execute() error {
	signalContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	return NewApplication().ExecuteContext(signalContext, os.Args[1:])
}

// ExitCode maps an error returned by Execute to the status procshell exits with.
func ExitCode(executionError error) int {
	return process.ExitCode(executionError)
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:     string(utils.LogLevelError),
		commonLogFormatConfigKeyConstant:    string(utils.LogFormatStructured),
		executionTerminateConfigKeyConstant: true,
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	executionEnvironment, environmentError := flagutils.ParseEnvironmentAssignments(application.configuration.Execution.Environment)
	if environmentError != nil {
		return fmt.Errorf(executionEnvironmentErrorTemplateConstant, environmentError)
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(strings.TrimSpace(application.configuration.Common.LogLevel)),
		utils.LogFormat(strings.TrimSpace(application.configuration.Common.LogFormat)),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.loggerOutputs = loggerOutputs

	application.loggerOutputs.DiagnosticLogger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		updatedContext = application.commandContextAccessor.WithExecutionDefaults(updatedContext, utils.ExecutionDefaults{
			WorkingDirectory:      application.configuration.Execution.WorkingDirectory,
			TerminateOnParentExit: application.configuration.Execution.TerminateOnParentExit,
			Environment:           executionEnvironment,
			ClearEnvironment:      application.configuration.Execution.ClearEnvironment,
			StubFile:              application.configuration.Execution.StubFile,
		})
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

// Configuration returns the configuration resolved by the last command execution.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

func (application *Application) diagnosticLogger() *zap.Logger {
	return application.loggerOutputs.DiagnosticLogger
}

func (application *Application) consoleLogger() *zap.Logger {
	return application.loggerOutputs.ConsoleLogger
}

func (application *Application) humanReadableLoggingEnabled() bool {
	return application.loggerOutputs.HumanReadable()
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	logger := application.diagnosticLogger()
	if logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	logger.Debug(
		rootCommandDebugMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	return command.Help()
}

func (application *Application) flushLoggers() error {
	if syncError := utils.SyncLogger(application.loggerOutputs.DiagnosticLogger); syncError != nil {
		return syncError
	}
	return utils.SyncLogger(application.loggerOutputs.ConsoleLogger)
}
