package utils

import "context"

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	executionDefaultsContextKeyConstant     = commandContextKey("executionDefaults")
)

type commandContextKey string

// ExecutionDefaults are the configured process execution settings applied when flags are not given.
type ExecutionDefaults struct {
	WorkingDirectory      string
	TerminateOnParentExit bool
	Environment           map[string]string
	ClearEnvironment      bool
	StubFile              string
}

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	configurationFilePath, configurationFilePathAvailable := executionContext.Value(configurationFilePathContextKeyConstant).(string)
	if !configurationFilePathAvailable {
		return "", false
	}
	return configurationFilePath, true
}

// WithExecutionDefaults attaches execution defaults to the provided context.
func (accessor CommandContextAccessor) WithExecutionDefaults(parentContext context.Context, defaults ExecutionDefaults) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, executionDefaultsContextKeyConstant, defaults)
}

// ExecutionDefaults extracts execution defaults from the provided context.
func (accessor CommandContextAccessor) ExecutionDefaults(executionContext context.Context) (ExecutionDefaults, bool) {
	if executionContext == nil {
		return ExecutionDefaults{}, false
	}
	defaults, defaultsAvailable := executionContext.Value(executionDefaultsContextKeyConstant).(ExecutionDefaults)
	return defaults, defaultsAvailable
}
