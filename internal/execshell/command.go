package execshell

import (
	"strings"
)

const (
	emptyCommandPanicMessageConstant     = "execshell: at least one command element is required"
	emptyProgramNamePanicMessageConstant = "execshell: the program name must not be empty"
	commandElementsJoinSeparatorConstant = " "
	defaultTerminateOnParentExitConstant = true
)

// Command is an ordered argument list whose first element names the program.
// Elements are passed to the child verbatim; no shell expansion takes place.
type Command []string

// Program returns the program name or path.
func (command Command) Program() string {
	if len(command) == 0 {
		return ""
	}
	return command[0]
}

// Arguments returns a copy of the literal arguments following the program.
func (command Command) Arguments() []string {
	if len(command) < 2 {
		return []string{}
	}
	return append([]string{}, command[1:]...)
}

// String joins the command elements with single spaces.
func (command Command) String() string {
	return strings.Join(command, commandElementsJoinSeparatorConstant)
}

// ExecutionRequest describes exactly one process invocation. It is immutable once constructed.
type ExecutionRequest struct {
	command               Command
	terminateOnParentExit bool
	workingDirectory      string
	environment           map[string]string
	environmentOverridden bool
}

// RequestOption customizes an ExecutionRequest during construction.
type RequestOption func(request *ExecutionRequest)

// NewExecutionRequest validates the command and builds a request.
//
// An empty command or an empty program name is a programming error and panics.
func NewExecutionRequest(command []string, options ...RequestOption) ExecutionRequest {
	ensureCommandContract(command)

	request := ExecutionRequest{
		command:               append(Command{}, command...),
		terminateOnParentExit: defaultTerminateOnParentExitConstant,
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(&request)
	}
	return request
}

// WithTerminateOnParentExit controls whether the child should be torn down when the parent process dies.
func WithTerminateOnParentExit(enabled bool) RequestOption {
	return func(request *ExecutionRequest) {
		request.terminateOnParentExit = enabled
	}
}

// WithWorkingDirectory runs the child from the provided directory.
func WithWorkingDirectory(workingDirectory string) RequestOption {
	return func(request *ExecutionRequest) {
		request.workingDirectory = strings.TrimSpace(workingDirectory)
	}
}

// WithEnvironment replaces the inherited environment entirely. A nil map keeps the inherited environment.
func WithEnvironment(environment map[string]string) RequestOption {
	return func(request *ExecutionRequest) {
		if environment == nil {
			request.environment = nil
			request.environmentOverridden = false
			return
		}
		request.environment = copyEnvironment(environment)
		request.environmentOverridden = true
	}
}

// Command returns a copy of the command.
func (request ExecutionRequest) Command() Command {
	return append(Command{}, request.command...)
}

// TerminateOnParentExit reports whether the child is bound to the parent's lifetime.
func (request ExecutionRequest) TerminateOnParentExit() bool {
	return request.terminateOnParentExit
}

// WorkingDirectory returns the requested working directory, empty when inherited.
func (request ExecutionRequest) WorkingDirectory() string {
	return request.workingDirectory
}

// Environment returns a copy of the replacement environment and whether one was supplied.
func (request ExecutionRequest) Environment() (map[string]string, bool) {
	if !request.environmentOverridden {
		return nil, false
	}
	return copyEnvironment(request.environment), true
}

func ensureCommandContract(command []string) {
	if len(command) == 0 {
		panic(emptyCommandPanicMessageConstant)
	}
	if len(command[0]) == 0 {
		panic(emptyProgramNamePanicMessageConstant)
	}
}

func copyEnvironment(environment map[string]string) map[string]string {
	duplicated := make(map[string]string, len(environment))
	for environmentKey, environmentValue := range environment {
		duplicated[environmentKey] = environmentValue
	}
	return duplicated
}
