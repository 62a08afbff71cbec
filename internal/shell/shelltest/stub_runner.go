package shelltest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/temirov/procshell/internal/execshell"
	"github.com/temirov/procshell/internal/shell"
)

const (
	notStubbedDiagnosticTemplateConstant = "command '%s' not stubbed"
	signatureFieldSeparatorConstant      = "\x00"
	defaultFailureExitCodeConstant       = 1
	invalidRequestPanicMessageConstant   = "shelltest: request without a program name"
	invalidStubPanicMessageConstant      = "shelltest: stub without a program name"
)

// StubOption customizes a stub registration.
type StubOption func(definition *stubDefinition)

// MatchTerminateOnParentExit restricts the stub to requests with the given lifetime flag. Stubs match
// bound requests by default.
func MatchTerminateOnParentExit(enabled bool) StubOption {
	return func(definition *stubDefinition) {
		definition.terminateOnParentExit = enabled
	}
}

// MatchWorkingDirectory restricts the stub to requests running from workingDirectory.
func MatchWorkingDirectory(workingDirectory string) StubOption {
	return func(definition *stubDefinition) {
		definition.workingDirectory = strings.TrimSpace(workingDirectory)
	}
}

// MatchEnvironment restricts the stub to requests replacing the environment with exactly environment.
func MatchEnvironment(environment map[string]string) StubOption {
	return func(definition *stubDefinition) {
		definition.environment = environment
	}
}

// ReplayStandardOutput sets the chunks written to standard output, in order.
func ReplayStandardOutput(chunks ...string) StubOption {
	return func(definition *stubDefinition) {
		definition.reply.standardOutput = append([]string{}, chunks...)
	}
}

// ReplayStandardError sets the chunks written to standard error, in order.
func ReplayStandardError(chunks ...string) StubOption {
	return func(definition *stubDefinition) {
		definition.reply.standardError = append([]string{}, chunks...)
	}
}

// ReplayExitCode sets the exit code reported after the output was replayed.
func ReplayExitCode(exitCode int) StubOption {
	return func(definition *stubDefinition) {
		definition.reply.exitCode = exitCode
		definition.reply.signaled = false
	}
}

// ReplaySignal reports the execution as terminated by signalNumber.
func ReplaySignal(signalNumber int) StubOption {
	return func(definition *stubDefinition) {
		definition.reply.exitCode = signalNumber
		definition.reply.signaled = true
	}
}

type stubDefinition struct {
	terminateOnParentExit bool
	workingDirectory      string
	environment           map[string]string
	reply                 stubReply
}

type stubReply struct {
	standardOutput []string
	standardError  []string
	exitCode       int
	signaled       bool
}

func (reply stubReply) terminalResult() (execshell.TerminationOutcome, error) {
	if reply.signaled {
		return execshell.TerminationOutcome{Reason: execshell.TerminationReasonSignaled, ExitCode: reply.exitCode}, execshell.SignaledError{ExitCode: reply.exitCode}
	}
	outcome := execshell.TerminationOutcome{Reason: execshell.TerminationReasonExited, ExitCode: reply.exitCode}
	if reply.exitCode != 0 {
		return outcome, execshell.ProcessFailedError{ExitCode: reply.exitCode, Reason: execshell.TerminationReasonExited}
	}
	return outcome, nil
}

// requestSignature is the comparable matching key of a request.
type requestSignature struct {
	command               string
	terminateOnParentExit bool
	workingDirectory      string
	environment           string
	environmentOverridden bool
}

func newRequestSignature(command []string, terminateOnParentExit bool, workingDirectory string, environment map[string]string, environmentOverridden bool) requestSignature {
	signature := requestSignature{
		command:               strings.Join(command, signatureFieldSeparatorConstant),
		terminateOnParentExit: terminateOnParentExit,
		workingDirectory:      workingDirectory,
		environmentOverridden: environmentOverridden,
	}
	if environmentOverridden {
		signature.environment = strings.Join(execshell.FormatEnvironmentList(environment), signatureFieldSeparatorConstant)
	}
	return signature
}

func signatureOfRequest(request execshell.ExecutionRequest) requestSignature {
	environment, overridden := request.Environment()
	return newRequestSignature(request.Command(), request.TerminateOnParentExit(), request.WorkingDirectory(), environment, overridden)
}

// StubRunner implements execshell.ProcessRunner by replaying registered stubs. It is safe for
// concurrent use.
type StubRunner struct {
	mutex       sync.Mutex
	stubs       map[requestSignature]stubReply
	invocations []execshell.ExecutionRequest
}

// NewStubRunner constructs an empty StubRunner.
func NewStubRunner() *StubRunner {
	return &StubRunner{stubs: make(map[requestSignature]stubReply)}
}

// NewShell builds a Shell wired directly to a fresh StubRunner.
func NewShell(options ...shell.ShellOption) (*shell.Shell, *StubRunner) {
	runner := NewStubRunner()
	stubShell, _ := shell.New(runner, options...)
	return stubShell, runner
}

// Stub registers the reply for command. A later registration with the same signature replaces the
// earlier one. Stub panics when command names no program.
func (runner *StubRunner) Stub(command []string, options ...StubOption) {
	if len(command) == 0 || len(command[0]) == 0 {
		panic(invalidStubPanicMessageConstant)
	}
	definition := stubDefinition{terminateOnParentExit: true}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(&definition)
	}

	signature := newRequestSignature(command, definition.terminateOnParentExit, definition.workingDirectory, definition.environment, definition.environment != nil)

	runner.mutex.Lock()
	defer runner.mutex.Unlock()
	if runner.stubs == nil {
		runner.stubs = make(map[requestSignature]stubReply)
	}
	runner.stubs[signature] = definition.reply
}

// Succeed stubs command to exit with zero and no output.
func (runner *StubRunner) Succeed(command []string, options ...StubOption) {
	runner.Stub(command, append(append([]StubOption{}, options...), ReplayExitCode(0))...)
}

// Fail stubs command to write standardError and exit with exitCode. A zero exit code becomes one.
func (runner *StubRunner) Fail(command []string, standardError []string, exitCode int, options ...StubOption) {
	if exitCode == 0 {
		exitCode = defaultFailureExitCodeConstant
	}
	runner.Stub(command, append(append([]StubOption{}, options...), ReplayStandardError(standardError...), ReplayExitCode(exitCode))...)
}

// Invocations returns the requests received so far, matched or not.
func (runner *StubRunner) Invocations() []execshell.ExecutionRequest {
	runner.mutex.Lock()
	defer runner.mutex.Unlock()
	return append([]execshell.ExecutionRequest{}, runner.invocations...)
}

// Reset removes every stub and recorded invocation.
func (runner *StubRunner) Reset() {
	runner.mutex.Lock()
	defer runner.mutex.Unlock()
	runner.stubs = make(map[requestSignature]stubReply)
	runner.invocations = nil
}

// RunSync replays the matching stub on the calling goroutine.
func (runner *StubRunner) RunSync(_ context.Context, request execshell.ExecutionRequest, handlers execshell.OutputHandlers) (execshell.TerminationOutcome, error) {
	reply, lookupError := runner.lookup(request)
	if lookupError != nil {
		return execshell.TerminationOutcome{}, lookupError
	}
	replayOutput(reply, handlers)
	return reply.terminalResult()
}

// RunAsync replays the matching stub on a separate goroutine. Unmatched requests fail immediately
// without invoking onCompletion.
func (runner *StubRunner) RunAsync(_ context.Context, request execshell.ExecutionRequest, handlers execshell.OutputHandlers, onCompletion execshell.CompletionHandler) (*execshell.Execution, error) {
	reply, lookupError := runner.lookup(request)
	if lookupError != nil {
		return nil, lookupError
	}

	execution, resolve := execshell.NewPendingExecution(uuid.NewString())
	go func() {
		replayOutput(reply, handlers)
		outcome, failure := reply.terminalResult()
		if onCompletion != nil {
			onCompletion(outcome, failure)
		}
		resolve(outcome, failure)
	}()
	return execution, nil
}

func (runner *StubRunner) lookup(request execshell.ExecutionRequest) (stubReply, error) {
	command := request.Command()
	if len(command.Program()) == 0 {
		panic(invalidRequestPanicMessageConstant)
	}

	runner.mutex.Lock()
	defer runner.mutex.Unlock()
	runner.invocations = append(runner.invocations, request)
	reply, found := runner.stubs[signatureOfRequest(request)]
	if !found {
		joinedCommand := command.String()
		return stubReply{}, execshell.MissingExecutableError{
			Name:       joinedCommand,
			Diagnostic: fmt.Sprintf(notStubbedDiagnosticTemplateConstant, joinedCommand),
		}
	}
	return reply, nil
}

func replayOutput(reply stubReply, handlers execshell.OutputHandlers) {
	for _, chunk := range reply.standardOutput {
		if handlers.OnStandardOutput != nil {
			handlers.OnStandardOutput([]byte(chunk))
		}
	}
	for _, chunk := range reply.standardError {
		if handlers.OnStandardError != nil {
			handlers.OnStandardError([]byte(chunk))
		}
	}
}
