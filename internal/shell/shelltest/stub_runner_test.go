package shelltest_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/procshell/internal/execshell"
	"github.com/temirov/procshell/internal/shell"
	"github.com/temirov/procshell/internal/shell/shelltest"
)

const (
	testWorkingDirectoryConstant  = "/workspace/repo"
	testCompletionTimeoutConstant = 10 * time.Second
)

func TestStubRunnerUnregisteredCommand(testInstance *testing.T) {
	stubRunner := shelltest.NewStubRunner()
	callbackInvoked := false
	handlers := execshell.OutputHandlers{
		OnStandardOutput: func([]byte) { callbackInvoked = true },
		OnStandardError:  func([]byte) { callbackInvoked = true },
	}

	_, runError := stubRunner.RunSync(context.Background(), execshell.NewExecutionRequest([]string{"git", "status"}), handlers)

	require.ErrorIs(testInstance, runError, execshell.ErrMissingExecutable)
	require.EqualError(testInstance, runError, "The executable with name 'git status' was not found: command 'git status' not stubbed")
	require.False(testInstance, callbackInvoked)
	require.Len(testInstance, stubRunner.Invocations(), 1)
}

func TestStubRunnerMatchesFullSignature(testInstance *testing.T) {
	command := []string{"go", "test", "./..."}

	testCases := []struct {
		name         string
		stubOptions  []shelltest.StubOption
		shellOptions []shell.Option
		expectMatch  bool
	}{
		{
			name:        "defaults",
			expectMatch: true,
		},
		{
			name:         "working_directory_match",
			stubOptions:  []shelltest.StubOption{shelltest.MatchWorkingDirectory(testWorkingDirectoryConstant)},
			shellOptions: []shell.Option{shell.WithWorkingDirectory(testWorkingDirectoryConstant)},
			expectMatch:  true,
		},
		{
			name:         "working_directory_mismatch",
			stubOptions:  []shelltest.StubOption{shelltest.MatchWorkingDirectory(testWorkingDirectoryConstant)},
			shellOptions: []shell.Option{shell.WithWorkingDirectory("/elsewhere")},
		},
		{
			name:         "terminate_flag_mismatch",
			shellOptions: []shell.Option{shell.WithTerminateOnParentExit(false)},
		},
		{
			name:         "terminate_flag_match",
			stubOptions:  []shelltest.StubOption{shelltest.MatchTerminateOnParentExit(false)},
			shellOptions: []shell.Option{shell.WithTerminateOnParentExit(false)},
			expectMatch:  true,
		},
		{
			name:         "environment_match_by_content",
			stubOptions:  []shelltest.StubOption{shelltest.MatchEnvironment(map[string]string{"A": "1", "B": "2"})},
			shellOptions: []shell.Option{shell.WithEnvironment(map[string]string{"B": "2", "A": "1"})},
			expectMatch:  true,
		},
		{
			name:         "environment_mismatch",
			stubOptions:  []shelltest.StubOption{shelltest.MatchEnvironment(map[string]string{"A": "1"})},
			shellOptions: []shell.Option{shell.WithEnvironment(map[string]string{"A": "2"})},
		},
		{
			name:         "inherited_environment_differs_from_empty",
			stubOptions:  []shelltest.StubOption{shelltest.MatchEnvironment(map[string]string{})},
			shellOptions: nil,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			stubShell, stubRunner := shelltest.NewShell()
			stubRunner.Stub(command, append(testCase.stubOptions, shelltest.ReplayStandardOutput("ok\n"))...)

			result, captureError := stubShell.Capture(context.Background(), command, testCase.shellOptions...)
			if testCase.expectMatch {
				require.NoError(testInstance, captureError)
				require.Equal(testInstance, "ok\n", result.StandardOutput)
				return
			}
			require.ErrorIs(testInstance, captureError, execshell.ErrMissingExecutable)
		})
	}
}

func TestStubRunnerReplaysFailures(testInstance *testing.T) {
	stubShell, stubRunner := shelltest.NewShell()
	stubRunner.Fail([]string{"git", "push"}, []string{"rejected", "\n"}, 0)
	stubRunner.Stub([]string{"kill-me"}, shelltest.ReplaySignal(9))
	stubRunner.Succeed([]string{"true"})

	result, captureError := stubShell.Capture(context.Background(), []string{"git", "push"})
	var failedError execshell.ProcessFailedError
	require.ErrorAs(testInstance, captureError, &failedError)
	require.Equal(testInstance, 1, failedError.ExitCode)
	require.Equal(testInstance, "rejected\n", result.StandardError)
	require.Empty(testInstance, result.StandardOutput)

	outcome, syncError := stubShell.Sync(context.Background(), []string{"kill-me"})
	require.ErrorIs(testInstance, syncError, execshell.ErrProcessSignaled)
	require.Equal(testInstance, execshell.TerminationOutcome{Reason: execshell.TerminationReasonSignaled, ExitCode: 9}, outcome)

	require.True(testInstance, stubShell.Succeeds(context.Background(), []string{"true"}))
	require.Len(testInstance, stubRunner.Invocations(), 3)

	stubRunner.Reset()
	require.Empty(testInstance, stubRunner.Invocations())
	require.False(testInstance, stubShell.Succeeds(context.Background(), []string{"true"}))
}

func TestStubRunnerAsyncReplay(testInstance *testing.T) {
	stubRunner := shelltest.NewStubRunner()
	stubRunner.Stub([]string{"build"}, shelltest.ReplayStandardOutput("a", "b"), shelltest.ReplayExitCode(4))

	var delivered []string
	completed := make(chan struct{})
	execution, runError := stubRunner.RunAsync(context.Background(), execshell.NewExecutionRequest([]string{"build"}), execshell.OutputHandlers{
		OnStandardOutput: func(data []byte) { delivered = append(delivered, string(data)) },
	}, func(outcome execshell.TerminationOutcome, failure error) {
		delivered = append(delivered, "completed")
		close(completed)
	})
	require.NoError(testInstance, runError)
	require.Zero(testInstance, execution.ProcessID())

	select {
	case <-completed:
	case <-time.After(testCompletionTimeoutConstant):
		testInstance.Fatal("completion not delivered")
	}
	outcome, waitError := execution.Wait()
	require.ErrorIs(testInstance, waitError, execshell.ErrProcessFailed)
	require.Equal(testInstance, 4, outcome.ExitCode)
	require.Equal(testInstance, []string{"a", "b", "completed"}, delivered)

	unstubbed, unstubbedError := stubRunner.RunAsync(context.Background(), execshell.NewExecutionRequest([]string{"absent"}), execshell.OutputHandlers{}, func(execshell.TerminationOutcome, error) {
		testInstance.Error("completion must not fire for unmatched requests")
	})
	require.ErrorIs(testInstance, unstubbedError, execshell.ErrMissingExecutable)
	require.Nil(testInstance, unstubbed)
}

func TestStubRunnerConcurrentUse(testInstance *testing.T) {
	stubShell, stubRunner := shelltest.NewShell()
	stubRunner.Succeed([]string{"true"})

	var waitGroup sync.WaitGroup
	for invocationIndex := 0; invocationIndex < 16; invocationIndex++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			stubShell.Succeeds(context.Background(), []string{"true"})
		}()
	}
	waitGroup.Wait()

	require.Len(testInstance, stubRunner.Invocations(), 16)
}

func TestStubRunnerRejectsZeroValueRequest(testInstance *testing.T) {
	stubRunner := shelltest.NewStubRunner()

	require.Panics(testInstance, func() {
		_, _ = stubRunner.RunSync(context.Background(), execshell.ExecutionRequest{}, execshell.OutputHandlers{})
	})
}

func TestStubRunnerRejectsStubWithoutProgram(testInstance *testing.T) {
	testCases := []struct {
		name    string
		command []string
	}{
		{name: "nil_command"},
		{name: "empty_command", command: []string{}},
		{name: "empty_program", command: []string{"", "argument"}},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			stubRunner := shelltest.NewStubRunner()
			require.PanicsWithValue(testInstance, "shelltest: stub without a program name", func() {
				stubRunner.Stub(testCase.command)
			})
			require.PanicsWithValue(testInstance, "shelltest: stub without a program name", func() {
				stubRunner.Succeed(testCase.command)
			})
		})
	}
}
