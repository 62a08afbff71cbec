package process_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/procshell/cmd/cli/process"
	"github.com/temirov/procshell/internal/execshell"
)

const (
	testStubFileNameConstant = "stubs.yaml"
	testStubFileContent      = `stubs:
  - command: [git, status]
    stdout: ["clean\n"]
  - command: [make, test]
    stdout: ["compiling\n"]
    stderr: ["boom\n"]
    exit_code: 2
  - command: [sleepy]
    signal: 15
  - command: [printenv, GREETING]
    environment:
      PATH: /usr/bin
      GREETING: hello
    stdout: ["hello\n"]
  - command: [pwd]
    working_directory: /workspace/project/sub
    stdout: ["/workspace/project/sub\n"]
  - command: [chatty]
    stdout: ["alpha\nbe", "ta\n"]
    stderr: ["warn"]
`
	testWorkingDirectoryConstant = "/workspace/project"
)

type commandResult struct {
	output      string
	errorOutput string
	err         error
}

func testSnapshot(pathValue string) execshell.EnvironmentSnapshot {
	return execshell.EnvironmentSnapshot{
		PathValue:        pathValue,
		WorkingDirectory: testWorkingDirectoryConstant,
		Variables:        map[string]string{"PATH": pathValue},
	}
}

func executeProcessCommand(testInstance *testing.T, snapshot *execshell.EnvironmentSnapshot, arguments ...string) commandResult {
	testInstance.Helper()

	factory := process.ShellFactory{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
	}
	if snapshot != nil {
		capturedSnapshot := *snapshot
		factory.SnapshotProvider = func() execshell.EnvironmentSnapshot { return capturedSnapshot }
	}
	builder := process.CommandBuilder{ShellFactory: factory}
	commands, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	rootCommand := &cobra.Command{Use: "procshell", SilenceUsage: true, SilenceErrors: true}
	rootCommand.AddCommand(commands...)

	outputBuffer := &bytes.Buffer{}
	errorBuffer := &bytes.Buffer{}
	rootCommand.SetOut(outputBuffer)
	rootCommand.SetErr(errorBuffer)
	rootCommand.SetArgs(arguments)

	executeError := rootCommand.Execute()
	return commandResult{output: outputBuffer.String(), errorOutput: errorBuffer.String(), err: executeError}
}

func writeStubFile(testInstance *testing.T) string {
	testInstance.Helper()
	stubFilePath := filepath.Join(testInstance.TempDir(), testStubFileNameConstant)
	require.NoError(testInstance, os.WriteFile(stubFilePath, []byte(testStubFileContent), 0o600))
	return stubFilePath
}

func TestProcessCommandsWithStubs(testInstance *testing.T) {
	stubFilePath := writeStubFile(testInstance)
	snapshot := testSnapshot("/usr/bin")

	testCases := []struct {
		name                string
		arguments           []string
		expectedOutput      string
		expectedErrorOutput string
		expectedExitCode    int
		expectedError       string
	}{
		{
			name:           "capture_success",
			arguments:      []string{"capture", "--stubs", stubFilePath, "git", "status"},
			expectedOutput: "clean\n",
		},
		{
			name:             "capture_failure",
			arguments:        []string{"capture", "--stubs", stubFilePath, "make", "test"},
			expectedOutput:   "compiling\n",
			expectedExitCode: 2,
			expectedError:    "The process errored with code 2: boom",
		},
		{
			name:                "run_streams_and_propagates_exit_code",
			arguments:           []string{"run", "--stubs", stubFilePath, "make", "test"},
			expectedOutput:      "compiling\n",
			expectedErrorOutput: "boom\n",
			expectedExitCode:    2,
			expectedError:       "The process errored with code 2",
		},
		{
			name:             "run_signaled",
			arguments:        []string{"run", "--stubs", stubFilePath, "sleepy"},
			expectedExitCode: 143,
			expectedError:    "The process was interrupted with code 15",
		},
		{
			name:             "run_missing_executable",
			arguments:        []string{"run", "--stubs", stubFilePath, "unknown", "--flag"},
			expectedExitCode: 127,
			expectedError:    "The executable with name 'unknown --flag' was not found: command 'unknown --flag' not stubbed",
		},
		{
			name:           "succeeds_true",
			arguments:      []string{"succeeds", "--stubs", stubFilePath, "git", "status"},
			expectedOutput: "true\n",
		},
		{
			name:           "succeeds_false",
			arguments:      []string{"succeeds", "--stubs", stubFilePath, "make", "test"},
			expectedOutput: "false\n",
		},
		{
			name:           "environment_assignment_layers_over_snapshot",
			arguments:      []string{"capture", "--stubs", stubFilePath, "--env", "GREETING=hello", "printenv", "GREETING"},
			expectedOutput: "hello\n",
		},
		{
			name:           "relative_working_directory",
			arguments:      []string{"capture", "--stubs", stubFilePath, "--dir", "sub", "pwd"},
			expectedOutput: "/workspace/project/sub\n",
		},
		{
			name:             "invalid_environment_assignment",
			arguments:        []string{"capture", "--stubs", stubFilePath, "--env", "GREETING", "printenv", "GREETING"},
			expectedExitCode: 1,
			expectedError:    "invalid --env value \"GREETING\": expected KEY=VALUE",
		},
		{
			name:           "stream_prefixes_lines",
			arguments:      []string{"stream", "--stubs", stubFilePath, "chatty"},
			expectedOutput: "stdout | alpha\nstdout | beta\nstderr | warn\n",
		},
		{
			name:           "program_flags_are_not_parsed",
			arguments:      []string{"succeeds", "--stubs", stubFilePath, "git", "--dir", "status"},
			expectedOutput: "false\n",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			result := executeProcessCommand(subTest, &snapshot, testCase.arguments...)

			require.Equal(subTest, testCase.expectedOutput, result.output)
			require.Equal(subTest, testCase.expectedErrorOutput, result.errorOutput)
			require.Equal(subTest, testCase.expectedExitCode, process.ExitCode(result.err))
			if len(testCase.expectedError) == 0 {
				require.NoError(subTest, result.err)
				return
			}
			require.EqualError(subTest, result.err, testCase.expectedError)
		})
	}
}

func TestWhichCommand(testInstance *testing.T) {
	binaryDirectory := testInstance.TempDir()
	executablePath := filepath.Join(binaryDirectory, "tool")
	require.NoError(testInstance, os.WriteFile(executablePath, []byte("#!/bin/sh\n"), 0o755))
	snapshot := testSnapshot(binaryDirectory)

	found := executeProcessCommand(testInstance, &snapshot, "which", "tool")
	require.NoError(testInstance, found.err)
	require.Equal(testInstance, executablePath+"\n", found.output)

	missing := executeProcessCommand(testInstance, &snapshot, "which", "absent")
	require.ErrorIs(testInstance, missing.err, execshell.ErrMissingExecutable)
	require.Equal(testInstance, 1, process.ExitCode(missing.err))
	require.Empty(testInstance, missing.output)
}

func TestRunCommandLaunchesRealProcess(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()

	result := executeProcessCommand(testInstance, nil, "run", "--dir", workingDirectory, "sh", "-c", "echo out; echo err 1>&2; exit 3")

	require.Equal(testInstance, "out\n", result.output)
	require.Equal(testInstance, "err\n", result.errorOutput)
	require.Equal(testInstance, 3, process.ExitCode(result.err))
}
