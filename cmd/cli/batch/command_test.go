package batch_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	batchcmd "github.com/temirov/procshell/cmd/cli/batch"
	"github.com/temirov/procshell/cmd/cli/process"
	"github.com/temirov/procshell/internal/execshell"
	"github.com/temirov/procshell/internal/utils"
)

const (
	testStubFileContent = `stubs:
  - command: [make, build]
    working_directory: /workspace/project
    stdout: ["built\n"]
  - command: [make, lint]
    working_directory: /workspace/project
    stderr: ["style\n"]
    exit_code: 2
  - command: [make, test]
    working_directory: /workspace/project
    stderr: ["failing test\n"]
    exit_code: 1
`
	testPlanContent = `steps:
  - name: build
    command: [make, build]
  - name: lint
    command: [make, lint]
    with:
      allow_failure: "true"
  - command: [make, test]
    with:
      capture: true
`
	testWorkingDirectoryConstant = "/workspace/project"
)

type batchResult struct {
	output      string
	errorOutput string
	err         error
}

func executeBatchCommand(testInstance *testing.T, executionContext context.Context, arguments ...string) batchResult {
	testInstance.Helper()

	builder := batchcmd.CommandBuilder{
		ShellFactory: process.ShellFactory{
			SnapshotProvider: func() execshell.EnvironmentSnapshot {
				return execshell.EnvironmentSnapshot{WorkingDirectory: testWorkingDirectoryConstant}
			},
		},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	command.SilenceUsage = true
	command.SilenceErrors = true

	outputBuffer := &bytes.Buffer{}
	errorBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(errorBuffer)
	command.SetArgs(arguments)

	executeError := command.ExecuteContext(executionContext)
	return batchResult{output: outputBuffer.String(), errorOutput: errorBuffer.String(), err: executeError}
}

func writeFile(testInstance *testing.T, directory string, name string, content string) string {
	testInstance.Helper()
	filePath := filepath.Join(directory, name)
	require.NoError(testInstance, os.WriteFile(filePath, []byte(content), 0o600))
	return filePath
}

func TestBatchCommandRunsPlan(testInstance *testing.T) {
	tempDirectory := testInstance.TempDir()
	stubFilePath := writeFile(testInstance, tempDirectory, "stubs.yaml", testStubFileContent)
	planPath := writeFile(testInstance, tempDirectory, "plan.yaml", testPlanContent)

	result := executeBatchCommand(testInstance, context.Background(), "--stubs", stubFilePath, "--dir", testWorkingDirectoryConstant, planPath)

	require.Equal(testInstance, 1, process.ExitCode(result.err))
	require.EqualError(testInstance, result.err, "batch step make test failed: The process errored with code 1: failing test")
	require.Equal(testInstance, "built\n", result.output)
	require.Contains(testInstance, result.errorOutput, "==> [1] build\n")
	require.Contains(testInstance, result.errorOutput, "style\n")
	require.Contains(testInstance, result.errorOutput, "FAIL [2] lint (")
	require.Contains(testInstance, result.errorOutput, "FAIL [3] make test (")
}

func TestBatchCommandReadsPlanFromConfigurationPath(testInstance *testing.T) {
	tempDirectory := testInstance.TempDir()
	stubFilePath := writeFile(testInstance, tempDirectory, "stubs.yaml", testStubFileContent)
	configurationPath := writeFile(testInstance, tempDirectory, "config.yaml", `batch:
  steps:
    - name: build
      command: [make, build]
`)
	executionContext := utils.NewCommandContextAccessor().WithConfigurationFilePath(context.Background(), configurationPath)

	result := executeBatchCommand(testInstance, executionContext, "--stubs", stubFilePath, "--dir", testWorkingDirectoryConstant)

	require.NoError(testInstance, result.err)
	require.Equal(testInstance, "built\n", result.output)
	require.Contains(testInstance, result.errorOutput, "ok   [1] build (")
}

func TestBatchCommandErrors(testInstance *testing.T) {
	testCases := []struct {
		name          string
		arguments     func(directory string) []string
		expectedError string
	}{
		{
			name:          "missing_plan",
			arguments:     func(string) []string { return nil },
			expectedError: "batch plan path required; provide a positional argument or a configuration file with a batch section",
		},
		{
			name: "unreadable_plan",
			arguments: func(directory string) []string {
				return []string{filepath.Join(directory, "absent.yaml")}
			},
			expectedError: "unable to load batch plan: failed to load batch plan",
		},
		{
			name: "invalid_step_options",
			arguments: func(directory string) []string {
				return []string{writeFile(testInstance, directory, "plan.yaml", "steps:\n  - command: [make]\n    with:\n      retries: 3\n")}
			},
			expectedError: "unable to build batch steps: invalid options for batch step make",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			result := executeBatchCommand(subTest, context.Background(), testCase.arguments(subTest.TempDir())...)
			require.Error(subTest, result.err)
			require.Contains(subTest, result.err.Error(), testCase.expectedError)
		})
	}
}
