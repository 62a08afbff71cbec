package shelltest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/procshell/internal/execshell"
	"github.com/temirov/procshell/internal/shell"
	"github.com/temirov/procshell/internal/shell/shelltest"
)

const testStubFileContentConstant = `stubs:
  - command: [git, rev-parse, --abbrev-ref, HEAD]
    working_directory: /workspace/repo
    stdout: ["main\n"]
  - command: [git, push]
    stderr: ["rejected\n"]
    exit_code: 1
  - command: [daemon]
    terminate_on_parent_exit: false
    environment:
      MODE: background
  - command: [crash]
    signal: 11
`

func writeStubFile(testInstance *testing.T, content string) string {
	testInstance.Helper()
	stubFilePath := filepath.Join(testInstance.TempDir(), "stubs.yaml")
	require.NoError(testInstance, os.WriteFile(stubFilePath, []byte(content), 0o600))
	return stubFilePath
}

func TestLoadStubsRegistersDefinitions(testInstance *testing.T) {
	stubRunner, loadError := shelltest.LoadStubs(writeStubFile(testInstance, testStubFileContentConstant))
	require.NoError(testInstance, loadError)

	stubShell, shellError := shell.New(stubRunner)
	require.NoError(testInstance, shellError)

	branchResult, branchError := stubShell.Capture(context.Background(), []string{"git", "rev-parse", "--abbrev-ref", "HEAD"}, shell.WithWorkingDirectory("/workspace/repo"))
	require.NoError(testInstance, branchError)
	require.Equal(testInstance, "main\n", branchResult.StandardOutput)

	_, pushError := stubShell.Capture(context.Background(), []string{"git", "push"})
	require.EqualError(testInstance, pushError, "The process errored with code 1: rejected")

	require.True(testInstance, stubShell.Succeeds(context.Background(), []string{"daemon"}, shell.WithTerminateOnParentExit(false), shell.WithEnvironment(map[string]string{"MODE": "background"})))
	require.False(testInstance, stubShell.Succeeds(context.Background(), []string{"daemon"}))

	_, crashError := stubShell.Sync(context.Background(), []string{"crash"})
	var signaledError execshell.SignaledError
	require.ErrorAs(testInstance, crashError, &signaledError)
	require.Equal(testInstance, 11, signaledError.ExitCode)
}

func TestLoadStubsErrors(testInstance *testing.T) {
	testCases := []struct {
		name             string
		filePath         func(testInstance *testing.T) string
		expectedContains string
	}{
		{
			name:             "empty_path",
			filePath:         func(*testing.T) string { return "  " },
			expectedContains: "stub file path must be provided",
		},
		{
			name: "missing_file",
			filePath: func(testInstance *testing.T) string {
				return filepath.Join(testInstance.TempDir(), "absent.yaml")
			},
			expectedContains: "failed to load stub file",
		},
		{
			name: "invalid_yaml",
			filePath: func(testInstance *testing.T) string {
				return writeStubFile(testInstance, "stubs: [\n")
			},
			expectedContains: "failed to parse stub file",
		},
		{
			name: "missing_command",
			filePath: func(testInstance *testing.T) string {
				return writeStubFile(testInstance, "stubs:\n  - stdout: [x]\n")
			},
			expectedContains: "stub 0 missing command",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			stubRunner, loadError := shelltest.LoadStubs(testCase.filePath(testInstance))
			require.Error(testInstance, loadError)
			require.Contains(testInstance, loadError.Error(), testCase.expectedContains)
			require.Nil(testInstance, stubRunner)
		})
	}
}
