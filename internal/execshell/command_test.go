package execshell_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/procshell/internal/execshell"
)

func TestNewExecutionRequestRejectsInvalidCommands(testInstance *testing.T) {
	testCases := []struct {
		name    string
		command []string
	}{
		{name: "nil_command", command: nil},
		{name: "empty_command", command: []string{}},
		{name: "empty_program", command: []string{"", "argument"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Panics(testInstance, func() {
				execshell.NewExecutionRequest(testCase.command)
			})
		})
	}
}

func TestNewExecutionRequestAppliesOptions(testInstance *testing.T) {
	command := []string{"echo", "hello", "world"}
	environment := map[string]string{"KEY": "value"}

	request := execshell.NewExecutionRequest(
		command,
		execshell.WithWorkingDirectory("  /tmp  "),
		execshell.WithEnvironment(environment),
		execshell.WithTerminateOnParentExit(false),
		nil,
	)

	command[1] = "mutated"
	environment["KEY"] = "mutated"

	require.Equal(testInstance, execshell.Command{"echo", "hello", "world"}, request.Command())
	require.Equal(testInstance, "echo", request.Command().Program())
	require.Equal(testInstance, []string{"hello", "world"}, request.Command().Arguments())
	require.Equal(testInstance, "echo hello world", request.Command().String())
	require.Equal(testInstance, "/tmp", request.WorkingDirectory())
	require.False(testInstance, request.TerminateOnParentExit())

	replacementEnvironment, overridden := request.Environment()
	require.True(testInstance, overridden)
	require.Equal(testInstance, map[string]string{"KEY": "value"}, replacementEnvironment)
}

func TestNewExecutionRequestDefaults(testInstance *testing.T) {
	request := execshell.NewExecutionRequest([]string{"true"})

	require.True(testInstance, request.TerminateOnParentExit())
	require.Empty(testInstance, request.WorkingDirectory())
	require.Empty(testInstance, request.Command().Arguments())

	replacementEnvironment, overridden := request.Environment()
	require.False(testInstance, overridden)
	require.Nil(testInstance, replacementEnvironment)
}

func TestWithEnvironmentEmptyMapClearsEnvironment(testInstance *testing.T) {
	request := execshell.NewExecutionRequest([]string{"env"}, execshell.WithEnvironment(map[string]string{}))

	replacementEnvironment, overridden := request.Environment()
	require.True(testInstance, overridden)
	require.Empty(testInstance, replacementEnvironment)
}
