package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestBindExecutionFlagsUsesDefaultsAndParsesValues(t *testing.T) {
	command := &cobra.Command{}
	values := BindExecutionFlags(command, ExecutionFlagValues{WorkingDirectory: "/default", TerminateOnParentExit: true})

	require.Equal(t, "/default", values.WorkingDirectory)
	require.True(t, values.TerminateOnParentExit)

	arguments := NormalizeToggleArguments(command, []string{"--dir", "/srv", "--env", "A=1", "--env", "B=2", "--clear-env", "--terminate-on-parent-exit", "no", "--stubs", "stubs.yaml"})
	require.NoError(t, command.ParseFlags(arguments))

	require.Equal(t, "/srv", values.WorkingDirectory)
	require.Equal(t, []string{"A=1", "B=2"}, values.Environment)
	require.True(t, values.ClearEnvironment)
	require.False(t, values.TerminateOnParentExit)
	require.Equal(t, "stubs.yaml", values.StubFile)
}

func TestParseEnvironmentAssignments(t *testing.T) {
	environment, parseError := ParseEnvironmentAssignments([]string{"A=1", "B=x=y", "A=2", "EMPTY="})
	require.NoError(t, parseError)
	require.Equal(t, map[string]string{"A": "2", "B": "x=y", "EMPTY": ""}, environment)

	_, invalidError := ParseEnvironmentAssignments([]string{"MISSING"})
	require.EqualError(t, invalidError, `invalid --env value "MISSING": expected KEY=VALUE`)
}
