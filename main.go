package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/temirov/procshell/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

func main() {
	executionError := cli.Execute()
	if executionError == nil {
		return
	}
	if message := strings.TrimSpace(executionError.Error()); len(message) > 0 {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, message)
	}
	os.Exit(cli.ExitCode(executionError))
}
