// Package batch runs declarative command plans loaded from YAML.
//
// A plan lists steps, each naming a command and optional "with" options that
// control its working directory, environment, lifetime binding, output capture
// and failure tolerance. Executor runs the steps in order through a shell.Shell.
package batch
