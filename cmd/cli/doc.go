// Package cli constructs the procshell command-line interface. It wires the Cobra command hierarchy to
// the Viper configuration loader and zap loggers, and maps execution failures to process exit codes.
package cli
