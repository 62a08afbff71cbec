// Package execshell launches external programs and streams their output.
//
// ExecutableResolver maps command names onto executable paths using an explicit
// EnvironmentSnapshot. OSProcessRunner spawns the resolved program, drains both
// output pipes concurrently, delivers chunks through a single sequencer and
// reports a TerminationOutcome only after the child exited and both pipes
// reached end of stream. Failures are reported as MissingExecutableError,
// ProcessFailedError or SignaledError values.
package execshell
