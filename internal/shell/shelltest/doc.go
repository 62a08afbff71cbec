// Package shelltest provides a replaying ProcessRunner for tests and dry runs.
//
// StubRunner matches each request against registered stubs keyed by command,
// terminate-on-parent-exit flag, working directory and environment, and replays
// fixed output without spawning processes. Unmatched requests fail with a
// MissingExecutableError naming the command.
package shelltest
