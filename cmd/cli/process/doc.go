// Package process builds the Cobra commands that launch a single program through the shell facade:
// run, capture, which, succeeds, and stream.
package process
