// Package shell exposes the caller-facing facade over execshell runners.
//
// Shell decodes child output as UTF-8 text and offers Sync, Async, Capture and
// Succeeds. Run re-presents an execution as a channel of text events.
package shell
