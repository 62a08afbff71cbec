// Package ui renders process activity for console users.
//
// Lifecycle events become concise log messages, live output is written to the terminal with colored
// standard error, and batch progress is printed one line per step.
package ui
