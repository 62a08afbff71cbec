package shell

import (
	"context"
	"strings"

	"github.com/temirov/procshell/internal/execshell"
)

const streamEventBufferSizeConstant = 64

// Event is one decoded chunk of output.
type Event struct {
	Stream execshell.OutputStream
	Text   string
}

// Output is the text accumulated by Collect.
type Output struct {
	StandardOutput string
	StandardError  string
}

// Chomp returns the output with surrounding whitespace trimmed from both streams.
func (output Output) Chomp() Output {
	return Output{
		StandardOutput: strings.TrimSpace(output.StandardOutput),
		StandardError:  strings.TrimSpace(output.StandardError),
	}
}

// Stream exposes an asynchronous execution as a channel of events. The channel is closed after the
// last event; the terminal result is available from Wait once it is closed.
type Stream struct {
	events    chan Event
	execution *execshell.Execution
	outcome   execshell.TerminationOutcome
	failure   error
}

// Run starts command asynchronously and returns its event stream. Cancelling executionContext or
// calling Terminate stops the child.
func (shell *Shell) Run(executionContext context.Context, command []string, options ...Option) (*Stream, error) {
	stream := &Stream{events: make(chan Event, streamEventBufferSizeConstant)}
	streamOptions := append(append([]Option{}, options...),
		WithStandardOutputHandler(stream.publisher(execshell.StandardOutputStream)),
		WithStandardErrorHandler(stream.publisher(execshell.StandardErrorStream)),
	)

	execution, startError := shell.Async(executionContext, command, func(outcome execshell.TerminationOutcome, failure error) {
		stream.outcome = outcome
		stream.failure = failure
		close(stream.events)
	}, streamOptions...)
	if startError != nil {
		return nil, startError
	}
	stream.execution = execution
	return stream, nil
}

func (stream *Stream) publisher(outputStream execshell.OutputStream) func(text string) {
	return func(text string) {
		stream.events <- Event{Stream: outputStream, Text: text}
	}
}

// Events returns the event channel. Consumers must drain it; an unread channel applies backpressure
// to the child.
func (stream *Stream) Events() <-chan Event {
	return stream.events
}

// Execution returns the underlying execution handle.
func (stream *Stream) Execution() *execshell.Execution {
	return stream.execution
}

// Terminate stops the child process.
func (stream *Stream) Terminate() error {
	return stream.execution.Terminate()
}

// Wait discards remaining events and returns the terminal result.
func (stream *Stream) Wait() (execshell.TerminationOutcome, error) {
	for range stream.events {
	}
	return stream.outcome, stream.failure
}

// Collect drains the stream, accumulating both outputs. On failure the error carries the collected
// standard error.
func (stream *Stream) Collect() (Output, error) {
	var standardOutput strings.Builder
	var standardError strings.Builder
	for event := range stream.events {
		switch event.Stream {
		case execshell.StandardOutputStream:
			standardOutput.WriteString(event.Text)
		case execshell.StandardErrorStream:
			standardError.WriteString(event.Text)
		}
	}

	output := Output{StandardOutput: standardOutput.String(), StandardError: standardError.String()}
	if stream.failure != nil {
		return output, execshell.AttachStandardError(stream.failure, output.StandardError)
	}
	return output, nil
}
