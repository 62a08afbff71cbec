package execshell

// TerminationReason describes how a child process ended.
type TerminationReason string

// Supported termination reasons.
const (
	TerminationReasonExited   TerminationReason = TerminationReason("exit")
	TerminationReasonSignaled TerminationReason = TerminationReason("uncaught_signal")
)

// TerminationOutcome is produced exactly once per execution, after every output event was delivered.
// For signaled processes ExitCode carries the signal number.
type TerminationOutcome struct {
	Reason   TerminationReason
	ExitCode int
}

// Succeeded reports whether the process exited normally with a zero exit code.
func (outcome TerminationOutcome) Succeeded() bool {
	return outcome.Reason == TerminationReasonExited && outcome.ExitCode == 0
}

// OutputStream identifies one of the two child output pipes.
type OutputStream string

// Supported output streams.
const (
	StandardOutputStream OutputStream = OutputStream("stdout")
	StandardErrorStream  OutputStream = OutputStream("stderr")
)

// OutputEvent is a single arrival of bytes from one of the child pipes. It is not line aligned.
type OutputEvent struct {
	Stream OutputStream
	Data   []byte
}

// OutputHandlers receive raw output chunks. Nil handlers discard data; the pipes are drained regardless.
// Handlers are never invoked concurrently with each other.
type OutputHandlers struct {
	OnStandardOutput func(data []byte)
	OnStandardError  func(data []byte)
}

func (handlers OutputHandlers) deliver(event OutputEvent) {
	switch event.Stream {
	case StandardOutputStream:
		if handlers.OnStandardOutput != nil {
			handlers.OnStandardOutput(event.Data)
		}
	case StandardErrorStream:
		if handlers.OnStandardError != nil {
			handlers.OnStandardError(event.Data)
		}
	}
}

// CompletionHandler is invoked once an asynchronous execution finished and its output was delivered.
type CompletionHandler func(outcome TerminationOutcome, failure error)
