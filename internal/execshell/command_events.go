package execshell

// CommandEventObserver receives lifecycle notifications for process executions.
type CommandEventObserver interface {
	// CommandStarted notifies observers that the process was spawned.
	CommandStarted(request ExecutionRequest)
	// CommandCompleted notifies observers that the process exited and its output was delivered.
	CommandCompleted(request ExecutionRequest, outcome TerminationOutcome)
	// CommandExecutionFailed reports failures raised before a terminal outcome was available.
	CommandExecutionFailed(request ExecutionRequest, failure error)
}

// noopCommandEventObserver discards all command events.
type noopCommandEventObserver struct{}

// CommandStarted implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandStarted(ExecutionRequest) {}

// CommandCompleted implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandCompleted(ExecutionRequest, TerminationOutcome) {}

// CommandExecutionFailed implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandExecutionFailed(ExecutionRequest, error) {}
