package execshell

import (
	"context"
	"os"
	"sync"
)

// Execution is the handle of a launched command. Done is closed exactly once, after the completion
// handler (if any) returned.
type Execution struct {
	executionID string
	process     *os.Process
	done        chan struct{}
	outcome     TerminationOutcome
	failure     error
	completion  sync.Once
}

func newExecution(executionID string, process *os.Process) *Execution {
	return &Execution{
		executionID: executionID,
		process:     process,
		done:        make(chan struct{}),
	}
}

// NewPendingExecution builds an Execution that is not backed by an operating system process, for
// runners that replay results. The returned resolve function records the terminal outcome; calls
// after the first are ignored.
func NewPendingExecution(executionID string) (*Execution, func(TerminationOutcome, error)) {
	execution := newExecution(executionID, nil)
	return execution, execution.complete
}

// ExecutionID returns the identifier used in logs for this execution.
func (execution *Execution) ExecutionID() string {
	return execution.executionID
}

// ProcessID returns the operating system process identifier, or zero when there is no process.
func (execution *Execution) ProcessID() int {
	if execution.process == nil {
		return 0
	}
	return execution.process.Pid
}

// Done is closed once the terminal outcome is available.
func (execution *Execution) Done() <-chan struct{} {
	return execution.done
}

// Wait blocks until the execution finished and returns its terminal outcome.
func (execution *Execution) Wait() (TerminationOutcome, error) {
	<-execution.done
	return execution.outcome, execution.failure
}

// WaitWithContext blocks until the execution finished or ctx is cancelled. Cancellation does not
// terminate the child; it returns ctx.Err().
func (execution *Execution) WaitWithContext(executionContext context.Context) (TerminationOutcome, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}
	select {
	case <-execution.done:
		return execution.outcome, execution.failure
	case <-executionContext.Done():
		return TerminationOutcome{}, executionContext.Err()
	}
}

// Terminate asks the child to stop with SIGTERM where supported. It is a no-op once the child exited.
func (execution *Execution) Terminate() error {
	return execution.signal(terminationSignal)
}

// Kill stops the child with SIGKILL. It is a no-op once the child exited.
func (execution *Execution) Kill() error {
	return execution.signal(killSignal)
}

func (execution *Execution) signal(signal os.Signal) error {
	if execution.process == nil {
		return nil
	}
	select {
	case <-execution.done:
		return nil
	default:
	}
	signalError := execution.process.Signal(signal)
	if signalError == nil {
		return nil
	}
	if isProcessGoneError(signalError) {
		return nil
	}
	return signalError
}

func (execution *Execution) complete(outcome TerminationOutcome, failure error) {
	execution.completion.Do(func() {
		execution.outcome = outcome
		execution.failure = failure
		close(execution.done)
	})
}
