package execshell

import (
	"errors"
	"io"
	"os"
)

const (
	outputSequencerQueueCapacityConstant = 64
	pipeReadBufferSizeConstant           = 32 * 1024
)

// outputSequencer funnels events from both pipe readers through a single delivery goroutine so that
// handlers observe per-stream arrival order and never run concurrently.
type outputSequencer struct {
	events   chan OutputEvent
	handlers OutputHandlers
	drained  chan struct{}
}

func newOutputSequencer(handlers OutputHandlers) *outputSequencer {
	sequencer := &outputSequencer{
		events:   make(chan OutputEvent, outputSequencerQueueCapacityConstant),
		handlers: handlers,
		drained:  make(chan struct{}),
	}
	go sequencer.deliverEvents()
	return sequencer
}

func (sequencer *outputSequencer) deliverEvents() {
	defer close(sequencer.drained)
	for event := range sequencer.events {
		sequencer.handlers.deliver(event)
	}
}

func (sequencer *outputSequencer) submit(event OutputEvent) {
	sequencer.events <- event
}

// finish must be called once after every producer returned. It blocks until the last handler returned.
func (sequencer *outputSequencer) finish() {
	close(sequencer.events)
	<-sequencer.drained
}

// pumpStream copies every chunk read from reader into the sequencer until end of stream.
func pumpStream(reader io.Reader, stream OutputStream, sequencer *outputSequencer) error {
	readBuffer := make([]byte, pipeReadBufferSizeConstant)
	for {
		bytesRead, readError := reader.Read(readBuffer)
		if bytesRead > 0 {
			chunk := make([]byte, bytesRead)
			copy(chunk, readBuffer[:bytesRead])
			sequencer.submit(OutputEvent{Stream: stream, Data: chunk})
		}
		if readError == nil {
			continue
		}
		if errors.Is(readError, io.EOF) || errors.Is(readError, os.ErrClosed) {
			return nil
		}
		return readError
	}
}
