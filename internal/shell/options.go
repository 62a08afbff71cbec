package shell

import (
	"github.com/temirov/procshell/internal/execshell"
)

// Option customizes a single facade call.
type Option func(configuration *callConfiguration)

type callConfiguration struct {
	requestOptions         []execshell.RequestOption
	standardOutputHandlers []func(text string)
	standardErrorHandlers  []func(text string)
}

// WithWorkingDirectory runs the command from workingDirectory.
func WithWorkingDirectory(workingDirectory string) Option {
	return func(configuration *callConfiguration) {
		configuration.requestOptions = append(configuration.requestOptions, execshell.WithWorkingDirectory(workingDirectory))
	}
}

// WithEnvironment replaces the child environment. A nil map inherits the shell's environment.
func WithEnvironment(environment map[string]string) Option {
	return func(configuration *callConfiguration) {
		configuration.requestOptions = append(configuration.requestOptions, execshell.WithEnvironment(environment))
	}
}

// WithTerminateOnParentExit binds or detaches the child from the parent's lifetime.
func WithTerminateOnParentExit(enabled bool) Option {
	return func(configuration *callConfiguration) {
		configuration.requestOptions = append(configuration.requestOptions, execshell.WithTerminateOnParentExit(enabled))
	}
}

// WithStandardOutputHandler receives decoded standard output text as it arrives.
func WithStandardOutputHandler(handler func(text string)) Option {
	return func(configuration *callConfiguration) {
		if handler == nil {
			return
		}
		configuration.standardOutputHandlers = append(configuration.standardOutputHandlers, handler)
	}
}

// WithStandardErrorHandler receives decoded standard error text as it arrives.
func WithStandardErrorHandler(handler func(text string)) Option {
	return func(configuration *callConfiguration) {
		if handler == nil {
			return
		}
		configuration.standardErrorHandlers = append(configuration.standardErrorHandlers, handler)
	}
}

func newCallConfiguration(options []Option) *callConfiguration {
	configuration := &callConfiguration{}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(configuration)
	}
	return configuration
}

func (configuration *callConfiguration) buildRequest(command []string) execshell.ExecutionRequest {
	return execshell.NewExecutionRequest(command, configuration.requestOptions...)
}

// outputHandlers wires per-stream decoders in front of the text handlers. The returned flush function
// must run after the last chunk was delivered and before the terminal result is published.
func (configuration *callConfiguration) outputHandlers() (execshell.OutputHandlers, func()) {
	standardOutputDecoder := newChunkDecoder()
	standardErrorDecoder := newChunkDecoder()

	handlers := execshell.OutputHandlers{
		OnStandardOutput: func(data []byte) {
			dispatchText(configuration.standardOutputHandlers, standardOutputDecoder.decode(data, false))
		},
		OnStandardError: func(data []byte) {
			dispatchText(configuration.standardErrorHandlers, standardErrorDecoder.decode(data, false))
		},
	}
	flush := func() {
		dispatchText(configuration.standardOutputHandlers, standardOutputDecoder.flush())
		dispatchText(configuration.standardErrorHandlers, standardErrorDecoder.flush())
	}
	return handlers, flush
}

func dispatchText(handlers []func(text string), text string) {
	if len(text) == 0 {
		return
	}
	for _, handler := range handlers {
		handler(text)
	}
}
