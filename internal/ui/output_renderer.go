package ui

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/temirov/procshell/internal/execshell"
	"github.com/temirov/procshell/internal/shell"
)

const (
	streamPrefixTemplateConstant = "%s | "
	lineTerminatorConstant       = "\n"
)

// RendererOption customizes console rendering.
type RendererOption func(settings *renderSettings)

type renderSettings struct {
	colorOverride *bool
}

// WithColor forces colored output on or off regardless of terminal detection.
func WithColor(enabled bool) RendererOption {
	return func(settings *renderSettings) {
		settings.colorOverride = &enabled
	}
}

// resolveColorize applies options over terminal detection of writer.
func resolveColorize(writer io.Writer, options []RendererOption) bool {
	settings := &renderSettings{}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(settings)
	}
	if settings.colorOverride != nil {
		return *settings.colorOverride
	}
	return IsTerminal(writer)
}

func applyColorMode(enabled bool, colors ...*color.Color) {
	for _, consoleColor := range colors {
		if enabled {
			consoleColor.EnableColor()
			continue
		}
		consoleColor.DisableColor()
	}
}

// OutputRenderer writes decoded process output to the console. Standard error is colored when the
// error writer is a terminal. It is safe for concurrent use.
type OutputRenderer struct {
	mutex              sync.Mutex
	output             io.Writer
	errors             io.Writer
	standardErrorColor *color.Color
	prefixColor        *color.Color
	pendingLines       map[execshell.OutputStream]string
}

// NewOutputRenderer constructs a renderer writing standard output text to output and standard error
// text to errors.
func NewOutputRenderer(output io.Writer, errors io.Writer, options ...RendererOption) *OutputRenderer {
	if output == nil {
		output = io.Discard
	}
	if errors == nil {
		errors = io.Discard
	}

	renderer := &OutputRenderer{
		output:             output,
		errors:             errors,
		standardErrorColor: color.New(color.FgRed),
		prefixColor:        color.New(color.Faint),
		pendingLines:       make(map[execshell.OutputStream]string),
	}
	applyColorMode(resolveColorize(errors, options), renderer.standardErrorColor, renderer.prefixColor)
	return renderer
}

// IsTerminal reports whether writer is a file attached to a terminal.
func IsTerminal(writer io.Writer) bool {
	file, isFile := writer.(*os.File)
	if !isFile || file == nil {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// WriteStandardOutput passes standard output text through unchanged.
func (renderer *OutputRenderer) WriteStandardOutput(text string) {
	renderer.mutex.Lock()
	defer renderer.mutex.Unlock()
	_, _ = io.WriteString(renderer.output, text)
}

// WriteStandardError writes standard error text, colored when enabled.
func (renderer *OutputRenderer) WriteStandardError(text string) {
	renderer.mutex.Lock()
	defer renderer.mutex.Unlock()
	_, _ = renderer.standardErrorColor.Fprint(renderer.errors, text)
}

// RenderEvent writes complete lines of event to the output writer, prefixed with the stream name.
// Partial lines are held back until their terminator arrives or Flush is called.
func (renderer *OutputRenderer) RenderEvent(event shell.Event) {
	renderer.mutex.Lock()
	defer renderer.mutex.Unlock()

	buffered := renderer.pendingLines[event.Stream] + event.Text
	for {
		line, remainder, terminated := strings.Cut(buffered, lineTerminatorConstant)
		if !terminated {
			break
		}
		renderer.writePrefixedLine(event.Stream, line)
		buffered = remainder
	}
	renderer.pendingLines[event.Stream] = buffered
}

// Flush writes any held back partial lines.
func (renderer *OutputRenderer) Flush() {
	renderer.mutex.Lock()
	defer renderer.mutex.Unlock()

	for _, outputStream := range []execshell.OutputStream{execshell.StandardOutputStream, execshell.StandardErrorStream} {
		pendingLine := renderer.pendingLines[outputStream]
		if len(pendingLine) == 0 {
			continue
		}
		renderer.writePrefixedLine(outputStream, pendingLine)
		delete(renderer.pendingLines, outputStream)
	}
}

func (renderer *OutputRenderer) writePrefixedLine(outputStream execshell.OutputStream, line string) {
	_, _ = renderer.prefixColor.Fprintf(renderer.output, streamPrefixTemplateConstant, string(outputStream))
	if outputStream == execshell.StandardErrorStream {
		_, _ = renderer.standardErrorColor.Fprint(renderer.output, line)
	} else {
		_, _ = io.WriteString(renderer.output, line)
	}
	_, _ = io.WriteString(renderer.output, lineTerminatorConstant)
}
