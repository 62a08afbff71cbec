package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/temirov/procshell/internal/batch"
)

const (
	stepStartedTemplateConstant   = "==> [%d] %s\n"
	stepSucceededTemplateConstant = "ok   [%d] %s (%s)\n"
	stepFailedTemplateConstant    = "FAIL [%d] %s (%s): %s\n"
	stepDurationPrecisionConstant = time.Millisecond
)

// BatchStepReporter prints batch progress. It implements batch.StepObserver.
type BatchStepReporter struct {
	writer       io.Writer
	successColor *color.Color
	failureColor *color.Color
}

// NewBatchStepReporter constructs a reporter writing to writer. Colors follow terminal detection.
func NewBatchStepReporter(writer io.Writer, options ...RendererOption) *BatchStepReporter {
	if writer == nil {
		writer = io.Discard
	}
	reporter := &BatchStepReporter{
		writer:       writer,
		successColor: color.New(color.FgGreen),
		failureColor: color.New(color.FgRed),
	}
	applyColorMode(resolveColorize(writer, options), reporter.successColor, reporter.failureColor)
	return reporter
}

// StepStarted announces the step.
func (reporter *BatchStepReporter) StepStarted(index int, step batch.Step) {
	_, _ = fmt.Fprintf(reporter.writer, stepStartedTemplateConstant, index+1, step.Name)
}

// StepFinished prints the step result.
func (reporter *BatchStepReporter) StepFinished(index int, report batch.StepReport) {
	duration := report.Duration.Round(stepDurationPrecisionConstant)
	if report.Succeeded() {
		_, _ = reporter.successColor.Fprintf(reporter.writer, stepSucceededTemplateConstant, index+1, report.Step.Name, duration)
		return
	}
	_, _ = reporter.failureColor.Fprintf(reporter.writer, stepFailedTemplateConstant, index+1, report.Step.Name, duration, report.Failure)
}
