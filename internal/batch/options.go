package batch

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/temirov/procshell/internal/execshell"
)

const (
	stepOptionsDecodeErrorTemplateConstant = "invalid options for batch step %s: %w"
	stepOptionsTagNameConstant             = "mapstructure"
)

// StepOptions are the recognised keys of a step's "with" mapping.
type StepOptions struct {
	WorkingDirectory      string            `mapstructure:"working_directory"`
	Environment           map[string]string `mapstructure:"environment"`
	TerminateOnParentExit *bool             `mapstructure:"terminate_on_parent_exit"`
	Capture               bool              `mapstructure:"capture"`
	AllowFailure          bool              `mapstructure:"allow_failure"`
}

// Step is a validated, executable batch step.
type Step struct {
	Name    string
	Command execshell.Command
	Options StepOptions
}

// BuildSteps converts the declarative plan into executable steps.
func BuildSteps(plan Plan) ([]Step, error) {
	steps := make([]Step, 0, len(plan.Steps))
	for stepIndex := range plan.Steps {
		step, buildError := buildStep(plan.Steps[stepIndex])
		if buildError != nil {
			return nil, buildError
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func buildStep(configuration StepConfiguration) (Step, error) {
	command := append(execshell.Command{}, configuration.Command...)
	stepName := configuration.Name
	if len(stepName) == 0 {
		stepName = command.String()
	}

	options, decodeError := decodeStepOptions(configuration.Options)
	if decodeError != nil {
		return Step{}, fmt.Errorf(stepOptionsDecodeErrorTemplateConstant, stepName, decodeError)
	}
	return Step{Name: stepName, Command: command, Options: options}, nil
}

func decodeStepOptions(rawOptions map[string]any) (StepOptions, error) {
	var options StepOptions
	if len(rawOptions) == 0 {
		return options, nil
	}

	normalizedOptions := make(map[string]any, len(rawOptions))
	for optionKey, optionValue := range rawOptions {
		normalizedOptions[strings.ToLower(strings.TrimSpace(optionKey))] = optionValue
	}

	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &options,
		TagName:          stepOptionsTagNameConstant,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if decoderError != nil {
		return StepOptions{}, decoderError
	}
	if decodeError := decoder.Decode(normalizedOptions); decodeError != nil {
		return StepOptions{}, decodeError
	}
	options.WorkingDirectory = strings.TrimSpace(options.WorkingDirectory)
	return options, nil
}
