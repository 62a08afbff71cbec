package batch

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	planLoadErrorTemplateConstant          = "failed to load batch plan: %w"
	planParseErrorTemplateConstant         = "failed to parse batch plan: %w"
	planPathRequiredMessageConstant        = "batch plan path must be provided"
	planEmptyStepsMessageConstant          = "batch plan must define at least one step"
	planStepCommandMissingTemplateConstant = "batch step %d missing command"
)

// Plan describes the ordered batch steps loaded from YAML.
type Plan struct {
	Steps []StepConfiguration `yaml:"steps" json:"steps"`
}

// StepConfiguration associates a command with declarative options.
type StepConfiguration struct {
	Name    string         `yaml:"name" json:"name"`
	Command []string       `yaml:"command" json:"command"`
	Options map[string]any `yaml:"with" json:"with"`
}

// LoadPlan reads a batch plan from disk and performs basic validation.
func LoadPlan(filePath string) (Plan, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Plan{}, errors.New(planPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Plan{}, fmt.Errorf(planLoadErrorTemplateConstant, readError)
	}
	return ParsePlan(contentBytes)
}

// ParsePlan decodes plan content. Plans may be written at the top level or nested under a batch key.
func ParsePlan(content []byte) (Plan, error) {
	var plan Plan
	if unmarshalError := yaml.Unmarshal(content, &plan); unmarshalError != nil {
		return Plan{}, fmt.Errorf(planParseErrorTemplateConstant, unmarshalError)
	}

	if len(plan.Steps) == 0 {
		var wrapper struct {
			Batch Plan `yaml:"batch" json:"batch"`
		}
		if nestedError := yaml.Unmarshal(content, &wrapper); nestedError == nil && len(wrapper.Batch.Steps) > 0 {
			plan = wrapper.Batch
		}
	}

	if len(plan.Steps) == 0 {
		return Plan{}, errors.New(planEmptyStepsMessageConstant)
	}

	for stepIndex := range plan.Steps {
		command := plan.Steps[stepIndex].Command
		if len(command) == 0 || len(strings.TrimSpace(command[0])) == 0 {
			return Plan{}, fmt.Errorf(planStepCommandMissingTemplateConstant, stepIndex+1)
		}
		plan.Steps[stepIndex].Name = strings.TrimSpace(plan.Steps[stepIndex].Name)
	}

	return plan, nil
}
