package shelltest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	stubFilePathRequiredMessageConstant = "stub file path must be provided"
	stubFileLoadErrorTemplateConstant   = "failed to load stub file: %w"
	stubFileParseErrorTemplateConstant  = "failed to parse stub file: %w"
	stubCommandMissingTemplateConstant  = "stub %d missing command"
)

// StubFile is the YAML representation of a set of stubs.
type StubFile struct {
	Stubs []StubDefinition `yaml:"stubs"`
}

// StubDefinition describes one stub. Omitting terminate_on_parent_exit matches bound requests.
type StubDefinition struct {
	Command               []string          `yaml:"command"`
	TerminateOnParentExit *bool             `yaml:"terminate_on_parent_exit"`
	WorkingDirectory      string            `yaml:"working_directory"`
	Environment           map[string]string `yaml:"environment"`
	StandardOutput        []string          `yaml:"stdout"`
	StandardError         []string          `yaml:"stderr"`
	ExitCode              int               `yaml:"exit_code"`
	Signal                int               `yaml:"signal"`
}

func (definition StubDefinition) options() []StubOption {
	options := []StubOption{
		MatchWorkingDirectory(definition.WorkingDirectory),
		ReplayStandardOutput(definition.StandardOutput...),
		ReplayStandardError(definition.StandardError...),
		ReplayExitCode(definition.ExitCode),
	}
	if definition.TerminateOnParentExit != nil {
		options = append(options, MatchTerminateOnParentExit(*definition.TerminateOnParentExit))
	}
	if definition.Environment != nil {
		options = append(options, MatchEnvironment(definition.Environment))
	}
	if definition.Signal != 0 {
		options = append(options, ReplaySignal(definition.Signal))
	}
	return options
}

// ParseStubFile decodes and validates stub definitions from YAML content.
func ParseStubFile(content []byte) (StubFile, error) {
	var stubFile StubFile
	if unmarshalError := yaml.Unmarshal(content, &stubFile); unmarshalError != nil {
		return StubFile{}, fmt.Errorf(stubFileParseErrorTemplateConstant, unmarshalError)
	}
	for definitionIndex := range stubFile.Stubs {
		if len(stubFile.Stubs[definitionIndex].Command) == 0 || len(stubFile.Stubs[definitionIndex].Command[0]) == 0 {
			return StubFile{}, fmt.Errorf(stubFileParseErrorTemplateConstant, fmt.Errorf(stubCommandMissingTemplateConstant, definitionIndex))
		}
	}
	return stubFile, nil
}

// LoadFile registers every stub defined in the YAML file at filePath.
func (runner *StubRunner) LoadFile(filePath string) error {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return errors.New(stubFilePathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return fmt.Errorf(stubFileLoadErrorTemplateConstant, readError)
	}

	stubFile, parseError := ParseStubFile(contentBytes)
	if parseError != nil {
		return parseError
	}
	for _, definition := range stubFile.Stubs {
		runner.Stub(definition.Command, definition.options()...)
	}
	return nil
}

// LoadStubs builds a StubRunner populated from the YAML file at filePath.
func LoadStubs(filePath string) (*StubRunner, error) {
	runner := NewStubRunner()
	if loadError := runner.LoadFile(filePath); loadError != nil {
		return nil, loadError
	}
	return runner, nil
}
