package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	toggleTrueCanonicalValue               = "true"
	toggleFalseCanonicalValue              = "false"
	toggleValueTypeConstant                = "bool"
	toggleParseErrorTemplate               = "invalid toggle value %q"
	toggleArgumentTruePlaceholderConstant  = "<YES|no>"
	toggleArgumentFalsePlaceholderConstant = "<yes|NO>"
	toggleUsageEmptyTemplateConstant       = "`%s`"
	toggleUsageFullTemplateConstant        = "`%s` %s"
	argumentTerminatorConstant             = "--"
	longFlagPrefixConstant                 = "--"
	shortFlagPrefixConstant                = "-"
	flagValueSeparatorConstant             = "="
)

var (
	toggleLiterals = map[string]bool{
		"true":  true,
		"yes":   true,
		"on":    true,
		"1":     true,
		"t":     true,
		"y":     true,
		"false": false,
		"no":    false,
		"off":   false,
		"0":     false,
		"f":     false,
		"n":     false,
	}
)

// AddToggleFlag registers a boolean flag accepting yes/no style values. A bare flag means true, and
// "--flag no" is accepted once the arguments went through NormalizeToggleArguments.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	flagSet.VarP(newToggleValue(defaultValue, target), name, shorthand, usage)
	flag := flagSet.Lookup(name)
	if flag == nil {
		return
	}
	flag.NoOptDefVal = toggleTrueCanonicalValue
	flag.Usage = formatToggleUsage(usage, defaultValue)
}

// NormalizeToggleArguments joins "--flag value" into "--flag=value" for toggle flags of rootCommand and
// of the subcommands named in arguments when the next argument is a toggle literal. Normalization stops
// at "--" and at the first positional argument that does not name a subcommand, so the arguments of a
// launched program are never rewritten.
func NormalizeToggleArguments(rootCommand *cobra.Command, arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	normalized := make([]string, 0, len(arguments))
	currentCommand := rootCommand
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		currentArgument := arguments[argumentIndex]
		if !isFlagArgument(currentArgument) {
			subcommand := findSubcommand(currentCommand, currentArgument)
			if subcommand == nil {
				return append(normalized, arguments[argumentIndex:]...)
			}
			currentCommand = subcommand
			normalized = append(normalized, currentArgument)
			continue
		}

		flag := lookupFlag(currentCommand, currentArgument)
		hasNextArgument := argumentIndex+1 < len(arguments)
		switch {
		case flag == nil || !hasNextArgument || strings.Contains(currentArgument, flagValueSeparatorConstant):
			normalized = append(normalized, currentArgument)
		case isToggleFlag(flag):
			if !isToggleLiteral(arguments[argumentIndex+1]) {
				normalized = append(normalized, currentArgument)
				continue
			}
			normalized = append(normalized, currentArgument+flagValueSeparatorConstant+arguments[argumentIndex+1])
			argumentIndex++
		case len(flag.NoOptDefVal) == 0:
			normalized = append(normalized, currentArgument, arguments[argumentIndex+1])
			argumentIndex++
		default:
			normalized = append(normalized, currentArgument)
		}
	}
	return normalized
}

// isFlagArgument reports whether argument is parsed as a flag. "--" and a lone "-" are positional here.
func isFlagArgument(argument string) bool {
	if argument == argumentTerminatorConstant || argument == shortFlagPrefixConstant {
		return false
	}
	return strings.HasPrefix(argument, shortFlagPrefixConstant)
}

func findSubcommand(command *cobra.Command, name string) *cobra.Command {
	if command == nil || name == argumentTerminatorConstant {
		return nil
	}
	for _, subcommand := range command.Commands() {
		if subcommand.Name() == name || subcommand.HasAlias(name) {
			return subcommand
		}
	}
	return nil
}

// lookupFlag resolves argument against the local flags of command and the persistent flags of command
// and its parents. Combined shorthands such as "-abc" are not resolved.
func lookupFlag(command *cobra.Command, argument string) *pflag.Flag {
	if command == nil {
		return nil
	}

	flagName, _, _ := strings.Cut(argument, flagValueSeparatorConstant)
	longForm := strings.HasPrefix(flagName, longFlagPrefixConstant)
	if longForm {
		flagName = strings.TrimPrefix(flagName, longFlagPrefixConstant)
	} else {
		flagName = strings.TrimPrefix(flagName, shortFlagPrefixConstant)
		if len(flagName) != 1 {
			return nil
		}
	}

	flagSets := []*pflag.FlagSet{command.Flags()}
	for ancestor := command; ancestor != nil; ancestor = ancestor.Parent() {
		flagSets = append(flagSets, ancestor.PersistentFlags())
	}
	for _, flagSet := range flagSets {
		var flag *pflag.Flag
		if longForm {
			flag = flagSet.Lookup(flagName)
		} else {
			flag = flagSet.ShorthandLookup(flagName)
		}
		if flag != nil {
			return flag
		}
	}
	return nil
}

func isToggleFlag(flag *pflag.Flag) bool {
	_, isToggle := flag.Value.(*toggleValue)
	return isToggle
}

type toggleValue struct {
	currentValue bool
	target       *bool
}

func newToggleValue(defaultValue bool, target *bool) *toggleValue {
	if target != nil {
		*target = defaultValue
	}
	return &toggleValue{currentValue: defaultValue, target: target}
}

func (value *toggleValue) Set(rawValue string) error {
	parsedValue, parseError := parseToggleValue(rawValue)
	if parseError != nil {
		return parseError
	}

	value.currentValue = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}
	return nil
}

func (value *toggleValue) String() string {
	if value != nil && value.currentValue {
		return toggleTrueCanonicalValue
	}
	return toggleFalseCanonicalValue
}

func (value *toggleValue) Type() string {
	return toggleValueTypeConstant
}

func parseToggleValue(rawValue string) (bool, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		return true, nil
	}
	parsedValue, recognized := toggleLiterals[normalizedValue]
	if !recognized {
		return false, fmt.Errorf(toggleParseErrorTemplate, rawValue)
	}
	return parsedValue, nil
}

func formatToggleUsage(description string, defaultValue bool) string {
	placeholder := toggleArgumentFalsePlaceholderConstant
	if defaultValue {
		placeholder = toggleArgumentTruePlaceholderConstant
	}
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(toggleUsageEmptyTemplateConstant, placeholder)
	}
	return fmt.Sprintf(toggleUsageFullTemplateConstant, placeholder, trimmedDescription)
}

func isToggleLiteral(argument string) bool {
	_, recognized := toggleLiterals[strings.ToLower(strings.TrimSpace(argument))]
	return recognized
}
