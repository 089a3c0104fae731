package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	choiceFlagTypeConstant            = "string"
	choiceSeparatorConstant           = "|"
	choicePlaceholderTemplateConstant = "`<%s>`"
	choiceInvalidValueTemplate        = "invalid value %q (expected one of %s)"
)

// AddChoiceFlag registers a string flag restricted to the listed choices.
// Values are matched case-insensitively and stored in their listed spelling.
// The target keeps its current value until the operator sets the flag, so an
// empty target lets callers tell "not provided" apart from the highlighted default.
func AddChoiceFlag(flagSet *pflag.FlagSet, target *string, name string, defaultChoice string, choices []string, description string) {
	if flagSet == nil || target == nil || len(name) == 0 {
		return
	}

	value := &choiceFlagValue{target: target, choices: uniqueChoices(choices)}
	flagSet.Var(value, name, choiceUsage(defaultChoice, value.choices, description))
}

type choiceFlagValue struct {
	target  *string
	choices []string
}

func (value *choiceFlagValue) Set(rawValue string) error {
	trimmedValue := strings.TrimSpace(rawValue)
	for _, choice := range value.choices {
		if strings.EqualFold(choice, trimmedValue) {
			*value.target = choice
			return nil
		}
	}
	return fmt.Errorf(choiceInvalidValueTemplate, rawValue, strings.Join(value.choices, choiceSeparatorConstant))
}

func (value *choiceFlagValue) String() string {
	if value == nil || value.target == nil {
		return ""
	}
	return *value.target
}

func (value *choiceFlagValue) Type() string {
	return choiceFlagTypeConstant
}

// choiceUsage renders the choices as a placeholder with the default capitalized, e.g. `<LOCAL|user>`.
func choiceUsage(defaultChoice string, choices []string, description string) string {
	displayed := make([]string, 0, len(choices))
	for _, choice := range choices {
		if strings.EqualFold(choice, strings.TrimSpace(defaultChoice)) {
			choice = strings.ToUpper(choice)
		}
		displayed = append(displayed, choice)
	}

	placeholder := fmt.Sprintf(choicePlaceholderTemplateConstant, strings.Join(displayed, choiceSeparatorConstant))
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return placeholder
	}
	return placeholder + " " + trimmedDescription
}

func uniqueChoices(choices []string) []string {
	unique := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := strings.ToLower(trimmedChoice)
		if len(trimmedChoice) == 0 {
			continue
		}
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}
		seen[normalizedChoice] = struct{}{}
		unique = append(unique, trimmedChoice)
	}
	return unique
}
