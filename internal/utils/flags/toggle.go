package flags

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

const (
	toggleTrueCanonicalValue       = "true"
	toggleFalseCanonicalValue      = "false"
	toggleFlagTypeConstant         = "bool"
	toggleParseErrorTemplate       = "invalid toggle value %q"
	toggleUsageTemplateConstant    = "`%s` %s"
	toggleDefaultTruePlaceholder   = "<YES|no>"
	toggleDefaultFalsePlaceholder  = "<yes|NO>"
	longFlagPrefixConstant         = "--"
	shortFlagPrefixConstant        = "-"
	flagValueAssignmentConstant    = "="
	argumentTerminatorFlagConstant = "--"
)

var toggleLiterals = map[string]bool{
	"true":  true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"t":     true,
	"1":     true,
	"false": false,
	"no":    false,
	"n":     false,
	"off":   false,
	"f":     false,
	"0":     false,
}

// toggleSpellings records every "--name" and "-x" spelling of a registered toggle.
type toggleSpellings struct {
	mutex     sync.RWMutex
	spellings map[string]struct{}
}

var registeredToggles = &toggleSpellings{spellings: map[string]struct{}{}}

func (registry *toggleSpellings) register(name string, shorthand string) {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	registry.spellings[longFlagPrefixConstant+name] = struct{}{}
	if len(shorthand) > 0 {
		registry.spellings[shortFlagPrefixConstant+shorthand] = struct{}{}
	}
}

func (registry *toggleSpellings) contains(argument string) bool {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()
	_, registered := registry.spellings[argument]
	return registered
}

// AddToggleFlag registers a boolean flag that also accepts yes/no, on/off and similar values.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	value := &toggleFlagValue{currentValue: defaultValue, target: target}
	if target != nil {
		*target = defaultValue
	}
	flagSet.VarP(value, name, shorthand, toggleUsage(usage, defaultValue))
	flagSet.Lookup(name).NoOptDefVal = toggleTrueCanonicalValue

	registeredToggles.register(name, shorthand)
}

// NormalizeToggleArguments joins a registered toggle with a following yes/no literal,
// turning "--keep-branch no" into "--keep-branch=no". Any other following argument,
// such as a branch name, stays positional. Arguments after "--" are left alone.
func NormalizeToggleArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == argumentTerminatorFlagConstant {
			normalized = append(normalized, arguments[index:]...)
			break
		}

		if registeredToggles.contains(argument) && index+1 < len(arguments) {
			if _, isLiteral := parseToggleLiteral(arguments[index+1]); isLiteral {
				normalized = append(normalized, argument+flagValueAssignmentConstant+arguments[index+1])
				index++
				continue
			}
		}
		normalized = append(normalized, argument)
	}
	return normalized
}

type toggleFlagValue struct {
	currentValue bool
	target       *bool
}

func (value *toggleFlagValue) Set(rawValue string) error {
	trimmedValue := strings.TrimSpace(rawValue)
	if len(trimmedValue) == 0 {
		trimmedValue = toggleTrueCanonicalValue
	}
	parsedValue, isLiteral := parseToggleLiteral(trimmedValue)
	if !isLiteral {
		return fmt.Errorf(toggleParseErrorTemplate, rawValue)
	}

	value.currentValue = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}
	return nil
}

func (value *toggleFlagValue) String() string {
	if value != nil && value.currentValue {
		return toggleTrueCanonicalValue
	}
	return toggleFalseCanonicalValue
}

func (value *toggleFlagValue) Type() string {
	return toggleFlagTypeConstant
}

func parseToggleLiteral(rawValue string) (bool, bool) {
	parsedValue, isLiteral := toggleLiterals[strings.ToLower(strings.TrimSpace(rawValue))]
	return parsedValue, isLiteral
}

func toggleUsage(description string, defaultValue bool) string {
	placeholder := toggleDefaultFalsePlaceholder
	if defaultValue {
		placeholder = toggleDefaultTruePlaceholder
	}
	return strings.TrimSpace(fmt.Sprintf(toggleUsageTemplateConstant, placeholder, strings.TrimSpace(description)))
}
