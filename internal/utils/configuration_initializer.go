package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configurationFileExtensionConstant          = ".yaml"
	configurationDirectoryPermissionsConstant   = 0o755
	configurationFilePermissionsConstant        = 0o600
	yamlIndentationConstant                     = 2
	unsupportedInitializationScopeTemplate      = "unsupported configuration scope %q (expected local or user)"
	configurationExistsTemplateConstant         = "%w: %s (use --force to overwrite)"
	configurationEncodeErrorTemplateConstant    = "unable to encode configuration: %w"
	configurationDirectoryErrorTemplateConstant = "unable to create configuration directory %s: %w"
	configurationWriteErrorTemplateConstant     = "unable to write configuration file %s: %w"
	userConfigurationDirectoryErrorTemplate     = "unable to resolve user configuration directory: %w"
	workingDirectoryResolutionErrorTemplate     = "unable to resolve working directory: %w"
	configurationInspectErrorTemplateConstant   = "unable to inspect configuration file %s: %w"
	initializationScopeLocalStringConstant      = "local"
	initializationScopeUserStringConstant       = "user"
	configurationExistsMessageConstant          = "configuration file already exists"
)

// InitializationScope selects where --init writes the configuration file.
type InitializationScope string

// Supported initialization scopes.
const (
	InitializationScopeLocal InitializationScope = InitializationScope(initializationScopeLocalStringConstant)
	InitializationScopeUser  InitializationScope = InitializationScope(initializationScopeUserStringConstant)
)

// ErrConfigurationExists indicates the target file exists and overwriting was not requested.
var ErrConfigurationExists = errors.New(configurationExistsMessageConstant)

// ParseInitializationScope converts user input into an InitializationScope.
func ParseInitializationScope(rawScope string) (InitializationScope, error) {
	switch InitializationScope(strings.ToLower(strings.TrimSpace(rawScope))) {
	case InitializationScopeLocal:
		return InitializationScopeLocal, nil
	case InitializationScopeUser:
		return InitializationScopeUser, nil
	default:
		return "", fmt.Errorf(unsupportedInitializationScopeTemplate, rawScope)
	}
}

// ConfigurationInitializer writes default configuration files.
type ConfigurationInitializer struct {
	ApplicationName             string
	WorkingDirectoryProvider    func() (string, error)
	UserConfigDirectoryProvider func() (string, error)
}

// NewConfigurationInitializer constructs an initializer using the process working directory and os.UserConfigDir.
func NewConfigurationInitializer(applicationName string) *ConfigurationInitializer {
	return &ConfigurationInitializer{
		ApplicationName:             applicationName,
		WorkingDirectoryProvider:    os.Getwd,
		UserConfigDirectoryProvider: os.UserConfigDir,
	}
}

// ResolvePath returns the configuration file path for the requested scope.
func (initializer *ConfigurationInitializer) ResolvePath(scope InitializationScope) (string, error) {
	configurationFileName := initializer.ApplicationName + configurationFileExtensionConstant
	switch scope {
	case InitializationScopeLocal:
		workingDirectory, workingDirectoryError := initializer.WorkingDirectoryProvider()
		if workingDirectoryError != nil {
			return "", fmt.Errorf(workingDirectoryResolutionErrorTemplate, workingDirectoryError)
		}
		return filepath.Join(workingDirectory, configurationFileName), nil
	case InitializationScopeUser:
		userConfigurationDirectory, userDirectoryError := initializer.UserConfigDirectoryProvider()
		if userDirectoryError != nil {
			return "", fmt.Errorf(userConfigurationDirectoryErrorTemplate, userDirectoryError)
		}
		return filepath.Join(userConfigurationDirectory, initializer.ApplicationName, configurationFileName), nil
	default:
		return "", fmt.Errorf(unsupportedInitializationScopeTemplate, scope)
	}
}

// Initialize encodes configuration as YAML and writes it for the requested scope, returning the written path.
func (initializer *ConfigurationInitializer) Initialize(scope InitializationScope, overwrite bool, configuration any) (string, error) {
	configurationPath, resolveError := initializer.ResolvePath(scope)
	if resolveError != nil {
		return "", resolveError
	}

	if !overwrite {
		_, statError := os.Stat(configurationPath)
		if statError == nil {
			return "", fmt.Errorf(configurationExistsTemplateConstant, ErrConfigurationExists, configurationPath)
		}
		if !errors.Is(statError, os.ErrNotExist) {
			return "", fmt.Errorf(configurationInspectErrorTemplateConstant, configurationPath, statError)
		}
	}

	var encodedConfiguration strings.Builder
	encoder := yaml.NewEncoder(&encodedConfiguration)
	encoder.SetIndent(yamlIndentationConstant)
	if encodeError := encoder.Encode(configuration); encodeError != nil {
		return "", fmt.Errorf(configurationEncodeErrorTemplateConstant, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return "", fmt.Errorf(configurationEncodeErrorTemplateConstant, closeError)
	}

	configurationDirectory := filepath.Dir(configurationPath)
	if mkdirError := os.MkdirAll(configurationDirectory, configurationDirectoryPermissionsConstant); mkdirError != nil {
		return "", fmt.Errorf(configurationDirectoryErrorTemplateConstant, configurationDirectory, mkdirError)
	}
	if writeError := os.WriteFile(configurationPath, []byte(encodedConfiguration.String()), configurationFilePermissionsConstant); writeError != nil {
		return "", fmt.Errorf(configurationWriteErrorTemplateConstant, configurationPath, writeError)
	}

	return configurationPath, nil
}
