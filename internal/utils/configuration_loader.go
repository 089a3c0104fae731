package utils

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	configurationKeyNestingSeparatorConstant = "."
	environmentNameSeparatorConstant         = "_"
	listValueSeparatorConstant               = ","
	configurationReadErrorTemplateConstant   = "failed to read configuration: %w"
	configurationDecodeErrorTemplateConstant = "failed to parse configuration: %w"
)

// ConfigurationLoader layers settings in increasing precedence: defaults, the first configuration file found, then
// PREFIX_SECTION_KEY environment variables. List settings read from the environment are comma separated.
type ConfigurationLoader struct {
	fileName          string
	fileType          string
	environmentPrefix string
	searchPaths       []string
}

// LoadedConfiguration describes where the loaded values came from.
type LoadedConfiguration struct {
	ConfigFileUsed string
	// EnvironmentOverrides lists the configuration keys, sorted, whose value was supplied by an environment variable.
	EnvironmentOverrides []string
}

// NewConfigurationLoader creates a loader that looks for fileName.fileType in each search path in order.
func NewConfigurationLoader(fileName string, fileType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		fileName:          fileName,
		fileType:          fileType,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string(nil), searchPaths...),
	}
}

// EnvironmentVariableName returns the variable that overrides configurationKey, e.g. merge.notes_refspec becomes
// TFSMERGE_MERGE_NOTES_REFSPEC.
func (loader *ConfigurationLoader) EnvironmentVariableName(configurationKey string) string {
	variableName := strings.ToUpper(strings.ReplaceAll(configurationKey, configurationKeyNestingSeparatorConstant, environmentNameSeparatorConstant))
	if len(loader.environmentPrefix) == 0 {
		return variableName
	}
	return strings.ToUpper(loader.environmentPrefix) + environmentNameSeparatorConstant + variableName
}

// LoadConfiguration decodes the layered settings into targetConfiguration. An explicit configurationFilePath must exist;
// when it is empty a missing file in every search path is not an error.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := loader.newViper(defaultValues)
	if len(configurationFilePath) > 0 {
		if _, statError := os.Stat(configurationFilePath); statError != nil {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, statError)
		}
		viperInstance.SetConfigFile(configurationFilePath)
	}

	if readError := viperInstance.ReadInConfig(); readError != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(readError, &notFoundError) {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, readError)
		}
	}

	decodeHooks := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(listValueSeparatorConstant),
	)
	if decodeError := viperInstance.Unmarshal(targetConfiguration, viper.DecodeHook(decodeHooks)); decodeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationDecodeErrorTemplateConstant, decodeError)
	}

	return LoadedConfiguration{
		ConfigFileUsed:       viperInstance.ConfigFileUsed(),
		EnvironmentOverrides: loader.environmentOverrides(defaultValues),
	}, nil
}

func (loader *ConfigurationLoader) newViper(defaultValues map[string]any) *viper.Viper {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.fileName)
	viperInstance.SetConfigType(loader.fileType)
	for _, searchPath := range loader.searchPaths {
		viperInstance.AddConfigPath(searchPath)
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(configurationKeyNestingSeparatorConstant, environmentNameSeparatorConstant))
	viperInstance.AutomaticEnv()

	for configurationKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(configurationKey, defaultValue)
	}
	return viperInstance
}

// environmentOverrides only inspects keys that carry a default.
func (loader *ConfigurationLoader) environmentOverrides(defaultValues map[string]any) []string {
	overriddenKeys := []string{}
	for configurationKey := range defaultValues {
		if _, present := os.LookupEnv(loader.EnvironmentVariableName(configurationKey)); present {
			overriddenKeys = append(overriddenKeys, configurationKey)
		}
	}
	sort.Strings(overriddenKeys)
	return overriddenKeys
}
