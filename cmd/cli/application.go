package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/tfs-merge/internal/merge"
	"github.com/temirov/tfs-merge/internal/utils"
	flagutils "github.com/temirov/tfs-merge/internal/utils/flags"
	pathutils "github.com/temirov/tfs-merge/internal/utils/path"
)

const (
	applicationNameConstant                 = "tfs-merge"
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagDescriptionConstant         = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagDescriptionConstant        = "Override the configured log format."
	logFileFlagNameConstant                 = "log-file"
	logFileFlagUsageConstant                = "Also write diagnostic logs to a rotating file."
	initFlagNameConstant                    = "init"
	initFlagDescriptionConstant             = "Write a default configuration file and exit."
	forceFlagNameConstant                   = "force"
	forceFlagUsageConstant                  = "Overwrite an existing configuration file when used with --init."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	commonLogFileConfigKeyConstant          = commonConfigurationKeyConstant + ".log_file"
	mergeConfigurationKeyConstant           = "merge"
	environmentPrefixConstant               = "TFSMERGE"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationEnvironmentFieldConstant   = "environment_overrides"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	configurationWrittenTemplateConstant    = "configuration written to %s\n"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	loggerCloseErrorTemplateConstant        = "unable to close log file: %w"
	rootCommandDebugMessageConstant         = "tfs-merge invoked"
	logFieldArgumentsConstant               = "arguments"
	defaultConfigurationSearchPathConstant  = "."
	legacyHelpArgumentConstant              = "-help"
	helpArgumentConstant                    = "--help"
	argumentTerminatorConstant              = "--"
	helpDisplayedMessageConstant            = "help displayed"
)

// ErrHelpDisplayed reports that the invocation only printed help.
var ErrHelpDisplayed = errors.New(helpDisplayedMessageConstant)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common" yaml:"common"`
	Merge  merge.CommandConfiguration     `mapstructure:"merge" yaml:"merge"`
}

// ApplicationCommonConfiguration stores logging configuration.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	LogFile   string `mapstructure:"log_file" yaml:"log_file"`
}

// DefaultApplicationConfiguration returns the configuration written by --init.
func DefaultApplicationConfiguration() ApplicationConfiguration {
	return ApplicationConfiguration{
		Common: ApplicationCommonConfiguration{
			LogLevel:  string(utils.LogLevelInfo),
			LogFormat: string(utils.LogFormatConsole),
		},
		Merge: merge.DefaultCommandConfiguration(),
	}
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand              *cobra.Command
	configurationLoader      *utils.ConfigurationLoader
	configurationInitializer *utils.ConfigurationInitializer
	loggerFactory            *utils.LoggerFactory
	logger                   *zap.Logger
	consoleLogger            *zap.Logger
	configuration            ApplicationConfiguration
	configurationMetadata    utils.LoadedConfiguration
	configurationFilePath    string
	logLevelFlagValue        string
	logFormatFlagValue       string
	logFileFlagValue         string
	initScopeFlagValue       string
	forceFlagValue           bool
	helpDisplayed            bool
	commandContextAccessor   utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	return newApplication(merge.CommandBuilder{})
}

func newApplication(mergeBuilder merge.CommandBuilder) *Application {
	application := &Application{
		configurationLoader: utils.NewConfigurationLoader(
			applicationNameConstant,
			configurationTypeConstant,
			environmentPrefixConstant,
			configurationSearchPaths(),
		),
		configurationInitializer: utils.NewConfigurationInitializer(applicationNameConstant),
		loggerFactory:            utils.NewLoggerFactory(),
		logger:                   zap.NewNop(),
		consoleLogger:            zap.NewNop(),
		configuration:            DefaultApplicationConfiguration(),
		commandContextAccessor:   utils.NewCommandContextAccessor(),
	}

	mergeBuilder.LoggerProvider = func() *zap.Logger {
		return application.logger
	}
	mergeBuilder.ConsoleLoggerProvider = func() *zap.Logger {
		return application.consoleLogger
	}
	mergeBuilder.HumanReadableLoggingProvider = application.humanReadableLoggingEnabled
	mergeBuilder.ConfigurationProvider = func() merge.CommandConfiguration {
		return application.configuration.Merge
	}

	cobraCommand, buildError := mergeBuilder.Build()
	if buildError != nil {
		cobraCommand = &cobra.Command{Use: applicationNameConstant}
	}

	mergeRun := cobraCommand.RunE
	cobraCommand.SilenceUsage = true
	cobraCommand.SilenceErrors = true
	cobraCommand.PersistentPreRunE = func(command *cobra.Command, arguments []string) error {
		return application.initializeConfiguration(command)
	}
	cobraCommand.RunE = func(command *cobra.Command, arguments []string) error {
		return application.runRootCommand(command, arguments, mergeRun)
	}

	defaultHelpFunction := cobraCommand.HelpFunc()
	cobraCommand.SetHelpFunc(func(command *cobra.Command, arguments []string) {
		application.helpDisplayed = true
		defaultHelpFunction(command, arguments)
	})

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	flagutils.AddChoiceFlag(
		cobraCommand.PersistentFlags(),
		&application.logLevelFlagValue,
		logLevelFlagNameConstant,
		string(utils.LogLevelInfo),
		[]string{string(utils.LogLevelDebug), string(utils.LogLevelInfo), string(utils.LogLevelWarn), string(utils.LogLevelError)},
		logLevelFlagDescriptionConstant,
	)
	flagutils.AddChoiceFlag(
		cobraCommand.PersistentFlags(),
		&application.logFormatFlagValue,
		logFormatFlagNameConstant,
		string(utils.LogFormatConsole),
		[]string{string(utils.LogFormatConsole), string(utils.LogFormatStructured)},
		logFormatFlagDescriptionConstant,
	)
	cobraCommand.PersistentFlags().StringVar(&application.logFileFlagValue, logFileFlagNameConstant, "", logFileFlagUsageConstant)
	flagutils.AddChoiceFlag(
		cobraCommand.PersistentFlags(),
		&application.initScopeFlagValue,
		initFlagNameConstant,
		string(utils.InitializationScopeLocal),
		[]string{string(utils.InitializationScopeLocal), string(utils.InitializationScopeUser)},
		initFlagDescriptionConstant,
	)
	if initFlag := cobraCommand.PersistentFlags().Lookup(initFlagNameConstant); initFlag != nil {
		initFlag.NoOptDefVal = string(utils.InitializationScopeLocal)
	}
	cobraCommand.PersistentFlags().BoolVar(&application.forceFlagValue, forceFlagNameConstant, false, forceFlagUsageConstant)

	application.rootCommand = cobraCommand
	return application
}

// Execute runs the root command with the process arguments.
func (application *Application) Execute() error {
	return application.ExecuteWithArguments(os.Args[1:])
}

// ExecuteWithArguments runs the root command with explicit arguments and flushes the logger afterwards.
func (application *Application) ExecuteWithArguments(arguments []string) error {
	application.rootCommand.SetArgs(normalizeArguments(arguments))
	executionError := application.rootCommand.Execute()

	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		executionError = fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	if closeError := application.loggerFactory.Close(); closeError != nil && executionError == nil {
		executionError = fmt.Errorf(loggerCloseErrorTemplateConstant, closeError)
	}

	if application.helpDisplayed && (executionError == nil || errors.Is(executionError, merge.ErrMissingDestinationArgument)) {
		return ErrHelpDisplayed
	}
	return executionError
}

// Execute builds a fresh application instance and executes it with the process arguments.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
		commonLogFileConfigKeyConstant:   "",
	}
	for configurationKey, configurationValue := range merge.DefaultConfigurationValues(mergeConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	configurationFilePath := pathutils.NewExpander().Expand(strings.TrimSpace(application.configurationFilePath))
	application.configuration = ApplicationConfiguration{}
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if application.persistentFlagChanged(command, logFileFlagNameConstant) {
		application.configuration.Common.LogFile = application.logFileFlagValue
	}

	loggerOptions := []utils.LoggerOption{}
	if logFile := strings.TrimSpace(application.configuration.Common.LogFile); len(logFile) > 0 {
		loggerOptions = append(loggerOptions, utils.WithRotatingLogFile(logFile))
	}
	if command != nil {
		loggerOptions = append(loggerOptions, utils.WithConsoleWriter(command.ErrOrStderr()), utils.WithDiagnosticWriter(command.ErrOrStderr()))
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogLevel))),
		utils.LogFormat(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogFormat))),
		loggerOptions...,
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	application.consoleLogger = loggerOutputs.ConsoleLogger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.Strings(configurationEnvironmentFieldConstant, application.configurationMetadata.EnvironmentOverrides),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithInvocation(command.Context(), utils.Invocation{
			ConfigurationFile: application.configurationMetadata.ConfigFileUsed,
			LogFile:           application.configuration.Common.LogFile,
		})
		command.SetContext(updatedContext)
	}

	return nil
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string, mergeRun func(*cobra.Command, []string) error) error {
	if application.persistentFlagChanged(command, initFlagNameConstant) {
		return application.writeDefaultConfiguration(command)
	}

	application.logger.Debug(rootCommandDebugMessageConstant, zap.Strings(logFieldArgumentsConstant, arguments))

	if mergeRun == nil {
		return command.Help()
	}
	return mergeRun(command, arguments)
}

func (application *Application) writeDefaultConfiguration(command *cobra.Command) error {
	scope, scopeError := utils.ParseInitializationScope(application.initScopeFlagValue)
	if scopeError != nil {
		return scopeError
	}

	configurationPath, initializationError := application.configurationInitializer.Initialize(scope, application.forceFlagValue, DefaultApplicationConfiguration())
	if initializationError != nil {
		return initializationError
	}

	_, writeError := fmt.Fprintf(command.OutOrStdout(), configurationWrittenTemplateConstant, configurationPath)
	return writeError
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) flushLogger() error {
	if syncError := application.syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}
	return application.syncLoggerInstance(application.consoleLogger)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

// configurationSearchPaths lists the working directory followed by the per-user configuration directory.
func configurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if userConfigurationDirectory, userDirectoryError := os.UserConfigDir(); userDirectoryError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, applicationNameConstant))
	}
	return searchPaths
}

// normalizeArguments rewrites the single-dash -help spelling and joins toggle values before cobra parses them.
// The result is never nil so cobra does not fall back to os.Args.
func normalizeArguments(arguments []string) []string {
	normalized := make([]string, 0, len(arguments))
	for argumentIndex, argument := range arguments {
		if argument == argumentTerminatorConstant {
			normalized = append(normalized, arguments[argumentIndex:]...)
			break
		}
		if argument == legacyHelpArgumentConstant {
			argument = helpArgumentConstant
		}
		normalized = append(normalized, argument)
	}
	if expanded := flagutils.NormalizeToggleArguments(normalized); expanded != nil {
		return expanded
	}
	return []string{}
}
