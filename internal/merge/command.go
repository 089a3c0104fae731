package merge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/tfs-merge/internal/execshell"
	"github.com/temirov/tfs-merge/internal/gitrepo"
	"github.com/temirov/tfs-merge/internal/ui"
	"github.com/temirov/tfs-merge/internal/utils"
	flagutils "github.com/temirov/tfs-merge/internal/utils/flags"
	pathutils "github.com/temirov/tfs-merge/internal/utils/path"
)

const (
	commandUseConstant                 = "tfs-merge <destination-branch>"
	commandShortDescriptionConstant    = "Rebase the current branch onto a TFS-tracked branch and check it in"
	commandLongDescriptionConstant     = "tfs-merge synchronizes the destination branch with its remote and with TFS, rebases the current branch onto it, checks the rebased commits in to TFS through git-tfs, and deletes the source branch locally and on its remote."
	commandExampleConstant             = "  tfs-merge develop\n  tfs-merge --dry-run master\n  tfs-merge --yes --keep-branch release/2.0"
	repositoryFlagNameConstant         = "repository"
	repositoryFlagUsageConstant        = "Path to the working copy (defaults to the current directory)"
	workingDirectoryErrorTemplate      = "unable to resolve working directory: %w"
	commandContextMissingMessage       = "command context not available"
	maximumPositionalArgumentsConstant = 1
	invocationMessageConstant          = "merge invocation"
	invocationConfigFileFieldConstant  = "config_file"
	invocationLogFileFieldConstant     = "log_file"
	invocationRepositoryFieldConstant  = "repository"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// PrompterFactory builds a confirmation prompter for the command streams.
type PrompterFactory func(input io.Reader, output io.Writer) ui.ConfirmationPrompter

// CommandBuilder assembles the tfs-merge command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConsoleLoggerProvider        LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	GitExecutor                  GitExecutor
	RepositoryInspector          RepositoryInspector
	ToolLocator                  execshell.ToolLocator
	PrompterFactory              PrompterFactory
	WorkingDirectory             string

	executionFlags *flagutils.ExecutionFlagValues
}

// Build constructs the tfs-merge command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		RunE:    builder.run,
	}

	command.Flags().String(repositoryFlagNameConstant, "", repositoryFlagUsageConstant)
	builder.executionFlags = flagutils.BindExecutionFlags(command, flagutils.ExecutionDefaults{})

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		_ = command.Help()
		return ErrMissingDestinationArgument
	}
	if len(arguments) > maximumPositionalArgumentsConstant {
		return fmt.Errorf(unexpectedArgumentCountTemplateConstant, len(arguments))
	}

	configuration := builder.resolveConfiguration(command)

	repositoryPath, repositoryPathError := builder.resolveRepositoryPath(command)
	if repositoryPathError != nil {
		return repositoryPathError
	}

	logger := builder.resolveLogger(builder.LoggerProvider)
	gitExecutor, executorError := builder.resolveGitExecutor(logger, configuration)
	if executorError != nil {
		return executorError
	}

	service, serviceCreationError := NewService(Dependencies{
		Logger:              logger,
		GitExecutor:         gitExecutor,
		RepositoryInspector: builder.resolveRepositoryInspector(),
		ToolLocator:         builder.resolveToolLocator(),
		Prompter:            builder.resolvePrompter(command),
	})
	if serviceCreationError != nil {
		return serviceCreationError
	}

	dryRun := false
	if builder.executionFlags != nil {
		dryRun = builder.executionFlags.DryRun
	}

	executionContext := command.Context()
	if executionContext == nil {
		logger.Debug(commandContextMissingMessage)
		executionContext = context.Background()
	}
	if invocation, available := utils.NewCommandContextAccessor().Invocation(executionContext); available {
		logger.Debug(
			invocationMessageConstant,
			zap.String(invocationConfigFileFieldConstant, invocation.ConfigurationFile),
			zap.String(invocationLogFileFieldConstant, invocation.LogFile),
			zap.String(invocationRepositoryFieldConstant, repositoryPath),
		)
	}

	result, runError := service.Run(executionContext, Options{
		RepositoryPath:    repositoryPath,
		DestinationBranch: arguments[0],
		Configuration:     configuration,
		DryRun:            dryRun,
	})

	NewReporter(command.OutOrStdout(), command.ErrOrStderr(), ui.NewPalette()).Report(result, runError)
	if runError != nil {
		return ReportedError{Cause: runError}
	}
	return nil
}

// resolveConfiguration applies explicitly set toggles on top of the persisted configuration.
func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	configuration = configuration.Sanitize()

	if builder.executionFlags == nil {
		return configuration
	}
	if flagutils.ToggleChanged(command, flagutils.AssumeYesFlagName) {
		configuration.AssumeYes = builder.executionFlags.AssumeYes
	}
	if flagutils.ToggleChanged(command, flagutils.KeepBranchFlagName) {
		configuration.KeepSourceBranch = builder.executionFlags.KeepBranch
	}
	return configuration
}

func (builder *CommandBuilder) resolveRepositoryPath(command *cobra.Command) (string, error) {
	repositoryPath, flagError := command.Flags().GetString(repositoryFlagNameConstant)
	if flagError != nil {
		return "", flagError
	}
	if trimmedPath := strings.TrimSpace(repositoryPath); len(trimmedPath) > 0 {
		return pathutils.NewExpander().Expand(trimmedPath), nil
	}
	if trimmedDirectory := strings.TrimSpace(builder.WorkingDirectory); len(trimmedDirectory) > 0 {
		return trimmedDirectory, nil
	}

	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return "", fmt.Errorf(workingDirectoryErrorTemplate, workingDirectoryError)
	}
	return workingDirectory, nil
}

func (builder *CommandBuilder) resolveGitExecutor(logger *zap.Logger, configuration CommandConfiguration) (GitExecutor, error) {
	if builder.GitExecutor != nil {
		return builder.GitExecutor, nil
	}

	executorOptions := []execshell.ShellExecutorOption{execshell.WithGitTFSExecutable(configuration.TFSExecutable)}
	if builder.humanReadableLogging() {
		consoleLogger := builder.resolveLogger(builder.ConsoleLoggerProvider)
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(consoleLogger)))
	}

	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), executorOptions...)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

func (builder *CommandBuilder) resolveRepositoryInspector() RepositoryInspector {
	if builder.RepositoryInspector != nil {
		return builder.RepositoryInspector
	}
	return gitrepo.NewRepositoryInspector()
}

func (builder *CommandBuilder) resolveToolLocator() execshell.ToolLocator {
	if builder.ToolLocator != nil {
		return builder.ToolLocator
	}
	return execshell.NewPathToolLocator()
}

func (builder *CommandBuilder) resolvePrompter(command *cobra.Command) ui.ConfirmationPrompter {
	if builder.PrompterFactory != nil {
		if prompter := builder.PrompterFactory(command.InOrStdin(), command.OutOrStdout()); prompter != nil {
			return prompter
		}
	}
	return ui.ResolveConfirmationPrompter(command.InOrStdin(), command.OutOrStdout())
}

func (builder *CommandBuilder) humanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}

func (builder *CommandBuilder) resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// IsReported reports whether the error's diagnostic was already printed by the command.
func IsReported(err error) bool {
	var reportedError ReportedError
	return errors.As(err, &reportedError)
}
