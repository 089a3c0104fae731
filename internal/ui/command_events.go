package ui

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/tfs-merge/internal/execshell"
)

const gitStatusSubcommandConstant = "status"

// ConsoleCommandEventLogger narrates git and git-tfs invocations on the operator console.
// Successful progress logs at info, non-zero exits at warn, and processes that never produced an exit code at error.
// Commands that only inspect the working tree stay at debug so the console shows the steps that change something.
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter execshell.CommandMessageFormatter
}

// NewConsoleCommandEventLogger wraps the console logger; a nil logger discards every event.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger}
}

// CommandStarted announces the command before it runs.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	eventLogger.emit(progressLevel(command), func(formatter execshell.CommandMessageFormatter) string {
		return formatter.BuildStartedMessage(command)
	})
}

// CommandCompleted reports the exit status of a finished command.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if result.ExitCode != 0 {
		eventLogger.emit(zapcore.WarnLevel, func(formatter execshell.CommandMessageFormatter) string {
			return formatter.BuildFailureMessage(command, result)
		})
		return
	}
	eventLogger.emit(progressLevel(command), func(formatter execshell.CommandMessageFormatter) string {
		return formatter.BuildSuccessMessage(command)
	})
}

// CommandExecutionFailed reports a command that could not be started or was interrupted.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	eventLogger.emit(zapcore.ErrorLevel, func(formatter execshell.CommandMessageFormatter) string {
		return formatter.BuildExecutionFailureMessage(command, failure)
	})
}

// emit formats the message only when the level is enabled.
func (eventLogger *ConsoleCommandEventLogger) emit(level zapcore.Level, buildMessage func(execshell.CommandMessageFormatter) string) {
	if eventLogger == nil || eventLogger.logger == nil {
		return
	}
	if checkedEntry := eventLogger.logger.Check(level, ""); checkedEntry != nil {
		checkedEntry.Message = buildMessage(eventLogger.formatter)
		checkedEntry.Write()
	}
}

func progressLevel(command execshell.ShellCommand) zapcore.Level {
	arguments := command.Details.Arguments
	if command.Name == execshell.CommandGit && len(arguments) > 0 && arguments[0] == gitStatusSubcommandConstant {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
