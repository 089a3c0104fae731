package execshell

import (
	"context"
	"errors"
)

const (
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
)

// CommandName identifies an external tool family understood by the executor.
type CommandName string

// Supported command names.
const (
	CommandGit    CommandName = CommandName("git")
	CommandGitTFS CommandName = CommandName("git-tfs")
)

// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
var ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

// ErrCommandRunnerNotConfigured indicates the executor was constructed without a runner.
var ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)

// CommandDetails describes the arguments and working directory of a single invocation.
type CommandDetails struct {
	Arguments        []string
	WorkingDirectory string
}

// ShellCommand couples a tool name with invocation details.
// Executable overrides the program started by the runner; Name is used when it is empty.
type ShellCommand struct {
	Name       CommandName
	Executable string
	Details    CommandDetails
}

// ResolveExecutable returns the program the runner should start.
func (command ShellCommand) ResolveExecutable() string {
	if len(command.Executable) > 0 {
		return command.Executable
	}
	return string(command.Name)
}

// ExecutionResult captures process output and exit status.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner starts processes and waits for them to finish.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a command that ran to completion with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command using the lifecycle message formatter.
func (commandError CommandFailedError) Error() string {
	return CommandMessageFormatter{}.BuildFailureMessage(commandError.Command, commandError.Result)
}

// CommandExecutionError reports a command that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (commandError CommandExecutionError) Error() string {
	return CommandMessageFormatter{}.BuildExecutionFailureMessage(commandError.Command, commandError.Cause)
}

// Unwrap exposes the underlying cause.
func (commandError CommandExecutionError) Unwrap() error {
	return commandError.Cause
}
