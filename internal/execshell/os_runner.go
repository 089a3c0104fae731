package execshell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

const processWaitDelayConstant = 5 * time.Second

// OSCommandRunner starts each command as a child process of the current one, inheriting its environment,
// and captures both output streams.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs an OSCommandRunner.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run blocks until the process exits. A non-zero exit status is a result, not an error;
// errors are reserved for processes that could not start or were cancelled.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	var standardOutput bytes.Buffer
	var standardError bytes.Buffer

	process := exec.CommandContext(executionContext, command.ResolveExecutable(), command.Details.Arguments...)
	process.Dir = command.Details.WorkingDirectory
	process.WaitDelay = processWaitDelayConstant
	process.Stdout = &standardOutput
	process.Stderr = &standardError

	runError := process.Run()
	result := ExecutionResult{StandardOutput: standardOutput.String(), StandardError: standardError.String()}
	if runError == nil {
		return result, nil
	}
	if contextError := executionContext.Err(); contextError != nil {
		return ExecutionResult{}, contextError
	}

	var exitError *exec.ExitError
	if !errors.As(runError, &exitError) {
		return ExecutionResult{}, runError
	}
	result.ExitCode = exitError.ExitCode()
	return result, nil
}
