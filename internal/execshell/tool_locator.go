package execshell

import (
	"fmt"
	"os/exec"
	"strings"
)

const (
	executableNameRequiredMessageConstant = "executable name must be provided"
	executableNotFoundTemplateConstant    = "%s not found on PATH: %w"
)

// ToolLocator resolves executables on the search path.
type ToolLocator interface {
	LookPath(executable string) (string, error)
}

// PathToolLocator resolves executables using exec.LookPath.
type PathToolLocator struct{}

// NewPathToolLocator constructs a PathToolLocator.
func NewPathToolLocator() PathToolLocator {
	return PathToolLocator{}
}

// LookPath returns the absolute path of the executable or an error when it is not installed.
func (PathToolLocator) LookPath(executable string) (string, error) {
	trimmedExecutable := strings.TrimSpace(executable)
	if len(trimmedExecutable) == 0 {
		return "", fmt.Errorf(executableNotFoundTemplateConstant, executable, exec.ErrNotFound)
	}
	resolvedPath, lookupError := exec.LookPath(trimmedExecutable)
	if lookupError != nil {
		return "", fmt.Errorf(executableNotFoundTemplateConstant, trimmedExecutable, lookupError)
	}
	return resolvedPath, nil
}
