package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/temirov/tfs-merge/cmd/cli"
	"github.com/temirov/tfs-merge/internal/merge"
)

const (
	exitErrorTemplateConstant = "%v\n"
	failureExitCodeConstant   = 1
)

// main executes the tfs-merge command-line application.
func main() {
	executionError := cli.Execute()
	if executionError == nil {
		return
	}
	if !merge.IsReported(executionError) && !errors.Is(executionError, cli.ErrHelpDisplayed) {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
	}
	os.Exit(failureExitCodeConstant)
}
