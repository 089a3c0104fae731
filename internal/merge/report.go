package merge

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/temirov/tfs-merge/internal/ui"
)

const (
	mergedTemplateConstant          = "MERGED: %s into %s, checked in to %s"
	plannedTemplateConstant         = "PLAN: %s into %s, check in to %s"
	completedStepsTemplateConstant  = "STEPS: %s"
	cancelledTemplateConstant       = "CANCELLED: %v"
	failedTemplateConstant          = "FAILED: %v"
	rebaseConflictLineTemplate      = "REBASE CONFLICT: %v"
	partialSuccessLineTemplate      = "PARTIAL SUCCESS: %v"
	recoveryHeaderConstant          = "Run these commands to finish the merge:"
	warningLineTemplateConstant     = "WARNING: %s: %s"
	warningRecoveryHeaderConstant   = "Run this command to finish the cleanup:"
	commandIndentationConstant      = "  "
	completedStepsSeparatorConstant = ", "
	reportLineTerminatorConstant    = "\n"
)

// Reporter renders workflow outcomes for the operator.
// Successful runs and plans go to output; failures, cancellations and warnings go to errorOutput.
type Reporter struct {
	output      io.Writer
	errorOutput io.Writer
	palette     ui.Palette
}

// NewReporter constructs a Reporter writing through the palette.
func NewReporter(output io.Writer, errorOutput io.Writer, palette ui.Palette) *Reporter {
	if output == nil {
		output = io.Discard
	}
	if errorOutput == nil {
		errorOutput = output
	}
	return &Reporter{output: output, errorOutput: errorOutput, palette: palette}
}

// Report prints the terminal state described by the result and the run error.
func (reporter *Reporter) Report(result Result, runError error) {
	switch result.Outcome {
	case OutcomeSuccess:
		reporter.writeLine(reporter.output, reporter.palette.Success(fmt.Sprintf(mergedTemplateConstant, result.SourceBranch, result.DestinationBranch, result.TFSPath)))
		reporter.reportCompletedSteps(result)
		reporter.reportWarnings(result.Warnings)
	case OutcomePlanned:
		reporter.writeLine(reporter.output, reporter.palette.Emphasis(fmt.Sprintf(plannedTemplateConstant, result.SourceBranch, result.DestinationBranch, result.TFSPath)))
		for _, plannedCommand := range result.Plan {
			reporter.writeLine(reporter.output, commandIndentationConstant+reporter.palette.Command(plannedCommand.CommandLine()))
		}
	case OutcomeCancelled:
		reporter.writeLine(reporter.errorOutput, reporter.palette.Warning(fmt.Sprintf(cancelledTemplateConstant, reporter.describe(runError, ErrOperatorCancelled))))
	case OutcomePartialSuccess:
		reporter.writeLine(reporter.errorOutput, reporter.palette.Warning(fmt.Sprintf(partialSuccessLineTemplate, runError)))
		reporter.reportRecoveryCommands(result.RecoveryCommands)
	default:
		reporter.reportFailure(runError)
	}
}

func (reporter *Reporter) reportFailure(runError error) {
	if runError == nil {
		return
	}
	var conflictError RebaseConflictError
	if errors.As(runError, &conflictError) {
		reporter.writeLine(reporter.errorOutput, reporter.palette.Failure(fmt.Sprintf(rebaseConflictLineTemplate, conflictError)))
		return
	}
	reporter.writeLine(reporter.errorOutput, reporter.palette.Failure(fmt.Sprintf(failedTemplateConstant, runError)))
}

func (reporter *Reporter) reportRecoveryCommands(commandLines []string) {
	if len(commandLines) == 0 {
		return
	}
	reporter.writeLine(reporter.errorOutput, reporter.palette.Warning(recoveryHeaderConstant))
	for _, commandLine := range commandLines {
		reporter.writeLine(reporter.errorOutput, commandIndentationConstant+reporter.palette.Command(commandLine))
	}
}

func (reporter *Reporter) reportWarnings(warnings []Warning) {
	for _, warning := range warnings {
		reporter.writeLine(reporter.errorOutput, reporter.palette.Warning(fmt.Sprintf(warningLineTemplateConstant, warning.Step, warning.Message)))
		reporter.writeLine(reporter.errorOutput, reporter.palette.Warning(warningRecoveryHeaderConstant))
		reporter.writeLine(reporter.errorOutput, commandIndentationConstant+reporter.palette.Command(warning.RecoveryCommand))
	}
}

func (reporter *Reporter) reportCompletedSteps(result Result) {
	if len(result.CompletedSteps) == 0 {
		return
	}
	stepNames := make([]string, 0, len(result.CompletedSteps))
	for _, step := range result.CompletedSteps {
		stepNames = append(stepNames, string(step))
	}
	reporter.writeLine(reporter.output, fmt.Sprintf(completedStepsTemplateConstant, strings.Join(stepNames, completedStepsSeparatorConstant)))
}

func (reporter *Reporter) describe(runError error, fallback error) error {
	if runError == nil {
		return fallback
	}
	return runError
}

func (reporter *Reporter) writeLine(writer io.Writer, line string) {
	_, _ = io.WriteString(writer, line+reportLineTerminatorConstant)
}
