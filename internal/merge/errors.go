package merge

import (
	"errors"
	"fmt"
)

const (
	operatorCancelledMessageConstant        = "merge cancelled by operator"
	fatalErrorTemplateConstant              = "%s failed: %s"
	fatalErrorWithCauseTemplateConstant     = "%s failed: %s: %v"
	rebaseConflictTemplateConstant          = "rebase of %s is unfinished after %s; resolve the conflicts and run `git rebase --continue`, or `git rebase --abort`, %s"
	rebaseConflictRerunAdviceConstant       = "then run tfs-merge again"
	rebaseConflictRecoveryAdviceConstant    = "then run the commands listed below"
	partialSuccessTemplateConstant          = "changesets were checked in to TFS, but %v"
	partialSuccessWithoutCauseTemplate      = "changesets were checked in to TFS, but %s failed"
	gitExecutorMissingMessageConstant       = "git executor not configured"
	repositoryInspectorMissingMessage       = "repository inspector not configured"
	toolLocatorMissingMessageConstant       = "tool locator not configured"
	confirmationPrompterMissingMessage      = "confirmation prompter not configured"
	destinationBranchRequiredMessage        = "destination branch must be provided"
	repositoryPathRequiredMessageConstant   = "repository path must be provided"
	missingDestinationArgumentMessage       = "destination branch argument is required"
	unexpectedArgumentCountTemplateConstant = "expected a single destination branch, received %d arguments"
)

// ErrOperatorCancelled indicates the operator declined a confirmation prompt.
var ErrOperatorCancelled = errors.New(operatorCancelledMessageConstant)

// ErrGitExecutorNotConfigured indicates the executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryInspectorNotConfigured indicates the inspector dependency was missing.
var ErrRepositoryInspectorNotConfigured = errors.New(repositoryInspectorMissingMessage)

// ErrToolLocatorNotConfigured indicates the tool locator dependency was missing.
var ErrToolLocatorNotConfigured = errors.New(toolLocatorMissingMessageConstant)

// ErrConfirmationPrompterNotConfigured indicates the prompter dependency was missing.
var ErrConfirmationPrompterNotConfigured = errors.New(confirmationPrompterMissingMessage)

// ErrDestinationBranchRequired indicates the destination branch option was empty.
var ErrDestinationBranchRequired = errors.New(destinationBranchRequiredMessage)

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrMissingDestinationArgument indicates the command was invoked without a destination branch.
var ErrMissingDestinationArgument = errors.New(missingDestinationArgumentMessage)

// FatalError reports a failed precondition or a failed step before any changeset reached TFS.
// Rerunning the workflow after fixing the cause is the recovery.
type FatalError struct {
	Step    StepName
	Message string
	Cause   error
}

// Error describes the failed step.
func (fatalError FatalError) Error() string {
	if fatalError.Cause == nil {
		return fmt.Sprintf(fatalErrorTemplateConstant, fatalError.Step, fatalError.Message)
	}
	return fmt.Sprintf(fatalErrorWithCauseTemplateConstant, fatalError.Step, fatalError.Message, fatalError.Cause)
}

// Unwrap exposes the underlying cause.
func (fatalError FatalError) Unwrap() error {
	return fatalError.Cause
}

// RebaseConflictError reports a rebase left in progress by git or git-tfs.
type RebaseConflictError struct {
	Step   StepName
	Branch string
}

// Error instructs the operator to finish or abort the rebase. Once the changesets are in TFS
// the workflow cannot be rerun, so the operator finishes with the recovery commands instead.
func (conflictError RebaseConflictError) Error() string {
	advice := rebaseConflictRerunAdviceConstant
	if conflictError.Step.Phase() == PhasePostReplay {
		advice = rebaseConflictRecoveryAdviceConstant
	}
	return fmt.Sprintf(rebaseConflictTemplateConstant, conflictError.Branch, conflictError.Step, advice)
}

// PartialSuccessError reports a failure after the changesets were checked in to TFS.
// RecoveryCommands lists the remaining commands in order.
type PartialSuccessError struct {
	Step             StepName
	Cause            error
	RecoveryCommands []string
}

// Error describes the failed post-replay step.
func (partialError PartialSuccessError) Error() string {
	if partialError.Cause == nil {
		return fmt.Sprintf(partialSuccessWithoutCauseTemplate, partialError.Step)
	}
	return fmt.Sprintf(partialSuccessTemplateConstant, partialError.Cause)
}

// Unwrap exposes the underlying cause.
func (partialError PartialSuccessError) Unwrap() error {
	return partialError.Cause
}

// ReportedError marks an error whose diagnostic was already printed.
type ReportedError struct {
	Cause error
}

// Error returns the underlying message.
func (reportedError ReportedError) Error() string {
	if reportedError.Cause == nil {
		return ""
	}
	return reportedError.Cause.Error()
}

// Unwrap exposes the underlying cause.
func (reportedError ReportedError) Unwrap() error {
	return reportedError.Cause
}
