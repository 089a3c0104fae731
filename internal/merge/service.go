package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/tfs-merge/internal/execshell"
	"github.com/temirov/tfs-merge/internal/gitrepo"
	"github.com/temirov/tfs-merge/internal/ui"
)

const (
	gitTFSDefaultBranchConstant            = "master"
	remoteIDListSeparatorConstant          = ", "
	tfsExecutableMissingTemplateConstant   = "%s is not installed or not on PATH"
	tfsRemoteMissingTemplateConstant       = "branch %s has no TFS remote configured; set tfs-remote.<id>.repository or map the branch under merge.tfs_remotes (checked ids: %s)"
	tfsRemoteLookupTemplateConstant        = "unable to read tfs-remote.%s.repository"
	detachedHeadMessageConstant            = "HEAD is detached; check out the branch to merge first"
	currentBranchLookupMessageConstant     = "unable to determine the current branch"
	sameBranchTemplateConstant             = "source and destination branch are both %s; check out the branch to merge first"
	sourceUpstreamMissingTemplateConstant  = "branch %s has no upstream; push it with `git push -u <remote> %s` first"
	upstreamLookupTemplateConstant         = "unable to read the upstream of %s"
	destinationMissingTemplateConstant     = "destination branch %s does not exist locally"
	destinationLookupTemplateConstant      = "unable to look up destination branch %s"
	destinationUpstreamMissingTemplate     = "destination branch %s has no upstream"
	rebaseAlreadyInProgressMessageConstant = "a rebase is already in progress; finish or abort it first"
	rebaseInspectionMessageConstant        = "unable to check for an unfinished rebase"
	worktreeDirtyMessageConstant           = "working tree has uncommitted changes; commit or stash them first"
	worktreeInspectionMessageConstant      = "unable to inspect the working tree"
	confirmationFailureMessageConstant     = "unable to read the confirmation"
	commandFailureTemplateConstant         = "`%s`"
	upstreamMismatchPromptTemplateConstant = "Local branch %s tracks %s, which has a different name. Continue?"
	protectedBranchPromptTemplateConstant  = "Merge %s into protected branch %s and check it in to TFS?"
	stepStartedMessageConstant             = "step started"
	stepCompletedMessageConstant           = "step completed"
	cleanupWarningMessageConstant          = "cleanup command failed"
	dryRunMessageConstant                  = "dry run; no commands executed"
	tfsRemoteResolvedMessageConstant       = "resolved TFS remote"
	logFieldStepConstant                   = "step"
	logFieldStepNumberConstant             = "step_number"
	logFieldSourceBranchConstant           = "source_branch"
	logFieldDestinationBranchConstant      = "destination_branch"
	logFieldTFSRemoteIDConstant            = "tfs_remote_id"
	logFieldTFSPathConstant                = "tfs_path"
	logFieldCommandLineConstant            = "command_line"
	logFieldPlannedCommandCountConstant    = "planned_commands"
)

// Outcome is the terminal state of a workflow run.
type Outcome string

// Supported outcomes.
const (
	OutcomeSuccess        Outcome = "success"
	OutcomeFailure        Outcome = "failure"
	OutcomePartialSuccess Outcome = "partial-success"
	OutcomeCancelled      Outcome = "cancelled"
	OutcomePlanned        Outcome = "planned"
)

// GitExecutor runs git and git-tfs commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitTFS(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryInspector answers the read-only questions asked during validation.
type RepositoryInspector interface {
	CurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	BranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error)
	BranchUpstream(executionContext context.Context, repositoryPath string, branchName string) (gitrepo.BranchReference, bool, error)
	TFSRemoteRepository(executionContext context.Context, repositoryPath string, remoteID string) (string, error)
	RebaseInProgress(executionContext context.Context, repositoryPath string) (bool, error)
}

// Dependencies enumerates the collaborators required by Service.
type Dependencies struct {
	Logger              *zap.Logger
	GitExecutor         GitExecutor
	RepositoryInspector RepositoryInspector
	ToolLocator         execshell.ToolLocator
	Prompter            ui.ConfirmationPrompter
}

// Options configures a single workflow run.
type Options struct {
	RepositoryPath    string
	DestinationBranch string
	Configuration     CommandConfiguration
	DryRun            bool
}

// Warning describes a cleanup command that failed without affecting the outcome.
type Warning struct {
	Step            StepName
	Message         string
	RecoveryCommand string
}

// Result captures what a workflow run did.
type Result struct {
	Outcome           Outcome
	SourceBranch      string
	DestinationBranch string
	TFSRemoteID       string
	TFSPath           string
	CompletedSteps    []StepName
	Plan              []PlannedCommand
	Warnings          []Warning
	RecoveryCommands  []string
}

// Service runs the merge and check-in workflow.
type Service struct {
	logger      *zap.Logger
	executor    GitExecutor
	inspector   RepositoryInspector
	toolLocator execshell.ToolLocator
	prompter    ui.ConfirmationPrompter
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.RepositoryInspector == nil {
		return nil, ErrRepositoryInspectorNotConfigured
	}
	if dependencies.ToolLocator == nil {
		return nil, ErrToolLocatorNotConfigured
	}
	if dependencies.Prompter == nil {
		return nil, ErrConfirmationPrompterNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:      logger,
		executor:    dependencies.GitExecutor,
		inspector:   dependencies.RepositoryInspector,
		toolLocator: dependencies.ToolLocator,
		prompter:    dependencies.Prompter,
	}, nil
}

// Run validates the repository, confirms anomalies with the operator and executes the workflow steps in order.
// The returned error is a FatalError, RebaseConflictError, PartialSuccessError or ErrOperatorCancelled;
// Result.Outcome names the terminal state in every case.
func (service *Service) Run(executionContext context.Context, options Options) (Result, error) {
	repositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(repositoryPath) == 0 {
		return Result{Outcome: OutcomeFailure}, ErrRepositoryPathRequired
	}
	destinationBranch := strings.TrimSpace(options.DestinationBranch)
	if len(destinationBranch) == 0 {
		return Result{Outcome: OutcomeFailure}, ErrDestinationBranchRequired
	}

	configuration := options.Configuration.Sanitize()
	result := Result{Outcome: OutcomeFailure, DestinationBranch: destinationBranch}

	service.logStepStarted(StepValidate)
	state, validationError := service.validate(executionContext, repositoryPath, destinationBranch, configuration)
	if validationError != nil {
		return result, validationError
	}
	result.SourceBranch = state.sourceBranch
	result.TFSRemoteID = state.tfsRemoteID
	result.TFSPath = state.tfsRepositoryPath
	result.CompletedSteps = append(result.CompletedSteps, StepValidate)
	service.logStepCompleted(StepValidate)

	plan := state.buildPlan()
	if options.DryRun {
		service.logger.Debug(dryRunMessageConstant, zap.Int(logFieldPlannedCommandCountConstant, len(plan)))
		result.Outcome = OutcomePlanned
		result.Plan = plan
		return result, nil
	}

	service.logStepStarted(StepConfirm)
	if confirmationError := service.confirm(state, configuration); confirmationError != nil {
		if errors.Is(confirmationError, ErrOperatorCancelled) {
			result.Outcome = OutcomeCancelled
			return result, confirmationError
		}
		return result, FatalError{Step: StepConfirm, Message: confirmationFailureMessageConstant, Cause: confirmationError}
	}
	result.CompletedSteps = append(result.CompletedSteps, StepConfirm)
	service.logStepCompleted(StepConfirm)

	for commandIndex, plannedCommand := range plan {
		if commandIndex == 0 || plan[commandIndex-1].Step != plannedCommand.Step {
			service.logStepStarted(plannedCommand.Step)
		}

		commandError := service.runCommand(executionContext, state, plannedCommand)
		if commandError != nil {
			switch plannedCommand.Step.Phase() {
			case PhasePreReplay:
				return result, commandError
			case PhasePostReplay:
				result.Outcome = OutcomePartialSuccess
				result.RecoveryCommands = recoveryCommands(plan, commandIndex)
				return result, PartialSuccessError{Step: plannedCommand.Step, Cause: commandError, RecoveryCommands: result.RecoveryCommands}
			default:
				service.logger.Debug(cleanupWarningMessageConstant, zap.String(logFieldCommandLineConstant, plannedCommand.CommandLine()), zap.Error(commandError))
				result.Warnings = append(result.Warnings, Warning{
					Step:            plannedCommand.Step,
					Message:         commandError.Error(),
					RecoveryCommand: plannedCommand.CommandLine(),
				})
			}
		}

		lastCommandOfStep := commandIndex == len(plan)-1 || plan[commandIndex+1].Step != plannedCommand.Step
		if lastCommandOfStep && !(plannedCommand.Step == StepCleanup && len(result.Warnings) > 0) {
			result.CompletedSteps = append(result.CompletedSteps, plannedCommand.Step)
			service.logStepCompleted(plannedCommand.Step)
		}
	}

	result.Outcome = OutcomeSuccess
	return result, nil
}

func (service *Service) validate(executionContext context.Context, repositoryPath string, destinationBranch string, configuration CommandConfiguration) (runState, error) {
	state := runState{
		repositoryPath:    repositoryPath,
		destinationBranch: destinationBranch,
		tfsExecutable:     configuration.TFSExecutable,
		notesRefspec:      configuration.NotesRefspec,
		keepSourceBranch:  configuration.KeepSourceBranch,
	}

	if _, lookupError := service.toolLocator.LookPath(configuration.TFSExecutable); lookupError != nil {
		return state, FatalError{Step: StepValidate, Message: fmt.Sprintf(tfsExecutableMissingTemplateConstant, configuration.TFSExecutable), Cause: lookupError}
	}

	remoteID, tfsRepositoryPath, remoteError := service.resolveTFSRemote(executionContext, repositoryPath, destinationBranch, configuration)
	if remoteError != nil {
		return state, remoteError
	}
	state.tfsRemoteID = remoteID
	state.tfsRepositoryPath = tfsRepositoryPath

	sourceBranch, currentBranchError := service.inspector.CurrentBranch(executionContext, repositoryPath)
	if currentBranchError != nil {
		if errors.Is(currentBranchError, gitrepo.ErrDetachedHead) {
			return state, FatalError{Step: StepValidate, Message: detachedHeadMessageConstant}
		}
		return state, FatalError{Step: StepValidate, Message: currentBranchLookupMessageConstant, Cause: currentBranchError}
	}
	if sourceBranch == destinationBranch {
		return state, FatalError{Step: StepValidate, Message: fmt.Sprintf(sameBranchTemplateConstant, destinationBranch)}
	}
	state.sourceBranch = sourceBranch

	sourceUpstream, sourceUpstreamConfigured, sourceUpstreamError := service.inspector.BranchUpstream(executionContext, repositoryPath, sourceBranch)
	if sourceUpstreamError != nil {
		return state, FatalError{Step: StepValidate, Message: fmt.Sprintf(upstreamLookupTemplateConstant, sourceBranch), Cause: sourceUpstreamError}
	}
	if !sourceUpstreamConfigured {
		return state, FatalError{Step: StepValidate, Message: fmt.Sprintf(sourceUpstreamMissingTemplateConstant, sourceBranch, sourceBranch)}
	}
	state.sourceUpstream = sourceUpstream

	destinationExists, destinationLookupError := service.inspector.BranchExists(executionContext, repositoryPath, destinationBranch)
	if destinationLookupError != nil {
		return state, FatalError{Step: StepValidate, Message: fmt.Sprintf(destinationLookupTemplateConstant, destinationBranch), Cause: destinationLookupError}
	}
	if !destinationExists {
		return state, FatalError{Step: StepValidate, Message: fmt.Sprintf(destinationMissingTemplateConstant, destinationBranch)}
	}

	destinationUpstream, destinationUpstreamConfigured, destinationUpstreamError := service.inspector.BranchUpstream(executionContext, repositoryPath, destinationBranch)
	if destinationUpstreamError != nil {
		return state, FatalError{Step: StepValidate, Message: fmt.Sprintf(upstreamLookupTemplateConstant, destinationBranch), Cause: destinationUpstreamError}
	}
	if !destinationUpstreamConfigured {
		return state, FatalError{Step: StepValidate, Message: fmt.Sprintf(destinationUpstreamMissingTemplate, destinationBranch)}
	}
	state.destinationUpstream = destinationUpstream

	rebaseInProgress, rebaseInspectionError := service.inspector.RebaseInProgress(executionContext, repositoryPath)
	if rebaseInspectionError != nil {
		return state, FatalError{Step: StepValidate, Message: rebaseInspectionMessageConstant, Cause: rebaseInspectionError}
	}
	if rebaseInProgress {
		return state, FatalError{Step: StepValidate, Message: rebaseAlreadyInProgressMessageConstant}
	}

	if configuration.RequireClean {
		statusResult, statusError := service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:        []string{gitStatusSubcommandConstant, gitPorcelainFlagConstant},
			WorkingDirectory: repositoryPath,
		})
		if statusError != nil {
			return state, FatalError{Step: StepValidate, Message: worktreeInspectionMessageConstant, Cause: statusError}
		}
		if len(strings.TrimSpace(statusResult.StandardOutput)) > 0 {
			return state, FatalError{Step: StepValidate, Message: worktreeDirtyMessageConstant}
		}
	}

	service.logger.Debug(
		tfsRemoteResolvedMessageConstant,
		zap.String(logFieldSourceBranchConstant, state.sourceBranch),
		zap.String(logFieldDestinationBranchConstant, state.destinationBranch),
		zap.String(logFieldTFSRemoteIDConstant, state.tfsRemoteID),
		zap.String(logFieldTFSPathConstant, state.tfsRepositoryPath),
	)

	return state, nil
}

// resolveTFSRemote finds the git-tfs remote bound to the destination branch.
// A configured mapping is authoritative. Otherwise a remote named after the branch is used,
// and git-tfs' default remote only backs the branch git-tfs clone creates.
func (service *Service) resolveTFSRemote(executionContext context.Context, repositoryPath string, destinationBranch string, configuration CommandConfiguration) (string, string, error) {
	candidateRemoteIDs := []string{destinationBranch}
	if mappedRemoteID, mapped := configuration.RemoteIDFor(destinationBranch); mapped {
		candidateRemoteIDs = []string{mappedRemoteID}
	} else if destinationBranch == gitTFSDefaultBranchConstant {
		candidateRemoteIDs = append(candidateRemoteIDs, defaultRemoteIDConstant)
	}

	for _, remoteID := range candidateRemoteIDs {
		tfsRepositoryPath, lookupError := service.inspector.TFSRemoteRepository(executionContext, repositoryPath, remoteID)
		if lookupError != nil {
			return "", "", FatalError{Step: StepValidate, Message: fmt.Sprintf(tfsRemoteLookupTemplateConstant, remoteID), Cause: lookupError}
		}
		if len(tfsRepositoryPath) > 0 {
			return remoteID, tfsRepositoryPath, nil
		}
	}

	return "", "", FatalError{
		Step:    StepValidate,
		Message: fmt.Sprintf(tfsRemoteMissingTemplateConstant, destinationBranch, strings.Join(candidateRemoteIDs, remoteIDListSeparatorConstant)),
	}
}

func (service *Service) confirm(state runState, configuration CommandConfiguration) error {
	if configuration.AssumeYes {
		return nil
	}

	prompts := make([]string, 0, 2)
	if state.sourceUpstream.RemoteBranch != state.sourceBranch {
		prompts = append(prompts, fmt.Sprintf(upstreamMismatchPromptTemplateConstant, state.sourceBranch, state.sourceUpstream.RemoteTrackingName()))
	}
	if configuration.IsProtected(state.destinationBranch) {
		prompts = append(prompts, fmt.Sprintf(protectedBranchPromptTemplateConstant, state.sourceBranch, state.destinationBranch))
	}

	for _, prompt := range prompts {
		confirmed, promptError := service.prompter.Confirm(prompt)
		if promptError != nil {
			return promptError
		}
		if !confirmed {
			return ErrOperatorCancelled
		}
	}
	return nil
}

// runCommand executes one planned command and inspects the git directory for an unfinished rebase
// after every rebase-class command, whatever its exit status. An interrupted command is reported as is.
func (service *Service) runCommand(executionContext context.Context, state runState, plannedCommand PlannedCommand) error {
	details := execshell.CommandDetails{
		Arguments:        append([]string(nil), plannedCommand.Arguments...),
		WorkingDirectory: state.repositoryPath,
	}

	var executionError error
	switch plannedCommand.Tool {
	case execshell.CommandGitTFS:
		_, executionError = service.executor.ExecuteGitTFS(executionContext, details)
	default:
		_, executionError = service.executor.ExecuteGit(executionContext, details)
	}

	if executionError != nil && executionContext.Err() != nil {
		return service.commandFailure(plannedCommand, executionError)
	}

	if plannedCommand.CheckRebase {
		rebaseInProgress, inspectionError := service.inspector.RebaseInProgress(executionContext, state.repositoryPath)
		if inspectionError != nil {
			return FatalError{Step: plannedCommand.Step, Message: rebaseInspectionMessageConstant, Cause: inspectionError}
		}
		if rebaseInProgress {
			return RebaseConflictError{Step: plannedCommand.Step, Branch: plannedCommand.RebasedBranch}
		}
	}

	if executionError != nil {
		return service.commandFailure(plannedCommand, executionError)
	}
	return nil
}

func (service *Service) commandFailure(plannedCommand PlannedCommand, executionError error) error {
	return FatalError{
		Step:    plannedCommand.Step,
		Message: fmt.Sprintf(commandFailureTemplateConstant, plannedCommand.CommandLine()),
		Cause:   executionError,
	}
}

func (service *Service) logStepStarted(step StepName) {
	service.logger.Debug(stepStartedMessageConstant, zap.String(logFieldStepConstant, string(step)), zap.Int(logFieldStepNumberConstant, step.Number()))
}

func (service *Service) logStepCompleted(step StepName) {
	service.logger.Debug(stepCompletedMessageConstant, zap.String(logFieldStepConstant, string(step)), zap.Int(logFieldStepNumberConstant, step.Number()))
}
