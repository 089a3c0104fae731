package merge

import (
	"github.com/kballard/go-shellquote"

	"github.com/temirov/tfs-merge/internal/execshell"
	"github.com/temirov/tfs-merge/internal/gitrepo"
)

const (
	gitCommandNameConstant           = "git"
	gitTFSRecoveryCommandConstant    = "tfs"
	gitCheckoutSubcommandConstant    = "checkout"
	gitFetchSubcommandConstant       = "fetch"
	gitRebaseSubcommandConstant      = "rebase"
	gitPushSubcommandConstant        = "push"
	gitBranchSubcommandConstant      = "branch"
	gitStatusSubcommandConstant      = "status"
	gitPorcelainFlagConstant         = "--porcelain"
	gitForceFlagConstant             = "--force"
	gitDeleteFlagConstant            = "--delete"
	gitForceDeleteBranchFlagConstant = "-D"
	gitTFSPullSubcommandConstant     = "pull"
	gitTFSRebaseFlagConstant         = "--rebase"
	gitTFSRemoteIDFlagConstant       = "-i"
	gitTFSCheckinSubcommandConstant  = "rcheckin"
	refspecSeparatorConstant         = ":"
)

// StepName identifies one of the ordered workflow steps.
type StepName string

// Workflow steps in execution order.
const (
	StepValidate                StepName = "validate"
	StepConfirm                 StepName = "confirm"
	StepSyncDestination         StepName = "sync-destination"
	StepPullFromTFS             StepName = "pull-from-tfs"
	StepPushDestination         StepName = "push-destination"
	StepRebaseSource            StepName = "rebase-source"
	StepReplayToTFS             StepName = "replay-to-tfs"
	StepFinalResync             StepName = "final-resync"
	StepPushResyncedDestination StepName = "push-resynced-destination"
	StepCleanup                 StepName = "cleanup"
)

// Phase groups steps by how their failures are reported.
type Phase string

// Supported phases.
const (
	PhasePreReplay  Phase = "pre-replay"
	PhasePostReplay Phase = "post-replay"
	PhaseCleanup    Phase = "cleanup"
)

var orderedSteps = []StepName{
	StepValidate,
	StepConfirm,
	StepSyncDestination,
	StepPullFromTFS,
	StepPushDestination,
	StepRebaseSource,
	StepReplayToTFS,
	StepFinalResync,
	StepPushResyncedDestination,
	StepCleanup,
}

// Phase reports which failure policy applies to the step.
// Once changesets reach TFS a failure can no longer be fixed by rerunning the workflow.
func (step StepName) Phase() Phase {
	switch step {
	case StepFinalResync, StepPushResyncedDestination:
		return PhasePostReplay
	case StepCleanup:
		return PhaseCleanup
	default:
		return PhasePreReplay
	}
}

// Number returns the one-based position of the step, or zero for unknown steps.
func (step StepName) Number() int {
	for index, candidate := range orderedSteps {
		if candidate == step {
			return index + 1
		}
	}
	return 0
}

// PlannedCommand is a single git or git-tfs invocation performed by a workflow step.
// Executable names a git-tfs program other than the one on PATH.
type PlannedCommand struct {
	Step           StepName
	Tool           execshell.CommandName
	Executable     string
	Arguments      []string
	CheckRebase    bool
	RebasedBranch  string
	CheckoutTarget string
}

// CommandLine renders the command so an operator can paste it into a shell.
// git-tfs commands are spelled through the git subcommand form unless another executable is configured.
func (command PlannedCommand) CommandLine() string {
	words := []string{gitCommandNameConstant}
	if command.Tool == execshell.CommandGitTFS {
		if len(command.Executable) > 0 && command.Executable != defaultTFSExecutableConstant {
			words = []string{command.Executable}
		} else {
			words = append(words, gitTFSRecoveryCommandConstant)
		}
	}
	words = append(words, command.Arguments...)
	return shellquote.Join(words...)
}

// runState carries the branch and remote facts gathered during validation.
type runState struct {
	repositoryPath      string
	sourceBranch        string
	sourceUpstream      gitrepo.BranchReference
	destinationBranch   string
	destinationUpstream gitrepo.BranchReference
	tfsRemoteID         string
	tfsRepositoryPath   string
	tfsExecutable       string
	notesRefspec        string
	keepSourceBranch    bool
}

// buildPlan lists every mutating command of steps three through ten in order.
func (state runState) buildPlan() []PlannedCommand {
	plan := []PlannedCommand{
		state.checkoutCommand(StepSyncDestination, state.destinationBranch),
		{
			Step:      StepSyncDestination,
			Tool:      execshell.CommandGit,
			Arguments: []string{gitFetchSubcommandConstant, state.destinationUpstream.Remote},
		},
		{
			Step:          StepSyncDestination,
			Tool:          execshell.CommandGit,
			Arguments:     []string{gitRebaseSubcommandConstant, state.destinationUpstream.RemoteTrackingName()},
			CheckRebase:   true,
			RebasedBranch: state.destinationBranch,
		},
		state.tfsPullCommand(StepPullFromTFS),
		state.destinationPushCommand(StepPushDestination),
		state.checkoutCommand(StepRebaseSource, state.sourceBranch),
		{
			Step:          StepRebaseSource,
			Tool:          execshell.CommandGit,
			Arguments:     []string{gitRebaseSubcommandConstant, state.destinationBranch},
			CheckRebase:   true,
			RebasedBranch: state.sourceBranch,
		},
		{
			Step: StepRebaseSource,
			Tool: execshell.CommandGit,
			Arguments: []string{
				gitPushSubcommandConstant,
				gitForceFlagConstant,
				state.sourceUpstream.Remote,
				state.sourceBranch + refspecSeparatorConstant + state.sourceUpstream.RemoteBranch,
			},
		},
		{
			Step:          StepReplayToTFS,
			Tool:          execshell.CommandGitTFS,
			Executable:    state.tfsExecutable,
			Arguments:     []string{gitTFSCheckinSubcommandConstant, gitTFSRemoteIDFlagConstant, state.tfsRemoteID},
			CheckRebase:   true,
			RebasedBranch: state.sourceBranch,
		},
		state.checkoutCommand(StepFinalResync, state.destinationBranch),
		state.tfsPullCommand(StepFinalResync),
		state.destinationPushCommand(StepPushResyncedDestination),
	}

	if state.keepSourceBranch {
		return plan
	}

	return append(plan,
		state.checkoutCommand(StepCleanup, state.destinationBranch),
		PlannedCommand{
			Step:      StepCleanup,
			Tool:      execshell.CommandGit,
			Arguments: []string{gitBranchSubcommandConstant, gitForceDeleteBranchFlagConstant, state.sourceBranch},
		},
		PlannedCommand{
			Step:      StepCleanup,
			Tool:      execshell.CommandGit,
			Arguments: []string{gitPushSubcommandConstant, state.sourceUpstream.Remote, gitDeleteFlagConstant, state.sourceUpstream.RemoteBranch},
		},
	)
}

func (state runState) checkoutCommand(step StepName, branchName string) PlannedCommand {
	return PlannedCommand{
		Step:           step,
		Tool:           execshell.CommandGit,
		Arguments:      []string{gitCheckoutSubcommandConstant, branchName},
		CheckoutTarget: branchName,
	}
}

func (state runState) tfsPullCommand(step StepName) PlannedCommand {
	return PlannedCommand{
		Step:          step,
		Tool:          execshell.CommandGitTFS,
		Executable:    state.tfsExecutable,
		Arguments:     []string{gitTFSPullSubcommandConstant, gitTFSRebaseFlagConstant, gitTFSRemoteIDFlagConstant, state.tfsRemoteID},
		CheckRebase:   true,
		RebasedBranch: state.destinationBranch,
	}
}

func (state runState) destinationPushCommand(step StepName) PlannedCommand {
	destinationRefspec := state.destinationBranch
	if state.destinationUpstream.RemoteBranch != state.destinationBranch {
		destinationRefspec = state.destinationBranch + refspecSeparatorConstant + state.destinationUpstream.RemoteBranch
	}

	arguments := []string{gitPushSubcommandConstant, state.destinationUpstream.Remote, destinationRefspec}
	if len(state.notesRefspec) > 0 {
		arguments = append(arguments, state.notesRefspec)
	}
	return PlannedCommand{Step: step, Tool: execshell.CommandGit, Arguments: arguments}
}

// recoveryCommands renders the commands from failedIndex onward.
// A checkout of the branch that is already checked out at that point is omitted.
func recoveryCommands(plan []PlannedCommand, failedIndex int) []string {
	if failedIndex < 0 || failedIndex >= len(plan) {
		return nil
	}

	checkedOutBranch := ""
	for _, command := range plan[:failedIndex] {
		if len(command.CheckoutTarget) > 0 {
			checkedOutBranch = command.CheckoutTarget
		}
	}

	commandLines := make([]string, 0, len(plan)-failedIndex)
	for _, command := range plan[failedIndex:] {
		if len(command.CheckoutTarget) > 0 {
			if command.CheckoutTarget == checkedOutBranch {
				continue
			}
			checkedOutBranch = command.CheckoutTarget
		}
		commandLines = append(commandLines, command.CommandLine())
	}
	return commandLines
}
