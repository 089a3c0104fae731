package merge_test

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/temirov/tfs-merge/internal/execshell"
	"github.com/temirov/tfs-merge/internal/gitrepo"
	"github.com/temirov/tfs-merge/internal/merge"
	"github.com/temirov/tfs-merge/internal/ui"
)

const (
	testRepositoryPathConstant          = "/tmp/tfs-merge-repository"
	testSourceBranchConstant            = "feature/x"
	testDestinationBranchConstant       = "develop"
	testRemoteNameConstant              = "origin"
	testTFSRepositoryPathConstant       = "$/Project/Develop"
	testMasterTFSRepositoryPathConstant = "$/Project/Main"
	testGitTFSExecutableConstant        = "git-tfs"
	testCommandFailureOutputConstant    = "remote rejected"
	testStatusCommandLineConstant       = "git status --porcelain"
	commandLineSeparatorConstant        = " "
)

var errToolMissing = errors.New("executable file not found in $PATH")

// scriptedOutcome overrides the behaviour of a command line on a given occurrence.
// A zero occurrence matches every invocation.
type scriptedOutcome struct {
	commandLine       string
	occurrence        int
	fail              bool
	leaveRebaseMarker bool
	interrupt         bool
}

type recordingGitExecutor struct {
	inspector       *stubRepositoryInspector
	statusOutput    string
	outcomes        []scriptedOutcome
	recordedLines   []string
	recordedDetails []execshell.CommandDetails
	occurrences     map[string]int
	cancel          context.CancelFunc
}

func (executor *recordingGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return executor.execute(executionContext, execshell.CommandGit, details)
}

func (executor *recordingGitExecutor) ExecuteGitTFS(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return executor.execute(executionContext, execshell.CommandGitTFS, details)
}

func (executor *recordingGitExecutor) execute(executionContext context.Context, commandName execshell.CommandName, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	if executor.occurrences == nil {
		executor.occurrences = map[string]int{}
	}

	commandLine := strings.Join(append([]string{string(commandName)}, details.Arguments...), commandLineSeparatorConstant)
	executor.recordedLines = append(executor.recordedLines, commandLine)
	executor.recordedDetails = append(executor.recordedDetails, details)
	executor.occurrences[commandLine]++

	for _, outcome := range executor.outcomes {
		if outcome.commandLine != commandLine {
			continue
		}
		if outcome.occurrence != 0 && outcome.occurrence != executor.occurrences[commandLine] {
			continue
		}
		if outcome.leaveRebaseMarker && executor.inspector != nil {
			executor.inspector.rebaseInProgress = true
		}
		if outcome.interrupt && executor.cancel != nil {
			executor.cancel()
			return execshell.ExecutionResult{}, execshell.CommandExecutionError{
				Command: execshell.ShellCommand{Name: commandName, Details: details},
				Cause:   executionContext.Err(),
			}
		}
		if outcome.fail {
			failedResult := execshell.ExecutionResult{ExitCode: 1, StandardError: testCommandFailureOutputConstant}
			return execshell.ExecutionResult{}, execshell.CommandFailedError{
				Command: execshell.ShellCommand{Name: commandName, Details: details},
				Result:  failedResult,
			}
		}
	}

	if commandLine == testStatusCommandLineConstant {
		return execshell.ExecutionResult{StandardOutput: executor.statusOutput}, nil
	}
	return execshell.ExecutionResult{}, nil
}

func (executor *recordingGitExecutor) mutatingLines() []string {
	mutating := make([]string, 0, len(executor.recordedLines))
	for _, commandLine := range executor.recordedLines {
		if commandLine == testStatusCommandLineConstant {
			continue
		}
		mutating = append(mutating, commandLine)
	}
	return mutating
}

type stubRepositoryInspector struct {
	currentBranch      string
	currentBranchError error
	existingBranches   map[string]bool
	upstreams          map[string]gitrepo.BranchReference
	tfsRemotes         map[string]string
	rebaseInProgress   bool
	rebaseChecks       int
}

func (inspector *stubRepositoryInspector) CurrentBranch(context.Context, string) (string, error) {
	if inspector.currentBranchError != nil {
		return "", inspector.currentBranchError
	}
	return inspector.currentBranch, nil
}

func (inspector *stubRepositoryInspector) BranchExists(_ context.Context, _ string, branchName string) (bool, error) {
	return inspector.existingBranches[branchName], nil
}

func (inspector *stubRepositoryInspector) BranchUpstream(_ context.Context, _ string, branchName string) (gitrepo.BranchReference, bool, error) {
	upstream, configured := inspector.upstreams[branchName]
	return upstream, configured, nil
}

func (inspector *stubRepositoryInspector) TFSRemoteRepository(_ context.Context, _ string, remoteID string) (string, error) {
	return inspector.tfsRemotes[remoteID], nil
}

func (inspector *stubRepositoryInspector) RebaseInProgress(executionContext context.Context, _ string) (bool, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return false, contextError
	}
	inspector.rebaseChecks++
	return inspector.rebaseInProgress, nil
}

type stubToolLocator struct {
	available map[string]bool
}

func (locator stubToolLocator) LookPath(executable string) (string, error) {
	if locator.available[executable] {
		return "/usr/local/bin/" + executable, nil
	}
	return "", errToolMissing
}

type scriptedPrompter struct {
	answers []bool
	prompts []string
}

func (prompter *scriptedPrompter) Confirm(prompt string) (bool, error) {
	prompter.prompts = append(prompter.prompts, prompt)
	if len(prompter.answers) == 0 {
		return false, nil
	}
	answer := prompter.answers[0]
	prompter.answers = prompter.answers[1:]
	return answer, nil
}

type workflowFixture struct {
	executor  *recordingGitExecutor
	inspector *stubRepositoryInspector
	locator   stubToolLocator
	prompter  *scriptedPrompter
}

func newWorkflowFixture() *workflowFixture {
	inspector := &stubRepositoryInspector{
		currentBranch: testSourceBranchConstant,
		existingBranches: map[string]bool{
			testSourceBranchConstant:      true,
			testDestinationBranchConstant: true,
		},
		upstreams: map[string]gitrepo.BranchReference{
			testSourceBranchConstant:      {Name: testSourceBranchConstant, Remote: testRemoteNameConstant, RemoteBranch: testSourceBranchConstant},
			testDestinationBranchConstant: {Name: testDestinationBranchConstant, Remote: testRemoteNameConstant, RemoteBranch: testDestinationBranchConstant},
		},
		tfsRemotes: map[string]string{testDestinationBranchConstant: testTFSRepositoryPathConstant},
	}
	return &workflowFixture{
		executor:  &recordingGitExecutor{inspector: inspector},
		inspector: inspector,
		locator:   stubToolLocator{available: map[string]bool{testGitTFSExecutableConstant: true}},
		prompter:  &scriptedPrompter{},
	}
}

func (fixture *workflowFixture) dependencies() merge.Dependencies {
	return merge.Dependencies{
		GitExecutor:         fixture.executor,
		RepositoryInspector: fixture.inspector,
		ToolLocator:         fixture.locator,
		Prompter:            fixture.prompter,
	}
}

func (fixture *workflowFixture) prompterFactory() merge.PrompterFactory {
	return func(io.Reader, io.Writer) ui.ConfirmationPrompter {
		return fixture.prompter
	}
}

func defaultOptions() merge.Options {
	return merge.Options{
		RepositoryPath:    testRepositoryPathConstant,
		DestinationBranch: testDestinationBranchConstant,
		Configuration:     merge.DefaultCommandConfiguration(),
	}
}

// successfulCommandLines lists what a clean run against the default fixture executes.
func successfulCommandLines() []string {
	return []string{
		"git status --porcelain",
		"git checkout develop",
		"git fetch origin",
		"git rebase origin/develop",
		"git-tfs pull --rebase -i develop",
		"git push origin develop refs/notes/*:refs/notes/*",
		"git checkout feature/x",
		"git rebase develop",
		"git push --force origin feature/x:feature/x",
		"git-tfs rcheckin -i develop",
		"git checkout develop",
		"git-tfs pull --rebase -i develop",
		"git push origin develop refs/notes/*:refs/notes/*",
		"git checkout develop",
		"git branch -D feature/x",
		"git push origin --delete feature/x",
	}
}
