package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testMessagesWorkingDirectoryConstant = "/workspace/repo"
)

func TestCommandMessageFormatterDescribesWorkflowCommands(testInstance *testing.T) {
	testCases := []struct {
		name            string
		command         ShellCommand
		result          ExecutionResult
		failure         error
		stage           messageStage
		expectedMessage string
	}{
		{
			name:            "fetch_with_references",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"fetch", "--prune", "origin", "feature"}, WorkingDirectory: testMessagesWorkingDirectoryConstant}},
			stage:           messageStageStart,
			expectedMessage: "Fetching feature from origin in /workspace/repo",
		},
		{
			name:            "fetch_without_remote",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"fetch", "--prune"}, WorkingDirectory: testMessagesWorkingDirectoryConstant}},
			stage:           messageStageStart,
			expectedMessage: "Fetching from all remotes in /workspace/repo",
		},
		{
			name:            "checkout",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"checkout", "master"}, WorkingDirectory: testMessagesWorkingDirectoryConstant}},
			stage:           messageStageSuccess,
			expectedMessage: "Switched /workspace/repo to branch master",
		},
		{
			name:            "rebase_failure_includes_stderr",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"rebase", "origin/master"}, WorkingDirectory: testMessagesWorkingDirectoryConstant}},
			result:          ExecutionResult{ExitCode: 1, StandardError: "CONFLICT (content)\n"},
			stage:           messageStageFailure,
			expectedMessage: "Failed to rebase current branch in /workspace/repo onto origin/master (exit code 1: CONFLICT (content))",
		},
		{
			name:            "force_push",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"push", "--force", "origin", "feature:feature"}, WorkingDirectory: testMessagesWorkingDirectoryConstant}},
			stage:           messageStageStart,
			expectedMessage: "Force pushing feature:feature to origin from /workspace/repo",
		},
		{
			name:            "push_with_notes",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"push", "origin", "master", "refs/notes/*:refs/notes/*"}, WorkingDirectory: testMessagesWorkingDirectoryConstant}},
			stage:           messageStageSuccess,
			expectedMessage: "Pushed master, refs/notes/*:refs/notes/* to origin from /workspace/repo",
		},
		{
			name:            "remote_branch_deletion",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"push", "origin", "--delete", "feature"}, WorkingDirectory: testMessagesWorkingDirectoryConstant}},
			stage:           messageStageStart,
			expectedMessage: "Deleting remote branch feature from origin in /workspace/repo",
		},
		{
			name:            "local_branch_force_deletion",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"branch", "-D", "feature"}}},
			stage:           messageStageStart,
			expectedMessage: "Force removing local branch feature in current directory",
		},
		{
			name:            "tfs_pull",
			command:         ShellCommand{Name: CommandGitTFS, Details: CommandDetails{Arguments: []string{"pull", "--rebase", "-i", "main"}, WorkingDirectory: testMessagesWorkingDirectoryConstant}},
			stage:           messageStageStart,
			expectedMessage: "Pulling TFS changesets for remote main into /workspace/repo",
		},
		{
			name:            "tfs_checkin_execution_failure",
			command:         ShellCommand{Name: CommandGitTFS, Details: CommandDetails{Arguments: []string{"rcheckin"}, WorkingDirectory: testMessagesWorkingDirectoryConstant}},
			failure:         errors.New("signal: interrupt"),
			stage:           messageStageExecutionFailure,
			expectedMessage: "Unable to check in commits from /workspace/repo to TFS remote default: signal: interrupt",
		},
		{
			name:            "generic_git_command",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"--version"}}},
			stage:           messageStageStart,
			expectedMessage: "Running git --version",
		},
	}

	formatter := CommandMessageFormatter{}
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			message := formatter.buildMessage(testCase.command, testCase.result, testCase.failure, testCase.stage)
			require.Equal(testInstance, testCase.expectedMessage, message)
		})
	}
}

func TestCommandFailedErrorUsesFailureMessage(testInstance *testing.T) {
	commandError := CommandFailedError{
		Command: ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"checkout", "feature"}}},
		Result:  ExecutionResult{ExitCode: 128, StandardError: "pathspec did not match"},
	}

	require.Equal(testInstance, "Failed to switch current directory to branch feature (exit code 128: pathspec did not match)", commandError.Error())
}
