package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	activityFailureTemplateConstant         = "Failed to %s (exit code %d%s)"
	activityExecutionFailureTemplateConst   = "Unable to %s: %s"
	activityPhraseTemplateConstant          = "%s %s"
	forcedProgressiveTemplateConstant       = "Force %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	standardErrorSuffixTemplateConstant     = ": %s"
	argumentSeparatorConstant               = " "
	referenceSeparatorConstant              = ", "
	flagPrefixConstant                      = "-"
	currentDirectoryLabelConstant           = "current directory"
	unknownValueLabelConstant               = "unknown"
	unknownFailureMessageConstant           = "unknown error"
	allRemotesLabelConstant                 = "all remotes"
	defaultTFSRemoteLabelConstant           = "default"
)

const (
	deleteFlagConstant      = "--delete"
	lowerDeleteFlagConstant = "-d"
	forceDeleteFlagConstant = "-D"
	forceFlagConstant       = "--force"
	remoteIDFlagConstant    = "-i"
)

// valuedFlags lists the flags whose following argument belongs to the flag rather than the positional list.
var valuedFlags = map[string]struct{}{
	deleteFlagConstant:   {},
	remoteIDFlagConstant: {},
}

type verbForms struct {
	progressive string
	past        string
	base        string
}

var (
	reviewVerb  = verbForms{progressive: "Reviewing", past: "Reviewed", base: "review"}
	switchVerb  = verbForms{progressive: "Switching", past: "Switched", base: "switch"}
	removeVerb  = verbForms{progressive: "Removing", past: "Removed", base: "remove"}
	fetchVerb   = verbForms{progressive: "Fetching", past: "Fetched", base: "fetch"}
	rebaseVerb  = verbForms{progressive: "Rebasing", past: "Rebased", base: "rebase"}
	pushVerb    = verbForms{progressive: "Pushing", past: "Pushed", base: "push"}
	deleteVerb  = verbForms{progressive: "Deleting", past: "Deleted", base: "delete"}
	pullVerb    = verbForms{progressive: "Pulling", past: "Pulled", base: "pull"}
	checkInVerb = verbForms{progressive: "Checking in", past: "Checked in", base: "check in"}
)

// commandActivity is a recognized command rendered as a verb acting on a subject.
type commandActivity struct {
	verb    verbForms
	subject string
	forced  bool
}

func (activity commandActivity) progressive() string {
	phrase := fmt.Sprintf(activityPhraseTemplateConstant, activity.verb.progressive, activity.subject)
	if activity.forced {
		return fmt.Sprintf(forcedProgressiveTemplateConstant, strings.ToLower(phrase[:1])+phrase[1:])
	}
	return phrase
}

func (activity commandActivity) past() string {
	return fmt.Sprintf(activityPhraseTemplateConstant, activity.verb.past, activity.subject)
}

func (activity commandActivity) goal() string {
	return fmt.Sprintf(activityPhraseTemplateConstant, activity.verb.base, activity.subject)
}

// parsedArguments splits a subcommand invocation into positional values and flags.
type parsedArguments struct {
	location   string
	positional []string
	flags      map[string]string
}

func parseArguments(command ShellCommand) parsedArguments {
	parsed := parsedArguments{
		location:   strings.TrimSpace(command.Details.WorkingDirectory),
		positional: []string{},
		flags:      map[string]string{},
	}
	if len(parsed.location) == 0 {
		parsed.location = currentDirectoryLabelConstant
	}

	arguments := command.Details.Arguments
	for index := 1; index < len(arguments); index++ {
		argument := strings.TrimSpace(arguments[index])
		switch {
		case len(argument) == 0:
		case strings.HasPrefix(argument, flagPrefixConstant):
			value := ""
			if _, valued := valuedFlags[argument]; valued && index+1 < len(arguments) {
				index++
				value = strings.TrimSpace(arguments[index])
			}
			parsed.flags[argument] = value
		default:
			parsed.positional = append(parsed.positional, argument)
		}
	}
	return parsed
}

func (parsed parsedArguments) has(flag string) bool {
	_, present := parsed.flags[flag]
	return present
}

func (parsed parsedArguments) positionalAt(index int, fallback string) string {
	if index < len(parsed.positional) {
		return parsed.positional[index]
	}
	return fallback
}

type activityDescriber func(parsedArguments) (commandActivity, bool)

var activityCatalog = map[CommandName]map[string]activityDescriber{
	CommandGit: {
		"status":   describeStatus,
		"checkout": describeCheckout,
		"branch":   describeBranchDeletion,
		"fetch":    describeFetch,
		"rebase":   describeRebase,
		"push":     describePush,
	},
	CommandGitTFS: {
		"pull":     describeTFSPull,
		"rcheckin": describeTFSCheckin,
	},
}

func describeStatus(parsed parsedArguments) (commandActivity, bool) {
	return commandActivity{verb: reviewVerb, subject: "working tree status in " + parsed.location}, true
}

func describeCheckout(parsed parsedArguments) (commandActivity, bool) {
	subject := fmt.Sprintf("%s to branch %s", parsed.location, parsed.positionalAt(0, unknownValueLabelConstant))
	return commandActivity{verb: switchVerb, subject: subject}, true
}

func describeBranchDeletion(parsed parsedArguments) (commandActivity, bool) {
	forced := parsed.has(forceDeleteFlagConstant)
	if !forced && !parsed.has(deleteFlagConstant) && !parsed.has(lowerDeleteFlagConstant) {
		return commandActivity{}, false
	}
	subject := fmt.Sprintf("local branch %s in %s", parsed.positionalAt(0, unknownValueLabelConstant), parsed.location)
	return commandActivity{verb: removeVerb, subject: subject, forced: forced || parsed.has(forceFlagConstant)}, true
}

func describeFetch(parsed parsedArguments) (commandActivity, bool) {
	remoteName := parsed.positionalAt(0, allRemotesLabelConstant)
	subject := fmt.Sprintf("from %s in %s", remoteName, parsed.location)
	if len(parsed.positional) > 1 {
		subject = strings.Join(parsed.positional[1:], referenceSeparatorConstant) + argumentSeparatorConstant + subject
	}
	return commandActivity{verb: fetchVerb, subject: subject}, true
}

func describeRebase(parsed parsedArguments) (commandActivity, bool) {
	subject := fmt.Sprintf("current branch in %s onto %s", parsed.location, parsed.positionalAt(0, unknownValueLabelConstant))
	return commandActivity{verb: rebaseVerb, subject: subject}, true
}

func describePush(parsed parsedArguments) (commandActivity, bool) {
	remoteName := parsed.positionalAt(0, unknownValueLabelConstant)
	if deletedBranch := parsed.flags[deleteFlagConstant]; len(deletedBranch) > 0 {
		subject := fmt.Sprintf("remote branch %s from %s in %s", deletedBranch, remoteName, parsed.location)
		return commandActivity{verb: deleteVerb, subject: subject}, true
	}

	references := unknownValueLabelConstant
	if len(parsed.positional) > 1 {
		references = strings.Join(parsed.positional[1:], referenceSeparatorConstant)
	}
	subject := fmt.Sprintf("%s to %s from %s", references, remoteName, parsed.location)
	return commandActivity{verb: pushVerb, subject: subject, forced: parsed.has(forceFlagConstant)}, true
}

func describeTFSPull(parsed parsedArguments) (commandActivity, bool) {
	subject := fmt.Sprintf("TFS changesets for remote %s into %s", tfsRemoteLabel(parsed), parsed.location)
	return commandActivity{verb: pullVerb, subject: subject}, true
}

func describeTFSCheckin(parsed parsedArguments) (commandActivity, bool) {
	subject := fmt.Sprintf("commits from %s to TFS remote %s", parsed.location, tfsRemoteLabel(parsed))
	return commandActivity{verb: checkInVerb, subject: subject}, true
}

func tfsRemoteLabel(parsed parsedArguments) string {
	if remoteID := parsed.flags[remoteIDFlagConstant]; len(remoteID) > 0 {
		return remoteID
	}
	return defaultTFSRemoteLabelConstant
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage describes a command that exited with status zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage describes a command that exited with a non-zero status.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage describes a command that could not be run at all.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	activity, recognized := lookupActivity(command)
	if !recognized {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch stage {
	case messageStageStart:
		return activity.progressive()
	case messageStageSuccess:
		return activity.past()
	case messageStageFailure:
		return fmt.Sprintf(activityFailureTemplateConstant, activity.goal(), result.ExitCode, standardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(activityExecutionFailureTemplateConst, activity.goal(), failureReason(failure))
	}
}

func lookupActivity(command ShellCommand) (commandActivity, bool) {
	if len(command.Details.Arguments) == 0 {
		return commandActivity{}, false
	}
	describer, known := activityCatalog[command.Name][strings.TrimSpace(command.Details.Arguments[0])]
	if !known {
		return commandActivity{}, false
	}
	return describer(parseArguments(command))
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	label := strings.Join(append([]string{string(command.Name)}, command.Details.Arguments...), argumentSeparatorConstant)
	if workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(workingDirectory) > 0 {
		label += fmt.Sprintf(workingDirectorySuffixTemplateConstant, workingDirectory)
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, label)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, label)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, label, result.ExitCode, standardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, label, failureReason(failure))
	}
}

func standardErrorSuffix(standardError string) string {
	trimmed := strings.TrimSpace(standardError)
	if len(trimmed) == 0 {
		return ""
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmed)
}

func failureReason(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}
