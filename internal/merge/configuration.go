package merge

import "strings"

const (
	defaultTFSExecutableConstant = "git-tfs"
	defaultNotesRefspecConstant  = "refs/notes/*:refs/notes/*"
	defaultRemoteIDConstant      = "default"
	masterBranchNameConstant     = "master"
	mainBranchNameConstant       = "main"

	tfsExecutableConfigKeyConstant     = "tfs_executable"
	tfsRemotesConfigKeyConstant        = "tfs_remotes"
	protectedBranchesConfigKeyConstant = "protected_branches"
	notesRefspecConfigKeyConstant      = "notes_refspec"
	requireCleanConfigKeyConstant      = "require_clean"
	assumeYesConfigKeyConstant         = "assume_yes"
	keepSourceBranchConfigKeyConstant  = "keep_source_branch"
	configurationKeySeparatorConstant  = "."
)

// CommandConfiguration captures persisted settings for the merge workflow.
type CommandConfiguration struct {
	TFSExecutable     string            `mapstructure:"tfs_executable" yaml:"tfs_executable"`
	TFSRemotes        map[string]string `mapstructure:"tfs_remotes" yaml:"tfs_remotes"`
	ProtectedBranches []string          `mapstructure:"protected_branches" yaml:"protected_branches"`
	NotesRefspec      string            `mapstructure:"notes_refspec" yaml:"notes_refspec"`
	RequireClean      bool              `mapstructure:"require_clean" yaml:"require_clean"`
	AssumeYes         bool              `mapstructure:"assume_yes" yaml:"assume_yes"`
	KeepSourceBranch  bool              `mapstructure:"keep_source_branch" yaml:"keep_source_branch"`
}

// DefaultCommandConfiguration returns the settings used when nothing is configured.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		TFSExecutable:     defaultTFSExecutableConstant,
		TFSRemotes:        map[string]string{},
		ProtectedBranches: []string{masterBranchNameConstant, mainBranchNameConstant},
		NotesRefspec:      defaultNotesRefspecConstant,
		RequireClean:      true,
		AssumeYes:         false,
		KeepSourceBranch:  false,
	}
}

// DefaultConfigurationValues exposes the defaults keyed for the configuration loader.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	qualify := func(key string) string {
		trimmedPrefix := strings.TrimSpace(prefix)
		if len(trimmedPrefix) == 0 {
			return key
		}
		return trimmedPrefix + configurationKeySeparatorConstant + key
	}

	return map[string]any{
		qualify(tfsExecutableConfigKeyConstant):     defaults.TFSExecutable,
		qualify(tfsRemotesConfigKeyConstant):        defaults.TFSRemotes,
		qualify(protectedBranchesConfigKeyConstant): defaults.ProtectedBranches,
		qualify(notesRefspecConfigKeyConstant):      defaults.NotesRefspec,
		qualify(requireCleanConfigKeyConstant):      defaults.RequireClean,
		qualify(assumeYesConfigKeyConstant):         defaults.AssumeYes,
		qualify(keepSourceBranchConfigKeyConstant):  defaults.KeepSourceBranch,
	}
}

// Sanitize trims values and restores the git-tfs executable when it is blank.
// An empty notes refspec stays empty and disables pushing annotation refs.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.TFSExecutable = strings.TrimSpace(configuration.TFSExecutable)
	if len(sanitized.TFSExecutable) == 0 {
		sanitized.TFSExecutable = defaultTFSExecutableConstant
	}
	sanitized.NotesRefspec = strings.TrimSpace(configuration.NotesRefspec)
	sanitized.ProtectedBranches = sanitizeBranchNames(configuration.ProtectedBranches)

	sanitized.TFSRemotes = make(map[string]string, len(configuration.TFSRemotes))
	for branchName, remoteID := range configuration.TFSRemotes {
		trimmedBranchName := strings.TrimSpace(branchName)
		trimmedRemoteID := strings.TrimSpace(remoteID)
		if len(trimmedBranchName) == 0 || len(trimmedRemoteID) == 0 {
			continue
		}
		sanitized.TFSRemotes[trimmedBranchName] = trimmedRemoteID
	}

	return sanitized
}

// RemoteIDFor returns the git-tfs remote id mapped to the destination branch.
// Keys are compared case-insensitively because the configuration loader lowercases map keys.
func (configuration CommandConfiguration) RemoteIDFor(destinationBranch string) (string, bool) {
	if remoteID, exists := configuration.TFSRemotes[destinationBranch]; exists {
		return remoteID, true
	}
	for branchName, remoteID := range configuration.TFSRemotes {
		if strings.EqualFold(branchName, destinationBranch) {
			return remoteID, true
		}
	}
	return "", false
}

// IsProtected reports whether merging into the branch requires confirmation.
func (configuration CommandConfiguration) IsProtected(branchName string) bool {
	for _, protectedBranch := range configuration.ProtectedBranches {
		if protectedBranch == branchName {
			return true
		}
	}
	return false
}

func sanitizeBranchNames(raw []string) []string {
	sanitized := make([]string, 0, len(raw))
	for _, candidate := range raw {
		trimmed := strings.TrimSpace(candidate)
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	return sanitized
}
