// Package flags provides helpers for binding standardized execution flags to Cobra commands.
package flags

import "github.com/spf13/cobra"

const (
	// DryRunFlagName exposes the shared dry-run flag name.
	DryRunFlagName = "dry-run"
	// DryRunFlagUsage describes the shared dry-run flag purpose.
	DryRunFlagUsage = "Validate and print the planned commands without running them"
	// AssumeYesFlagName exposes the shared assume-yes flag name.
	AssumeYesFlagName = "yes"
	// AssumeYesFlagShorthand provides the shorthand for the assume-yes flag.
	AssumeYesFlagShorthand = "y"
	// AssumeYesFlagUsage describes the shared assume-yes flag purpose.
	AssumeYesFlagUsage = "Automatically confirm prompts"
	// KeepBranchFlagName exposes the keep-branch flag name.
	KeepBranchFlagName = "keep-branch"
	// KeepBranchFlagUsage describes the keep-branch flag purpose.
	KeepBranchFlagUsage = "Keep the local and remote source branch after a successful check-in"
)

// ExecutionDefaults describes default flag values shared across commands.
type ExecutionDefaults struct {
	DryRun     bool
	AssumeYes  bool
	KeepBranch bool
}

// ExecutionFlagValues stores parsed execution flag values.
type ExecutionFlagValues struct {
	DryRun     bool
	AssumeYes  bool
	KeepBranch bool
}

// BindExecutionFlags attaches the execution toggles to the provided command.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionDefaults) *ExecutionFlagValues {
	values := &ExecutionFlagValues{}
	if command == nil {
		return values
	}

	flagSet := command.Flags()
	AddToggleFlag(flagSet, &values.DryRun, DryRunFlagName, "", defaults.DryRun, DryRunFlagUsage)
	AddToggleFlag(flagSet, &values.AssumeYes, AssumeYesFlagName, AssumeYesFlagShorthand, defaults.AssumeYes, AssumeYesFlagUsage)
	AddToggleFlag(flagSet, &values.KeepBranch, KeepBranchFlagName, "", defaults.KeepBranch, KeepBranchFlagUsage)

	return values
}

// ToggleChanged reports whether the operator set the named flag explicitly.
func ToggleChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}
	flag := command.Flags().Lookup(flagName)
	return flag != nil && flag.Changed
}
