package merge_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/tfs-merge/internal/merge"
)

func TestDefaultConfigurationValuesArePrefixed(testInstance *testing.T) {
	values := merge.DefaultConfigurationValues("merge")
	require.Equal(testInstance, "git-tfs", values["merge.tfs_executable"])
	require.Equal(testInstance, []string{"master", "main"}, values["merge.protected_branches"])
	require.Equal(testInstance, "refs/notes/*:refs/notes/*", values["merge.notes_refspec"])
	require.Equal(testInstance, true, values["merge.require_clean"])
	require.Equal(testInstance, false, values["merge.assume_yes"])
	require.Equal(testInstance, false, values["merge.keep_source_branch"])
	require.Contains(testInstance, values, "merge.tfs_remotes")

	unprefixed := merge.DefaultConfigurationValues("")
	require.Contains(testInstance, unprefixed, "tfs_executable")
}

func TestCommandConfigurationSanitize(testInstance *testing.T) {
	configuration := merge.CommandConfiguration{
		TFSExecutable:     "  ",
		TFSRemotes:        map[string]string{" develop ": " dev ", "": "ignored", "release": " "},
		ProtectedBranches: []string{" master ", "", "release"},
		NotesRefspec:      "  ",
	}

	sanitized := configuration.Sanitize()
	require.Equal(testInstance, "git-tfs", sanitized.TFSExecutable)
	require.Equal(testInstance, map[string]string{"develop": "dev"}, sanitized.TFSRemotes)
	require.Equal(testInstance, []string{"master", "release"}, sanitized.ProtectedBranches)
	require.Empty(testInstance, sanitized.NotesRefspec)
}

func TestCommandConfigurationLookups(testInstance *testing.T) {
	configuration := merge.CommandConfiguration{
		TFSRemotes:        map[string]string{"release/2.0": "release", "develop": "dev"},
		ProtectedBranches: []string{"master"},
	}

	remoteID, mapped := configuration.RemoteIDFor("Release/2.0")
	require.True(testInstance, mapped)
	require.Equal(testInstance, "release", remoteID)

	_, mapped = configuration.RemoteIDFor("feature")
	require.False(testInstance, mapped)

	require.True(testInstance, configuration.IsProtected("master"))
	require.False(testInstance, configuration.IsProtected("Master"))
}
