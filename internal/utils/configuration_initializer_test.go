package utils_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/tfs-merge/internal/utils"
)

const (
	testApplicationNameConstant = "tfs-merge"
)

type initializerFixture struct {
	Merge initializerMergeFixture `yaml:"merge"`
}

type initializerMergeFixture struct {
	ProtectedBranches []string `yaml:"protected_branches"`
	RequireClean      bool     `yaml:"require_clean"`
}

func newTestInitializer(workingDirectory string, userConfigurationDirectory string) *utils.ConfigurationInitializer {
	initializer := utils.NewConfigurationInitializer(testApplicationNameConstant)
	initializer.WorkingDirectoryProvider = func() (string, error) { return workingDirectory, nil }
	initializer.UserConfigDirectoryProvider = func() (string, error) { return userConfigurationDirectory, nil }
	return initializer
}

func TestParseInitializationScope(testInstance *testing.T) {
	testCases := []struct {
		name          string
		rawScope      string
		expectedScope utils.InitializationScope
		expectError   bool
	}{
		{name: "local", rawScope: "local", expectedScope: utils.InitializationScopeLocal},
		{name: "user_mixed_case", rawScope: " User ", expectedScope: utils.InitializationScopeUser},
		{name: "unsupported", rawScope: "global", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			scope, parseError := utils.ParseInitializationScope(testCase.rawScope)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedScope, scope)
		})
	}
}

func TestConfigurationInitializerWritesYAML(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	userConfigurationDirectory := testInstance.TempDir()
	initializer := newTestInitializer(workingDirectory, userConfigurationDirectory)

	testCases := []struct {
		name         string
		scope        utils.InitializationScope
		expectedPath string
	}{
		{name: "local", scope: utils.InitializationScopeLocal, expectedPath: filepath.Join(workingDirectory, "tfs-merge.yaml")},
		{name: "user", scope: utils.InitializationScopeUser, expectedPath: filepath.Join(userConfigurationDirectory, "tfs-merge", "tfs-merge.yaml")},
	}

	configuration := initializerFixture{Merge: initializerMergeFixture{ProtectedBranches: []string{"master", "main"}, RequireClean: true}}
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			writtenPath, initializeError := initializer.Initialize(testCase.scope, false, configuration)
			require.NoError(testInstance, initializeError)
			require.Equal(testInstance, testCase.expectedPath, writtenPath)

			writtenContent, readError := os.ReadFile(writtenPath)
			require.NoError(testInstance, readError)

			decodedConfiguration := initializerFixture{}
			require.NoError(testInstance, yaml.Unmarshal(writtenContent, &decodedConfiguration))
			require.Equal(testInstance, configuration, decodedConfiguration)
		})
	}
}

func TestConfigurationInitializerRespectsOverwrite(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	initializer := newTestInitializer(workingDirectory, testInstance.TempDir())
	existingPath := filepath.Join(workingDirectory, "tfs-merge.yaml")
	require.NoError(testInstance, os.WriteFile(existingPath, []byte("common: {}\n"), 0o600))

	_, refusedError := initializer.Initialize(utils.InitializationScopeLocal, false, initializerFixture{})
	require.True(testInstance, errors.Is(refusedError, utils.ErrConfigurationExists))

	writtenPath, overwriteError := initializer.Initialize(utils.InitializationScopeLocal, true, initializerFixture{Merge: initializerMergeFixture{RequireClean: true}})
	require.NoError(testInstance, overwriteError)
	require.Equal(testInstance, existingPath, writtenPath)

	writtenContent, readError := os.ReadFile(existingPath)
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(writtenContent), "require_clean: true")
}
