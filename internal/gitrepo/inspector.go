package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

const (
	tfsRemoteSectionNameConstant        = "tfs-remote"
	tfsRemoteRepositoryOptionConstant   = "repository"
	rebaseMergeDirectoryNameConstant    = "rebase-merge"
	rebaseApplyDirectoryNameConstant    = "rebase-apply"
	repositoryPathRequiredMessage       = "repository path must be provided"
	branchNameRequiredMessageConstant   = "branch name must be provided"
	detachedHeadMessageConstant         = "HEAD is detached"
	unsupportedStorageMessageConstant   = "repository storage does not expose a git directory"
	openRepositoryErrorTemplateConstant = "unable to open repository %s: %w"
	readHeadErrorTemplateConstant       = "unable to read HEAD in %s: %w"
	readConfigErrorTemplateConstant     = "unable to read configuration in %s: %w"
	readReferenceErrorTemplateConstant  = "unable to read branch %s in %s: %w"
	statMarkerErrorTemplateConstant     = "unable to inspect %s in %s: %w"
	resolvePathErrorTemplateConstant    = "unable to resolve repository path %s: %w"
)

// ErrRepositoryPathRequired indicates an empty repository path.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessage)

// ErrBranchNameRequired indicates an empty branch name.
var ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)

// ErrDetachedHead indicates HEAD does not point at a local branch.
var ErrDetachedHead = errors.New(detachedHeadMessageConstant)

// ErrUnsupportedStorage indicates the repository is not backed by an on-disk git directory.
var ErrUnsupportedStorage = errors.New(unsupportedStorageMessageConstant)

// BranchReference describes the upstream tracking configuration of a local branch.
type BranchReference struct {
	Name         string
	Remote       string
	RemoteBranch string
}

// RemoteTrackingName returns the remote-tracking reference, e.g. origin/master.
func (reference BranchReference) RemoteTrackingName() string {
	return reference.Remote + "/" + reference.RemoteBranch
}

// RepositoryInspector answers read-only questions about repositories on disk.
type RepositoryInspector struct{}

// NewRepositoryInspector constructs a RepositoryInspector.
func NewRepositoryInspector() *RepositoryInspector {
	return &RepositoryInspector{}
}

// CurrentBranch returns the branch HEAD points at, including unborn branches.
func (inspector *RepositoryInspector) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	repository, openError := inspector.open(executionContext, repositoryPath)
	if openError != nil {
		return "", openError
	}

	headReference, headError := repository.Storer.Reference(plumbing.HEAD)
	if headError != nil {
		return "", fmt.Errorf(readHeadErrorTemplateConstant, repositoryPath, headError)
	}
	if headReference.Type() != plumbing.SymbolicReference || !headReference.Target().IsBranch() {
		return "", ErrDetachedHead
	}
	return headReference.Target().Short(), nil
}

// BranchExists reports whether refs/heads/<branchName> exists.
func (inspector *RepositoryInspector) BranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error) {
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return false, ErrBranchNameRequired
	}

	repository, openError := inspector.open(executionContext, repositoryPath)
	if openError != nil {
		return false, openError
	}

	_, referenceError := repository.Reference(plumbing.NewBranchReferenceName(trimmedBranchName), false)
	if referenceError != nil {
		if errors.Is(referenceError, plumbing.ErrReferenceNotFound) {
			return false, nil
		}
		return false, fmt.Errorf(readReferenceErrorTemplateConstant, trimmedBranchName, repositoryPath, referenceError)
	}
	return true, nil
}

// BranchUpstream returns the configured branch.<name>.remote and branch.<name>.merge values.
// The boolean result is false when either value is missing.
func (inspector *RepositoryInspector) BranchUpstream(executionContext context.Context, repositoryPath string, branchName string) (BranchReference, bool, error) {
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return BranchReference{}, false, ErrBranchNameRequired
	}

	repository, openError := inspector.open(executionContext, repositoryPath)
	if openError != nil {
		return BranchReference{}, false, openError
	}

	repositoryConfiguration, configurationError := repository.Config()
	if configurationError != nil {
		return BranchReference{}, false, fmt.Errorf(readConfigErrorTemplateConstant, repositoryPath, configurationError)
	}

	branchConfiguration, branchConfigured := repositoryConfiguration.Branches[trimmedBranchName]
	if !branchConfigured || branchConfiguration == nil {
		return BranchReference{}, false, nil
	}

	remoteName := strings.TrimSpace(branchConfiguration.Remote)
	mergeReference := strings.TrimSpace(branchConfiguration.Merge.Short())
	if len(remoteName) == 0 || len(mergeReference) == 0 {
		return BranchReference{}, false, nil
	}

	return BranchReference{Name: trimmedBranchName, Remote: remoteName, RemoteBranch: mergeReference}, true, nil
}

// TFSRemoteRepository returns the TFS path stored under tfs-remote.<remoteID>.repository.
// An empty string means git-tfs has no remote with that identifier.
func (inspector *RepositoryInspector) TFSRemoteRepository(executionContext context.Context, repositoryPath string, remoteID string) (string, error) {
	repository, openError := inspector.open(executionContext, repositoryPath)
	if openError != nil {
		return "", openError
	}

	repositoryConfiguration, configurationError := repository.Config()
	if configurationError != nil {
		return "", fmt.Errorf(readConfigErrorTemplateConstant, repositoryPath, configurationError)
	}

	trimmedRemoteID := strings.TrimSpace(remoteID)
	if len(trimmedRemoteID) == 0 {
		return "", nil
	}

	tfsSection := repositoryConfiguration.Raw.Section(tfsRemoteSectionNameConstant)
	if !tfsSection.HasSubsection(trimmedRemoteID) {
		return "", nil
	}
	return strings.TrimSpace(tfsSection.Subsection(trimmedRemoteID).Option(tfsRemoteRepositoryOptionConstant)), nil
}

// RebaseInProgress reports whether rebase-merge or rebase-apply exists in the git directory.
func (inspector *RepositoryInspector) RebaseInProgress(executionContext context.Context, repositoryPath string) (bool, error) {
	repository, openError := inspector.open(executionContext, repositoryPath)
	if openError != nil {
		return false, openError
	}

	storage, storageSupported := repository.Storer.(*filesystem.Storage)
	if !storageSupported {
		return false, ErrUnsupportedStorage
	}
	gitDirectory := storage.Filesystem()

	for _, markerName := range []string{rebaseMergeDirectoryNameConstant, rebaseApplyDirectoryNameConstant} {
		_, statError := gitDirectory.Stat(markerName)
		if statError == nil {
			return true, nil
		}
		if !errors.Is(statError, os.ErrNotExist) {
			return false, fmt.Errorf(statMarkerErrorTemplateConstant, markerName, gitDirectory.Root(), statError)
		}
	}
	return false, nil
}

func (inspector *RepositoryInspector) open(executionContext context.Context, repositoryPath string) (*git.Repository, error) {
	if executionContext != nil {
		if contextError := executionContext.Err(); contextError != nil {
			return nil, contextError
		}
	}

	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return nil, ErrRepositoryPathRequired
	}

	absolutePath, absoluteError := filepath.Abs(trimmedPath)
	if absoluteError != nil {
		return nil, fmt.Errorf(resolvePathErrorTemplateConstant, trimmedPath, absoluteError)
	}

	repository, openError := git.PlainOpenWithOptions(absolutePath, &git.PlainOpenOptions{DetectDotGit: true, EnableDotGitCommonDir: true})
	if openError != nil {
		return nil, fmt.Errorf(openRepositoryErrorTemplateConstant, trimmedPath, openError)
	}
	return repository, nil
}
