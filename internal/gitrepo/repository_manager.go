package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/contentforge/vcsync/internal/execshell"
)

const (
	executorNotConfiguredMessageConstant = "git executor not configured"
	gitCloneSubcommandConstant           = "clone"
	gitCloneDepthFlagConstant            = "--depth"
	gitCloneDepthValueConstant           = "1"
	gitCloneNoSingleBranchFlagConstant   = "--no-single-branch"
	gitBranchSubcommandConstant          = "branch"
	gitBranchRemotesFlagConstant         = "-r"
	gitCheckoutSubcommandConstant        = "checkout"
	gitCheckoutForceCreateFlagConstant   = "-B"
	gitFetchSubcommandConstant           = "fetch"
	gitFetchAllFlagConstant              = "--all"
	gitMergeSubcommandConstant           = "merge"
	gitRemoveSubcommandConstant          = "rm"
	gitRemoveRecursiveForceFlagConstant  = "-rf"
	gitRemoveAllPathspecConstant         = "*"
	gitAddSubcommandConstant             = "add"
	gitAddAllFlagConstant                = "--all"
	gitAddCurrentDirectoryConstant       = "."
	gitConfigSubcommandConstant          = "config"
	gitConfigLocalFlagConstant           = "--local"
	gitCommitSubcommandConstant          = "commit"
	gitCommitMessageFlagConstant         = "-m"
	gitPushSubcommandConstant            = "push"
	gitPushSetUpstreamFlagConstant       = "--set-upstream"
	gitPushForceFlagConstant             = "--force"
	gitRevParseSubcommandConstant        = "rev-parse"
	gitHeadReferenceConstant             = "HEAD"
	remoteAliasPointerMarkerConstant     = "->"
)

// ErrExecutorNotConfigured indicates the repository manager was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// GitExecutor exposes the subset of shell execution required for repository operations.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager coordinates git operations against a single working copy.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager backed by the supplied executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CloneRepository clones the remote repository into the destination path.
func (manager *RepositoryManager) CloneRepository(executionContext context.Context, cloneURL string, destinationPath string) error {
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments: []string{gitCloneSubcommandConstant, gitCloneDepthFlagConstant, gitCloneDepthValueConstant, gitCloneNoSingleBranchFlagConstant, cloneURL, destinationPath},
	})
	return executionError
}

// ListRemoteBranches returns the remote branch reference names known to the working copy.
func (manager *RepositoryManager) ListRemoteBranches(executionContext context.Context, repositoryPath string) ([]string, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitBranchSubcommandConstant, gitBranchRemotesFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return nil, executionError
	}

	referenceNames := []string{}
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if len(trimmedLine) == 0 {
			continue
		}
		// origin/HEAD -> origin/main alias entries are not branches.
		if strings.Contains(trimmedLine, remoteAliasPointerMarkerConstant) {
			continue
		}
		referenceNames = append(referenceNames, trimmedLine)
	}

	return referenceNames, nil
}

// CheckoutBranch switches the working copy to an existing branch.
func (manager *RepositoryManager) CheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCheckoutSubcommandConstant, branchName},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// CreateBranch force-creates a branch, optionally from a start point, and checks it out.
func (manager *RepositoryManager) CreateBranch(executionContext context.Context, repositoryPath string, branchName string, startPoint string) error {
	checkoutArguments := []string{gitCheckoutSubcommandConstant, gitCheckoutForceCreateFlagConstant, branchName}
	if len(strings.TrimSpace(startPoint)) > 0 {
		checkoutArguments = append(checkoutArguments, startPoint)
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        checkoutArguments,
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// FetchAllRemotes updates all remote tracking references.
func (manager *RepositoryManager) FetchAllRemotes(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitFetchSubcommandConstant, gitFetchAllFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// MergeBranch merges the named branch into the current branch, surfacing conflicts as MergeConflictError.
func (manager *RepositoryManager) MergeBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitMergeSubcommandConstant, branchName},
		WorkingDirectory: repositoryPath,
	})
	if executionError == nil {
		return nil
	}

	if commandOutputContains(executionError, gitMergeConflictOutputConstant) || commandOutputContains(executionError, gitAutomaticMergeFailedOutputConstant) {
		return MergeConflictError{BranchName: branchName}
	}

	return executionError
}

// RemoveAllTrackedFiles deletes every tracked file from the index and working tree.
// An empty tree yields ErrNoFilesMatched, which callers may treat as a no-op.
func (manager *RepositoryManager) RemoveAllTrackedFiles(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoveSubcommandConstant, gitRemoveRecursiveForceFlagConstant, gitRemoveAllPathspecConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError == nil {
		return nil
	}

	if commandOutputContains(executionError, gitNoFilesMatchedOutputConstant) {
		return ErrNoFilesMatched
	}

	return executionError
}

// StageAllChanges stages every addition, modification, and deletion in the working tree.
func (manager *RepositoryManager) StageAllChanges(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitAddSubcommandConstant, gitAddAllFlagConstant, gitAddCurrentDirectoryConstant},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// SetLocalConfiguration writes a repository-local git configuration value.
func (manager *RepositoryManager) SetLocalConfiguration(executionContext context.Context, repositoryPath string, configurationKey string, configurationValue string) error {
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitConfigSubcommandConstant, gitConfigLocalFlagConstant, configurationKey, configurationValue},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// CreateCommit records staged changes with the supplied message.
// A clean working tree yields ErrNothingToCommit, which callers may treat as a no-op.
func (manager *RepositoryManager) CreateCommit(executionContext context.Context, repositoryPath string, commitMessage string) error {
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCommitSubcommandConstant, gitCommitMessageFlagConstant, commitMessage},
		WorkingDirectory: repositoryPath,
	})
	if executionError == nil {
		return nil
	}

	if commandOutputContains(executionError, gitNothingToCommitOutputConstant) {
		return ErrNothingToCommit
	}

	return executionError
}

// PushBranch publishes the branch to the named remote, setting it as upstream.
func (manager *RepositoryManager) PushBranch(executionContext context.Context, repositoryPath string, remoteName string, branchName string, forcePush bool) error {
	pushArguments := []string{gitPushSubcommandConstant, gitPushSetUpstreamFlagConstant}
	if forcePush {
		pushArguments = append(pushArguments, gitPushForceFlagConstant)
	}
	pushArguments = append(pushArguments, remoteName, branchName)

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        pushArguments,
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// ResolveHeadCommit returns the commit identifier the working copy's HEAD points at.
func (manager *RepositoryManager) ResolveHeadCommit(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitHeadReferenceConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", executionError
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// commandOutputContains reports whether a failed command's captured output mentions the marker.
// This is the single place where git's literal messages are inspected.
func commandOutputContains(executionError error, outputMarker string) bool {
	var commandFailure execshell.CommandFailedError
	if !errors.As(executionError, &commandFailure) {
		return false
	}
	return strings.Contains(commandFailure.Result.StandardOutput, outputMarker) ||
		strings.Contains(commandFailure.Result.StandardError, outputMarker)
}
