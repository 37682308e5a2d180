package gitrepo_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contentforge/vcsync/internal/execshell"
	"github.com/contentforge/vcsync/internal/gitrepo"
)

const (
	testRepositoryPathConstant = "/tmp/cos"
	testRemoteNameConstant     = "origin"
)

type scriptedGitExecutor struct {
	resultsByArguments map[string]scriptedExecution
	recordedArguments  [][]string
}

type scriptedExecution struct {
	result execshell.ExecutionResult
	failed bool
}

func newScriptedGitExecutor() *scriptedGitExecutor {
	return &scriptedGitExecutor{resultsByArguments: map[string]scriptedExecution{}}
}

func (executor *scriptedGitExecutor) script(arguments []string, execution scriptedExecution) {
	executor.resultsByArguments[strings.Join(arguments, " ")] = execution
}

func (executor *scriptedGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedArguments = append(executor.recordedArguments, details.Arguments)
	execution, scripted := executor.resultsByArguments[strings.Join(details.Arguments, " ")]
	if !scripted {
		return execshell.ExecutionResult{}, nil
	}
	if execution.failed {
		return execshell.ExecutionResult{}, execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details},
			Result:  execution.result,
		}
	}
	return execution.result, nil
}

func TestRepositoryManagerRequiresExecutor(testInstance *testing.T) {
	manager, creationError := gitrepo.NewRepositoryManager(nil)
	require.Nil(testInstance, manager)
	require.ErrorIs(testInstance, creationError, gitrepo.ErrExecutorNotConfigured)
}

func TestRepositoryManagerListRemoteBranches(testInstance *testing.T) {
	testCases := []struct {
		name               string
		standardOutput     string
		expectedReferences []string
	}{
		{
			name:               "empty_output",
			standardOutput:     "",
			expectedReferences: []string{},
		},
		{
			name:           "skips_head_alias",
			standardOutput: "  origin/HEAD -> origin/main\n  origin/main\n  origin/cray/cos/1.1\n",
			expectedReferences: []string{
				"origin/main",
				"origin/cray/cos/1.1",
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := newScriptedGitExecutor()
			executor.script([]string{"branch", "-r"}, scriptedExecution{result: execshell.ExecutionResult{StandardOutput: testCase.standardOutput}})

			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			referenceNames, listError := manager.ListRemoteBranches(context.Background(), testRepositoryPathConstant)
			require.NoError(testInstance, listError)
			require.Equal(testInstance, testCase.expectedReferences, referenceNames)
		})
	}
}

func TestRepositoryManagerRemoveAllTrackedFilesMapsEmptyTree(testInstance *testing.T) {
	executor := newScriptedGitExecutor()
	executor.script([]string{"rm", "-rf", "*"}, scriptedExecution{
		failed: true,
		result: execshell.ExecutionResult{ExitCode: 128, StandardError: "fatal: pathspec '*' did not match any files"},
	})

	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	removalError := manager.RemoveAllTrackedFiles(context.Background(), testRepositoryPathConstant)
	require.ErrorIs(testInstance, removalError, gitrepo.ErrNoFilesMatched)
}

func TestRepositoryManagerCreateCommitMapsCleanTree(testInstance *testing.T) {
	executor := newScriptedGitExecutor()
	executor.script([]string{"commit", "-m", "import"}, scriptedExecution{
		failed: true,
		result: execshell.ExecutionResult{ExitCode: 1, StandardOutput: "nothing to commit, working tree clean"},
	})

	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	commitError := manager.CreateCommit(context.Background(), testRepositoryPathConstant, "import")
	require.ErrorIs(testInstance, commitError, gitrepo.ErrNothingToCommit)
}

func TestRepositoryManagerCreateCommitPropagatesOtherFailures(testInstance *testing.T) {
	executor := newScriptedGitExecutor()
	executor.script([]string{"commit", "-m", "import"}, scriptedExecution{
		failed: true,
		result: execshell.ExecutionResult{ExitCode: 128, StandardError: "fatal: empty ident name"},
	})

	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	commitError := manager.CreateCommit(context.Background(), testRepositoryPathConstant, "import")
	require.Error(testInstance, commitError)
	require.NotErrorIs(testInstance, commitError, gitrepo.ErrNothingToCommit)
}

func TestRepositoryManagerMergeBranchMapsConflicts(testInstance *testing.T) {
	testCases := []struct {
		name           string
		standardOutput string
		expectConflict bool
	}{
		{
			name:           "conflict_marker",
			standardOutput: "CONFLICT (content): Merge conflict in site.yml\nAutomatic merge failed; fix conflicts and then commit the result.",
			expectConflict: true,
		},
		{
			name:           "unrelated_failure",
			standardOutput: "fatal: refusing to merge unrelated histories",
			expectConflict: false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := newScriptedGitExecutor()
			executor.script([]string{"merge", "pristine"}, scriptedExecution{
				failed: true,
				result: execshell.ExecutionResult{ExitCode: 1, StandardOutput: testCase.standardOutput},
			})

			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			mergeError := manager.MergeBranch(context.Background(), testRepositoryPathConstant, "pristine")
			require.Error(testInstance, mergeError)

			conflictError := gitrepo.MergeConflictError{}
			if testCase.expectConflict {
				require.ErrorAs(testInstance, mergeError, &conflictError)
				require.Equal(testInstance, "pristine", conflictError.BranchName)
			} else {
				require.NotErrorAs(testInstance, mergeError, &conflictError)
			}
		})
	}
}

func TestRepositoryManagerPushBranchArguments(testInstance *testing.T) {
	testCases := []struct {
		name              string
		forcePush         bool
		expectedArguments []string
	}{
		{
			name:              "force_push",
			forcePush:         true,
			expectedArguments: []string{"push", "--set-upstream", "--force", testRemoteNameConstant, "cray/cos/2.1.0"},
		},
		{
			name:              "regular_push",
			forcePush:         false,
			expectedArguments: []string{"push", "--set-upstream", testRemoteNameConstant, "cray/cos/2.1.0"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := newScriptedGitExecutor()
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			pushError := manager.PushBranch(context.Background(), testRepositoryPathConstant, testRemoteNameConstant, "cray/cos/2.1.0", testCase.forcePush)
			require.NoError(testInstance, pushError)
			require.Len(testInstance, executor.recordedArguments, 1)
			require.Equal(testInstance, testCase.expectedArguments, executor.recordedArguments[0])
		})
	}
}

func TestRepositoryManagerResolveHeadCommitTrimsOutput(testInstance *testing.T) {
	executor := newScriptedGitExecutor()
	executor.script([]string{"rev-parse", "HEAD"}, scriptedExecution{result: execshell.ExecutionResult{StandardOutput: "abc123\n"}})

	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	headCommit, resolveError := manager.ResolveHeadCommit(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, "abc123", headCommit)
}
