package execshell_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contentforge/vcsync/internal/execshell"
)

const (
	testRepositoryPathConstant = "/tmp/product"
)

func TestCommandMessageFormatterDescribesGitCommands(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}

	testCases := []struct {
		name            string
		arguments       []string
		expectedStart   string
		expectedSuccess string
	}{
		{
			name:            "remote_branch_listing",
			arguments:       []string{"branch", "-r"},
			expectedStart:   "Listing remote branches in /tmp/product",
			expectedSuccess: "Listed remote branches in /tmp/product",
		},
		{
			name:            "checkout_existing_branch",
			arguments:       []string{"checkout", "main"},
			expectedStart:   "Switching /tmp/product to main",
			expectedSuccess: "/tmp/product now on main",
		},
		{
			name:            "checkout_force_create",
			arguments:       []string{"checkout", "-B", "integration-cray/cos/2.1"},
			expectedStart:   "Creating branch integration-cray/cos/2.1 in /tmp/product",
			expectedSuccess: "Created branch integration-cray/cos/2.1 in /tmp/product",
		},
		{
			name:            "merge_branch",
			arguments:       []string{"merge", "pristine"},
			expectedStart:   "Merging pristine in /tmp/product",
			expectedSuccess: "Merged pristine in /tmp/product",
		},
		{
			name:            "push_with_upstream",
			arguments:       []string{"push", "--set-upstream", "--force", "origin", "cray/cos/2.1.0"},
			expectedStart:   "Pushing cray/cos/2.1.0 to origin from /tmp/product",
			expectedSuccess: "Pushed cray/cos/2.1.0 to origin from /tmp/product",
		},
		{
			name:            "commit_with_message",
			arguments:       []string{"commit", "-m", "Import of cos 2.1.0"},
			expectedStart:   `Creating commit in /tmp/product with message "Import of cos 2.1.0"`,
			expectedSuccess: `Created commit in /tmp/product with message "Import of cos 2.1.0"`,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			command := execshell.ShellCommand{
				Name: execshell.CommandGit,
				Details: execshell.CommandDetails{
					Arguments:        testCase.arguments,
					WorkingDirectory: testRepositoryPathConstant,
				},
			}

			require.Equal(testInstance, testCase.expectedStart, formatter.BuildStartedMessage(command))
			require.Equal(testInstance, testCase.expectedSuccess, formatter.BuildSuccessMessage(command))
		})
	}
}

func TestCommandMessageFormatterFallsBackToGenericMessages(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}
	command := execshell.ShellCommand{
		Name:    execshell.CommandGit,
		Details: execshell.CommandDetails{Arguments: []string{"stash"}},
	}

	require.Equal(testInstance, "Running git stash", formatter.BuildStartedMessage(command))
	require.Equal(testInstance, "Completed git stash", formatter.BuildSuccessMessage(command))
}
