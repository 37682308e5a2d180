package contentsync_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contentforge/vcsync/internal/contentsync"
	"github.com/contentforge/vcsync/internal/versions"
)

const (
	testBranchPrefixConstant  = "cray/cos/"
	testDefaultBranchConstant = "main"
)

func scannedTestReferences(referenceNames ...string) []versions.BranchRef {
	return versions.ScanBranchReferences(referenceNames, testBranchPrefixConstant)
}

func TestResolveCustomerBranch(testInstance *testing.T) {
	testCases := []struct {
		name               string
		referenceNames     []string
		customerBranchName string
		expectedKind       contentsync.ResolutionKind
		expectedBranchName string
		expectedError      error
	}{
		{
			name:               "exact_match_on_stripped_name",
			referenceNames:     []string{"origin/cray/cos/2.1.0"},
			customerBranchName: "cray/cos/2.1.0",
			expectedKind:       contentsync.ResolutionExact,
			expectedBranchName: "cray/cos/2.1.0",
		},
		{
			name:               "guessed_from_highest_predecessor",
			referenceNames:     []string{"origin/cray/cos/1.1", "origin/cray/cos/1.12", "origin/cray/cos/2.1.0", "origin/cray/cos/2.2.2"},
			customerBranchName: "cray/cos/3.0.0-customer",
			expectedKind:       contentsync.ResolutionGuessed,
			expectedBranchName: "cray/cos/2.2.2",
		},
		{
			name:               "no_version_branches",
			referenceNames:     []string{"origin/cray/cos/feature-branch"},
			customerBranchName: "cray/cos/3.0.0-customer",
			expectedKind:       contentsync.ResolutionNotFound,
			expectedError:      versions.ErrNoBranchesFound,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			resolution, resolutionError := contentsync.ResolveCustomerBranch(scannedTestReferences(testCase.referenceNames...), testCase.customerBranchName)
			require.Equal(testInstance, testCase.expectedKind, resolution.Kind)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, resolutionError, testCase.expectedError)
				return
			}

			require.NoError(testInstance, resolutionError)
			require.Equal(testInstance, testCase.expectedBranchName, resolution.Branch.StrippedName)
		})
	}
}

func TestResolveBaseBranch(testInstance *testing.T) {
	referenceNames := []string{
		"origin/cray/cos/1.0.0",
		"origin/cray/cos/1.5.0",
		"origin/cray/cos/2.0.0",
	}

	testCases := []struct {
		name                string
		requestedBaseBranch string
		targetVersionText   string
		expectedKind        contentsync.ResolutionKind
		expectedBranchName  string
		expectConflict      bool
	}{
		{
			name:                "empty_request_uses_default_branch",
			requestedBaseBranch: "",
			targetVersionText:   "1.7.0",
			expectedKind:        contentsync.ResolutionGuessed,
			expectedBranchName:  testDefaultBranchConstant,
		},
		{
			name:                "literal_request_taken_verbatim",
			requestedBaseBranch: "cray/cos/1.0.0",
			targetVersionText:   "1.7.0",
			expectedKind:        contentsync.ResolutionExact,
			expectedBranchName:  "cray/cos/1.0.0",
		},
		{
			name:                "sentinel_selects_predecessor",
			requestedBaseBranch: "semver_previous_if_exists",
			targetVersionText:   "1.7.0",
			expectedKind:        contentsync.ResolutionGuessed,
			expectedBranchName:  "cray/cos/1.5.0",
		},
		{
			name:                "sentinel_without_predecessor_uses_default_branch",
			requestedBaseBranch: "semver_previous_if_exists",
			targetVersionText:   "0.5.0",
			expectedKind:        contentsync.ResolutionGuessed,
			expectedBranchName:  testDefaultBranchConstant,
		},
		{
			name:                "sentinel_with_existing_version_conflicts",
			requestedBaseBranch: "semver_previous_if_exists",
			targetVersionText:   "1.5.0",
			expectConflict:      true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			resolution, resolutionError := contentsync.ResolveBaseBranch(scannedTestReferences(referenceNames...), testCase.requestedBaseBranch, testCase.targetVersionText, testDefaultBranchConstant)
			if testCase.expectConflict {
				conflictError := versions.VersionConflictError{}
				require.ErrorAs(testInstance, resolutionError, &conflictError)
				return
			}

			require.NoError(testInstance, resolutionError)
			require.Equal(testInstance, testCase.expectedKind, resolution.Kind)
			require.Equal(testInstance, testCase.expectedBranchName, resolution.Branch.StrippedName)
		})
	}
}

func TestIntegrationBranchName(testInstance *testing.T) {
	require.Equal(testInstance, "integration-cray/cos/2.2.2", contentsync.IntegrationBranchName("cray/cos/2.2.2"))
}
