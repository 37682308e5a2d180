package versions_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contentforge/vcsync/internal/versions"
)

const (
	testBranchPrefixConstant = "org/prod/"
)

func TestClassifyVersionText(testInstance *testing.T) {
	testCases := []struct {
		name          string
		versionText   string
		expectedShape versions.VersionShape
	}{
		{name: "short_form", versionText: "1.2", expectedShape: versions.ShapeShort},
		{name: "short_form_two_digit_minor", versionText: "1.12", expectedShape: versions.ShapeShort},
		{name: "short_form_with_prerelease", versionText: "2.5-rc.1", expectedShape: versions.ShapeShort},
		{name: "short_form_with_build", versionText: "2.5+build.7", expectedShape: versions.ShapeShort},
		{name: "full_form", versionText: "1.2.3", expectedShape: versions.ShapeFull},
		{name: "full_form_with_prerelease_and_build", versionText: "1.2.3-alpha.1+build.7", expectedShape: versions.ShapeFull},
		{name: "leading_zero_component", versionText: "01.2", expectedShape: versions.ShapeUnparseable},
		{name: "single_component", versionText: "7", expectedShape: versions.ShapeUnparseable},
		{name: "four_components", versionText: "1.2.3.4", expectedShape: versions.ShapeUnparseable},
		{name: "not_a_version", versionText: "feature-branch", expectedShape: versions.ShapeUnparseable},
		{name: "empty_text", versionText: "", expectedShape: versions.ShapeUnparseable},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedShape, versions.ClassifyVersionText(testCase.versionText))
		})
	}
}

func TestScanBranchReferences(testInstance *testing.T) {
	testCases := []struct {
		name               string
		referenceNames     []string
		expectedReferences []versions.BranchRef
	}{
		{
			name:               "no_references",
			referenceNames:     []string{},
			expectedReferences: []versions.BranchRef{},
		},
		{
			name: "filters_by_prefix",
			referenceNames: []string{
				"origin/main",
				"origin/org/prod/1.2.3",
				"origin/org/other/9.9.9",
			},
			expectedReferences: []versions.BranchRef{
				{FullName: "origin/org/prod/1.2.3", StrippedName: "org/prod/1.2.3", VersionText: "1.2.3"},
			},
		},
		{
			name: "keeps_non_version_suffixes",
			referenceNames: []string{
				"origin/org/prod/feature-branch",
			},
			expectedReferences: []versions.BranchRef{
				{FullName: "origin/org/prod/feature-branch", StrippedName: "org/prod/feature-branch", VersionText: "feature-branch"},
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			scannedReferences := versions.ScanBranchReferences(testCase.referenceNames, testBranchPrefixConstant)
			require.Equal(testInstance, testCase.expectedReferences, scannedReferences)
		})
	}
}

func TestPartitionByShape(testInstance *testing.T) {
	referenceNames := []string{
		"origin/org/prod/2.1.0",
		"origin/org/prod/1.12",
		"origin/org/prod/1.1",
		"origin/org/prod/2.2.2",
		"origin/org/prod/feature-branch",
	}

	scannedReferences := versions.ScanBranchReferences(referenceNames, testBranchPrefixConstant)
	shortForm, fullForm := versions.PartitionByShape(scannedReferences)

	require.Equal(testInstance, []string{"1.1", "1.12"}, versionTexts(shortForm))
	require.Equal(testInstance, []string{"2.1.0", "2.2.2"}, versionTexts(fullForm))
}

func TestPartitionByShapeSortingIsIdempotent(testInstance *testing.T) {
	referenceNames := []string{
		"origin/org/prod/1.1",
		"origin/org/prod/1.12",
	}

	scannedReferences := versions.ScanBranchReferences(referenceNames, testBranchPrefixConstant)
	shortForm, _ := versions.PartitionByShape(scannedReferences)
	resortedShortForm, _ := versions.PartitionByShape(scannedReferences)

	require.Equal(testInstance, versionTexts(shortForm), versionTexts(resortedShortForm))
}

func TestPartitionByShapePreservesScanOrderAmongDuplicates(testInstance *testing.T) {
	scannedReferences := []versions.BranchRef{
		{FullName: "origin/org/prod/2.1.0", StrippedName: "org/prod/2.1.0", VersionText: "2.1.0"},
		{FullName: "origin/org/prod-copy/2.1.0", StrippedName: "org/prod-copy/2.1.0", VersionText: "2.1.0"},
	}

	_, fullForm := versions.PartitionByShape(scannedReferences)

	require.Len(testInstance, fullForm, 2)
	require.Equal(testInstance, "origin/org/prod/2.1.0", fullForm[0].Reference.FullName)
	require.Equal(testInstance, "origin/org/prod-copy/2.1.0", fullForm[1].Reference.FullName)
}

func TestFindExactBranch(testInstance *testing.T) {
	scannedReferences := versions.ScanBranchReferences([]string{"origin/org/prod/2.1.0"}, testBranchPrefixConstant)

	testCases := []struct {
		name          string
		branchName    string
		expectedFound bool
	}{
		{name: "matches_stripped_name", branchName: "org/prod/2.1.0", expectedFound: true},
		{name: "matches_full_name", branchName: "origin/org/prod/2.1.0", expectedFound: true},
		{name: "rejects_prefix_match", branchName: "org/prod/2.1", expectedFound: false},
		{name: "rejects_unknown_name", branchName: "org/prod/3.0.0", expectedFound: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			matchedReference, found := versions.FindExactBranch(scannedReferences, testCase.branchName)
			require.Equal(testInstance, testCase.expectedFound, found)
			if testCase.expectedFound {
				require.Equal(testInstance, "origin/org/prod/2.1.0", matchedReference.FullName)
			}
		})
	}
}

func TestExcludeBranch(testInstance *testing.T) {
	scannedReferences := versions.ScanBranchReferences([]string{
		"origin/org/prod/1.0.0",
		"origin/org/prod/2.1.0",
	}, testBranchPrefixConstant)

	remainingReferences := versions.ExcludeBranch(scannedReferences, "org/prod/2.1.0")
	require.Len(testInstance, remainingReferences, 1)
	require.Equal(testInstance, "org/prod/1.0.0", remainingReferences[0].StrippedName)

	require.Equal(testInstance, scannedReferences, versions.ExcludeBranch(scannedReferences, "org/prod/9.9.9"))
}

func versionTexts(versionedBranches []versions.VersionedBranch) []string {
	collectedTexts := []string{}
	for _, versionedBranch := range versionedBranches {
		collectedTexts = append(collectedTexts, versionedBranch.Reference.VersionText)
	}
	return collectedTexts
}
