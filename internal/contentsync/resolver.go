package contentsync

import (
	"github.com/Masterminds/semver/v3"

	"github.com/contentforge/vcsync/internal/versions"
)

const (
	integrationBranchPrefixConstant = "integration-"
)

// ResolutionKind identifies how a branch resolution concluded.
type ResolutionKind int

const (
	// ResolutionNotFound marks a resolution that produced no branch.
	ResolutionNotFound ResolutionKind = iota
	// ResolutionExact marks an exact name match among the scanned references.
	ResolutionExact
	// ResolutionGuessed marks a branch derived from version ordering or a default-branch fallback.
	ResolutionGuessed
)

// ResolutionResult reports the outcome of resolving a base or customer branch.
// Exactly one of the kinds applies; Branch is meaningful unless the kind is
// ResolutionNotFound.
type ResolutionResult struct {
	Kind   ResolutionKind
	Branch versions.BranchRef
}

// ResolveCustomerBranch finds the customer branch among the scanned references
// by exact name, falling back to the most recent version-ordered predecessor.
// With no version-like branches available the result is ResolutionNotFound and
// the error is versions.ErrNoBranchesFound.
func ResolveCustomerBranch(scannedReferences []versions.BranchRef, customerBranchName string) (ResolutionResult, error) {
	if matchedReference, found := versions.FindExactBranch(scannedReferences, customerBranchName); found {
		return ResolutionResult{Kind: ResolutionExact, Branch: matchedReference}, nil
	}

	shortForm, fullForm := versions.PartitionByShape(scannedReferences)
	guessedBranch, guessError := versions.GuessPreviousBranch(shortForm, fullForm)
	if guessError != nil {
		return ResolutionResult{Kind: ResolutionNotFound}, guessError
	}

	return ResolutionResult{Kind: ResolutionGuessed, Branch: guessedBranch.Reference}, nil
}

// ResolveBaseBranch determines the base branch for an import. An empty request
// selects the repository default branch; the previous-version sentinel walks
// the full-form partition for the highest branch strictly below the target
// version, falling back to the default branch when none precedes it; any other
// request is taken literally as an exact branch name.
func ResolveBaseBranch(scannedReferences []versions.BranchRef, requestedBaseBranch string, targetVersionText string, defaultBranch string) (ResolutionResult, error) {
	if len(requestedBaseBranch) == 0 {
		return ResolutionResult{Kind: ResolutionGuessed, Branch: versions.BranchRef{StrippedName: defaultBranch}}, nil
	}
	if requestedBaseBranch != previousVersionBaseSentinelConstant {
		return ResolutionResult{Kind: ResolutionExact, Branch: versions.BranchRef{StrippedName: requestedBaseBranch}}, nil
	}

	targetVersion, parseError := semver.NewVersion(targetVersionText)
	if parseError != nil {
		return ResolutionResult{Kind: ResolutionNotFound}, parseError
	}

	_, fullForm := versions.PartitionByShape(scannedReferences)
	predecessor, predecessorFound, predecessorError := versions.FindPredecessor(fullForm, targetVersion)
	if predecessorError != nil {
		return ResolutionResult{Kind: ResolutionNotFound}, predecessorError
	}
	if !predecessorFound {
		return ResolutionResult{Kind: ResolutionGuessed, Branch: versions.BranchRef{StrippedName: defaultBranch}}, nil
	}

	return ResolutionResult{Kind: ResolutionGuessed, Branch: predecessor.Reference}, nil
}

// ResolveTargetBranch reports an already-existing target branch as an exact
// resolution, synthesizing the reference when the scan has not seen it.
func ResolveTargetBranch(scannedReferences []versions.BranchRef, targetBranchName string) ResolutionResult {
	if matchedReference, found := versions.FindExactBranch(scannedReferences, targetBranchName); found {
		return ResolutionResult{Kind: ResolutionExact, Branch: matchedReference}
	}
	return ResolutionResult{Kind: ResolutionExact, Branch: versions.BranchRef{StrippedName: targetBranchName}}
}

// IntegrationBranchName derives the transient integration branch name from a
// resolved predecessor's stripped name.
func IntegrationBranchName(strippedBranchName string) string {
	return integrationBranchPrefixConstant + strippedBranchName
}
