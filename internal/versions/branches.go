package versions

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	remoteReferencePrefixConstant = "origin/"
)

// BranchRef describes a remote branch whose name ends in a version segment.
type BranchRef struct {
	// FullName is the remote-qualified reference, for example origin/cray/cos/2.1.0.
	FullName string
	// StrippedName is the reference with the remote prefix removed.
	StrippedName string
	// VersionText is the trailing version segment used for comparison.
	VersionText string
}

// VersionedBranch pairs a scanned reference with its parsed version.
type VersionedBranch struct {
	Reference     BranchRef
	ParsedVersion *semver.Version
}

// ScanBranchReferences filters remote reference names down to those namespaced
// under the branch prefix and derives a BranchRef for each. Reference names
// outside the prefix are ignored. An empty input yields an empty sequence.
func ScanBranchReferences(referenceNames []string, branchPrefix string) []BranchRef {
	remoteBranchPrefix := remoteReferencePrefixConstant + branchPrefix

	scannedReferences := []BranchRef{}
	for _, referenceName := range referenceNames {
		trimmedName := strings.TrimSpace(referenceName)
		if !strings.HasPrefix(trimmedName, remoteBranchPrefix) {
			continue
		}
		scannedReferences = append(scannedReferences, BranchRef{
			FullName:     trimmedName,
			StrippedName: strings.TrimPrefix(trimmedName, remoteReferencePrefixConstant),
			VersionText:  strings.TrimPrefix(trimmedName, remoteBranchPrefix),
		})
	}

	return scannedReferences
}

// PartitionByShape splits scanned references into the short-form and full-form
// partitions, each sorted ascending by parsed version. References whose version
// text satisfies neither grammar are dropped. Sorting is stable, so duplicate
// versions preserve their scan order.
func PartitionByShape(scannedReferences []BranchRef) (shortForm []VersionedBranch, fullForm []VersionedBranch) {
	shortForm = []VersionedBranch{}
	fullForm = []VersionedBranch{}

	for _, scannedReference := range scannedReferences {
		versionShape := ClassifyVersionText(scannedReference.VersionText)
		if versionShape == ShapeUnparseable {
			continue
		}

		parsedVersion, parseError := semver.NewVersion(scannedReference.VersionText)
		if parseError != nil {
			continue
		}

		versionedBranch := VersionedBranch{Reference: scannedReference, ParsedVersion: parsedVersion}
		switch versionShape {
		case ShapeShort:
			shortForm = append(shortForm, versionedBranch)
		case ShapeFull:
			fullForm = append(fullForm, versionedBranch)
		}
	}

	sortAscending(shortForm)
	sortAscending(fullForm)

	return shortForm, fullForm
}

// FindExactBranch searches scanned references for an exact match against either
// the stripped or the remote-qualified name. No prefix matching is performed.
func FindExactBranch(scannedReferences []BranchRef, branchName string) (BranchRef, bool) {
	for _, scannedReference := range scannedReferences {
		if branchName == scannedReference.FullName || branchName == scannedReference.StrippedName {
			return scannedReference, true
		}
	}
	return BranchRef{}, false
}

// ExcludeBranch returns the scanned references without the named branch.
// Matching follows FindExactBranch: the stripped or the remote-qualified name
// must be equal.
func ExcludeBranch(scannedReferences []BranchRef, branchName string) []BranchRef {
	remainingReferences := make([]BranchRef, 0, len(scannedReferences))
	for _, scannedReference := range scannedReferences {
		if branchName == scannedReference.FullName || branchName == scannedReference.StrippedName {
			continue
		}
		remainingReferences = append(remainingReferences, scannedReference)
	}
	return remainingReferences
}

func sortAscending(versionedBranches []VersionedBranch) {
	sort.SliceStable(versionedBranches, func(firstIndex int, secondIndex int) bool {
		return versionedBranches[firstIndex].ParsedVersion.LessThan(versionedBranches[secondIndex].ParsedVersion)
	})
}
