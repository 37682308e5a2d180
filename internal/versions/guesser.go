package versions

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	noBranchesFoundMessageConstant       = "no version-like branches found in the repository"
	versionConflictErrorTemplateConstant = "branch for version %s already exists"
)

// ErrNoBranchesFound indicates neither partition held a version-like branch to serve as a base.
var ErrNoBranchesFound = errors.New(noBranchesFoundMessageConstant)

// VersionConflictError reports that a branch for the requested version already exists.
type VersionConflictError struct {
	VersionText string
}

// Error describes the conflicting version.
func (conflictError VersionConflictError) Error() string {
	return fmt.Sprintf(versionConflictErrorTemplateConstant, conflictError.VersionText)
}

// GuessPreviousBranch selects the most recent predecessor branch from the two
// ascending partitions. With both partitions empty it returns
// ErrNoBranchesFound. With one partition populated it returns that partition's
// highest element. With both populated it compares the tail of each partition
// and returns the version-greater one; the full form wins exact ties.
func GuessPreviousBranch(shortForm []VersionedBranch, fullForm []VersionedBranch) (VersionedBranch, error) {
	switch {
	case len(shortForm) == 0 && len(fullForm) == 0:
		return VersionedBranch{}, ErrNoBranchesFound
	case len(shortForm) == 0:
		return fullForm[len(fullForm)-1], nil
	case len(fullForm) == 0:
		return shortForm[len(shortForm)-1], nil
	}

	highestShortForm := shortForm[len(shortForm)-1]
	highestFullForm := fullForm[len(fullForm)-1]
	if highestFullForm.ParsedVersion.Compare(highestShortForm.ParsedVersion) >= 0 {
		return highestFullForm, nil
	}
	return highestShortForm, nil
}

// FindPredecessor walks an ascending partition and returns the highest branch
// whose version is strictly below the target version. A branch equal to the
// target yields a VersionConflictError. The boolean result is false when every
// branch is at or above the target, letting the caller fall back to a default
// branch when it permits that.
func FindPredecessor(versionedBranches []VersionedBranch, targetVersion *semver.Version) (VersionedBranch, bool, error) {
	predecessorFound := false
	predecessor := VersionedBranch{}

	for _, versionedBranch := range versionedBranches {
		comparison := versionedBranch.ParsedVersion.Compare(targetVersion)
		if comparison == 0 {
			return VersionedBranch{}, false, VersionConflictError{VersionText: versionedBranch.Reference.VersionText}
		}
		if comparison > 0 {
			break
		}
		predecessor = versionedBranch
		predecessorFound = true
	}

	return predecessor, predecessorFound, nil
}
