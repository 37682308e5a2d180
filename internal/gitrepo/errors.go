package gitrepo

import (
	"errors"
	"fmt"
)

const (
	noFilesMatchedMessageConstant         = "no tracked files matched the removal pathspec"
	nothingToCommitMessageConstant        = "nothing to commit, working tree clean"
	mergeConflictErrorTemplateConstant    = "merge of %q produced conflicts"
	gitNoFilesMatchedOutputConstant       = "did not match any files"
	gitNothingToCommitOutputConstant      = "nothing to commit"
	gitMergeConflictOutputConstant        = "CONFLICT"
	gitAutomaticMergeFailedOutputConstant = "Automatic merge failed"
)

var (
	// ErrNoFilesMatched indicates a removal touched an empty tree; callers may treat it as a no-op.
	ErrNoFilesMatched = errors.New(noFilesMatchedMessageConstant)
	// ErrNothingToCommit indicates the working tree held no staged changes; callers may treat it as a no-op.
	ErrNothingToCommit = errors.New(nothingToCommitMessageConstant)
)

// MergeConflictError reports a merge that git could not complete automatically.
type MergeConflictError struct {
	BranchName string
}

// Error describes the conflicting merge.
func (conflictError MergeConflictError) Error() string {
	return fmt.Sprintf(mergeConflictErrorTemplateConstant, conflictError.BranchName)
}
