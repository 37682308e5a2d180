// Package contentsync orchestrates the synchronization of versioned product
// content into a Gitea-hosted repository. The import flow replaces the content
// of a version-named target branch from a resolved base branch; the update flow
// merges a pristine content branch into a customer branch, creating a transient
// integration branch when no customer branch exists yet. Base and customer
// branches are resolved from the remote branch namespace using the versions
// package.
package contentsync
