// Package giteaapi provides a client for the Gitea REST API covering the
// provisioning and probing operations the synchronization flows depend on:
// organization and repository creation, repository metadata retrieval, branch
// existence probes, and branch protection toggling. Creation calls are
// idempotent; the status codes Gitea returns for already-existing resources
// are tolerated rather than surfaced.
package giteaapi
