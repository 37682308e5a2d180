// Package gitrepo exposes repository-level git operations used by the
// synchronization services. It issues git subcommands through execshell and
// maps git's well-known no-op and conflict outputs to typed errors so that
// callers never inspect process output themselves.
package gitrepo
