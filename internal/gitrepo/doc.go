// Package gitrepo answers read-only questions about a local Git repository.
//
// RepositoryInspector reads branch, upstream and git-tfs configuration through
// go-git so that validation never spawns a subprocess or mutates the working copy.
package gitrepo
