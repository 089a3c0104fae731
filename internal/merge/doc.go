// Package merge runs the tfs-merge workflow.
//
// Service checks the repository, asks for confirmation, synchronizes the
// destination branch with its remote and with TFS, rebases the current branch
// onto the destination, checks the rebased commits in to TFS through git-tfs and
// removes the source branch afterwards. Reporter renders the outcome and
// CommandBuilder exposes the workflow as a Cobra command.
package merge
