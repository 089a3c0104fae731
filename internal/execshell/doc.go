// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with structured logging via ShellExecutor, exposes
// OSCommandRunner for default process execution, and defines the abstractions
// tfs-merge uses to run git and git-tfs in a testable manner.
package execshell
