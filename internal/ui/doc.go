// Package ui renders operator-facing console output and collects y/N answers.
//
// Command lifecycle events are translated into short progress lines, diagnostics
// are colored through a lipgloss palette, and confirmations fall back to plain
// line reading when no terminal is attached.
package ui
