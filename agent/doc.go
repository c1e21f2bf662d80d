// Package agent defines the role profiles selectable for a turn or a
// discussion and the immutable registry that holds them. The registry is
// constructed once at process start, either from the built-in panel or from a
// TOML definition file, and is safe for concurrent reads without locking.
package agent
