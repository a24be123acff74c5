// Package graph is a minimal typed pipeline runner: a closed set of node
// kinds (start, step, conditional step, terminal) wired by name and
// validated at build time, so misconfigured pipelines fail before any stage
// executes.
package graph
