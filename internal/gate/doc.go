// Package gate implements a bounded-retry quality gate: accept when a
// confidence signal clears the threshold, retry a capped number of times,
// then force-accept so the pipeline always terminates.
package gate
