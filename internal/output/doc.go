// Package output formats pipeline run results for display or machine
// consumption.
//
// Three formats are supported:
//   - text     — human-readable terminal output (default)
//   - json     — stable structured result for scripting
//   - markdown — table plus per-review sections for wikis and docs
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and the final [*pipeline.State].
// [WriteResult] is a convenience helper that handles destination selection.
package output
