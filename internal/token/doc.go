// Package token provides token counting for prompt-budget calculations.
//
// Counts use the cl100k_base encoding via tiktoken-go. If the encoding
// cannot be loaded (no network for the BPE download, or an unknown
// encoding name), counting falls back to a character-based heuristic that
// never fails. Review chunking only needs estimates, not exact counts, so
// the fallback is acceptable everywhere this package is used.
package token
