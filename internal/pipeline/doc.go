// Package pipeline assembles the best-review selection stages into a
// validated graph: fetch, clean and filter, perspective scoring, candidate
// fusion, multi-model selection, aggregation behind a confidence gate,
// summary generation behind a quality gate, and persistence.
package pipeline
