// Package review contains the core types and stages of the best-review
// selection pipeline.
//
// It defines the Review, Candidate, and SelectedReview types, splits review
// sets into token-bounded chunks, assembles scoring and selection prompts,
// and parses the judge responses resiliently (malformed lines fall back to
// a neutral default score rather than failing the batch).
//
// Scoring fans out per perspective and, within a perspective, per chunk
// with bounded concurrency. Selection fans the same review set out to
// several model identities whose picks are merged by averaging duplicate
// scores; a final aggregation call chooses the best reviews, which are
// reranked and summarized.
package review
