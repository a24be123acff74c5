// Package redact masks personal data in review text before it is sent to
// any LLM provider.
//
// Detection uses regex heuristics covering the personal data customers
// commonly leave in reviews: email addresses, phone numbers, URLs, social
// handles, IP addresses, and order or tracking numbers. Matches are
// replaced with [REMOVED]; the surrounding review text is kept intact so
// scoring and summarization still see the substance of the review.
package redact
