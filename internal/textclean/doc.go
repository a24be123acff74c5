// Package textclean normalizes raw review text and filters unsafe content.
//
// Clean strips HTML markup using a real parser and degrades to best-effort
// regex cleanup when parsing fails; it never returns an error. Safety
// filtering is expressed through the SafetyFilter interface plus an explicit
// FailurePolicy — when the moderation service is down, each call site must
// choose between passing reviews through unfiltered or rejecting them all;
// there is no hidden default.
package textclean
