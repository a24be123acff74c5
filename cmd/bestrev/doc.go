// Bestrev is a CLI that picks the best customer reviews for a shop using
// LLM providers.
//
// It scores reviews from multiple perspectives, fans the top candidates out
// to several selector models, aggregates their picks, and generates titled
// summaries for the final selection, persisting the result to a local
// SQLite database.
//
// Usage:
//
//	bestrev run <mall-id> <shop-id>        # select and summarize best reviews
//	bestrev show <run-id>                  # print a past run's recommendations
//	bestrev reviews add <mall-id> <shop-id> --id 7 --rating 5 --text "..."
//	bestrev reviews import <mall-id> <shop-id> reviews.json
//	bestrev cache show                     # inspect the selection cache
//
// See https://github.com/dshills/bestrev for full documentation.
package main
