package review

import (
	"fmt"
	"strings"
)

// DefaultFocus is the selection instruction used when the config does not
// provide one.
const DefaultFocus = `Prefer reviews that help a hesitant buyer decide:
balanced coverage of strengths and weaknesses, concrete usage examples or
photos, detail a beginner can follow, objective notes on performance,
either rich long-form insight or a short memorable key sentence, a
representative experience many shoppers would recognize, and recent,
trustworthy, positive tone.`

const scoringPromptTemplate = `Evaluate the following reviews from the %s perspective.
Evaluation criteria: %s

%s
Instructions:
1. Score each review from 0 to 100 against the criteria above.
2. Response format: "review N: score" (for example, "review 1: 85").
3. Respond with one line per review and nothing else.

Scores:
`

// BuildScoringPrompt renders the judge prompt for one chunk of reviews
// under a single perspective. Items are numbered from 1 in chunk order; the
// response parser maps those indexes back to review IDs.
func BuildScoringPrompt(perspective string, criteria []string, chunk Chunk) string {
	var b strings.Builder
	for i, it := range chunk {
		fmt.Fprintf(&b, "review %d (ID: %s): %s\n\n", i+1, it.ScoreID(), it.Text)
	}
	return fmt.Sprintf(scoringPromptTemplate, perspective, strings.Join(criteria, ", "), b.String())
}

const selectorSystemPrompt = `You are an expert at choosing the most representative product reviews. Given a focus instruction and a review list, pick the reviews that best match the focus and score each from 0 to 100.

You MUST respond with ONLY a JSON object. No markdown, no explanation, no preamble.

The object must have this exact structure:
{
  "candidates": [
    {"id": 123, "score": 90}
  ]
}`

// SelectorSystemPrompt returns the system prompt for a selector call.
func SelectorSystemPrompt() string {
	return selectorSystemPrompt
}

// BuildSelectorPrompt constructs the user prompt for one selector identity.
func BuildSelectorPrompt(focus string, reviews []Review, candidateCount int) string {
	var b strings.Builder

	b.WriteString("Select the best reviews for the focus below.\n\n")
	fmt.Fprintf(&b, "Focus:\n%s\n\n", strings.TrimSpace(focus))
	fmt.Fprintf(&b, "Return exactly %d candidates.\n", candidateCount)

	b.WriteString("\n--- BEGIN REVIEWS ---\n")
	for _, r := range reviews {
		fmt.Fprintf(&b, "- ID: %d, rating: %d, text: %s, has image: %t, written: %s\n",
			r.ID, r.Rating, r.Text, r.HasImage, r.CreatedAt.Format("2006-01-02"))
	}
	b.WriteString("--- END REVIEWS ---\n")

	return b.String()
}

const aggregateSystemPrompt = `You are an expert at picking final best reviews from a pre-scored candidate list. Choose the requested number of reviews that together give a buyer the most useful picture.

You MUST respond with ONLY a JSON object. No markdown, no explanation, no preamble.

The object must have this exact structure:
{
  "best_reviews": [
    {"id": 123}
  ]
}`

// AggregateSystemPrompt returns the system prompt for the final aggregation
// call over merged selector output.
func AggregateSystemPrompt() string {
	return aggregateSystemPrompt
}

// BuildAggregatePrompt constructs the user prompt for the aggregation call.
func BuildAggregatePrompt(merged []MergedSelection, reviewCount int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Pick the %d best reviews from the candidates below.\n", reviewCount)

	b.WriteString("\n--- BEGIN CANDIDATES ---\n")
	for _, m := range merged {
		fmt.Fprintf(&b, "- ID: %d, rating: %d, candidate score: %.1f, text: %s, has image: %t, written: %s\n",
			m.ID, m.Rating, m.AvgScore, m.Text, m.HasImage, m.CreatedAt.Format("2006-01-02"))
	}
	b.WriteString("--- END CANDIDATES ---\n")

	return b.String()
}

const summarySystemPrompt = `You summarize product reviews for a storefront highlight panel. For each review, write a one-line title capturing its core point and a single-sentence summary of its main content. Keep the review's own tone; never invent details the review does not state.

You MUST respond with ONLY a JSON object. No markdown, no explanation, no preamble.

The object must have this exact structure:
{
  "summaries": [
    {"id": "123", "title": "One-line title", "summary": "One-sentence summary"}
  ]
}`

// SummarySystemPrompt returns the system prompt for summary generation.
func SummarySystemPrompt() string {
	return summarySystemPrompt
}

// BuildSummaryPrompt constructs the user prompt listing the final reviews to
// summarize.
func BuildSummaryPrompt(reviews []SelectedReview) string {
	var b strings.Builder

	b.WriteString("Summarize each of the following reviews.\n\n")
	for _, r := range reviews {
		fmt.Fprintf(&b, "review\n ID: %d\n- rating: %d/5\n- text: %s\n- written: %s\n\n",
			r.ID, r.Rating, r.Text, r.CreatedAt.Format("2006-01-02"))
	}

	return b.String()
}
