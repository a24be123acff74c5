package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dshills/bestrev/internal/providers"
)

const summaryMaxTokens = 4096

// Summarizer turns final best reviews into titled one-sentence summaries
// and optionally validates them against the source text.
type Summarizer struct {
	Provider    providers.Completer
	Temperature float64
	Log         *slog.Logger
}

// NewSummarizer returns a Summarizer with a mildly creative temperature.
func NewSummarizer(provider providers.Completer, log *slog.Logger) Summarizer {
	if log == nil {
		log = slog.Default()
	}
	return Summarizer{Provider: provider, Temperature: 0.3, Log: log}
}

type summaryItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

type summaryResponse struct {
	Summaries []summaryItem `json:"summaries"`
}

// Generate produces one recommendation per best review. Summaries for IDs
// the model invents are dropped.
func (s Summarizer) Generate(ctx context.Context, best []SelectedReview) ([]Recommendation, error) {
	if len(best) == 0 {
		return nil, nil
	}

	resp, err := s.Provider.Complete(ctx, providers.Request{
		SystemPrompt: SummarySystemPrompt(),
		UserPrompt:   BuildSummaryPrompt(best),
		MaxTokens:    summaryMaxTokens,
		Temperature:  s.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("summary generation: %w", err)
	}

	var parsed summaryResponse
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &parsed); err != nil {
		return nil, fmt.Errorf("summary generation: invalid JSON: %w", err)
	}

	known := make(map[int64]bool, len(best))
	for _, r := range best {
		known[r.ID] = true
	}

	recs := make([]Recommendation, 0, len(parsed.Summaries))
	for _, item := range parsed.Summaries {
		id, err := strconv.ParseInt(item.ID, 10, 64)
		if err != nil || !known[id] {
			s.Log.Warn("summary for unknown review id", "id", item.ID)
			continue
		}
		recs = append(recs, Recommendation{ReviewID: id, Title: item.Title, Summary: item.Summary})
	}
	return recs, nil
}

const validateSystemPrompt = `You verify that generated review summaries are faithful to their source reviews. For each summary, check that the title and the summary sentence only state things the original review supports. Flag fabricated claims, wrong sentiment, and missing core points, and propose a corrected wording for each flagged field.

You MUST respond with ONLY a JSON object. No markdown, no explanation, no preamble.

The object must have this exact structure:
{
  "overall_pass": true,
  "validation_results": [
    {
      "id": "123",
      "is_valid": false,
      "title_issues": [{"title": "the exact current title", "suggestion": "corrected title", "reason": "why"}],
      "summary_issues": [{"summary": "the exact current summary", "suggestion": "corrected summary", "reason": "why"}]
    }
  ]
}`

type validationIssue struct {
	Title      string `json:"title,omitempty"`
	Summary    string `json:"summary,omitempty"`
	Suggestion string `json:"suggestion"`
	Reason     string `json:"reason"`
}

type validationEntry struct {
	ID            string            `json:"id"`
	IsValid       bool              `json:"is_valid"`
	TitleIssues   []validationIssue `json:"title_issues"`
	SummaryIssues []validationIssue `json:"summary_issues"`
}

type validationResponse struct {
	OverallPass       bool              `json:"overall_pass"`
	ValidationResults []validationEntry `json:"validation_results"`
}

// Validate checks generated recommendations against their source reviews
// and applies any suggested corrections. A suggestion only lands when the
// issue quotes the recommendation's current title or summary verbatim;
// anything else is ignored. Validation failures are fail-open: the input
// recommendations come back unchanged.
func (s Summarizer) Validate(ctx context.Context, best []SelectedReview, recs []Recommendation) []Recommendation {
	if len(recs) == 0 {
		return recs
	}

	resp, err := s.Provider.Complete(ctx, providers.Request{
		SystemPrompt: validateSystemPrompt,
		UserPrompt:   buildValidatePrompt(best, recs),
		MaxTokens:    summaryMaxTokens,
	})
	if err != nil {
		s.Log.Warn("summary validation failed, keeping summaries", "error", err)
		return recs
	}

	var parsed validationResponse
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &parsed); err != nil {
		s.Log.Warn("summary validation returned invalid JSON, keeping summaries", "error", err)
		return recs
	}

	issuesByID := make(map[int64]validationEntry)
	invalid := 0
	for _, entry := range parsed.ValidationResults {
		if entry.IsValid {
			continue
		}
		invalid++
		if id, err := strconv.ParseInt(entry.ID, 10, 64); err == nil {
			issuesByID[id] = entry
		}
	}
	s.Log.Info("summary validation complete",
		"overall_pass", parsed.OverallPass, "invalid", invalid)

	out := make([]Recommendation, len(recs))
	copy(out, recs)
	for i := range out {
		entry, ok := issuesByID[out[i].ReviewID]
		if !ok {
			continue
		}
		for _, issue := range entry.TitleIssues {
			if issue.Title == out[i].Title && issue.Suggestion != "" {
				s.Log.Info("rewriting summary title", "review_id", out[i].ReviewID,
					"reason", issue.Reason)
				out[i].Title = issue.Suggestion
				break
			}
		}
		for _, issue := range entry.SummaryIssues {
			if issue.Summary == out[i].Summary && issue.Suggestion != "" {
				s.Log.Info("rewriting summary text", "review_id", out[i].ReviewID,
					"reason", issue.Reason)
				out[i].Summary = issue.Suggestion
				break
			}
		}
	}
	return out
}

func buildValidatePrompt(best []SelectedReview, recs []Recommendation) string {
	type wire struct {
		Summaries []summaryItem `json:"summaries"`
	}
	w := wire{Summaries: make([]summaryItem, 0, len(recs))}
	for _, r := range recs {
		w.Summaries = append(w.Summaries, summaryItem{
			ID:      strconv.FormatInt(r.ReviewID, 10),
			Title:   r.Title,
			Summary: r.Summary,
		})
	}
	generated, _ := json.MarshalIndent(w, "", "  ")

	var b strings.Builder
	b.WriteString("Validate the generated summaries against the original reviews.\n\n")
	b.WriteString("--- BEGIN ORIGINAL REVIEWS ---\n")
	for _, r := range best {
		fmt.Fprintf(&b, "ID: %d\ntext: %s\n\n", r.ID, r.Text)
	}
	b.WriteString("--- END ORIGINAL REVIEWS ---\n\n")
	b.WriteString("--- BEGIN GENERATED SUMMARIES ---\n")
	b.Write(generated)
	b.WriteString("\n--- END GENERATED SUMMARIES ---\n")
	return b.String()
}
