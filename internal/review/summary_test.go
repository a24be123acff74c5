package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/bestrev/internal/providers"
)

func bestReviews() []SelectedReview {
	return []SelectedReview{
		{Review: Review{ID: 1, Text: "battery lasts three days", Rating: 5}, Score: 90},
		{Review: Review{ID: 2, Text: "case cracked on arrival", Rating: 2}, Score: 60},
	}
}

func TestSummarizerGenerate(t *testing.T) {
	p := &fakeCompleter{fn: func(req providers.Request) (providers.Response, error) {
		assert.Contains(t, req.UserPrompt, "battery lasts three days")
		return providers.Response{Content: `{"summaries":[
			{"id":"1","title":"Multi-day battery","summary":"The battery lasts three days on a charge."},
			{"id":"2","title":"Arrived damaged","summary":"The case cracked on arrival."},
			{"id":"404","title":"Ghost","summary":"Not a real review."}
		]}`}, nil
	}}

	s := NewSummarizer(p, discardLogger())
	recs, err := s.Generate(context.Background(), bestReviews())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(1), recs[0].ReviewID)
	assert.Equal(t, "Multi-day battery", recs[0].Title)
}

func TestSummarizerGenerateEmpty(t *testing.T) {
	s := NewSummarizer(&fakeCompleter{}, discardLogger())
	recs, err := s.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, recs)
}

func TestSummarizerGenerateInvalidJSON(t *testing.T) {
	p := &fakeCompleter{fn: func(providers.Request) (providers.Response, error) {
		return providers.Response{Content: "sorry, here are your summaries:"}, nil
	}}
	s := NewSummarizer(p, discardLogger())
	_, err := s.Generate(context.Background(), bestReviews())
	assert.Error(t, err)
}

func TestSummarizerValidateAppliesExactMatchSuggestion(t *testing.T) {
	p := &fakeCompleter{fn: func(providers.Request) (providers.Response, error) {
		return providers.Response{Content: `{"overall_pass":false,"validation_results":[{
			"id":"1","is_valid":false,
			"title_issues":[{"title":"Multi-day battery","suggestion":"Three-day battery life","reason":"more precise"}],
			"summary_issues":[{"summary":"does not match current text","suggestion":"should be ignored","reason":"stale"}]
		}]}`}, nil
	}}

	recs := []Recommendation{
		{ReviewID: 1, Title: "Multi-day battery", Summary: "The battery lasts three days on a charge."},
		{ReviewID: 2, Title: "Arrived damaged", Summary: "The case cracked on arrival."},
	}

	s := NewSummarizer(p, discardLogger())
	out := s.Validate(context.Background(), bestReviews(), recs)
	require.Len(t, out, 2)

	// Exact title match rewritten.
	assert.Equal(t, "Three-day battery life", out[0].Title)
	// Suggestion quoting a stale summary is a silent no-op.
	assert.Equal(t, "The battery lasts three days on a charge.", out[0].Summary)
	// Untouched recommendation unchanged.
	assert.Equal(t, recs[1], out[1])
	// Input slice not mutated.
	assert.Equal(t, "Multi-day battery", recs[0].Title)
}

func TestSummarizerValidateFailOpen(t *testing.T) {
	recs := []Recommendation{{ReviewID: 1, Title: "t", Summary: "s"}}

	p := &fakeCompleter{fn: func(providers.Request) (providers.Response, error) {
		return providers.Response{}, errors.New("validator down")
	}}
	s := NewSummarizer(p, discardLogger())
	assert.Equal(t, recs, s.Validate(context.Background(), bestReviews(), recs))

	p.fn = func(providers.Request) (providers.Response, error) {
		return providers.Response{Content: "{broken"}, nil
	}
	assert.Equal(t, recs, s.Validate(context.Background(), bestReviews(), recs))
}
