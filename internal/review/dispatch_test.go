package review

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/bestrev/internal/providers"
)

func TestDispatchScoresEveryPerspective(t *testing.T) {
	provider := &fakeCompleter{fn: func(req providers.Request) (providers.Response, error) {
		switch {
		case strings.Contains(req.UserPrompt, PerspectiveQuality):
			return providers.Response{Content: "review 1: 90\nreview 2: 40"}, nil
		case strings.Contains(req.UserPrompt, PerspectiveAuthenticity):
			return providers.Response{Content: "review 1: 70\nreview 2: 80"}, nil
		default:
			return providers.Response{Content: "review 1: 60\nreview 2: 50"}, nil
		}
	}}

	s := NewScorer(provider, discardLogger())
	s.Chunker.Estimate = func(string) int { return 1 }
	d := NewDispatcher(s, discardLogger())

	reviews := []Review{{ID: 1, Text: "one"}, {ID: 2, Text: "two"}}
	candidates := d.Dispatch(context.Background(), DefaultCriteria(), reviews)

	require.Len(t, candidates, 2)
	// Input order preserved.
	assert.Equal(t, int64(1), candidates[0].ReviewID)
	assert.Equal(t, int64(2), candidates[1].ReviewID)
	require.Len(t, candidates[0].Scores, 3)

	got := make(map[string]int)
	for _, s := range candidates[0].Scores {
		got[s.Perspective] = s.Score
	}
	assert.Equal(t, map[string]int{
		PerspectiveQuality:      90,
		PerspectiveAuthenticity: 70,
		PerspectiveHelpfulness:  60,
	}, got)
}

func TestDispatchToleratesScorerFailure(t *testing.T) {
	provider := &fakeCompleter{fn: func(req providers.Request) (providers.Response, error) {
		if strings.Contains(req.UserPrompt, PerspectiveQuality) {
			return providers.Response{}, errors.New("quality judge down")
		}
		return providers.Response{Content: "review 1: 75"}, nil
	}}

	s := NewScorer(provider, discardLogger())
	s.Chunker.Estimate = func(string) int { return 1 }
	d := NewDispatcher(s, discardLogger())

	candidates := d.Dispatch(context.Background(), DefaultCriteria(), []Review{{ID: 1, Text: "x"}})
	require.Len(t, candidates, 1)
	require.Len(t, candidates[0].Scores, 3)

	for _, entry := range candidates[0].Scores {
		if entry.Perspective == PerspectiveQuality {
			assert.Equal(t, DefaultScore, entry.Score)
		} else {
			assert.Equal(t, 75, entry.Score)
		}
	}
}

func TestDispatchEmptyInputs(t *testing.T) {
	d := NewDispatcher(NewScorer(&fakeCompleter{}, discardLogger()), discardLogger())
	assert.Nil(t, d.Dispatch(context.Background(), DefaultCriteria(), nil))
	assert.Nil(t, d.Dispatch(context.Background(), nil, []Review{{ID: 1}}))
}
