package review

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/bestrev/internal/providers"
)

// fakeCompleter scripts responses for pipeline-stage tests.
type fakeCompleter struct {
	name  string
	fn    func(providers.Request) (providers.Response, error)
	calls atomic.Int64
}

func (f *fakeCompleter) Complete(_ context.Context, req providers.Request) (providers.Response, error) {
	f.calls.Add(1)
	return f.fn(req)
}

func (f *fakeCompleter) Name() string {
	if f.name != "" {
		return f.name
	}
	return "fake"
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseScoresIndexedFormat(t *testing.T) {
	chunk := Chunk{
		{Review: Review{ID: 101}, OriginalID: 101},
		{Review: Review{ID: 202}, OriginalID: 202},
	}

	scores := parseScores("review 1: 85\nreview 2: 92\n", chunk)
	assert.Equal(t, map[string]int{"101": 85, "202": 92}, scores)
}

func TestParseScoresDirectIDFallback(t *testing.T) {
	chunk := Chunk{{Review: Review{ID: 735}, OriginalID: 735}}

	scores := parseScores("735: 85", chunk)
	assert.Equal(t, map[string]int{"735": 85}, scores)
}

func TestParseScoresClampsAndSkipsGarbage(t *testing.T) {
	chunk := Chunk{
		{Review: Review{ID: 1}, OriginalID: 1},
		{Review: Review{ID: 2}, OriginalID: 2},
	}

	content := "review 1: 150\nnot a score line\nreview 2: -10\nreview 9: 40\n"
	scores := parseScores(content, chunk)
	assert.Equal(t, 100, scores["1"])
	assert.Equal(t, 0, scores["2"])
	assert.Len(t, scores, 2)
}

func TestParseScoresDirectIDNegativeClamped(t *testing.T) {
	chunk := Chunk{{Review: Review{ID: 735}, OriginalID: 735}}

	scores := parseScores("735: -25", chunk)
	assert.Equal(t, map[string]int{"735": 0}, scores)
}

func TestParseScoresSplitPartDirectID(t *testing.T) {
	chunk := Chunk{{
		Review:     Review{ID: 9, Text: "part text"},
		IsSplit:    true,
		OriginalID: 9,
		PartNumber: 2,
		TotalParts: 3,
	}}

	// The judge answered with the bare original ID instead of the part ID.
	scores := parseScores("9: 70", chunk)
	assert.Equal(t, map[string]int{"9_part2": 70}, scores)
}

func TestScorePerspective(t *testing.T) {
	provider := &fakeCompleter{fn: func(req providers.Request) (providers.Response, error) {
		require.Contains(t, req.UserPrompt, "quality")
		return providers.Response{Content: "review 1: 80\nreview 2: 60"}, nil
	}}

	s := NewScorer(provider, discardLogger())
	s.Chunker.Estimate = func(string) int { return 1 }

	scores := s.ScorePerspective(context.Background(), DefaultCriteria()[0], []Review{
		{ID: 10, Text: "first"},
		{ID: 20, Text: "second"},
	})
	assert.Equal(t, map[int64]int{10: 80, 20: 60}, scores)
}

func TestScorePerspectiveDefaultsOnProviderError(t *testing.T) {
	provider := &fakeCompleter{fn: func(providers.Request) (providers.Response, error) {
		return providers.Response{}, errors.New("boom")
	}}

	s := NewScorer(provider, discardLogger())
	s.Chunker.Estimate = func(string) int { return 1 }

	scores := s.ScorePerspective(context.Background(), DefaultCriteria()[0], []Review{
		{ID: 1, Text: "a"}, {ID: 2, Text: "b"},
	})
	assert.Equal(t, map[int64]int{1: DefaultScore, 2: DefaultScore}, scores)
}

func TestScorePerspectiveMissingScoreGetsDefault(t *testing.T) {
	provider := &fakeCompleter{fn: func(providers.Request) (providers.Response, error) {
		return providers.Response{Content: "review 1: 90"}, nil
	}}

	s := NewScorer(provider, discardLogger())
	s.Chunker.Estimate = func(string) int { return 1 }

	scores := s.ScorePerspective(context.Background(), DefaultCriteria()[0], []Review{
		{ID: 1, Text: "scored"}, {ID: 2, Text: "ignored by judge"},
	})
	assert.Equal(t, 90, scores[1])
	assert.Equal(t, DefaultScore, scores[2])
}

func TestScorePerspectiveReunifiesSplitParts(t *testing.T) {
	provider := &fakeCompleter{fn: func(req providers.Request) (providers.Response, error) {
		// Each part arrives as its own single-item chunk.
		if strings.Contains(req.UserPrompt, "_part1") {
			return providers.Response{Content: "review 1: 80"}, nil
		}
		return providers.Response{Content: "review 1: 60"}, nil
	}}

	s := NewScorer(provider, discardLogger())
	// Force a split: every sentence costs 40 against an available 50.
	s.Chunker = Chunker{Budget: 60, Overhead: 10, Estimate: func(text string) int {
		return 40 * (1 + strings.Count(text, ". "))
	}}

	scores := s.ScorePerspective(context.Background(), DefaultCriteria()[0], []Review{
		{ID: 5, Text: "First sentence here. Second sentence here."},
	})
	require.Contains(t, scores, int64(5))
	assert.Equal(t, 70, scores[5])
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, clampScore(-5))
	assert.Equal(t, 100, clampScore(400))
	assert.Equal(t, 55, clampScore(55))
}
