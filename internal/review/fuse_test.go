package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateWith(id int64, scores map[string]int) Candidate {
	c := Candidate{ReviewID: id}
	for p, s := range scores {
		c.AddScore(ScoreEntry{Score: s, Perspective: p})
	}
	return c
}

func TestFuseCandidatesRanksAndTruncates(t *testing.T) {
	var candidates []Candidate
	for i := int64(1); i <= 12; i++ {
		candidates = append(candidates, candidateWith(i, map[string]int{
			PerspectiveQuality: int(i * 5),
		}))
	}

	ranked := FuseCandidates(candidates, nil, DefaultTopCandidates, discardLogger())
	require.Len(t, ranked, DefaultTopCandidates)
	assert.Equal(t, int64(12), ranked[0].ReviewID)
	assert.InDelta(t, 60.0, ranked[0].AvgScore, 1e-9)
	// Lowest two scores fell off.
	for _, rc := range ranked {
		assert.Greater(t, rc.ReviewID, int64(2))
	}
}

func TestFuseCandidatesApprovedOverride(t *testing.T) {
	scored := []Candidate{candidateWith(1, map[string]int{PerspectiveQuality: 99})}
	approved := []Candidate{candidateWith(7, map[string]int{PerspectiveQuality: 10})}

	ranked := FuseCandidates(scored, approved, 10, discardLogger())
	require.Len(t, ranked, 1)
	assert.Equal(t, int64(7), ranked[0].ReviewID)
}

func TestFuseCandidatesDropsUnscored(t *testing.T) {
	candidates := []Candidate{
		{ReviewID: 1},
		candidateWith(2, map[string]int{PerspectiveQuality: 50}),
	}
	ranked := FuseCandidates(candidates, nil, 10, discardLogger())
	require.Len(t, ranked, 1)
	assert.Equal(t, int64(2), ranked[0].ReviewID)
}

func TestFuseCandidatesEmpty(t *testing.T) {
	assert.Nil(t, FuseCandidates(nil, nil, 10, discardLogger()))
}

func TestRankWeightedUsesDefaultWeights(t *testing.T) {
	// Equal averages, but quality carries more weight than helpfulness.
	a := candidateWith(1, map[string]int{PerspectiveQuality: 90, PerspectiveHelpfulness: 10})
	b := candidateWith(2, map[string]int{PerspectiveQuality: 10, PerspectiveHelpfulness: 90})

	ranked := RankWeighted([]Candidate{a, b}, nil)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(1), ranked[0].ReviewID)

	// (90*0.4 + 10*0.25) / 0.65
	assert.InDelta(t, 59.23, ranked[0].AvgScore, 0.01)
}

func TestRankWeightedPresentPerspectivesOnly(t *testing.T) {
	// A single quality score must come out as itself, not diluted by the
	// weights of perspectives that never ran.
	ranked := RankWeighted([]Candidate{
		candidateWith(1, map[string]int{PerspectiveQuality: 80}),
	}, nil)
	require.Len(t, ranked, 1)
	assert.InDelta(t, 80.0, ranked[0].AvgScore, 1e-9)
}

func TestRankWeightedUnknownPerspective(t *testing.T) {
	ranked := RankWeighted([]Candidate{
		candidateWith(1, map[string]int{PerspectiveQuality: 100, "novelty": 0}),
	}, nil)
	require.Len(t, ranked, 1)
	// (100*0.4 + 0*0.1) / 0.5
	assert.InDelta(t, 80.0, ranked[0].AvgScore, 1e-9)
}

func TestRerankOrdersByRating(t *testing.T) {
	selected := []SelectedReview{
		{Review: Review{ID: 1, Rating: 3}},
		{Review: Review{ID: 2, Rating: 5}},
		{Review: Review{ID: 3, Rating: 4}},
	}

	out, confidence := Rerank(selected)
	require.Len(t, out, 3)
	assert.Equal(t, int64(2), out[0].ID)
	assert.Equal(t, int64(3), out[1].ID)
	assert.Equal(t, int64(1), out[2].ID)
	assert.InDelta(t, 1.0, confidence, 1e-9)
}

func TestRerankConfidenceDropsOnTies(t *testing.T) {
	selected := []SelectedReview{
		{Review: Review{ID: 1, Rating: 4}},
		{Review: Review{ID: 2, Rating: 4}},
		{Review: Review{ID: 3, Rating: 4}},
		{Review: Review{ID: 4, Rating: 4}},
	}

	_, confidence := Rerank(selected)
	assert.InDelta(t, 0.25, confidence, 1e-9)
}

func TestRerankSingleReview(t *testing.T) {
	out, confidence := Rerank([]SelectedReview{{Review: Review{ID: 1, Rating: 2}}})
	require.Len(t, out, 1)
	assert.InDelta(t, 1.0, confidence, 1e-9)
}
