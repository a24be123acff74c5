package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildScoringPrompt(t *testing.T) {
	chunk := Chunk{
		{Review: Review{ID: 11, Text: "solid build"}, OriginalID: 11},
		{Review: Review{ID: 22, Text: "flimsy hinge"}, OriginalID: 22},
	}

	prompt := BuildScoringPrompt(PerspectiveQuality, []string{"performance", "durability"}, chunk)
	assert.Contains(t, prompt, "quality perspective")
	assert.Contains(t, prompt, "performance, durability")
	assert.Contains(t, prompt, "review 1 (ID: 11): solid build")
	assert.Contains(t, prompt, "review 2 (ID: 22): flimsy hinge")
	assert.Contains(t, prompt, `"review N: score"`)
}

func TestBuildSelectorPrompt(t *testing.T) {
	reviews := []Review{{
		ID: 5, Text: "works well", Rating: 4, HasImage: true,
		CreatedAt: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	}}

	prompt := BuildSelectorPrompt("pick balanced reviews", reviews, 3)
	assert.Contains(t, prompt, "pick balanced reviews")
	assert.Contains(t, prompt, "Return exactly 3 candidates")
	assert.Contains(t, prompt, "ID: 5, rating: 4, text: works well, has image: true, written: 2026-01-15")
}

func TestBuildAggregatePrompt(t *testing.T) {
	merged := []MergedSelection{{
		Review:   Review{ID: 9, Text: "good value", Rating: 4},
		AvgScore: 82.5,
	}}

	prompt := BuildAggregatePrompt(merged, 2)
	assert.Contains(t, prompt, "Pick the 2 best")
	assert.Contains(t, prompt, "candidate score: 82.5")
}

func TestBuildSummaryPrompt(t *testing.T) {
	prompt := BuildSummaryPrompt([]SelectedReview{{
		Review: Review{ID: 3, Text: "quiet fan", Rating: 5},
		Score:  88,
	}})
	assert.Contains(t, prompt, "ID: 3")
	assert.Contains(t, prompt, "rating: 5/5")
	assert.Contains(t, prompt, "quiet fan")
}
