package review

import (
	"math"
	"time"

	"github.com/dshills/bestrev/internal/cache"
)

// Review is one customer review as fetched from the store. Reviews are
// immutable once loaded; scoring never mutates them.
type Review struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
	HasImage  bool      `json:"hasImage"`
}

// Stamps converts reviews to cache fingerprint components.
func Stamps(reviews []Review) []cache.IDStamp {
	stamps := make([]cache.IDStamp, len(reviews))
	for i, r := range reviews {
		stamps[i] = cache.IDStamp{ID: r.ID, CreatedAt: r.CreatedAt}
	}
	return stamps
}

// Canonical perspective labels. Unknown perspectives are still scored but
// carry a reduced weight in composite ranking.
const (
	PerspectiveQuality      = "quality"
	PerspectiveAuthenticity = "authenticity"
	PerspectiveHelpfulness  = "helpfulness"
)

// CriterionType is a named evaluation axis with its sub-criteria. Supplied
// by configuration; read-only during scoring.
type CriterionType struct {
	Type     string   `json:"type" yaml:"type"`
	Criteria []string `json:"criteria" yaml:"criteria"`
}

// DefaultCriteria returns the built-in evaluation axes used when no
// criteria pack is configured.
func DefaultCriteria() []CriterionType {
	return []CriterionType{
		{Type: PerspectiveQuality, Criteria: []string{"performance", "durability", "design", "build quality"}},
		{Type: PerspectiveAuthenticity, Criteria: []string{"honesty", "first-hand experience", "specificity", "credibility"}},
		{Type: PerspectiveHelpfulness, Criteria: []string{"usefulness", "informativeness", "practicality", "detail"}},
	}
}

// ScoreEntry is one perspective's judgment of one review.
type ScoreEntry struct {
	Score       int    `json:"score"`
	Perspective string `json:"perspective"`
}

// Candidate is the fan-in merge point for all perspectives applied to one
// review. Its score list grows as each perspective's result arrives.
type Candidate struct {
	ReviewID int64        `json:"reviewId"`
	Scores   []ScoreEntry `json:"scores"`
}

// AddScore appends a perspective score, holding the invariant of at most
// one entry per perspective: a duplicate perspective merges by averaging
// rather than appending twice.
func (c *Candidate) AddScore(entry ScoreEntry) {
	for i, s := range c.Scores {
		if s.Perspective == entry.Perspective {
			c.Scores[i].Score = (s.Score + entry.Score) / 2
			return
		}
	}
	c.Scores = append(c.Scores, entry)
}

// AvgScore is the arithmetic mean of the candidate's scores, 0 when the
// score list is empty.
func (c Candidate) AvgScore() float64 {
	if len(c.Scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range c.Scores {
		sum += s.Score
	}
	return float64(sum) / float64(len(c.Scores))
}

// RankedCandidate is a candidate with its computed average, as emitted by
// fusion.
type RankedCandidate struct {
	Candidate
	AvgScore float64 `json:"avgScore"`
}

// SelectedReview is one selector identity's pick: a review plus the single
// 0..100 score that identity assigned it.
type SelectedReview struct {
	Review
	Score int `json:"score"`
}

// MergedSelection is the fan-in of all identities' picks for one review:
// representative review fields plus the mean of every reported score.
type MergedSelection struct {
	Review
	AvgScore float64 `json:"avgScore"`
}

// RoundedScore is the mean score rounded to the nearest integer, for use
// where a SelectedReview's integral score is needed.
func (m MergedSelection) RoundedScore() int {
	return clampScore(int(math.Round(m.AvgScore)))
}

// Recommendation is a final best review paired with its generated title and
// summary, ready for persistence.
type Recommendation struct {
	ReviewID int64  `json:"reviewId"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
}
