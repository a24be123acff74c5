package review

import (
	"log/slog"
	"sort"
)

// DefaultTopCandidates is how many candidates survive fusion.
const DefaultTopCandidates = 10

// DefaultPerspectiveWeights weight the composite score per perspective.
// Perspectives outside this map count at UnknownPerspectiveWeight.
var DefaultPerspectiveWeights = map[string]float64{
	PerspectiveQuality:      0.4,
	PerspectiveAuthenticity: 0.35,
	PerspectiveHelpfulness:  0.25,
}

// UnknownPerspectiveWeight applies to perspectives absent from the weight
// map.
const UnknownPerspectiveWeight = 0.1

// FuseCandidates ranks candidates by their unweighted average score and
// keeps the top limit. When approved is non-empty it replaces candidates
// entirely, acting as a manual override of the scored set. Candidates with
// no scores are dropped. Ties keep input order.
func FuseCandidates(candidates, approved []Candidate, limit int, log *slog.Logger) []RankedCandidate {
	if log == nil {
		log = slog.Default()
	}
	if len(approved) > 0 {
		log.Info("using approved candidates", "count", len(approved))
		candidates = approved
	}
	if len(candidates) == 0 {
		log.Info("no candidates to fuse")
		return nil
	}
	if limit <= 0 {
		limit = DefaultTopCandidates
	}

	ranked := make([]RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Scores) == 0 {
			log.Warn("candidate has no scores", "review_id", c.ReviewID)
			continue
		}
		ranked = append(ranked, RankedCandidate{Candidate: c, AvgScore: c.AvgScore()})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AvgScore > ranked[j].AvgScore
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	log.Info("fused candidates", "kept", len(ranked))
	return ranked
}

// RankWeighted ranks candidates by a weighted composite of their
// perspective scores. The denominator only counts perspectives the
// candidate was actually scored on, so a missing perspective neither helps
// nor hurts. A nil weights map uses DefaultPerspectiveWeights.
func RankWeighted(candidates []Candidate, weights map[string]float64) []RankedCandidate {
	if weights == nil {
		weights = DefaultPerspectiveWeights
	}

	ranked := make([]RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Scores) == 0 {
			continue
		}
		weightedSum, totalWeight := 0.0, 0.0
		for _, s := range c.Scores {
			w, ok := weights[s.Perspective]
			if !ok {
				w = UnknownPerspectiveWeight
			}
			weightedSum += float64(s.Score) * w
			totalWeight += w
		}
		if totalWeight <= 0 {
			continue
		}
		ranked = append(ranked, RankedCandidate{
			Candidate: c,
			AvgScore:  weightedSum / totalWeight,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AvgScore > ranked[j].AvgScore
	})
	return ranked
}

// Rerank orders the final selection by rating, highest first, and returns
// a confidence for the ordering. Confidence is the fraction of adjacent
// pairs whose rating gap is decisive (non-zero); a single review is fully
// confident.
func Rerank(selected []SelectedReview) ([]SelectedReview, float64) {
	out := make([]SelectedReview, len(selected))
	copy(out, selected)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating > out[j].Rating
	})

	if len(out) <= 1 {
		return out, 1
	}
	decisive := 0
	for i := 1; i < len(out); i++ {
		if out[i-1].Rating != out[i].Rating {
			decisive++
		}
	}
	return out, float64(decisive+1) / float64(len(out))
}
