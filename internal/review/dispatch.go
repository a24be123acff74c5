package review

import (
	"context"
	"log/slog"
	"sync"
)

// Dispatcher fans review scoring out across perspectives, one concurrent
// scoring pass per criterion type, and fans the per-perspective score maps
// back in as candidates.
type Dispatcher struct {
	Scorer Scorer
	Log    *slog.Logger
}

// NewDispatcher returns a Dispatcher over the given scorer.
func NewDispatcher(scorer Scorer, log *slog.Logger) Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return Dispatcher{Scorer: scorer, Log: log}
}

// Dispatch scores every review under every criterion type in parallel and
// returns one candidate per review, in input order, carrying a score entry
// for each perspective. A review is only a candidate if at least one
// perspective scored it, which the scorer's default-score fallback
// guarantees whenever criteria exist.
func (d Dispatcher) Dispatch(ctx context.Context, criteria []CriterionType, reviews []Review) []Candidate {
	if len(reviews) == 0 || len(criteria) == 0 {
		return nil
	}

	d.Log.Info("dispatching perspective scoring",
		"perspectives", len(criteria), "reviews", len(reviews))

	byPerspective := make([]map[int64]int, len(criteria))
	var wg sync.WaitGroup

	for i, ct := range criteria {
		wg.Add(1)
		go func(i int, ct CriterionType) {
			defer wg.Done()
			byPerspective[i] = d.Scorer.ScorePerspective(ctx, ct, reviews)
			d.Log.Debug("perspective scored", "perspective", ct.Type,
				"reviews", len(byPerspective[i]))
		}(i, ct)
	}
	wg.Wait()

	candidates := make([]Candidate, 0, len(reviews))
	for _, r := range reviews {
		c := Candidate{ReviewID: r.ID}
		for i, ct := range criteria {
			if score, ok := byPerspective[i][r.ID]; ok {
				c.AddScore(ScoreEntry{Score: score, Perspective: ct.Type})
			}
		}
		if len(c.Scores) > 0 {
			candidates = append(candidates, c)
		}
	}

	d.Log.Info("perspective scoring complete", "candidates", len(candidates))
	return candidates
}
