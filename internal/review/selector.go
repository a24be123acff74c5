package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/bestrev/internal/cache"
	"github.com/dshills/bestrev/internal/providers"
)

const (
	// DefaultCandidateCount is how many candidates each selector identity
	// returns.
	DefaultCandidateCount = 3

	selectorMaxTokens = 4096
)

// Identity is one selector persona: a named model that independently picks
// candidate reviews for the focus instruction.
type Identity struct {
	Name        string
	Provider    providers.Completer
	Temperature float64
}

// Selector fans a candidate-selection request out to multiple identities
// and merges their picks. Per-identity results are cached so an unchanged
// review set does not repeat the call.
type Selector struct {
	Identities     []Identity
	Cache          *cache.Cache
	Focus          string
	CandidateCount int
	Log            *slog.Logger
}

// selectorCandidate is the JSON element each identity returns.
type selectorCandidate struct {
	ID    int64 `json:"id"`
	Score int   `json:"score"`
}

type selectorResponse struct {
	Candidates []selectorCandidate `json:"candidates"`
}

// SelectAll runs every identity concurrently and returns the combined pick
// lists in identity order. A failed identity contributes nothing; the run
// only fails when the context is cancelled.
func (s Selector) SelectAll(ctx context.Context, reviews []Review) ([]SelectedReview, error) {
	if len(reviews) == 0 {
		return nil, nil
	}
	count := s.CandidateCount
	if count <= 0 {
		count = DefaultCandidateCount
	}

	results := make([][]SelectedReview, len(s.Identities))
	g, gctx := errgroup.WithContext(ctx)

	for i, ident := range s.Identities {
		i, ident := i, ident
		g.Go(func() error {
			picks, err := s.selectOne(gctx, ident, reviews, count)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.log().Warn("selector identity failed",
					"identity", ident.Name, "error", err)
				return nil
			}
			results[i] = picks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []SelectedReview
	for _, picks := range results {
		all = append(all, picks...)
	}
	return all, nil
}

// selectOne runs a single identity's pick, consulting the cache first.
func (s Selector) selectOne(ctx context.Context, ident Identity, reviews []Review, count int) ([]SelectedReview, error) {
	req := cache.Request{
		Identity:       ident.Name,
		Reviews:        Stamps(reviews),
		Instruction:    s.Focus,
		RequestedCount: count,
	}

	var cached []SelectedReview
	if s.Cache != nil && s.Cache.Get(req, &cached) {
		s.log().Debug("selector cache hit", "identity", ident.Name)
		return cached, nil
	}

	resp, err := ident.Provider.Complete(ctx, providers.Request{
		SystemPrompt: SelectorSystemPrompt(),
		UserPrompt:   BuildSelectorPrompt(s.Focus, reviews, count),
		MaxTokens:    selectorMaxTokens,
		Temperature:  ident.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("identity %s: %w", ident.Name, err)
	}

	var parsed selectorResponse
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &parsed); err != nil {
		return nil, fmt.Errorf("identity %s: invalid JSON: %w", ident.Name, err)
	}

	byID := make(map[int64]Review, len(reviews))
	for _, r := range reviews {
		byID[r.ID] = r
	}

	picks := make([]SelectedReview, 0, len(parsed.Candidates))
	for _, c := range parsed.Candidates {
		// Hallucinated IDs are dropped.
		r, ok := byID[c.ID]
		if !ok {
			s.log().Warn("selector returned unknown review id",
				"identity", ident.Name, "id", c.ID)
			continue
		}
		picks = append(picks, SelectedReview{Review: r, Score: clampScore(c.Score)})
	}

	if s.Cache != nil {
		if err := s.Cache.Put(req, picks); err != nil {
			s.log().Warn("selector cache write failed",
				"identity", ident.Name, "error", err)
		}
	}
	return picks, nil
}

func (s Selector) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// MergeSelections groups picks by review ID and averages the scores of
// duplicates, so a review chosen by several identities carries one entry
// with its mean score. Output is ordered by descending average, ties by
// ascending ID.
func MergeSelections(picks []SelectedReview) []MergedSelection {
	if len(picks) == 0 {
		return nil
	}

	type group struct {
		review Review
		sum    int
		n      int
	}
	groups := make(map[int64]*group)
	for _, p := range picks {
		g, ok := groups[p.ID]
		if !ok {
			g = &group{review: p.Review}
			groups[p.ID] = g
		}
		g.sum += p.Score
		g.n++
	}

	merged := make([]MergedSelection, 0, len(groups))
	for _, g := range groups {
		merged = append(merged, MergedSelection{
			Review:   g.review,
			AvgScore: float64(g.sum) / float64(g.n),
		})
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].AvgScore != merged[j].AvgScore {
			return merged[i].AvgScore > merged[j].AvgScore
		}
		return merged[i].ID < merged[j].ID
	})
	return merged
}

// aggregateResponse is the JSON shape of the final aggregation call.
type aggregateResponse struct {
	BestReviews []struct {
		ID int64 `json:"id"`
	} `json:"best_reviews"`
}

// AggregateBest asks a single model to choose the final reviews from the
// merged candidate list. Unknown IDs in the response are dropped; an error
// yields no selection rather than a partial one.
func AggregateBest(ctx context.Context, provider providers.Completer, merged []MergedSelection, reviewCount int, log *slog.Logger) ([]SelectedReview, error) {
	if len(merged) == 0 {
		return nil, nil
	}
	if log == nil {
		log = slog.Default()
	}

	resp, err := provider.Complete(ctx, providers.Request{
		SystemPrompt: AggregateSystemPrompt(),
		UserPrompt:   BuildAggregatePrompt(merged, reviewCount),
		MaxTokens:    selectorMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate selection: %w", err)
	}

	var parsed aggregateResponse
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &parsed); err != nil {
		return nil, fmt.Errorf("aggregate selection: invalid JSON: %w", err)
	}

	byID := make(map[int64]MergedSelection, len(merged))
	for _, m := range merged {
		byID[m.ID] = m
	}

	var final []SelectedReview
	for _, b := range parsed.BestReviews {
		m, ok := byID[b.ID]
		if !ok {
			log.Warn("aggregation returned unknown review id", "id", b.ID)
			continue
		}
		final = append(final, SelectedReview{Review: m.Review, Score: m.RoundedScore()})
	}
	return final, nil
}

// stripFences removes a surrounding markdown code fence if the model
// wrapped its JSON in one.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[1:end], "\n")
}
