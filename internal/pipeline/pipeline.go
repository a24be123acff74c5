package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dshills/bestrev/internal/cache"
	"github.com/dshills/bestrev/internal/config"
	"github.com/dshills/bestrev/internal/gate"
	"github.com/dshills/bestrev/internal/graph"
	"github.com/dshills/bestrev/internal/providers"
	"github.com/dshills/bestrev/internal/redact"
	"github.com/dshills/bestrev/internal/review"
	"github.com/dshills/bestrev/internal/store"
	"github.com/dshills/bestrev/internal/textclean"
)

// ReviewSource provides the reviews a run operates on.
type ReviewSource interface {
	FetchReviews(ctx context.Context, mallID, shopID string, minRating, limit int) ([]review.Review, error)
}

// RecommendationSink persists a run's final recommendations.
type RecommendationSink interface {
	InsertRecommendations(ctx context.Context, runID string, recs []review.Recommendation) (int64, error)
}

var _ ReviewSource = (*store.Store)(nil)
var _ RecommendationSink = (*store.Store)(nil)

// Deps are the collaborators a Pipeline needs. NewProvider may be nil to
// use the configured backend; Moderation may be nil to disable filtering.
type Deps struct {
	Source      ReviewSource
	Sink        RecommendationSink
	Cache       *cache.Cache
	Moderation  textclean.SafetyFilter
	NewProvider func(backend, model string) (providers.Completer, error)
	Log         *slog.Logger
}

// Pipeline runs the best-review selection flow as a validated graph.
type Pipeline struct {
	cfg      config.Config
	criteria []review.CriterionType

	source     ReviewSource
	sink       RecommendationSink
	moderation textclean.SafetyFilter

	dispatcher review.Dispatcher
	selector   review.Selector
	aggregator providers.Completer
	summarizer review.Summarizer

	confGate    gate.Gate
	summaryGate gate.Gate

	graph *graph.Graph[State]
	log   *slog.Logger
}

// New wires the pipeline from configuration and validates its graph.
func New(cfg config.Config, criteria []review.CriterionType, deps Deps) (*Pipeline, error) {
	if deps.Source == nil || deps.Sink == nil {
		return nil, fmt.Errorf("pipeline needs a review source and a recommendation sink")
	}
	if len(criteria) == 0 {
		criteria = review.DefaultCriteria()
	}
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	newProvider := deps.NewProvider
	if newProvider == nil {
		newProvider = providers.New
	}

	scorerProvider, err := newProvider(cfg.Provider, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("scorer provider: %w", err)
	}

	scorer := review.NewScorer(scorerProvider, log)
	scorer.Chunker = review.Chunker{Budget: cfg.ChunkBudget, Overhead: cfg.ChunkOverhead}

	identities := make([]review.Identity, 0, len(cfg.SelectorModels))
	for _, model := range cfg.SelectorModels {
		p, err := newProvider(cfg.Provider, model)
		if err != nil {
			return nil, fmt.Errorf("selector provider %s: %w", model, err)
		}
		identities = append(identities, review.Identity{Name: model, Provider: p})
	}

	focus := cfg.Focus
	if focus == "" {
		focus = review.DefaultFocus
	}

	confGate := gate.New("rerank confidence", log)
	summaryGate := gate.New("summary quality", log)
	if cfg.Gate.Threshold > 0 {
		confGate.Threshold = cfg.Gate.Threshold
		summaryGate.Threshold = cfg.Gate.Threshold
	}
	if cfg.Gate.RetryCap > 0 {
		confGate.RetryCap = cfg.Gate.RetryCap
		summaryGate.RetryCap = cfg.Gate.RetryCap
	}

	p := &Pipeline{
		cfg:      cfg,
		criteria: criteria,

		source:     deps.Source,
		sink:       deps.Sink,
		moderation: deps.Moderation,

		dispatcher: review.NewDispatcher(scorer, log),
		selector: review.Selector{
			Identities:     identities,
			Cache:          deps.Cache,
			Focus:          focus,
			CandidateCount: cfg.CandidateCount,
			Log:            log,
		},
		aggregator: scorerProvider,
		summarizer: review.NewSummarizer(scorerProvider, log),

		confGate:    confGate,
		summaryGate: summaryGate,

		log: log,
	}

	g, err := p.buildGraph()
	if err != nil {
		return nil, fmt.Errorf("pipeline graph: %w", err)
	}
	p.graph = g
	return p, nil
}

func (p *Pipeline) buildGraph() (*graph.Graph[State], error) {
	return graph.NewBuilder[State]().
		Start("fetch", p.fetch, "check_reviews").
		Conditional("check_reviews", nil, routeOnReviews(func(s State) int { return len(s.Reviews) }),
			map[string]string{"empty": "no_results", "ok": "prepare"}).
		Step("prepare", p.prepare, "check_filtered").
		Conditional("check_filtered", nil, routeOnReviews(func(s State) int { return len(s.Filtered) }),
			map[string]string{"empty": "no_results", "ok": "score"}).
		Step("score", p.score, "fuse").
		Step("fuse", p.fuse, "select").
		Step("select", p.selectReviews, "aggregate").
		Step("aggregate", p.aggregate, "rerank").
		Conditional("rerank", p.rerank, p.routeConfidence,
			map[string]string{"low_confidence": "aggregate", "high_confidence": "summarize"}).
		Conditional("summarize", p.summarize, p.routeSummary,
			map[string]string{"error": "summarize", "pass": "validate"}).
		Step("validate", p.validate, "save").
		Terminal("save", p.save).
		Terminal("no_results", p.noResults).
		Build()
}

// Run executes one selection run for a shop and returns the final state.
func (p *Pipeline) Run(ctx context.Context, mallID, shopID string) (State, error) {
	initial := State{
		RunID:  uuid.NewString(),
		MallID: mallID,
		ShopID: shopID,
	}
	p.log.Info("pipeline run starting", "run_id", initial.RunID,
		"mall_id", mallID, "shop_id", shopID)

	final, err := p.graph.Run(ctx, initial)
	if err != nil {
		return final, err
	}
	p.log.Info("pipeline run finished", "run_id", final.RunID,
		"recommendations", len(final.Recommendations),
		"saved", final.Save.Saved, "no_results", final.NoResults)
	return final, nil
}

func routeOnReviews(count func(State) int) graph.CondFunc[State] {
	return func(s State) string {
		if count(s) == 0 {
			return "empty"
		}
		return "ok"
	}
}

// fetch loads the shop's reviews. A transport error degrades to an empty
// review set; the graph then short-circuits to the no-results terminal.
func (p *Pipeline) fetch(ctx context.Context, s State) (State, error) {
	reviews, err := p.source.FetchReviews(ctx, s.MallID, s.ShopID, p.cfg.MinRating, p.cfg.MaxReviews)
	if err != nil {
		p.log.Warn("review fetch failed, treating as no reviews",
			"mall_id", s.MallID, "shop_id", s.ShopID, "error", err)
		s.Reviews = nil
		return s, nil
	}
	s.Reviews = reviews
	p.log.Info("fetched reviews", "count", len(reviews))
	return s, nil
}

// prepare cleans markup out of review text, masks personal data before any
// of it reaches a model, drops reviews too short to be informative, and
// applies moderation with an explicit pass-through policy when the
// moderation backend is down.
func (p *Pipeline) prepare(ctx context.Context, s State) (State, error) {
	cleaned := make([]review.Review, 0, len(s.Reviews))
	for _, r := range s.Reviews {
		r.Text = redact.Mask(textclean.Clean(r.Text))
		if utf8.RuneCountInString(r.Text) <= p.cfg.MinReviewLength {
			continue
		}
		cleaned = append(cleaned, r)
	}

	if p.cfg.Moderation.Enabled && p.moderation != nil {
		cleaned = textclean.FilterSafe(ctx, p.moderation, cleaned, textclean.PassThrough, p.log)
	}

	s.Filtered = cleaned
	p.log.Info("prepared reviews", "kept", len(cleaned), "dropped", len(s.Reviews)-len(cleaned))
	return s, nil
}

func (p *Pipeline) score(ctx context.Context, s State) (State, error) {
	s.Candidates = p.dispatcher.Dispatch(ctx, p.criteria, s.Filtered)
	return s, nil
}

func (p *Pipeline) fuse(_ context.Context, s State) (State, error) {
	s.Ranked = review.FuseCandidates(s.Candidates, s.Approved, p.cfg.TopCandidates, p.log)
	return s, nil
}

// selectReviews fans the fused candidates out to the selector identities
// and merges their picks.
func (p *Pipeline) selectReviews(ctx context.Context, s State) (State, error) {
	byID := make(map[int64]review.Review, len(s.Filtered))
	for _, r := range s.Filtered {
		byID[r.ID] = r
	}
	shortlist := make([]review.Review, 0, len(s.Ranked))
	for _, rc := range s.Ranked {
		if r, ok := byID[rc.ReviewID]; ok {
			shortlist = append(shortlist, r)
		}
	}

	picks, err := p.selector.SelectAll(ctx, shortlist)
	if err != nil {
		return s, err
	}
	s.Selected = picks
	s.Merged = review.MergeSelections(picks)
	return s, nil
}

// aggregate asks one model for the final best reviews. On failure it falls
// back to the merged ranking, which is already ordered by average score.
func (p *Pipeline) aggregate(ctx context.Context, s State) (State, error) {
	best, err := review.AggregateBest(ctx, p.aggregator, s.Merged, p.cfg.BestReviewCount, p.log)
	if err != nil {
		if ctx.Err() != nil {
			return s, ctx.Err()
		}
		p.log.Warn("aggregation failed, falling back to merged ranking", "error", err)
		best = nil
		for _, m := range s.Merged {
			if len(best) >= p.cfg.BestReviewCount {
				break
			}
			best = append(best, review.SelectedReview{Review: m.Review, Score: m.RoundedScore()})
		}
	}
	s.Best = best
	return s, nil
}

// rerank orders the final selection by rating and routes on the ordering
// confidence: low confidence re-runs aggregation until the retry cap, then
// the result is force-accepted.
func (p *Pipeline) rerank(_ context.Context, s State) (State, error) {
	s.Best, s.Confidence = review.Rerank(s.Best)
	s.RerankState = p.confGate.Decide(s.Confidence, s.RerankRetries)
	if s.RerankState == gate.Retrying {
		s.RerankRetries++
	}
	return s, nil
}

func (p *Pipeline) routeConfidence(s State) string {
	switch s.RerankState {
	case gate.Retrying:
		return "low_confidence"
	case gate.ForcedAccept:
		p.log.Warn("rerank confidence low after retries, proceeding",
			"confidence", s.Confidence, "retries", s.RerankRetries)
		return "high_confidence"
	default:
		return "high_confidence"
	}
}

// summarize generates titled summaries for the best reviews. Once the
// retry cap is reached an earlier successful result is reused instead of
// calling the model again.
func (p *Pipeline) summarize(ctx context.Context, s State) (State, error) {
	if s.SummaryRetries > p.summaryGate.RetryCap && len(s.Recommendations) > 0 {
		return s, nil
	}

	recs, err := p.summarizer.Generate(ctx, s.Best)
	if err != nil {
		if ctx.Err() != nil {
			return s, ctx.Err()
		}
		p.log.Warn("summary generation failed", "retry", s.SummaryRetries, "error", err)
		recs = nil
	}
	s.Recommendations = recs
	s.SummaryRetries++
	return s, nil
}

func (p *Pipeline) routeSummary(s State) string {
	confidence := 0.0
	if len(s.Recommendations) > 0 {
		confidence = 1.0
	}
	switch p.summaryGate.Decide(confidence, s.SummaryRetries-1) {
	case gate.Retrying:
		return "error"
	case gate.ForcedAccept:
		p.log.Warn("summary generation exhausted retries, proceeding without summaries")
		return "pass"
	default:
		return "pass"
	}
}

func (p *Pipeline) validate(ctx context.Context, s State) (State, error) {
	s.Recommendations = p.summarizer.Validate(ctx, s.Best, s.Recommendations)
	return s, nil
}

// save persists the recommendations. A write failure is reported in the
// structured save result and not retried.
func (p *Pipeline) save(ctx context.Context, s State) (State, error) {
	if len(s.Recommendations) == 0 {
		s.NoResults = true
		s.Save = SaveResult{Success: true}
		return s, nil
	}

	saved, err := p.sink.InsertRecommendations(ctx, s.RunID, s.Recommendations)
	if err != nil {
		p.log.Error("recommendation save failed", "run_id", s.RunID, "error", err)
		s.Save = SaveResult{Success: false, Error: err.Error()}
		return s, nil
	}
	s.Save = SaveResult{Success: true, Saved: saved}
	return s, nil
}

func (p *Pipeline) noResults(_ context.Context, s State) (State, error) {
	p.log.Info("no reviews to process", "mall_id", s.MallID, "shop_id", s.ShopID)
	s.NoResults = true
	s.Save = SaveResult{Success: true}
	return s, nil
}
