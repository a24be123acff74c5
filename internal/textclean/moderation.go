package textclean

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dshills/bestrev/internal/review"
)

// SafetyFilter decides whether one piece of review text is safe to show.
type SafetyFilter interface {
	Check(ctx context.Context, text string) (safe bool, err error)
}

// FailurePolicy is the call site's explicit choice for total moderation
// failure.
type FailurePolicy int

const (
	// PassThrough keeps all reviews when moderation is unavailable.
	PassThrough FailurePolicy = iota
	// RejectAll drops all reviews when moderation is unavailable.
	RejectAll
)

// FilterSafe removes flagged reviews. A Check error for an individual
// review counts as a service failure; the outcome for the whole batch then
// follows the policy the caller picked.
func FilterSafe(ctx context.Context, filter SafetyFilter, reviews []review.Review, policy FailurePolicy, log *slog.Logger) []review.Review {
	if log == nil {
		log = slog.Default()
	}
	if filter == nil {
		return reviews
	}

	safe := make([]review.Review, 0, len(reviews))
	for _, r := range reviews {
		ok, err := filter.Check(ctx, r.Text)
		if err != nil {
			log.Warn("moderation unavailable", "review", r.ID, "error", err)
			if policy == RejectAll {
				return nil
			}
			return reviews
		}
		if ok {
			safe = append(safe, r)
		}
	}
	return safe
}

// KeywordFilter is a rule-based SafetyFilter flagging text containing any
// of its blocked terms. Matching is case-insensitive.
type KeywordFilter struct {
	Blocked []string
}

// Check reports whether text contains none of the blocked terms.
func (f *KeywordFilter) Check(_ context.Context, text string) (bool, error) {
	lower := strings.ToLower(text)
	for _, term := range f.Blocked {
		if term == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(term)) {
			return false, nil
		}
	}
	return true, nil
}
