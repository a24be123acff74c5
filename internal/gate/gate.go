package gate

import (
	"context"
	"log/slog"
)

// State is the quality gate's position after an evaluation.
type State string

const (
	// Checking means an attempt is being evaluated.
	Checking State = "checking"
	// Accepted means confidence cleared the threshold.
	Accepted State = "accepted"
	// Retrying means confidence was low and a retry is allowed.
	Retrying State = "retrying"
	// ForcedAccept means retries are exhausted; the pipeline proceeds with
	// the low-confidence result rather than blocking.
	ForcedAccept State = "forced_accept"
)

const (
	// DefaultThreshold is the confidence a result must exceed to be
	// accepted outright.
	DefaultThreshold = 0.75
	// DefaultRetryCap bounds retries, so a gated stage runs at most
	// DefaultRetryCap+1 times.
	DefaultRetryCap = 2
)

// Gate is a bounded-retry quality gate. The same machine governs rerank
// confidence and summary quality; callers parameterize it with their own
// attempt function and caps.
type Gate struct {
	Name      string
	Threshold float64
	RetryCap  int
	Log       *slog.Logger
}

// New returns a Gate with the default threshold and retry cap.
func New(name string, log *slog.Logger) Gate {
	if log == nil {
		log = slog.Default()
	}
	return Gate{Name: name, Threshold: DefaultThreshold, RetryCap: DefaultRetryCap, Log: log}
}

// Result reports how a gated stage concluded.
type Result struct {
	State      State
	Confidence float64
	Attempts   int
}

// Decide applies the transition rule to one evaluation: accept above the
// threshold, retry while retries remain, otherwise force-accept.
func (g Gate) Decide(confidence float64, retryCount int) State {
	switch {
	case confidence > g.Threshold:
		return Accepted
	case retryCount < g.RetryCap:
		return Retrying
	default:
		return ForcedAccept
	}
}

// Run drives attempt through the gate until it is accepted or retries are
// exhausted. attempt receives the current retry count (0 on the first try)
// and returns the confidence of its result. Run always finishes within
// RetryCap+1 attempts; an attempt error counts as zero confidence, and the
// last error is returned alongside a ForcedAccept only when no attempt
// succeeded after it.
func (g Gate) Run(ctx context.Context, attempt func(ctx context.Context, retry int) (float64, error)) (Result, error) {
	var lastErr error
	confidence := 0.0

	for retry := 0; ; retry++ {
		if err := ctx.Err(); err != nil {
			return Result{State: Checking, Confidence: confidence, Attempts: retry}, err
		}

		var err error
		confidence, err = attempt(ctx, retry)
		if err != nil {
			g.Log.Warn("gated attempt failed", "gate", g.Name, "retry", retry, "error", err)
			confidence = 0
			lastErr = err
		} else {
			lastErr = nil
		}

		switch g.Decide(confidence, retry) {
		case Accepted:
			g.Log.Info("gate accepted", "gate", g.Name, "confidence", confidence, "attempts", retry+1)
			return Result{State: Accepted, Confidence: confidence, Attempts: retry + 1}, nil
		case Retrying:
			g.Log.Info("gate retrying", "gate", g.Name, "confidence", confidence, "retry", retry+1)
		default:
			g.Log.Warn("gate retries exhausted, proceeding with low-confidence result",
				"gate", g.Name, "confidence", confidence, "attempts", retry+1)
			return Result{State: ForcedAccept, Confidence: confidence, Attempts: retry + 1}, lastErr
		}
	}
}
