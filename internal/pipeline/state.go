package pipeline

import (
	"github.com/dshills/bestrev/internal/gate"
	"github.com/dshills/bestrev/internal/review"
)

// State is the value threaded through the pipeline graph. Each stage reads
// the fields of earlier stages and fills in its own; nothing is keyed by
// string or read defensively.
type State struct {
	RunID  string `json:"runId"`
	MallID string `json:"mallId"`
	ShopID string `json:"shopId"`

	Reviews  []review.Review `json:"reviews,omitempty"`
	Filtered []review.Review `json:"filtered,omitempty"`

	Candidates []review.Candidate       `json:"candidates,omitempty"`
	Approved   []review.Candidate       `json:"approved,omitempty"`
	Ranked     []review.RankedCandidate `json:"ranked,omitempty"`

	Selected []review.SelectedReview  `json:"selected,omitempty"`
	Merged   []review.MergedSelection `json:"merged,omitempty"`
	Best     []review.SelectedReview  `json:"best,omitempty"`

	Confidence     float64    `json:"confidence"`
	RerankState    gate.State `json:"rerankState,omitempty"`
	RerankRetries  int        `json:"rerankRetries"`
	SummaryRetries int        `json:"summaryRetries"`

	Recommendations []review.Recommendation `json:"recommendations,omitempty"`

	NoResults bool       `json:"noResults"`
	Save      SaveResult `json:"save"`
}

// SaveResult is the structured outcome of the final persistence step. A
// failed insert is reported here, not retried.
type SaveResult struct {
	Success bool   `json:"success"`
	Saved   int64  `json:"saved"`
	Error   string `json:"error,omitempty"`
}
