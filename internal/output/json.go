package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/bestrev/internal/pipeline"
	"github.com/dshills/bestrev/internal/review"
)

// JSONWriter outputs a machine-readable run result.
type JSONWriter struct{}

// jsonResult is the stable wire shape; it deliberately omits intermediate
// pipeline state like raw candidates and per-identity selections.
type jsonResult struct {
	RunID           string                  `json:"runId"`
	MallID          string                  `json:"mallId"`
	ShopID          string                  `json:"shopId"`
	NoResults       bool                    `json:"noResults"`
	Confidence      float64                 `json:"confidence"`
	Best            []review.SelectedReview `json:"best,omitempty"`
	Recommendations []review.Recommendation `json:"recommendations,omitempty"`
	Save            pipeline.SaveResult     `json:"save"`
}

func (j *JSONWriter) Write(w io.Writer, result *pipeline.State) error {
	out := jsonResult{
		RunID:           result.RunID,
		MallID:          result.MallID,
		ShopID:          result.ShopID,
		NoResults:       result.NoResults,
		Confidence:      result.Confidence,
		Best:            result.Best,
		Recommendations: result.Recommendations,
		Save:            result.Save,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
