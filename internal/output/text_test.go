package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dshills/bestrev/internal/pipeline"
	"github.com/dshills/bestrev/internal/review"
)

func sampleResult() *pipeline.State {
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return &pipeline.State{
		RunID:  "run-123",
		MallID: "mall-1",
		ShopID: "shop-9",
		Reviews: []review.Review{
			{ID: 1, Text: "battery lasts three days", Rating: 5, CreatedAt: base},
			{ID: 2, Text: "hinge broke after a week", Rating: 2, CreatedAt: base},
			{ID: 3, Text: "decent value for the price", Rating: 4, CreatedAt: base},
		},
		Best: []review.SelectedReview{
			{Review: review.Review{ID: 1, Text: "battery lasts three days", Rating: 5}, Score: 92},
			{Review: review.Review{ID: 3, Text: "decent value for the price", Rating: 4}, Score: 78},
		},
		Recommendations: []review.Recommendation{
			{ReviewID: 1, Title: "Multi-day battery", Summary: "Battery lasts three days of heavy use."},
			{ReviewID: 3, Title: "Solid value", Summary: "Does what it promises for the price."},
		},
		Confidence: 1.0,
		Save:       pipeline.SaveResult{Success: true, Saved: 2},
	}
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &TextWriter{}
	if err := w.Write(&buf, sampleResult()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"shop shop-9",
		"run-123",
		"Multi-day battery",
		"Solid value",
		"rating 5/5",
		"score 92",
		"Saved 2 recommendations",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestTextWriter_NoResults(t *testing.T) {
	result := &pipeline.State{
		RunID:     "run-456",
		MallID:    "mall-1",
		ShopID:    "shop-9",
		NoResults: true,
		Save:      pipeline.SaveResult{Success: true},
	}

	var buf bytes.Buffer
	w := &TextWriter{}
	if err := w.Write(&buf, result); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(buf.String(), "No reviews qualified") {
		t.Errorf("expected no-results message, got:\n%s", buf.String())
	}
}

func TestTextWriter_SaveFailure(t *testing.T) {
	result := sampleResult()
	result.Save = pipeline.SaveResult{Success: false, Error: "disk full"}

	var buf bytes.Buffer
	w := &TextWriter{}
	if err := w.Write(&buf, result); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(buf.String(), "Save FAILED: disk full") {
		t.Errorf("expected save failure message, got:\n%s", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six seven eight nine ten", 20)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %v", lines)
	}
	for _, line := range lines {
		if len(line) > 20 {
			t.Errorf("line exceeds width: %q", line)
		}
	}
}

func TestGetWriter(t *testing.T) {
	for _, format := range []string{"text", "json", "markdown"} {
		if _, err := GetWriter(format); err != nil {
			t.Errorf("GetWriter(%q) error: %v", format, err)
		}
	}
	if _, err := GetWriter("xml"); err == nil {
		t.Error("GetWriter should reject unknown formats")
	}
}
