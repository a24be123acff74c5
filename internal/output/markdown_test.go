package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dshills/bestrev/internal/pipeline"
	"github.com/dshills/bestrev/internal/review"
)

func TestMarkdownWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &MarkdownWriter{}
	if err := w.Write(&buf, sampleResult()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"## Best Reviews — shop shop-9",
		"| # | Review | Rating | Score | Title |",
		"| 1 | 1 | 5/5 | 92 | Multi-day battery |",
		"### Solid value",
		"> decent value for the price",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownWriter_NoResults(t *testing.T) {
	result := &pipeline.State{RunID: "run-456", ShopID: "shop-9", NoResults: true}

	var buf bytes.Buffer
	w := &MarkdownWriter{}
	if err := w.Write(&buf, result); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(buf.String(), "No reviews qualified") {
		t.Errorf("expected no-results message, got:\n%s", buf.String())
	}
}

func TestMarkdownWriter_EscapesTitlePipes(t *testing.T) {
	result := sampleResult()
	result.Recommendations = []review.Recommendation{
		{ReviewID: 1, Title: "Great | terrible", Summary: "mixed feelings"},
	}

	var buf bytes.Buffer
	w := &MarkdownWriter{}
	if err := w.Write(&buf, result); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(buf.String(), `Great \| terrible`) {
		t.Errorf("pipe not escaped in table:\n%s", buf.String())
	}
}
