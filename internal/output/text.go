package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/bestrev/internal/pipeline"
	"github.com/dshills/bestrev/internal/review"
)

// TextWriter outputs a human-readable run report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, result *pipeline.State) error {
	ew := &errWriter{w: w}

	ew.printf("Best Reviews — shop %s (mall %s)\n", result.ShopID, result.MallID)
	ew.printf("Run: %s\n", result.RunID)
	ew.println(strings.Repeat("─", 60))

	if result.NoResults && len(result.Recommendations) == 0 {
		ew.println("\nNo reviews qualified for this shop.")
		return ew.err
	}

	selected := selectedByID(result.Best)

	for i, rec := range result.Recommendations {
		ew.printf("\n%d. %s\n", i+1, rec.Title)
		if sel, ok := selected[rec.ReviewID]; ok {
			ew.printf("   review #%d | rating %d/5 | score %d\n",
				rec.ReviewID, sel.Rating, sel.Score)
		} else {
			ew.printf("   review #%d\n", rec.ReviewID)
		}
		for _, line := range wrapText(rec.Summary, 70) {
			ew.printf("   %s\n", line)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Selected %d of %d fetched reviews (confidence %.2f)\n",
		len(result.Recommendations), len(result.Reviews), result.Confidence)
	if result.Save.Success {
		ew.printf("Saved %d recommendations.\n", result.Save.Saved)
	} else {
		ew.printf("Save FAILED: %s\n", result.Save.Error)
	}

	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func selectedByID(best []review.SelectedReview) map[int64]review.SelectedReview {
	m := make(map[int64]review.SelectedReview, len(best))
	for _, s := range best {
		m[s.ID] = s
	}
	return m
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
