package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/bestrev/internal/pipeline"
)

// MarkdownWriter outputs a report suitable for pasting into a wiki page or
// merchandising doc.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, result *pipeline.State) error {
	fmt.Fprintf(w, "## Best Reviews — shop %s\n\n", result.ShopID)
	fmt.Fprintf(w, "Run `%s` (mall %s)\n\n", result.RunID, result.MallID)

	if result.NoResults && len(result.Recommendations) == 0 {
		fmt.Fprintln(w, "No reviews qualified for this shop.")
		return nil
	}

	selected := selectedByID(result.Best)

	fmt.Fprintf(w, "| # | Review | Rating | Score | Title |\n")
	fmt.Fprintf(w, "|---|--------|--------|-------|-------|\n")
	for i, rec := range result.Recommendations {
		rating, score := "-", "-"
		if sel, ok := selected[rec.ReviewID]; ok {
			rating = fmt.Sprintf("%d/5", sel.Rating)
			score = fmt.Sprintf("%d", sel.Score)
		}
		fmt.Fprintf(w, "| %d | %d | %s | %s | %s |\n",
			i+1, rec.ReviewID, rating, score, escapePipes(rec.Title))
	}
	fmt.Fprintln(w)

	for _, rec := range result.Recommendations {
		fmt.Fprintf(w, "### %s\n\n", rec.Title)
		fmt.Fprintf(w, "%s\n\n", rec.Summary)
		if sel, ok := selected[rec.ReviewID]; ok {
			fmt.Fprintf(w, "> %s\n\n", strings.ReplaceAll(sel.Text, "\n", "\n> "))
		}
		fmt.Fprintf(w, "---\n\n")
	}

	fmt.Fprintf(w, "*Confidence %.2f, %d of %d reviews selected*\n",
		result.Confidence, len(result.Recommendations), len(result.Reviews))
	return nil
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
