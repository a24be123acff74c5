package review

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/bestrev/internal/token"
)

const (
	// DefaultChunkBudget is the per-group token ceiling, prompt overhead
	// included.
	DefaultChunkBudget = 8000
	// DefaultPromptOverhead reserves room for the fixed judge-prompt
	// template around the review list.
	DefaultPromptOverhead = 500
)

// ChunkItem is one review prepared for a scoring prompt. An oversized
// review is split at sentence boundaries into sequential parts; parts carry
// the original ID so their scores can be reunified after parsing.
type ChunkItem struct {
	Review
	IsSplit    bool
	OriginalID int64
	PartNumber int
	TotalParts int
}

// ScoreID is the identifier the judge prompt uses for this item. Split
// parts are suffixed so the parser can prefix-match them back onto the
// original review.
func (it ChunkItem) ScoreID() string {
	if it.IsSplit {
		return fmt.Sprintf("%d_part%d", it.OriginalID, it.PartNumber)
	}
	return fmt.Sprintf("%d", it.ID)
}

// Chunk is one token-bounded group of items scored in a single prompt.
type Chunk []ChunkItem

// Chunker groups reviews so that each group's estimated token cost plus the
// fixed prompt overhead stays within Budget.
type Chunker struct {
	Budget   int
	Overhead int
	// Estimate overrides token counting; nil uses token.Count.
	Estimate func(string) int
}

// NewChunker returns a Chunker with the default budget and overhead.
func NewChunker() Chunker {
	return Chunker{Budget: DefaultChunkBudget, Overhead: DefaultPromptOverhead}
}

func (c Chunker) estimate(text string) int {
	if c.Estimate != nil {
		return c.Estimate(text)
	}
	return token.Count(text)
}

func (c Chunker) budget() int {
	if c.Budget > 0 {
		return c.Budget
	}
	return DefaultChunkBudget
}

// Split groups reviews into token-bounded chunks, preserving input order.
// A single review whose cost alone exceeds the budget is split at sentence
// boundaries into parts, each emitted as its own chunk.
func (c Chunker) Split(reviews []Review) []Chunk {
	if len(reviews) == 0 {
		return nil
	}
	budget := c.budget()
	avail := budget - c.Overhead
	if avail <= 0 {
		avail = 1
	}

	var chunks []Chunk
	var current Chunk
	currentTokens := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, current)
			current = nil
			currentTokens = 0
		}
	}

	for _, r := range reviews {
		cost := c.estimate(r.promptLine())

		if cost > avail {
			flush()
			for _, part := range c.splitReview(r, avail) {
				chunks = append(chunks, Chunk{part})
			}
			continue
		}

		if len(current) > 0 && currentTokens+cost > avail {
			flush()
		}
		current = append(current, ChunkItem{Review: r, OriginalID: r.ID})
		currentTokens += cost
	}
	flush()

	return chunks
}

// splitReview breaks one oversized review into sentence-boundary parts that
// each fit within avail tokens.
func (c Chunker) splitReview(r Review, avail int) []ChunkItem {
	sentences := splitSentences(r.Text)
	if len(sentences) == 0 {
		sentences = []string{r.Text}
	}

	var parts []string
	var buf string
	for _, s := range sentences {
		candidate := s
		if buf != "" {
			candidate = buf + " " + s
		}
		if buf != "" && c.estimate(candidate) > avail {
			parts = append(parts, buf)
			buf = s
			continue
		}
		buf = candidate
	}
	if buf != "" {
		parts = append(parts, buf)
	}

	// A lone sentence can still blow the budget; hard-split it by runes.
	var bounded []string
	for _, p := range parts {
		bounded = append(bounded, c.hardSplit(p, avail)...)
	}

	items := make([]ChunkItem, len(bounded))
	for i, text := range bounded {
		part := r
		part.Text = text
		items[i] = ChunkItem{
			Review:     part,
			IsSplit:    true,
			OriginalID: r.ID,
			PartNumber: i + 1,
			TotalParts: len(bounded),
		}
	}
	return items
}

var sentenceEnd = regexp.MustCompile(`([.!?。！？])\s+`)

// splitSentences breaks plain text into sentences on terminal punctuation.
// Text without any terminal punctuation comes back as a single sentence.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	marked := sentenceEnd.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

func (c Chunker) hardSplit(text string, avail int) []string {
	if c.estimate(text) <= avail {
		return []string{text}
	}
	runes := []rune(text)
	half := len(runes) / 2
	if half == 0 {
		return []string{text}
	}
	out := c.hardSplit(string(runes[:half]), avail)
	return append(out, c.hardSplit(string(runes[half:]), avail)...)
}

// promptLine is the text a review contributes to a judge prompt; token
// budgeting is computed against this, not the bare review text.
func (r Review) promptLine() string {
	return fmt.Sprintf("review (ID: %d): %s\n\n", r.ID, r.Text)
}
