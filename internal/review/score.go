package review

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/dshills/bestrev/internal/providers"
)

const (
	// maxScoreConcurrency caps parallel chunk scoring calls per perspective.
	maxScoreConcurrency = 4

	// DefaultScore is assigned when a review's score cannot be parsed or a
	// chunk call fails. Neutral midpoint of the 0-100 range.
	DefaultScore = 50

	scoreMaxTokens = 2000
)

// Scorer scores reviews against one perspective's criteria using an LLM
// judge. Failures never propagate: any review the judge does not score ends
// up with DefaultScore.
type Scorer struct {
	Provider    providers.Completer
	Chunker     Chunker
	Temperature float64
	Log         *slog.Logger
}

// NewScorer returns a Scorer with the default chunker and a low scoring
// temperature.
func NewScorer(provider providers.Completer, log *slog.Logger) Scorer {
	if log == nil {
		log = slog.Default()
	}
	return Scorer{
		Provider:    provider,
		Chunker:     NewChunker(),
		Temperature: 0.1,
		Log:         log,
	}
}

// ScorePerspective scores every review under the given criterion type and
// returns a score per input review ID. Reviews split across chunks are
// reunified by averaging their part scores.
func (s Scorer) ScorePerspective(ctx context.Context, ct CriterionType, reviews []Review) map[int64]int {
	scores := make(map[int64]int, len(reviews))
	if len(reviews) == 0 {
		return scores
	}

	chunks := s.Chunker.Split(reviews)
	raw := s.scoreChunks(ctx, ct, chunks)

	for _, r := range reviews {
		scores[r.ID] = reunify(raw, r.ID)
	}
	return scores
}

// scoreChunks scores each chunk in parallel and merges the per-item score
// maps. A failed chunk contributes DefaultScore for each of its items.
func (s Scorer) scoreChunks(ctx context.Context, ct CriterionType, chunks []Chunk) map[string]int {
	results := make([]map[string]int, len(chunks))
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxScoreConcurrency)

	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk Chunk) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			results[i] = s.scoreChunk(ctx, ct, chunk)
		}(i, chunk)
	}
	wg.Wait()

	merged := make(map[string]int)
	for _, m := range results {
		for id, score := range m {
			merged[id] = score
		}
	}
	return merged
}

func (s Scorer) scoreChunk(ctx context.Context, ct CriterionType, chunk Chunk) map[string]int {
	req := providers.Request{
		UserPrompt:  BuildScoringPrompt(ct.Type, ct.Criteria, chunk),
		MaxTokens:   scoreMaxTokens,
		Temperature: s.Temperature,
	}

	resp, err := s.Provider.Complete(ctx, req)
	if err != nil {
		s.Log.Warn("chunk scoring failed, using default scores",
			"perspective", ct.Type, "reviews", len(chunk), "error", err)
		scores := make(map[string]int, len(chunk))
		for _, it := range chunk {
			scores[it.ScoreID()] = DefaultScore
		}
		return scores
	}

	scores := parseScores(resp.Content, chunk)
	for _, it := range chunk {
		if _, ok := scores[it.ScoreID()]; !ok {
			s.Log.Warn("no score for review, using default",
				"perspective", ct.Type, "id", it.ScoreID())
			scores[it.ScoreID()] = DefaultScore
		}
	}
	return scores
}

var reviewIndexRe = regexp.MustCompile(`(?i)review\s*#?\s*(\d+)`)
var numberRe = regexp.MustCompile(`\d+`)

// scoreRe keeps the sign so a negative judge score clamps to 0 instead of
// being read as its absolute value.
var scoreRe = regexp.MustCompile(`-?\d+`)

// parseScores extracts "review N: score" lines from a judge response,
// mapping positional indexes back to chunk item IDs. Lines that don't match
// the index pattern fall back to a direct "id: score" reading. Scores are
// clamped to [0, 100]; unparseable lines are skipped.
func parseScores(content string, chunk Chunk) map[string]int {
	scores := make(map[string]int)

	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, ":") {
			continue
		}

		if m := reviewIndexRe.FindStringSubmatch(line); m != nil {
			idx, err := strconv.Atoi(m[1])
			if err != nil || idx < 1 || idx > len(chunk) {
				continue
			}
			scorePart := line[strings.LastIndex(line, ":")+1:]
			if n := scoreRe.FindString(scorePart); n != "" {
				score, _ := strconv.Atoi(n)
				scores[chunk[idx-1].ScoreID()] = clampScore(score)
			}
			continue
		}

		// Direct "735: 85" form. Use the last number before the first
		// colon as the ID.
		idPart, scorePart, _ := strings.Cut(line, ":")
		idNums := numberRe.FindAllString(idPart, -1)
		if len(idNums) == 0 {
			continue
		}
		id := idNums[len(idNums)-1]
		if n := scoreRe.FindString(scorePart); n != "" {
			score, _ := strconv.Atoi(n)
			if sid, ok := matchScoreID(chunk, id); ok {
				scores[sid] = clampScore(score)
			}
		}
	}

	return scores
}

// matchScoreID resolves a bare numeric ID from a response line to a chunk
// item, accepting either the whole ID or the original ID of a split part.
func matchScoreID(chunk Chunk, id string) (string, bool) {
	for _, it := range chunk {
		if it.ScoreID() == id || (it.IsSplit && strconv.FormatInt(it.OriginalID, 10) == id) {
			return it.ScoreID(), true
		}
	}
	return "", false
}

// reunify resolves a review's final score from the raw per-item map: the
// direct entry if present, otherwise the mean of its split-part scores,
// otherwise DefaultScore.
func reunify(raw map[string]int, id int64) int {
	key := strconv.FormatInt(id, 10)
	if score, ok := raw[key]; ok {
		return score
	}

	prefix := key + "_part"
	sum, n := 0, 0
	for k, score := range raw {
		if strings.HasPrefix(k, prefix) {
			sum += score
			n++
		}
	}
	if n > 0 {
		return sum / n
	}
	return DefaultScore
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
