package textclean

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/bestrev/internal/review"
)

func TestClean_PlainTextUnchanged(t *testing.T) {
	assert.Equal(t, "great product", Clean("great product"))
}

func TestClean_StripsMarkup(t *testing.T) {
	got := Clean("<p>Fast shipping.</p><p>Works <b>really</b> well.</p>")
	assert.Equal(t, "Fast shipping. Works really well.", got)
}

func TestClean_DecodesEntities(t *testing.T) {
	got := Clean("good &amp; cheap &lt;3")
	assert.Equal(t, "good & cheap <3", got)
}

func TestClean_CollapsesWhitespace(t *testing.T) {
	got := Clean("  too \n\n many\t spaces  ")
	assert.Equal(t, "too many spaces", got)
}

func TestClean_Empty(t *testing.T) {
	assert.Equal(t, "", Clean(""))
	assert.Equal(t, "", Clean("   \n "))
}

type failingFilter struct{}

func (failingFilter) Check(context.Context, string) (bool, error) {
	return false, errors.New("moderation down")
}

func sampleReviews() []review.Review {
	now := time.Now()
	return []review.Review{
		{ID: 1, Text: "clean text", Rating: 5, CreatedAt: now},
		{ID: 2, Text: "spam spam spam", Rating: 1, CreatedAt: now},
	}
}

func TestFilterSafe_RemovesFlagged(t *testing.T) {
	filter := &KeywordFilter{Blocked: []string{"spam"}}
	got := FilterSafe(context.Background(), filter, sampleReviews(), PassThrough, nil)
	assert.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestFilterSafe_FailurePolicyPassThrough(t *testing.T) {
	got := FilterSafe(context.Background(), failingFilter{}, sampleReviews(), PassThrough, nil)
	assert.Len(t, got, 2)
}

func TestFilterSafe_FailurePolicyRejectAll(t *testing.T) {
	got := FilterSafe(context.Background(), failingFilter{}, sampleReviews(), RejectAll, nil)
	assert.Empty(t, got)
}

func TestKeywordFilter_CaseInsensitive(t *testing.T) {
	filter := &KeywordFilter{Blocked: []string{"SPAM"}}
	ok, err := filter.Check(context.Background(), "this is Spam content")
	assert.NoError(t, err)
	assert.False(t, ok)
}
