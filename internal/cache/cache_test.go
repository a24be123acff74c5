package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stamps() []IDStamp {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []IDStamp{
		{ID: 1, CreatedAt: base},
		{ID: 2, CreatedAt: base.Add(24 * time.Hour)},
		{ID: 3, CreatedAt: base.Add(48 * time.Hour)},
	}
}

func reversed(s []IDStamp) []IDStamp {
	out := make([]IDStamp, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

func testCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := New(true, t.TempDir(), ttl, nil)
	require.NoError(t, err)
	return c
}

func TestKey_OrderIndependent(t *testing.T) {
	req := Request{Identity: "gpt-4.1-mini", Reviews: stamps(), Instruction: "focus", RequestedCount: 3}
	rev := req
	rev.Reviews = reversed(stamps())
	assert.Equal(t, req.Key(), rev.Key())
}

func TestKey_SensitiveToComponents(t *testing.T) {
	base := Request{Identity: "a", Reviews: stamps(), Instruction: "x", RequestedCount: 3}

	other := base
	other.Identity = "b"
	assert.NotEqual(t, base.Key(), other.Key())

	other = base
	other.Instruction = "y"
	assert.NotEqual(t, base.Key(), other.Key())

	other = base
	other.RequestedCount = 5
	assert.NotEqual(t, base.Key(), other.Key())

	other = base
	other.Reviews = stamps()[:2]
	assert.NotEqual(t, base.Key(), other.Key())
}

type payload struct {
	ID    int64  `json:"id"`
	Score int    `json:"score"`
	Text  string `json:"text"`
}

func TestCache_RoundTrip(t *testing.T) {
	c := testCache(t, time.Hour)
	req := Request{Identity: "gpt-4.1-nano", Reviews: stamps(), Instruction: "best", RequestedCount: 3}

	var miss []payload
	assert.False(t, c.Get(req, &miss))

	want := []payload{{ID: 1, Score: 95, Text: "great"}, {ID: 3, Score: 80, Text: "good"}}
	require.NoError(t, c.Put(req, want))

	var got []payload
	require.True(t, c.Get(req, &got))
	assert.Equal(t, want, got)
}

func TestCache_TTLBoundary(t *testing.T) {
	const ttl = 10 * time.Minute
	c := testCache(t, ttl)
	req := Request{Identity: "m", Reviews: stamps(), Instruction: "i", RequestedCount: 1}
	require.NoError(t, c.Put(req, payload{ID: 1, Score: 50}))

	path := c.entryPath(req.Key())

	// Aged to just under the TTL: still a hit.
	almost := time.Now().Add(-ttl + time.Minute)
	require.NoError(t, os.Chtimes(path, almost, almost))
	var got payload
	assert.True(t, c.Get(req, &got))

	// Aged past the TTL: a miss.
	past := time.Now().Add(-ttl - time.Minute)
	require.NoError(t, os.Chtimes(path, past, past))
	assert.False(t, c.Get(req, &got))
}

func TestCache_VersionMismatchIsMiss(t *testing.T) {
	c := testCache(t, time.Hour)
	req := Request{Identity: "m", Reviews: stamps(), Instruction: "i", RequestedCount: 1}
	require.NoError(t, c.Put(req, payload{ID: 1}))

	path := c.entryPath(req.Key())
	stale := `{"version":"0.9","metadata":{},"result":{"id":1}}`
	require.NoError(t, os.WriteFile(path, []byte(stale), 0o644))

	var got payload
	assert.False(t, c.Get(req, &got))
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	c := testCache(t, time.Hour)
	req := Request{Identity: "m", Reviews: stamps(), Instruction: "i", RequestedCount: 1}
	require.NoError(t, c.Put(req, payload{ID: 1}))

	require.NoError(t, os.WriteFile(c.entryPath(req.Key()), []byte("{not json"), 0o644))

	var got payload
	assert.False(t, c.Get(req, &got))
}

func TestCache_EvictExpired(t *testing.T) {
	const ttl = time.Hour
	c := testCache(t, ttl)

	fresh := Request{Identity: "fresh", Reviews: stamps(), Instruction: "i", RequestedCount: 1}
	stale := Request{Identity: "stale", Reviews: stamps(), Instruction: "i", RequestedCount: 1}
	require.NoError(t, c.Put(fresh, payload{ID: 1}))
	require.NoError(t, c.Put(stale, payload{ID: 2}))

	old := time.Now().Add(-2 * ttl)
	require.NoError(t, os.Chtimes(c.entryPath(stale.Key()), old, old))

	assert.Equal(t, 1, c.EvictExpired())

	var got payload
	assert.True(t, c.Get(fresh, &got))
	assert.False(t, c.Get(stale, &got))
}

func TestCache_Disabled(t *testing.T) {
	c, err := New(false, "", 0, nil)
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	req := Request{Identity: "m", Reviews: stamps(), Instruction: "i", RequestedCount: 1}
	assert.NoError(t, c.Put(req, payload{ID: 1}))
	var got payload
	assert.False(t, c.Get(req, &got))
	assert.Equal(t, 0, c.EvictExpired())
	assert.NoError(t, c.Clear())
}

func TestCache_NoTempFilesLeftBehind(t *testing.T) {
	c := testCache(t, time.Hour)
	req := Request{Identity: "m", Reviews: stamps(), Instruction: "i", RequestedCount: 1}
	require.NoError(t, c.Put(req, payload{ID: 1}))

	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, ".json", filepath.Ext(e.Name()))
	}
}

func TestCache_Clear(t *testing.T) {
	c := testCache(t, time.Hour)
	for i := int64(0); i < 5; i++ {
		req := Request{Identity: "m", Reviews: []IDStamp{{ID: i}}, Instruction: "i", RequestedCount: 1}
		require.NoError(t, c.Put(req, payload{ID: i}))
	}
	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Entries)

	require.NoError(t, c.Clear())
	stats, err = c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
}
