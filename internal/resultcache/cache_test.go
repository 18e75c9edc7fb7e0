package resultcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machiya/archidb/internal/testutil"
)

func TestCache_RoundTrip(t *testing.T) {
	clock := testutil.NewManualClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	c := New(clock.Now)

	c.Put("k", "value", 5*time.Minute)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestCache_LazyExpiry(t *testing.T) {
	clock := testutil.NewManualClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	c := New(clock.Now)

	c.Put("k", "value", 5*time.Minute)

	// Just inside the TTL window.
	clock.Advance(5 * time.Minute)
	_, ok := c.Get("k")
	assert.True(t, ok)

	// Past expiry: miss, and the entry is removed at read time.
	clock.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_ZeroTTLNeverStored(t *testing.T) {
	c := New(nil)

	c.Put("k", "value", 0)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Miss(t *testing.T) {
	c := New(nil)

	_, ok := c.Get("absent")
	assert.False(t, ok)

	hits, misses := c.Stats()
	assert.Equal(t, int64(0), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCache_Overwrite(t *testing.T) {
	clock := testutil.NewManualClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	c := New(clock.Now)

	c.Put("k", "old", time.Minute)
	c.Put("k", "new", time.Hour)

	clock.Advance(30 * time.Minute)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name string
		sql  string
		want Intent
	}{
		{
			name: "write statement never cached",
			sql:  "UPDATE architecture SET title = ? WHERE id = ?",
			want: IntentWrite,
		},
		{
			name: "distinct reference values",
			sql:  "SELECT DISTINCT prefecture FROM architecture ORDER BY prefecture ASC",
			want: IntentReference,
		},
		{
			name: "distinct nationality",
			sql:  "SELECT DISTINCT nationality FROM architect ORDER BY nationality ASC",
			want: IntentReference,
		},
		{
			name: "tag enumeration without where",
			sql:  "SELECT DISTINCT tag FROM architecture",
			want: IntentTagEnum,
		},
		{
			name: "detail lookup by primary key",
			sql:  "SELECT * FROM architecture WHERE id = ? LIMIT 1",
			want: IntentDetail,
		},
		{
			name: "geo bounding box wins over list",
			sql:  "SELECT * FROM architecture WHERE lat >= ? AND lat <= ? AND lng >= ? AND lng <= ? LIMIT 500",
			want: IntentGeo,
		},
		{
			name: "paginated list",
			sql:  "SELECT * FROM architecture WHERE category = ? ORDER BY year DESC LIMIT 20 OFFSET 0",
			want: IntentList,
		},
		{
			name: "other select",
			sql:  "SELECT COUNT(1) FROM architecture",
			want: IntentDefault,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.sql))
		})
	}
}

func TestTTLFor_Ordering(t *testing.T) {
	// Reference data lives longest, geo shortest, writes never.
	assert.Equal(t, time.Duration(0), TTLFor(IntentWrite))
	assert.Greater(t, TTLFor(IntentReference), TTLFor(IntentTagEnum))
	assert.Greater(t, TTLFor(IntentTagEnum), TTLFor(IntentDetail))
	assert.Greater(t, TTLFor(IntentDetail), TTLFor(IntentList))
	assert.Greater(t, TTLFor(IntentList), TTLFor(IntentGeo))
	assert.Positive(t, TTLFor(IntentDefault))
}
