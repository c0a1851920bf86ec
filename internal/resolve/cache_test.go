package resolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheHitAndExpiry(t *testing.T) {
	c := NewCache(30*time.Millisecond, 10)
	candidates := []string{"(1) მაგსი", "(2) ბაჩუკი"}

	c.Set("მაგსი", candidates, "(1) მაგსი")

	record, ok := c.Get("მაგსი", candidates)
	require.True(t, ok)
	require.Equal(t, "(1) მაგსი", record)

	time.Sleep(50 * time.Millisecond)
	_, ok = c.Get("მაგსი", candidates)
	require.False(t, ok, "entry should expire after the TTL")
}

func TestCacheKeyTracksCandidateSet(t *testing.T) {
	c := NewCache(time.Minute, 10)
	c.Set("მაგსი", []string{"(1) მაგსი"}, "(1) მაგსი")

	// Same text but a different candidate subset must miss: the record list
	// may have changed underneath the cached mapping.
	_, ok := c.Get("მაგსი", []string{"(1) მაგსი", "(2) ბაჩუკი"})
	require.False(t, ok)

	// Candidate order does not matter, only membership.
	c.Set("ბაჩუკი", []string{"(1) მაგსი", "(2) ბაჩუკი"}, "(2) ბაჩუკი")
	record, ok := c.Get("ბაჩუკი", []string{"(2) ბაჩუკი", "(1) მაგსი"})
	require.True(t, ok)
	require.Equal(t, "(2) ბაჩუკი", record)
}

func TestCacheNormalizesText(t *testing.T) {
	c := NewCache(time.Minute, 10)
	candidates := []string{"(1) Magsi"}

	c.Set("  Magsi  ", candidates, "(1) Magsi")
	record, ok := c.Get("magsi", candidates)
	require.True(t, ok)
	require.Equal(t, "(1) Magsi", record)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(time.Minute, 2)
	candidates := []string{"(1) a"}

	c.Set("first", candidates, "(1) a")
	c.Set("second", candidates, "(1) a")

	// Touch "first" so "second" becomes the eviction victim.
	_, ok := c.Get("first", candidates)
	require.True(t, ok)

	c.Set("third", candidates, "(1) a")
	require.Equal(t, 2, c.Len())

	_, ok = c.Get("second", candidates)
	require.False(t, ok)
	_, ok = c.Get("first", candidates)
	require.True(t, ok)
}

func TestCacheSweep(t *testing.T) {
	c := NewCache(10*time.Millisecond, 10)
	candidates := []string{"(1) a"}

	c.Set("stale", candidates, "(1) a")
	time.Sleep(20 * time.Millisecond)
	c.Sweep()
	require.Zero(t, c.Len())
}
