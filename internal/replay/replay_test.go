package replay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hoprnet/hopr-mixnode/internal/config"
)

func testConfig() config.ReplayFilterConfig {
	cfg := config.DefaultReplayFilterConfig()
	cfg.ExpectedTagsPerPage = 1000
	cfg.WindowDuration = time.Hour
	return cfg
}

func TestContainsOrInsertDetectsReplay(t *testing.T) {
	f := New(testConfig())
	tag := []byte("0123456789abcdef")

	require.False(t, f.ContainsOrInsert(tag), "first insertion should not be a replay")
	require.True(t, f.ContainsOrInsert(tag), "second insertion of the same tag must be flagged")
}

func TestDistinctTagsDoNotCollide(t *testing.T) {
	f := New(testConfig())
	require.False(t, f.ContainsOrInsert([]byte("tag-a-0123456789")))
	require.False(t, f.ContainsOrInsert([]byte("tag-b-0123456789")))
}

func TestWindowRolloverStillCatchesRecentTag(t *testing.T) {
	cfg := testConfig()
	cfg.WindowDuration = time.Millisecond
	f := New(cfg)
	tag := []byte("rollover-tag-0123")

	require.False(t, f.ContainsOrInsert(tag))
	time.Sleep(5 * time.Millisecond)
	// the window has rolled over, but the tag must still be caught via
	// the retained previous generation.
	require.True(t, f.ContainsOrInsert(tag))
}
