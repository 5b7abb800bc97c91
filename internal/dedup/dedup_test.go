package dedup

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCache_AddAndIsSeen(t *testing.T) {
	c := NewCache(t.TempDir(), discardLogger())

	assert.False(t, c.IsSeen("https://example.com/job/1"))
	c.Add([]string{"https://example.com/job/1"})
	assert.True(t, c.IsSeen("https://example.com/job/1"))
}

func TestCache_SurvivesReload(t *testing.T) {
	dir := t.TempDir()

	c := NewCache(dir, discardLogger())
	c.Add([]string{"https://example.com/job/1", "https://example.com/job/2"})

	reloaded := NewCache(dir, discardLogger())
	assert.True(t, reloaded.IsSeen("https://example.com/job/1"))
	assert.True(t, reloaded.IsSeen("https://example.com/job/2"))
	assert.False(t, reloaded.IsSeen("https://example.com/job/3"))
}

func TestCache_ExpiredEntriesDropOnLoad(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-40 * 24 * time.Hour).UnixMilli()
	fresh := time.Now().UnixMilli()
	entries := []seenEntry{
		{URL: "https://example.com/old", Timestamp: old},
		{URL: "https://example.com/fresh", Timestamp: fresh},
	}
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seen_jobs.json"), data, 0644))

	c := NewCache(dir, discardLogger())
	assert.False(t, c.IsSeen("https://example.com/old"), "entries past retention must expire")
	assert.True(t, c.IsSeen("https://example.com/fresh"))
}

func TestCache_UnseenPreservesOrder(t *testing.T) {
	c := NewCache(t.TempDir(), discardLogger())
	c.Add([]string{"b"})

	assert.Equal(t, []string{"a", "c"}, c.Unseen([]string{"a", "b", "c"}))
}

func TestCache_CorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seen_jobs.json"), []byte("{broken"), 0644))

	c := NewCache(dir, discardLogger())
	assert.False(t, c.IsSeen("anything"))
	c.Add([]string{"anything"})
	assert.True(t, c.IsSeen("anything"))
}
