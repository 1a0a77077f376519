package snapshot

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/uring/crawler/internal/model"
	"github.com/uring/crawler/internal/snapshot/localfs"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	backend := localfs.New(t.TempDir(), "uRing")
	logger := zerolog.Nop()
	return New(backend, &logger)
}

func notice(id, title, link string) model.Notice {
	return model.Notice{
		ID:          id,
		Title:       title,
		Date:        "2024-01-15",
		Link:        link,
		Campus:      "Main",
		BoardName:   "General Notices",
		ContentHash: title,
	}
}

func TestCommit_ColdStart(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := CommitInput{
		Notices: []model.Notice{
			notice("20240115-aaa", "Test Title 1", "https://host/n/1"),
			notice("20240115-bbb", "Test Title 2", "https://host/n/2"),
		},
		StartedAt: time.Now(),
	}

	result, err := store.Commit(ctx, in)
	require.NoError(t, err, "Commit() error")
	require.True(t, result.Committed, "Commit() did not commit on cold start")
	require.Equal(t, "cold_start", string(result.Breaker.Decision), "Breaker.Decision")
	require.Len(t, result.Diff.Added, 2, "Diff.Added")
	require.Empty(t, result.Diff.Updated, "Diff.Updated")
	require.Empty(t, result.Diff.Removed, "Diff.Removed")

	ptr, ok, err := store.CurrentPointer(ctx)
	require.NoError(t, err, "CurrentPointer() error")
	require.True(t, ok, "CurrentPointer() ok")
	require.Equal(t, result.Version, ptr.Version, "CurrentPointer().Version")

	items, ok, err := store.CurrentIndex(ctx)
	require.NoError(t, err, "CurrentIndex() error")
	require.True(t, ok, "CurrentIndex() ok")
	require.Len(t, items, 2, "CurrentIndex() items")

	byID := make(map[string]model.NoticeIndexItem)
	for _, it := range items {
		byID[it.ID] = it
	}
	require.Equal(t, "https://host/n/1", byID["20240115-aaa"].Link, "item link")
}

func TestCommit_IncrementalDiff(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Seed a baseline above min_baseline so the second commit isn't
	// treated as a cold start.
	var baseline []model.Notice
	for i := 0; i < 12; i++ {
		baseline = append(baseline, notice(
			"20240101-"+string(rune('a'+i)),
			"Baseline",
			"https://host/n/base",
		))
	}
	_, err := store.Commit(ctx, CommitInput{Notices: baseline, StartedAt: time.Now()})
	require.NoError(t, err, "seed commit error")

	current := append([]model.Notice{}, baseline[1:]...) // drop one (removed)
	current = append(current, notice("20240102-new", "New Notice", "https://host/n/new"))

	result, err := store.Commit(ctx, CommitInput{Notices: current, StartedAt: time.Now()})
	require.NoError(t, err, "Commit() error")
	require.True(t, result.Committed, "Commit() not committed")
	require.Len(t, result.Diff.Added, 1, "Diff.Added")
	require.Equal(t, "20240102-new", result.Diff.Added[0], "Diff.Added[0]")
	require.Len(t, result.Diff.Removed, 1, "Diff.Removed")
}

func TestCommit_CircuitBreakerTriggered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var baseline []model.Notice
	for i := 0; i < 100; i++ {
		baseline = append(baseline, notice(
			"20240101-n"+itoa(i),
			"Baseline",
			"https://host/n/base",
		))
	}
	_, err := store.Commit(ctx, CommitInput{Notices: baseline, StartedAt: time.Now()})
	require.NoError(t, err, "seed commit error")

	var dropped []model.Notice
	for i := 0; i < 70; i++ {
		dropped = append(dropped, baseline[i])
	}

	result, err := store.Commit(ctx, CommitInput{Notices: dropped, StartedAt: time.Now()})
	require.Error(t, err, "Commit() error, want CircuitBreakerError")
	var cbErr *CircuitBreakerError
	require.True(t, asCircuitBreakerError(err, &cbErr), "Commit() error type, want *CircuitBreakerError")
	require.Equal(t, 70, cbErr.Result.CurrentCount, "Result.CurrentCount")
	require.Equal(t, 100, cbErr.Result.PreviousCount, "Result.PreviousCount")
	require.False(t, result.Committed, "Commit() reported committed despite circuit breaker")

	ptr, ok, err := store.CurrentPointer(ctx)
	require.NoError(t, err, "CurrentPointer() after trip error")
	require.True(t, ok, "CurrentPointer() after trip ok")
	require.NotEqual(t, result.Version, ptr.Version, "latest.json advanced despite circuit breaker trip")
}

func TestCommit_EmptyResultGuard(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var baseline []model.Notice
	for i := 0; i < 100; i++ {
		baseline = append(baseline, notice("20240101-n"+itoa(i), "Baseline", "https://host/n/base"))
	}
	_, err := store.Commit(ctx, CommitInput{Notices: baseline, StartedAt: time.Now()})
	require.NoError(t, err, "seed commit error")

	result, err := store.Commit(ctx, CommitInput{Notices: nil, StartedAt: time.Now()})
	require.Error(t, err, "Commit() error, want CircuitBreakerError (empty result)")
	var cbErr *CircuitBreakerError
	require.True(t, asCircuitBreakerError(err, &cbErr), "Commit() error type, want *CircuitBreakerError")
	require.Equal(t, "empty_result", string(cbErr.Result.Decision), "Decision")
	require.False(t, result.Committed, "Commit() reported committed on empty result")
}

func TestCommit_ManifestMatchesWrittenObjects(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result, err := store.Commit(ctx, CommitInput{
		Notices:   []model.Notice{notice("20240115-aaa", "Title", "https://host/n/1")},
		StartedAt: time.Now(),
	})
	require.NoError(t, err, "Commit() error")

	data, err := store.backend.Get(ctx, snapshotKey(result.Version, "_manifest.json"))
	require.NoError(t, err, "read manifest")
	var manifest model.SnapshotManifest
	require.NoError(t, json.Unmarshal(data, &manifest), "parse manifest")

	for i := 1; i < len(manifest.Entries); i++ {
		require.LessOrEqual(t, manifest.Entries[i-1].Key, manifest.Entries[i].Key, "manifest entries not sorted")
	}

	for _, e := range manifest.Entries {
		ok, err := store.backend.Exists(ctx, e.Key)
		require.NoError(t, err, "Exists(%s) error", e.Key)
		require.True(t, ok, "manifest entry %s missing from backend", e.Key)
	}

	successOK, err := store.backend.Exists(ctx, snapshotKey(result.Version, "_SUCCESS"))
	require.NoError(t, err, "_SUCCESS existence check error")
	require.True(t, successOK, "_SUCCESS missing")
}

func asCircuitBreakerError(err error, target **CircuitBreakerError) bool {
	if cb, ok := err.(*CircuitBreakerError); ok {
		*target = cb
		return true
	}
	return false
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
