package persistence

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "subtrans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_RunsRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	run := &Run{
		ID:             "run-1",
		InputPath:      "/subs/a.srt",
		TargetLanguage: "zh-Hant",
		Status:         RunRunning,
		CreatedAt:      time.Now().UTC().Add(-time.Minute).Truncate(time.Millisecond),
	}
	require.NoError(t, store.UpsertRun(ctx, run))

	run.Status = RunSucceeded
	run.OutputPath = "/subs/a.zh-Hant.srt"
	run.Entries, run.Batches, run.Succeeded, run.Failed, run.Cached = 12, 2, 1, 1, 0
	require.NoError(t, store.UpsertRun(ctx, run))

	require.NoError(t, store.UpsertRun(ctx, &Run{
		ID:             "run-2",
		InputPath:      "/subs/b.srt",
		TargetLanguage: "zh-Hant",
		Status:         RunFailed,
		Error:          "boom",
	}))

	all, err := store.LoadRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "run-2", all[0].ID)
	assert.Equal(t, RunFailed, all[0].Status)
	assert.Equal(t, "boom", all[0].Error)
	assert.Equal(t, "run-1", all[1].ID)
	assert.Equal(t, RunSucceeded, all[1].Status)
	assert.Equal(t, 12, all[1].Entries)
	assert.Equal(t, "/subs/a.zh-Hant.srt", all[1].OutputPath)

	limited, err := store.LoadRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteStore_LastSucceededRun(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.LastSucceededRun(ctx, "/subs/a.srt", "ja")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.UpsertRun(ctx, &Run{ID: "r1", InputPath: "/subs/a.srt", TargetLanguage: "ja", Status: RunFailed}))
	_, ok, err = store.LastSucceededRun(ctx, "/subs/a.srt", "ja")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.UpsertRun(ctx, &Run{ID: "r2", InputPath: "/subs/a.srt", TargetLanguage: "ja", Status: RunSucceeded}))
	run, ok, err := store.LastSucceededRun(ctx, "/subs/a.srt", "ja")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "r2", run.ID)

	_, ok, err = store.LastSucceededRun(ctx, "/subs/a.srt", "fr")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_BatchCheckpoints(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.LoadBatchCheckpoint(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveBatchCheckpoint(ctx, "k1", "run-1", []string{"a", "b"}))
	require.NoError(t, store.SaveBatchCheckpoint(ctx, "k1", "run-2", []string{"c", "d"}))

	cp, ok, err := store.LoadBatchCheckpoint(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "run-2", cp.RunID)
	assert.Equal(t, []string{"c", "d"}, cp.TranslatedLines)

	removed, err := store.DeleteCheckpointsBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = store.DeleteCheckpointsBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, ok, err = store.LoadBatchCheckpoint(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "subtrans.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveBatchCheckpoint(context.Background(), "k", "", []string{"x"}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cp, ok, err := store.LoadBatchCheckpoint(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, cp.TranslatedLines)
}

func TestSQLiteStore_CheckpointStats(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	stats, err := store.CheckpointStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, CheckpointStats{}, stats)

	require.NoError(t, store.SaveBatchCheckpoint(ctx, "a", "r", []string{"1", "2", "3"}))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.SaveBatchCheckpoint(ctx, "b", "r", []string{"4"}))

	stats, err = store.CheckpointStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Batches)
	assert.Equal(t, 4, stats.Lines)
	assert.False(t, stats.Oldest.IsZero())
	assert.True(t, stats.Newest.After(stats.Oldest))
}

func TestMigrationVersion(t *testing.T) {
	for name, want := range map[string]int{
		"001_init.sql":  1,
		"12_more.sql":   12,
		"7.sql":         7,
		"init.sql":      0,
		"-3_weird.sql":  0,
		"002-notes.txt": 0,
	} {
		assert.Equal(t, want, migrationVersion(name), name)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, migrate(ctx, store.db))

	applied, err := appliedVersions(ctx, store.db)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true}, applied)

	pending, err := pendingMigrations(applied)
	require.NoError(t, err)
	assert.Empty(t, pending)

	pending, err = pendingMigrations(map[int]bool{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "001_init.sql", pending[0].name)
}

func TestDSN(t *testing.T) {
	got := dsn("/data/subtrans.db")
	assert.True(t, strings.HasPrefix(got, "file:/data/subtrans.db?"))
	assert.Contains(t, got, "busy_timeout%285000%29")
	assert.Contains(t, got, "journal_mode%28WAL%29")
}

func TestNewSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("  ")
	assert.Error(t, err)
}
