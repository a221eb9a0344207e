package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knomic/pluginsync/internal/manifest"
	"github.com/knomic/pluginsync/internal/reconcile"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pluginsync.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	var version int
	require.NoError(t, s2.DB().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestLoadQueue_EmptyWhenNeverSaved(t *testing.T) {
	s := createTestStore(t)

	q, err := s.LoadQueue(context.Background())
	require.NoError(t, err)
	assert.True(t, q.Empty())
	assert.Empty(t, q.BatchID)
}

func TestSaveQueue_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	imported := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	q := reconcile.Queue{
		BatchID:    "batch-1",
		ImportedAt: imported,
		Entries: []reconcile.Entry{
			{ExtensionRecord: manifest.ExtensionRecord{Name: "Foo", Version: "1.0", Active: true, Slug: "foo"}},
			{ExtensionRecord: manifest.ExtensionRecord{Slug: "bar"}, Attempts: 2},
			{ExtensionRecord: manifest.ExtensionRecord{Slug: "foo", Active: true}},
		},
	}
	require.NoError(t, s.SaveQueue(ctx, q))

	got, err := s.LoadQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "batch-1", got.BatchID)
	assert.True(t, imported.Equal(got.ImportedAt))
	assert.Equal(t, q.Entries, got.Entries)
}

func TestSaveQueue_ReplacesPrevious(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := reconcile.Queue{BatchID: "a", Entries: []reconcile.Entry{
		{ExtensionRecord: manifest.ExtensionRecord{Slug: "one"}},
		{ExtensionRecord: manifest.ExtensionRecord{Slug: "two"}},
	}}
	second := reconcile.Queue{BatchID: "b", Entries: []reconcile.Entry{
		{ExtensionRecord: manifest.ExtensionRecord{Slug: "three"}},
	}}
	require.NoError(t, s.SaveQueue(ctx, first))
	require.NoError(t, s.SaveQueue(ctx, second))

	got, err := s.LoadQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", got.BatchID)
	assert.Equal(t, []string{"three"}, got.Records().Slugs())
}

func TestSaveQueue_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pluginsync.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveQueue(ctx, reconcile.Queue{BatchID: "x", Entries: []reconcile.Entry{
		{ExtensionRecord: manifest.ExtensionRecord{Slug: "persisted"}},
	}}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.LoadQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"persisted"}, got.Records().Slugs())
}

func TestActivation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	active, err := s.IsActive(ctx, "foo/foo.php")
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, s.SetActive(ctx, "foo/foo.php", true))
	require.NoError(t, s.SetActive(ctx, "foo/foo.php", true))
	require.NoError(t, s.SetActive(ctx, "bar/bar.php", true))

	keys, err := s.ActiveKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bar/bar.php", "foo/foo.php"}, keys)

	require.NoError(t, s.SetActive(ctx, "foo/foo.php", false))
	active, err = s.IsActive(ctx, "foo/foo.php")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestScheduledEvents(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	now := time.Now()

	_, ok, err := s.NextEvent(ctx, "hook")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.ScheduleEvent(ctx, "hook", now.Add(time.Minute)))
	require.NoError(t, s.ScheduleEvent(ctx, "hook", now.Add(30*time.Second)))

	runAt, ok, err := s.NextEvent(ctx, "hook")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, runAt.Equal(now.Add(30*time.Second)), "later schedule replaces earlier one")

	claimed, err := s.ClaimEvent(ctx, "hook", now)
	require.NoError(t, err)
	assert.False(t, claimed, "event is not due yet")

	claimed, err = s.ClaimEvent(ctx, "hook", now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = s.ClaimEvent(ctx, "hook", now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, claimed, "an event fires once")

	require.NoError(t, s.ScheduleEvent(ctx, "hook", now))
	require.NoError(t, s.UnscheduleEvent(ctx, "hook"))
	_, ok, err = s.NextEvent(ctx, "hook")
	require.NoError(t, err)
	assert.False(t, ok)
}
