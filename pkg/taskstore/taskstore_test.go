package taskstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "parity_tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestRecord(state string) Record {
	return Record{
		TaskID:      uuid.NewString(),
		TaskType:    TaskTypeCompare,
		Status:      StatusRunning,
		State:       state,
		LeftSource:  "csv",
		RightSource: "postgres",
		StartedAt:   time.Now().UTC(),
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	s := newTestStore(t)

	rec := newTestRecord("TX")
	rec.TaskContext = map[string]any{"total_rows": float64(120), "match_rate": 98.5}
	require.NoError(t, s.Create(rec))

	got, err := s.Get(rec.TaskID)
	require.NoError(t, err)
	require.Equal(t, rec.TaskID, got.TaskID)
	require.Equal(t, TaskTypeCompare, got.TaskType)
	require.Equal(t, StatusRunning, got.Status)
	require.Equal(t, "TX", got.State)
	require.Equal(t, "csv", got.LeftSource)
	require.Equal(t, "postgres", got.RightSource)

	// Context survives the JSON round trip.
	require.Equal(t, 98.5, got.TaskContext["match_rate"])
	require.WithinDuration(t, rec.StartedAt, got.StartedAt, time.Second)
}

func TestStoreGetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(uuid.NewString())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreCreateValidation(t *testing.T) {
	s := newTestStore(t)

	rec := newTestRecord("TX")
	rec.State = ""
	require.Error(t, s.Create(rec))
}

func TestStoreUpdate(t *testing.T) {
	s := newTestStore(t)

	rec := newTestRecord("TX")
	require.NoError(t, s.Create(rec))

	rec.Status = StatusCompleted
	rec.ReportPath = "output/parity_TX_recon-20260102030405.xlsx"
	rec.FinishedAt = rec.StartedAt.Add(3 * time.Second)
	rec.TimeTaken = 3.0
	require.NoError(t, s.Update(rec))

	got, err := s.Get(rec.TaskID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, got.Status)
	require.Equal(t, rec.ReportPath, got.ReportPath)
	require.Equal(t, 3.0, got.TimeTaken)

	// Updating a row that was never created is a not-found, not a silent
	// no-op.
	missing := newTestRecord("CA")
	require.ErrorIs(t, s.Update(missing), ErrNotFound)
}

func TestStoreList(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	for i, state := range []string{"TX", "CA", "TX"} {
		rec := newTestRecord(state)
		rec.StartedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Create(rec))
	}

	all, err := s.List("", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	require.True(t, all[0].StartedAt.After(all[2].StartedAt))

	tx, err := s.List("TX", 0)
	require.NoError(t, err)
	require.Len(t, tx, 2)
	for _, rec := range tx {
		require.Equal(t, "TX", rec.State)
	}

	limited, err := s.List("", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestRecorderNilSafe(t *testing.T) {
	var r *Recorder

	// Every method must be callable without a store so callers never have
	// to branch on whether history is enabled.
	require.False(t, r.HasStore())
	require.False(t, r.Created())
	require.NoError(t, r.Create(newTestRecord("TX")))
	require.NoError(t, r.Update(newTestRecord("TX")))
	require.NoError(t, r.Close())
}

func TestRecorderLifecycle(t *testing.T) {
	r, err := NewRecorder(nil, filepath.Join(t.TempDir(), "parity_tasks.db"))
	require.NoError(t, err)
	defer r.Close()

	require.True(t, r.OwnsStore())

	rec := newTestRecord("TX")
	require.NoError(t, r.Create(rec))
	require.True(t, r.Created())

	rec.Status = StatusFailed
	require.NoError(t, r.Update(rec))

	got, err := r.Store().Get(rec.TaskID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)
}
