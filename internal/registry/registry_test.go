package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	r := New(0)

	r.Create("scan-1", "example.com")
	rec, err := r.Get("scan-1")
	require.NoError(t, err)
	assert.Equal(t, "scan-1", rec.ID)
	assert.Equal(t, "example.com", rec.Domain)
	assert.Equal(t, StatusProcessing, rec.Status)
	assert.Equal(t, 0, rec.Progress)
}

func TestGetUnknown(t *testing.T) {
	r := New(0)
	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProgressIsMonotonic(t *testing.T) {
	r := New(0)
	r.Create("scan-1", "example.com")

	require.NoError(t, r.SetProgress("scan-1", 35, "recon"))
	require.NoError(t, r.SetProgress("scan-1", 15, "stale"))

	rec, err := r.Get("scan-1")
	require.NoError(t, err)
	assert.Equal(t, 35, rec.Progress)
}

func TestCompleteSetsTerminalState(t *testing.T) {
	r := New(0)
	r.Create("scan-1", "example.com")

	result := map[string]string{"domain": "example.com"}
	require.NoError(t, r.Complete("scan-1", result))

	rec, err := r.Get("scan-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, 100, rec.Progress)
	assert.Empty(t, rec.Error)
	assert.False(t, rec.FinishedAt.IsZero())

	got, err := r.Result("scan-1")
	require.NoError(t, err)
	assert.Equal(t, result, got)
}

func TestFailPreservesDiagnostic(t *testing.T) {
	r := New(0)
	r.Create("scan-1", "example.com")
	require.NoError(t, r.SetProgress("scan-1", 35, "recon"))

	require.NoError(t, r.Fail("scan-1", "reconnaissance failed: no such host"))

	rec, err := r.Get("scan-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, "reconnaissance failed: no such host", rec.Error)
	assert.Nil(t, rec.Result)
	assert.Equal(t, 35, rec.Progress)
}

func TestTerminalRecordsAreImmutable(t *testing.T) {
	r := New(0)
	r.Create("scan-1", "example.com")
	require.NoError(t, r.Complete("scan-1", "done"))

	require.NoError(t, r.SetProgress("scan-1", 50, "late"))
	require.NoError(t, r.Fail("scan-1", "late failure"))

	rec, err := r.Get("scan-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, 100, rec.Progress)
	assert.Empty(t, rec.Error)
}

func TestResultBeforeCompletion(t *testing.T) {
	r := New(0)
	r.Create("scan-1", "example.com")

	_, err := r.Result("scan-1")
	assert.ErrorIs(t, err, ErrNotCompleted)

	_, err = r.Result("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEvictExpired(t *testing.T) {
	r := New(time.Hour)
	defer r.Close()

	r.Create("old", "old.example.com")
	require.NoError(t, r.Complete("old", "done"))
	r.Create("live", "live.example.com")

	// Age the finished record past the retention cutoff.
	r.mu.Lock()
	r.records["old"].FinishedAt = time.Now().Add(-2 * time.Hour)
	r.mu.Unlock()

	r.evictExpired()

	_, err := r.Get("old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get("live")
	assert.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestSnapshotIsolation(t *testing.T) {
	r := New(0)
	r.Create("scan-1", "example.com")

	rec, err := r.Get("scan-1")
	require.NoError(t, err)
	rec.Progress = 99

	fresh, err := r.Get("scan-1")
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Progress)
}
