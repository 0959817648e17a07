package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/streamcap/streamcapd/internal/storage"
	"github.com/streamcap/streamcapd/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *sqlite.CaptureRepository {
	t.Helper()

	db, err := sqlite.InitDB(filepath.Join(t.TempDir(), "captures.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return sqlite.NewCaptureRepository(db)
}

func TestCaptureLifecycle(t *testing.T) {
	repo := newTestRepository(t)

	id, err := repo.TrackCapture("rec-1", "/captures/fakecast/a.flv")
	require.NoError(t, err)
	require.NotZero(t, id)

	captures, err := repo.GetCaptures()
	require.NoError(t, err)
	require.Len(t, captures, 1)
	assert.Equal(t, storage.CaptureStatusActive, captures[0].Status)
	assert.Empty(t, captures[0].EndedAt)
	assert.NotEmpty(t, captures[0].StartedAt)

	require.NoError(t, repo.FinishCapture(id, storage.CaptureStatusDone, 1024))

	captures, err = repo.GetCaptures()
	require.NoError(t, err)
	require.Len(t, captures, 1)
	assert.Equal(t, storage.CaptureStatusDone, captures[0].Status)
	assert.Equal(t, int64(1024), captures[0].Bytes)
	assert.NotEmpty(t, captures[0].EndedAt)
}

func TestGetCapturesByRecording(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.TrackCapture("rec-1", "/captures/a.flv")
	require.NoError(t, err)
	_, err = repo.TrackCapture("rec-2", "/captures/b.flv")
	require.NoError(t, err)
	_, err = repo.TrackCapture("rec-1", "/captures/c.flv")
	require.NoError(t, err)

	captures, err := repo.GetCapturesByRecording("rec-1")
	require.NoError(t, err)
	require.Len(t, captures, 2)

	for _, c := range captures {
		assert.Equal(t, "rec-1", c.RecordingID)
	}

	captures, err = repo.GetCapturesByRecording("rec-3")
	require.NoError(t, err)
	assert.Empty(t, captures)
}
