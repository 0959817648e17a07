package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/streamcap/streamcapd/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("capture"), 0o644))

	return path
}

func TestDeleteExpiredCaptures(t *testing.T) {
	dir := t.TempDir()

	expired := writeFile(t, dir, "expired.flv")
	fresh := writeFile(t, dir, "fresh.flv")
	active := writeFile(t, dir, "active.flv")

	records := []storage.CaptureRecord{
		{OutputPath: expired, EndedAt: time.Now().Add(-48 * time.Hour).Format(time.RFC3339), Status: storage.CaptureStatusDone},
		{OutputPath: fresh, EndedAt: time.Now().Format(time.RFC3339), Status: storage.CaptureStatusDone},
		{OutputPath: active, Status: storage.CaptureStatusActive},
		{OutputPath: filepath.Join(dir, "gone.flv"), EndedAt: time.Now().Add(-48 * time.Hour).Format(time.RFC3339), Status: storage.CaptureStatusDone},
	}

	err := DeleteExpiredCaptures(context.Background(), records, 24*time.Hour)
	require.NoError(t, err)

	assert.NoFileExists(t, expired)
	assert.FileExists(t, fresh)
	assert.FileExists(t, active)
}

func TestDeleteExpiredCapturesFallsBackToModTime(t *testing.T) {
	dir := t.TempDir()

	path := writeFile(t, dir, "badtime.flv")
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	records := []storage.CaptureRecord{
		{OutputPath: path, EndedAt: "not-a-timestamp", Status: storage.CaptureStatusDone},
	}

	require.NoError(t, DeleteExpiredCaptures(context.Background(), records, 24*time.Hour))
	assert.NoFileExists(t, path)
}
