package recording_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/streamcap/streamcapd/internal/recording"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecordingsFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "recordings.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadFileDefaults(t *testing.T) {
	path := writeRecordingsFile(t, `[
		{"id": "host-a", "platform": "fakecast", "url": "https://example.com/a"}
	]`)

	recs, err := recording.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "host-a", rec.ID)
	assert.Equal(t, "host-a", rec.Title, "title falls back to the id")
	assert.True(t, rec.MonitorEnabled)
	assert.True(t, rec.PushEnabled)
	assert.Equal(t, "flv", rec.Container)
	assert.Equal(t, recording.StatusNormal, rec.StatusInfo)
	assert.False(t, rec.Segmented)
}

func TestLoadFileExplicitValues(t *testing.T) {
	path := writeRecordingsFile(t, `[
		{
			"id": "host-b",
			"title": "morning show",
			"platform": "fakecast",
			"url": "https://example.com/b",
			"monitor": false,
			"push": false,
			"container": "mp4",
			"segmented": true
		}
	]`)

	recs, err := recording.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "morning show", rec.Title)
	assert.False(t, rec.MonitorEnabled)
	assert.False(t, rec.PushEnabled)
	assert.Equal(t, "mp4", rec.Container)
	assert.True(t, rec.Segmented)
	assert.Equal(t, 60, rec.SegmentSeconds, "segmented captures get a default segment length")
}

func TestLoadFileRejectsMissingFields(t *testing.T) {
	for name, content := range map[string]string{
		"missing id":  `[{"url": "https://example.com/a"}]`,
		"missing url": `[{"id": "host-a"}]`,
		"bad json":    `{not json`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := recording.LoadFile(writeRecordingsFile(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadFileMissingFile(t *testing.T) {
	_, err := recording.LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
