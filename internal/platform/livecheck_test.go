package platform_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/streamcap/streamcapd/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:6
#EXT-X-MEDIA-SEQUENCE:120
#EXTINF:6.000,
segment120.ts
#EXTINF:6.000,
segment121.ts
`

const masterPlaylist = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=3000000,RESOLUTION=1920x1080
chunklist_1080.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1500000,RESOLUTION=1280x720
chunklist_720.m3u8
`

const emptyMediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:6
#EXT-X-MEDIA-SEQUENCE:0
`

func newChecker(t *testing.T) *platform.LiveChecker {
	t.Helper()

	checker, err := platform.NewLiveChecker("")
	require.NoError(t, err)

	return checker
}

func TestCheck_MediaPlaylistWithSegmentsIsLive(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		_, _ = w.Write([]byte(mediaPlaylist))
	}))
	defer ts.Close()

	live, err := newChecker(t).Check(context.Background(), ts.URL+"/live.m3u8", nil)

	require.NoError(t, err)
	assert.True(t, live)
}

func TestCheck_MasterPlaylistWithVariantsIsLive(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(masterPlaylist))
	}))
	defer ts.Close()

	live, err := newChecker(t).Check(context.Background(), ts.URL+"/master.m3u8", nil)

	require.NoError(t, err)
	assert.True(t, live)
}

func TestCheck_EmptyMediaPlaylistIsOffline(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(emptyMediaPlaylist))
	}))
	defer ts.Close()

	live, err := newChecker(t).Check(context.Background(), ts.URL+"/live.m3u8", nil)

	require.NoError(t, err)
	assert.False(t, live)
}

func TestCheck_Non200IsOfflineNotError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "offline", http.StatusNotFound)
	}))
	defer ts.Close()

	live, err := newChecker(t).Check(context.Background(), ts.URL+"/live.m3u8", nil)

	require.NoError(t, err)
	assert.False(t, live)
}

func TestCheck_NonPlaylistURLLiveOn200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("FLV\x01"))
	}))
	defer ts.Close()

	live, err := newChecker(t).Check(context.Background(), ts.URL+"/stream.flv", nil)

	require.NoError(t, err)
	assert.True(t, live)
}

func TestCheck_SendsHeaders(t *testing.T) {
	var gotReferer string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	_, err := newChecker(t).Check(context.Background(), ts.URL+"/stream.flv",
		map[string]string{"Referer": "https://live.example"})

	require.NoError(t, err)
	assert.Equal(t, "https://live.example", gotReferer)
}

func TestCheck_TransportErrorIsError(t *testing.T) {
	_, err := newChecker(t).Check(context.Background(), "http://127.0.0.1:1/live.m3u8", nil)

	assert.Error(t, err)
}

func TestNewLiveChecker_InvalidProxy(t *testing.T) {
	_, err := platform.NewLiveChecker("http://bad proxy")

	assert.Error(t, err)
}
