package platform

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/grafov/m3u8"
	"github.com/streamcap/streamcapd/internal/logctx"
)

const checkTimeout = 30 * time.Second

// LiveChecker probes a stream URL to decide whether the channel is currently
// broadcasting. HLS playlists are decoded; any other media URL is considered
// live when it answers 200.
type LiveChecker struct {
	client *http.Client
}

// NewLiveChecker builds a checker, optionally routed through a proxy.
func NewLiveChecker(proxy string) (*LiveChecker, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}

		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &LiveChecker{
		client: &http.Client{Transport: transport, Timeout: checkTimeout},
	}, nil
}

// Check reports whether the stream at streamURL is live. A definite offline
// answer (non-200) returns (false, nil); transport failures return an error
// so the caller can distinguish "offline" from "could not check".
func (c *LiveChecker) Check(ctx context.Context, streamURL string, headers map[string]string) (bool, error) {
	logger := logctx.LoggerFromContext(ctx).With("url", streamURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("live check request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Debug("live check answered non-200, treating as offline", "status", resp.StatusCode)

		return false, nil
	}

	if !isPlaylistURL(streamURL, resp.Header.Get("Content-Type")) {
		return true, nil
	}

	return playlistIsLive(resp)
}

// playlistIsLive decodes the body as an HLS playlist. A master playlist with
// at least one variant, or a media playlist with at least one segment, means
// the channel is broadcasting.
func playlistIsLive(resp *http.Response) (bool, error) {
	playlist, kind, err := m3u8.DecodeFrom(bufio.NewReader(resp.Body), true)
	if err != nil {
		return false, fmt.Errorf("failed to decode playlist: %w", err)
	}

	switch kind {
	case m3u8.MASTER:
		master := playlist.(*m3u8.MasterPlaylist)

		return len(master.Variants) > 0, nil
	case m3u8.MEDIA:
		media := playlist.(*m3u8.MediaPlaylist)

		return media.Count() > 0, nil
	}

	return false, nil
}

func isPlaylistURL(streamURL, contentType string) bool {
	if strings.Contains(contentType, "mpegurl") {
		return true
	}

	u, err := url.Parse(streamURL)
	if err != nil {
		return false
	}

	return strings.HasSuffix(u.Path, ".m3u8")
}
