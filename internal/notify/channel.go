package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result is the uniform outcome of one channel send. Channel failures are
// isolated: they are reported here, never raised.
type Result struct {
	Success bool
	Err     string
}

func okResult() Result {
	return Result{Success: true}
}

func errResult(format string, args ...any) Result {
	return Result{Err: fmt.Sprintf(format, args...)}
}

// Channel is a single notification delivery target. All channels accept the
// same title/content shape regardless of the underlying transport.
type Channel interface {
	Name() string
	Send(ctx context.Context, title, content string) Result
}

// httpTimeout bounds every channel request; a slow provider must not stall
// the fan-out indefinitely.
const httpTimeout = 15 * time.Second

func newChannelClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// postJSON sends a JSON payload and maps the response to a Result.
func postJSON(ctx context.Context, client *http.Client, url string, payload any) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return errResult("failed to marshal payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errResult("failed to build request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return doRequest(client, req)
}

func doRequest(client *http.Client, req *http.Request) Result {
	resp, err := client.Do(req)
	if err != nil {
		return errResult("failed to send request: %v", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return errResult("request failed with status %d: %s", resp.StatusCode, string(detail))
	}

	return okResult()
}
