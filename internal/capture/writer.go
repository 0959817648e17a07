package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/streamcap/streamcapd/internal/logctx"
)

const (
	// DefaultChunkSize is the read/write granularity of the stream loop.
	DefaultChunkSize = 16 * 1024

	dirPerm  = 0755
	filePerm = 0644

	// progressLogInterval is how many bytes pass between progress log lines.
	progressLogInterval = 100 * 1024 * 1024
)

// Session describes a single capture attempt: where to read the stream from
// and where to append it on disk. Sessions are not reused across attempts; a
// retry gets a fresh session.
type Session struct {
	URL       string
	SavePath  string
	Headers   map[string]string
	Proxy     string
	ChunkSize int
}

// Writer copies a long-lived HTTP stream to disk chunk by chunk. The loop is
// cooperatively cancellable: the stop flag is rechecked before each write and
// the in-flight chunk is still written out.
type Writer struct {
	session Session
	client  *http.Client

	stopped atomic.Bool
	bytes   atomic.Int64
	done    chan struct{}
	err     error
}

// NewWriter prepares a writer for the session. The HTTP client carries no
// overall timeout; the stream is expected to stay open indefinitely.
func NewWriter(session Session) (*Writer, error) {
	if session.ChunkSize <= 0 {
		session.ChunkSize = DefaultChunkSize
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	if session.Proxy != "" {
		proxyURL, err := url.Parse(session.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}

		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Writer{
		session: session,
		client:  &http.Client{Transport: transport},
		done:    make(chan struct{}),
	}, nil
}

// Start runs the stream loop in its own goroutine. The result is available
// through Err once Done is closed.
func (w *Writer) Start(ctx context.Context) {
	go func() {
		defer close(w.done)

		w.err = w.stream(ctx)
	}()
}

// Stop sets the cancellation flag and waits up to timeout for the loop to
// exit. A loop that outlives the timeout is abandoned with a warning; the
// caller is never blocked past the deadline. Calling Stop again once the
// flag is set is a no-op.
func (w *Writer) Stop(ctx context.Context, timeout time.Duration) error {
	if !w.stopped.CompareAndSwap(false, true) {
		return nil
	}

	select {
	case <-w.done:
		return nil
	case <-time.After(timeout):
		logctx.LoggerFromContext(ctx).Warn("capture loop did not stop in time, abandoning",
			"url", w.session.URL, "timeout", timeout.String())

		return ErrStopTimeout
	}
}

// Done is closed when the stream loop has exited.
func (w *Writer) Done() <-chan struct{} {
	return w.done
}

// Err reports the loop outcome. Valid after Done is closed. A clean stop or
// natural end of stream yields nil.
func (w *Writer) Err() error {
	return w.err
}

// BytesWritten returns the number of bytes appended to the destination so far.
func (w *Writer) BytesWritten() int64 {
	return w.bytes.Load()
}

func (w *Writer) stream(ctx context.Context) error {
	logger := logctx.LoggerFromContext(ctx).With("url", w.session.URL, "target", w.session.SavePath)

	if err := os.MkdirAll(filepath.Dir(w.session.SavePath), dirPerm); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.session.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	for k, v := range w.session.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("capture cancelled before connect")

			return nil
		}

		return &TransportError{URL: w.session.URL, Operation: "connect", Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &TransportError{URL: w.session.URL, Operation: "request", StatusCode: resp.StatusCode}
	}

	out, err := os.OpenFile(w.session.SavePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open target file: %w", err)
	}

	defer out.Close()

	if err := w.copyChunks(ctx, logger, out, resp.Body); err != nil {
		return err
	}

	logger.Info("capture completed", "bytes", humanize.Bytes(uint64(w.bytes.Load())))

	return nil
}

func (w *Writer) copyChunks(ctx context.Context, logger *slog.Logger, out io.Writer, body io.Reader) error {
	buf := make([]byte, w.session.ChunkSize)

	var sinceReport int64

	for {
		n, readErr := io.ReadFull(body, buf)

		// The in-flight chunk is written even when the stop flag is already
		// set; only whole chunks ever land on disk.
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return fmt.Errorf("failed to write chunk: %w", err)
			}

			w.bytes.Add(int64(n))
			sinceReport += int64(n)

			if sinceReport >= progressLogInterval {
				logger.Debug("capture progress", "downloaded", humanize.Bytes(uint64(w.bytes.Load())))

				sinceReport = 0
			}
		}

		if w.stopped.Load() {
			logger.Info("capture stopped", "bytes", humanize.Bytes(uint64(w.bytes.Load())))

			return nil
		}

		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF), errors.Is(readErr, io.ErrUnexpectedEOF):
			return nil
		case ctx.Err() != nil, errors.Is(readErr, context.Canceled):
			// Cancellation from above is a clean stop, not a failure.
			logger.Info("capture cancelled", "bytes", humanize.Bytes(uint64(w.bytes.Load())))

			return nil
		default:
			return &TransportError{URL: w.session.URL, Operation: "read", Err: readErr}
		}
	}
}
