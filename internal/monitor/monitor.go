package monitor

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/streamcap/streamcapd/internal/capture"
	"github.com/streamcap/streamcapd/internal/http/rest"
	"github.com/streamcap/streamcapd/internal/logctx"
	"github.com/streamcap/streamcapd/internal/mux"
	"github.com/streamcap/streamcapd/internal/notify"
	"github.com/streamcap/streamcapd/internal/recording"
	"github.com/streamcap/streamcapd/internal/storage"
	"github.com/streamcap/streamcapd/internal/telemetry"
)

// LiveChecker probes whether a stream is currently broadcasting.
type LiveChecker interface {
	Check(ctx context.Context, streamURL string, headers map[string]string) (bool, error)
}

// Gate decides and delivers notification pushes.
type Gate interface {
	ShouldPush(rec *recording.Recording, kind notify.TransitionKind, checkManualStop bool) bool
	Push(ctx context.Context, title, content string) []notify.Outcome
}

// Config tunes the monitor loop.
type Config struct {
	OutputDir    string
	PollInterval time.Duration
	StopTimeout  time.Duration
	FFmpegBinary string
}

// session is a live capture attached to a recording: either a raw stream
// writer or an external transcoder process, never both.
type session struct {
	writer    *capture.Writer
	process   *mux.Process
	captureID int64
	startedAt time.Time
}

// Monitor owns the recording set and drives the capture lifecycle: liveness
// probe, signal update, capture start/stop, history rows and push decisions.
// All signal mutation happens on the poll goroutine, so transitions for one
// recording are naturally serialized.
type Monitor struct {
	cfg      Config
	checker  LiveChecker
	gate     Gate
	captures storage.CaptureWriteRepository
	tel      *telemetry.Telemetry
	launcher *mux.Launcher

	mu         sync.RWMutex
	recordings map[string]*recording.Recording
	order      []string
	sessions   map[string]*session
}

// New creates a monitor over an initially empty recording set.
func New(cfg Config, checker LiveChecker, gate Gate, captures storage.CaptureWriteRepository, tel *telemetry.Telemetry) *Monitor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}

	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 10 * time.Second
	}

	return &Monitor{
		cfg:        cfg,
		checker:    checker,
		gate:       gate,
		captures:   captures,
		tel:        tel,
		launcher:   mux.NewLauncher(cfg.FFmpegBinary),
		recordings: make(map[string]*recording.Recording),
		sessions:   make(map[string]*session),
	}
}

// Add registers a recording with the monitor.
func (m *Monitor) Add(rec *recording.Recording) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.recordings[rec.ID]; exists {
		return fmt.Errorf("recording %q already registered", rec.ID)
	}

	m.recordings[rec.ID] = rec
	m.order = append(m.order, rec.ID)

	return nil
}

// Recordings returns a snapshot copy of every recording.
func (m *Monitor) Recordings() []recording.Recording {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]recording.Recording, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.recordings[id])
	}

	return out
}

// StopRecording stops an active capture on user request. The manual stop flag
// suppresses the "recording ended" push.
func (m *Monitor) StopRecording(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.recordings[id]
	if !ok {
		return rest.ErrRecordingNotFound
	}

	rec.ManuallyStopped = true

	if rec.IsRecording {
		m.endCapture(ctx, rec, storage.CaptureStatusStopped)
	}

	return nil
}

// SetMonitorEnabled toggles monitoring. Disabling stops any active capture.
func (m *Monitor) SetMonitorEnabled(ctx context.Context, id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.recordings[id]
	if !ok {
		return rest.ErrRecordingNotFound
	}

	rec.MonitorEnabled = enabled

	if !enabled && rec.IsRecording {
		rec.ManuallyStopped = true
		m.endCapture(ctx, rec, storage.CaptureStatusStopped)
	}

	return nil
}

// Run polls until the context is cancelled, then shuts down every active
// session. A panicking sweep is logged and the loop restarted.
func (m *Monitor) Run(ctx context.Context) {
	logger := logctx.LoggerFromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("monitor panic",
				"panic", r,
				"stack", string(debug.Stack()))

			if ctx.Err() == nil {
				logger.Info("restarting monitor after panic")
				time.Sleep(time.Second)
				m.Run(ctx)
			}
		}
	}()

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	logger.Info("monitor running", "poll_interval", m.cfg.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			logger.Info("monitor shutting down")
			m.shutdownSessions(ctx)

			return
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll runs one sweep over every recording.
func (m *Monitor) Poll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.order {
		m.pollRecording(ctx, m.recordings[id])
	}
}

func (m *Monitor) pollRecording(ctx context.Context, rec *recording.Recording) {
	ctx = logctx.With(ctx, "recording_id", rec.ID, "platform", rec.PlatformKey)
	logger := logctx.LoggerFromContext(ctx)

	if rec.IsRecording {
		if m.reapFinishedSession(ctx, rec) {
			return
		}
	}

	if !rec.MonitorEnabled {
		return
	}

	var live bool

	err := m.tel.InstrumentLiveCheck(ctx, rec.PlatformKey, func(ctx context.Context) error {
		var checkErr error
		live, checkErr = m.checker.Check(ctx, rec.URL, rec.Headers)

		return checkErr
	})
	if err != nil {
		logger.Error("live check failed", "err", err)

		rec.IsLive = false
		rec.StatusInfo = recording.StatusLiveCheckError

		return
	}

	wasLive := rec.IsLive
	rec.IsLive = live

	if rec.StatusInfo == recording.StatusLiveCheckError {
		rec.StatusInfo = recording.StatusNormal
	}

	switch {
	case live && !rec.IsRecording:
		// A fresh broadcast clears the manual stop from the previous one.
		if !wasLive {
			rec.ManuallyStopped = false
		}

		if rec.ManuallyStopped {
			logger.Debug("stream live but manually stopped, not capturing")

			return
		}

		m.startCapture(ctx, rec)
	case !live && rec.IsRecording:
		logger.Info("stream went offline, stopping capture")
		m.endCapture(ctx, rec, storage.CaptureStatusDone)
	}
}

// reapFinishedSession notices a capture that ended on its own (end of stream
// or transport failure) and reports whether the recording was reaped.
func (m *Monitor) reapFinishedSession(ctx context.Context, rec *recording.Recording) bool {
	sess := m.sessions[rec.ID]
	if sess == nil {
		rec.IsRecording = false

		return false
	}

	var (
		finished bool
		err      error
	)

	if sess.writer != nil {
		select {
		case <-sess.writer.Done():
			finished = true
			err = sess.writer.Err()
		default:
		}
	} else if sess.process != nil {
		select {
		case <-sess.process.Done():
			finished = true
			err = sess.process.Err()
		default:
		}
	}

	if !finished {
		return false
	}

	logger := logctx.LoggerFromContext(ctx)

	status := storage.CaptureStatusDone

	if err != nil {
		logger.Error("capture session failed", "err", err)

		status = storage.CaptureStatusFailed
		rec.StatusInfo = recording.StatusRecordingError
		m.tel.RecordSystemError("capture", "session_failed")
	}

	m.endCapture(ctx, rec, status)

	return true
}

func (m *Monitor) startCapture(ctx context.Context, rec *recording.Recording) {
	logger := logctx.LoggerFromContext(ctx)

	m.pushTransition(ctx, rec, notify.TransitionStart, false)

	kind, err := mux.ContainerForFormat(rec.Container)
	if err != nil {
		logger.Error("cannot start capture", "err", err)

		rec.StatusInfo = recording.StatusRecordingError

		return
	}

	outputPath := m.outputPath(rec, kind)

	sess := &session{startedAt: time.Now()}

	if kind == mux.ContainerFLV && !rec.Segmented {
		// ffmpeg chokes on some platform FLV streams; copy the bytes
		// verbatim instead.
		writer, err := capture.NewWriter(capture.Session{
			URL:      rec.URL,
			SavePath: outputPath,
			Headers:  rec.Headers,
			Proxy:    rec.Proxy,
		})
		if err != nil {
			logger.Error("failed to prepare stream writer", "err", err)

			rec.StatusInfo = recording.StatusRecordingError

			return
		}

		writer.Start(ctx)
		sess.writer = writer
	} else {
		plan := mux.Plan{
			Kind:           kind,
			Segmented:      rec.Segmented,
			SegmentSeconds: rec.SegmentSeconds,
			OutputPath:     outputPath,
		}

		process, err := m.launcher.Launch(ctx, plan, baseArgs(rec))
		if err != nil {
			logger.Error("failed to launch transcoder", "err", err)

			rec.StatusInfo = recording.StatusRecordingError

			return
		}

		sess.process = process
	}

	captureID, err := m.captures.TrackCapture(rec.ID, outputPath)
	if err != nil {
		logger.Error("failed to track capture", "err", err)
	}

	sess.captureID = captureID
	m.sessions[rec.ID] = sess

	rec.IsRecording = true
	rec.StatusInfo = recording.StatusNormal

	m.tel.IncrementActiveCaptures()

	logger.Info("capture started", "output", outputPath)
}

// endCapture tears down the session and records the outcome. Callers hold the
// monitor lock.
func (m *Monitor) endCapture(ctx context.Context, rec *recording.Recording, status string) {
	logger := logctx.LoggerFromContext(ctx)

	sess := m.sessions[rec.ID]
	if sess == nil {
		rec.IsRecording = false

		return
	}

	var bytes int64

	if sess.writer != nil {
		if err := sess.writer.Stop(ctx, m.cfg.StopTimeout); err != nil {
			logger.Warn("stream writer stop", "err", err)
		}

		bytes = sess.writer.BytesWritten()
	} else if sess.process != nil {
		if err := sess.process.Stop(ctx, m.cfg.StopTimeout); err != nil {
			logger.Warn("transcoder stop", "err", err)
		}
	}

	if err := m.captures.FinishCapture(sess.captureID, status, bytes); err != nil {
		logger.Error("failed to finish capture record", "err", err)
	}

	delete(m.sessions, rec.ID)

	rec.IsRecording = false

	m.tel.DecrementActiveCaptures()
	m.tel.RecordCapture(status, time.Since(sess.startedAt))
	m.tel.AddCaptureBytes(bytes)

	m.pushTransition(ctx, rec, notify.TransitionEnd, true)

	logger.Info("capture ended", "status", status, "bytes", bytes)
}

func (m *Monitor) pushTransition(ctx context.Context, rec *recording.Recording, kind notify.TransitionKind, checkManualStop bool) {
	if !m.gate.ShouldPush(rec, kind, checkManualStop) {
		return
	}

	title, content := renderMessage(rec, kind)

	for _, outcome := range m.gate.Push(ctx, title, content) {
		status := "success"
		if !outcome.Success {
			status = "error"
		}

		m.tel.RecordPush(outcome.Channel, status)
	}
}

// shutdownSessions stops every active session on daemon exit.
func (m *Monitor) shutdownSessions(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}

	for _, id := range ids {
		m.endCapture(ctx, m.recordings[id], storage.CaptureStatusStopped)
	}
}

func (m *Monitor) outputPath(rec *recording.Recording, kind mux.ContainerKind) string {
	base := rec.OutputDir
	if base == "" {
		base = m.cfg.OutputDir
	}

	name := sanitizeName(rec.Title) + "_" + time.Now().Format("20060102_150405")
	if rec.Segmented {
		name += "_%03d"
	}

	ext := rec.Container
	if kind == mux.ContainerMPEGTS {
		ext = "ts"
	}

	return filepath.Join(base, rec.PlatformKey, name+"."+ext)
}

func sanitizeName(title string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)

	return replacer.Replace(title)
}

func baseArgs(rec *recording.Recording) []string {
	args := []string{"-y", "-loglevel", "warning"}

	if len(rec.Headers) > 0 {
		var sb strings.Builder

		for k, v := range rec.Headers {
			sb.WriteString(k + ": " + v + "\r\n")
		}

		args = append(args, "-headers", sb.String())
	}

	if rec.Proxy != "" {
		args = append(args, "-http_proxy", rec.Proxy)
	}

	return append(args, "-i", rec.URL)
}

func renderMessage(rec *recording.Recording, kind notify.TransitionKind) (string, string) {
	if kind == notify.TransitionStart {
		return "Stream started: " + rec.Title,
			fmt.Sprintf("%s (%s) went live at %s", rec.Title, rec.PlatformKey, time.Now().Format("15:04:05"))
	}

	return "Stream ended: " + rec.Title,
		fmt.Sprintf("%s (%s) stopped streaming at %s", rec.Title, rec.PlatformKey, time.Now().Format("15:04:05"))
}
