package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/streamcap/streamcapd/internal/logctx"
	"github.com/streamcap/streamcapd/internal/recording"
	"github.com/streamcap/streamcapd/internal/storage"
)

// ErrRecordingNotFound is returned by the recording service when the id is unknown.
var ErrRecordingNotFound = errors.New("recording not found")

// RecordingService is the monitor surface the API needs: a snapshot of the
// recordings and lifecycle controls.
type RecordingService interface {
	Recordings() []recording.Recording
	StopRecording(ctx context.Context, id string) error
	SetMonitorEnabled(ctx context.Context, id string, enabled bool) error
}

// RecordingView is the JSON projection of a recording. The card state is
// recomputed from the signals on every request.
type RecordingView struct {
	ID             string               `json:"id"`
	Title          string               `json:"title"`
	PlatformKey    string               `json:"platformKey"`
	CardState      recording.CardState  `json:"cardState"`
	IsRecording    bool                 `json:"isRecording"`
	IsLive         bool                 `json:"isLive"`
	MonitorEnabled bool                 `json:"monitorEnabled"`
	StatusInfo     recording.StatusInfo `json:"statusInfo"`
}

// CaptureView is the JSON projection of a tracked capture.
type CaptureView struct {
	ID          int64  `json:"id"`
	RecordingID string `json:"recordingId"`
	OutputPath  string `json:"outputPath"`
	StartedAt   string `json:"startedAt"`
	EndedAt     string `json:"endedAt,omitempty"`
	Bytes       int64  `json:"bytes"`
	Status      string `json:"status"`
}

// RecordingsHandler serves the recordings API.
type RecordingsHandler struct {
	username string
	password string
	service  RecordingService
	captures storage.CaptureReadRepository
}

// NewRecordingsHandler creates the API handler. Empty credentials disable
// basic auth.
func NewRecordingsHandler(username, password string, service RecordingService, captures storage.CaptureReadRepository) *RecordingsHandler {
	return &RecordingsHandler{
		username: username,
		password: password,
		service:  service,
		captures: captures,
	}
}

func (h *RecordingsHandler) Routes() http.Handler {
	r := chi.NewRouter()

	if h.username != "" {
		r.Use(h.basicAuthMiddleware)
	}

	r.Get("/recordings", h.handleListRecordings)
	r.Post("/recordings/{id}/stop", h.handleStopRecording)
	r.Post("/recordings/{id}/monitor", h.handleSetMonitor)
	r.Get("/recordings/{id}/captures", h.handleListRecordingCaptures)
	r.Get("/captures", h.handleListCaptures)

	return r
}

// handleListRecordings lists recordings, optionally narrowed by the status
// and platform query filters.
func (h *RecordingsHandler) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	statusFilter := recording.Filter(r.URL.Query().Get("status"))
	if statusFilter == "" {
		statusFilter = recording.FilterAll
	}

	platformFilter := r.URL.Query().Get("platform")
	if platformFilter == "" {
		platformFilter = "all"
	}

	views := make([]RecordingView, 0)

	for _, rec := range h.service.Recordings() {
		rec := rec
		if !recording.ShouldShow(&rec, statusFilter, platformFilter) {
			continue
		}

		views = append(views, RecordingView{
			ID:             rec.ID,
			Title:          rec.Title,
			PlatformKey:    rec.PlatformKey,
			CardState:      recording.ResolveCardStateCtx(r.Context(), &rec),
			IsRecording:    rec.IsRecording,
			IsLive:         rec.IsLive,
			MonitorEnabled: rec.MonitorEnabled,
			StatusInfo:     rec.StatusInfo,
		})
	}

	h.writeJSON(w, r, http.StatusOK, views)
}

func (h *RecordingsHandler) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.StopRecording(r.Context(), id); err != nil {
		if errors.Is(err, ErrRecordingNotFound) {
			http.Error(w, "recording not found", http.StatusNotFound)

			return
		}

		logctx.LoggerFromContext(r.Context()).Error("failed to stop recording", "recording_id", id, "err", err)
		http.Error(w, "failed to stop recording", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordingsHandler) handleSetMonitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Enabled bool `json:"enabled"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)

		return
	}

	if err := h.service.SetMonitorEnabled(r.Context(), id, body.Enabled); err != nil {
		if errors.Is(err, ErrRecordingNotFound) {
			http.Error(w, "recording not found", http.StatusNotFound)

			return
		}

		http.Error(w, "failed to update monitor status", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordingsHandler) handleListCaptures(w http.ResponseWriter, r *http.Request) {
	records, err := h.captures.GetCaptures()
	if err != nil {
		logctx.LoggerFromContext(r.Context()).Error("failed to list captures", "err", err)
		http.Error(w, "failed to list captures", http.StatusInternalServerError)

		return
	}

	h.writeJSON(w, r, http.StatusOK, captureViews(records))
}

func (h *RecordingsHandler) handleListRecordingCaptures(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	records, err := h.captures.GetCapturesByRecording(id)
	if err != nil {
		logctx.LoggerFromContext(r.Context()).Error("failed to list captures", "recording_id", id, "err", err)
		http.Error(w, "failed to list captures", http.StatusInternalServerError)

		return
	}

	h.writeJSON(w, r, http.StatusOK, captureViews(records))
}

func captureViews(records []storage.CaptureRecord) []CaptureView {
	views := make([]CaptureView, 0, len(records))

	for _, rec := range records {
		views = append(views, CaptureView{
			ID:          rec.ID,
			RecordingID: rec.RecordingID,
			OutputPath:  rec.OutputPath,
			StartedAt:   rec.StartedAt,
			EndedAt:     rec.EndedAt,
			Bytes:       rec.Bytes,
			Status:      rec.Status,
		})
	}

	return views
}

func (h *RecordingsHandler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logctx.LoggerFromContext(r.Context()).Error("failed to encode response", "err", err)
	}
}

func (h *RecordingsHandler) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			http.Error(w, "invalid authorization format", http.StatusUnauthorized)

			return
		}

		if username != h.username || password != h.password {
			http.Error(w, "invalid username or password", http.StatusUnauthorized)

			return
		}

		next.ServeHTTP(w, r)
	})
}
