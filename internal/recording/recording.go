package recording

// StatusInfo is the platform-reported detail status of a monitored recording.
type StatusInfo string

const (
	StatusNormal              StatusInfo = "normal"
	StatusRecordingError      StatusInfo = "recording_error"
	StatusLiveCheckError      StatusInfo = "live_check_error"
	StatusNotInScheduledCheck StatusInfo = "not_in_scheduled_check"
)

// Recording is a monitored stream. The monitor goroutine that owns a
// recording is the only writer of its signal fields; everything else reads.
type Recording struct {
	ID          string
	Title       string
	PlatformKey string
	URL         string
	OutputDir   string
	Headers     map[string]string
	Proxy       string

	// Signals feeding the card state derivation.
	IsRecording     bool
	IsLive          bool
	MonitorEnabled  bool
	StatusInfo      StatusInfo
	ManuallyStopped bool

	// Notification preferences.
	PushEnabled bool

	// Capture preferences.
	Container      string
	Segmented      bool
	SegmentSeconds int
}

// IsError reports whether the recording carries one of the error statuses.
func (r *Recording) IsError() bool {
	return r.StatusInfo == StatusRecordingError || r.StatusInfo == StatusLiveCheckError
}
